package security

import (
	"testing"

	"github.com/fluxorio/todolist/pkg/web"
	"github.com/valyala/fasthttp"
)

func run(t *testing.T, mw web.FastMiddleware, method, origin string) (*fasthttp.RequestCtx, bool) {
	t.Helper()
	rc := &fasthttp.RequestCtx{}
	rc.Request.Header.SetMethod(method)
	rc.Request.SetRequestURI("/todos")
	if origin != "" {
		rc.Request.Header.Set(fasthttp.HeaderOrigin, origin)
	}

	called := false
	h := mw(func(ctx *web.FastRequestContext) error {
		called = true
		return ctx.JSON(200, []string{})
	})
	if err := h(web.NewFastRequestContext(rc, nil, "")); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return rc, called
}

func TestCORS_DefaultAllowsAnyOrigin(t *testing.T) {
	mw := CORS(DefaultCORSConfig())

	rc, called := run(t, mw, "GET", "http://example.com")
	if !called {
		t.Fatal("GET should reach the handler")
	}
	if got := string(rc.Response.Header.Peek(fasthttp.HeaderAccessControlAllowOrigin)); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}

	rc, called = run(t, mw, "OPTIONS", "http://example.com")
	if called {
		t.Error("preflight should not reach the handler")
	}
	if rc.Response.StatusCode() != 204 {
		t.Errorf("preflight status = %d, want 204", rc.Response.StatusCode())
	}
	if got := string(rc.Response.Header.Peek(fasthttp.HeaderAccessControlAllowMethods)); got != "GET, POST, PUT, DELETE" {
		t.Errorf("Allow-Methods = %q", got)
	}
	if got := string(rc.Response.Header.Peek(fasthttp.HeaderAccessControlAllowHeaders)); got != "Content-Type" {
		t.Errorf("Allow-Headers = %q", got)
	}
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	mw := CORS(CORSConfig{
		AllowedOrigins: []string{"https://app.example"},
		AllowedMethods: []string{"GET"},
		MaxAge:         600,
	})

	rc, _ := run(t, mw, "OPTIONS", "https://app.example")
	if got := string(rc.Response.Header.Peek(fasthttp.HeaderAccessControlAllowOrigin)); got != "https://app.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := string(rc.Response.Header.Peek(fasthttp.HeaderAccessControlMaxAge)); got != "600" {
		t.Errorf("Max-Age = %q", got)
	}

	rc, called := run(t, mw, "GET", "https://evil.example")
	if !called {
		t.Error("disallowed origin should still be served, only without CORS headers")
	}
	if got := rc.Response.Header.Peek(fasthttp.HeaderAccessControlAllowOrigin); len(got) != 0 {
		t.Errorf("Allow-Origin = %q for disallowed origin", got)
	}
}
