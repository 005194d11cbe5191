package security

import (
	"testing"
	"time"

	"github.com/fluxorio/todolist/pkg/web"
	"github.com/valyala/fasthttp"
)

func serve(t *testing.T, mw web.FastMiddleware, path string) *fasthttp.RequestCtx {
	t.Helper()
	rc := &fasthttp.RequestCtx{}
	rc.Request.Header.SetMethod("GET")
	rc.Request.SetRequestURI(path)
	h := mw(func(ctx *web.FastRequestContext) error {
		return ctx.JSON(200, []string{})
	})
	if err := h(web.NewFastRequestContext(rc, nil, "")); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return rc
}

func TestRateLimiter_BurstThen429(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2, SkipPaths: []string{"/health"}})
	mw := rl.Middleware()

	for i := 0; i < 2; i++ {
		if rc := serve(t, mw, "/todos"); rc.Response.StatusCode() != 200 {
			t.Fatalf("request %d status = %d, want 200", i, rc.Response.StatusCode())
		}
	}

	rc := serve(t, mw, "/todos")
	if rc.Response.StatusCode() != fasthttp.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rc.Response.StatusCode())
	}
	if got := string(rc.Response.Body()); got != `{"error":"too many requests"}` {
		t.Errorf("body = %s", got)
	}
	if got := string(rc.Response.Header.Peek(fasthttp.HeaderRetryAfter)); got != "1" {
		t.Errorf("Retry-After = %q", got)
	}

	if rc := serve(t, mw, "/health"); rc.Response.StatusCode() != 200 {
		t.Errorf("skipped path status = %d, want 200", rc.Response.StatusCode())
	}
}

func TestRateLimiter_PerClientAndRefill(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || rl.Allow("a") {
		t.Fatal("client a should get exactly one token")
	}
	if !rl.Allow("b") {
		t.Error("client b has its own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("a") {
		t.Error("client a should be refilled after one second")
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{IdleTTL: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	if rl.Clients() != 2 {
		t.Fatalf("Clients() = %d, want 2", rl.Clients())
	}

	now = now.Add(2 * time.Minute)
	rl.Allow("c")
	if rl.Clients() != 1 {
		t.Errorf("Clients() = %d after idle sweep, want 1", rl.Clients())
	}
}
