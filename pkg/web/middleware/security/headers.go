package security

import (
	"strconv"

	"github.com/fluxorio/todolist/pkg/web"
)

// HeadersConfig configures response security headers. Empty values are not sent.
type HeadersConfig struct {
	// HSTS sends Strict-Transport-Security. Only useful behind TLS.
	HSTS           bool
	HSTSMaxAge     int // seconds, default 31536000
	HSTSIncludeSub bool

	CSP                       string
	XFrameOptions             string
	XContentTypeOptions       bool // nosniff
	ReferrerPolicy            string
	CrossOriginResourcePolicy string

	CustomHeaders map[string]string
}

// DefaultHeadersConfig is locked down for a JSON API that serves no HTML.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                       "default-src 'none'; frame-ancestors 'none'",
		XFrameOptions:             "DENY",
		XContentTypeOptions:       true,
		ReferrerPolicy:            "no-referrer",
		CrossOriginResourcePolicy: "same-origin",
	}
}

// Headers sets the configured security headers on every response.
func Headers(config HeadersConfig) web.FastMiddleware {
	var pairs [][2]string
	add := func(k, v string) {
		if v != "" {
			pairs = append(pairs, [2]string{k, v})
		}
	}

	if config.HSTS {
		maxAge := config.HSTSMaxAge
		if maxAge <= 0 {
			maxAge = 31536000
		}
		hsts := "max-age=" + strconv.Itoa(maxAge)
		if config.HSTSIncludeSub {
			hsts += "; includeSubDomains"
		}
		add("Strict-Transport-Security", hsts)
	}
	add("Content-Security-Policy", config.CSP)
	add("X-Frame-Options", config.XFrameOptions)
	if config.XContentTypeOptions {
		add("X-Content-Type-Options", "nosniff")
	}
	add("Referrer-Policy", config.ReferrerPolicy)
	add("Cross-Origin-Resource-Policy", config.CrossOriginResourcePolicy)
	for k, v := range config.CustomHeaders {
		add(k, v)
	}

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			h := &ctx.RequestCtx.Response.Header
			for _, p := range pairs {
				h.Set(p[0], p[1])
			}
			return next(ctx)
		}
	}
}
