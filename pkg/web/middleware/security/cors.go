// Package security holds CORS, security header and rate limiting middleware.
package security

import (
	"strconv"
	"strings"

	"github.com/fluxorio/todolist/pkg/web"
	"github.com/valyala/fasthttp"
)

// CORSConfig configures cross-origin resource sharing
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to call the API. "*" allows any.
	AllowedOrigins []string

	// AllowedMethods is sent on preflight responses
	AllowedMethods []string

	// AllowedHeaders is sent on preflight responses
	AllowedHeaders []string

	// ExposedHeaders lists response headers readable by the browser
	ExposedHeaders []string

	// MaxAge is the preflight cache duration in seconds (0 omits the header)
	MaxAge int
}

// DefaultCORSConfig allows every origin to use GET/POST/PUT/DELETE with a
// Content-Type header.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			fasthttp.MethodGet,
			fasthttp.MethodPost,
			fasthttp.MethodPut,
			fasthttp.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
	}
}

// CORS adds Access-Control-* headers to every response from an allowed
// origin and answers preflight OPTIONS requests with 204.
func CORS(config CORSConfig) web.FastMiddleware {
	allowAny := false
	allowed := make(map[string]struct{}, len(config.AllowedOrigins))
	for _, o := range config.AllowedOrigins {
		if o == "*" {
			allowAny = true
		}
		allowed[o] = struct{}{}
	}
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	exposed := strings.Join(config.ExposedHeaders, ", ")

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			h := &ctx.RequestCtx.Response.Header
			origin := string(ctx.RequestCtx.Request.Header.Peek(fasthttp.HeaderOrigin))

			originOK := allowAny
			if allowAny {
				h.Set(fasthttp.HeaderAccessControlAllowOrigin, "*")
			} else if _, ok := allowed[origin]; ok && origin != "" {
				originOK = true
				h.Set(fasthttp.HeaderAccessControlAllowOrigin, origin)
				h.Add(fasthttp.HeaderVary, fasthttp.HeaderOrigin)
			}
			if originOK && exposed != "" {
				h.Set(fasthttp.HeaderAccessControlExposeHeaders, exposed)
			}

			if !ctx.RequestCtx.IsOptions() {
				return next(ctx)
			}

			if originOK {
				if methods != "" {
					h.Set(fasthttp.HeaderAccessControlAllowMethods, methods)
				}
				if headers != "" {
					h.Set(fasthttp.HeaderAccessControlAllowHeaders, headers)
				}
				if config.MaxAge > 0 {
					h.Set(fasthttp.HeaderAccessControlMaxAge, strconv.Itoa(config.MaxAge))
				}
			}
			ctx.NoContent(fasthttp.StatusNoContent)
			return nil
		}
	}
}
