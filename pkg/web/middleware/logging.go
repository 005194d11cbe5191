package middleware

import (
	"time"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/web"
)

// AccessLog logs one line per request with method, path, status and latency.
// 5xx responses are logged at error level, 4xx at warn, the rest at info.
func AccessLog(logger core.Logger) web.FastMiddleware {
	if logger == nil {
		logger = core.NewDefaultLogger()
	}

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			start := time.Now()
			err := next(ctx)

			status := ctx.RequestCtx.Response.StatusCode()
			entry := logger.WithFields(map[string]interface{}{
				"request_id": ctx.RequestID(),
				"method":     string(ctx.Method()),
				"path":       string(ctx.Path()),
				"status":     status,
				"duration":   time.Since(start).String(),
			})
			switch {
			case err != nil:
				entry.Errorf("request failed: %v", err)
			case status >= 500:
				entry.Error("request completed")
			case status >= 400:
				entry.Warn("request completed")
			default:
				entry.Info("request completed")
			}
			return err
		}
	}
}
