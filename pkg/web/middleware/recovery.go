// Package middleware holds request middleware shared by every route.
package middleware

import (
	"fmt"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/web"
	"github.com/valyala/fasthttp"
)

// RecoveryConfig configures panic recovery middleware
type RecoveryConfig struct {
	// Logger is the logger to use for panic logging (default: core.NewDefaultLogger())
	Logger core.Logger

	// ExposePanic puts the panic value in the error response instead of a generic message
	ExposePanic bool
}

// DefaultRecoveryConfig returns a default recovery configuration
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		Logger: core.NewDefaultLogger(),
	}
}

// Recovery middleware recovers from panics and answers 500 {"error": message}
func Recovery(config RecoveryConfig) web.FastMiddleware {
	logger := config.Logger
	if logger == nil {
		logger = core.NewDefaultLogger()
	}

	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(map[string]interface{}{
						"request_id": ctx.RequestID(),
						"method":     string(ctx.Method()),
						"path":       string(ctx.Path()),
					}).Errorf("panic recovered: %v", r)

					msg := "internal server error"
					if config.ExposePanic {
						msg = fmt.Sprintf("panic: %v", r)
					}
					err = ctx.ErrorJSON(fasthttp.StatusInternalServerError, msg)
				}
			}()

			return next(ctx)
		}
	}
}
