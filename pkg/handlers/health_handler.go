package handlers

import (
	"github.com/fluxorio/todolist/pkg/web"
	"github.com/valyala/fasthttp"
)

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	ready func() bool
}

// NewHealthHandler creates a health handler. ready may be nil (always ready).
func NewHealthHandler(ready func() bool) *HealthHandler {
	return &HealthHandler{ready: ready}
}

// RegisterRoutes mounts /health and /ready on r
func (h *HealthHandler) RegisterRoutes(r *web.Router) {
	r.GETFast("/health", h.Health)
	r.GETFast("/ready", h.Ready)
}

// Health handles GET /health
func (h *HealthHandler) Health(ctx *web.FastRequestContext) error {
	return ctx.JSON(fasthttp.StatusOK, map[string]string{"status": "UP"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(ctx *web.FastRequestContext) error {
	if h.ready != nil && !h.ready() {
		return ctx.JSON(fasthttp.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
	}
	return ctx.JSON(fasthttp.StatusOK, map[string]string{"status": "UP"})
}
