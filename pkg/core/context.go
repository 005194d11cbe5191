package core

import (
	"context"
	"sync"
)

// FluxorContext is handed to verticles and message handlers.
// It exposes the runtime they were deployed into plus deployment-scoped config.
type FluxorContext interface {
	// Context returns the standard context, cancelled when the runtime closes
	Context() context.Context

	// EventBus returns the runtime's event bus
	EventBus() EventBus

	// Vertx returns the owning runtime
	Vertx() Vertx

	// Logger returns the runtime logger
	Logger() Logger

	// Config returns a config value set for this deployment
	Config(key string) (interface{}, bool)

	// SetConfig stores a config value for this deployment
	SetConfig(key string, value interface{})
}

type fluxorContext struct {
	stdCtx context.Context
	vertx  Vertx

	mu     sync.RWMutex
	config map[string]interface{}
}

func newContext(stdCtx context.Context, vertx Vertx) *fluxorContext {
	return &fluxorContext{
		stdCtx: stdCtx,
		vertx:  vertx,
		config: make(map[string]interface{}),
	}
}

func (c *fluxorContext) Context() context.Context { return c.stdCtx }
func (c *fluxorContext) Vertx() Vertx             { return c.vertx }
func (c *fluxorContext) EventBus() EventBus       { return c.vertx.EventBus() }
func (c *fluxorContext) Logger() Logger           { return c.vertx.Logger() }

func (c *fluxorContext) Config(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.config[key]
	return v, ok
}

func (c *fluxorContext) SetConfig(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config[key] = value
}
