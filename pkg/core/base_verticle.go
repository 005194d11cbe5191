package core

import (
	"sync"
)

// BaseVerticle provides common lifecycle management for verticles.
//
// Embedded-method "overrides" are not dispatched dynamically in Go, so the
// concrete verticle registers explicit hooks with SetHooks instead.
type BaseVerticle struct {
	name string

	mu       sync.RWMutex
	ctx      FluxorContext
	eventBus EventBus
	started  bool
	stopped  bool

	// Consumers registered by this verticle (for cleanup)
	consumers []Consumer

	startHook func(ctx FluxorContext) error
	stopHook  func(ctx FluxorContext) error
}

// NewBaseVerticle creates a new BaseVerticle
func NewBaseVerticle(name string) *BaseVerticle {
	return &BaseVerticle{name: name}
}

// SetHooks configures the start/stop hooks called from Start and Stop.
func (bv *BaseVerticle) SetHooks(start, stop func(ctx FluxorContext) error) {
	bv.mu.Lock()
	defer bv.mu.Unlock()
	bv.startHook = start
	bv.stopHook = stop
}

// Start implements Verticle.Start
func (bv *BaseVerticle) Start(ctx FluxorContext) error {
	bv.mu.Lock()
	if bv.started {
		bv.mu.Unlock()
		return &Error{Code: ErrAlreadyStarted.Code, Message: "verticle " + bv.name + " already started"}
	}
	bv.ctx = ctx
	bv.eventBus = ctx.EventBus()
	hook := bv.startHook
	bv.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			bv.unregisterConsumers()
			return err
		}
	}

	bv.mu.Lock()
	bv.started = true
	bv.mu.Unlock()
	return nil
}

// Stop implements Verticle.Stop
func (bv *BaseVerticle) Stop(ctx FluxorContext) error {
	bv.mu.Lock()
	if bv.stopped || !bv.started {
		bv.mu.Unlock()
		return nil
	}
	hook := bv.stopHook
	bv.mu.Unlock()

	var err error
	if hook != nil {
		err = hook(ctx)
	}
	bv.unregisterConsumers()

	bv.mu.Lock()
	bv.stopped = true
	bv.mu.Unlock()
	return err
}

func (bv *BaseVerticle) unregisterConsumers() {
	bv.mu.Lock()
	consumers := bv.consumers
	bv.consumers = nil
	bv.mu.Unlock()
	for _, c := range consumers {
		_ = c.Unregister()
	}
}

// Name returns the verticle name
func (bv *BaseVerticle) Name() string {
	return bv.name
}

// Context returns the FluxorContext (set during Start)
func (bv *BaseVerticle) Context() FluxorContext {
	bv.mu.RLock()
	defer bv.mu.RUnlock()
	return bv.ctx
}

// IsStarted returns whether the verticle has been started
func (bv *BaseVerticle) IsStarted() bool {
	bv.mu.RLock()
	defer bv.mu.RUnlock()
	return bv.started
}

// IsStopped returns whether the verticle has been stopped
func (bv *BaseVerticle) IsStopped() bool {
	bv.mu.RLock()
	defer bv.mu.RUnlock()
	return bv.stopped
}

// Consumer creates a consumer for address that is unregistered on Stop
func (bv *BaseVerticle) Consumer(address string) Consumer {
	bv.mu.Lock()
	defer bv.mu.Unlock()
	if bv.eventBus == nil {
		panic("verticle not started - cannot create consumer")
	}
	c := bv.eventBus.Consumer(address)
	bv.consumers = append(bv.consumers, c)
	return c
}

// Publish is a convenience method to publish messages
func (bv *BaseVerticle) Publish(address string, body interface{}) error {
	bv.mu.RLock()
	bus := bv.eventBus
	bv.mu.RUnlock()
	if bus == nil {
		return ErrNotStarted
	}
	return bus.Publish(address, body)
}
