// Package events fans committed todo mutations out over the event bus.
//
// The store notifies a Publisher, which puts each event on the address for
// its type. Audit, metrics and the NATS bridge are verticles consuming those
// addresses.
package events

import (
	"context"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/store"
)

// Event bus addresses, one per mutation type.
const (
	AddressCreated = "todos.created"
	AddressUpdated = "todos.updated"
	AddressDeleted = "todos.deleted"
)

// Addresses lists every mutation address.
var Addresses = []string{AddressCreated, AddressUpdated, AddressDeleted}

// Address returns the event bus address for t.
func Address(t store.EventType) string {
	return "todos." + string(t)
}

// Publisher returns a store observer that publishes every event on bus.
// The request id of the mutating call travels as the X-Request-ID header.
// Publish failures are logged and never reach the mutation that caused them.
func Publisher(bus core.EventBus, logger core.Logger) store.Observer {
	if logger == nil {
		logger = core.NewDefaultLogger()
	}
	return func(ctx context.Context, e store.Event) {
		if err := bus.PublishWithContext(ctx, Address(e.Type), e); err != nil {
			logger.WithContext(ctx).Warnf("publish %s event for todo %s: %v", e.Type, e.Todo.ID, err)
		}
	}
}

// subscribe registers h on every mutation address of v.
func subscribe(v *core.BaseVerticle, h core.MessageHandler) {
	for _, addr := range Addresses {
		v.Consumer(addr).Handler(h)
	}
}
