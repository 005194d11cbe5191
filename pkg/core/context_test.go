package core

import (
	"context"
	"testing"
)

func TestFluxorContext(t *testing.T) {
	v := NewVertx(context.Background())
	defer v.Close()

	ctx := newContext(v.Context(), v)
	if ctx.Context() != v.Context() {
		t.Error("Context() should return the runtime context")
	}
	if ctx.Vertx() != v || ctx.EventBus() != v.EventBus() || ctx.Logger() != v.Logger() {
		t.Error("context should expose the owning runtime")
	}
}

func TestFluxorContext_Config(t *testing.T) {
	v := NewVertx(context.Background())
	defer v.Close()
	ctx := newContext(v.Context(), v)

	if _, ok := ctx.Config("store.path"); ok {
		t.Fatal("unset key reported as present")
	}
	ctx.SetConfig("store.path", "todos.json")
	got, ok := ctx.Config("store.path")
	if !ok || got != "todos.json" {
		t.Errorf("Config() = %v, %v", got, ok)
	}
	if ctx.EventBus() != v.EventBus() {
		t.Error("EventBus() should come from the runtime")
	}
}

func TestFluxorContext_CancelledOnClose(t *testing.T) {
	v := NewVertx(context.Background())
	ctx := newContext(v.Context(), v)
	_ = v.Close()

	select {
	case <-ctx.Context().Done():
	default:
		t.Error("context should be cancelled once the runtime is closed")
	}
}
