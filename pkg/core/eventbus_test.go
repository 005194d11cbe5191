package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestEventBus_PublishFanout(t *testing.T) {
	vertx := NewVertx(context.Background())
	defer vertx.Close()
	bus := vertx.EventBus()

	var wg sync.WaitGroup
	wg.Add(2)
	got := make(chan string, 2)
	handler := func(_ FluxorContext, msg Message) error {
		var body struct {
			Title string `json:"title"`
		}
		if err := msg.DecodeBody(&body); err != nil {
			t.Errorf("DecodeBody() error = %v", err)
		}
		got <- body.Title
		wg.Done()
		return nil
	}
	bus.Consumer("todos.created").Handler(handler)
	bus.Consumer("todos.created").Handler(handler)
	bus.Consumer("todos.deleted").Handler(func(_ FluxorContext, _ Message) error {
		t.Error("consumer on another address must not receive the message")
		return nil
	})

	if err := bus.Publish("todos.created", map[string]string{"title": "Buy milk"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitTimeout(t, &wg, 2*time.Second)
	close(got)
	for title := range got {
		if title != "Buy milk" {
			t.Errorf("title = %q, want Buy milk", title)
		}
	}
}

func TestEventBus_PreservesOrderPerConsumer(t *testing.T) {
	vertx := NewVertx(context.Background())
	defer vertx.Close()
	bus := vertx.EventBus()

	const n = 50
	var mu sync.Mutex
	var seen []int
	var wg sync.WaitGroup
	wg.Add(n)
	bus.Consumer("seq").Handler(func(_ FluxorContext, msg Message) error {
		var v int
		if err := msg.DecodeBody(&v); err != nil {
			return err
		}
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
		wg.Done()
		return nil
	})

	for i := 0; i < n; i++ {
		if err := bus.Publish("seq", i); err != nil {
			t.Fatalf("Publish(%d) error = %v", i, err)
		}
	}
	waitTimeout(t, &wg, 2*time.Second)

	for i, v := range seen {
		if v != i {
			t.Fatalf("seen[%d] = %d, messages delivered out of order", i, v)
		}
	}
}

func TestEventBus_Validation(t *testing.T) {
	bus := NewEventBus(context.Background(), nil)
	defer bus.Close()

	if err := bus.Publish("", "x"); err == nil {
		t.Error("Publish() with empty address should fail")
	}
	if err := bus.Publish("addr", nil); err == nil {
		t.Error("Publish() with nil body should fail")
	}
}

func TestEventBus_UnregisterAndClose(t *testing.T) {
	bus := NewEventBus(context.Background(), nil)

	c := bus.Consumer("a")
	c.Handler(func(_ FluxorContext, _ Message) error { return nil })
	if err := c.Unregister(); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	select {
	case <-c.Completion():
	case <-time.After(time.Second):
		t.Fatal("consumer did not complete after Unregister")
	}
	// Unregister twice is harmless
	_ = c.Unregister()

	other := bus.Consumer("b")
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case <-other.Completion():
	default:
		t.Error("Close() should wait for consumers to complete")
	}

	if err := bus.Publish("b", "x"); !errors.Is(err, ErrBusClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrBusClosed", err)
	}
}

func TestEventBus_HandlerPanicIsolated(t *testing.T) {
	bus := NewEventBus(context.Background(), nil)
	defer bus.Close()

	done := make(chan struct{})
	calls := 0
	bus.Consumer("p").Handler(func(_ FluxorContext, _ Message) error {
		calls++
		if calls == 1 {
			panic("boom")
		}
		close(done)
		return nil
	})

	_ = bus.Publish("p", 1)
	_ = bus.Publish("p", 2)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer stopped after handler panic")
	}
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	ch := make(chan struct{})
	go func() {
		wg.Wait()
		close(ch)
	}()
	select {
	case <-ch:
	case <-time.After(d):
		t.Fatal("timed out waiting for handlers")
	}
}
