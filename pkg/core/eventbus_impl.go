package core

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMailboxSize bounds each consumer's queue. Publish never blocks:
// when a consumer's mailbox is full the message is dropped for that consumer.
const DefaultMailboxSize = 1024

type message struct {
	address string
	body    []byte
	headers map[string]string
}

func (m *message) Address() string   { return m.address }
func (m *message) Body() interface{} { return m.body }

func (m *message) Headers() map[string]string {
	out := make(map[string]string, len(m.headers))
	for k, v := range m.headers {
		out[k] = v
	}
	return out
}

func (m *message) DecodeBody(v interface{}) error {
	return JSONDecode(m.body, v)
}

// eventBus is the in-process EventBus.
//
// Thread-safety: mu guards consumers and closed. Publish holds the read lock
// while enqueuing, Unregister/Close hold the write lock while closing
// mailboxes, so a send never races a close.
type eventBus struct {
	ctx    context.Context
	vertx  Vertx
	logger Logger

	mu        sync.RWMutex
	consumers map[string][]*consumer
	closed    bool
}

// NewEventBus creates a new in-process event bus
func NewEventBus(ctx context.Context, vertx Vertx) EventBus {
	logger := NewDefaultLogger()
	if vertx != nil && vertx.Logger() != nil {
		logger = vertx.Logger()
	}
	return &eventBus{
		ctx:       ctx,
		vertx:     vertx,
		logger:    logger,
		consumers: make(map[string][]*consumer),
	}
}

func (eb *eventBus) Publish(address string, body interface{}) error {
	return eb.PublishWithContext(eb.ctx, address, body)
}

func (eb *eventBus) PublishWithContext(ctx context.Context, address string, body interface{}) error {
	if err := ValidateAddress(address); err != nil {
		return err
	}
	if err := ValidateBody(body); err != nil {
		return err
	}
	data, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("encode body failed: %w", err)
	}

	headers := make(map[string]string)
	if rid := GetRequestID(ctx); rid != "" {
		headers[RequestIDHeader] = rid
	}
	msg := &message{address: address, body: data, headers: headers}

	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return ErrBusClosed
	}
	for _, c := range eb.consumers[address] {
		select {
		case c.mailbox <- msg:
		default:
			eb.logger.Warnf("event bus: mailbox full for %s, message dropped", address)
		}
	}
	return nil
}

func (eb *eventBus) Consumer(address string) Consumer {
	c := &consumer{
		address: address,
		bus:     eb,
		mailbox: make(chan Message, DefaultMailboxSize),
		done:    make(chan struct{}),
	}

	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		close(c.mailbox)
		c.closed = true
	} else {
		eb.consumers[address] = append(eb.consumers[address], c)
		eb.mu.Unlock()
	}

	go c.run()
	return c
}

func (eb *eventBus) Close() error {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return nil
	}
	eb.closed = true
	all := eb.consumers
	eb.consumers = make(map[string][]*consumer)
	for _, list := range all {
		for _, c := range list {
			c.closeMailbox()
		}
	}
	eb.mu.Unlock()

	for _, list := range all {
		for _, c := range list {
			<-c.done
		}
	}
	return nil
}

func (eb *eventBus) remove(c *consumer) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	list := eb.consumers[c.address]
	for i, existing := range list {
		if existing == c {
			eb.consumers[c.address] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(eb.consumers[c.address]) == 0 {
		delete(eb.consumers, c.address)
	}
	c.closeMailbox()
}

func encodeBody(body interface{}) ([]byte, error) {
	if b, ok := body.([]byte); ok {
		return b, nil
	}
	return JSONEncode(body)
}

type consumer struct {
	address string
	bus     *eventBus
	mailbox chan Message
	done    chan struct{}

	// closed is guarded by bus.mu
	closed bool

	mu      sync.RWMutex
	handler MessageHandler
}

func (c *consumer) Handler(handler MessageHandler) Consumer {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
	return c
}

func (c *consumer) Completion() <-chan struct{} {
	return c.done
}

func (c *consumer) Unregister() error {
	c.bus.remove(c)
	return nil
}

// closeMailbox must be called with bus.mu held for writing.
func (c *consumer) closeMailbox() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.mailbox)
}

func (c *consumer) run() {
	defer close(c.done)
	var ctx FluxorContext
	if c.bus.vertx != nil {
		ctx = newContext(c.bus.ctx, c.bus.vertx)
	}
	for msg := range c.mailbox {
		c.mu.RLock()
		h := c.handler
		c.mu.RUnlock()
		if h == nil {
			continue
		}
		c.dispatch(ctx, h, msg)
	}
}

func (c *consumer) dispatch(ctx FluxorContext, h MessageHandler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			c.bus.logger.Errorf("event bus: handler panic on %s: %v", c.address, r)
		}
	}()
	if err := h(ctx, msg); err != nil {
		c.bus.logger.Warnf("event bus: handler error on %s: %v", c.address, err)
	}
}
