package core

import "context"

// Message represents a message on the event bus
type Message interface {
	// Address the message was published to
	Address() string

	// Body returns the message body (JSON bytes)
	Body() interface{}

	// Headers returns a copy of the message headers
	Headers() map[string]string

	// DecodeBody decodes the message body into v
	DecodeBody(v interface{}) error
}

// EventBus provides publish-subscribe messaging.
// Default data format is JSON: bodies that are not already []byte are encoded.
type EventBus interface {
	// Publish delivers a message to every consumer registered for the address
	Publish(address string, body interface{}) error

	// PublishWithContext is Publish with headers taken from ctx (request id)
	PublishWithContext(ctx context.Context, address string, body interface{}) error

	// Consumer creates a consumer for the given address
	Consumer(address string) Consumer

	// Close unregisters all consumers and rejects further publishes
	Close() error
}

// Consumer represents a message consumer
type Consumer interface {
	// Handler sets the message handler
	Handler(handler MessageHandler) Consumer

	// Completion returns a channel closed once the consumer has drained and stopped
	Completion() <-chan struct{}

	// Unregister unregisters the consumer
	Unregister() error
}

// MessageHandler handles incoming messages
type MessageHandler func(ctx FluxorContext, msg Message) error
