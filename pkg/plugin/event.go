package plugin

import (
	"context"
	"time"
)

// Event is a message published on the event bus.
type Event struct {
	Topic     string    `json:"topic"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// EventHandler processes an event delivered by the bus.
type EventHandler func(ctx context.Context, event Event)

// EventBus is the publish/subscribe contract shared by modules.
type EventBus interface {
	// Publish delivers the event to all matching handlers synchronously.
	Publish(ctx context.Context, event Event) error

	// PublishAsync delivers the event to each handler on its own goroutine.
	PublishAsync(ctx context.Context, event Event)

	// Subscribe registers a handler for one topic and returns an unsubscribe func.
	Subscribe(topic string, handler EventHandler) func()

	// SubscribeAll registers a handler for every topic.
	SubscribeAll(handler EventHandler) func()
}
