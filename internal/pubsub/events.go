// Package pubsub fans typed events out to any number of subscribers.
// Document edits travel through it.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened.
type EventType string

const (
	InsertedEvent EventType = "inserted"
	DeletedEvent  EventType = "deleted"
	UpdatedEvent  EventType = "updated"
	ReloadedEvent EventType = "reloaded"
)

// Event carries a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber hands out event channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher sends events.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
