// Package pubsub defines the notification relay used to tell connected
// clients that the message list changed.
//
// Delivery is best-effort: every subscriber has a bounded buffer and an event
// that does not fit is dropped for that subscriber only. Publishers never
// block on slow subscribers. Consumers must treat each event as "state may
// have changed" and never as a diff.
package pubsub

import (
	"context"
	"errors"
)

// EventMessageCreated is published after a message has been stored.
const EventMessageCreated = "GotMessage"

// DefaultBufferSize is the per-subscription event buffer.
const DefaultBufferSize = 16

// ErrClosed is returned by operations on a closed broker.
var ErrClosed = errors.New("pubsub: broker closed")

// Event is a notification. It carries no message content.
type Event struct {
	Channel string `json:"channel"`
	Name    string `json:"event"`
}

// Subscription is a live subscription to one channel.
type Subscription interface {
	// Events is closed once the subscription ends.
	Events() <-chan Event
	// Close unsubscribes. Safe to call more than once.
	Close() error
}

// Broker publishes and fans out events on named channels.
type Broker interface {
	Publish(ctx context.Context, channel string, ev Event) error
	// Subscribe registers a subscriber on channel. Implementations say when
	// delivery starts; events published before that are not replayed.
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	Close() error
}
