// Package store provides the shared key-value/coordination layer used for
// run leases, cooperative pause flags, and settings-change notifications.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("store: key not found")

// Message represents a pub/sub message.
type Message struct {
	Channel string
	Payload []byte
}

// Subscription represents an active subscription to a channel.
type Subscription interface {
	// Channel returns the channel on which messages are delivered.
	Channel() <-chan *Message
	// Close terminates the subscription.
	Close() error
}

// Store is the coordination-layer contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// Set stores a key-value pair, with optional TTL (0 means no expiry).
	Set(key string, value []byte, ttl time.Duration) error
	// Get retrieves a value; returns ErrNotFound when absent.
	Get(key string) ([]byte, error)
	// Delete removes a key.
	Delete(key string) error
	// Exists reports whether a key is present.
	Exists(key string) (bool, error)
	// SetNX sets a key only if it does not exist; reports whether it was set.
	// This is the primitive behind per-language run leases.
	SetNX(key string, value []byte, ttl time.Duration) (bool, error)

	// Publish sends a message to all subscribers of a channel.
	Publish(channel string, message []byte) error
	// Subscribe listens for messages on a channel.
	Subscribe(channel string) (Subscription, error)

	// Clear removes all data.
	Clear() error
	// Close releases resources.
	Close() error
}
