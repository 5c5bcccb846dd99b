package storage

import (
	"context"
	"errors"

	"github.com/kWAYTV/rust-decay-notification-app/pkg/model"
)

// DefaultKey is the key under which the container collection is stored.
const DefaultKey = "containers-v2"

// ErrNoChange may be returned by an Update function to end the transaction
// without writing. Update then returns nil.
var ErrNoChange = errors.New("no change")

// State is everything persisted for one collection.
type State struct {
	Containers    []model.Container
	AlertsEnabled bool
}

// Storage is the durable key-value layer behind the container collection.
// Implementations must be safe for concurrent use, including by several
// processes sharing the same store.
type Storage interface {
	// LoadContainers returns the stored collection. Missing or unreadable
	// state yields an empty collection; only I/O failures are errors.
	LoadContainers(ctx context.Context) ([]model.Container, error)

	// SaveContainers replaces the stored collection.
	SaveContainers(ctx context.Context, containers []model.Container) error

	// AlertsEnabled reports whether the user has enabled alerts.
	AlertsEnabled(ctx context.Context) (bool, error)

	// SetAlertsEnabled persists the alerts flag.
	SetAlertsEnabled(ctx context.Context, enabled bool) error

	// Update reads the current state and writes back what fn returns, as
	// one transaction that excludes other writers. Nothing is written when
	// fn returns an error.
	Update(ctx context.Context, fn func(State) (State, error)) error

	// Close releases resources.
	Close() error
}
