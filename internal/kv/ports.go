//go:generate mockgen -source=ports.go -destination=mocks/mock_storage.go -package=mocks

// Package kv defines the durable key-value storage the ledger persists its snapshots to.
package kv

import (
	"context"
	"errors"
	"time"
)

// Keys of the persisted snapshots.
const (
	KeyTransactions = "transactions"
	KeyCategories   = "categories"
)

// ErrNotFound is returned by Get when no value was ever stored under the key.
var ErrNotFound = errors.New("key not found")

// Storage is a string-keyed, string-valued durable store.
// There are no transactions across keys.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Closer is implemented by backends holding resources.
type Closer interface {
	Close() error
}

// Timestamper is implemented by backends that record when a key was last written.
type Timestamper interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}
