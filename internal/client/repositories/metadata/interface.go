// Package metadata is a small key/value table in the local SQLite database.
// The credential store keeps the current user and the cookie jar here.
package metadata

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no row.
var ErrNotFound = errors.New("metadata key not found")

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
