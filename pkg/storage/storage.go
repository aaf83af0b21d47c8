// Package storage defines the byte oriented cache the auth service uses to
// remember Mojang lookups.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Storage is a key value store with entries that may expire. Get returns
// ErrNotFound for missing or expired keys.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
