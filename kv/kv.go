// Package kv defines the key-value contract the stores persist through,
// plus the in-memory driver and the typed persistence wrapper.
package kv

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("kv: key not found")
	ErrNotReady = errors.New("kv: store not ready")
)

// Store is a single-namespace key-value service. Get returns ErrNotFound
// for absent keys; Remove on an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
	Ready(ctx context.Context) bool
	Close() error
}
