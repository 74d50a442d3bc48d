// Package blob defines the object storage contract used for index checkpoints
// and the embedding cache.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound signals a missing object.
var ErrNotFound = errors.New("blob: not found")

// Op names for error context.
const (
	OpGet    = "GET"
	OpPut    = "PUT"
	OpExists = "EXISTS"
	OpPing   = "PING"
)

// Store is a flat key/value object store. Put replaces the whole object.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Error wraps a backend error with the operation and key for diagnostics.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string { return e.Op + " " + e.Key + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// IndexKey returns the checkpoint key of a tenant's index.
func IndexKey(prefix, tenant string) string {
	return prefix + "tenants/" + tenant + "/index.msgpack"
}

// EmbeddingKey returns the cache key of one embedding.
func EmbeddingKey(prefix, hash string) string {
	return prefix + "emb/" + hash
}
