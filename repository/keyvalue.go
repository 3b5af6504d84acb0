package repository

import "context"

// KeyValueStore is the local durable store used to persist the identity
// between runs. Get returns domain.ErrKeyNotFound for a missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
