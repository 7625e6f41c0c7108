// Package metadata is the durable key/value table of the local client
// database. Values are opaque bytes; callers own the encoding.
package metadata

import (
	"context"
)

// Repository reads and writes single keys. Get returns (nil, nil) when the
// key is absent; Delete succeeds on missing keys.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
