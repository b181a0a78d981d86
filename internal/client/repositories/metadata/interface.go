// Package metadata is the device-local key/value store backing the session
// and the fallback user table.
package metadata

import (
	"context"
)

// Repository stores opaque values by key. Get reports found=false for a
// missing key; Delete of a missing key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
}
