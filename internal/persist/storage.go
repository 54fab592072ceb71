// Package persist moves fight state in and out of a key-value medium. It
// owns the versioned wire format and the sanitizer that turns an untrusted
// stored document back into a valid state.
package persist

import "context"

// Storage is a key-value medium for serialized state documents. Load
// returns an error wrapping domain.ErrNotFound when key has never been
// saved or was deleted.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
