package slot

import (
	"context"
	"errors"
)

// ErrEmpty is returned by Read when nothing is stored under the key.
var ErrEmpty = errors.New("slot is empty")

// Store is a single durable key-value slot. Writes replace the whole value.
type Store interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, value []byte) error
	// Delete is a no-op when the slot is already empty.
	Delete(ctx context.Context) error
}
