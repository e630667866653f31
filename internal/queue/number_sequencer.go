package queue

import (
	"context"
)

// NumberSequencer hands out token numbers from an atomic counter that lives
// outside the token store. Numbers it returns are candidates: the store's
// unique index has the final word.
type NumberSequencer interface {
	Next(ctx context.Context) (int64, error)

	// Resync raises the counter to at least floor. It never lowers it.
	Resync(ctx context.Context, floor int64) error

	Ping(ctx context.Context) error
}
