// internal/lock/locker.go
package lock

import (
	"bytes"
	"context"
	"slices"

	"github.com/google/uuid"
)

// Locker grants exclusive access to a set of wallets.
type Locker interface {
	// Lock blocks until every id is held or ctx is done. Ids are always taken in
	// Ordered order, so two callers locking overlapping sets cannot deadlock.
	// Calling the returned release func more than once is a no-op.
	Lock(ctx context.Context, ids ...uuid.UUID) (release func(), err error)
}

// Ordered returns ids sorted by their byte representation with duplicates removed.
func Ordered(ids ...uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}
