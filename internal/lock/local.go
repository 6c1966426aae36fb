// internal/lock/local.go
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"finflow-transfer/internal/util"
)

type localEntry struct {
	sem  chan struct{}
	refs int
}

// LocalLocker serializes access to wallets within one process.
// Entries exist only while someone holds or waits for them.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*localEntry
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[uuid.UUID]*localEntry)}
}

var _ Locker = (*LocalLocker)(nil)

// Lock acquires the wallets in ascending order.
func (l *LocalLocker) Lock(ctx context.Context, ids ...uuid.UUID) (func(), error) {
	ordered := Ordered(ids...)
	held := make([]uuid.UUID, 0, len(ordered))

	for _, id := range ordered {
		e := l.ref(id)
		select {
		case e.sem <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.unref(id)
			l.unlock(held)
			return nil, fmt.Errorf("%w: waiting for lock on wallet %s: %w", util.ErrStorage, id, ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(func() { l.unlock(held) }) }, nil
}

// Len reports how many wallets are currently locked or awaited.
func (l *LocalLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *LocalLocker) ref(id uuid.UUID) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.entries[id] = e
	}
	e.refs++
	return e
}

func (l *LocalLocker) unref(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[id]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}

// unlock releases in reverse acquisition order.
func (l *LocalLocker) unlock(held []uuid.UUID) {
	for i := len(held) - 1; i >= 0; i-- {
		l.mu.Lock()
		e := l.entries[held[i]]
		l.mu.Unlock()
		<-e.sem
		l.unref(held[i])
	}
}
