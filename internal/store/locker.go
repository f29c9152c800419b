package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/envelope-zero/ledger/internal/models"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// locker is an in-process keyed lock. Each key gets its own semaphore,
// which is dropped from the registry once nobody holds or waits for it.
type locker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*keyLock
}

type keyLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newLocker() *locker {
	return &locker{
		locks: make(map[uuid.UUID]*keyLock),
	}
}

// acquire waits for the lock for key for at most timeout.
//
// If the wait times out, ErrLockTimeout is returned. If ctx is canceled,
// the context error is returned.
func (l *locker) acquire(ctx context.Context, key uuid.UUID, timeout time.Duration) error {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &keyLock{sem: semaphore.NewWeighted(1)}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := lock.sem.Acquire(ctx, 1)
	if err == nil {
		return nil
	}

	l.unref(key, lock)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: waited %s for envelope %s", models.ErrLockTimeout, timeout, key)
	}
	return err
}

// release releases the lock for key. It must only be called after a
// successful acquire.
func (l *locker) release(key uuid.UUID) {
	l.mu.Lock()
	lock := l.locks[key]
	l.mu.Unlock()

	lock.sem.Release(1)
	l.unref(key, lock)
}

func (l *locker) unref(key uuid.UUID, lock *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

// size returns the number of keys in the registry.
func (l *locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
