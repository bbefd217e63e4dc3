package queue

import (
	"fmt"

	"github.com/gofrs/flock"

	"docshelf/internal/services"
)

// Lock is the advisory single-writer lock shared by the executor run and the
// review API.
type Lock struct {
	fl *flock.Flock
}

// NewLock returns an unlocked Lock on path.
func NewLock(path string) *Lock {
	return &Lock{fl: flock.New(path)}
}

// TryAcquire takes the lock without blocking. A lock held elsewhere returns
// an error matching services.ErrExecutorBusy.
func (l *Lock) TryAcquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", l.fl.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: lock %s is held by another docshelf process", services.ErrExecutorBusy, l.fl.Path())
	}
	return nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}
