// Package lockfile enforces the single-writer assumption the rest of
// cortex is built on (see spec's Concurrency & Resource Model: "no
// concurrent writers"). It is an advisory guard, not a distributed lock
// manager: a second cortex process on the same machine will block
// rather than race with the first.
package lockfile

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock is a held advisory lock. Release must be called to give it up.
type Lock struct {
	fl *flock.Flock
}

// Acquire blocks until it obtains an exclusive advisory lock on path,
// creating the file if necessary. Callers must defer Release().
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lockfile: failed to acquire %s: %w", path, err)
	}
	return &Lock{fl: fl}, nil
}

// TryAcquire attempts to obtain the lock without blocking. ok is false
// if another process currently holds it.
func TryAcquire(path string) (lock *Lock, ok bool, err error) {
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("lockfile: failed to try-acquire %s: %w", path, err)
	}
	if !locked {
		return nil, false, nil
	}
	return &Lock{fl: fl}, true, nil
}

// Release gives up the lock.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
