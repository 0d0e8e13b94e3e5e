// Package runlock enforces single-instance execution.
//
// Identifier assignment assumes exactly one writer per archive tree; two
// concurrent runs could hand out the same identifier. The lock file makes
// that assumption explicit instead of a documentation footnote.
package runlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock holds the process-wide run lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock file without blocking. It fails when another
// process already holds the lock.
func Acquire(path string) (*Lock, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another run holds the lock at %s", path)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. Safe to call on a nil lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
