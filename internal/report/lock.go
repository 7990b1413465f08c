package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked indicates another run is writing the same output files.
var ErrLocked = errors.New("output files are locked by another run")

// Lock is an exclusive claim on one output name in one directory.
type Lock struct {
	fl *flock.Flock
}

// LockPath returns the lock file guarding the outputs named name in dir.
func LockPath(dir, name string) string {
	return filepath.Join(dir, "."+name+".lock")
}

// AcquireLock claims the output name without blocking. It fails with
// ErrLocked when another process holds the claim.
func AcquireLock(dir, name string) (*Lock, error) {
	fl := flock.New(LockPath(dir, name))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, fl.Path())
	}
	return &Lock{fl: fl}, nil
}

// Release drops the claim and removes the lock file.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if err := os.Remove(l.fl.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
