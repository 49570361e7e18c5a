package util

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockName is the lock file created inside the destination root.
const LockName = ".contentsync.lock"

// AcquireLock takes the exclusive run lock in dir without blocking. The lock
// is an flock(2) on LockName, so the kernel drops it when the holding process
// exits. The returned func releases the lock; the file itself stays.
func AcquireLock(dir string) (func() error, error) {
	lock := flock.New(filepath.Join(dir, LockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	return func() error {
		if err := lock.Unlock(); err != nil {
			return err
		}
		return lock.Close()
	}, nil
}
