// Package lockfile provides an advisory, cross-process single-instance
// lock over the disk cache directory, so two pictocrab daemons never
// share one disk_cache_dir and race over {id}.bmp numbering. Grounded on
// zUZWqEHF-cocoon/lock/flock/flock.go's flock(2)-via-gofrs/flock
// wrapper, simplified to the single-daemon case (no in-process channel
// token is needed: pictocrab holds exactly one lock per process).
package lockfile

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock wraps a flock(2) advisory lock file placed inside the directory
// it protects.
type Lock struct {
	fl *flock.Flock
}

// Acquire creates (or reuses) a ".pictocrabd.lock" file inside dir and takes a
// non-blocking exclusive lock on it. It returns an error if another
// process already holds the lock.
func Acquire(dir string) (*Lock, error) {
	fl := flock.New(filepath.Join(dir, ".pictocrabd.lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock on %s: %w", dir, err)
	}
	if !ok {
		return nil, fmt.Errorf("disk cache dir %s is already locked by another pictocrabd process", dir)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks the lock file. It is safe to call on a nil *Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.fl.Unlock()
}
