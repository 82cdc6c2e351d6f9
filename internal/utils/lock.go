package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "cinedex.lock"

// RunLock manages a file-based lock on the data directory so that two
// build runs never mutate the same artifacts concurrently.
type RunLock struct {
	lock *flock.Flock
	path string
}

// NewRunLock creates a new lock for the given data directory.
func NewRunLock(dataDir string) (*RunLock, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve data dir: %w", err)
	}
	lockPath := filepath.Join(absDir, lockFileName)
	return &RunLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the data-dir lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *RunLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another cinedex process is using this data directory, waiting for it to finish...\n")
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// Unlock releases the data-dir lock.
func (l *RunLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		// Suppress error if the lock file doesn't exist, as it means we don't hold the lock.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
