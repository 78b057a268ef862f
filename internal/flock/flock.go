// Package flock provides cross-process mutual exclusion with flock(2).
//
// caskdeck uses it for two things: keeping two caskdeck processes from
// driving the package manager at the same time, and guarding the state
// snapshot file while it is rewritten.
package flock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// pollInterval is how often LockContext retries a held lock.
const pollInterval = 100 * time.Millisecond

// Lock is an exclusive advisory lock on a file. A Lock is not safe for
// concurrent use; each goroutine that needs the lock should own its own.
type Lock struct {
	path string
	file *os.File
}

// New creates a Lock on the file name inside dir. The file is created on
// first acquisition.
func New(dir, name string) *Lock {
	return &Lock{path: filepath.Join(dir, name)}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

func (l *Lock) open() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

// Lock acquires the lock, blocking until it is available.
func (l *Lock) Lock() error {
	f, err := l.open()
	if err != nil {
		return err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock: %w", err)
	}
	l.file = f
	return nil
}

// TryLock attempts to acquire the lock without blocking. It returns false
// if another holder has it.
func (l *Lock) TryLock() (bool, error) {
	f, err := l.open()
	if err != nil {
		return false, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}
	l.file = f
	return true, nil
}

// LockContext acquires the lock, retrying until ctx is done. onWait is
// called once if the first attempt finds the lock held; it may be nil.
func (l *Lock) LockContext(ctx context.Context, onWait func()) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	waited := false
	for {
		ok, err := l.TryLock()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !waited && onWait != nil {
			onWait()
		}
		waited = true

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Unlock releases the lock. Unlocking a lock that is not held is a no-op.
func (l *Lock) Unlock() error {
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("funlock: %w", err)
	}
	return f.Close()
}
