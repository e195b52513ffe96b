// Package fslock provides advisory whole-file locking used by the catalog
// snapshot writer (exclusive, process-wide) and by each filesystem storage
// backend's sentinel file (shared for normal operations, exclusive only for
// one-time UUID initialization).
package fslock

import "os"

// Lock is a held advisory lock on an open file. Unlock releases it; it does
// not close the underlying file.
type Lock struct {
	f *os.File
}

// Unlock releases the lock. Safe to call once; subsequent calls are no-ops.
func (l *Lock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlock(l.f)
	l.f = nil
	return err
}

// Shared acquires a shared (read) advisory lock on f, blocking until
// available.
func Shared(f *os.File) (*Lock, error) {
	if err := lockShared(f); err != nil {
		return nil, err
	}
	return &Lock{f: f}, nil
}

// Exclusive acquires an exclusive (write) advisory lock on f, blocking
// until available.
func Exclusive(f *os.File) (*Lock, error) {
	if err := lockExclusive(f); err != nil {
		return nil, err
	}
	return &Lock{f: f}, nil
}
