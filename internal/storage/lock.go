package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrWriterActive means another process holds the ledger writer lock.
var ErrWriterActive = errors.New("another process is writing to the ledger")

// WriterLock marks the process that owns the ledger tables of a store. The
// lock lives next to the database file and is released when the process
// exits, even on a crash.
type WriterLock struct {
	fl *flock.Flock
}

// AcquireWriterLock takes the writer lock for dbPath without waiting.
func AcquireWriterLock(dbPath string) (*WriterLock, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	fl := flock.New(dbPath + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is held", ErrWriterActive, fl.Path())
	}
	return &WriterLock{fl: fl}, nil
}

func (l *WriterLock) Release() error {
	return l.fl.Close()
}
