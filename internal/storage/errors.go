package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"finapp/internal/ports"
)

var (
	// ErrSchemaDirty means a previous migration stopped halfway.
	ErrSchemaDirty = errors.New("schema is dirty")
	// ErrUnknownSchemaVersion means the file was written by a schema this
	// binary does not ship.
	ErrUnknownSchemaVersion = errors.New("unknown schema version")
)

// sqliteCode extracts the primary SQLite result code from err. The
// migrate driver hides the driver error behind database.Error, which does
// not unwrap.
func sqliteCode(err error) (int, bool) {
	for err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) {
			return se.Code() & 0xff, true
		}
		var de database.Error
		var dep *database.Error
		switch {
		case errors.As(err, &de):
			err = de.OrigErr
		case errors.As(err, &dep):
			err = dep.OrigErr
		default:
			return messageCode(err)
		}
	}
	return 0, false
}

// messageCode covers driver errors that reach us only as text.
func messageCode(err error) (int, bool) {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "SQLITE_BUSY"), strings.Contains(msg, "database is locked"):
		return sqlite3.SQLITE_BUSY, true
	case strings.Contains(msg, "database table is locked"):
		return sqlite3.SQLITE_LOCKED, true
	case strings.Contains(msg, "file is not a database"):
		return sqlite3.SQLITE_NOTADB, true
	case strings.Contains(msg, "database disk image is malformed"):
		return sqlite3.SQLITE_CORRUPT, true
	}
	return 0, false
}

// isTransient reports whether err is lock contention that goes away once
// the other connection finishes.
func isTransient(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED)
}

// needsReset reports whether the file itself is unusable. Lock, I/O and
// permission failures never qualify.
func needsReset(err error) bool {
	if err == nil || isTransient(err) {
		return false
	}
	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) || errors.Is(err, ErrSchemaDirty) || errors.Is(err, ErrUnknownSchemaVersion) {
		return true
	}
	code, ok := sqliteCode(err)
	return ok && (code == sqlite3.SQLITE_CORRUPT || code == sqlite3.SQLITE_NOTADB)
}

// storeError wraps err with op and marks lock contention as
// ports.ErrStoreUnavailable.
func storeError(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, ports.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
