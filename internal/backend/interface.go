package backend

import (
	"context"

	"finapp/internal/ports"
	"finapp/internal/storage"
)

type CleanupFunc func() error

// Result is a ready-to-use store plus the optional event publisher.
type Result struct {
	Store ports.Store
	// Publisher is nil when AMQP is disabled or unreachable.
	Publisher ports.EventPublisher
	// Reset is true when an unusable SQLite file was replaced by an empty one.
	Reset bool
	// Fallback is true when SQLite could not be opened at all and the
	// in-memory store is used instead.
	Fallback bool
	Cleanup  CleanupFunc

	lock *storage.WriterLock
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	// RequireDurable turns every SQLite open failure into an error instead
	// of a memory fallback.
	RequireDurable bool

	// AMQP is optional; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory backend seed files live here.
	DataDirectory string
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
