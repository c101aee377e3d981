package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finapp/internal/amqp"
	"finapp/internal/log"
	"finapp/internal/ports"
	"finapp/internal/storage"
	"finapp/internal/storage/memory"
)

const amqpDialTimeout = 10 * time.Second

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend opens the configured store. SQLite is opened under the
// writer lock; a lock held by another process is always an error. A SQLite
// store that cannot be opened even after a reset falls back to memory so the
// app still starts, unless config.RequireDurable is set or the failure is
// lock contention.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var res *Result
	switch config.Type {
	case SQLiteBackend:
		r, err := f.createSQLiteBackend(ctx, config)
		if err != nil {
			return nil, err
		}
		res = r
	case MemoryBackend:
		res = f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	var client *amqp.Client
	if config.AMQPURL != "" {
		c, err := amqp.Dial(ctx, amqp.Config{
			URL:         config.AMQPURL,
			Exchange:    config.AMQPExchange,
			Queue:       config.AMQPQueue,
			DialTimeout: amqpDialTimeout,
		}, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			client = c
			// Assigned only when non-nil so a missing client stays a nil interface.
			res.Publisher = c
		}
	}

	store, lock := res.Store, res.lock
	res.Cleanup = func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, store.Close())
		if lock != nil {
			errs = append(errs, lock.Release())
		}
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Backend initialized",
		"type", config.Type.String(),
		"reset", res.Reset,
		"fallback", res.Fallback,
		"amqp_enabled", res.Publisher != nil)
	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	lock, err := storage.AcquireWriterLock(config.SQLiteDBPath)
	if err != nil {
		if errors.Is(err, storage.ErrWriterActive) || config.RequireDurable {
			return nil, err
		}
		return f.fallback(ctx, config, err), nil
	}

	opened, err := storage.OpenWithRecovery(config.SQLiteDBPath)
	if err != nil {
		lock.Release()
		if errors.Is(err, ports.ErrStoreUnavailable) || config.RequireDurable {
			return nil, err
		}
		return f.fallback(ctx, config, err), nil
	}
	if opened.Reset {
		f.logger.WarnContext(ctx, "SQLite store was reset, previous data discarded", "db_path", config.SQLiteDBPath)
	}
	return &Result{Store: opened.Repo, Reset: opened.Reset, lock: lock}, nil
}

func (f *DefaultFactory) fallback(ctx context.Context, config Config, cause error) *Result {
	f.logger.ErrorContext(ctx, "SQLite store unavailable, falling back to memory",
		"db_path", config.SQLiteDBPath, log.FieldError, cause)
	res := f.createMemoryBackend(ctx, config)
	res.Fallback = true
	return res
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) *Result {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)
	return &Result{Store: memory.NewFromFiles(dataDir)}
}
