package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finapp/internal/log"
	"finapp/internal/storage"
)

func TestNewAppRefusesWhileServerHoldsLock(t *testing.T) {
	t.Setenv("AMQP_URL", "")
	path := filepath.Join(t.TempDir(), "finapp.db")
	lock, err := storage.AcquireWriterLock(path)
	require.NoError(t, err)
	defer lock.Release()

	_, _, err = newApp(context.Background(), log.Discard(), globals{DB: path, WeekStart: "sunday"})
	assert.ErrorIs(t, err, storage.ErrWriterActive)
}

func TestNewAppOpensSQLite(t *testing.T) {
	t.Setenv("AMQP_URL", "")
	path := filepath.Join(t.TempDir(), "finapp.db")

	a, cleanup, err := newApp(context.Background(), log.Discard(), globals{DB: path, WeekStart: "sunday"})
	require.NoError(t, err)
	defer cleanup()
	assert.Len(t, a.ledger.Wallets(), 1)

	_, err = storage.AcquireWriterLock(path)
	assert.ErrorIs(t, err, storage.ErrWriterActive)
}
