package container

import (
	"context"
	"path/filepath"
	"testing"

	"cryptotracker/internal/infrastructure/config"
	"cryptotracker/internal/infrastructure/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerWithSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.SQLite.Enabled = true
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "container.db")

	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.SQLiteRepo())
	assert.Same(t, c.SQLiteRepo(), c.Store())
	assert.Nil(t, c.Notifier())

	ctx := context.Background()
	require.NoError(t, c.Store().Set(ctx, "alerts-storage", []byte(`{"state":{}}`)))
	got, ok, err := c.Store().Get(ctx, "alerts-storage")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"state":{}}`, string(got))
}

func TestContainerFallsBackToMemory(t *testing.T) {
	c, err := New(&config.Config{})
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Store().(*storage.Memory)
	assert.True(t, ok)
	assert.Nil(t, c.RedisClient())
}

func TestContainerRedisUnreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.SQLite.Enabled = true
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "container.db")
	cfg.Storage.Redis.Enabled = true
	cfg.Storage.Redis.Addr = "127.0.0.1:1"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestContainerCloseIsIdempotent(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.SQLite.Enabled = true
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "container.db")

	c, err := New(cfg)
	require.NoError(t, err)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
