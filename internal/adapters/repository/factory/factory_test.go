package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/leveldb"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/pebble"
)

func TestNewMemory(t *testing.T) {
	store, err := New(context.Background(), Config{Backend: memory.Name}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	require.NoError(t, store.Close())
}

func TestNewLevelDB(t *testing.T) {
	cfg := Config{Backend: leveldb.Name, LevelDBPath: filepath.Join(t.TempDir(), "db")}
	store, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &leveldb.Store{}, store)
	require.NoError(t, store.Close())
}

func TestNewPebble(t *testing.T) {
	cfg := Config{Backend: pebble.Name, PebblePath: filepath.Join(t.TempDir(), "db")}
	store, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &pebble.Store{}, store)
	require.NoError(t, store.Close())
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), Config{Backend: "bolt"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bolt"`)
}
