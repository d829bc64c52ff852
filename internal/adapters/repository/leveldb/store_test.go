package leveldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/storetest"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

func TestInterface(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.KVStore {
		folder := filepath.Join(t.TempDir(), "db")
		s, err := New(folder, zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestReopenKeepsCommittedData(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	s, err := New(folder, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx ports.KVTx) error {
		return tx.Put([]byte("polls/p1"), []byte("{}"))
	}))
	require.NoError(t, s.Close())

	s, err = New(folder, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	err = s.View(ctx, func(tx ports.KVTx) error {
		ok, err := tx.Has([]byte("polls/p1"))
		require.NoError(t, err)
		require.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}
