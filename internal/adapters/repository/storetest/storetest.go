// Package storetest is the conformance suite every storage engine runs.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

// Tests is a list of all store tests.
var Tests = map[string]func(t *testing.T, store ports.KVStore){
	"SimpleKeyValue":      TestSimpleKeyValue,
	"EmptyValue":          TestEmptyValue,
	"FailedUpdateDiscard": TestFailedUpdateDiscards,
	"ReadYourWrites":      TestReadYourWrites,
	"ViewIsReadOnly":      TestViewIsReadOnly,
	"IteratorOrder":       TestIteratorOrder,
	"IteratorPrefix":      TestIteratorPrefix,
	"IteratorPrefixFF":    TestIteratorPrefixFF,
	"CanceledContext":     TestCanceledContext,
	"ConcurrentUpdates":   TestConcurrentUpdates,
}

// Run executes every test against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) ports.KVStore) {
	for name, test := range Tests {
		t.Run(name, func(t *testing.T) {
			test(t, newStore(t))
		})
	}
}

var errAbort = errors.New("abort")

func put(t *testing.T, store ports.KVStore, pairs ...string) {
	t.Helper()
	require.Zero(t, len(pairs)%2)
	err := store.Update(context.Background(), func(tx ports.KVTx) error {
		for i := 0; i < len(pairs); i += 2 {
			if err := tx.Put([]byte(pairs[i]), []byte(pairs[i+1])); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func get(t *testing.T, store ports.KVStore, key string) ([]byte, error) {
	t.Helper()
	var (
		value []byte
		gerr  error
	)
	err := store.View(context.Background(), func(tx ports.KVTx) error {
		value, gerr = tx.Get([]byte(key))
		return nil
	})
	require.NoError(t, err)
	return value, gerr
}

func keys(t *testing.T, tx ports.KVTx, prefix []byte) []string {
	t.Helper()
	it := tx.NewIterator(prefix)
	defer it.Release()

	var out []string
	for it.Next() {
		out = append(out, string(it.Key()))
	}
	require.NoError(t, it.Error())
	return out
}

func viewKeys(t *testing.T, store ports.KVStore, prefix []byte) []string {
	t.Helper()
	var out []string
	err := store.View(context.Background(), func(tx ports.KVTx) error {
		out = keys(t, tx, prefix)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestSimpleKeyValue(t *testing.T, store ports.KVStore) {
	_, err := get(t, store, "hello")
	require.ErrorIs(t, err, ports.ErrKeyNotFound)

	put(t, store, "hello", "world")

	v, err := get(t, store, "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), v)

	err = store.View(context.Background(), func(tx ports.KVTx) error {
		ok, err := tx.Has([]byte("hello"))
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx ports.KVTx) error {
		return tx.Delete([]byte("hello"))
	})
	require.NoError(t, err)

	_, err = get(t, store, "hello")
	require.ErrorIs(t, err, ports.ErrKeyNotFound)
}

func TestEmptyValue(t *testing.T, store ports.KVStore) {
	put(t, store, "empty", "")

	v, err := get(t, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestFailedUpdateDiscards(t *testing.T, store ports.KVStore) {
	put(t, store, "kept", "1")

	err := store.Update(context.Background(), func(tx ports.KVTx) error {
		require.NoError(t, tx.Put([]byte("kept"), []byte("2")))
		require.NoError(t, tx.Put([]byte("new"), []byte("x")))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	v, err := get(t, store, "kept")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	_, err = get(t, store, "new")
	require.ErrorIs(t, err, ports.ErrKeyNotFound)
}

func TestReadYourWrites(t *testing.T, store ports.KVStore) {
	put(t, store, "p/a", "1", "p/b", "2")

	err := store.Update(context.Background(), func(tx ports.KVTx) error {
		require.NoError(t, tx.Put([]byte("p/c"), []byte("3")))
		require.NoError(t, tx.Delete([]byte("p/a")))

		v, err := tx.Get([]byte("p/c"))
		require.NoError(t, err)
		assert.Equal(t, []byte("3"), v)

		_, err = tx.Get([]byte("p/a"))
		require.ErrorIs(t, err, ports.ErrKeyNotFound)

		assert.Equal(t, []string{"p/b", "p/c"}, keys(t, tx, []byte("p/")))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"p/b", "p/c"}, viewKeys(t, store, []byte("p/")))
}

func TestViewIsReadOnly(t *testing.T, store ports.KVStore) {
	err := store.View(context.Background(), func(tx ports.KVTx) error {
		return tx.Put([]byte("k"), []byte("v"))
	})
	require.ErrorIs(t, err, ports.ErrReadOnly)

	_, err = get(t, store, "k")
	require.ErrorIs(t, err, ports.ErrKeyNotFound)
}

func TestIteratorOrder(t *testing.T, store ports.KVStore) {
	put(t, store,
		"b", "2",
		"a", "1",
		"\xff", "5",
		"ab", "3",
		"\x00", "0",
	)

	assert.Equal(t, []string{"\x00", "a", "ab", "b", "\xff"}, viewKeys(t, store, nil))

	err := store.View(context.Background(), func(tx ports.KVTx) error {
		it := tx.NewIterator([]byte("a"))
		defer it.Release()

		require.True(t, it.Next())
		assert.Equal(t, []byte("a"), it.Key())
		assert.Equal(t, []byte("1"), it.Value())
		require.True(t, it.Next())
		assert.Equal(t, []byte("ab"), it.Key())
		assert.Equal(t, []byte("3"), it.Value())
		assert.False(t, it.Next())
		return it.Error()
	})
	require.NoError(t, err)
}

func TestIteratorPrefix(t *testing.T, store ports.KVStore) {
	put(t, store,
		"polls/a", "",
		"polls/b", "",
		"pollsx", "",
		"ballots/a", "",
	)

	assert.Equal(t, []string{"polls/a", "polls/b"}, viewKeys(t, store, []byte("polls/")))
	assert.Equal(t, []string{"ballots/a"}, viewKeys(t, store, []byte("ballots/")))
	assert.Empty(t, viewKeys(t, store, []byte("config")))
}

func TestIteratorPrefixFF(t *testing.T, store ports.KVStore) {
	put(t, store,
		"a\xff", "",
		"a\xff\x01", "",
		"b", "",
	)

	assert.Equal(t, []string{"a\xff", "a\xff\x01"}, viewKeys(t, store, []byte("a\xff")))
}

func TestCanceledContext(t *testing.T, store ports.KVStore) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Update(ctx, func(tx ports.KVTx) error {
		return tx.Put([]byte("k"), []byte("v"))
	})
	require.Error(t, err)

	_, err = get(t, store, "k")
	require.ErrorIs(t, err, ports.ErrKeyNotFound)
}

// TestConcurrentUpdates increments one counter from many goroutines. Engines
// may refuse some updates with ErrTxConflict, but no committed increment may
// be lost.
func TestConcurrentUpdates(t *testing.T, store ports.KVStore) {
	const workers = 8
	put(t, store, "counter", "0")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Update(context.Background(), func(tx ports.KVTx) error {
				v, err := tx.Get([]byte("counter"))
				if err != nil {
					return err
				}
				var n int
				if _, err := fmt.Sscanf(string(v), "%d", &n); err != nil {
					return err
				}
				return tx.Put([]byte("counter"), []byte(fmt.Sprint(n+1)))
			})
			if errors.Is(err, ports.ErrTxConflict) {
				return
			}
			assert.NoError(t, err)
			mu.Lock()
			committed++
			mu.Unlock()
		}()
	}
	wg.Wait()

	v, err := get(t, store, "counter")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(committed), string(v))
}
