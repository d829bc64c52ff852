// Package memory is an ephemeral ordered key-value engine backed by a
// copy-on-write B-tree. Each Update works on a clone of the tree and swaps it
// in on commit, so a failed Update leaves no trace.
package memory

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/google/btree"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/kvutil"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

const (
	// Name is the name of this engine for backend switches.
	Name = "memory"

	treeDegree = 16
)

var (
	_ ports.KVStore = (*Store)(nil)
	_ ports.KVTx    = (*tx)(nil)
)

type item struct {
	key   []byte
	value []byte
}

func lessItem(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

type Store struct {
	// writeLock serialises Update calls.
	writeLock sync.Mutex
	// lock guards tree and closed. Cloning mutates the source tree's
	// copy-on-write context, so it needs the exclusive lock too.
	lock   sync.Mutex
	tree   *btree.BTreeG[item]
	closed bool
}

func New() *Store {
	return &Store{tree: btree.NewG(treeDegree, lessItem)}
}

func (s *Store) snapshot() (*btree.BTreeG[item], error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return nil, ports.ErrStoreClosed
	}
	return s.tree.Clone(), nil
}

func (s *Store) View(ctx context.Context, fn func(ports.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tree, err := s.snapshot()
	if err != nil {
		return err
	}
	return fn(kvutil.ReadOnly{KVReader: &tx{tree: tree}})
}

func (s *Store) Update(ctx context.Context, fn func(ports.KVTx) error) error {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tree, err := s.snapshot()
	if err != nil {
		return err
	}
	if err := fn(&tx{tree: tree}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return ports.ErrStoreClosed
	}
	s.tree = tree
	return nil
}

func (s *Store) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return ports.ErrStoreClosed
	}
	s.closed = true
	s.tree = nil
	return nil
}

type tx struct {
	tree *btree.BTreeG[item]
}

func (t *tx) Get(key []byte) ([]byte, error) {
	it, ok := t.tree.Get(item{key: key})
	if !ok {
		return nil, ports.ErrKeyNotFound
	}
	return slices.Clone(it.value), nil
}

func (t *tx) Has(key []byte) (bool, error) {
	return t.tree.Has(item{key: key}), nil
}

func (t *tx) Put(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	t.tree.ReplaceOrInsert(item{key: slices.Clone(key), value: slices.Clone(value)})
	return nil
}

func (t *tx) Delete(key []byte) error {
	t.tree.Delete(item{key: key})
	return nil
}

func (t *tx) NewIterator(prefix []byte) ports.KVIterator {
	var pairs []kvutil.Pair
	t.tree.AscendGreaterOrEqual(item{key: prefix}, func(it item) bool {
		if !bytes.HasPrefix(it.key, prefix) {
			return false
		}
		pairs = append(pairs, kvutil.Pair{Key: it.key, Value: it.value})
		return true
	})
	return kvutil.NewSliceIterator(pairs)
}
