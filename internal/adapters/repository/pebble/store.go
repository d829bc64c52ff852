// Package pebble is a durable ordered key-value engine on cockroachdb/pebble.
// Reads run against a snapshot. Writers are serialised and stage their writes
// in an indexed batch, which also serves their reads.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/kvutil"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

// Name is the name of this engine for backend switches.
const Name = "pebble"

var _ ports.KVStore = (*Store)(nil)

type Store struct {
	// writeLock is held for the whole of an Update.
	writeLock sync.Mutex

	// lock guards closed. Operations hold it for reading so Close waits for
	// them, since pebble panics on use after close.
	lock   sync.RWMutex
	closed bool

	db  *pebble.DB
	log *zap.Logger
}

func New(path string, log *zap.Logger) (*Store, error) {
	cache := pebble.NewCache(8 << 20)
	defer cache.Unref()

	db, err := pebble.Open(path, &pebble.Options{
		Cache:        cache,
		MemTableSize: 4 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", path, err)
	}
	log.Info("pebble opened", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

func (s *Store) View(ctx context.Context, fn func(ports.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return ports.ErrStoreClosed
	}

	snap := s.db.NewSnapshot()
	defer snap.Close()

	return fn(kvutil.ReadOnly{KVReader: reader{r: snap}})
}

func (s *Store) Update(ctx context.Context, fn func(ports.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return ports.ErrStoreClosed
	}

	batch := s.db.NewIndexedBatch()
	defer batch.Close()

	if err := fn(&txn{reader: reader{r: batch}, batch: batch}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit pebble batch: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return ports.ErrStoreClosed
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		return err
	}
	s.log.Info("pebble closed")
	return nil
}

// source is the read side shared by *pebble.Snapshot and an indexed
// *pebble.Batch.
type source interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) *pebble.Iterator
}

type reader struct {
	r source
}

func (r reader) Get(key []byte) ([]byte, error) {
	data, closer, err := r.r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ports.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	v := slices.Clone(data)
	return v, closer.Close()
}

func (r reader) Has(key []byte) (bool, error) {
	_, err := r.Get(key)
	if errors.Is(err, ports.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r reader) NewIterator(prefix []byte) ports.KVIterator {
	return &iter{it: r.r.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: kvutil.PrefixLimit(prefix),
	})}
}

type txn struct {
	reader
	batch *pebble.Batch
}

func (t *txn) Put(key, value []byte) error {
	return t.batch.Set(key, value, nil)
}

func (t *txn) Delete(key []byte) error {
	return t.batch.Delete(key, nil)
}

// iter positions on the first key at the first call to Next and copies keys
// and values out, since pebble reuses its buffers.
type iter struct {
	it          *pebble.Iterator
	initialized bool
	valid       bool
	released    bool
}

func (it *iter) Next() bool {
	if it.released {
		return false
	}
	if !it.initialized {
		it.valid = it.it.First()
		it.initialized = true
	} else {
		it.valid = it.it.Next()
	}
	return it.valid
}

func (it *iter) Key() []byte {
	if !it.valid || it.released {
		return nil
	}
	return slices.Clone(it.it.Key())
}

func (it *iter) Value() []byte {
	if !it.valid || it.released {
		return nil
	}
	return slices.Clone(it.it.Value())
}

func (it *iter) Error() error {
	if it.released {
		return nil
	}
	return it.it.Error()
}

func (it *iter) Release() {
	if it.released {
		return
	}
	it.released = true
	it.valid = false
	_ = it.it.Close()
}
