// Package leveldb is a durable ordered key-value engine on goleveldb. Reads
// run against a snapshot and writes inside a leveldb transaction, which
// blocks other writers until it is committed or discarded.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/kvutil"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

// Name is the name of this engine for backend switches.
const Name = "leveldb"

var _ ports.KVStore = (*Store)(nil)

type Store struct {
	db  *leveldb.DB
	log *zap.Logger
}

func New(path string, log *zap.Logger) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		// Ballot and poll values are small JSON documents.
		BlockCacheCapacity: 8 * opt.MiB,
		WriteBuffer:        4 * opt.MiB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	log.Info("leveldb opened", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

func (s *Store) View(ctx context.Context, fn func(ports.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return translateErr(err)
	}
	defer snap.Release()

	return fn(kvutil.ReadOnly{KVReader: snapshotReader{snap: snap}})
}

func (s *Store) Update(ctx context.Context, fn func(ports.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tr, err := s.db.OpenTransaction()
	if err != nil {
		return translateErr(err)
	}
	// Discard is a no-op after a successful Commit.
	defer tr.Discard()

	if err := fn(&txn{tr: tr}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tr.Commit(); err != nil {
		return fmt.Errorf("failed to commit leveldb transaction: %w", translateErr(err))
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return translateErr(err)
	}
	s.log.Info("leveldb closed")
	return nil
}

func translateErr(err error) error {
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return ports.ErrKeyNotFound
	case errors.Is(err, leveldb.ErrClosed), errors.Is(err, leveldb.ErrSnapshotReleased):
		return ports.ErrStoreClosed
	}
	return err
}

type snapshotReader struct {
	snap *leveldb.Snapshot
}

func (r snapshotReader) Get(key []byte) ([]byte, error) {
	v, err := r.snap.Get(key, nil)
	if err != nil {
		return nil, translateErr(err)
	}
	return v, nil
}

func (r snapshotReader) Has(key []byte) (bool, error) {
	ok, err := r.snap.Has(key, nil)
	return ok, translateErr(err)
}

func (r snapshotReader) NewIterator(prefix []byte) ports.KVIterator {
	return &iter{Iterator: r.snap.NewIterator(util.BytesPrefix(prefix), nil)}
}

type txn struct {
	tr *leveldb.Transaction
}

func (t *txn) Get(key []byte) ([]byte, error) {
	v, err := t.tr.Get(key, nil)
	if err != nil {
		return nil, translateErr(err)
	}
	return v, nil
}

func (t *txn) Has(key []byte) (bool, error) {
	ok, err := t.tr.Has(key, nil)
	return ok, translateErr(err)
}

func (t *txn) Put(key, value []byte) error {
	return translateErr(t.tr.Put(key, value, nil))
}

func (t *txn) Delete(key []byte) error {
	return translateErr(t.tr.Delete(key, nil))
}

func (t *txn) NewIterator(prefix []byte) ports.KVIterator {
	return &iter{Iterator: t.tr.NewIterator(util.BytesPrefix(prefix), nil)}
}

// iter copies keys and values out, since goleveldb reuses its buffers
// between calls to Next.
type iter struct {
	iterator.Iterator
}

func (it *iter) Key() []byte {
	return slices.Clone(it.Iterator.Key())
}

func (it *iter) Value() []byte {
	return slices.Clone(it.Iterator.Value())
}

func (it *iter) Error() error {
	return translateErr(it.Iterator.Error())
}
