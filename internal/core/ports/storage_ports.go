package ports

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrReadOnly    = errors.New("write in a read-only transaction")
	ErrStoreClosed = errors.New("store closed")
	ErrTxConflict  = errors.New("transaction conflict")
)

// KVReader reads from an ordered byte-keyed map.
type KVReader interface {
	// Get returns ErrKeyNotFound when key is absent.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// NewIterator walks every key starting with prefix in ascending byte
	// order. A nil prefix walks the whole map.
	NewIterator(prefix []byte) KVIterator
}

type KVWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// KVTx is a transaction handle. Reads observe the transaction's own writes.
type KVTx interface {
	KVReader
	KVWriter
}

type KVIterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

// KVStore is the transactional storage engine. Update commits the writes made
// by fn only if fn returns nil; otherwise nothing is persisted. Writes made in
// a View fail with ErrReadOnly.
type KVStore interface {
	View(ctx context.Context, fn func(tx KVTx) error) error
	Update(ctx context.Context, fn func(tx KVTx) error) error
	Close() error
}
