// Package postgres stores the ordered key-value map in a single kv_store
// table. BYTEA compares bytewise, so ORDER BY key matches the byte order the
// other engines use.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/kvutil"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

const (
	// Name is the name of this engine for backend switches.
	Name = "postgres"

	maxAttempts = 3

	serializationFailure pq.ErrorCode = "40001"
)

var _ ports.KVStore = (*Store)(nil)

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

func New(db *sql.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) View(ctx context.Context, fn func(ports.KVTx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(kvutil.ReadOnly{KVReader: &txn{ctx: ctx, tx: tx}})
}

// Update retries fn when postgres aborts the transaction with a
// serialization failure, and returns ports.ErrTxConflict once attempts run out.
func (s *Store) Update(ctx context.Context, fn func(ports.KVTx) error) error {
	for attempt := 1; ; attempt++ {
		err := s.update(ctx, fn)
		if !isSerializationFailure(err) {
			return err
		}
		if attempt == maxAttempts {
			return fmt.Errorf("%w: %w", ports.ErrTxConflict, err)
		}
		s.log.Debug("retrying serialization failure", zap.Int("attempt", attempt), zap.Error(err))
	}
}

func (s *Store) update(ctx context.Context, fn func(ports.KVTx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txn{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == serializationFailure
}

type txn struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *txn) Get(key []byte) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRowContext(t.ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ports.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (t *txn) Has(key []byte) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(t.ctx, `SELECT EXISTS(SELECT 1 FROM kv_store WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check key: %w", err)
	}
	return exists, nil
}

func (t *txn) Put(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	query := `
		INSERT INTO kv_store (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := t.tx.ExecContext(t.ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put key: %w", err)
	}
	return nil
}

func (t *txn) Delete(key []byte) error {
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// NewIterator reads the whole range before returning, because lib/pq cannot
// run another statement on the transaction while rows are still open.
func (t *txn) NewIterator(prefix []byte) ports.KVIterator {
	var (
		rows *sql.Rows
		err  error
	)
	limit := kvutil.PrefixLimit(prefix)
	switch {
	case len(prefix) == 0 || limit == nil:
		rows, err = t.tx.QueryContext(t.ctx, `SELECT key, value FROM kv_store WHERE key >= $1 ORDER BY key`, nonNil(prefix))
	default:
		rows, err = t.tx.QueryContext(t.ctx, `SELECT key, value FROM kv_store WHERE key >= $1 AND key < $2 ORDER BY key`, prefix, limit)
	}
	if err != nil {
		return kvutil.ErrIterator(fmt.Errorf("failed to scan keys: %w", err))
	}
	defer rows.Close()

	var pairs []kvutil.Pair
	for rows.Next() {
		var p kvutil.Pair
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return kvutil.ErrIterator(fmt.Errorf("failed to scan pair: %w", err))
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return kvutil.ErrIterator(fmt.Errorf("error iterating keys: %w", err))
	}
	return kvutil.NewSliceIterator(pairs)
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
