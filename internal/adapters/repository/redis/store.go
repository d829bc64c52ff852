// Package redis keeps the ordered key-value map in two redis keys: a hash of
// values and a sorted set of the same keys, all with score 0, whose
// lexicographic order gives ordered range scans. Transactions use optimistic
// locking: reads run under WATCH and writes are buffered, then applied with
// MULTI/EXEC.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/kvutil"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

const (
	// Name is the name of this engine for backend switches.
	Name = "redis"

	maxAttempts = 5
)

var _ ports.KVStore = (*Store)(nil)

type Store struct {
	client    *redis.Client
	log       *zap.Logger
	valuesKey string
	indexKey  string
}

// New connects to the redis server at url. All data lives under namespace.
func New(ctx context.Context, url, namespace string, log *zap.Logger) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &Store{
		client:    c,
		log:       log,
		valuesKey: namespace + ":kv",
		indexKey:  namespace + ":idx",
	}, nil
}

// View runs fn under WATCH and then executes an empty transaction, so a
// concurrent write between two reads forces fn to run again on fresh data.
func (s *Store) View(ctx context.Context, fn func(ports.KVTx) error) error {
	return s.run(ctx, func(tx *redis.Tx) error {
		if err := fn(kvutil.ReadOnly{KVReader: s.reader(ctx, tx)}); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Exists(ctx, s.indexKey)
			return nil
		})
		return err
	})
}

func (s *Store) Update(ctx context.Context, fn func(ports.KVTx) error) error {
	return s.run(ctx, func(tx *redis.Tx) error {
		overlay := kvutil.NewOverlay(s.reader(ctx, tx))
		if err := fn(overlay); err != nil {
			return err
		}
		writes := overlay.Writes()

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Exists(ctx, s.indexKey)
			for _, w := range writes {
				field := string(w.Key)
				if w.Value == nil {
					pipe.HDel(ctx, s.valuesKey, field)
					pipe.ZRem(ctx, s.indexKey, field)
					continue
				}
				pipe.HSet(ctx, s.valuesKey, field, w.Value)
				pipe.ZAdd(ctx, s.indexKey, redis.Z{Score: 0, Member: field})
			}
			return nil
		})
		return err
	})
}

func (s *Store) run(ctx context.Context, fn func(tx *redis.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := s.client.Watch(ctx, fn, s.valuesKey, s.indexKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return translateErr(err)
		}
		if attempt == maxAttempts {
			return fmt.Errorf("%w: %w", ports.ErrTxConflict, err)
		}
		s.log.Debug("retrying watched transaction", zap.Int("attempt", attempt))
	}
}

func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}

func translateErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ports.ErrStoreClosed
	}
	return err
}

func (s *Store) reader(ctx context.Context, tx *redis.Tx) *reader {
	return &reader{ctx: ctx, tx: tx, valuesKey: s.valuesKey, indexKey: s.indexKey}
}

type reader struct {
	ctx       context.Context
	tx        *redis.Tx
	valuesKey string
	indexKey  string
}

func (r *reader) Get(key []byte) ([]byte, error) {
	v, err := r.tx.HGet(r.ctx, r.valuesKey, string(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ports.ErrKeyNotFound
		}
		return nil, fmt.Errorf("error getting key: %w", translateErr(err))
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}

func (r *reader) Has(key []byte) (bool, error) {
	ok, err := r.tx.HExists(r.ctx, r.valuesKey, string(key)).Result()
	if err != nil {
		return false, fmt.Errorf("error checking key: %w", translateErr(err))
	}
	return ok, nil
}

func (r *reader) NewIterator(prefix []byte) ports.KVIterator {
	by := &redis.ZRangeBy{Min: "-", Max: "+"}
	if len(prefix) > 0 {
		by.Min = "[" + string(prefix)
		if limit := kvutil.PrefixLimit(prefix); limit != nil {
			by.Max = "(" + string(limit)
		}
	}

	keys, err := r.tx.ZRangeByLex(r.ctx, r.indexKey, by).Result()
	if err != nil {
		return kvutil.ErrIterator(fmt.Errorf("error scanning index: %w", translateErr(err)))
	}
	if len(keys) == 0 {
		return kvutil.NewSliceIterator(nil)
	}

	values, err := r.tx.HMGet(r.ctx, r.valuesKey, keys...).Result()
	if err != nil {
		return kvutil.ErrIterator(fmt.Errorf("error reading values: %w", translateErr(err)))
	}

	pairs := make([]kvutil.Pair, 0, len(keys))
	for i, key := range keys {
		v, ok := values[i].(string)
		if !ok {
			return kvutil.ErrIterator(fmt.Errorf("index entry %q has no value", key))
		}
		pairs = append(pairs, kvutil.Pair{Key: []byte(key), Value: []byte(v)})
	}
	return kvutil.NewSliceIterator(pairs)
}
