package factory

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/leveldb"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/pebble"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/chainpoll/internal/adapters/repository/redis"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

type Config struct {
	// Backend is one of memory, leveldb, pebble, postgres or redis.
	Backend string

	LevelDBPath string
	PebblePath  string

	PostgresDSN string
	// PostgresMigrate applies the embedded migrations on startup.
	PostgresMigrate bool

	RedisURL       string
	RedisNamespace string
}

// New opens the storage engine named by cfg.Backend.
func New(ctx context.Context, cfg Config, log *zap.Logger) (ports.KVStore, error) {
	log = log.With(zap.String("backend", cfg.Backend))

	switch cfg.Backend {
	case memory.Name:
		log.Warn("using the in-memory store, state is lost on shutdown")
		return memory.New(), nil

	case leveldb.Name:
		return leveldb.New(cfg.LevelDBPath, log)

	case pebble.Name:
		return pebble.New(cfg.PebblePath, log)

	case postgres.Name:
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("couldn't open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("couldn't reach postgres: %w", err)
		}
		if cfg.PostgresMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
			log.Info("postgres migrations applied")
		}
		return postgres.New(db, log), nil

	case redis.Name:
		return redis.New(ctx, cfg.RedisURL, cfg.RedisNamespace, log)

	default:
		return nil, fmt.Errorf(
			"store backend was %q but should have been one of {%s, %s, %s, %s, %s}",
			cfg.Backend,
			memory.Name,
			leveldb.Name,
			pebble.Name,
			postgres.Name,
			redis.Name,
		)
	}
}
