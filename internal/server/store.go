package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sakif/taskboard/internal/config"
	"github.com/sakif/taskboard/internal/repository"
	"github.com/sakif/taskboard/internal/repository/memory"
	redisRepo "github.com/sakif/taskboard/internal/repository/redis"
	sqliteRepo "github.com/sakif/taskboard/internal/repository/sqlite"
)

// OpenStore opens the key-value backend named by cfg.Backend. The caller
// owns the returned store and must Close it.
//
// IMPORT ALIASES:
// repository/sqlite and repository/redis share their names with the
// libraries they wrap, so they are imported as sqliteRepo / redisRepo and
// go-redis itself as goredis.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (repository.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		// like `mkdir -p` for the database's directory
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db, nil

	case config.BackendRedis:
		store, err := redisRepo.New(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.Namespace)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			store.Close()
			return nil, fmt.Errorf("connecting to Redis at %s: %w", cfg.RedisAddr, err)
		}
		return store, nil

	case config.BackendMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
