// Package redis implements repository.Store on a Redis server.
//
// Every record lives under a namespaced string key, "<namespace>:<key>", so
// several boards (or a test run and a real board) can share one Redis
// database without seeing each other's data.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store is safe for concurrent use; go-redis pools its connections.
type Store struct {
	rdb       *redis.Client
	namespace string
}

// New creates a Store for the given namespace. It does not contact the
// server; call Ping to check connectivity.
func New(opts *redis.Options, namespace string) (*Store, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	return &Store{
		rdb:       redis.NewClient(opts),
		namespace: namespace,
	}, nil
}

// Key returns the fully qualified Redis key for a record key.
func Key(namespace, key string) string {
	return namespace + ":" + key
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, Key(s.namespace, key)).Bytes()
	if err != nil {
		// redis.Nil is go-redis' "key does not exist" reply
		if errors.Is(err, redis.Nil) {
			return nil, apperror.NotFound("record", key)
		}
		return nil, fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}
	return value, nil
}

// Put overwrites the value with SET. A zero expiration keeps it forever.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, Key(s.namespace, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s to Redis: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, Key(s.namespace, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from Redis: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection pool.
func (s *Store) Close() error {
	return s.rdb.Close()
}
