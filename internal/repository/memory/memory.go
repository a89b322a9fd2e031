// Package memory is an in-process repository.Store backed by a map.
// Nothing survives the process; it backs tests and the "memory" storage
// backend.
package memory

import (
	"context"
	"sync"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu   sync.RWMutex
	data map[string][]byte

	// Writes counts successful Put calls. Tests use it to check that a
	// mutation persisted (or did not).
	Writes int
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, apperror.NotFound("record", key)
	}
	// copy so the caller can't mutate what we hold
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	s.Writes++
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) Close() error { return nil }
