package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/repository"
)

// errMalformed marks a record that exists but cannot be decoded.
// Restore treats it like a missing record and logs a warning.
var errMalformed = errors.New("malformed record")

// saveJSON encodes v and replaces the record under key.
func saveJSON(ctx context.Context, store repository.Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// loadJSON decodes the record under key into dst.
//
// RETURN VALUES:
//   - (false, nil)           → no record stored
//   - (true, nil)            → dst holds the record
//   - (false, errMalformed)  → record present but not valid JSON for dst
//   - (false, other error)   → the store itself failed
func loadJSON(ctx context.Context, store repository.Store, key string, dst any) (bool, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w %s: %v", errMalformed, key, err)
	}
	return true, nil
}

// snapshot captures the record under key as it is now and returns a func
// that puts it back: the old bytes are rewritten, or the key deleted if
// there was no record. Two-record mutations take one before the first write
// so a failed second write leaves the store as it was.
func snapshot(ctx context.Context, store repository.Store, key string) (func(context.Context) error, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		return func(ctx context.Context) error { return store.Delete(ctx, key) }, nil
	}
	return func(ctx context.Context) error { return store.Put(ctx, key, data) }, nil
}
