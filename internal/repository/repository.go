// Package repository defines the persistence capability the stores depend on.
//
// The whole application state is a handful of JSON blobs under fixed keys:
// the same shape a browser's local storage would hold. Store is the smallest
// interface that can carry that: read a blob, replace a blob, drop a blob.
//
// Implementations live in sub-packages (sqlite, redis, memory). The services
// only ever see this interface, so tests hand them an in-memory map and
// production hands them SQLite or Redis without the services noticing.
package repository

import (
	"context"
	"io"
)

// Fixed record keys.
const (
	KeyCurrentPrincipal = "user"
	KeyTasks            = "tasks"
	KeyNotifications    = "notifications"
	KeyRoster           = "roster"
)

// Store is a flat key-value store of opaque byte blobs.
//
// CONTRACT:
//   - Get returns an error matching apperror.ErrNotFound when the key is absent.
//   - Put replaces the whole value; there are no partial writes.
//   - Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	io.Closer
}
