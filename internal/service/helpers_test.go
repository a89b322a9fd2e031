package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/auth"
	"github.com/sakif/taskboard/internal/repository/memory"
)

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestIdentity returns an identity store over the given memory store.
// bcrypt runs at its minimum cost so registration stays fast.
func newTestIdentity(t *testing.T, store *memory.Store, cfg IdentityConfig) *IdentityService {
	t.Helper()
	ids := NewIdentityService(store, auth.NewPasswordServiceForTest(4), cfg, testLogger())
	require.NoError(t, ids.Restore(context.Background()))
	return ids
}

// testClock is a manually advanced clock.
type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// board bundles the stores a task test needs.
type board struct {
	store    *memory.Store
	identity *IdentityService
	tasks    *TaskService
	clock    *testClock
}

// newTestBoard returns a seeded board with Jane Smith (id "2") signed in.
// Task and notification IDs are "id-1", "id-2", ... in creation order.
func newTestBoard(t *testing.T) *board {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	ids := newTestIdentity(t, store, IdentityConfig{})
	_, err := ids.SignIn(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)

	clock := &testClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	tasks := NewTaskService(store, ids, testLogger())
	tasks.now = clock.now
	n := 0
	tasks.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	require.NoError(t, tasks.Restore(ctx))

	return &board{store: store, identity: ids, tasks: tasks, clock: clock}
}

// errStoreDown is what failingStore returns.
var errStoreDown = errors.New("store unavailable")

// failingStore wraps a memory store and fails every Put to failKey. Reads,
// deletes and writes to other keys go through, so a test can break exactly
// the second write of a two-record mutation.
type failingStore struct {
	*memory.Store
	failKey string
}

func (f *failingStore) Put(ctx context.Context, key string, value []byte) error {
	if key == f.failKey {
		return errStoreDown
	}
	return f.Store.Put(ctx, key, value)
}

// rawRecord returns the stored bytes under key, or "" when there is no
// record.
func rawRecord(t *testing.T, store *memory.Store, key string) string {
	t.Helper()
	data, err := store.Get(context.Background(), key)
	if errors.Is(err, apperror.ErrNotFound) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}
