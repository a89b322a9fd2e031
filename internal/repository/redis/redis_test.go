package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/taskboard/internal/apperror"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := New(&redis.Options{Addr: mr.Addr()}, "test-board")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestNew(t *testing.T) {
	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := New(&redis.Options{Addr: "localhost:6379"}, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "namespace cannot be empty")
	})

	t.Run("ping reaches server", func(t *testing.T) {
		store, _ := setupTestStore(t)
		assert.NoError(t, store.Ping(context.Background()))
	})
}

func TestGet_Missing(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.Get(context.Background(), "tasks")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPutGetDelete(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "tasks", []byte(`[]`)))

	got, err := store.Get(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	// the key on the server carries the namespace
	raw, err := mr.Get("test-board:tasks")
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)

	require.NoError(t, store.Delete(ctx, "tasks"))
	assert.False(t, mr.Exists("test-board:tasks"))

	// deleting again is fine
	assert.NoError(t, store.Delete(ctx, "tasks"))
}

func TestNamespacesAreIsolated(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	other, err := New(&redis.Options{Addr: mr.Addr()}, "other-board")
	require.NoError(t, err)
	t.Cleanup(func() { other.Close() })

	require.NoError(t, store.Put(ctx, "user", []byte(`{"id":"1"}`)))

	_, err = other.Get(ctx, "user")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "taskboard:notifications", Key("taskboard", "notifications"))
}
