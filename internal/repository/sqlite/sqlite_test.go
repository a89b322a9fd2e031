package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sakif/taskboard/internal/apperror"
)

// newTestDB opens a fresh in-memory database that is closed when the test
// finishes. t.Helper() makes failures point at the caller's line.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGet_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Get(context.Background(), "tasks")
	if err == nil {
		t.Fatal("Get() should return an error for a missing key")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPutThenGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Put(ctx, "tasks", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := db.Get(ctx, "tasks")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `[{"id":"1"}]` {
		t.Errorf("Get() = %s, want %s", got, `[{"id":"1"}]`)
	}
}

func TestPut_ReplacesWholeValue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Put(ctx, "user", []byte(`{"id":"1","name":"a long first value"}`)); err != nil {
		t.Fatalf("Put() first: %v", err)
	}
	if err := db.Put(ctx, "user", []byte(`{"id":"2"}`)); err != nil {
		t.Fatalf("Put() second: %v", err)
	}

	got, err := db.Get(ctx, "user")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"id":"2"}` {
		t.Errorf("Get() = %s, want the second value only", got)
	}
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Put(ctx, "user", []byte(`{}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := db.Delete(ctx, "user"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := db.Get(ctx, "user")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after delete: error = %v, want ErrNotFound", err)
	}
}

func TestDelete_MissingKeyIsNoop(t *testing.T) {
	db := newTestDB(t)

	if err := db.Delete(context.Background(), "never-written"); err != nil {
		t.Errorf("Delete() of a missing key error = %v, want nil", err)
	}
}

// TestFileDatabaseSurvivesReopen checks that a file-backed database keeps its
// records across a close and reopen, the property the CLI relies on to keep
// a session between invocations.
func TestFileDatabaseSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskboard.db")
	ctx := context.Background()

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.Put(ctx, "user", []byte(`{"id":"3"}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.Get(ctx, "user")
	if err != nil {
		t.Fatalf("Get() after reopen: %v", err)
	}
	if string(got) != `{"id":"3"}` {
		t.Errorf("Get() after reopen = %s", got)
	}
}
