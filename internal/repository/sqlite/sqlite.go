// Package sqlite implements repository.Store on top of a single SQLite table.
//
// WHY SQLITE FOR A KEY-VALUE STORE?
// The application state is a few JSON blobs. SQLite gives us a single file on
// disk, atomic replacement of a row (so a blob is never half-written), and
// ":memory:" databases for tests, with no server to run.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C
// compiler installed and cross-compilation becomes painful. modernc.org/sqlite
// is a pure Go translation of the SQLite C code.
//
// WHY sqlx ON TOP OF database/sql?
// sqlx keeps the database/sql API (it embeds *sql.DB) and adds Get/Select,
// which scan straight into a variable or struct. For a table with two columns
// it mostly saves the Scan boilerplate, and it keeps the same driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// BLANK IMPORT:
	// The sqlite package's init() registers a database/sql driver named
	// "sqlite". After this import, sqlx.Open("sqlite", ...) knows how to talk
	// to SQLite.
	_ "modernc.org/sqlite"

	"github.com/sakif/taskboard/internal/apperror"
	"github.com/sakif/taskboard/internal/repository"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

// DB wraps a sqlx connection pool holding the kv table.
type DB struct {
	conn *sqlx.DB
}

// New opens (or creates) the SQLite database and runs migrations.
//
// dbPath examples:
//   - "data/taskboard.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// An in-memory database exists per connection. With a pool of several
	// connections, each would see its own empty database, so pin the pool to
	// one connection. A single writer is all a key-value blob store needs
	// anyway.
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works. Without this, a bad path or
	// permissions issue would only surface on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) lets readers proceed while a write is in
	// progress. The CLI and a running server may share one file.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the kv table. CREATE TABLE IF NOT EXISTS makes it safe to
// run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}

// Get returns the blob stored under key.
//
// sqlx's GetContext runs the query and scans the single column into value.
// When no row matches it returns sql.ErrNoRows, which we translate into the
// application's NotFound error. Callers never see database/sql types.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := db.conn.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("record", key)
		}
		return nil, fmt.Errorf("sqlite: getting %s: %w", key, err)
	}
	return value, nil
}

// Put replaces the blob stored under key.
//
// UPSERT:
// "INSERT ... ON CONFLICT(key) DO UPDATE" inserts a new row or overwrites the
// existing one in a single statement, so the record is replaced atomically.
func (db *DB) Put(ctx context.Context, key string, value []byte) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: putting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: deleting %s: %w", key, err)
	}
	return nil
}
