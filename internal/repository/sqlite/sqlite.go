// Package sqlite implements the repository interfaces on an embedded SQLite
// database.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite. No C compiler, no CGo, and
// cross-compilation keeps working. The whole store is a single file next to
// the binary, which is all a personal todo list needs; ":memory:" gives tests
// a fresh database each time.
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB   : a connection pool (NOT a single connection!)
//   - sql.Tx   : a transaction pinned to one connection
//   - sql.Row  : a single result row
//   - sql.Rows : multiple result rows (must be closed!)
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/todolist/internal/repository"
)

// DB owns the connection pool and hands out the per-table repositories.
type DB struct {
	conn  *sql.DB
	users *UserDB
	todos *TodoDB
}

var _ repository.Store = (*DB)(nil)

// New opens (creating if needed) the database at path and runs migrations.
//
// path examples:
//   - "data/todos.db"  → file-based database, parent directory created
//   - ":memory:"       → in-memory database, gone on Close
func New(path string) (*DB, error) {
	memory := path == ":memory:" || strings.Contains(path, "mode=memory")

	if !memory && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: creating directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open("sqlite", withPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database.
	// Pin the pool to one connection so all queries see the same tables.
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	db.users = &UserDB{conn: conn}
	db.todos = &TodoDB{conn: conn}
	return db, nil
}

// connPragmas are applied by the driver to every new pooled connection.
// A PRAGMA run through conn.Exec would only reach whichever connection
// happened to serve that call.
//
//   - busy_timeout: a writer waits up to 5s for the lock instead of
//     failing at once with SQLITE_BUSY
//   - foreign_keys: OFF by default in SQLite; todos need an existing owner
//     and go away with it (ON DELETE CASCADE)
//   - journal_mode(WAL): readers continue while a write is in progress
//   - _txlock=immediate: BeginTx takes the write lock up front, so the
//     read-then-write in UpdateOwned waits its turn instead of failing on
//     the lock upgrade
const connPragmas = "_pragma=busy_timeout(5000)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=journal_mode(WAL)" +
	"&_txlock=immediate"

// withPragmas appends connPragmas to the DSN's query string.
func withPragmas(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + connPragmas
	}
	return path + "?" + connPragmas
}

// Users returns the user repository.
func (db *DB) Users() repository.UserRepository { return db.users }

// Todos returns the todo repository.
func (db *DB) Todos() repository.TodoRepository { return db.todos }

// Ping checks the database file is still usable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close closes the connection pool. Always defer it right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema.
//
// CREATE TABLE IF NOT EXISTS makes this safe to run on every start. The
// postgres backend uses versioned goose migrations instead; SQLite files are
// local and disposable enough that idempotent DDL is sufficient.
func (db *DB) migrate() error {
	// The UNIQUE constraint on email is what actually prevents two
	// registrations for one address. The service's lookup-first check is only
	// a friendlier fast path.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			email           TEXT NOT NULL UNIQUE,
			password_digest TEXT NOT NULL,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS todos (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			description  TEXT NOT NULL DEFAULT '',
			is_completed INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating todos table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// primary code only, when extended codes are off
			return strings.Contains(sqliteErr.Error(), "UNIQUE")
		}
	}
	return false
}
