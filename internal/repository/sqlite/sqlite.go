// Package sqlite implements repository.Store using SQLite as the storage backend.
//
// WHY SQLITE FOR A KEY-VALUE STORE?
// The records were originally kept in the browser's localStorage: a flat map of
// string keys to string values with no transactions. SQLite gives us the same
// flat shape (one `kv` table) plus the thing localStorage lacks: atomic
// multi-key writes. A collection update and its audit-log append commit or
// fail together.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code. No C compiler needed.
//
// ONE CONNECTION:
// SQLite allows a single writer at a time. Rather than fight "database is locked"
// errors across a pool, the pool is pinned to one long-lived connection. Every
// PRAGMA below therefore applies to every query we ever run.
package sqlite

import (
	"database/sql"
	"fmt"

	// The driver registers itself under the name "sqlite" in its init().
	// We also use its Error type (see kv.go) to detect SQLITE_FULL.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.Store.
type DB struct {
	conn *sql.DB
}

// Option tunes a DB at open time.
type Option func(*options)

type options struct {
	maxPageCount int
}

// WithMaxPageCount caps the database file at n pages (PRAGMA max_page_count).
// Writes that would grow past the cap fail with apperror.ErrQuotaExceeded,
// the same way a full localStorage would refuse them. Zero means no cap.
func WithMaxPageCount(n int) Option {
	return func(o *options) {
		o.maxPageCount = n
	}
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/freshstart.db"  → file-based database (persistent)
//   - ":memory:"            → in-memory database (great for tests, lost on close)
func New(dbPath string, opts ...Option) (*DB, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Pin the pool to a single connection that never expires.
	// For ":memory:" this is also what keeps the data alive: each new
	// connection to ":memory:" would otherwise get its own empty database.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	// The cap goes on after migrations so the schema itself always fits.
	if o.maxPageCount > 0 {
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA max_page_count=%d", o.maxPageCount)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: setting max_page_count: %w", err)
		}
	}

	return db, nil
}

// Close closes the database connection pool.
//
// ALWAYS DEFER CLOSE:
//
//	db, err := sqlite.New("data/freshstart.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate runs all database migrations.
//
// CREATE TABLE IF NOT EXISTS and addColumnIfNotExists are both idempotent,
// so this is safe to run on every start.
func (db *DB) migrate() error {
	// Phase 1: the flat key-value table.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}

	// Phase 2: last-write timestamp, handy when poking at the file by hand.
	if err := db.addColumnIfNotExists("kv", "updated_at",
		"DATETIME NOT NULL DEFAULT '1970-01-01 00:00:00'"); err != nil {
		return fmt.Errorf("adding updated_at to kv: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent, so safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
