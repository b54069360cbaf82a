package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/fresh-start/internal/apperror"
	"github.com/sakif/fresh-start/internal/repository"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

var errReadOnly = errors.New("sqlite: write inside a read-only transaction")

// querier is the subset of *sql.DB and *sql.Tx that the key-value operations
// need. Writing kvTx against it lets the same code run standalone or inside
// a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	return (&kvTx{q: db.conn}).Get(ctx, key)
}

func (db *DB) Set(ctx context.Context, key, value string) error {
	return (&kvTx{q: db.conn}).Set(ctx, key, value)
}

func (db *DB) Delete(ctx context.Context, key string) error {
	return (&kvTx{q: db.conn}).Delete(ctx, key)
}

func (db *DB) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	return (&kvTx{q: db.conn}).ListKeys(ctx, prefix)
}

// Update runs fn inside a SQL transaction.
//
// TRANSACTION LIFECYCLE:
//  1. BeginTx grabs the (single) connection and opens a transaction
//  2. fn does its reads and writes through the tx
//  3. any error from fn → Rollback, nothing is persisted
//  4. otherwise Commit; a commit failure is also reported
func (db *DB) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(&kvTx{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", mapWriteError("", err))
	}
	return nil
}

// View runs fn inside a transaction that is always rolled back, so fn sees
// one consistent snapshot and cannot write.
func (db *DB) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning read transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(&kvTx{q: tx, readOnly: true})
}

// kvTx implements repository.Tx over a querier.
type kvTx struct {
	q        querier
	readOnly bool
}

func (t *kvTx) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := sq.Select("value").From("kv").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", false, fmt.Errorf("sqlite: building get query: %w", err)
	}

	var value string
	err = t.q.QueryRowContext(ctx, query, args...).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("sqlite: getting %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a value.
//
// ON CONFLICT ... DO UPDATE keeps the row (and its rowid) in place instead of
// the delete+insert that INSERT OR REPLACE would do.
func (t *kvTx) Set(ctx context.Context, key, value string) error {
	if t.readOnly {
		return errReadOnly
	}

	query, args, err := sq.Insert("kv").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building set query: %w", err)
	}

	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: setting %s: %w", key, mapWriteError(key, err))
	}
	return nil
}

func (t *kvTx) Delete(ctx context.Context, key string) error {
	if t.readOnly {
		return errReadOnly
	}

	query, args, err := sq.Delete("kv").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("sqlite: building delete query: %w", err)
	}

	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: deleting %s: %w", key, err)
	}
	return nil
}

// ListKeys returns the keys that start with prefix.
//
// WHY instr AND NOT LIKE?
// Our keys are full of underscores ("registos_1_feedback") and "_" is a LIKE
// wildcard. instr(key, prefix) = 1 is an exact "starts with" test with no
// escaping to get wrong.
func (t *kvTx) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	builder := sq.Select("key").From("kv").OrderBy("key")
	if prefix != "" {
		builder = builder.Where(sq.Expr("instr(key, ?) = 1", prefix))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building list query: %w", err)
	}

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing keys with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlite: scanning key row: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating keys: %w", err)
	}

	return keys, nil
}

// mapWriteError turns SQLITE_FULL into apperror.ErrQuotaExceeded.
// Anything else passes through unchanged.
func mapWriteError(key string, err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_FULL {
		return apperror.QuotaExceeded(key)
	}
	return err
}
