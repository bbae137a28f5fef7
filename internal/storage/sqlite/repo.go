// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc.org/sqlite driver. Each Insert runs in
// autocommit mode: one statement, one implicit transaction.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	gddl "countriesgdp/internal/ddl"
	"countriesgdp/internal/records"
	"countriesgdp/internal/storage"
	sqliteddl "countriesgdp/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db        *sql.DB
	cfg       Config
	table     gddl.TableDef
	insertSQL string
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
//
// The pool is limited to one connection so ":memory:" databases survive
// between statements and writes are serialized.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("%w: sqlite: DSN must not be empty", storage.ErrUnavailable)
	}
	if cfg.Table == "" {
		cfg.Table = storage.DefaultTable
	}

	td := sqliteddl.Table(cfg.Table)
	insertSQL, err := gddl.BuildInsertSQL(td, sqliteddl.Placeholder)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: build insert: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sqlite: open: %w", storage.ErrUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	// Fail fast on unreachable files (missing directory, permissions).
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%w: sqlite: ping: %w", storage.ErrUnavailable, err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg, table: td, insertSQL: insertSQL}, closeFn, nil
}

// EnsureTable runs CREATE TABLE IF NOT EXISTS for the configured table.
func (r *Repository) EnsureTable(ctx context.Context) error {
	stmt, err := gddl.BuildCreateTableSQL(r.table)
	if err != nil {
		return fmt.Errorf("sqlite: build ddl: %w", err)
	}
	return r.Exec(ctx, stmt)
}

// Insert writes rec with bound parameters. A primary key violation is
// returned as *storage.ConflictError.
func (r *Repository) Insert(ctx context.Context, rec records.Record) error {
	if _, err := r.db.ExecContext(ctx, r.insertSQL, rec.Row()...); err != nil {
		if c, ok := constraintOf(err); ok {
			return &storage.ConflictError{
				Table:      r.cfg.Table,
				Key:        rec.Key(),
				Constraint: c,
				Err:        err,
			}
		}
		return fmt.Errorf("sqlite: insert %q: %w", rec.Key(), err)
	}
	return nil
}

// Count returns the number of rows in the configured table.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	q := "SELECT COUNT(*) FROM " + gddl.QuoteFQN(r.cfg.Table)
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}

// Exec executes an arbitrary SQL statement (typically DDL) using the underlying
// database/sql connection.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// constraintOf reports whether err is a primary key or unique violation and,
// if so, the "table.column" SQLite names in its message.
func constraintOf(err error) (string, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return "", false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
	default:
		// Extended codes may be off; fall back to the primary code and text.
		msg := se.Error()
		if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT ||
			!(strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")) {
			return "", false
		}
	}
	msg := se.Error()
	if i := strings.LastIndex(msg, "failed: "); i >= 0 {
		c := msg[i+len("failed: "):]
		if j := strings.IndexByte(c, ' '); j >= 0 {
			c = c[:j]
		}
		return strings.TrimRight(c, ")"), true
	}
	return "", true
}
