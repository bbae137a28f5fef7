// Package postgres implements a Postgres repository using pgx v5. Inserts are
// single parameterized statements on a pooled connection, each committed on
// its own.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "countriesgdp/internal/ddl"
	"countriesgdp/internal/records"
	"countriesgdp/internal/storage"
	pgddl "countriesgdp/internal/storage/postgres/ddl"
)

// uniqueViolation is the SQLSTATE for unique and primary key violations.
const uniqueViolation = "23505"

// Config holds Postgres repository configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // optionally schema-qualified, e.g. "public.countries_gdp"
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool      *pgxpool.Pool
	cfg       Config
	table     gddl.TableDef
	insertSQL string
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("%w: postgres: DSN must not be empty", storage.ErrUnavailable)
	}
	if cfg.Table == "" {
		cfg.Table = storage.DefaultTable
	}

	td := pgddl.Table(cfg.Table)
	insertSQL, err := gddl.BuildInsertSQL(td, pgddl.Placeholder)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: build insert: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: pgxpool: %w", storage.ErrUnavailable, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("%w: postgres: ping: %w", storage.ErrUnavailable, err)
	}

	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg, table: td, insertSQL: insertSQL}, closeFn, nil
}

// EnsureTable runs CREATE TABLE IF NOT EXISTS for the configured table.
func (r *Repository) EnsureTable(ctx context.Context) error {
	stmt, err := gddl.BuildCreateTableSQL(r.table)
	if err != nil {
		return fmt.Errorf("postgres: build ddl: %w", err)
	}
	return r.Exec(ctx, stmt)
}

// Insert writes rec with bound parameters. A unique violation is returned as
// *storage.ConflictError carrying the server's constraint name.
func (r *Repository) Insert(ctx context.Context, rec records.Record) error {
	if _, err := r.pool.Exec(ctx, r.insertSQL, args(rec)...); err != nil {
		return r.classify(rec, err)
	}
	return nil
}

func (r *Repository) classify(rec records.Record, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &storage.ConflictError{
			Table:      r.cfg.Table,
			Key:        rec.Key(),
			Constraint: pgErr.ConstraintName,
			Err:        err,
		}
	}
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("postgres: insert %q: %s (%s): %w", rec.Key(), pgErr.Detail, pgErr.SQLState(), err)
	}
	return fmt.Errorf("postgres: insert %q: %w", rec.Key(), err)
}

// args returns rec's bind values. Postgres columns are strictly typed, so a
// gdp or year that stayed as text binds as NULL instead of failing the cast.
func args(rec records.Record) []any {
	return []any{rec.CountryName, rec.Region, typed(rec.GDP), typed(rec.Year)}
}

func typed(v records.Value) any {
	if v.Kind() == records.KindRaw {
		return nil
	}
	return v.SQL()
}

// Count returns the number of rows in the configured table.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	q := "SELECT COUNT(*) FROM " + gddl.QuoteFQN(r.cfg.Table)
	if err := r.pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

// Exec runs a statement (typically DDL) on the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}
