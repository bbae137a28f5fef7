// Package storage contains the backend-agnostic store contract and a small
// registry that concrete backends (sqlite, postgres, mssql) plug into from init.
//
// Callers depend only on this package plus a blank import of storage/all;
// backend packages are never imported directly by the pipeline.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"countriesgdp/internal/records"
)

// DefaultTable is the table the GDP rows are written to.
const DefaultTable = "countries_gdp"

var (
	// ErrConflict is returned (wrapped) when an insert violates the primary
	// key. Match it with errors.Is.
	ErrConflict = errors.New("storage: primary key conflict")

	// ErrUnavailable is returned (wrapped) when the store cannot be opened or
	// reached.
	ErrUnavailable = errors.New("storage: store unavailable")
)

// ConflictError describes a rejected insert. It matches ErrConflict.
type ConflictError struct {
	Table      string
	Key        string
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("storage: primary key conflict on %s (key=%q", e.Table, e.Key)
	if e.Constraint != "" {
		msg += ", constraint=" + e.Constraint
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConflictError) Unwrap() error { return e.Err }

// Is reports true for ErrConflict so callers need not know the concrete type.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Config selects and parameterizes a backend.
type Config struct {
	// Kind is the registered backend name ("sqlite", "postgres").
	Kind string
	// DSN is passed to the backend driver unchanged.
	DSN string
	// Table is the destination table; empty means DefaultTable.
	Table string
}

// TableName returns the configured table or DefaultTable.
func (c Config) TableName() string {
	if c.Table == "" {
		return DefaultTable
	}
	return c.Table
}

// Repository is an open store handle. Every Insert is its own committed unit
// of work; there is no cross-row transaction.
type Repository interface {
	// EnsureTable creates the destination table if it does not exist. It is
	// idempotent and never alters an existing table.
	EnsureTable(ctx context.Context) error
	// Insert writes one record using bound parameters. A primary key
	// violation is reported as an error matching ErrConflict.
	Insert(ctx context.Context, rec records.Record) error
	// Count returns the number of rows currently in the table.
	Count(ctx context.Context) (int64, error)
	// Close releases the handle. Safe to call more than once.
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

// DDLFunc renders the CREATE TABLE statement a backend would run for table.
type DDLFunc func(table string) (string, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
	ddls      = map[string]DDLFunc{}
)

// Register installs a backend factory under kind, replacing any previous one.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// RegisterDDL installs the DDL renderer for kind.
func RegisterDDL(kind string, fn DDLFunc) {
	mu.Lock()
	defer mu.Unlock()
	ddls[kind] = fn
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// CreateTableSQL returns the DDL kind would execute for table, without
// touching any database.
func CreateTableSQL(kind, table string) (string, error) {
	mu.RLock()
	fn, ok := ddls[kind]
	mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unsupported storage.kind=%s", kind)
	}
	if table == "" {
		table = DefaultTable
	}
	return fn(table)
}

// ListKinds returns a sorted snapshot of registered backend names.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
