package sqlite

import (
	"context"
	"strings"
	"testing"

	"countriesgdp/internal/storage"
)

// TestSQLiteStorageRegistrationUsesNewRepositoryHook verifies that the
// "sqlite" storage backend registered in init() uses the newRepository hook
// and that wrappedRepo delegates Close exactly once.
func TestSQLiteStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	ctx := context.Background()

	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		called bool
		gotCfg Config
		closes int

		fakeRepo = &Repository{}
	)

	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		called = true
		gotCfg = cfg
		return fakeRepo, func() { closes++ }, nil
	}

	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "gdp.db"})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if !called {
		t.Fatalf("newRepository hook was not called")
	}
	if gotCfg.DSN != "gdp.db" {
		t.Errorf("hook cfg.DSN = %q", gotCfg.DSN)
	}
	if gotCfg.Table != storage.DefaultTable {
		t.Errorf("hook cfg.Table = %q, want default %q", gotCfg.Table, storage.DefaultTable)
	}

	w, ok := repo.(*wrappedRepo)
	if !ok {
		t.Fatalf("storage.New() type = %T, want *wrappedRepo", repo)
	}
	if w.Repository != fakeRepo {
		t.Fatalf("wrappedRepo.Repository = %p, want %p", w.Repository, fakeRepo)
	}

	repo.Close()
	repo.Close()
	if closes != 1 {
		t.Fatalf("closeFn called %d times, want 1", closes)
	}
}

func TestSQLiteDDLRegistered(t *testing.T) {
	t.Parallel()

	stmt, err := storage.CreateTableSQL("sqlite", "")
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	if !strings.HasPrefix(stmt, `CREATE TABLE IF NOT EXISTS "countries_gdp"`) {
		t.Fatalf("unexpected DDL: %s", stmt)
	}
}
