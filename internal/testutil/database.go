// Package testutil provides test database helpers shared across packages.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/Veraticus/the-ledger-must-balance/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup func(context.Context, service.Storage) error
	Seed        bool
}

// SetupTestDB creates a migrated in-memory database that is closed when the
// test ends.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	wallet := db.MustAccount("Wallet", "500")
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if opts.Seed {
		if err := store.SeedDefaults(ctx); err != nil {
			t.Fatalf("failed to seed defaults: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// MustAccount creates a bank account with the given opening balance or fails
// the test.
func (db *TestDB) MustAccount(name, initial string) *model.Account {
	db.t.Helper()

	account := &model.Account{
		Name:           name,
		Type:           model.AccountBank,
		InitialBalance: decimal.RequireFromString(initial),
	}
	if _, err := db.Storage.CreateAccount(context.Background(), account); err != nil {
		db.t.Fatalf("failed to create account %q: %v", name, err)
	}
	return account
}

// MustCategory returns the named category, creating it when missing.
func (db *TestDB) MustCategory(name string, kind model.CategoryType) *model.Category {
	db.t.Helper()

	cat, err := db.Storage.GetOrCreateCategory(context.Background(), name, kind)
	if err != nil {
		db.t.Fatalf("failed to get category %q: %v", name, err)
	}
	return cat
}

// Balance returns the stored balance of an account or fails the test.
func (db *TestDB) Balance(accountID int64) decimal.Decimal {
	db.t.Helper()

	account, err := db.Storage.GetAccount(context.Background(), accountID)
	if err != nil {
		db.t.Fatalf("failed to get account %d: %v", accountID, err)
	}
	return account.Balance
}

// WithTransaction executes fn within a database transaction that is always
// rolled back afterwards.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	tx, err := db.Storage.BeginTx(context.Background())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
