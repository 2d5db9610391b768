package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					type TEXT NOT NULL,
					currency TEXT NOT NULL DEFAULT 'INR',
					balance TEXT NOT NULL DEFAULT '0',
					initial_balance TEXT NOT NULL DEFAULT '0',
					color TEXT NOT NULL DEFAULT '',
					icon TEXT NOT NULL DEFAULT '',
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_accounts_active ON accounts(is_active)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
					icon TEXT NOT NULL DEFAULT '',
					color TEXT NOT NULL DEFAULT '',
					is_default BOOLEAN NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					UNIQUE (name, type)
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					kind TEXT NOT NULL CHECK (kind IN ('expense', 'income', 'transfer')),
					amount TEXT NOT NULL,
					account_id INTEGER NOT NULL REFERENCES accounts(id),
					to_account_id INTEGER REFERENCES accounts(id),
					category_id INTEGER REFERENCES categories(id),
					date DATETIME NOT NULL,
					notes TEXT NOT NULL DEFAULT '',
					payee TEXT NOT NULL DEFAULT '',
					labels TEXT NOT NULL DEFAULT '[]',
					payment_method TEXT NOT NULL DEFAULT 'other',
					status TEXT NOT NULL DEFAULT 'cleared',
					recurrence_days INTEGER,
					refund_txn_id INTEGER,
					refund_amount TEXT,
					refund_partial BOOLEAN NOT NULL DEFAULT 0,
					auto_detected BOOLEAN NOT NULL DEFAULT 0,
					source_text TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_account ON transactions(account_id)`,
				`CREATE INDEX idx_transactions_to_account ON transactions(to_account_id)`,
				`CREATE INDEX idx_transactions_category ON transactions(category_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add balance effect journal",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS balance_effects (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					account_id INTEGER NOT NULL REFERENCES accounts(id),
					transaction_id INTEGER NOT NULL,
					delta TEXT NOT NULL,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_balance_effects_account ON balance_effects(account_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Track import batches and refund links",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`ALTER TABLE transactions ADD COLUMN import_batch TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE transactions ADD COLUMN refund_of INTEGER`,
				`CREATE INDEX idx_transactions_import_batch ON transactions(import_batch)`,
				`CREATE INDEX idx_transactions_refund_of ON transactions(refund_of)`,
				`CREATE INDEX idx_transactions_refund ON transactions(refund_txn_id)`,
				`CREATE INDEX idx_transactions_pending ON transactions(status, auto_detected)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// Migrate applies pending migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
