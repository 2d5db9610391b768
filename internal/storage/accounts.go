package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, name, type, currency, balance, initial_balance, color, icon, is_active, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var a model.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &a.Currency, &a.Balance, &a.InitialBalance,
		&a.Color, &a.Icon, &a.IsActive, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount stores a new account. Its balance starts at InitialBalance.
func (q *queries) CreateAccount(ctx context.Context, account *model.Account) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateAccount(account); err != nil {
		return 0, err
	}

	if account.Currency == "" {
		account.Currency = model.DefaultCurrency
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.Balance = account.InitialBalance
	account.IsActive = true

	result, err := q.q.ExecContext(ctx, `
		INSERT INTO accounts (name, type, currency, balance, initial_balance, color, icon, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		account.Name, account.Type, account.Currency, account.Balance, account.InitialBalance,
		account.Color, account.Icon, account.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get account ID: %w", err)
	}
	account.ID = id

	slog.Info("created account", "name", account.Name, "id", id)
	q.notify(model.ChangeEvent{Entity: model.EntityAccount, Op: model.OpCreated, ID: id})
	return id, nil
}

// GetAccount returns an account or common.ErrNotFound.
func (q *queries) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	a, err := scanAccount(q.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewReferenceError("account", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return a, nil
}

// ListAccounts returns accounts ordered by name, then id.
func (q *queries) ListAccounts(ctx context.Context, includeInactive bool) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := q.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	slog.Debug("retrieved accounts", "count", len(accounts))
	return accounts, nil
}

// UpdateAccount changes display metadata. Balances are left untouched.
func (q *queries) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	result, err := q.q.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ?, currency = ?, color = ?, icon = ?
		WHERE id = ?`,
		account.Name, account.Type, account.Currency, account.Color, account.Icon, account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if err := requireAffected(result, "account", account.ID); err != nil {
		return err
	}

	q.notify(model.ChangeEvent{Entity: model.EntityAccount, Op: model.OpUpdated, ID: account.ID})
	return nil
}

// DeactivateAccount hides an account from active lists. Accounts are never
// removed so their transactions keep a valid reference.
func (q *queries) DeactivateAccount(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := q.q.ExecContext(ctx, `UPDATE accounts SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	if err := requireAffected(result, "account", id); err != nil {
		return err
	}

	slog.Info("deactivated account", "id", id)
	q.notify(model.ChangeEvent{Entity: model.EntityAccount, Op: model.OpUpdated, ID: id})
	return nil
}

// SetAccountBalance overwrites the stored balance. Only the ledger calls it.
func (q *queries) SetAccountBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := q.q.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, balance, id)
	if err != nil {
		return fmt.Errorf("failed to set account balance: %w", err)
	}
	if err := requireAffected(result, "account", id); err != nil {
		return err
	}

	q.notify(model.ChangeEvent{Entity: model.EntityAccount, Op: model.OpUpdated, ID: id})
	return nil
}

// RecordEffect appends a balance change to the journal.
func (q *queries) RecordEffect(ctx context.Context, effect service.BalanceEffect) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(effect.AccountID, "accountID"); err != nil {
		return err
	}

	if effect.CreatedAt.IsZero() {
		effect.CreatedAt = time.Now().UTC()
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO balance_effects (account_id, transaction_id, delta, created_at)
		VALUES (?, ?, ?, ?)`,
		effect.AccountID, effect.TransactionID, effect.Delta, effect.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record balance effect: %w", err)
	}
	return nil
}

// SumEffects totals every journaled delta for an account.
func (q *queries) SumEffects(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}

	rows, err := q.q.QueryContext(ctx, `SELECT delta FROM balance_effects WHERE account_id = ?`, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query balance effects: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var d decimal.Decimal
		if err := rows.Scan(&d); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan balance effect: %w", err)
		}
		sum = sum.Add(d)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating balance effects: %w", err)
	}
	return sum, nil
}

func requireAffected(result sql.Result, entity string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return common.NewReferenceError(entity, id)
	}
	return nil
}
