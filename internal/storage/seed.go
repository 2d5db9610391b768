package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultExpenseCategories are created on first run.
var DefaultExpenseCategories = []string{
	"Food & Dining", "Transportation", "Shopping", "Utilities", "Entertainment",
	"Health", "Education", "Rent", "EMI", "Subscriptions", "Travel", "Gifts",
	"Groceries", "Insurance", model.DefaultExpenseCategory,
}

// DefaultIncomeCategories are created on first run.
var DefaultIncomeCategories = []string{
	"Salary", "Freelance", "Business", "Investment", "Rental Income",
	"Cashback", model.RefundCategory, "Gift", model.DefaultIncomeCategory,
}

// DefaultAccounts are created on first run.
var DefaultAccounts = []model.Account{
	{Name: "Cash", Type: model.AccountCash},
	{Name: "SBI Bank", Type: model.AccountBank},
	{Name: "HDFC Credit Card", Type: model.AccountCreditCard},
	{Name: "Paytm Wallet", Type: model.AccountWallet},
}

// SeedDefaults populates an empty database with the default categories and
// accounts. It does nothing once any category exists.
func (s *SQLiteStorage) SeedDefaults(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	seed := func(names []string, t model.CategoryType) error {
		for _, name := range names {
			if _, err := tx.CreateCategory(ctx, &model.Category{Name: name, Type: t, IsDefault: true}); err != nil {
				return fmt.Errorf("failed to seed category %q: %w", name, err)
			}
		}
		return nil
	}
	if err := seed(DefaultExpenseCategories, model.CategoryTypeExpense); err != nil {
		return err
	}
	if err := seed(DefaultIncomeCategories, model.CategoryTypeIncome); err != nil {
		return err
	}

	for _, a := range DefaultAccounts {
		account := a
		account.Currency = model.DefaultCurrency
		account.InitialBalance = decimal.Zero
		if _, err := tx.CreateAccount(ctx, &account); err != nil {
			return fmt.Errorf("failed to seed account %q: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed data: %w", err)
	}

	slog.Info("seeded default data",
		"categories", len(DefaultExpenseCategories)+len(DefaultIncomeCategories),
		"accounts", len(DefaultAccounts))
	return nil
}
