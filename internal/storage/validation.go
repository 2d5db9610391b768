// Package storage provides the data persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidID          = errors.New("id must be positive")
	ErrInvalidDateRange   = errors.New("start date must be before end date")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrInvalidCategory    = errors.New("invalid category")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s=%d", ErrInvalidID, paramName, id)
	}
	return nil
}

// validateTransaction validates a single transaction before it is written.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if err := txn.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	if txn.Kind == model.KindTransfer && txn.CategoryID != nil {
		return fmt.Errorf("%w: transfers carry no category", ErrInvalidTransaction)
	}
	return nil
}

func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if strings.TrimSpace(account.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAccount)
	}
	if _, ok := model.ParseAccountType(string(account.Type)); !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAccount, account.Type)
	}
	return nil
}

func validateCategory(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if !category.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, category.Type)
	}
	return nil
}
