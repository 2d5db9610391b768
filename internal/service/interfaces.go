// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionFilter defines filtering options for transaction queries.
// Nil fields do not constrain the result.
type TransactionFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	AccountID    *int64 // Matches source or transfer destination
	CategoryID   *int64
	Kind         *model.TransactionKind
	Status       *model.TransactionStatus
	AutoDetected *bool
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
	ImportBatch  string
	Limit        int
	Offset       int
}

// PeriodTotal is the sum of one kind of transaction over a day or month.
type PeriodTotal struct {
	Period time.Time
	Total  decimal.Decimal
	Count  int
}

// CategoryTotal is the sum of one kind of transaction within a category.
type CategoryTotal struct {
	Name       string
	Total      decimal.Decimal
	CategoryID int64
	Count      int
}

// BalanceEffect is one journaled change to an account balance.
type BalanceEffect struct {
	CreatedAt     time.Time
	Delta         decimal.Decimal
	ID            int64
	AccountID     int64
	TransactionID int64
}

// Store holds the record-level operations available both directly and
// inside a transaction.
type Store interface {
	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) (int64, error)
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	ListAccounts(ctx context.Context, includeInactive bool) ([]model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	DeactivateAccount(ctx context.Context, id int64) error
	SetAccountBalance(ctx context.Context, id int64, balance decimal.Decimal) error

	// Balance journal
	RecordEffect(ctx context.Context, effect BalanceEffect) error
	SumEffects(ctx context.Context, accountID int64) (decimal.Decimal, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) (int64, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error)
	GetOrCreateCategory(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error)
	ListCategories(ctx context.Context, categoryType *model.CategoryType) ([]model.Category, error)

	// Transaction operations
	InsertTransaction(ctx context.Context, txn *model.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetRefunds(ctx context.Context, originalID int64) ([]model.Transaction, error)
	GetPendingAutoDetected(ctx context.Context) ([]model.Transaction, error)

	// Aggregates
	SumByKind(ctx context.Context, kind model.TransactionKind, start, end time.Time) (decimal.Decimal, error)
	DailyTotals(ctx context.Context, kind model.TransactionKind, start, end time.Time) ([]PeriodTotal, error)
	MonthlyTotals(ctx context.Context, kind model.TransactionKind, start, end time.Time) ([]PeriodTotal, error)
	SumByCategory(ctx context.Context, kind model.TransactionKind, start, end time.Time) ([]CategoryTotal, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	Store

	// Subscribe registers fn for change events. Events raised inside a
	// transaction are delivered after it commits. The returned func
	// removes the subscription.
	Subscribe(fn func(model.ChangeEvent)) func()

	// Database management
	Migrate(ctx context.Context) error
	SeedDefaults(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Store
	Commit() error
	Rollback() error
}
