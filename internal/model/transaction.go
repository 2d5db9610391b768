// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind determines how a transaction affects balances.
type TransactionKind string

// Transaction kinds.
const (
	KindExpense  TransactionKind = "expense"
	KindIncome   TransactionKind = "income"
	KindTransfer TransactionKind = "transfer"
)

// ParseKind maps user input onto a TransactionKind.
func ParseKind(s string) (TransactionKind, bool) {
	switch k := TransactionKind(normalizeEnum(s)); k {
	case KindExpense, KindIncome, KindTransfer:
		return k, true
	}
	return "", false
}

// PaymentMethod records how money moved.
type PaymentMethod string

// Payment methods.
const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCheque       PaymentMethod = "cheque"
	PaymentWallet       PaymentMethod = "wallet"
	PaymentOther        PaymentMethod = "other"
)

// ParsePaymentMethod maps user input onto a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(normalizeEnum(s)); m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentBankTransfer,
		PaymentCheque, PaymentWallet, PaymentOther:
		return m, true
	}
	return "", false
}

// TransactionStatus tracks whether a transaction has been confirmed.
type TransactionStatus string

// Transaction statuses.
const (
	StatusCleared    TransactionStatus = "cleared"
	StatusPending    TransactionStatus = "pending"
	StatusReconciled TransactionStatus = "reconciled"
)

// ParseStatus maps user input onto a TransactionStatus.
func ParseStatus(s string) (TransactionStatus, bool) {
	switch st := TransactionStatus(normalizeEnum(s)); st {
	case StatusCleared, StatusPending, StatusReconciled:
		return st, true
	}
	return "", false
}

// Validation errors for transactions.
var (
	ErrNonPositiveAmount  = errors.New("amount must be greater than zero")
	ErrUnknownKind        = errors.New("unknown transaction kind")
	ErrMissingAccount     = errors.New("transaction has no account")
	ErrMissingDestination = errors.New("transfer has no destination account")
	ErrSelfTransfer       = errors.New("transfer destination equals source")
)

// RefundLink is carried by a refunded transaction. It records the refund's
// id, the refunded amount, and whether the refund was partial.
type RefundLink struct {
	Amount        decimal.Decimal
	TransactionID int64
	IsPartial     bool
}

// Transaction is a single ledger entry.
type Transaction struct {
	Date           time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Amount         decimal.Decimal
	ToAccountID    *int64
	CategoryID     *int64
	RecurrenceDays *int
	RefundOf       *int64 // Set on a refund; the transaction it refunds
	Refund         *RefundLink
	Kind           TransactionKind
	Notes          string
	Payee          string
	PaymentMethod  PaymentMethod
	Status         TransactionStatus
	SourceText     string
	ImportBatch    string
	Labels         []string
	ID             int64
	AccountID      int64
	AutoDetected   bool
}

// Validate checks the structural rules every stored transaction must satisfy.
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrNonPositiveAmount, t.Amount.String())
	}
	if t.AccountID == 0 {
		return ErrMissingAccount
	}
	switch t.Kind {
	case KindExpense, KindIncome:
	case KindTransfer:
		if t.ToAccountID == nil || *t.ToAccountID == 0 {
			return ErrMissingDestination
		}
		if *t.ToAccountID == t.AccountID {
			return ErrSelfTransfer
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, t.Kind)
	}
	return nil
}

// IsRefund reports whether t was recorded as a refund of another transaction.
func (t *Transaction) IsRefund() bool {
	return t.RefundOf != nil
}

// Accounts returns every account id the transaction touches.
func (t *Transaction) Accounts() []int64 {
	if t.Kind == KindTransfer && t.ToAccountID != nil {
		return []int64{t.AccountID, *t.ToAccountID}
	}
	return []int64{t.AccountID}
}

// Clone returns a deep copy so callers can mutate without aliasing pointers.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.ToAccountID != nil {
		v := *t.ToAccountID
		c.ToAccountID = &v
	}
	if t.CategoryID != nil {
		v := *t.CategoryID
		c.CategoryID = &v
	}
	if t.RecurrenceDays != nil {
		v := *t.RecurrenceDays
		c.RecurrenceDays = &v
	}
	if t.RefundOf != nil {
		v := *t.RefundOf
		c.RefundOf = &v
	}
	if t.Refund != nil {
		r := *t.Refund
		c.Refund = &r
	}
	if t.Labels != nil {
		c.Labels = append([]string(nil), t.Labels...)
	}
	return &c
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", "_")
}
