package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType describes what kind of money store an account is.
type AccountType string

// Account types.
const (
	AccountCash       AccountType = "cash"
	AccountBank       AccountType = "bank"
	AccountWallet     AccountType = "wallet"
	AccountCreditCard AccountType = "credit_card"
	AccountSavings    AccountType = "savings"
	AccountInvestment AccountType = "investment"
	AccountOther      AccountType = "other"
)

// DefaultCurrency is the currency assigned to accounts created without one.
const DefaultCurrency = "INR"

// ParseAccountType maps user input onto an AccountType, accepting either case.
func ParseAccountType(s string) (AccountType, bool) {
	switch t := AccountType(normalizeEnum(s)); t {
	case AccountCash, AccountBank, AccountWallet, AccountCreditCard,
		AccountSavings, AccountInvestment, AccountOther:
		return t, true
	}
	return "", false
}

// Account is a money store whose balance is maintained by the ledger.
// Balance must equal InitialBalance plus the effects of every live transaction
// that references the account.
type Account struct {
	CreatedAt      time.Time
	Balance        decimal.Decimal
	InitialBalance decimal.Decimal
	Name           string
	Type           AccountType
	Currency       string
	Color          string
	Icon           string
	ID             int64
	IsActive       bool
}
