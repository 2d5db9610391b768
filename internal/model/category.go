package model

import "time"

// CategoryType indicates whether a category is for income or expense.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
)

// Default category names used when a row or candidate carries none.
const (
	DefaultExpenseCategory = "Other Expense"
	DefaultIncomeCategory  = "Other Income"
	RefundCategory         = "Refund"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Category is a named bucket for income or expense transactions.
// Names are unique per type.
type Category struct {
	CreatedAt time.Time
	Name      string
	Type      CategoryType
	Icon      string
	Color     string
	ID        int64
	IsDefault bool
}

// DefaultCategoryFor returns the fallback category name for a transaction kind.
func DefaultCategoryFor(kind TransactionKind) (string, CategoryType) {
	if kind == KindIncome {
		return DefaultIncomeCategory, CategoryTypeIncome
	}
	return DefaultExpenseCategory, CategoryTypeExpense
}
