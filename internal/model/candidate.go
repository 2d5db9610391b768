package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the money flow an extracted message describes.
type Direction string

// Directions.
const (
	DirectionDebit   Direction = "debit"
	DirectionCredit  Direction = "credit"
	DirectionUnknown Direction = "unknown"
)

// ParsedCandidate is the structured result of reading a free-text message.
// It is never stored; the reconciler turns it into a Transaction.
type ParsedCandidate struct {
	Date         time.Time
	Balance      *decimal.Decimal
	Amount       decimal.Decimal
	Direction    Direction
	AccountLast4 string
	Merchant     string
	Provider     string
	Channel      PaymentMethod
	Sender       string
	RawText      string
}

// Kind maps the candidate direction to a transaction kind.
// Unknown direction is treated as an expense.
func (c *ParsedCandidate) Kind() TransactionKind {
	if c.Direction == DirectionCredit {
		return KindIncome
	}
	return KindExpense
}
