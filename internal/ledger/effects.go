package ledger

import (
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

// Effect is a signed change to one account balance.
type Effect struct {
	Delta     decimal.Decimal
	AccountID int64
}

// EffectsOf returns the balance effects a transaction has while it exists.
// Refund links have none of their own; a refund is ordinary income.
func EffectsOf(txn *model.Transaction) ([]Effect, error) {
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	switch txn.Kind {
	case model.KindExpense:
		return []Effect{{AccountID: txn.AccountID, Delta: txn.Amount.Neg()}}, nil
	case model.KindIncome:
		return []Effect{{AccountID: txn.AccountID, Delta: txn.Amount}}, nil
	default:
		return []Effect{
			{AccountID: txn.AccountID, Delta: txn.Amount.Neg()},
			{AccountID: *txn.ToAccountID, Delta: txn.Amount},
		}, nil
	}
}

// Reverse negates every effect.
func Reverse(effects []Effect) []Effect {
	out := make([]Effect, len(effects))
	for i, e := range effects {
		out[i] = Effect{AccountID: e.AccountID, Delta: e.Delta.Neg()}
	}
	return out
}
