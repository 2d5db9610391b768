package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
)

// LinkRefund records refund as income against the original transaction and
// links the two. A missing original is a *common.ReferenceError. The refund
// defaults to the original's account and the Refund income category. The
// original's balance effect is left alone.
func (e *Engine) LinkRefund(ctx context.Context, originalID int64, refund *model.Transaction) (int64, error) {
	if refund == nil {
		return 0, fmt.Errorf("failed to link refund: %w", errors.New("nil refund"))
	}

	original, err := e.storage.GetTransaction(ctx, originalID)
	if err != nil {
		return 0, fmt.Errorf("failed to link refund to %d: %w", originalID, err)
	}

	refund.Kind = model.KindIncome
	refund.ToAccountID = nil
	refund.RefundOf = &original.ID
	refund.Refund = nil
	if refund.AccountID == 0 {
		refund.AccountID = original.AccountID
	}
	if refund.Date.IsZero() {
		refund.Date = original.Date
	}

	effects, err := EffectsOf(refund)
	if err != nil {
		return 0, fmt.Errorf("failed to link refund to %d: %w", originalID, err)
	}

	unlock := e.locks.lock(refund.AccountID)
	defer unlock()

	var id int64
	err = e.inTx(ctx, func(tx service.Transaction) error {
		// Re-read inside the transaction so the link lands on the current record.
		current, err := tx.GetTransaction(ctx, originalID)
		if err != nil {
			return err
		}

		if refund.CategoryID == nil {
			cat, err := tx.GetOrCreateCategory(ctx, model.RefundCategory, model.CategoryTypeIncome)
			if err != nil {
				return err
			}
			refund.CategoryID = &cat.ID
		}

		if id, err = tx.InsertTransaction(ctx, refund); err != nil {
			return err
		}
		if err := apply(ctx, tx, id, effects); err != nil {
			return err
		}

		current.Refund = &model.RefundLink{
			TransactionID: id,
			Amount:        refund.Amount,
			IsPartial:     refund.Amount.LessThan(current.Amount),
		}
		return tx.UpdateTransaction(ctx, current)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to link refund to %d: %w", originalID, err)
	}

	slog.Info("Linked refund", "original_id", originalID, "refund_id", id, "amount", refund.Amount.String())
	return id, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
