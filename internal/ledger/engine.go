// Package ledger applies transactions to account balances. Every write is
// paired with its balance effects in one store transaction, and every applied
// effect is journaled so balances can be audited.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
)

// Ledger errors.
var (
	ErrMissingDestination = model.ErrMissingDestination
	ErrStaleTransaction   = errors.New("transaction changed since it was read")
	ErrNotRecurring       = errors.New("transaction has no recurrence")
	ErrInconsistent       = errors.New("ledger is inconsistent")
)

// Engine performs balance-affecting writes.
type Engine struct {
	storage service.Storage
	locks   *accountLocks
}

// New creates an engine over storage.
func New(storage service.Storage) *Engine {
	return &Engine{
		storage: storage,
		locks:   newAccountLocks(),
	}
}

// Insert stores txn and applies its effects. txn.ID is set on success.
func (e *Engine) Insert(ctx context.Context, txn *model.Transaction) (int64, error) {
	effects, err := EffectsOf(txn)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	unlock := e.locks.lock(txn.Accounts()...)
	defer unlock()

	var id int64
	err = e.inTx(ctx, func(tx service.Transaction) error {
		var err error
		if id, err = tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
		return apply(ctx, tx, id, effects)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	slog.Info("Recorded transaction", "id", id, "kind", txn.Kind, "amount", txn.Amount.String(), "account_id", txn.AccountID)
	return id, nil
}

// Update replaces the stored version of old with updated. The stored record
// must still match old in kind, amount and accounts. Otherwise
// ErrStaleTransaction is returned and nothing changes.
func (e *Engine) Update(ctx context.Context, old, updated *model.Transaction) error {
	if old == nil || updated == nil {
		return fmt.Errorf("failed to update transaction: %w", errors.New("nil transaction"))
	}
	newEffects, err := EffectsOf(updated)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", old.ID, err)
	}

	unlock := e.locks.lock(append(old.Accounts(), updated.Accounts()...)...)
	defer unlock()

	err = e.inTx(ctx, func(tx service.Transaction) error {
		stored, err := tx.GetTransaction(ctx, old.ID)
		if err != nil {
			return err
		}
		if !sameEffects(stored, old) {
			return ErrStaleTransaction
		}
		oldEffects, err := EffectsOf(stored)
		if err != nil {
			return err
		}

		// Links are kept; only their amounts follow an edit.
		updated.ID = stored.ID
		updated.CreatedAt = stored.CreatedAt
		updated.Refund = stored.Refund
		updated.RefundOf = stored.RefundOf
		if updated.Refund != nil && !stored.Amount.Equal(updated.Amount) {
			link := *updated.Refund
			link.IsPartial = link.Amount.LessThan(updated.Amount)
			updated.Refund = &link
		}
		if err := tx.UpdateTransaction(ctx, updated); err != nil {
			return err
		}
		if err := syncRefundLink(ctx, tx, stored, updated); err != nil {
			return err
		}
		if err := apply(ctx, tx, stored.ID, Reverse(oldEffects)); err != nil {
			return err
		}
		return apply(ctx, tx, stored.ID, newEffects)
	})
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", old.ID, err)
	}

	slog.Info("Updated transaction", "id", old.ID, "amount", updated.Amount.String())
	return nil
}

// syncRefundLink rewrites the original's link when the amount of the refund
// it points at changed.
func syncRefundLink(ctx context.Context, tx service.Transaction, stored, updated *model.Transaction) error {
	if stored.RefundOf == nil || stored.Amount.Equal(updated.Amount) {
		return nil
	}
	original, err := tx.GetTransaction(ctx, *stored.RefundOf)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if original.Refund == nil || original.Refund.TransactionID != stored.ID {
		return nil
	}
	original.Refund = &model.RefundLink{
		TransactionID: stored.ID,
		Amount:        updated.Amount,
		IsPartial:     updated.Amount.LessThan(original.Amount),
	}
	return tx.UpdateTransaction(ctx, original)
}

// Delete reverses the stored version of txn, removes it, and clears refund
// links that point at it.
func (e *Engine) Delete(ctx context.Context, txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("failed to delete transaction: %w", errors.New("nil transaction"))
	}

	unlock := e.locks.lock(txn.Accounts()...)
	defer unlock()

	err := e.inTx(ctx, func(tx service.Transaction) error {
		stored, err := tx.GetTransaction(ctx, txn.ID)
		if err != nil {
			return err
		}
		if !sameEffects(stored, txn) {
			return ErrStaleTransaction
		}
		effects, err := EffectsOf(stored)
		if err != nil {
			return err
		}

		if err := apply(ctx, tx, stored.ID, Reverse(effects)); err != nil {
			return err
		}
		if err := clearRefundLinks(ctx, tx, stored); err != nil {
			return err
		}
		return tx.DeleteTransaction(ctx, stored.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", txn.ID, err)
	}

	slog.Info("Deleted transaction", "id", txn.ID)
	return nil
}

// clearRefundLinks removes links between deleted and its counterparts. Link
// changes never touch balances.
func clearRefundLinks(ctx context.Context, tx service.Transaction, deleted *model.Transaction) error {
	if deleted.RefundOf != nil {
		original, err := tx.GetTransaction(ctx, *deleted.RefundOf)
		switch {
		case err == nil:
			if original.Refund != nil && original.Refund.TransactionID == deleted.ID {
				original.Refund = nil
				if err := tx.UpdateTransaction(ctx, original); err != nil {
					return err
				}
			}
		case !isNotFound(err):
			return err
		}
	}

	refunds, err := tx.GetRefunds(ctx, deleted.ID)
	if err != nil {
		return err
	}
	for i := range refunds {
		refund := &refunds[i]
		refund.RefundOf = nil
		if err := tx.UpdateTransaction(ctx, refund); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) inTx(ctx context.Context, fn func(tx service.Transaction) error) error {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("Failed to roll back ledger transaction", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// apply adds each delta to its account balance and journals it.
func apply(ctx context.Context, tx service.Transaction, txnID int64, effects []Effect) error {
	for _, eff := range effects {
		account, err := tx.GetAccount(ctx, eff.AccountID)
		if err != nil {
			return err
		}
		if err := tx.SetAccountBalance(ctx, account.ID, account.Balance.Add(eff.Delta)); err != nil {
			return err
		}
		if err := tx.RecordEffect(ctx, service.BalanceEffect{
			AccountID:     account.ID,
			TransactionID: txnID,
			Delta:         eff.Delta,
		}); err != nil {
			return err
		}
	}
	return nil
}

// sameEffects reports whether two versions of a record move the same money.
func sameEffects(a, b *model.Transaction) bool {
	if a.Kind != b.Kind || !a.Amount.Equal(b.Amount) || a.AccountID != b.AccountID {
		return false
	}
	if a.Kind != model.KindTransfer {
		return true
	}
	return a.ToAccountID != nil && b.ToAccountID != nil && *a.ToAccountID == *b.ToAccountID
}
