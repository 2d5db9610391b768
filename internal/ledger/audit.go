package ledger

import (
	"context"
	"fmt"

	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/shopspring/decimal"
)

// AuditReport compares the three views of an account's movement.
type AuditReport struct {
	Balance     decimal.Decimal
	Initial     decimal.Decimal
	Journal     decimal.Decimal
	LiveEffects decimal.Decimal
	AccountID   int64
}

// Consistent reports whether balance minus initial, the journal sum, and the
// effects of live transactions all agree.
func (r *AuditReport) Consistent() bool {
	moved := r.Balance.Sub(r.Initial)
	return moved.Equal(r.Journal) && r.Journal.Equal(r.LiveEffects)
}

// Audit checks one account. An inconsistent account returns the report along
// with ErrInconsistent.
func (e *Engine) Audit(ctx context.Context, accountID int64) (*AuditReport, error) {
	account, err := e.storage.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to audit account %d: %w", accountID, err)
	}

	journal, err := e.storage.SumEffects(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to audit account %d: %w", accountID, err)
	}

	txns, err := e.storage.ListTransactions(ctx, service.TransactionFilter{AccountID: &accountID})
	if err != nil {
		return nil, fmt.Errorf("failed to audit account %d: %w", accountID, err)
	}

	live := decimal.Zero
	for i := range txns {
		effects, err := EffectsOf(&txns[i])
		if err != nil {
			return nil, fmt.Errorf("failed to audit transaction %d: %w", txns[i].ID, err)
		}
		for _, eff := range effects {
			if eff.AccountID == accountID {
				live = live.Add(eff.Delta)
			}
		}
	}

	report := &AuditReport{
		AccountID:   accountID,
		Balance:     account.Balance,
		Initial:     account.InitialBalance,
		Journal:     journal,
		LiveEffects: live,
	}
	if !report.Consistent() {
		return report, fmt.Errorf("account %d: balance moved %s, journal %s, live effects %s: %w",
			accountID, report.Balance.Sub(report.Initial), journal, live, ErrInconsistent)
	}
	return report, nil
}

// AuditAll checks every account, including inactive ones.
func (e *Engine) AuditAll(ctx context.Context) ([]AuditReport, error) {
	accounts, err := e.storage.ListAccounts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	reports := make([]AuditReport, 0, len(accounts))
	var firstErr error
	for _, a := range accounts {
		report, err := e.Audit(ctx, a.ID)
		if report != nil {
			reports = append(reports, *report)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return reports, firstErr
}
