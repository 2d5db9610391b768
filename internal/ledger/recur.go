package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// Recur records a new occurrence of a recurring template dated at. The copy is
// a cleared manual entry with no recurrence or refund links of its own.
func (e *Engine) Recur(ctx context.Context, templateID int64, at time.Time) (int64, error) {
	template, err := e.storage.GetTransaction(ctx, templateID)
	if err != nil {
		return 0, fmt.Errorf("failed to load recurring template %d: %w", templateID, err)
	}
	if template.RecurrenceDays == nil || *template.RecurrenceDays <= 0 {
		return 0, fmt.Errorf("transaction %d: %w", templateID, ErrNotRecurring)
	}

	next := template.Clone()
	next.ID = 0
	next.Date = at
	next.Status = model.StatusCleared
	next.RecurrenceDays = nil
	next.RefundOf = nil
	next.Refund = nil
	next.AutoDetected = false
	next.SourceText = ""
	next.ImportBatch = ""

	return e.Insert(ctx, next)
}

// NextOccurrence returns when a recurring template is next due after its date.
func NextOccurrence(template *model.Transaction) (time.Time, bool) {
	if template.RecurrenceDays == nil || *template.RecurrenceDays <= 0 {
		return time.Time{}, false
	}
	return template.Date.AddDate(0, 0, *template.RecurrenceDays), true
}
