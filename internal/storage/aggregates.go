package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/shopspring/decimal"
)

type amountRow struct {
	date       time.Time
	amount     decimal.Decimal
	categoryID sql.NullInt64
}

// kindAmounts loads the amounts of one kind within [start, end]. Sums happen
// in decimal; SQLite's SUM would go through floating point.
func (q *queries) kindAmounts(ctx context.Context, kind model.TransactionKind, start, end time.Time) ([]amountRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, end, start)
	}

	rows, err := q.q.QueryContext(ctx, `
		SELECT date, amount, category_id FROM transactions
		WHERE kind = ? AND date >= ? AND date <= ?
		ORDER BY date`, kind, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer rows.Close()

	var out []amountRow
	for rows.Next() {
		var r amountRow
		if err := rows.Scan(&r.date, &r.amount, &r.categoryID); err != nil {
			return nil, fmt.Errorf("failed to scan amount: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating amounts: %w", err)
	}
	return out, nil
}

// SumByKind totals one kind of transaction over a date range.
func (q *queries) SumByKind(ctx context.Context, kind model.TransactionKind, start, end time.Time) (decimal.Decimal, error) {
	rows, err := q.kindAmounts(ctx, kind, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.amount)
	}
	return sum, nil
}

// DailyTotals groups one kind of transaction by calendar day in start's location.
func (q *queries) DailyTotals(ctx context.Context, kind model.TransactionKind, start, end time.Time) ([]service.PeriodTotal, error) {
	return q.periodTotals(ctx, kind, start, end, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	})
}

// MonthlyTotals groups one kind of transaction by calendar month in start's location.
func (q *queries) MonthlyTotals(ctx context.Context, kind model.TransactionKind, start, end time.Time) ([]service.PeriodTotal, error) {
	return q.periodTotals(ctx, kind, start, end, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	})
}

func (q *queries) periodTotals(ctx context.Context, kind model.TransactionKind, start, end time.Time, bucket func(time.Time) time.Time) ([]service.PeriodTotal, error) {
	rows, err := q.kindAmounts(ctx, kind, start, end)
	if err != nil {
		return nil, err
	}

	loc := start.Location()
	var totals []service.PeriodTotal
	for _, r := range rows {
		period := bucket(r.date.In(loc))
		if n := len(totals); n > 0 && totals[n-1].Period.Equal(period) {
			totals[n-1].Total = totals[n-1].Total.Add(r.amount)
			totals[n-1].Count++
			continue
		}
		totals = append(totals, service.PeriodTotal{Period: period, Total: r.amount, Count: 1})
	}
	return totals, nil
}

// SumByCategory totals one kind of transaction per category, largest first.
func (q *queries) SumByCategory(ctx context.Context, kind model.TransactionKind, start, end time.Time) ([]service.CategoryTotal, error) {
	rows, err := q.kindAmounts(ctx, kind, start, end)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*service.CategoryTotal)
	for _, r := range rows {
		id := int64(0)
		if r.categoryID.Valid {
			id = r.categoryID.Int64
		}
		ct, ok := byID[id]
		if !ok {
			ct = &service.CategoryTotal{CategoryID: id, Total: decimal.Zero}
			byID[id] = ct
		}
		ct.Total = ct.Total.Add(r.amount)
		ct.Count++
	}

	totals := make([]service.CategoryTotal, 0, len(byID))
	for id, ct := range byID {
		if id != 0 {
			cat, err := q.GetCategory(ctx, id)
			if err != nil {
				return nil, err
			}
			ct.Name = cat.Name
		} else {
			ct.Name = "Uncategorized"
		}
		totals = append(totals, *ct)
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].Name < totals[j].Name
	})
	return totals, nil
}
