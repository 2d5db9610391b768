package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, kind, amount, account_id, to_account_id, category_id, date,
	notes, payee, labels, payment_method, status, recurrence_days,
	refund_of, refund_txn_id, refund_amount, refund_partial,
	auto_detected, source_text, import_batch, created_at, updated_at`

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		t             model.Transaction
		toAccount     sql.NullInt64
		category      sql.NullInt64
		recurrence    sql.NullInt64
		refundOf      sql.NullInt64
		refundID      sql.NullInt64
		refundAmount  decimal.NullDecimal
		refundPartial bool
		labels        string
	)

	if err := row.Scan(&t.ID, &t.Kind, &t.Amount, &t.AccountID, &toAccount, &category, &t.Date,
		&t.Notes, &t.Payee, &labels, &t.PaymentMethod, &t.Status, &recurrence,
		&refundOf, &refundID, &refundAmount, &refundPartial,
		&t.AutoDetected, &t.SourceText, &t.ImportBatch, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	if toAccount.Valid {
		t.ToAccountID = &toAccount.Int64
	}
	if category.Valid {
		t.CategoryID = &category.Int64
	}
	if recurrence.Valid {
		days := int(recurrence.Int64)
		t.RecurrenceDays = &days
	}
	if refundOf.Valid {
		t.RefundOf = &refundOf.Int64
	}
	if refundID.Valid {
		t.Refund = &model.RefundLink{
			TransactionID: refundID.Int64,
			Amount:        refundAmount.Decimal,
			IsPartial:     refundPartial,
		}
	}
	if labels != "" {
		if err := json.Unmarshal([]byte(labels), &t.Labels); err != nil {
			return nil, fmt.Errorf("failed to decode labels: %w", err)
		}
	}
	return &t, nil
}

// transactionArgs returns the writable columns in transactionColumns order,
// without id, created_at, and updated_at.
func transactionArgs(t *model.Transaction) ([]any, error) {
	labels := t.Labels
	if labels == nil {
		labels = []string{}
	}
	encoded, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode labels: %w", err)
	}

	var (
		refundID      any
		refundAmount  any
		refundPartial bool
		recurrence    any
	)
	if t.Refund != nil {
		refundID = t.Refund.TransactionID
		refundAmount = t.Refund.Amount
		refundPartial = t.Refund.IsPartial
	}
	if t.RecurrenceDays != nil {
		recurrence = *t.RecurrenceDays
	}

	method := t.PaymentMethod
	if method == "" {
		method = model.PaymentOther
	}
	status := t.Status
	if status == "" {
		status = model.StatusCleared
	}

	return []any{
		t.Kind, t.Amount, t.AccountID, nullableID(t.ToAccountID), nullableID(t.CategoryID), t.Date.UTC(),
		t.Notes, t.Payee, string(encoded), method, status, recurrence,
		nullableID(t.RefundOf), refundID, refundAmount, refundPartial,
		t.AutoDetected, t.SourceText, t.ImportBatch,
	}, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// InsertTransaction stores a transaction record and assigns its id.
// Balances are the ledger's concern.
func (q *queries) InsertTransaction(ctx context.Context, txn *model.Transaction) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransaction(txn); err != nil {
		return 0, err
	}

	args, err := transactionArgs(txn)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	args = append(args, now, now)

	result, err := q.q.ExecContext(ctx, `
		INSERT INTO transactions (kind, amount, account_id, to_account_id, category_id, date,
			notes, payee, labels, payment_method, status, recurrence_days,
			refund_of, refund_txn_id, refund_amount, refund_partial,
			auto_detected, source_text, import_batch, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction ID: %w", err)
	}
	txn.ID = id
	txn.CreatedAt = now
	txn.UpdatedAt = now

	slog.Debug("inserted transaction", "id", id, "kind", txn.Kind, "amount", txn.Amount.String())
	q.notify(model.ChangeEvent{Entity: model.EntityTransaction, Op: model.OpCreated, ID: id})
	return id, nil
}

// UpdateTransaction rewrites every field of an existing record.
func (q *queries) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if err := validateID(txn.ID, "id"); err != nil {
		return err
	}

	args, err := transactionArgs(txn)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	args = append(args, now, txn.ID)

	result, err := q.q.ExecContext(ctx, `
		UPDATE transactions SET kind = ?, amount = ?, account_id = ?, to_account_id = ?, category_id = ?, date = ?,
			notes = ?, payee = ?, labels = ?, payment_method = ?, status = ?, recurrence_days = ?,
			refund_of = ?, refund_txn_id = ?, refund_amount = ?, refund_partial = ?,
			auto_detected = ?, source_text = ?, import_batch = ?, updated_at = ?
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if err := requireAffected(result, "transaction", txn.ID); err != nil {
		return err
	}
	txn.UpdatedAt = now

	q.notify(model.ChangeEvent{Entity: model.EntityTransaction, Op: model.OpUpdated, ID: txn.ID})
	return nil
}

// DeleteTransaction removes a record.
func (q *queries) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := q.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if err := requireAffected(result, "transaction", id); err != nil {
		return err
	}

	q.notify(model.ChangeEvent{Entity: model.EntityTransaction, Op: model.OpDeleted, ID: id})
	return nil
}

// GetTransaction returns a transaction or a reference error.
func (q *queries) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	t, err := scanTransaction(q.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewReferenceError("transaction", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return t, nil
}

// GetRefunds returns the refunds recorded against a transaction.
func (q *queries) GetRefunds(ctx context.Context, originalID int64) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return q.selectTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE refund_of = ? ORDER BY id`, originalID)
}

// GetPendingAutoDetected returns captured transactions still awaiting review, oldest first.
func (q *queries) GetPendingAutoDetected(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return q.selectTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE status = ? AND auto_detected = 1 ORDER BY date, id`,
		model.StatusPending)
}

// ListTransactions returns transactions matching filter, newest first.
func (q *queries) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.EndDate, *filter.StartDate)
	}

	var (
		where []string
		args  []any
	)
	if filter.AccountID != nil {
		where = append(where, `(account_id = ? OR to_account_id = ?)`)
		args = append(args, *filter.AccountID, *filter.AccountID)
	}
	if filter.CategoryID != nil {
		where = append(where, `category_id = ?`)
		args = append(args, *filter.CategoryID)
	}
	if filter.Kind != nil {
		where = append(where, `kind = ?`)
		args = append(args, *filter.Kind)
	}
	if filter.Status != nil {
		where = append(where, `status = ?`)
		args = append(args, *filter.Status)
	}
	if filter.AutoDetected != nil {
		where = append(where, `auto_detected = ?`)
		args = append(args, *filter.AutoDetected)
	}
	if filter.ImportBatch != "" {
		where = append(where, `import_batch = ?`)
		args = append(args, filter.ImportBatch)
	}
	if filter.StartDate != nil {
		where = append(where, `date >= ?`)
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		where = append(where, `date <= ?`)
		args = append(args, filter.EndDate.UTC())
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY date DESC, id DESC`

	// Amounts are stored as exact decimal text, so amount bounds are applied
	// here rather than by SQLite's numeric affinity.
	amountFiltered := filter.MinAmount != nil || filter.MaxAmount != nil
	if !amountFiltered && filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, filter.Limit, filter.Offset)
	}

	txns, err := q.selectTransactions(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if !amountFiltered {
		return txns, nil
	}

	kept := txns[:0]
	for _, t := range txns {
		if filter.MinAmount != nil && t.Amount.LessThan(*filter.MinAmount) {
			continue
		}
		if filter.MaxAmount != nil && t.Amount.GreaterThan(*filter.MaxAmount) {
			continue
		}
		kept = append(kept, t)
	}
	return paginate(kept, filter.Limit, filter.Offset), nil
}

func paginate(txns []model.Transaction, limit, offset int) []model.Transaction {
	if offset >= len(txns) {
		return nil
	}
	txns = txns[offset:]
	if limit > 0 && limit < len(txns) {
		txns = txns[:limit]
	}
	return txns
}

func (q *queries) selectTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}
