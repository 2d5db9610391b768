package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAccount(t *testing.T) {
	accounts := []model.Account{
		{ID: 1, Name: "Cash"},
		{ID: 2, Name: "HDFC Credit Card"},
		{ID: 3, Name: "SBI Savings 1234"},
	}

	tests := []struct {
		name     string
		last4    string
		provider string
		want     int64
	}{
		{name: "last four digits", last4: "1234", want: 3},
		{name: "provider ignores case", provider: "hdfc", want: 2},
		{name: "first match wins", last4: "1234", provider: "HDFC", want: 2},
		{name: "fallback to first", last4: "9999", provider: "Kotak", want: 1},
		{name: "no hints", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MatchAccount(accounts, tt.last4, tt.provider)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}

	_, err := MatchAccount(nil, "1234", "SBI")
	require.ErrorIs(t, err, common.ErrNoAccounts)
}

func TestReconcile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	db.MustAccount("Cash", "0")
	sbi := db.MustAccount("SBI Bank", "0")

	r := New(db.Storage)
	fixed := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	t.Run("live debit is pending expense", func(t *testing.T) {
		txn, err := r.Reconcile(ctx, &model.ParsedCandidate{
			Amount:    decimal.NewFromInt(2500),
			Direction: model.DirectionDebit,
			Provider:  "SBI",
			Merchant:  "SWIGGY",
			Channel:   model.PaymentUPI,
			RawText:   "INR 2,500.00 debited",
		}, OriginLiveCapture)
		require.NoError(t, err)

		assert.Equal(t, model.KindExpense, txn.Kind)
		assert.Equal(t, sbi.ID, txn.AccountID)
		assert.Equal(t, model.StatusPending, txn.Status)
		assert.Equal(t, "Auto-detected from SMS: SBI", txn.Notes)
		assert.Equal(t, "SWIGGY", txn.Payee)
		assert.Equal(t, model.PaymentUPI, txn.PaymentMethod)
		assert.True(t, txn.AutoDetected)
		assert.True(t, txn.Date.Equal(fixed), "missing dates default to now")
		require.NotNil(t, txn.CategoryID)

		cat, err := db.Storage.GetCategory(ctx, *txn.CategoryID)
		require.NoError(t, err)
		assert.Equal(t, model.DefaultExpenseCategory, cat.Name)
	})

	t.Run("imported credit is cleared income", func(t *testing.T) {
		txn, err := r.Reconcile(ctx, &model.ParsedCandidate{
			Amount:    decimal.NewFromInt(50000),
			Direction: model.DirectionCredit,
			Date:      fixed.AddDate(0, 0, -1),
		}, OriginFileImport)
		require.NoError(t, err)

		assert.Equal(t, model.KindIncome, txn.Kind)
		assert.Equal(t, model.StatusCleared, txn.Status)
		assert.Equal(t, "Auto-detected from SMS: Unknown", txn.Notes)
		assert.Equal(t, model.PaymentOther, txn.PaymentMethod)
		assert.Equal(t, "Cash", mustAccountName(t, db, txn.AccountID))
	})

	t.Run("unknown direction is expense", func(t *testing.T) {
		txn, err := r.Reconcile(ctx, &model.ParsedCandidate{
			Amount:    decimal.NewFromInt(1),
			Direction: model.DirectionUnknown,
		}, OriginLiveCapture)
		require.NoError(t, err)
		assert.Equal(t, model.KindExpense, txn.Kind)
	})
}

func TestReconcile_NoAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := New(db.Storage)

	_, err := r.Reconcile(context.Background(), &model.ParsedCandidate{
		Amount: decimal.NewFromInt(10), Direction: model.DirectionDebit,
	}, OriginLiveCapture)
	require.ErrorIs(t, err, common.ErrNoAccounts)
}

func mustAccountName(t *testing.T, db *testutil.TestDB, id int64) string {
	t.Helper()
	a, err := db.Storage.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a.Name
}
