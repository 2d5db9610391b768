package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func mustAccount(t *testing.T, s service.Store, name string, initial string) *model.Account {
	t.Helper()
	a := &model.Account{Name: name, Type: model.AccountBank, InitialBalance: decimal.RequireFromString(initial)}
	_, err := s.CreateAccount(context.Background(), a)
	require.NoError(t, err)
	return a
}

func testTxn(accountID int64, kind model.TransactionKind, amount string, date time.Time) *model.Transaction {
	return &model.Transaction{
		Kind:      kind,
		Amount:    decimal.RequireFromString(amount),
		AccountID: accountID,
		Date:      date,
		Status:    model.StatusCleared,
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	_, err := NewSQLiteStorage("")
	require.ErrorIs(t, err, ErrEmptyString)

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(context.Background()))
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)

	var indexCount int
	require.NoError(t, store.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='index' AND name='idx_transactions_refund_of'
	`).Scan(&indexCount))
	assert.Equal(t, 1, indexCount)
}

func TestAccounts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	wallet := mustAccount(t, store, "Wallet", "250.50")
	bank := mustAccount(t, store, "Axis Savings", "1000")

	got, err := store.GetAccount(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wallet", got.Name)
	assert.Equal(t, model.DefaultCurrency, got.Currency)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("250.50")))
	assert.True(t, got.IsActive)

	accounts, err := store.ListAccounts(ctx, false)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Axis Savings", accounts[0].Name, "accounts are ordered by name")

	require.NoError(t, store.DeactivateAccount(ctx, bank.ID))
	accounts, err = store.ListAccounts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
	accounts, err = store.ListAccounts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	wallet.Name = "Pocket"
	wallet.Balance = decimal.NewFromInt(9999)
	require.NoError(t, store.UpdateAccount(ctx, wallet))
	got, err = store.GetAccount(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pocket", got.Name)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("250.50")), "metadata update must not touch balance")

	_, err = store.GetAccount(ctx, 999)
	require.ErrorIs(t, err, common.ErrNotFound)
	require.ErrorIs(t, store.DeactivateAccount(ctx, 999), common.ErrNotFound)

	_, err = store.CreateAccount(ctx, &model.Account{Name: "Odd", Type: "vault"})
	require.ErrorIs(t, err, ErrInvalidAccount)
}

func TestBalanceJournal(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	a := mustAccount(t, store, "Cash", "0")
	for _, d := range []string{"-100", "250.25", "-0.25"} {
		require.NoError(t, store.RecordEffect(ctx, service.BalanceEffect{
			AccountID: a.ID, TransactionID: 1, Delta: decimal.RequireFromString(d),
		}))
	}

	sum, err := store.SumEffects(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "150", sum.String())
}

func TestCategories(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	food, err := store.GetOrCreateCategory(ctx, "Food", model.CategoryTypeExpense)
	require.NoError(t, err)
	again, err := store.GetOrCreateCategory(ctx, "Food", model.CategoryTypeExpense)
	require.NoError(t, err)
	assert.Equal(t, food.ID, again.ID)

	income, err := store.GetOrCreateCategory(ctx, "Food", model.CategoryTypeIncome)
	require.NoError(t, err)
	assert.NotEqual(t, food.ID, income.ID, "names are unique per type")

	lower, err := store.GetOrCreateCategory(ctx, "food", model.CategoryTypeExpense)
	require.NoError(t, err)
	assert.NotEqual(t, food.ID, lower.ID, "lookup is case sensitive")

	_, err = store.CreateCategory(ctx, &model.Category{Name: "Food", Type: model.CategoryTypeExpense})
	require.ErrorIs(t, err, common.ErrDuplicateEntry)

	expense := model.CategoryTypeExpense
	cats, err := store.ListCategories(ctx, &expense)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	_, err = store.GetCategoryByName(ctx, "Missing", model.CategoryTypeExpense)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactions_CRUD(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	a := mustAccount(t, store, "Bank", "0")
	b := mustAccount(t, store, "Wallet", "0")
	cat, err := store.GetOrCreateCategory(ctx, "Groceries", model.CategoryTypeExpense)
	require.NoError(t, err)

	days := 30
	date := time.Date(2026, 2, 18, 10, 15, 0, 0, time.UTC)
	txn := testTxn(a.ID, model.KindExpense, "1200.50", date)
	txn.CategoryID = &cat.ID
	txn.Payee = "Big Bazaar"
	txn.Labels = []string{"family", "monthly"}
	txn.PaymentMethod = model.PaymentUPI
	txn.RecurrenceDays = &days
	txn.AutoDetected = true
	txn.SourceText = "Rs 1200.50 debited"

	id, err := store.InsertTransaction(ctx, txn)
	require.NoError(t, err)
	assert.Equal(t, id, txn.ID)

	got, err := store.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.KindExpense, got.Kind)
	assert.Equal(t, "1200.5", got.Amount.String())
	assert.True(t, date.Equal(got.Date))
	assert.Equal(t, []string{"family", "monthly"}, got.Labels)
	assert.Equal(t, model.PaymentUPI, got.PaymentMethod)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)
	require.NotNil(t, got.RecurrenceDays)
	assert.Equal(t, 30, *got.RecurrenceDays)
	assert.True(t, got.AutoDetected)
	assert.Nil(t, got.Refund)
	assert.Nil(t, got.RefundOf)

	got.Refund = &model.RefundLink{TransactionID: 77, Amount: decimal.NewFromInt(400), IsPartial: true}
	require.NoError(t, store.UpdateTransaction(ctx, got))
	reread, err := store.GetTransaction(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, reread.Refund)
	assert.Equal(t, int64(77), reread.Refund.TransactionID)
	assert.True(t, reread.Refund.IsPartial)

	transfer := testTxn(a.ID, model.KindTransfer, "50", date)
	transfer.ToAccountID = &b.ID
	_, err = store.InsertTransaction(ctx, transfer)
	require.NoError(t, err)

	bad := testTxn(a.ID, model.KindTransfer, "50", date)
	_, err = store.InsertTransaction(ctx, bad)
	require.ErrorIs(t, err, ErrInvalidTransaction)
	require.ErrorIs(t, err, model.ErrMissingDestination)

	require.NoError(t, store.DeleteTransaction(ctx, id))
	_, err = store.GetTransaction(ctx, id)
	require.ErrorIs(t, err, common.ErrNotFound)
	require.ErrorIs(t, store.DeleteTransaction(ctx, id), common.ErrNotFound)
}

func TestListTransactions_Filters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	a := mustAccount(t, store, "Bank", "0")
	b := mustAccount(t, store, "Wallet", "0")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	amounts := []string{"10", "20.50", "30", "40", "50"}
	for i, amt := range amounts {
		kind := model.KindExpense
		if i%2 == 1 {
			kind = model.KindIncome
		}
		_, err := store.InsertTransaction(ctx, testTxn(a.ID, kind, amt, base.AddDate(0, 0, i)))
		require.NoError(t, err)
	}
	transfer := testTxn(b.ID, model.KindTransfer, "5", base)
	transfer.ToAccountID = &a.ID
	_, err := store.InsertTransaction(ctx, transfer)
	require.NoError(t, err)

	income := model.KindIncome
	minAmt := decimal.RequireFromString("20.50")
	maxAmt := decimal.RequireFromString("40")
	start := base.AddDate(0, 0, 1)
	end := base.AddDate(0, 0, 3)

	tests := []struct {
		name   string
		filter service.TransactionFilter
		want   int
	}{
		{name: "all", filter: service.TransactionFilter{}, want: 6},
		{name: "account includes transfer destination", filter: service.TransactionFilter{AccountID: &a.ID}, want: 6},
		{name: "source account only", filter: service.TransactionFilter{AccountID: &b.ID}, want: 1},
		{name: "kind", filter: service.TransactionFilter{Kind: &income}, want: 2},
		{name: "amount range", filter: service.TransactionFilter{MinAmount: &minAmt, MaxAmount: &maxAmt}, want: 3},
		{name: "date range", filter: service.TransactionFilter{StartDate: &start, EndDate: &end}, want: 3},
		{name: "limit", filter: service.TransactionFilter{Limit: 2}, want: 2},
		{name: "amount range with offset", filter: service.TransactionFilter{MinAmount: &minAmt, Offset: 3}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.ListTransactions(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, txns, tt.want)
		})
	}

	txns, err := store.ListTransactions(ctx, service.TransactionFilter{Kind: &income})
	require.NoError(t, err)
	assert.True(t, txns[0].Date.After(txns[1].Date), "newest first")

	_, err = store.ListTransactions(ctx, service.TransactionFilter{StartDate: &end, EndDate: &start})
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestAggregates(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	a := mustAccount(t, store, "Bank", "0")
	food, err := store.GetOrCreateCategory(ctx, "Food", model.CategoryTypeExpense)
	require.NoError(t, err)
	rent, err := store.GetOrCreateCategory(ctx, "Rent", model.CategoryTypeExpense)
	require.NoError(t, err)

	rows := []struct {
		date   time.Time
		cat    int64
		amount string
		kind   model.TransactionKind
	}{
		{time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), food.ID, "0.10", model.KindExpense},
		{time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC), food.ID, "0.20", model.KindExpense},
		{time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC), rent.ID, "15000", model.KindExpense},
		{time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), food.ID, "99.70", model.KindExpense},
		{time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC), 0, "50000", model.KindIncome},
	}
	for _, r := range rows {
		txn := testTxn(a.ID, r.kind, r.amount, r.date)
		if r.cat != 0 {
			cat := r.cat
			txn.CategoryID = &cat
		}
		_, err := store.InsertTransaction(ctx, txn)
		require.NoError(t, err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)

	sum, err := store.SumByKind(ctx, model.KindExpense, start, end)
	require.NoError(t, err)
	assert.Equal(t, "15100", sum.String(), "decimal sums are exact")

	income, err := store.SumByKind(ctx, model.KindIncome, start, end)
	require.NoError(t, err)
	assert.Equal(t, "50000", income.String())

	daily, err := store.DailyTotals(ctx, model.KindExpense, start, end)
	require.NoError(t, err)
	require.Len(t, daily, 3)
	assert.Equal(t, "0.3", daily[0].Total.String())
	assert.Equal(t, 2, daily[0].Count)

	monthly, err := store.MonthlyTotals(ctx, model.KindExpense, start, end)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "15000.3", monthly[0].Total.String())
	assert.Equal(t, time.February, monthly[1].Period.Month())

	byCat, err := store.SumByCategory(ctx, model.KindExpense, start, end)
	require.NoError(t, err)
	require.Len(t, byCat, 2)
	assert.Equal(t, "Rent", byCat[0].Name)
	assert.Equal(t, "100", byCat[1].Total.String())

	_, err = store.SumByKind(ctx, model.KindExpense, end, start)
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestSeedDefaults(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SeedDefaults(ctx))
	require.NoError(t, store.SeedDefaults(ctx), "seeding twice is a no-op")

	cats, err := store.ListCategories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, cats, len(DefaultExpenseCategories)+len(DefaultIncomeCategories))

	accounts, err := store.ListAccounts(ctx, false)
	require.NoError(t, err)
	require.Len(t, accounts, 4)
	for _, a := range accounts {
		assert.Equal(t, "INR", a.Currency)
		assert.True(t, a.Balance.IsZero())
	}

	refund, err := store.GetCategoryByName(ctx, model.RefundCategory, model.CategoryTypeIncome)
	require.NoError(t, err)
	assert.True(t, refund.IsDefault)
}

func TestSubscribe(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	var events []model.ChangeEvent
	unsubscribe := store.Subscribe(func(ev model.ChangeEvent) {
		events = append(events, ev)
	})

	a := mustAccount(t, store, "Bank", "0")
	require.Len(t, events, 1)
	assert.Equal(t, model.ChangeEvent{Entity: model.EntityAccount, Op: model.OpCreated, ID: a.ID}, events[0])

	t.Run("events wait for commit", func(t *testing.T) {
		events = nil
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		_, err = tx.InsertTransaction(ctx, testTxn(a.ID, model.KindExpense, "10", time.Now()))
		require.NoError(t, err)
		assert.Empty(t, events)
		require.NoError(t, tx.Commit())
		require.Len(t, events, 1)
		assert.Equal(t, model.EntityTransaction, events[0].Entity)
	})

	t.Run("rollback discards events", func(t *testing.T) {
		events = nil
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		_, err = tx.InsertTransaction(ctx, testTxn(a.ID, model.KindExpense, "10", time.Now()))
		require.NoError(t, err)
		require.NoError(t, tx.Rollback())
		assert.Empty(t, events)
	})

	unsubscribe()
	events = nil
	mustAccount(t, store, "Other", "0")
	assert.Empty(t, events)
}

func TestBeginTx_Rollback(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	a := mustAccount(t, store, "Bank", "100")

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetAccountBalance(ctx, a.ID, decimal.NewFromInt(5)))
	require.NoError(t, tx.Rollback())

	got, err := store.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "100", got.Balance.String())
}

func TestGetPendingAutoDetected(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	a := mustAccount(t, store, "Bank", "0")
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	later := testTxn(a.ID, model.KindExpense, "10", base.AddDate(0, 0, 2))
	later.Status = model.StatusPending
	later.AutoDetected = true
	earlier := testTxn(a.ID, model.KindExpense, "20", base)
	earlier.Status = model.StatusPending
	earlier.AutoDetected = true
	manualPending := testTxn(a.ID, model.KindExpense, "30", base)
	manualPending.Status = model.StatusPending
	cleared := testTxn(a.ID, model.KindIncome, "40", base)
	cleared.AutoDetected = true

	for _, txn := range []*model.Transaction{later, earlier, manualPending, cleared} {
		_, err := store.InsertTransaction(ctx, txn)
		require.NoError(t, err)
	}

	pending, err := store.GetPendingAutoDetected(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, earlier.ID, pending[0].ID)
	assert.Equal(t, later.ID, pending[1].ID)
}
