package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTxns() ([]model.Transaction, Names) {
	food := int64(7)
	wallet := int64(2)
	date := time.Date(2026, 2, 18, 13, 5, 0, 0, time.UTC)
	txns := []model.Transaction{
		{
			Kind: model.KindExpense, Amount: decimal.RequireFromString("2500"), AccountID: 1, CategoryID: &food,
			Date: date, Payee: "SWIGGY", Notes: "dinner, with friends", Status: model.StatusPending, PaymentMethod: model.PaymentUPI,
		},
		{
			Kind: model.KindTransfer, Amount: decimal.RequireFromString("100.5"), AccountID: 1, ToAccountID: &wallet,
			Date: date, Status: model.StatusCleared, PaymentMethod: model.PaymentOther,
		},
	}
	names := Names{
		Accounts:   map[int64]string{1: "SBI Bank", 2: "Paytm Wallet"},
		Categories: map[int64]string{7: "Food & Dining"},
	}
	return txns, names
}

func TestWriteCSV(t *testing.T) {
	txns, names := sampleTxns()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txns, names))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, headers, records[0])
	assert.Equal(t, []string{"18-02-2026 13:05", "EXPENSE", "2500.00", "Food & Dining", "SBI Bank", "SWIGGY", "dinner, with friends", "PENDING", "UPI"}, records[1])
	assert.Equal(t, "SBI Bank -> Paytm Wallet", records[2][4])
	assert.Equal(t, "100.50", records[2][2])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, Names{}))
	assert.Equal(t, "Date,Type,Amount,Category,Account,Payee,Notes,Status,Payment Type\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	txns, names := sampleTxns()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, txns, names))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "SWIGGY", rows[1][5])
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "pdf", nil, Names{}))
}

func TestRows_UnknownAccount(t *testing.T) {
	rows := Rows([]model.Transaction{{Kind: model.KindIncome, Amount: decimal.NewFromInt(1), AccountID: 42}}, Names{})
	require.Len(t, rows, 1)
	assert.Equal(t, "#42", rows[0].Account)
	assert.Empty(t, rows[0].Category)
}
