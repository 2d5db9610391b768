package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Validate(t *testing.T) {
	dest := int64(2)
	self := int64(1)

	tests := []struct {
		wantErr error
		txn     Transaction
		name    string
	}{
		{name: "expense", txn: Transaction{Kind: KindExpense, Amount: decimal.NewFromInt(1), AccountID: 1}},
		{name: "transfer", txn: Transaction{Kind: KindTransfer, Amount: decimal.NewFromInt(1), AccountID: 1, ToAccountID: &dest}},
		{name: "zero amount", txn: Transaction{Kind: KindExpense, AccountID: 1}, wantErr: ErrNonPositiveAmount},
		{name: "negative amount", txn: Transaction{Kind: KindIncome, Amount: decimal.NewFromInt(-5), AccountID: 1}, wantErr: ErrNonPositiveAmount},
		{name: "no account", txn: Transaction{Kind: KindIncome, Amount: decimal.NewFromInt(5)}, wantErr: ErrMissingAccount},
		{name: "transfer without destination", txn: Transaction{Kind: KindTransfer, Amount: decimal.NewFromInt(5), AccountID: 1}, wantErr: ErrMissingDestination},
		{name: "self transfer", txn: Transaction{Kind: KindTransfer, Amount: decimal.NewFromInt(5), AccountID: 1, ToAccountID: &self}, wantErr: ErrSelfTransfer},
		{name: "unknown kind", txn: Transaction{Kind: "gift", Amount: decimal.NewFromInt(5), AccountID: 1}, wantErr: ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.txn.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransaction_Clone(t *testing.T) {
	cat := int64(3)
	orig := &Transaction{
		CategoryID: &cat,
		Labels:     []string{"a"},
		Refund:     &RefundLink{TransactionID: 9},
	}

	c := orig.Clone()
	*c.CategoryID = 4
	c.Labels[0] = "b"
	c.Refund.TransactionID = 10

	assert.Equal(t, int64(3), *orig.CategoryID)
	assert.Equal(t, "a", orig.Labels[0])
	assert.Equal(t, int64(9), orig.Refund.TransactionID)
}

func TestTransaction_Accounts(t *testing.T) {
	dest := int64(8)
	assert.Equal(t, []int64{1}, (&Transaction{Kind: KindExpense, AccountID: 1}).Accounts())
	assert.Equal(t, []int64{1, 8}, (&Transaction{Kind: KindTransfer, AccountID: 1, ToAccountID: &dest}).Accounts())
}

func TestParseEnums(t *testing.T) {
	k, ok := ParseKind(" Income ")
	require.True(t, ok)
	assert.Equal(t, KindIncome, k)

	m, ok := ParsePaymentMethod("bank-transfer")
	require.True(t, ok)
	assert.Equal(t, PaymentBankTransfer, m)

	a, ok := ParseAccountType("CREDIT_CARD")
	require.True(t, ok)
	assert.Equal(t, AccountCreditCard, a)

	_, ok = ParseStatus("void")
	assert.False(t, ok)
}

func TestCandidateKind(t *testing.T) {
	assert.Equal(t, KindIncome, (&ParsedCandidate{Direction: DirectionCredit}).Kind())
	assert.Equal(t, KindExpense, (&ParsedCandidate{Direction: DirectionDebit}).Kind())
	assert.Equal(t, KindExpense, (&ParsedCandidate{Direction: DirectionUnknown}).Kind())
}

func TestColumnMapping(t *testing.T) {
	m := NewColumnMapping()
	assert.ErrorIs(t, m.Validate(), ErrAmountUnmapped)

	m.Set(FieldAmount, "Amount")
	m.Set(FieldDate, "Txn Date")
	require.NoError(t, m.Validate())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "[amount=Amount date=Txn Date]", m.String())

	row := map[string]string{"Amount": "10", "Txn Date": ""}
	v, ok := m.Value(row, FieldAmount)
	assert.True(t, ok)
	assert.Equal(t, "10", v)

	_, ok = m.Value(row, FieldType)
	assert.False(t, ok, "unmapped field")

	m.Set(FieldType, "Missing")
	_, ok = m.Value(row, FieldType)
	assert.False(t, ok, "mapped to a column the row lacks")

	m.Clear(FieldAmount)
	_, ok = m.Column(FieldAmount)
	assert.False(t, ok)

	var zero ColumnMapping
	zero.Set(FieldAccount, "Card")
	assert.Equal(t, 1, zero.Len())

	f, ok := ParseField("Description")
	require.True(t, ok)
	assert.Equal(t, FieldDescription, f)
}
