package ledger

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectsOf(t *testing.T) {
	dest := int64(2)
	tests := []struct {
		name    string
		txn     model.Transaction
		want    []Effect
		wantErr error
	}{
		{
			name: "expense debits source",
			txn:  model.Transaction{Kind: model.KindExpense, Amount: decimal.NewFromInt(100), AccountID: 1},
			want: []Effect{{AccountID: 1, Delta: decimal.NewFromInt(-100)}},
		},
		{
			name: "income credits source",
			txn:  model.Transaction{Kind: model.KindIncome, Amount: decimal.RequireFromString("0.01"), AccountID: 1},
			want: []Effect{{AccountID: 1, Delta: decimal.RequireFromString("0.01")}},
		},
		{
			name: "transfer moves between accounts",
			txn:  model.Transaction{Kind: model.KindTransfer, Amount: decimal.NewFromInt(50), AccountID: 1, ToAccountID: &dest},
			want: []Effect{
				{AccountID: 1, Delta: decimal.NewFromInt(-50)},
				{AccountID: 2, Delta: decimal.NewFromInt(50)},
			},
		},
		{
			name:    "transfer without destination",
			txn:     model.Transaction{Kind: model.KindTransfer, Amount: decimal.NewFromInt(50), AccountID: 1},
			wantErr: ErrMissingDestination,
		},
		{
			name:    "zero amount",
			txn:     model.Transaction{Kind: model.KindExpense, AccountID: 1},
			wantErr: model.ErrNonPositiveAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectsOf(&tt.txn)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.Equal(t, tt.want[i].AccountID, got[i].AccountID)
				assert.True(t, tt.want[i].Delta.Equal(got[i].Delta), "delta %s, want %s", got[i].Delta, tt.want[i].Delta)
			}
		})
	}
}

func TestReverse_CancelsEffects(t *testing.T) {
	dest := int64(9)
	txn := &model.Transaction{Kind: model.KindTransfer, Amount: decimal.RequireFromString("1234.56"), AccountID: 3, ToAccountID: &dest}

	effects, err := EffectsOf(txn)
	require.NoError(t, err)

	net := map[int64]decimal.Decimal{}
	for _, e := range append(effects, Reverse(effects)...) {
		net[e.AccountID] = net[e.AccountID].Add(e.Delta)
	}
	for id, sum := range net {
		assert.True(t, sum.IsZero(), "account %d nets to %s", id, sum)
	}
}

func TestAccountLocks_SerializesOverlap(t *testing.T) {
	locks := newAccountLocks()

	var (
		inside  int32
		overlap int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		i := i // per-iteration copy (pre-Go 1.22 loop semantics)
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := []int64{1, 2}
			if i%2 == 0 {
				ids = []int64{2, 1, 2}
			}
			unlock := locks.lock(ids...)
			if atomic.AddInt32(&inside, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Zero(t, atomic.LoadInt32(&overlap))
}
