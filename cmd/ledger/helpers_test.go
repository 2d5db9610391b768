package main

import (
	"testing"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCaptureLine(t *testing.T) {
	tests := []struct {
		line       string
		wantSender string
		wantText   string
	}{
		{"VM-HDFCBK\tRs.500 debited", "VM-HDFCBK", "Rs.500 debited"},
		{"Rs.500 debited", "", "Rs.500 debited"},
		{" AX-SBIINB \t  spent Rs 20  ", "AX-SBIINB", "spent Rs 20"},
		{"", "", ""},
	}
	for _, tt := range tests {
		sender, text := splitCaptureLine(tt.line)
		assert.Equal(t, tt.wantSender, sender, tt.line)
		assert.Equal(t, tt.wantText, text, tt.line)
	}
}

func TestParseMapOverrides(t *testing.T) {
	mapping := model.NewColumnMapping()
	mapping.Set(model.FieldDescription, "Narration")

	require.NoError(t, parseMapOverrides(&mapping, []string{"amount=Withdrawal Amt.", "Description="}))

	h, ok := mapping.Column(model.FieldAmount)
	assert.True(t, ok)
	assert.Equal(t, "Withdrawal Amt.", h)
	_, ok = mapping.Column(model.FieldDescription)
	assert.False(t, ok)

	assert.Error(t, parseMapOverrides(&mapping, []string{"amount"}))
	assert.Error(t, parseMapOverrides(&mapping, []string{"balance=Closing"}))
}

func TestDateRange(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)

	start, end, err := dateRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local), end)

	start, end, err = dateRange("2026-02-01", "2026-02-28", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), end)

	_, _, err = dateRange("2026-02-10", "2026-02-01", now)
	assert.Error(t, err)
	_, _, err = dateRange("yesterday", "", now)
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("#42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseAmount(t *testing.T) {
	d, err := parseAmount("1,500.50")
	require.NoError(t, err)
	assert.Equal(t, "1500.5", d.String())

	for _, bad := range []string{"", "0", "-5", "ten"} {
		_, err := parseAmount(bad)
		assert.Error(t, err, bad)
	}
}
