package cli

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoneyFormatter_Compact(t *testing.T) {
	f := NewMoneyFormatter("INR")

	tests := []struct {
		in   string
		want string
	}{
		{"1500000", "₹15.0L"},
		{"2500", "₹2.5K"},
		{"350", "₹350"},
		{"100000", "₹1.0L"},
		{"999.6", "₹1000"},
		{"-2500", "-₹2.5K"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Compact(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestMoneyFormatter_Format(t *testing.T) {
	f := NewMoneyFormatter("inr")
	assert.Equal(t, "INR", f.Code())
	assert.Equal(t, "₹1,500.50", f.Format(decimal.RequireFromString("1500.5")))
	assert.Equal(t, "₹0.01", f.Format(decimal.RequireFromString("0.005")))

	usd := NewMoneyFormatter("USD")
	assert.Equal(t, "$12.00", usd.Format(decimal.NewFromInt(12)))
}

func TestMoneyFormatter_UnknownCurrency(t *testing.T) {
	f := NewMoneyFormatter("ZZZ")
	assert.Equal(t, "INR", f.Code())
}
