package cli

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	lakh     = decimal.NewFromInt(100_000)
	thousand = decimal.NewFromInt(1_000)
)

// MoneyFormatter renders decimal amounts in a configured currency.
type MoneyFormatter struct {
	currency *money.Currency
}

// NewMoneyFormatter returns a formatter for the ISO currency code. Unknown
// codes fall back to INR.
func NewMoneyFormatter(code string) *MoneyFormatter {
	c := money.GetCurrency(strings.ToUpper(code))
	if c == nil {
		c = money.GetCurrency("INR")
	}
	return &MoneyFormatter{currency: c}
}

// Code is the ISO code in use.
func (f *MoneyFormatter) Code() string {
	return f.currency.Code
}

// Format renders d with the currency symbol and thousands grouping, e.g. ₹1,500.00.
func (f *MoneyFormatter) Format(d decimal.Decimal) string {
	minor := d.Shift(int32(f.currency.Fraction)).Round(0).IntPart()
	return money.New(minor, f.currency.Code).Display()
}

// Compact renders d in the short lakh/thousand form: ₹15.0L, ₹2.5K, ₹350.
func (f *MoneyFormatter) Compact(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	symbol := f.currency.Grapheme

	switch {
	case d.GreaterThanOrEqual(lakh):
		return sign + symbol + d.Div(lakh).StringFixed(1) + "L"
	case d.GreaterThanOrEqual(thousand):
		return sign + symbol + d.Div(thousand).StringFixed(1) + "K"
	default:
		return sign + symbol + d.StringFixed(0)
	}
}

// Signed renders d with Format and colors it by sign.
func (f *MoneyFormatter) Signed(d decimal.Decimal) string {
	return StyleSigned(f.Format(d), d.IsNegative())
}
