package importer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order; the first successful parse wins.
var dateLayouts = []string{
	"02-01-2006",
	"01/02/2006",
	"2006-01-02",
	"02/01/2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
	"01/02/2006 03:04 PM",
}

// CategoryStore resolves category names.
type CategoryStore interface {
	GetCategoryByName(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error)
	GetOrCreateCategory(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error)
}

// Normalizer turns table rows into transactions.
type Normalizer struct {
	categories CategoryStore
	now        func() time.Time
	loc        *time.Location
	accounts   []model.Account
	// lookupOnly resolves categories without creating them.
	lookupOnly bool
}

// NewNormalizer creates a normalizer. accounts are the candidates for an
// account column.
func NewNormalizer(categories CategoryStore, accounts []model.Account) *Normalizer {
	return &Normalizer{
		categories: categories,
		accounts:   accounts,
		now:        time.Now,
		loc:        time.Local,
	}
}

// NormalizeRow builds a transaction from row. An amount that cannot be
// parsed, or is not positive, is a *RowError wrapping
// common.ErrFieldUnparseable. A date that cannot be parsed falls back to now.
func (n *Normalizer) NormalizeRow(ctx context.Context, row Row, mapping model.ColumnMapping, fallbackAccountID int64) (*model.Transaction, error) {
	rawAmount, _ := row.Value(mapping, model.FieldAmount)
	amount, ok := ParseImportAmount(rawAmount)
	if !ok {
		return nil, &RowError{Field: model.FieldAmount, Err: fmt.Errorf("%w: %q", common.ErrFieldUnparseable, rawAmount)}
	}

	rawDate, _ := row.Value(mapping, model.FieldDate)
	date, ok := ParseImportDate(rawDate, n.loc)
	if !ok {
		date = n.now()
	}

	rawType, _ := row.Value(mapping, model.FieldType)
	kind := InferKind(rawType)

	description, _ := row.Value(mapping, model.FieldDescription)

	txn := &model.Transaction{
		Kind:          kind,
		Amount:        amount,
		AccountID:     n.account(row, mapping, fallbackAccountID),
		Date:          date,
		Notes:         description,
		PaymentMethod: model.PaymentOther,
		Status:        model.StatusCleared,
		AutoDetected:  true,
	}
	if raw, ok := row.Cell(pdfRaw); ok {
		txn.SourceText = raw
	}

	if kind != model.KindTransfer {
		name, categoryType := model.DefaultCategoryFor(kind)
		if mapped, ok := row.Value(mapping, model.FieldCategory); ok && mapped != "" {
			name = mapped
		}
		id, err := n.category(ctx, name, categoryType)
		if err != nil {
			return nil, err
		}
		txn.CategoryID = id
	}
	return txn, nil
}

func (n *Normalizer) category(ctx context.Context, name string, categoryType model.CategoryType) (*int64, error) {
	if !n.lookupOnly {
		cat, err := n.categories.GetOrCreateCategory(ctx, name, categoryType)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
		}
		return &cat.ID, nil
	}

	cat, err := n.categories.GetCategoryByName(ctx, name, categoryType)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
	}
	return &cat.ID, nil
}

// account resolves a mapped account cell against known account names,
// ignoring case. Anything else uses the fallback.
func (n *Normalizer) account(row Row, mapping model.ColumnMapping, fallback int64) int64 {
	cell, ok := row.Value(mapping, model.FieldAccount)
	cell = strings.ToLower(strings.TrimSpace(cell))
	if !ok || cell == "" {
		return fallback
	}
	for _, a := range n.accounts {
		name := strings.ToLower(a.Name)
		if strings.Contains(name, cell) || strings.Contains(cell, name) {
			return a.ID
		}
	}
	return fallback
}

// rupeeAbbrev is removed first so its dot is not read as a decimal point.
var rupeeAbbrev = regexp.MustCompile(`(?i)\brs\.`)

// ParseImportAmount keeps only digits and dots before parsing, so currency
// symbols, separators and signs are ignored.
func ParseImportAmount(raw string) (decimal.Decimal, bool) {
	raw = rupeeAbbrev.ReplaceAllString(raw, "")
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// ParseImportDate tries each known layout in order.
func ParseImportDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferKind reads a type cell. Credit or income text, or exactly "cr", is
// income. Transfer text is a transfer. Anything else is an expense.
func InferKind(raw string) model.TransactionKind {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "cr" || strings.Contains(s, "credit") || strings.Contains(s, "income"):
		return model.KindIncome
	case strings.Contains(s, "transfer"):
		return model.KindTransfer
	default:
		return model.KindExpense
	}
}
