package importer

import (
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// headerTerms are the candidate header names for each field.
var headerTerms = map[model.Field][]string{
	model.FieldAmount:      {"amount", "debit", "credit", "value", "sum", "withdrawal", "deposit"},
	model.FieldDate:        {"date", "time", "transaction date", "value date", "txn date"},
	model.FieldType:        {"type", "transaction type", "dr/cr", "debit/credit"},
	model.FieldCategory:    {"category", "narration", "description", "particulars"},
	model.FieldDescription: {"description", "narration", "details", "remarks", "note"},
	model.FieldAccount:     {"account", "bank", "card"},
}

// AutoDetectMapping maps each field to the first header, in header order,
// that equals or contains one of its terms ignoring case. Fields with no
// match stay unmapped.
func AutoDetectMapping(headers []string) model.ColumnMapping {
	m := model.NewColumnMapping()
	for _, field := range model.Fields {
		if h, ok := findHeader(headers, headerTerms[field]); ok {
			m.Set(field, h)
		}
	}
	return m
}

func findHeader(headers, terms []string) (string, bool) {
	for _, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, term := range terms {
			if lower == term || strings.Contains(lower, term) {
				return h, true
			}
		}
	}
	return "", false
}
