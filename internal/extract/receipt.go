package extract

import (
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/pattern"
)

// receiptHeaderLines is how many leading lines may hold the store name.
const receiptHeaderLines = 3

// ExtractReceipt reads OCR text from a printed receipt. Alert-style text is
// handled by Extract; otherwise the total line supplies the amount and the
// longest header line is taken as the merchant.
func (e *Extractor) ExtractReceipt(text string) (*model.ParsedCandidate, bool) {
	if c, ok := e.Extract(text, ""); ok {
		return c, true
	}

	amount, ok := e.amount(pattern.ConcernReceiptTotal, text)
	if !ok {
		return nil, false
	}

	c := &model.ParsedCandidate{
		Direction: model.DirectionDebit,
		Amount:    amount,
		Merchant:  receiptMerchant(text),
		RawText:   text,
		Date:      e.date(text),
	}
	if m, ok := e.lib.FirstMatch(pattern.ConcernChannel, text); ok {
		if ch, known := model.ParsePaymentMethod(m.Value); known {
			c.Channel = ch
		}
	}
	return c, true
}

func receiptMerchant(text string) string {
	var best string
	n := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > len(best) {
			best = line
		}
		n++
		if n == receiptHeaderLines {
			break
		}
	}
	return CleanMerchant(best)
}
