// Package extract turns free-text bank and payment-app messages into
// transaction candidates.
package extract

import (
	"strings"
	"time"
	"unicode"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/pattern"
	"github.com/shopspring/decimal"
)

// maxMerchantWords caps the length of an extracted merchant name.
const maxMerchantWords = 5

// linkingWords end a merchant phrase.
var linkingWords = map[string]bool{
	"on": true, "from": true, "to": true, "at": true,
	"for": true, "via": true, "using": true,
}

// accountWords mark a merchant capture that actually named the user's account.
var accountWords = map[string]bool{
	"a/c": true, "ac": true, "acct": true, "account": true, "your": true, "you": true,
}

// Extractor reads messages against a pattern library.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	lib      *pattern.Library
	now      func() time.Time
	loc      *time.Location
	tieBreak model.Direction
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the time source used when a message carries no date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithTieBreak sets the direction chosen when both debit and credit
// keywords appear. Unknown leaves such messages undecided.
func WithTieBreak(d model.Direction) Option {
	return func(e *Extractor) {
		e.tieBreak = d
	}
}

// WithLocation sets the zone message dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		e.loc = loc
	}
}

// New creates an extractor. A nil library uses the built-in patterns.
func New(lib *pattern.Library, opts ...Option) *Extractor {
	if lib == nil {
		lib = pattern.Default()
	}
	e := &Extractor{
		lib:      lib,
		now:      time.Now,
		loc:      time.Local,
		tieBreak: model.DirectionDebit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads text sent by sender. It reports false when the text is not
// a transaction message or carries no usable amount.
func (e *Extractor) Extract(text, sender string) (*model.ParsedCandidate, bool) {
	if !e.lib.Matches(pattern.ConcernGate, text) || !e.lib.Matches(pattern.ConcernAmount, text) {
		return nil, false
	}

	amount, ok := e.amount(pattern.ConcernAmount, text)
	if !ok {
		return nil, false
	}

	c := &model.ParsedCandidate{
		Direction: e.direction(text),
		Amount:    amount,
		Sender:    sender,
		RawText:   text,
		Date:      e.date(text),
	}

	if m, ok := e.lib.FirstMatch(pattern.ConcernAccount, text); ok {
		c.AccountLast4 = m.Value
	}
	c.Merchant = e.merchant(text)
	if bal, ok := e.amount(pattern.ConcernBalance, text); ok {
		c.Balance = &bal
	}
	if m, ok := e.lib.FirstMatch(pattern.ConcernProvider, strings.TrimSpace(sender+" "+text)); ok {
		c.Provider = m.Value
	}
	if m, ok := e.lib.FirstMatch(pattern.ConcernChannel, text); ok {
		if ch, known := model.ParsePaymentMethod(m.Value); known {
			c.Channel = ch
		}
	}

	return c, true
}

func (e *Extractor) direction(text string) model.Direction {
	debit := e.lib.Matches(pattern.ConcernDebit, text)
	credit := e.lib.Matches(pattern.ConcernCredit, text)

	switch {
	case debit && !credit:
		return model.DirectionDebit
	case credit && !debit:
		return model.DirectionCredit
	case debit && credit:
		return e.tieBreak
	default:
		return model.DirectionUnknown
	}
}

// amount parses the first match of concern. A match that does not parse, or
// parses to zero, is not an amount.
func (e *Extractor) amount(concern pattern.Concern, text string) (decimal.Decimal, bool) {
	m, ok := e.lib.FirstMatch(concern, text)
	if !ok {
		return decimal.Zero, false
	}
	return ParseAmount(m.Value)
}

// ParseAmount parses a grouped number such as "1,00,000.50".
func ParseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimRight(strings.ReplaceAll(raw, ",", ""), ".")
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func (e *Extractor) merchant(text string) string {
	var merchant string
	e.lib.Each(pattern.ConcernMerchant, text, func(m pattern.Match) bool {
		merchant = CleanMerchant(m.Value)
		if !plausibleMerchant(merchant) {
			merchant = ""
			return true
		}
		return false
	})
	return merchant
}

// plausibleMerchant rejects captures that named the user's own account or
// started with a date or number.
func plausibleMerchant(s string) bool {
	if len(s) < 3 {
		return false
	}
	first := strings.ToLower(strings.Fields(s)[0])
	if accountWords[first] {
		return false
	}
	return strings.ContainsFunc(first, unicode.IsLetter)
}

// CleanMerchant trims a raw merchant capture down to a display name. The
// phrase ends at the first sentence break or linking word and is capped to
// five words.
func CleanMerchant(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, ". "); i >= 0 {
		s = s[:i]
	}

	words := strings.Fields(s)
	for i, w := range words {
		if linkingWords[strings.ToLower(w)] {
			words = words[:i]
			break
		}
	}
	for len(words) > 0 && linkingWords[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	if len(words) > maxMerchantWords {
		words = words[:maxMerchantWords]
	}

	return strings.Trim(strings.Join(words, " "), " .,;:-'")
}
