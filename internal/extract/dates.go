package extract

import (
	"strings"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/pattern"
)

// messageLayouts are tried in order. Alerts write day before month.
var messageLayouts = []string{
	"2-1-2006",
	"2/1/2006",
	"2-1-06",
	"2/1/06",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 Jan 06",
	"2-January-2006",
	"2 January 2006",
}

func (e *Extractor) date(text string) time.Time {
	var found time.Time
	e.lib.Each(pattern.ConcernDate, text, func(m pattern.Match) bool {
		if t, ok := parseMessageDate(m.Value, e.loc); ok {
			found = t
			return false
		}
		return true
	})
	if found.IsZero() {
		return e.now()
	}
	return found
}

func parseMessageDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range messageLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
