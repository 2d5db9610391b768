// Package pattern provides the ordered regex rule tables used to read
// free-text transaction messages.
package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Concern identifies what a rule table extracts or detects.
type Concern string

// Rule table concerns.
const (
	ConcernGate         Concern = "gate"
	ConcernAmount       Concern = "amount"
	ConcernDebit        Concern = "debit"
	ConcernCredit       Concern = "credit"
	ConcernAccount      Concern = "account"
	ConcernMerchant     Concern = "merchant"
	ConcernBalance      Concern = "balance"
	ConcernProvider     Concern = "provider"
	ConcernChannel      Concern = "channel"
	ConcernDate         Concern = "date"
	ConcernReceiptTotal Concern = "receipt_total"
)

// Concerns lists every known concern.
var Concerns = []Concern{
	ConcernGate, ConcernAmount, ConcernDebit, ConcernCredit, ConcernAccount,
	ConcernMerchant, ConcernBalance, ConcernProvider, ConcernChannel,
	ConcernDate, ConcernReceiptTotal,
}

// Pattern is one rule in a concern's table.
type Pattern struct {
	Name     string  `yaml:"name"`
	Concern  Concern `yaml:"concern"`
	Regex    string  `yaml:"regex"`
	Label    string  `yaml:"label,omitempty"` // Reported value on match for provider and channel rules
	Priority int     `yaml:"priority"`        // Higher priority rules are tried first
}

// Match is the result of the first rule that fired.
type Match struct {
	Rule  string
	Value string
}

type compiledPattern struct {
	re *regexp.Regexp
	Pattern
}

// Library holds the compiled rule tables. Within a concern rules are tried
// by priority, highest first, then in declaration order.
type Library struct {
	tables map[Concern][]compiledPattern
	mu     sync.RWMutex
}

// NewLibrary compiles patterns into a library.
func NewLibrary(patterns []Pattern) (*Library, error) {
	l := &Library{tables: make(map[Concern][]compiledPattern)}
	if err := l.Extend(patterns); err != nil {
		return nil, err
	}
	return l, nil
}

// Default returns a library built from DefaultPatterns.
func Default() *Library {
	l, err := NewLibrary(DefaultPatterns())
	if err != nil {
		panic(fmt.Sprintf("default patterns do not compile: %v", err))
	}
	return l
}

// Extend validates and appends patterns. Appended rules sort after existing
// rules of equal priority.
func (l *Library) Extend(patterns []Pattern) error {
	if err := Validate(patterns); err != nil {
		return err
	}

	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, compiledPattern{Pattern: p, re: mustCompile(p)})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make(map[Concern][]compiledPattern, len(l.tables))
	for c, rules := range l.tables {
		next[c] = append([]compiledPattern(nil), rules...)
	}
	for _, cp := range compiled {
		next[cp.Concern] = append(next[cp.Concern], cp)
	}
	for c := range next {
		rules := next[c]
		sort.SliceStable(rules, func(i, j int) bool {
			return rules[i].Priority > rules[j].Priority
		})
	}
	l.tables = next
	return nil
}

// Rules returns the concern's rules in the order they are tried.
func (l *Library) Rules(concern Concern) []Pattern {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rules := l.tables[concern]
	out := make([]Pattern, len(rules))
	for i, r := range rules {
		out[i] = r.Pattern
	}
	return out
}

// Matches reports whether any rule of the concern matches text.
func (l *Library) Matches(concern Concern, text string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, r := range l.tables[concern] {
		if r.re.MatchString(text) {
			return true
		}
	}
	return false
}

// FirstMatch returns the value produced by the first matching rule.
func (l *Library) FirstMatch(concern Concern, text string) (Match, bool) {
	var found Match
	ok := false
	l.Each(concern, text, func(m Match) bool {
		found, ok = m, true
		return false
	})
	return found, ok
}

// Each calls fn for every matching rule in order until fn returns false.
// Callers use it when a rule's value can still be rejected after matching.
func (l *Library) Each(concern Concern, text string, fn func(Match) bool) {
	l.mu.RLock()
	rules := l.tables[concern]
	l.mu.RUnlock()

	for _, r := range rules {
		groups := r.re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		value := r.Label
		if value == "" {
			value = firstGroup(groups)
		}
		if value == "" {
			continue
		}
		if !fn(Match{Rule: r.Name, Value: value}) {
			return
		}
	}
}

func firstGroup(groups []string) string {
	for _, g := range groups[1:] {
		if g != "" {
			return g
		}
	}
	return groups[0]
}

func compileExpr(regex string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(regex, "(?i)") {
		regex = "(?i)" + regex
	}
	return regexp.Compile(regex)
}

func mustCompile(p Pattern) *regexp.Regexp {
	re, err := compileExpr(p.Regex)
	if err != nil {
		panic(fmt.Sprintf("pattern %s passed validation but failed to compile: %v", p.Name, err))
	}
	return re
}
