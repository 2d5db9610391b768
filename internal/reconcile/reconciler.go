// Package reconcile turns extracted candidates into ledger transactions.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// Origin says where a candidate came from.
type Origin int

// Origins.
const (
	OriginLiveCapture Origin = iota
	OriginFileImport
)

func (o Origin) String() string {
	switch o {
	case OriginLiveCapture:
		return "live_capture"
	case OriginFileImport:
		return "file_import"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Store is the part of the store the reconciler reads.
type Store interface {
	ListAccounts(ctx context.Context, includeInactive bool) ([]model.Account, error)
	GetOrCreateCategory(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error)
}

// Reconciler resolves accounts and categories for candidates.
type Reconciler struct {
	store Store
	now   func() time.Time
}

// New creates a reconciler over store.
func New(store Store) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Reconcile builds an unsaved transaction from candidate. Live captures are
// pending until the user confirms them; imported rows are cleared.
func (r *Reconciler) Reconcile(ctx context.Context, candidate *model.ParsedCandidate, origin Origin) (*model.Transaction, error) {
	if candidate == nil {
		return nil, fmt.Errorf("nil candidate: %w", common.ErrFieldUnparseable)
	}

	accounts, err := r.store.ListAccounts(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	account, err := MatchAccount(accounts, candidate.AccountLast4, candidate.Provider)
	if err != nil {
		return nil, err
	}

	kind := candidate.Kind()
	name, categoryType := model.DefaultCategoryFor(kind)
	category, err := r.store.GetOrCreateCategory(ctx, name, categoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
	}

	status := model.StatusPending
	if origin == OriginFileImport {
		status = model.StatusCleared
	}

	method := candidate.Channel
	if method == "" {
		method = model.PaymentOther
	}

	date := candidate.Date
	if date.IsZero() {
		date = r.now()
	}

	provider := candidate.Provider
	if provider == "" {
		provider = "Unknown"
	}

	return &model.Transaction{
		Kind:          kind,
		Amount:        candidate.Amount,
		AccountID:     account.ID,
		CategoryID:    &category.ID,
		Date:          date,
		Payee:         candidate.Merchant,
		Notes:         "Auto-detected from SMS: " + provider,
		PaymentMethod: method,
		Status:        status,
		AutoDetected:  true,
		SourceText:    candidate.RawText,
	}, nil
}

// MatchAccount picks the first account whose name contains last4, or contains
// provider ignoring case. Without a match it falls back to the first account.
func MatchAccount(accounts []model.Account, last4, provider string) (*model.Account, error) {
	if len(accounts) == 0 {
		return nil, common.ErrNoAccounts
	}

	lowerProvider := strings.ToLower(provider)
	for i := range accounts {
		name := accounts[i].Name
		if last4 != "" && strings.Contains(name, last4) {
			return &accounts[i], nil
		}
		if provider != "" && strings.Contains(strings.ToLower(name), lowerProvider) {
			return &accounts[i], nil
		}
	}
	return &accounts[0], nil
}
