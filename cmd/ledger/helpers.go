package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/config"
	"github.com/Veraticus/the-ledger-must-balance/internal/extract"
	"github.com/Veraticus/the-ledger-must-balance/internal/ledger"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/pattern"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/Veraticus/the-ledger-must-balance/internal/storage"
	"github.com/shopspring/decimal"
)

// dateLayouts are accepted by date flags, most specific first.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006",
}

// app bundles the services a command needs.
type app struct {
	store       service.Storage
	engine      *ledger.Engine
	money       *cli.MoneyFormatter
	cfg         *config.Config
	unsubscribe func()
}

// openApp opens and migrates the configured database. The first open of an
// empty database seeds the default categories and accounts.
func openApp(ctx context.Context) (*app, error) {
	cfg := appConfig
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := store.SeedDefaults(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed defaults: %w", err)
	}

	unsubscribe := store.Subscribe(func(ev model.ChangeEvent) {
		common.LogDebug("Committed change", common.Fields{"entity": ev.Entity, "op": ev.Op, "id": ev.ID})
	})

	return &app{
		store:       store,
		engine:      ledger.New(store),
		money:       cli.NewMoneyFormatter(cfg.Currency),
		cfg:         cfg,
		unsubscribe: unsubscribe,
	}, nil
}

func (a *app) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// extractor builds an extractor from the default rules plus the configured overlay file.
func (a *app) extractor() (*extract.Extractor, error) {
	lib, err := loadLibrary(a.cfg)
	if err != nil {
		return nil, err
	}

	tie, err := a.cfg.TieBreak()
	if err != nil {
		return nil, err
	}
	return extract.New(lib, extract.WithTieBreak(tie), extract.WithLocation(time.Local)), nil
}

// loadLibrary returns the built-in rules extended by the configured overlay file.
func loadLibrary(cfg *config.Config) (*pattern.Library, error) {
	lib := pattern.Default()
	if cfg.Patterns.File == "" {
		return lib, nil
	}

	extra, err := pattern.LoadFile(cfg.Patterns.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load patterns: %w", err)
	}
	if err := lib.Extend(extra); err != nil {
		return nil, fmt.Errorf("failed to extend patterns: %w", err)
	}
	slog.Debug("Loaded pattern overlay", "file", cfg.Patterns.File, "patterns", len(extra))
	return lib, nil
}

// resolveAccount accepts an account id or a case-insensitive name.
func (a *app) resolveAccount(ctx context.Context, ref string) (*model.Account, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return a.store.GetAccount(ctx, id)
	}
	accounts, err := a.store.ListAccounts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	for i := range accounts {
		if strings.EqualFold(accounts[i].Name, ref) {
			return &accounts[i], nil
		}
	}
	return nil, common.NewUserError(fmt.Sprintf("no account named %q", ref), common.ErrNotFound)
}

// resolveCategory accepts a category id or name for the given kind, creating
// the category when a new name is given.
func (a *app) resolveCategory(ctx context.Context, ref string, kind model.TransactionKind) (*int64, error) {
	if ref == "" || kind == model.KindTransfer {
		return nil, nil
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		category, err := a.store.GetCategory(ctx, id)
		if err != nil {
			return nil, err
		}
		return &category.ID, nil
	}
	categoryType := model.CategoryTypeExpense
	if kind == model.KindIncome {
		categoryType = model.CategoryTypeIncome
	}
	category, err := a.store.GetOrCreateCategory(ctx, ref, categoryType)
	if err != nil {
		return nil, err
	}
	return &category.ID, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero: %s", s)
	}
	return d, nil
}

// parseDate reads a date flag in local time. Empty input yields the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
}

// dateRange turns --from/--to flags into a half-open range. The default is
// the current calendar month; a bare --to date includes that whole day.
func dateRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start, err := parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if start.IsZero() {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	if end.IsZero() {
		end = time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	} else if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 {
		end = end.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must be after --from")
	}
	return start, end, nil
}

// parseMapOverrides reads field=header pairs from --map flags.
func parseMapOverrides(mapping *model.ColumnMapping, pairs []string) error {
	for _, pair := range pairs {
		field, header, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid --map %q (want field=header)", pair)
		}
		f, ok := model.ParseField(field)
		if !ok {
			return fmt.Errorf("unknown field %q in --map", field)
		}
		header = strings.TrimSpace(header)
		if header == "" {
			mapping.Clear(f)
			continue
		}
		mapping.Set(f, header)
	}
	return nil
}

// signedAmount is the amount as it affects the source account.
func signedAmount(txn *model.Transaction) decimal.Decimal {
	if txn.Kind == model.KindIncome {
		return txn.Amount
	}
	return txn.Amount.Neg()
}
