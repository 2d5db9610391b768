package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/extract"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/google/uuid"
)

// ErrUnknownColumn is returned when a mapping names a header the table lacks.
var ErrUnknownColumn = errors.New("mapped column not in file")

// Store is what an import reads.
type Store interface {
	CategoryStore
	ListAccounts(ctx context.Context, includeInactive bool) ([]model.Account, error)
}

// Inserter applies one transaction atomically.
type Inserter interface {
	Insert(ctx context.Context, txn *model.Transaction) (int64, error)
}

// Options control one import run.
type Options struct {
	// Progress is called after each row with the rows handled so far.
	Progress func(done, total int)
	// AccountID is the fallback account; zero picks the first active account.
	AccountID int64
	DryRun    bool
}

// Report summarizes an import run.
type Report struct {
	BatchID           string
	Imported          []model.Transaction
	Failures          []RowError
	Total             int
	Skipped           int
	FallbackAccountID int64
	Cancelled         bool
	DryRun            bool
}

// Importer normalizes table rows and inserts them through the ledger.
type Importer struct {
	store  Store
	ledger Inserter
	now    func() time.Time
}

// New creates an importer.
func New(store Store, ledger Inserter) *Importer {
	return &Importer{store: store, ledger: ledger, now: time.Now}
}

// Run imports every row of table. Each row is inserted on its own, so a
// cancelled run keeps the rows already imported and stops before the next.
// Rows that cannot be normalized or fail transaction validation are counted
// in the report. Store failures abort the run.
func (im *Importer) Run(ctx context.Context, table *Table, mapping model.ColumnMapping, opts Options) (*Report, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	for _, field := range model.Fields {
		if h, ok := mapping.Column(field); ok && !slices.Contains(table.Headers, h) {
			return nil, fmt.Errorf("%w: %s=%q", ErrUnknownColumn, field, h)
		}
	}

	accounts, err := im.store.ListAccounts(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	fallback, err := fallbackAccount(accounts, opts.AccountID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		BatchID:           uuid.NewString(),
		Total:             len(table.Rows),
		DryRun:            opts.DryRun,
		FallbackAccountID: fallback,
	}

	norm := NewNormalizer(im.store, accounts)
	norm.now = im.now
	norm.lookupOnly = opts.DryRun

	slog.Info("Starting import", "batch", report.BatchID, "rows", report.Total, "mapping", mapping.String(), "dry_run", opts.DryRun)

	for i, row := range table.Rows {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		txn, err := norm.NormalizeRow(ctx, row, mapping, fallback)
		if err == nil {
			txn.ImportBatch = report.BatchID
			if !opts.DryRun {
				_, err = im.ledger.Insert(ctx, txn)
			} else {
				err = txn.Validate()
			}
		}

		switch {
		case err == nil:
			report.Imported = append(report.Imported, *txn)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			report.Cancelled = true
		case isRowLevel(err):
			report.Skipped++
			report.Failures = append(report.Failures, rowError(i+1, err))
			common.LogDebug("Skipped import row", common.Fields{"row": i + 1, "error": err.Error()})
		default:
			return report, fmt.Errorf("import aborted at row %d: %w", i+1, err)
		}

		if report.Cancelled {
			break
		}
		if opts.Progress != nil {
			opts.Progress(i+1, report.Total)
		}
	}

	common.LogInfo("Finished import", common.Fields{
		"batch":     report.BatchID,
		"imported":  len(report.Imported),
		"skipped":   report.Skipped,
		"cancelled": report.Cancelled,
	})
	return report, nil
}

func fallbackAccount(accounts []model.Account, requested int64) (int64, error) {
	if requested != 0 {
		for _, a := range accounts {
			if a.ID == requested {
				return a.ID, nil
			}
		}
		return 0, common.NewReferenceError("account", requested)
	}
	if len(accounts) == 0 {
		return 0, common.ErrNoAccounts
	}
	return accounts[0].ID, nil
}

func isRowLevel(err error) bool {
	for _, target := range []error{
		common.ErrFieldUnparseable,
		model.ErrNonPositiveAmount,
		model.ErrMissingAccount,
		model.ErrMissingDestination,
		model.ErrSelfTransfer,
		model.ErrUnknownKind,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func rowError(n int, err error) RowError {
	var re *RowError
	if errors.As(err, &re) {
		out := *re
		out.Row = n
		return out
	}
	return RowError{Row: n, Err: err}
}

// DecoderConfig configures NewDecoder.
type DecoderConfig struct {
	Text      TextExtractor
	Extractor *extract.Extractor
	Delimiter rune
	Workers   int
}

// NewDecoder returns the decoder for format.
func NewDecoder(format Format, cfg DecoderConfig) (Decoder, error) {
	switch format {
	case FormatCSV:
		return CSVDecoder{Delimiter: cfg.Delimiter}, nil
	case FormatXLSX:
		return XLSXDecoder{}, nil
	case FormatOFX:
		return OFXDecoder{}, nil
	case FormatPDF:
		text := cfg.Text
		if text == nil {
			text = PDFToText{}
		}
		return PDFDecoder{Text: text, Extractor: cfg.Extractor, Workers: cfg.Workers}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
