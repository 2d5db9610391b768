package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/importer"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/spf13/cobra"
)

// maxListedFailures caps how many row failures the import summary prints.
const maxListedFailures = 10

func importCmd() *cobra.Command {
	var (
		format   string
		mappings []string
		account  string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV, Excel, OFX, or PDF statement",
		Long: `Import transactions from a bank statement. Columns are matched to fields by
header name; use --map to override, e.g. --map amount="Withdrawal Amt.".

Each row is recorded on its own. Press Ctrl-C to stop between rows; rows already
imported are kept.`,
		Example: `  ledger import statement.csv
  ledger import export.xlsx --map date="Txn Date" --map description=Narration
  ledger import ~/Downloads/hdfc.pdf --account "HDFC Bank" --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()

			f, err := importer.DetectFormat(path)
			if format != "" {
				parsed, ok := importer.ParseFormat(format)
				if !ok {
					return fmt.Errorf("%w: %q", importer.ErrUnsupportedFormat, format)
				}
				f, err = parsed, nil
			}
			if err != nil {
				return err
			}

			handler := cli.NewInterruptHandler(out, "Import").
				WithHint("Rows already imported are kept.")
			ctx := handler.HandleInterrupts(cmd.Context())

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			extractor, err := a.extractor()
			if err != nil {
				return err
			}
			decoder, err := importer.NewDecoder(f, importer.DecoderConfig{
				Text:      importer.PDFToText{Path: a.cfg.Import.PDFToText},
				Extractor: extractor,
				Delimiter: a.cfg.Delimiter(),
				Workers:   a.cfg.Import.Workers,
			})
			if err != nil {
				return err
			}

			file, err := os.Open(path) //nolint:gosec // file path comes from the command line
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer func() { _ = file.Close() }()

			table, err := decoder.Decode(ctx, file)
			if err != nil {
				return err
			}

			mapping := importer.AutoDetectMapping(table.Headers)
			if err := parseMapOverrides(&mapping, mappings); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%s %s: %d rows, columns %s",
				cli.ImportIcon, filepath.Base(path), len(table.Rows), mapping)))

			opts := importer.Options{DryRun: dryRun}
			if account != "" {
				acct, err := a.resolveAccount(ctx, account)
				if err != nil {
					return err
				}
				opts.AccountID = acct.ID
			}

			bar := cli.NewProgressBar(out, len(table.Rows), "Importing transactions...")
			opts.Progress = cli.ProgressFunc(bar)

			report, err := importer.New(a.store, a.engine).Run(ctx, table, mapping, opts)
			_ = bar.Finish()
			if report != nil {
				printImportReport(cmd, a, report)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "file format (csv, xlsx, ofx, pdf); detected from the extension by default")
	cmd.Flags().StringArrayVar(&mappings, "map", nil, "field=header column override (repeatable; empty header unmaps)")
	cmd.Flags().StringVar(&account, "account", "", "account for rows without an account column")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate rows without recording them")
	return cmd
}

func printImportReport(cmd *cobra.Command, a *app, report *importer.Report) {
	out := cmd.OutOrStdout()

	verb := "Imported"
	if report.DryRun {
		verb = "Would import"
	}

	var income, expense int
	for i := range report.Imported {
		switch report.Imported[i].Kind {
		case model.KindIncome:
			income++
		case model.KindExpense:
			expense++
		}
	}

	summary := fmt.Sprintf("%s %d of %d rows (%d expense, %d income)", verb, len(report.Imported), report.Total, expense, income)
	switch {
	case report.Cancelled:
		fmt.Fprintln(out, cli.FormatWarning(summary+", cancelled"))
	case len(report.Failures) > 0:
		fmt.Fprintln(out, cli.FormatWarning(summary))
	default:
		fmt.Fprintln(out, cli.FormatSuccess(summary))
	}

	if report.BatchID != "" && !report.DryRun && len(report.Imported) > 0 {
		fmt.Fprintln(out, cli.SubtleStyle.Render("Batch "+report.BatchID+" (list with: ledger txn list --batch "+report.BatchID+")"))
	}
	if report.Skipped > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d rows skipped:", report.Skipped)))
	}

	for i, failure := range report.Failures {
		if i == maxListedFailures {
			fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("  ... and %d more", len(report.Failures)-maxListedFailures)))
			break
		}
		fmt.Fprintln(out, "  "+cli.FormatError(failure.Error()))
	}

	if report.FallbackAccountID != 0 {
		if acct, err := a.store.GetAccount(cmd.Context(), report.FallbackAccountID); err == nil {
			fmt.Fprintln(out, cli.SubtleStyle.Render("Default account: "+acct.Name))
		}
	}
}
