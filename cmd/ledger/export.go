package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/export"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		flags  listFlags
		outArg string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions to CSV or Excel",
		Example: `  ledger export --out march.csv --from 2024-03-01 --to 2024-03-31
  ledger export --out ledger.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			f := export.Format(strings.ToLower(format))
			if format == "" {
				f = export.FormatCSV
				if strings.EqualFold(filepath.Ext(outArg), ".xlsx") {
					f = export.FormatXLSX
				}
			}
			if f != export.FormatCSV && f != export.FormatXLSX {
				return fmt.Errorf("unsupported export format %q", format)
			}
			if f == export.FormatXLSX && outArg == "" {
				return fmt.Errorf("--out is required for xlsx exports")
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			filter, err := flags.filter(ctx, a)
			if err != nil {
				return err
			}
			txns, err := a.store.ListTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			names, err := export.LoadNames(ctx, a.store)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outArg != "" && outArg != "-" {
				file, err := os.Create(outArg) //nolint:gosec // file path comes from the command line
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outArg, err)
				}
				defer func() { _ = file.Close() }()
				w = file
			}

			if err := export.Write(w, f, txns, names); err != nil {
				return err
			}
			if outArg != "" && outArg != "-" {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s", len(txns), outArg)))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&outArg, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "", "csv or xlsx (default: from the --out extension)")
	return cmd
}
