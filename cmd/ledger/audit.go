package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/export"
	"github.com/Veraticus/the-ledger-must-balance/internal/ledger"
	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check every account balance against its transactions",
		Long: `For each account, compares the stored balance, the opening balance plus the
journal of applied effects, and the effects of the transactions that exist now.
Exits non-zero if any account disagrees.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			reports, err := a.engine.AuditAll(ctx)
			if err != nil && !errors.Is(err, ledger.ErrInconsistent) {
				return err
			}
			names, nerr := export.LoadNames(ctx, a.store)
			if nerr != nil {
				return nerr
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Account"), cli.BoldStyle.Render("Balance"),
				cli.BoldStyle.Render("Journal"), cli.BoldStyle.Render("Live"), cli.BoldStyle.Render("Status"))

			bad := 0
			for i := range reports {
				r := &reports[i]
				status := cli.SuccessStyle.Render(cli.SuccessIcon + " ok")
				if !r.Consistent() {
					bad++
					status = cli.ErrorStyle.Render(cli.ErrorIcon + " mismatch")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					names.AccountName(r.AccountID),
					a.money.Format(r.Balance.Sub(r.Initial)),
					a.money.Format(r.Journal),
					a.money.Format(r.LiveEffects),
					status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if bad > 0 {
				return fmt.Errorf("%d of %d accounts are inconsistent: %w", bad, len(reports), ledger.ErrInconsistent)
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("All %d accounts balance", len(reports))))
			return nil
		},
	}
}
