package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/reconcile"
	"github.com/spf13/cobra"
)

func parseCmd() *cobra.Command {
	var (
		sender  string
		receipt bool
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Extract a transaction from an SMS or receipt text",
		Long: `Runs the message extractor over the text and prints what it found. With
--save the result is matched to an account and recorded as a pending transaction.`,
		Example: `  ledger parse "Rs.450.00 debited from A/c XX1234 at SWIGGY on 05-03-24" --sender HDFCBK
  ledger parse --receipt "$(cat receipt.txt)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			extractor, err := a.extractor()
			if err != nil {
				return err
			}

			var (
				candidate *model.ParsedCandidate
				ok        bool
			)
			if receipt {
				candidate, ok = extractor.ExtractReceipt(text)
			} else {
				candidate, ok = extractor.Extract(text, sender)
			}
			if !ok {
				fmt.Fprintln(out, cli.FormatWarning("No transaction found in the text"))
				return nil
			}

			fmt.Fprintln(out, cli.RenderBox("Parsed "+cli.PhoneIcon, formatCandidate(a, candidate)))
			if !save {
				return nil
			}

			txn, err := reconcile.New(a.store).Reconcile(ctx, candidate, reconcile.OriginLiveCapture)
			if err != nil {
				return err
			}
			id, err := a.engine.Insert(ctx, txn)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Recorded pending %s #%d", txn.Kind, id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&sender, "sender", "", "message sender id, e.g. VM-HDFCBK")
	cmd.Flags().BoolVar(&receipt, "receipt", false, "treat the text as an OCR'd receipt")
	cmd.Flags().BoolVar(&save, "save", false, "record the result as a pending transaction")
	return cmd
}

func formatCandidate(a *app, c *model.ParsedCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Amount:    %s\n", a.money.Format(c.Amount))
	fmt.Fprintf(&b, "Direction: %s\n", c.Direction)

	optional := []struct {
		label string
		value string
	}{
		{"Merchant", c.Merchant},
		{"Account", c.AccountLast4},
		{"Provider", c.Provider},
		{"Channel", string(c.Channel)},
	}
	for _, o := range optional {
		if o.value != "" {
			fmt.Fprintf(&b, "%-10s %s\n", o.label+":", o.value)
		}
	}
	if c.Balance != nil {
		fmt.Fprintf(&b, "Balance:   %s\n", a.money.Format(*c.Balance))
	}
	fmt.Fprintf(&b, "Date:      %s", c.Date.Local().Format("02 Jan 2006 15:04"))
	return b.String()
}
