package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/spf13/cobra"
)

func summaryCmd() *cobra.Command {
	var (
		from string
		to   string
		by   string
		top  int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income and spending for a period",
		Long: `Totals income and expenses between --from and --to (default: this month),
broken down by day or month and by category. Transfers are not counted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			start, end, err := dateRange(from, to, time.Now())
			if err != nil {
				return err
			}
			if by != "day" && by != "month" {
				return fmt.Errorf("--by must be day or month, got %q", by)
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			income, err := a.store.SumByKind(ctx, model.KindIncome, start, end)
			if err != nil {
				return err
			}
			expense, err := a.store.SumByKind(ctx, model.KindExpense, start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			period := fmt.Sprintf("%s to %s", start.Format("02 Jan 2006"), end.AddDate(0, 0, -1).Format("02 Jan 2006"))
			fmt.Fprintln(out, cli.FormatTitle("Summary "+period))

			net := income.Sub(expense)
			fmt.Fprintf(out, "%s %s\n", cli.BoldStyle.Render("Income: "), cli.CreditStyle.Render(a.money.Format(income)))
			fmt.Fprintf(out, "%s %s\n", cli.BoldStyle.Render("Expense:"), cli.DebitStyle.Render(a.money.Format(expense)))
			fmt.Fprintf(out, "%s %s (%s)\n\n", cli.BoldStyle.Render("Net:    "), a.money.Signed(net), a.money.Compact(net))

			totals := a.store.DailyTotals
			layout := "02 Jan 2006"
			if by == "month" {
				totals = a.store.MonthlyTotals
				layout = "Jan 2006"
			}
			spending, err := totals(ctx, model.KindExpense, start, end)
			if err != nil {
				return err
			}
			if len(spending) > 0 {
				fmt.Fprintln(out, cli.BoldStyle.Render(cli.ChartIcon+" Spending by "+by))
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, p := range spending {
					fmt.Fprintf(w, "  %s\t%s\t%d txns\n", p.Period.Format(layout), a.money.Format(p.Total), p.Count)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}

			byCategory, err := a.store.SumByCategory(ctx, model.KindExpense, start, end)
			if err != nil {
				return err
			}
			printCategoryTotals(cmd, a, byCategory, expense.IsZero(), top)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date, inclusive (default: first of this month)")
	cmd.Flags().StringVar(&to, "to", "", "end date, inclusive (default: end of this month)")
	cmd.Flags().StringVar(&by, "by", "day", "period breakdown: day or month")
	cmd.Flags().IntVar(&top, "top", 10, "categories to show (0 for all)")
	return cmd
}

func printCategoryTotals(cmd *cobra.Command, a *app, totals []service.CategoryTotal, noSpending bool, top int) {
	if len(totals) == 0 || noSpending {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.BoldStyle.Render(cli.ChartIcon+" Spending by category"))

	grand := totals[0].Total
	for _, t := range totals[1:] {
		grand = grand.Add(t.Total)
	}
	if grand.IsZero() {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, t := range totals {
		if top > 0 && i == top {
			break
		}
		name := t.Name
		if name == "" {
			name = cli.SubtleStyle.Render("(uncategorized)")
		}
		share := t.Total.Div(grand).Shift(2).Round(0).IntPart()
		bar := strings.Repeat("█", int(share/5))
		fmt.Fprintf(w, "  %s\t%s\t%3d%%\t%s\n", name, a.money.Format(t.Total), share, cli.InfoStyle.Render(bar))
	}
	_ = w.Flush()
}
