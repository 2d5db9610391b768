package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/export"
	"github.com/Veraticus/the-ledger-must-balance/internal/ledger"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/spf13/cobra"
)

func txnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "txn",
		Aliases: []string{"transactions"},
		Short:   "Record and manage transactions",
		Long: `Record, edit, delete, and refund transactions. Every change updates the
affected account balances in the same database transaction.`,
	}

	cmd.AddCommand(addTxnCmd())
	cmd.AddCommand(editTxnCmd())
	cmd.AddCommand(deleteTxnCmd())
	cmd.AddCommand(refundTxnCmd())
	cmd.AddCommand(recurTxnCmd())
	cmd.AddCommand(listTxnCmd())
	cmd.AddCommand(pendingTxnCmd())

	return cmd
}

// txnFlags are the editable transaction fields shared by add and edit.
type txnFlags struct {
	kind       string
	amount     string
	account    string
	to         string
	category   string
	date       string
	payee      string
	notes      string
	method     string
	status     string
	labels     []string
	recurDays  int
	noRecur    bool
	noCategory bool
}

func (f *txnFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", string(model.KindExpense), "expense, income, or transfer")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount (positive)")
	cmd.Flags().StringVar(&f.account, "account", "", "source account id or name")
	cmd.Flags().StringVar(&f.to, "to", "", "destination account for transfers")
	cmd.Flags().StringVar(&f.category, "category", "", "category id or name (created if new)")
	cmd.Flags().StringVar(&f.date, "date", "", "date, YYYY-MM-DD[ HH:MM] (default: now)")
	cmd.Flags().StringVar(&f.payee, "payee", "", "payee or merchant")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&f.method, "method", string(model.PaymentOther), "payment method (cash, card, upi, bank_transfer, cheque, wallet, other)")
	cmd.Flags().StringVar(&f.status, "status", string(model.StatusCleared), "cleared, pending, or reconciled")
	cmd.Flags().StringSliceVar(&f.labels, "label", nil, "label (repeatable)")
	cmd.Flags().IntVar(&f.recurDays, "recur-days", 0, "mark as a recurring template repeating every N days")
}

// apply copies flags onto txn. With onlyChanged set, flags left at their
// defaults are ignored.
func (f *txnFlags) apply(ctx context.Context, cmd *cobra.Command, a *app, txn *model.Transaction, onlyChanged bool) error {
	set := func(name string) bool {
		return !onlyChanged || cmd.Flags().Changed(name)
	}

	if set("kind") {
		kind, ok := model.ParseKind(f.kind)
		if !ok {
			return fmt.Errorf("unknown kind %q", f.kind)
		}
		txn.Kind = kind
	}
	if set("amount") {
		amount, err := parseAmount(f.amount)
		if err != nil {
			return err
		}
		txn.Amount = amount
	}
	if set("account") && f.account != "" {
		account, err := a.resolveAccount(ctx, f.account)
		if err != nil {
			return err
		}
		txn.AccountID = account.ID
	}
	if set("to") {
		txn.ToAccountID = nil
		if f.to != "" {
			account, err := a.resolveAccount(ctx, f.to)
			if err != nil {
				return err
			}
			txn.ToAccountID = &account.ID
		}
	}
	if txn.Kind != model.KindTransfer {
		txn.ToAccountID = nil
	}
	switch {
	case f.noCategory || txn.Kind == model.KindTransfer:
		txn.CategoryID = nil
	case set("category") && f.category != "":
		id, err := a.resolveCategory(ctx, f.category, txn.Kind)
		if err != nil {
			return err
		}
		txn.CategoryID = id
	}
	if set("date") {
		date, err := parseDate(f.date)
		if err != nil {
			return err
		}
		if date.IsZero() {
			date = time.Now()
		}
		txn.Date = date
	}
	if set("payee") {
		txn.Payee = f.payee
	}
	if set("notes") {
		txn.Notes = f.notes
	}
	if set("method") {
		method, ok := model.ParsePaymentMethod(f.method)
		if !ok {
			return fmt.Errorf("unknown payment method %q", f.method)
		}
		txn.PaymentMethod = method
	}
	if set("status") {
		status, ok := model.ParseStatus(f.status)
		if !ok {
			return fmt.Errorf("unknown status %q", f.status)
		}
		txn.Status = status
	}
	if set("label") {
		txn.Labels = f.labels
	}
	if set("recur-days") && f.recurDays > 0 {
		days := f.recurDays
		txn.RecurrenceDays = &days
	}
	if f.noRecur {
		txn.RecurrenceDays = nil
	}
	return nil
}

func addTxnCmd() *cobra.Command {
	var flags txnFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  ledger txn add --amount 450 --account "HDFC Bank" --category Food --payee Swiggy
  ledger txn add --kind transfer --amount 5000 --account 1 --to 2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if flags.account == "" {
				return fmt.Errorf("--account is required")
			}
			txn := &model.Transaction{}
			if err := flags.apply(ctx, cmd, a, txn, false); err != nil {
				return err
			}
			if txn.CategoryID == nil && txn.Kind != model.KindTransfer {
				name, categoryType := model.DefaultCategoryFor(txn.Kind)
				category, err := a.store.GetOrCreateCategory(ctx, name, categoryType)
				if err != nil {
					return err
				}
				txn.CategoryID = &category.ID
			}

			id, err := a.engine.Insert(ctx, txn)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s #%d of %s", txn.Kind, id, a.money.Format(txn.Amount))))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func editTxnCmd() *cobra.Command {
	var flags txnFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction and rebalance its accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			old, err := a.store.GetTransaction(ctx, id)
			if err != nil {
				return err
			}
			updated := old.Clone()
			if err := flags.apply(ctx, cmd, a, updated, true); err != nil {
				return err
			}

			if err := a.engine.Update(ctx, old, updated); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated transaction #%d", id)))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.noRecur, "no-recur", false, "stop treating the transaction as a recurring template")
	cmd.Flags().BoolVar(&flags.noCategory, "no-category", false, "remove the category")
	return cmd
}

func deleteTxnCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction and reverse its balance effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.store.GetTransaction(ctx, id)
			if err != nil {
				return err
			}

			if !yes {
				prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), a.money)
				question := fmt.Sprintf("Delete %s #%d of %s?", txn.Kind, txn.ID, a.money.Format(txn.Amount))
				ok, err := prompter.Confirm(ctx, question)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing deleted"))
					return nil
				}
			}

			if err := a.engine.Delete(ctx, txn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted transaction #%d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func refundTxnCmd() *cobra.Command {
	var (
		amount  string
		account string
		date    string
		notes   string
	)

	cmd := &cobra.Command{
		Use:   "refund <original-id>",
		Short: "Record a refund against an earlier transaction",
		Long: `Records an income transaction linked to the original. The original keeps its
amount and balance effect; the refund credits the account separately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			originalID, err := parseID(args[0])
			if err != nil {
				return err
			}
			value, err := parseAmount(amount)
			if err != nil {
				return err
			}
			when, err := parseDate(date)
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			refund := &model.Transaction{Amount: value, Date: when, Notes: notes}
			if account != "" {
				acct, err := a.resolveAccount(ctx, account)
				if err != nil {
					return err
				}
				refund.AccountID = acct.ID
			}

			id, err := a.engine.LinkRefund(ctx, originalID, refund)
			if err != nil {
				return err
			}

			original, err := a.store.GetTransaction(ctx, originalID)
			if err != nil {
				return err
			}
			kind := "full"
			if original.Refund != nil && original.Refund.IsPartial {
				kind = "partial"
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded %s refund #%d of %s against #%d", kind, id, a.money.Format(value), originalID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "refunded amount")
	cmd.Flags().StringVar(&account, "account", "", "account credited (default: the original's account)")
	cmd.Flags().StringVar(&date, "date", "", "refund date (default: now)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the refund")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func recurTxnCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "recur [template-id]",
		Short: "Record the next occurrence of a recurring transaction",
		Long: `With an id, records a copy of that recurring template dated --at (default: now).
Without one, lists recurring templates and when each is next due.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return listRecurring(ctx, cmd, a)
			}

			templateID, err := parseID(args[0])
			if err != nil {
				return err
			}
			when, err := parseDate(at)
			if err != nil {
				return err
			}
			if when.IsZero() {
				when = time.Now()
			}

			id, err := a.engine.Recur(ctx, templateID, when)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Recorded occurrence #%d of template #%d", id, templateID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "occurrence date (default: now)")
	return cmd
}

func listRecurring(ctx context.Context, cmd *cobra.Command, a *app) error {
	txns, err := a.store.ListTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		cli.BoldStyle.Render("ID"), cli.BoldStyle.Render("Payee"),
		cli.BoldStyle.Render("Amount"), cli.BoldStyle.Render("Next due"))
	found := 0
	for i := range txns {
		next, ok := ledger.NextOccurrence(&txns[i])
		if !ok {
			continue
		}
		found++
		due := next.Local().Format("02 Jan 2006")
		if next.Before(time.Now()) {
			due = cli.WarningStyle.Render(due + " (due)")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", txns[i].ID, txns[i].Payee, a.money.Format(txns[i].Amount), due)
	}
	if found == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No recurring transactions. Use --recur-days on txn add or edit."))
		return nil
	}
	return w.Flush()
}

// listFlags filter txn list and export.
type listFlags struct {
	from     string
	to       string
	account  string
	category string
	kind     string
	status   string
	batch    string
	limit    int
	offset   int
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "start date, inclusive")
	cmd.Flags().StringVar(&f.to, "to", "", "end date, inclusive")
	cmd.Flags().StringVar(&f.account, "account", "", "account id or name")
	cmd.Flags().StringVar(&f.category, "category", "", "category id")
	cmd.Flags().StringVar(&f.kind, "kind", "", "expense, income, or transfer")
	cmd.Flags().StringVar(&f.status, "status", "", "cleared, pending, or reconciled")
	cmd.Flags().StringVar(&f.batch, "batch", "", "import batch id")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum rows (0 for all)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "rows to skip")
}

func (f *listFlags) filter(ctx context.Context, a *app) (service.TransactionFilter, error) {
	filter := service.TransactionFilter{
		ImportBatch: f.batch,
		Limit:       f.limit,
		Offset:      f.offset,
	}

	if f.from != "" {
		start, err := parseDate(f.from)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &start
	}
	if f.to != "" {
		end, err := parseDate(f.to)
		if err != nil {
			return filter, err
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.EndDate = &end
	}
	if f.account != "" {
		account, err := a.resolveAccount(ctx, f.account)
		if err != nil {
			return filter, err
		}
		filter.AccountID = &account.ID
	}
	if f.category != "" {
		id, err := parseID(f.category)
		if err != nil {
			return filter, err
		}
		filter.CategoryID = &id
	}
	if f.kind != "" {
		kind, ok := model.ParseKind(f.kind)
		if !ok {
			return filter, fmt.Errorf("unknown kind %q", f.kind)
		}
		filter.Kind = &kind
	}
	if f.status != "" {
		status, ok := model.ParseStatus(f.status)
		if !ok {
			return filter, fmt.Errorf("unknown status %q", f.status)
		}
		filter.Status = &status
	}
	return filter, nil
}

func listTxnCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
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
			return printTransactions(ctx, cmd, a, txns)
		},
	}

	flags.register(cmd)
	return cmd
}

func printTransactions(ctx context.Context, cmd *cobra.Command, a *app, txns []model.Transaction) error {
	out := cmd.OutOrStdout()
	if len(txns) == 0 {
		fmt.Fprintln(out, cli.InfoStyle.Render("No transactions found."))
		return nil
	}

	names, err := export.LoadNames(ctx, a.store)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		cli.BoldStyle.Render("ID"), cli.BoldStyle.Render("Date"), cli.BoldStyle.Render("Amount"),
		cli.BoldStyle.Render("Account"), cli.BoldStyle.Render("Category"),
		cli.BoldStyle.Render("Payee"), cli.BoldStyle.Render("Status"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 4), strings.Repeat("-", 16), strings.Repeat("-", 12),
		strings.Repeat("-", 16), strings.Repeat("-", 14), strings.Repeat("-", 16), strings.Repeat("-", 9))

	for i := range txns {
		txn := &txns[i]
		account := names.AccountName(txn.AccountID)
		if txn.Kind == model.KindTransfer && txn.ToAccountID != nil {
			account += " -> " + names.AccountName(*txn.ToAccountID)
		}

		payee := txn.Payee
		switch {
		case txn.IsRefund():
			payee = fmt.Sprintf("%s (refund of #%d)", payee, *txn.RefundOf)
		case txn.Refund != nil:
			payee = fmt.Sprintf("%s (refunded by #%d)", payee, txn.Refund.TransactionID)
		}

		status := string(txn.Status)
		if txn.Status == model.StatusPending {
			status = cli.WarningStyle.Render(status)
		}

		amount := a.money.Format(txn.Amount)
		if txn.Kind != model.KindTransfer {
			amount = a.money.Signed(signedAmount(txn))
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			txn.ID, txn.Date.Local().Format(export.DateLayout), amount, account, names.CategoryName(txn.CategoryID), strings.TrimSpace(payee), status)
	}
	return w.Flush()
}

func pendingTxnCmd() *cobra.Command {
	var review bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List or review auto-captured transactions awaiting confirmation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			txns, err := a.store.GetPendingAutoDetected(ctx)
			if err != nil {
				return fmt.Errorf("failed to list pending transactions: %w", err)
			}
			if !review || len(txns) == 0 {
				return printTransactions(ctx, cmd, a, txns)
			}

			prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), a.money)
			stats, err := prompter.ReviewPending(ctx, txns, func(ctx context.Context, txn model.Transaction, d cli.Decision) error {
				return applyDecision(ctx, a.engine, &txn, d)
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Confirmed %d, deleted %d, skipped %d, failed %d", stats.Confirmed, stats.Deleted, stats.Skipped, stats.Failed)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&review, "review", false, "confirm or delete each pending transaction interactively")
	return cmd
}

// applyDecision clears or deletes a pending transaction.
func applyDecision(ctx context.Context, engine *ledger.Engine, txn *model.Transaction, d cli.Decision) error {
	switch d {
	case cli.DecisionConfirm:
		updated := txn.Clone()
		updated.Status = model.StatusCleared
		return engine.Update(ctx, txn, updated)
	case cli.DecisionDelete:
		return engine.Delete(ctx, txn)
	default:
		return nil
	}
}
