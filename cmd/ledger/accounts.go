package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
		Long:  `List, add, and deactivate the accounts whose balances the ledger maintains.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(deactivateAccountCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts and balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			accounts, err := a.store.ListAccounts(ctx, all)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No accounts found. Use 'ledger accounts add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Type"),
				cli.BoldStyle.Render("Balance"),
				cli.BoldStyle.Render("Status"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4), strings.Repeat("-", 20), strings.Repeat("-", 12),
				strings.Repeat("-", 14), strings.Repeat("-", 8))

			total := decimal.Zero
			for _, acct := range accounts {
				status := cli.SuccessStyle.Render("active")
				if !acct.IsActive {
					status = cli.SubtleStyle.Render("inactive")
				} else {
					total = total.Add(acct.Balance)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", acct.ID, acct.Name, acct.Type, a.money.Signed(acct.Balance), status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%s %s (%s)\n", cli.BoldStyle.Render("Net worth:"), a.money.Format(total), a.money.Compact(total))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive accounts")
	return cmd
}

func addAccountCmd() *cobra.Command {
	var (
		accountType string
		initial     string
		currency    string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, ok := model.ParseAccountType(accountType)
			if !ok {
				return fmt.Errorf("unknown account type %q", accountType)
			}
			opening := decimal.Zero
			if initial != "" {
				d, err := decimal.NewFromString(initial)
				if err != nil {
					return fmt.Errorf("invalid initial balance %q", initial)
				}
				opening = d
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if currency == "" {
				currency = a.money.Code()
			}
			account := &model.Account{
				Name:           strings.TrimSpace(args[0]),
				Type:           t,
				Currency:       strings.ToUpper(currency),
				InitialBalance: opening,
				Balance:        opening,
				IsActive:       true,
			}
			id, err := a.store.CreateAccount(ctx, account)
			if err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created account #%d %s", id, account.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountType, "type", string(model.AccountBank), "account type (cash, bank, wallet, credit_card, savings, investment, other)")
	cmd.Flags().StringVar(&initial, "initial", "0", "opening balance")
	cmd.Flags().StringVar(&currency, "currency", "", "ISO currency code (default: configured currency)")
	return cmd
}

func deactivateAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id|name>",
		Short: "Hide an account from capture and import matching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.resolveAccount(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeactivateAccount(ctx, account.ID); err != nil {
				return fmt.Errorf("failed to deactivate account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deactivated account #%d %s", account.ID, account.Name)))
			return nil
		},
	}
}
