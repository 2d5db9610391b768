package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/pattern"
	"github.com/spf13/cobra"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patterns",
		Aliases: []string{"pattern"},
		Short:   "Inspect the message extraction rules",
		Long: `List the rules used to read bank and payment-app messages, check an overlay
file before configuring it, and test which rules fire for a message.`,
	}

	cmd.AddCommand(patternsListCmd())
	cmd.AddCommand(patternsCheckCmd())
	cmd.AddCommand(patternsTestCmd())

	return cmd
}

func patternsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [concern]",
		Short: "List rules in the order they are tried",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := loadLibrary(appConfig)
			if err != nil {
				return err
			}

			concerns := pattern.Concerns
			if len(args) == 1 {
				c, err := parseConcern(args[0])
				if err != nil {
					return err
				}
				concerns = []pattern.Concern{c}
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Concern"),
				cli.BoldStyle.Render("Priority"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Regex"))
			for _, c := range concerns {
				for _, rule := range lib.Rules(c) {
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c, rule.Priority, rule.Name, truncate(rule.Regex, 60))
				}
			}
			return w.Flush()
		},
	}
}

func patternsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a YAML pattern overlay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns, err := pattern.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := pattern.Default().Extend(patterns); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%d patterns are valid", len(patterns))))
			return nil
		},
	}
}

func patternsTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <text>",
		Short: "Show the first rule that fires for each concern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := loadLibrary(appConfig)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			matched := 0
			for _, c := range pattern.Concerns {
				m, ok := lib.FirstMatch(c, args[0])
				if !ok {
					continue
				}
				matched++
				fmt.Fprintf(out, "%-14s %s %s\n", c, cli.BoldStyle.Render(m.Rule), m.Value)
			}
			if matched == 0 {
				fmt.Fprintln(out, cli.FormatWarning("No rules matched"))
			}
			return nil
		},
	}
}

func parseConcern(s string) (pattern.Concern, error) {
	for _, c := range pattern.Concerns {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown concern %q", s)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
