package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/the-ledger-must-balance/internal/cli"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())

	return cmd
}

func parseCategoryType(s string) (model.CategoryType, error) {
	t := model.CategoryType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("category type must be %q or %q, got %q", model.CategoryTypeExpense, model.CategoryTypeIncome, s)
	}
	return t, nil
}

func listCategoriesCmd() *cobra.Command {
	var categoryType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var filter *model.CategoryType
			if categoryType != "" {
				t, err := parseCategoryType(categoryType)
				if err != nil {
					return err
				}
				filter = &t
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			categories, err := a.store.ListCategories(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'ledger categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Type"))
			fmt.Fprintf(w, "%s\t%s\t%s\n", strings.Repeat("-", 4), strings.Repeat("-", 20), strings.Repeat("-", 8))
			for _, cat := range categories {
				name := cat.Name
				if cat.Icon != "" {
					name = cat.Icon + " " + name
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", cat.ID, name, cat.Type)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&categoryType, "type", "", "show only expense or income categories")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		categoryType string
		icon         string
		color        string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, err := parseCategoryType(categoryType)
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			category := &model.Category{
				Name:  strings.TrimSpace(args[0]),
				Type:  t,
				Icon:  icon,
				Color: color,
			}
			id, err := a.store.CreateCategory(ctx, category)
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created %s category #%d %s", t, id, category.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryType, "type", string(model.CategoryTypeExpense), "expense or income")
	cmd.Flags().StringVar(&icon, "icon", "", "display icon")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	return cmd
}
