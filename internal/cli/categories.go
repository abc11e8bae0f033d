package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ledger/internal/core"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage income and expense categories",
	}
	cmd.AddCommand(
		newCategoryListCmd(a),
		newCategoryAddCmd(a),
		newCategoryDeleteCmd(a),
	)
	return cmd
}

func newCategoryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [TYPE]",
		Short: "List categories, optionally for one type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types := core.Types()
			if len(args) == 1 {
				t, err := parseTypeArg(args[0])
				if err != nil {
					return err
				}
				types = []core.TransactionType{t}
			}
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				for _, t := range types {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", t, strings.Join(rt.Store.CategoriesFor(t), ", "))
				}
				return nil
			})
		},
	}
}

func newCategoryAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add TYPE NAME",
		Short: "Add a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTypeArg(args[0])
			if err != nil {
				return err
			}
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				if err := rt.Store.AddCategory(cmd.Context(), t, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s category %q\n", t, strings.TrimSpace(args[1]))
				return nil
			})
		},
	}
}

func newCategoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TYPE NAME",
		Short: "Delete a category; existing transactions keep it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTypeArg(args[0])
			if err != nil {
				return err
			}
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				if err := rt.Store.DeleteCategory(cmd.Context(), t, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s category %q\n", t, strings.TrimSpace(args[1]))
				return nil
			})
		},
	}
}
