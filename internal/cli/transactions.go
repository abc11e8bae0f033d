package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledger/internal/core"
)

// ─── summary ────────────────────────────────────────────────────────────────

func newSummaryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals, balance and the most recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				limit = a.cfg.RecentLimit
			}
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				out := cmd.OutOrStdout()
				totals := rt.Store.Totals()
				fmt.Fprintf(out, "Income:   %s\n", core.FormatAmount(totals.Income))
				fmt.Fprintf(out, "Expenses: %s\n", core.FormatAmount(totals.Expense))
				fmt.Fprintf(out, "Balance:  %s\n", core.FormatAmount(totals.Balance))

				recent := rt.Store.RecentTransactions(limit)
				if len(recent) == 0 {
					fmt.Fprintln(out, "\nNo transactions yet.")
					return nil
				}
				fmt.Fprintln(out, "\nRecent:")
				return printTransactions(out, recent)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of recent transactions (default from RECENT_LIMIT)")
	return cmd
}

// ─── add ────────────────────────────────────────────────────────────────────

func newAddCmd(a *app) *cobra.Command {
	var description, date string
	cmd := &cobra.Command{
		Use:   "add TYPE AMOUNT CATEGORY",
		Short: "Record an income or expense",
		Long: `Record a transaction. TYPE is income or expense, AMOUNT accepts a dot or
comma decimal separator and CATEGORY must exist for the type.`,
		Example: "  ledger add expense 12,50 Food -d Lunch",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTypeArg(args[0])
			if err != nil {
				return err
			}
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return err
			}
			in := core.NewTransaction{
				Type:        t,
				Amount:      amount,
				Category:    args[2],
				Description: description,
				Date:        date,
			}
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				tx, err := rt.Store.AddTransaction(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s) id=%s\n",
					tx.Type, core.FormatAmount(tx.Amount), tx.Category, tx.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "optional description")
	cmd.Flags().StringVar(&date, "date", "", "calendar date, YYYY-MM-DD (default today)")
	return cmd
}

// ─── delete ─────────────────────────────────────────────────────────────────

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				if err := rt.Store.DeleteTransaction(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

// ─── history ────────────────────────────────────────────────────────────────

func newHistoryCmd(a *app) *cobra.Command {
	var oldest bool
	cmd := &cobra.Command{
		Use:   "history TYPE",
		Short: "List one type's transactions grouped by month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTypeArg(args[0])
			if err != nil {
				return err
			}
			order := core.Newest
			if oldest {
				order = core.Oldest
			}
			return a.withRuntime(cmd.Context(), func(rt *Runtime) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total %s: %s\n", t, core.FormatAmount(rt.Store.TypeTotal(t)))
				for _, m := range rt.Store.MonthlyHistory(t, order) {
					fmt.Fprintf(out, "\n%s  %s\n", m.Month, core.FormatAmount(m.Total))
					if err := printTransactions(out, m.Transactions); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&oldest, "oldest", false, "oldest first")
	return cmd
}

func printTransactions(w io.Writer, txs []core.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, tx := range txs {
		sign := "+"
		if tx.Type == core.Expense {
			sign = "-"
		}
		fmt.Fprintf(tw, "  %s\t%s%s\t%s\t%s\t%s\n",
			tx.Date, sign, core.FormatAmount(tx.Amount), tx.Category, tx.Description, tx.ID)
	}
	return tw.Flush()
}
