package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

var errAborted = errors.New("aborted")

// signed renders an amount with its sign and color.
func (a *app) signed(t core.Transaction) string {
	if t.IsIncome() {
		return a.income.Sprint("+ " + core.FormatAmount(t.Magnitude()))
	}
	return a.expense.Sprint("- " + core.FormatAmount(t.Magnitude()))
}

func newListCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, most recently added first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := a.ledger.List(cmd.Context(), search)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(a.out, "No transactions yet.")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tDESCRIPTION\tAMOUNT\tID")
			for _, t := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Date, t.Desc, a.signed(t), t.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only descriptions containing this text")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var desc, amount, date string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction (negative amounts are expenses)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := a.ledger.Add(cmd.Context(), desc, amount, date)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(a.out, "Transaction added: %s %s %s (%s)\n", t.Date, t.Desc, a.signed(t), t.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "desc", "d", "", "description")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount, e.g. 12.50 or -4")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("desc")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && a.interactive && !a.confirm("Delete this transaction?", false) {
				return errAborted
			}
			if err := a.ledger.Delete(cmd.Context(), args[0]); err != nil {
				return userError(err)
			}
			fmt.Fprintln(a.out, "Transaction deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				if !a.interactive {
					return fmt.Errorf("refusing to clear without a terminal; pass --yes")
				}
				if !a.confirm("Clear all transactions? This cannot be undone.", false) {
					return errAborted
				}
			}
			if err := a.ledger.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "All transactions cleared.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var replace, merge bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import transactions from a .json or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if replace && merge {
				return fmt.Errorf("--replace and --merge are mutually exclusive")
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			policy := core.PolicyMerge
			switch {
			case replace:
				policy = core.PolicyReplace
			case merge:
			case a.interactive:
				if !a.confirm("Merge imported transactions with existing ones? (no replaces them)", true) {
					policy = core.PolicyReplace
				}
			}

			res, err := a.ledger.Import(cmd.Context(), filepath.Base(args[0]), content, policy)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(a.out, res.Message())
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the stored transactions")
	cmd.Flags().BoolVar(&merge, "merge", false, "merge into the stored transactions (default)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all transactions as csv, json or xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := services.ParseExportFormat(format)
			if err != nil {
				return fmt.Errorf("unknown export format %q, use csv, json or xlsx", format)
			}
			file, err := a.ledger.Export(cmd.Context(), f)
			if err != nil {
				return userError(err)
			}

			if output == "-" {
				_, err := a.out.Write(file.Data)
				return err
			}
			if output == "" {
				output = file.Filename
			}
			if err := os.WriteFile(output, file.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %s (%d bytes)\n", output, len(file.Data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "csv, json or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path, - for stdout (default: the download file name)")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show balance, income and expense totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sum, err := a.ledger.Summary(cmd.Context(), search)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "%s\t%s\n", a.bold.Sprint("Balance"), sum.BalanceText())
			fmt.Fprintf(tw, "Income\t%s\n", a.income.Sprint(sum.IncomeText()))
			fmt.Fprintf(tw, "Expense\t%s\n", a.expense.Sprint(sum.ExpenseText()))
			fmt.Fprintf(tw, "Transactions\t%d\n", sum.Count)
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only descriptions containing this text")
	return cmd
}

func newTrendCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show daily income and expense totals for the recent window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			series, err := a.ledger.Trend(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(series)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tINCOME\tEXPENSE")
			for i, label := range series.Labels {
				fmt.Fprintf(tw, "%s\t%.2f\t%.2f\n", label, series.Income[i], series.Expense[i])
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the series as JSON")
	return cmd
}
