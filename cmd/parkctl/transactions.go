package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soulparking/dashboard/internal/analytics"
	parkauth "github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/daterange"
	"github.com/soulparking/dashboard/internal/export"
	"github.com/soulparking/dashboard/internal/transactions"
)

const transactionsSheet = "Transactions"

func newTransactionsCmd(e *env) *cobra.Command {
	var (
		flags    rangeFlags
		search   string
		csvPath  string
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List transactions, or export them to CSV or Excel",
		Example: `  parkctl transactions --search "B 1234"
  parkctl transactions --from 2023-10-26 --to 2023-10-26 --xlsx transactions.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvPath != "" && xlsxPath != "" {
				return errors.New("use only one of --csv and --xlsx")
			}
			sel, err := flags.resolve(e, daterange.PresetAll)
			if err != nil {
				return err
			}

			return e.withUser(cmd.Context(), false, func(*parkauth.User) error {
				records := transactions.Search(transactions.Filter(transactions.All(), sel.Range), search)
				out := cmd.OutOrStdout()

				switch {
				case csvPath != "":
					return writeExport(out, csvPath, len(records), func(w io.Writer) error {
						return export.WriteCSV(w, transactions.Columns, records)
					})
				case xlsxPath != "":
					return writeExport(out, xlsxPath, len(records), func(w io.Writer) error {
						return export.WriteXLSX(w, transactionsSheet, transactions.Columns, records)
					})
				}

				printTransactions(out, records)
				return nil
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&search, "search", "", "Plate number to search for")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write the list to this CSV file")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the list to this Excel file")
	return cmd
}

func newReportCmd(e *env) *cobra.Command {
	var (
		flags   rangeFlags
		outPath string
	)

	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Write the per-day report as CSV",
		Example: `  parkctl report --preset last_week --out report.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := flags.resolve(e, daterange.PresetThisWeek)
			if err != nil {
				return err
			}

			return e.withUser(cmd.Context(), false, func(*parkauth.User) error {
				rows, err := analytics.DailyReport(sel.Range)
				if err != nil {
					if errors.Is(err, analytics.ErrIncompleteRange) {
						return errors.New("the report needs a range with a start and end date")
					}
					return err
				}
				path := outPath
				if path == "" {
					path = export.Filename("parking-report", e.now(), export.FormatCSV)
				}
				return writeExport(cmd.OutOrStdout(), path, len(rows), func(w io.Writer) error {
					return export.WriteCSV(w, analytics.ReportColumns, rows)
				})
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default parking-report-<date>.csv)")
	return cmd
}

// writeExport renders into memory first so an empty export leaves no file behind.
func writeExport(out io.Writer, path string, rows int, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		if errors.Is(err, export.ErrNoRows) {
			color.New(color.FgYellow).Fprintln(out, "Nothing to export for this range")
			return nil
		}
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	color.New(color.FgGreen).Fprintf(out, "Wrote %d rows to %s\n", rows, path)
	return nil
}

func printTransactions(w io.Writer, records []transactions.Record) {
	if len(records) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No transactions found")
		return
	}

	paid := color.New(color.FgGreen)
	unpaid := color.New(color.FgRed)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLATE\tTYPE\tENTRY\tEXIT\tSTATUS\tAMOUNT")
	for _, record := range records {
		exit := record.ExitTime
		if exit == "" {
			exit = "-"
		}
		status := paid.Sprint(record.Status)
		if record.Status != transactions.StatusPaid {
			status = unpaid.Sprint(record.Status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			record.ID, record.PlateNumber, record.VehicleType, record.EntryTime, exit, status,
			analytics.FormatRupiah(record.Amount))
	}
	tw.Flush()

	totals := transactions.Summarize(records)
	fmt.Fprintf(w, "\n%d transactions, %d paid, %d unpaid, total %s\n",
		totals.Count, totals.Paid, totals.Unpaid, analytics.FormatRupiah(totals.Amount))
}
