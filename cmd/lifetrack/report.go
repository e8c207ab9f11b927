package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"lifetrack/internal/core"
	"lifetrack/internal/services"
)

func newReportCmd() *cobra.Command {
	now := time.Now()
	var month, year int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the expense breakdown, budgets and monthly totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			res, err := openBackend(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer closeBackend(res, logger)

			svc := services.NewExpenseService(res.Repository, nil, logger)
			report, err := svc.Report(cmd.Context(), month, year)
			if err != nil {
				return fmt.Errorf("build report: %w", err)
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "month to report (1-12)")
	cmd.Flags().IntVar(&year, "year", now.Year(), "year to report")
	return cmd
}

func printReport(out io.Writer, r services.Report) error {
	title := time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	fmt.Fprintf(out, "%s: %s\n\n", title, core.FormatAmount(r.Total))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tTOTAL")
	if len(r.Breakdown) == 0 {
		fmt.Fprintln(w, "(none)\t")
	}
	for _, c := range r.Breakdown {
		fmt.Fprintf(w, "%s\t%s\n", c.Name, core.FormatAmount(c.Total))
	}
	fmt.Fprintln(w)

	if len(r.Budgets) > 0 {
		fmt.Fprintln(w, "BUDGET\tSPENT\tAMOUNT\tUSED")
		for _, b := range r.Budgets {
			marker := ""
			if b.Over {
				marker = " over"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d%%%s\n", b.Category.Name,
				core.FormatAmount(b.Spent), core.FormatAmount(b.Budget.Amount), b.Percent, marker)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "MONTH\tTOTAL")
	for _, m := range r.Months {
		fmt.Fprintf(w, "%s\t%s\n", m.Label, core.FormatAmount(m.Total))
	}
	return w.Flush()
}
