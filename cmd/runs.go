package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/retail-report/internal/model"
	"github.com/sells-group/retail-report/internal/monitoring"
	"github.com/sells-group/retail-report/internal/render"
	"github.com/sells-group/retail-report/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect archived report runs",
	Long:  "Commands for listing and viewing report runs recorded with --archive.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		source, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:     model.RunStatus(status),
			SourcePath: source,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs, cfg.Report.Currency)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run with its phases and archived metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}

		phases, err := st.ListPhases(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show: phases")
		}
		monthly, err := st.ListMonthlyRevenue(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show: monthly revenue")
		}
		customers, _ := cmd.Flags().GetInt("customers")
		metrics, err := st.ListCustomerMetrics(ctx, run.ID, customers)
		if err != nil {
			return eris.Wrap(err, "runs show: customer metrics")
		}

		formatRunDetail(cmd.OutOrStdout(), runDetail{
			Run:       run,
			Phases:    phases,
			Monthly:   monthly,
			Customers: metrics,
		}, cfg.Report.Currency)
		return nil
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		snap, err := monitoring.NewCollector(st).Collect(ctx, since)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(cmd.OutOrStdout(), snap, cfg.Report.Currency)
		return nil
	},
}

func init() {
	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (0 = whole archive)")

	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().String("source", "", "filter by input file path")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsListCmd.Flags().Int("offset", 0, "number of runs to skip")

	runsShowCmd.Flags().Bool("json", false, "print the raw run record as JSON")
	runsShowCmd.Flags().Int("customers", 10, "number of archived customers to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run, currency string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tREVENUE\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t-------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		revenue := "-"
		if r.Report != nil {
			revenue = render.Money(r.Report.Totals.Revenue, currency)
		}

		source := filepath.Base(r.Source.Path)
		if len(source) > 30 {
			source = source[:27] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			source,
			r.Status,
			revenue,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// runDetail is everything runs show prints for one run.
type runDetail struct {
	Run       *model.Run
	Phases    []model.RunPhase
	Monthly   []model.MonthlyRevenue
	Customers []model.CustomerRFM
}

// formatRunDetail writes a run, its phases and its archived metrics to w.
func formatRunDetail(out io.Writer, d runDetail, currency string) {
	r := d.Run
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", r.ID)
	_, _ = fmt.Fprintf(w, "Source:\t%s\n", r.Source.Path)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", r.Status)
	_, _ = fmt.Fprintf(w, "Created:\t%s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", r.UpdatedAt.Sub(r.CreatedAt).Round(time.Millisecond))
	if r.Error != "" {
		_, _ = fmt.Fprintf(w, "Error:\t%s\n", r.Error)
	}
	if r.Report != nil {
		_, _ = fmt.Fprintf(w, "Revenue:\t%s\n", render.Money(r.Report.Totals.Revenue, currency))
		_, _ = fmt.Fprintf(w, "Orders:\t%s\n", render.Int(r.Report.Totals.Orders))
		_, _ = fmt.Fprintf(w, "Customers:\t%s\n", render.Int(r.Report.Totals.Customers))
	}
	_ = w.Flush()

	if len(d.Phases) > 0 {
		_, _ = fmt.Fprintln(out, "\nPhases")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tROWS\tDURATION\tERROR")
		for _, p := range d.Phases {
			rows, dur, errMsg := "", "", ""
			if p.Result != nil {
				rows = render.Int(p.Result.Rows)
				dur = (time.Duration(p.Result.Duration) * time.Millisecond).String()
				errMsg = p.Result.Error
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Status, rows, dur, errMsg)
		}
		_ = w.Flush()
	}

	if len(d.Monthly) > 0 {
		_, _ = fmt.Fprintln(out, "\nMonthly revenue")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		for _, m := range d.Monthly {
			_, _ = fmt.Fprintf(w, "%s\t%s\t\n", m.YearMonth, render.Money(m.Revenue, currency))
		}
		_ = w.Flush()
	}

	if len(d.Customers) > 0 {
		_, _ = fmt.Fprintln(out, "\nTop customers")
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		_, _ = fmt.Fprintln(w, "CUSTOMER\tRECENCY\tFREQUENCY\tMONETARY\t")
		for _, c := range d.Customers {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\t\n", c.CustomerID, c.RecencyDays, c.Frequency, render.Money(c.Monetary, currency))
		}
		_ = w.Flush()
	}
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s *monitoring.Snapshot, currency string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.Running)
	_, _ = fmt.Fprintf(w, "Fail rate:\t%.1f%%\n", s.FailRate*100)
	_, _ = fmt.Fprintf(w, "Input files:\t%d\n", s.Sources)
	if s.Complete > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%s\n", s.AvgDuration.Round(time.Millisecond))
		_, _ = fmt.Fprintf(w, "Max duration:\t%s\n", s.MaxDuration.Round(time.Millisecond))
		_, _ = fmt.Fprintf(w, "Avg revenue:\t%s\n", render.Money(s.AvgRevenue, currency))
	}
	if s.LatestFailure != "" {
		_, _ = fmt.Fprintf(w, "Latest failure:\t%s\n", s.LatestFailure)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
