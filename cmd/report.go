package main

import (
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/retail-report/internal/config"
	"github.com/sells-group/retail-report/internal/export"
	"github.com/sells-group/retail-report/internal/loader"
	"github.com/sells-group/retail-report/internal/model"
	"github.com/sells-group/retail-report/internal/pipeline"
	"github.com/sells-group/retail-report/internal/render"
	"github.com/sells-group/retail-report/internal/resilience"
	"github.com/sells-group/retail-report/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the report for a transaction file",
	Long: `Loads an XLSX workbook or delimited text file of retail transactions,
drops cancellations, returns and anonymous rows, and reports total revenue,
top products, the monthly trend, top countries and customer RFM metrics.

The summary is printed to stdout. Charts, the dashboard and data exports are
written to --out-dir unless --dry-run is set.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := applyReportFlags(cmd, cfg); err != nil {
			return err
		}

		input, _ := cmd.Flags().GetString("input")
		format, _ := cmd.Flags().GetString("format")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		archive, _ := cmd.Flags().GetBool("archive")

		if err := checkPrintFormat(format); err != nil {
			return err
		}

		loadOpts, err := loaderOptions(cfg.Input)
		if err != nil {
			return err
		}

		var outputs []pipeline.Output
		if !dryRun {
			outputs, err = buildOutputs(cfg.Report)
			if err != nil {
				return err
			}
		}

		var st store.Store
		if archive {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		p := pipeline.New(pipeline.Options{
			Load:  loadOpts,
			TopN:  cfg.Report.TopN,
			Retry: resilience.FromStoreConfig(cfg.Store.RetryAttempts, cfg.Store.RetryBackoffMs),
		}, st, outputs...)
		report, err := p.Run(ctx, input)
		if err != nil {
			return eris.Wrap(err, "report")
		}

		if !dryRun {
			zap.L().Info("report artifacts written", zap.String("dir", cfg.Report.OutDir))
		}
		return printReport(cmd.OutOrStdout(), report, format, cfg.Report.Currency)
	},
}

func init() {
	f := reportCmd.Flags()
	f.String("input", "", "transaction file (.xlsx or delimited text)")
	f.String("out-dir", "", "directory for charts, dashboard and exports (default report.out_dir)")
	f.Int("top", 0, "size of the ranked tables (default report.top_n)")
	f.String("sheet", "", "worksheet name (default: first sheet)")
	f.String("format", "text", "stdout format: text, json or yaml")
	f.Bool("strict", false, "fail on the first unparseable row")
	f.Bool("dry-run", false, "print the summary without writing any files")
	f.Bool("no-render", false, "skip charts and the dashboard")
	f.Bool("archive", false, "record the run in the configured store")
	_ = reportCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(reportCmd)
}

// applyReportFlags overrides config values with flags set on the command line.
func applyReportFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		c.Report.OutDir, _ = flags.GetString("out-dir")
	}
	if flags.Changed("top") {
		top, _ := flags.GetInt("top")
		if top <= 0 {
			return eris.Errorf("--top must be positive, got %d", top)
		}
		c.Report.TopN = top
	}
	if flags.Changed("sheet") {
		c.Input.Sheet, _ = flags.GetString("sheet")
	}
	if flags.Changed("strict") {
		c.Input.Strict, _ = flags.GetBool("strict")
	}
	if noRender, _ := flags.GetBool("no-render"); noRender {
		c.Report.Render = false
	}
	return nil
}

// loaderOptions maps the input config onto loader options.
func loaderOptions(in config.InputConfig) (loader.Options, error) {
	opts := loader.Options{
		SheetName:  in.Sheet,
		SheetIndex: in.SheetIndex,
		Encoding:   in.Encoding,
		Strict:     in.Strict,
		Location:   time.UTC,
	}
	if in.Timezone != "" {
		loc, err := time.LoadLocation(in.Timezone)
		if err != nil {
			return opts, eris.Wrapf(err, "invalid input.timezone %q", in.Timezone)
		}
		opts.Location = loc
	}
	if r := []rune(in.Delimiter); len(r) == 1 {
		opts.Delimiter = r[0]
	}
	return opts, nil
}

// buildOutputs returns the renderer and exporter enabled by the config.
func buildOutputs(rc config.ReportConfig) ([]pipeline.Output, error) {
	var outputs []pipeline.Output
	if rc.Render {
		outputs = append(outputs, render.New(rc.OutDir, rc.Currency))
	}
	if len(rc.Formats) > 0 {
		exp, err := export.New(rc.OutDir, rc.Formats)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, exp)
	}
	return outputs, nil
}

func checkPrintFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	default:
		return eris.Errorf("unsupported --format %q (want text, json or yaml)", format)
	}
}

// printReport writes the report to out in the requested format.
func printReport(out io.Writer, report *model.Report, format, currency string) error {
	switch format {
	case "json":
		return export.Marshal(out, report, export.FormatJSON)
	case "yaml":
		return export.Marshal(out, report, export.FormatYAML)
	default:
		return render.WriteSummary(out, report, currency)
	}
}
