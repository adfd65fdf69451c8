// Package pipeline turns loaded transactions into a report: it cleans,
// enriches and aggregates them, then hands the report to the configured
// outputs.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/retail-report/internal/loader"
	"github.com/sells-group/retail-report/internal/model"
	"github.com/sells-group/retail-report/internal/resilience"
	"github.com/sells-group/retail-report/internal/store"
)

// Phase names recorded in the run archive.
const (
	PhaseLoad      = "1_load"
	PhaseClean     = "2_clean"
	PhaseEnrich    = "3_enrich"
	PhaseAggregate = "4_aggregate"
	PhaseArchive   = "6_archive"
)

// Output receives the finished report, e.g. a renderer or an exporter.
type Output interface {
	Name() string
	Write(ctx context.Context, report *model.Report) error
}

// Options configures a Pipeline.
type Options struct {
	Load loader.Options
	TopN int
	// Now stamps Report.GeneratedAt. Defaults to time.Now.
	Now func() time.Time
	// Retry applies to the final archive writes.
	Retry resilience.RetryConfig
}

// Pipeline runs the report stages for one input file.
type Pipeline struct {
	opts    Options
	store   store.Store
	outputs []Output
}

// New creates a Pipeline. st may be nil, in which case nothing is archived.
func New(opts Options, st store.Store, outputs ...Output) *Pipeline {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts, store: st, outputs: outputs}
}

// Run loads the file at path, computes the report and writes every output.
// Any stage error aborts the run.
func (p *Pipeline) Run(ctx context.Context, path string) (*model.Report, error) {
	log := zap.L().With(zap.String("input", path))
	log.Info("pipeline: starting report")

	tr := p.newTracker(ctx, path, log)

	var loaded *loader.Result
	if err := tr.phase(PhaseLoad, func() (*model.PhaseResult, error) {
		res, err := loader.Load(ctx, path, p.opts.Load)
		if err != nil {
			return nil, err
		}
		loaded = res
		return &model.PhaseResult{
			Rows: len(res.Rows),
			Metadata: map[string]any{
				"format":  res.Source.Format,
				"sheet":   res.Source.Sheet,
				"skipped": res.Stats.Skipped,
				"blank":   res.Stats.Blank,
			},
		}, nil
	}); err != nil {
		return nil, tr.fail(err)
	}

	var clean []model.Transaction
	var stats model.CleanStats
	if err := tr.phase(PhaseClean, func() (*model.PhaseResult, error) {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		clean, stats = Clean(loaded.Rows)
		return &model.PhaseResult{
			Rows: stats.Kept,
			Metadata: map[string]any{
				"dropped":               stats.Dropped(),
				"cancelled":             stats.Cancelled,
				"non_positive_quantity": stats.NonPositiveQuantity,
				"non_positive_price":    stats.NonPositivePrice,
				"missing_customer":      stats.MissingCustomer,
			},
		}, nil
	}); err != nil {
		return nil, tr.fail(err)
	}

	var enriched []model.EnrichedTransaction
	if err := tr.phase(PhaseEnrich, func() (*model.PhaseResult, error) {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		enriched = Enrich(clean)
		return &model.PhaseResult{Rows: len(enriched)}, nil
	}); err != nil {
		return nil, tr.fail(err)
	}

	var report *model.Report
	if err := tr.phase(PhaseAggregate, func() (*model.PhaseResult, error) {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		report = Aggregate(enriched, p.opts.TopN)
		return &model.PhaseResult{
			Rows: len(report.Customers),
			Metadata: map[string]any{
				"revenue":   report.Totals.Revenue.StringFixed(2),
				"orders":    report.Totals.Orders,
				"customers": report.Totals.Customers,
				"months":    len(report.Monthly),
			},
		}, nil
	}); err != nil {
		return nil, tr.fail(err)
	}
	report.Source = loaded.Source
	report.Load = loaded.Stats
	report.Clean = stats
	report.GeneratedAt = p.opts.Now().UTC()
	report.RunID = tr.RunID()

	for i, out := range p.outputs {
		name := outputPhaseName(i, out.Name())
		if err := tr.phase(name, func() (*model.PhaseResult, error) {
			if err := checkContext(ctx); err != nil {
				return nil, err
			}
			return nil, out.Write(ctx, report)
		}); err != nil {
			return nil, tr.fail(eris.Wrapf(err, "pipeline: output %s", out.Name()))
		}
	}

	tr.complete(report)

	log.Info("pipeline: report complete",
		zap.String("revenue", report.Totals.Revenue.StringFixed(2)),
		zap.Int("orders", report.Totals.Orders),
		zap.Int("customers", report.Totals.Customers),
		zap.Int("dropped", report.Clean.Dropped()),
	)
	return report, nil
}

func outputPhaseName(i int, name string) string {
	return "5" + string(rune('a'+i%26)) + "_" + name
}

// checkContext stops a run between stages once ctx is done.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "pipeline: context cancelled")
	}
	return nil
}
