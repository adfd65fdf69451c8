package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/retail-report/internal/model"
	"github.com/sells-group/retail-report/internal/resilience"
	"github.com/sells-group/retail-report/internal/store"
)

// tracker times each phase and mirrors runs and phases into the archive
// when one is configured. Archive failures are logged and never change the
// outcome of the run. Final writes are retried on transient errors.
type tracker struct {
	ctx   context.Context
	store store.Store
	run   *model.Run
	log   *zap.Logger
	retry resilience.RetryConfig
}

func (p *Pipeline) newTracker(ctx context.Context, path string, log *zap.Logger) *tracker {
	tr := &tracker{ctx: ctx, log: log, retry: p.opts.Retry}
	if p.store == nil {
		return tr
	}
	run, err := p.store.CreateRun(ctx, model.Source{Path: path})
	if err != nil {
		log.Warn("pipeline: failed to create run, archiving disabled", zap.Error(err))
		return tr
	}
	tr.store = p.store
	tr.run = run
	tr.log = log.With(zap.String("run_id", run.ID))
	return tr
}

// RunID returns the archived run id, or "" when nothing is archived.
func (t *tracker) RunID() string {
	if t.run == nil {
		return ""
	}
	return t.run.ID
}

// phase runs fn as a named phase and returns fn's error.
func (t *tracker) phase(name string, fn func() (*model.PhaseResult, error)) error {
	var phase *model.RunPhase
	if t.run != nil {
		var err error
		phase, err = t.store.CreatePhase(t.ctx, t.run.ID, name)
		if err != nil {
			t.log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(err))
		}
	}

	start := time.Now()
	result, fnErr := fn()
	duration := time.Since(start).Milliseconds()

	if result == nil {
		result = &model.PhaseResult{}
	}
	result.Name = name
	result.Duration = duration

	if fnErr != nil {
		result.Status = model.PhaseStatusFailed
		result.Error = fnErr.Error()
		t.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(fnErr),
		)
	} else {
		result.Status = model.PhaseStatusComplete
		t.log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Int("rows", result.Rows),
		)
	}

	if phase != nil {
		if err := t.store.CompletePhase(t.ctx, phase.ID, result); err != nil {
			t.log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(err))
		}
	}
	return fnErr
}

// fail marks the run failed and returns err unchanged.
func (t *tracker) fail(err error) error {
	if t.run != nil {
		archErr := resilience.Do(t.ctx, t.retryFor("fail_run"), func(ctx context.Context) error {
			return t.store.FailRun(ctx, t.run.ID, err.Error())
		})
		if archErr != nil {
			t.log.Warn("pipeline: failed to record run failure", zap.Error(archErr))
		}
	}
	return err
}

// complete archives the report and its summary tables.
func (t *tracker) complete(report *model.Report) {
	if t.run == nil {
		return
	}
	_ = t.phase(PhaseArchive, func() (*model.PhaseResult, error) {
		customers, err := resilience.DoVal(t.ctx, t.retryFor("save_customer_metrics"), func(ctx context.Context) (int64, error) {
			return t.store.SaveCustomerMetrics(ctx, t.run.ID, report.Customers)
		})
		if err != nil {
			return nil, err
		}
		months, err := resilience.DoVal(t.ctx, t.retryFor("save_monthly_revenue"), func(ctx context.Context) (int64, error) {
			return t.store.SaveMonthlyRevenue(ctx, t.run.ID, report.Monthly)
		})
		if err != nil {
			return nil, err
		}
		return &model.PhaseResult{
			Rows: int(customers),
			Metadata: map[string]any{
				"customer_metrics": customers,
				"monthly_revenue":  months,
			},
		}, nil
	})

	err := resilience.Do(t.ctx, t.retryFor("complete_run"), func(ctx context.Context) error {
		return t.store.CompleteRun(ctx, t.run.ID, report)
	})
	if err != nil {
		t.log.Warn("pipeline: failed to complete run", zap.Error(err))
	}
}

func (t *tracker) retryFor(operation string) resilience.RetryConfig {
	cfg := t.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger("store." + operation)
	}
	return cfg
}
