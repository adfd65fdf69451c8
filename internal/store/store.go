// Package store archives report runs: their status, stage timings, the
// finished report and per-customer metrics.
package store

import (
	"context"
	"time"

	"github.com/sells-group/retail-report/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status     model.RunStatus `json:"status,omitempty"`
	SourcePath string          `json:"source_path,omitempty"`
	// CreatedAfter keeps runs created at or after the given time.
	CreatedAfter time.Time `json:"created_after,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Offset       int       `json:"offset,omitempty"`
}

// Store defines the persistence interface for the run archive.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, source model.Source) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, report *model.Report) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error
	ListPhases(ctx context.Context, runID string) ([]model.RunPhase, error)

	// Summary tables
	SaveCustomerMetrics(ctx context.Context, runID string, rows []model.CustomerRFM) (int64, error)
	ListCustomerMetrics(ctx context.Context, runID string, limit int) ([]model.CustomerRFM, error)
	SaveMonthlyRevenue(ctx context.Context, runID string, rows []model.MonthlyRevenue) (int64, error)
	ListMonthlyRevenue(ctx context.Context, runID string) ([]model.MonthlyRevenue, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// defaultListLimit caps ListRuns when the filter sets no limit.
const defaultListLimit = 100
