// Package monitoring summarizes the run archive: how many reports ran,
// how many failed, how long they took and what they reported.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/retail-report/internal/model"
	"github.com/sells-group/retail-report/internal/store"
)

// maxRuns bounds the runs read for one snapshot.
const maxRuns = 10000

// Snapshot holds run statistics for a lookback window.
type Snapshot struct {
	Total    int     `json:"total"`
	Complete int     `json:"complete"`
	Failed   int     `json:"failed"`
	Running  int     `json:"running"`
	FailRate float64 `json:"fail_rate"`
	Sources  int     `json:"sources"` // distinct input paths

	// Duration and revenue figures cover complete runs only.
	AvgDuration time.Duration   `json:"avg_duration"`
	MaxDuration time.Duration   `json:"max_duration"`
	Revenue     decimal.Decimal `json:"revenue"`
	AvgRevenue  decimal.Decimal `json:"avg_revenue"`

	// LatestFailure is the error of the most recent failed run.
	LatestFailure string `json:"latest_failure,omitempty"`

	Lookback    time.Duration `json:"lookback"`
	CollectedAt time.Time     `json:"collected_at"`
}

// RunLister is the part of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers run statistics from the archive.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a collector reading from runs.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect summarizes the runs created within lookback of now. A zero
// lookback covers the whole archive.
func (c *Collector) Collect(ctx context.Context, lookback time.Duration) (*Snapshot, error) {
	now := c.now().UTC()
	snap := &Snapshot{Lookback: lookback, CollectedAt: now}

	filter := store.RunFilter{Limit: maxRuns}
	if lookback > 0 {
		filter.CreatedAfter = now.Add(-lookback)
	}
	runs, err := c.runs.ListRuns(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	sources := make(map[string]struct{})
	var totalDur time.Duration
	var latestFailure time.Time

	snap.Total = len(runs)
	for _, r := range runs {
		sources[r.Source.Path] = struct{}{}

		switch r.Status {
		case model.RunStatusComplete:
			snap.Complete++
			dur := r.UpdatedAt.Sub(r.CreatedAt)
			totalDur += dur
			snap.MaxDuration = max(snap.MaxDuration, dur)
			if r.Report != nil {
				snap.Revenue = snap.Revenue.Add(r.Report.Totals.Revenue)
			}
		case model.RunStatusFailed:
			snap.Failed++
			if r.CreatedAt.After(latestFailure) {
				latestFailure = r.CreatedAt
				snap.LatestFailure = r.Error
			}
		case model.RunStatusRunning:
			snap.Running++
		}
	}
	snap.Sources = len(sources)

	if finished := snap.Complete + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	if snap.Complete > 0 {
		snap.AvgDuration = totalDur / time.Duration(snap.Complete)
		snap.AvgRevenue = snap.Revenue.Div(decimal.NewFromInt(int64(snap.Complete))).Round(2)
	}
	return snap, nil
}
