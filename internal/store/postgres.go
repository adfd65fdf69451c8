package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/retail-report/internal/db"
	"github.com/sells-group/retail-report/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. The caller owns the pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_path TEXT NOT NULL,
	source      JSONB NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	report      JSONB,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_phases (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     JSONB,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customer_metrics (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	rank         INTEGER NOT NULL,
	customer_id  TEXT NOT NULL,
	recency_days INTEGER NOT NULL,
	frequency    INTEGER NOT NULL,
	monetary     NUMERIC NOT NULL,
	PRIMARY KEY (run_id, customer_id)
);

CREATE TABLE IF NOT EXISTS monthly_revenue (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	year_month TEXT NOT NULL,
	month      TEXT NOT NULL,
	revenue    NUMERIC NOT NULL,
	PRIMARY KEY (run_id, year_month)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_source_path ON runs(source_path);
CREATE INDEX IF NOT EXISTS idx_run_phases_run_id ON run_phases(run_id);
CREATE INDEX IF NOT EXISTS idx_customer_metrics_rank ON customer_metrics(run_id, rank);
`

var customerMetricColumns = []string{"run_id", "rank", "customer_id", "recency_days", "frequency", "monetary"}

var monthlyRevenueColumns = []string{"run_id", "year_month", "month", "revenue"}

var (
	customerMetricsTable = db.Table{
		Name:    "customer_metrics",
		Columns: customerMetricColumns,
		Key:     []string{"run_id", "customer_id"},
	}
	monthlyRevenueTable = db.Table{
		Name:    "monthly_revenue",
		Columns: monthlyRevenueColumns,
		Key:     []string{"run_id", "year_month"},
	}
)

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, source model.Source) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	sourceJSON, err := json.Marshal(source)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal source")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, source_path, source, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, source.Path, sourceJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Source:    source,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, report *model.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}
	sourceJSON, err := json.Marshal(report.Source)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal source")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET report = $1, source = $2, status = $3, updated_at = $4 WHERE id = $5`,
		reportJSON, sourceJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, status, report, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: get run %s: run not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, status, report, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.SourcePath != "" {
		query += fmt.Sprintf(` AND source_path = $%d`, argIdx)
		args = append(args, filter.SourcePath)
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.CreatedAfter)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO run_phases (id, run_id, name, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		id, runID, name, string(model.PhaseStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert phase for run %s", runID)
	}

	return &model.RunPhase{
		ID:        id,
		RunID:     runID,
		Name:      name,
		Status:    model.PhaseStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal phase result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE run_phases SET status = $1, result = $2 WHERE id = $3`,
		string(result.Status), resultJSON, phaseID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete phase %s", phaseID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("phase not found: %s", phaseID)
	}
	return nil
}

func (s *PostgresStore) ListPhases(ctx context.Context, runID string) ([]model.RunPhase, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, name, status, result, started_at FROM run_phases WHERE run_id = $1 ORDER BY started_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list phases for run %s", runID)
	}
	defer rows.Close()

	var phases []model.RunPhase
	for rows.Next() {
		var p model.RunPhase
		var resultJSON []byte
		if err := rows.Scan(&p.ID, &p.RunID, &p.Name, &p.Status, &resultJSON, &p.StartedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan phase")
		}
		if resultJSON != nil {
			p.Result = &model.PhaseResult{}
			if err := json.Unmarshal(resultJSON, p.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal phase result")
			}
		}
		phases = append(phases, p)
	}
	return phases, eris.Wrap(rows.Err(), "postgres: list phases iterate")
}

// SaveCustomerMetrics upserts the RFM table of a run through a staging
// table, so re-saving a run replaces its rows.
func (s *PostgresStore) SaveCustomerMetrics(ctx context.Context, runID string, rows []model.CustomerRFM) (int64, error) {
	n, err := db.Upsert(ctx, s.pool, customerMetricsTable, rows, func(i int, r model.CustomerRFM) ([]any, error) {
		monetary, err := numeric(r.Monetary)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: encode monetary for %s", r.CustomerID)
		}
		return []any{runID, int32(i + 1), r.CustomerID, int32(r.RecencyDays), int32(r.Frequency), monetary}, nil
	})
	return n, eris.Wrap(err, "postgres: save customer metrics")
}

func (s *PostgresStore) ListCustomerMetrics(ctx context.Context, runID string, limit int) ([]model.CustomerRFM, error) {
	query := `SELECT customer_id, recency_days, frequency, monetary::text FROM customer_metrics WHERE run_id = $1 ORDER BY rank`
	args := []any{runID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list customer metrics for run %s", runID)
	}
	defer rows.Close()

	out := []model.CustomerRFM{}
	for rows.Next() {
		var c model.CustomerRFM
		var monetary string
		if err := rows.Scan(&c.CustomerID, &c.RecencyDays, &c.Frequency, &monetary); err != nil {
			return nil, eris.Wrap(err, "postgres: scan customer metrics")
		}
		if c.Monetary, err = decimal.NewFromString(monetary); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse monetary for %s", c.CustomerID)
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list customer metrics iterate")
}

// SaveMonthlyRevenue upserts the monthly trend of a run. Archive retries may
// save the same months again.
func (s *PostgresStore) SaveMonthlyRevenue(ctx context.Context, runID string, rows []model.MonthlyRevenue) (int64, error) {
	n, err := db.Upsert(ctx, s.pool, monthlyRevenueTable, rows, func(_ int, r model.MonthlyRevenue) ([]any, error) {
		revenue, err := numeric(r.Revenue)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: encode revenue for %s", r.YearMonth)
		}
		return []any{runID, r.YearMonth, r.Month, revenue}, nil
	})
	return n, eris.Wrap(err, "postgres: save monthly revenue")
}

func (s *PostgresStore) ListMonthlyRevenue(ctx context.Context, runID string) ([]model.MonthlyRevenue, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT year_month, month, revenue::text FROM monthly_revenue WHERE run_id = $1 ORDER BY year_month`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list monthly revenue for run %s", runID)
	}
	defer rows.Close()

	out := []model.MonthlyRevenue{}
	for rows.Next() {
		var m model.MonthlyRevenue
		var revenue string
		if err := rows.Scan(&m.YearMonth, &m.Month, &revenue); err != nil {
			return nil, eris.Wrap(err, "postgres: scan monthly revenue")
		}
		if m.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse revenue for %s", m.YearMonth)
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list monthly revenue iterate")
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var sourceJSON, reportJSON []byte

	if err := row.Scan(&r.ID, &sourceJSON, &r.Status, &reportJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sourceJSON, &r.Source); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal source")
	}
	if reportJSON != nil {
		r.Report = &model.Report{}
		if err := json.Unmarshal(reportJSON, r.Report); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal report")
		}
	}
	return &r, nil
}

// numeric converts an exact decimal into the pgx NUMERIC representation.
func numeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return n, err
	}
	return n, nil
}
