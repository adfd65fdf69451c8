package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/sells-group/retail-report/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source_path TEXT NOT NULL,
	source      TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	report      TEXT,
	error       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_phases (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     TEXT,
	started_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS customer_metrics (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	rank         INTEGER NOT NULL,
	customer_id  TEXT NOT NULL,
	recency_days INTEGER NOT NULL,
	frequency    INTEGER NOT NULL,
	monetary     TEXT NOT NULL,
	PRIMARY KEY (run_id, customer_id)
);

CREATE TABLE IF NOT EXISTS monthly_revenue (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	year_month TEXT NOT NULL,
	month      TEXT NOT NULL,
	revenue    TEXT NOT NULL,
	PRIMARY KEY (run_id, year_month)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_source_path ON runs(source_path);
CREATE INDEX IF NOT EXISTS idx_run_phases_run_id ON run_phases(run_id);
CREATE INDEX IF NOT EXISTS idx_customer_metrics_rank ON customer_metrics(run_id, rank);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, source model.Source) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	sourceJSON, err := json.Marshal(source)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal source")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_path, source, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, source.Path, string(sourceJSON), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Source:    source,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, report *model.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}
	sourceJSON, err := json.Marshal(report.Source)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal source")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET report = ?, source = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(reportJSON), string(sourceJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, report, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, status, report, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.SourcePath != "" {
		query += ` AND source_path = ?`
		args = append(args, filter.SourcePath)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_phases (id, run_id, name, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, runID, name, string(model.PhaseStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert phase for run %s", runID)
	}

	return &model.RunPhase{
		ID:        id,
		RunID:     runID,
		Name:      name,
		Status:    model.PhaseStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal phase result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE run_phases SET status = ?, result = ? WHERE id = ?`,
		string(result.Status), string(resultJSON), phaseID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete phase %s", phaseID)
	}
	return checkRowsAffected(res, "phase", phaseID)
}

func (s *SQLiteStore) ListPhases(ctx context.Context, runID string) ([]model.RunPhase, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, name, status, result, started_at FROM run_phases WHERE run_id = ? ORDER BY started_at, rowid`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list phases for run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var phases []model.RunPhase
	for rows.Next() {
		var p model.RunPhase
		var resultJSON sql.NullString
		if err := rows.Scan(&p.ID, &p.RunID, &p.Name, &p.Status, &resultJSON, &p.StartedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan phase")
		}
		if resultJSON.Valid {
			p.Result = &model.PhaseResult{}
			if err := json.Unmarshal([]byte(resultJSON.String), p.Result); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal phase result")
			}
		}
		phases = append(phases, p)
	}
	return phases, eris.Wrap(rows.Err(), "sqlite: list phases iterate")
}

// SaveCustomerMetrics stores the RFM table of a run in one transaction.
// Saving the same run twice replaces the earlier rows.
func (s *SQLiteStore) SaveCustomerMetrics(ctx context.Context, runID string, rows []model.CustomerRFM) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin customer metrics tx")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO customer_metrics (run_id, rank, customer_id, recency_days, frequency, monetary)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare customer metrics insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range rows {
		if _, err := stmt.ExecContext(ctx, runID, i+1, r.CustomerID, r.RecencyDays, r.Frequency, r.Monetary.String()); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert customer metrics %s", r.CustomerID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit customer metrics")
	}
	return int64(len(rows)), nil
}

// ListCustomerMetrics returns the stored RFM rows of a run in report order.
// A non-positive limit returns every row.
func (s *SQLiteStore) ListCustomerMetrics(ctx context.Context, runID string, limit int) ([]model.CustomerRFM, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT customer_id, recency_days, frequency, monetary FROM customer_metrics
		 WHERE run_id = ? ORDER BY rank LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list customer metrics for run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	out := []model.CustomerRFM{}
	for rows.Next() {
		var c model.CustomerRFM
		var monetary string
		if err := rows.Scan(&c.CustomerID, &c.RecencyDays, &c.Frequency, &monetary); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan customer metrics")
		}
		if c.Monetary, err = decimal.NewFromString(monetary); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse monetary for %s", c.CustomerID)
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list customer metrics iterate")
}

func (s *SQLiteStore) SaveMonthlyRevenue(ctx context.Context, runID string, rows []model.MonthlyRevenue) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin monthly revenue tx")
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO monthly_revenue (run_id, year_month, month, revenue) VALUES (?, ?, ?, ?)`,
			runID, r.YearMonth, r.Month, r.Revenue.String(),
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert monthly revenue %s", r.YearMonth)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit monthly revenue")
	}
	return int64(len(rows)), nil
}

func (s *SQLiteStore) ListMonthlyRevenue(ctx context.Context, runID string) ([]model.MonthlyRevenue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year_month, month, revenue FROM monthly_revenue WHERE run_id = ? ORDER BY year_month`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list monthly revenue for run %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	out := []model.MonthlyRevenue{}
	for rows.Next() {
		var m model.MonthlyRevenue
		var revenue string
		if err := rows.Scan(&m.YearMonth, &m.Month, &revenue); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan monthly revenue")
		}
		if m.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse revenue for %s", m.YearMonth)
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list monthly revenue iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var sourceJSON string
	var reportJSON sql.NullString

	err := row.Scan(&r.ID, &sourceJSON, &r.Status, &reportJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(sourceJSON), &r.Source); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal source")
	}
	if reportJSON.Valid {
		r.Report = &model.Report{}
		if err := json.Unmarshal([]byte(reportJSON.String), r.Report); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal report")
		}
	}
	return &r, nil
}
