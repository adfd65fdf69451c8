package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// drainPool records the rows a COPY would send. Only CopyFrom is usable.
type drainPool struct {
	Pool
	table pgx.Identifier
	rows  [][]any
}

func (p *drainPool) CopyFrom(_ context.Context, table pgx.Identifier, _ []string, src pgx.CopyFromSource) (int64, error) {
	p.table = table
	for src.Next() {
		row, err := src.Values()
		if err != nil {
			return 0, err
		}
		p.rows = append(p.rows, row)
	}
	return int64(len(p.rows)), src.Err()
}

type month struct {
	key     string
	revenue string
}

var monthlyTable = Table{
	Name:    "monthly_revenue",
	Columns: []string{"run_id", "year_month", "revenue"},
}

var metricsTable = Table{
	Name:    "customer_metrics",
	Columns: []string{"run_id", "customer_id", "monetary"},
	Key:     []string{"run_id", "customer_id"},
}

func encodeMonth(_ int, m month) ([]any, error) {
	return []any{"r1", m.key, m.revenue}, nil
}
