// Package db holds the Postgres bulk-write helpers used by the run archive.
package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of *pgxpool.Pool used by the archive. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Table describes an archive table written in bulk. Name may be
// schema-qualified ("archive.monthly_revenue"). Key lists the columns of its
// unique constraint and is only needed for upserts.
type Table struct {
	Name    string
	Columns []string
	Key     []string
}

// Encoder turns the i-th item of a batch into a row matching Table.Columns.
type Encoder[T any] func(i int, item T) ([]any, error)

func (t Table) identifier() pgx.Identifier {
	return pgx.Identifier(strings.SplitN(t.Name, ".", 2))
}

// nonKey returns the columns rewritten when a row already exists.
func (t Table) nonKey() []string {
	key := make(map[string]bool, len(t.Key))
	for _, k := range t.Key {
		key[k] = true
	}
	var cols []string
	for _, c := range t.Columns {
		if !key[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// stagingName is the temp table an upsert copies into.
func (t Table) stagingName() string {
	return "_stage_" + strings.ReplaceAll(t.Name, ".", "_")
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
