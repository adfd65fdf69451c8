package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Upsert writes items into t, replacing rows whose Key already exists. The
// batch is copied into a transaction-scoped staging table and merged with
// INSERT ... ON CONFLICT, so saving the same run twice leaves one copy.
func Upsert[T any](ctx context.Context, pool Pool, t Table, items []T, enc Encoder[T]) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if len(t.Columns) == 0 {
		return 0, eris.Errorf("db: upsert %s: no columns", t.Name)
	}
	if len(t.Key) == 0 {
		return 0, eris.Errorf("db: upsert %s: no key columns", t.Name)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: begin", t.Name)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stage := Table{Name: t.stagingName(), Columns: t.Columns}
	staging := pgx.Identifier{stage.Name}
	if _, err := tx.Exec(ctx, fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		staging.Sanitize(), t.identifier().Sanitize(),
	)); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: create staging table", t.Name)
	}

	if _, err := CopyRows(ctx, tx, stage, items, enc); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: copy into staging table", t.Name)
	}

	tag, err := tx.Exec(ctx, mergeStatement(t, staging))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: merge", t.Name)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "db: upsert %s: commit", t.Name)
	}
	return tag.RowsAffected(), nil
}

// mergeStatement moves staged rows into t. A table made only of key columns
// has nothing to update and skips conflicting rows instead.
func mergeStatement(t Table, staging pgx.Identifier) string {
	cols := quoteAndJoin(t.Columns)
	action := "DO NOTHING"
	if update := t.nonKey(); len(update) > 0 {
		set := make([]string, len(update))
		for i, c := range update {
			q := pgx.Identifier{c}.Sanitize()
			set[i] = q + " = EXCLUDED." + q
		}
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		t.identifier().Sanitize(), cols, cols, staging.Sanitize(), quoteAndJoin(t.Key), action,
	)
}
