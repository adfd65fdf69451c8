package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyRows streams items into t with the COPY protocol. Rows are encoded as
// pgx consumes them; an encode error aborts the copy. pool may be a pgx.Tx.
func CopyRows[T any](ctx context.Context, pool Pool, t Table, items []T, enc Encoder[T]) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if len(t.Columns) == 0 {
		return 0, eris.Errorf("db: copy into %s: no columns", t.Name)
	}

	n, err := pool.CopyFrom(ctx, t.identifier(), t.Columns, source(items, enc))
	if err != nil {
		return 0, eris.Wrapf(err, "db: copy into %s", t.Name)
	}
	return n, nil
}

func source[T any](items []T, enc Encoder[T]) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
		return enc(i, items[i])
	})
}
