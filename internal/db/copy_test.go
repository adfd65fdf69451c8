package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyRows_Empty(t *testing.T) {
	n, err := CopyRows(context.TODO(), nil, monthlyTable, []month{}, encodeMonth)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyRows_NoColumns(t *testing.T) {
	_, err := CopyRows(context.TODO(), nil, Table{Name: "monthly_revenue"}, []month{{key: "2010-12"}}, encodeMonth)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns")
}

func TestCopyRows_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"monthly_revenue"}, monthlyTable.Columns).WillReturnResult(3)

	n, err := CopyRows(context.Background(), mock, monthlyTable, []month{
		{"2010-12", "10.00"}, {"2011-01", "5.00"}, {"2011-02", "1.50"},
	}, encodeMonth)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyRows_SchemaQualified(t *testing.T) {
	pool := &drainPool{}
	table := Table{Name: "archive.monthly_revenue", Columns: monthlyTable.Columns}

	n, err := CopyRows(context.Background(), pool, table, []month{{"2010-12", "10.00"}}, encodeMonth)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, pgx.Identifier{"archive", "monthly_revenue"}, pool.table)
}

func TestCopyRows_EncodesInOrder(t *testing.T) {
	pool := &drainPool{}
	_, err := CopyRows(context.Background(), pool, monthlyTable, []string{"a", "b"}, func(i int, s string) ([]any, error) {
		return []any{"r1", s, i}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"r1", "a", 0}, {"r1", "b", 1}}, pool.rows)
}

func TestCopyRows_EncodeError(t *testing.T) {
	pool := &drainPool{}
	_, err := CopyRows(context.Background(), pool, monthlyTable, []month{{"2010-12", "x"}}, func(int, month) ([]any, error) {
		return nil, fmt.Errorf("bad revenue")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad revenue")
	assert.Contains(t, err.Error(), "copy into monthly_revenue")
}

func TestCopyRows_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"monthly_revenue"}, monthlyTable.Columns).WillReturnError(fmt.Errorf("copy failed"))

	_, err = CopyRows(context.Background(), mock, monthlyTable, []month{{"2010-12", "1.00"}}, encodeMonth)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy into monthly_revenue")
	assert.NoError(t, mock.ExpectationsWereMet())
}
