package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// testSheet is one named sheet of a fixture workbook.
type testSheet struct {
	name string
	rows [][]string
}

func createTestXLSX(t *testing.T, sheets ...testSheet) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func collectRows(t *testing.T, rowCh <-chan Record, errCh <-chan error) ([][]string, error) {
	t.Helper()
	recs, err := collectRecords(t, rowCh, errCh)
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = rec.Fields
	}
	return rows, err
}

func collectRecords(t *testing.T, rowCh <-chan Record, errCh <-chan error) ([]Record, error) {
	t.Helper()
	var rows []Record
	for row := range rowCh {
		rows = append(rows, row)
	}
	// Drain error channel
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

var retailHeader = []string{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"}
