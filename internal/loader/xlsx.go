package loader

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	Raw        bool   // read stored cell values instead of formatted text
}

// Workbook holds the rows of one sheet.
type Workbook struct {
	Sheet    string
	Rows     [][]string
	Date1904 bool // serial dates count from 1904-01-01
}

// ReadXLSX reads one sheet of an XLSX file and returns all rows as string slices.
func ReadXLSX(path string, opts XLSXOptions) (*Workbook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return readSheet(f, opts)
}

func readSheet(f *xlsx.File, opts XLSXOptions) (*Workbook, error) {
	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	wb := &Workbook{Sheet: sheet.Name, Date1904: f.Date1904}
	for _, row := range sheet.Rows {
		wb.Rows = append(wb.Rows, rowToStrings(row, opts.Raw))
	}

	return wb, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row, raw bool) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		if raw {
			cells[j] = cell.Value
		} else {
			cells[j] = cell.String()
		}
	}
	return cells
}
