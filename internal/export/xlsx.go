package export

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/retail-report/internal/model"
)

const moneyFormat = "#,##0.00"

// WriteXLSX writes a workbook with a Summary sheet followed by one sheet per
// summary table.
func WriteXLSX(report *model.Report, path string) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addRow(summary, "Source", report.Source.Path)
	if report.RunID != "" {
		addRow(summary, "Run", report.RunID)
	}
	if !report.GeneratedAt.IsZero() {
		addRow(summary, "Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	addRow(summary, "Total revenue", report.Totals.Revenue)
	addRow(summary, "Orders", report.Totals.Orders)
	addRow(summary, "Customers", report.Totals.Customers)
	addRow(summary, "Rows kept", report.Clean.Kept)
	addRow(summary, "Rows dropped", report.Clean.Dropped())

	for _, t := range Tables(report) {
		sheet, err := f.AddSheet(sheetTitle(t.Name))
		if err != nil {
			return eris.Wrapf(err, "export: add %s sheet", t.Name)
		}
		header := make([]any, len(t.Header))
		for i, h := range t.Header {
			header[i] = h
		}
		addRow(sheet, header...)
		for _, row := range t.Rows {
			addRow(sheet, row...)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// addRow appends typed cells: amounts become numeric cells with a money
// format, ints become integer cells.
func addRow(sheet *xlsx.Sheet, values ...any) {
	row := sheet.AddRow()
	for _, v := range values {
		cell := row.AddCell()
		switch x := v.(type) {
		case int:
			cell.SetInt(x)
		case decimal.Decimal:
			cell.SetFloatWithFormat(x.InexactFloat64(), moneyFormat)
		default:
			cell.SetString(cellText(v))
		}
	}
}

// sheetTitle turns a table name into a sheet title ("products" -> "Products").
func sheetTitle(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
