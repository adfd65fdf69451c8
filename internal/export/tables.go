package export

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/sells-group/retail-report/internal/model"
)

// Table is one summary table shared by the CSV and XLSX writers. Cells hold
// a string, an int or a decimal.Decimal.
type Table struct {
	Name   string // file stem and sheet title
	Header []string
	Rows   [][]any
}

// Tables returns the report's summary tables in export order. The
// customers table is the full RFM table, not just the top customers.
func Tables(report *model.Report) []Table {
	products := Table{Name: "products", Header: []string{"rank", "stock_code", "description", "quantity", "revenue"}}
	for i, p := range report.TopProducts {
		products.Rows = append(products.Rows, []any{i + 1, p.StockCode, p.Description, p.Quantity, p.Revenue})
	}

	monthly := Table{Name: "monthly", Header: []string{"year_month", "month", "revenue"}}
	for _, m := range report.Monthly {
		monthly.Rows = append(monthly.Rows, []any{m.YearMonth, m.Month, m.Revenue})
	}

	countries := Table{Name: "countries", Header: []string{"rank", "country", "revenue"}}
	for i, c := range report.TopCountries {
		countries.Rows = append(countries.Rows, []any{i + 1, c.Country, c.Revenue})
	}

	weekdays := Table{Name: "weekdays", Header: []string{"weekday", "revenue"}}
	for _, w := range report.Weekdays {
		weekdays.Rows = append(weekdays.Rows, []any{w.Weekday, w.Revenue})
	}

	customers := Table{Name: "customers", Header: []string{"customer_id", "recency_days", "frequency", "monetary"}}
	for _, c := range report.Customers {
		customers.Rows = append(customers.Rows, []any{c.CustomerID, c.RecencyDays, c.Frequency, c.Monetary})
	}

	return []Table{products, monthly, countries, weekdays, customers}
}

// cellText renders a table cell for text formats.
func cellText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case decimal.Decimal:
		return money(x)
	default:
		return ""
	}
}

// money renders an amount as a fixed two-place string.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
