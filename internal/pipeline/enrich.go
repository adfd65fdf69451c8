package pipeline

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/retail-report/internal/model"
)

// monthNames and weekdayNames are fixed so labels do not depend on locale.
var monthNames = [...]string{
	time.January:   "Jan",
	time.February:  "Feb",
	time.March:     "Mar",
	time.April:     "Apr",
	time.May:       "May",
	time.June:      "Jun",
	time.July:      "Jul",
	time.August:    "Aug",
	time.September: "Sep",
	time.October:   "Oct",
	time.November:  "Nov",
	time.December:  "Dec",
}

var weekdayNames = [...]string{
	time.Sunday:    "Sun",
	time.Monday:    "Mon",
	time.Tuesday:   "Tue",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
}

// weekdayOrder is the report order of days, Monday first.
var weekdayOrder = [...]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Enrich derives the line total and calendar columns for every row. The
// output has one row per input row, in the same order.
func Enrich(rows []model.Transaction) []model.EnrichedTransaction {
	out := make([]model.EnrichedTransaction, len(rows))
	for i, r := range rows {
		out[i] = EnrichOne(r)
	}
	return out
}

// EnrichOne enriches a single transaction.
func EnrichOne(r model.Transaction) model.EnrichedTransaction {
	t := r.InvoiceDate
	return model.EnrichedTransaction{
		Transaction: r,
		LineTotal:   LineTotal(r.Quantity, r.UnitPrice),
		Date:        StartOfDay(t),
		YearMonth:   YearMonth(t),
		MonthName:   monthNames[t.Month()],
		Weekday:     weekdayNames[t.Weekday()],
	}
}

// LineTotal returns quantity x unit price without rounding.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// YearMonth formats t as a fixed-width "YYYY-MM" key.
func YearMonth(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
