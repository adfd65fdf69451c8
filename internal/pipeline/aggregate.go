package pipeline

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/retail-report/internal/model"
)

// DefaultTopN is the number of rows kept in ranked tables.
const DefaultTopN = 10

// Aggregate runs every reducer over the enriched rows and returns a report
// holding only the summary tables. Empty input yields zero totals and empty
// tables.
func Aggregate(rows []model.EnrichedTransaction, topN int) *model.Report {
	customers := CustomerRFM(rows)
	return &model.Report{
		Totals:       Totals(rows),
		TopProducts:  TopProducts(rows, topN),
		Monthly:      MonthlyTrend(rows),
		TopCountries: TopCountries(rows, topN),
		Weekdays:     WeekdayTrend(rows),
		TopCustomers: TopCustomers(customers, topN),
		Customers:    customers,
	}
}

// Totals sums revenue and counts distinct invoices and customers.
func Totals(rows []model.EnrichedTransaction) model.Totals {
	invoices := make(map[string]struct{})
	customers := make(map[string]struct{})
	revenue := decimal.Zero

	for _, r := range rows {
		revenue = revenue.Add(r.LineTotal)
		invoices[r.InvoiceNo] = struct{}{}
		customers[r.CustomerID] = struct{}{}
	}

	return model.Totals{
		Revenue:   revenue,
		Orders:    len(invoices),
		Customers: len(customers),
	}
}

type productKey struct {
	stockCode   string
	description string
}

// TopProducts groups by (stock code, description) and returns the n
// highest-revenue products. Ties are broken by stock code, then description.
func TopProducts(rows []model.EnrichedTransaction, n int) []model.ProductRevenue {
	groups := make(map[productKey]*model.ProductRevenue)
	for _, r := range rows {
		k := productKey{stockCode: r.StockCode, description: r.Description}
		g, ok := groups[k]
		if !ok {
			g = &model.ProductRevenue{StockCode: r.StockCode, Description: r.Description}
			groups[k] = g
		}
		g.Revenue = g.Revenue.Add(r.LineTotal)
		g.Quantity += r.Quantity
	}

	top := NewTopN(n, productBefore)
	for _, g := range groups {
		top.Insert(*g)
	}
	return top.Values()
}

func productBefore(a, b model.ProductRevenue) bool {
	if c := a.Revenue.Cmp(b.Revenue); c != 0 {
		return c > 0
	}
	if a.StockCode != b.StockCode {
		return a.StockCode < b.StockCode
	}
	return a.Description < b.Description
}

// MonthlyTrend returns revenue per calendar month in chronological order.
// Every month present in the data is included.
func MonthlyTrend(rows []model.EnrichedTransaction) []model.MonthlyRevenue {
	groups := make(map[string]*model.MonthlyRevenue)
	for _, r := range rows {
		g, ok := groups[r.YearMonth]
		if !ok {
			g = &model.MonthlyRevenue{
				YearMonth: r.YearMonth,
				Month:     r.MonthName + " " + r.YearMonth[:4],
			}
			groups[r.YearMonth] = g
		}
		g.Revenue = g.Revenue.Add(r.LineTotal)
	}

	out := make([]model.MonthlyRevenue, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	// Fixed-width keys sort chronologically as strings.
	sort.Slice(out, func(i, j int) bool { return out[i].YearMonth < out[j].YearMonth })
	return out
}

// TopCountries returns the n highest-revenue countries, ties broken by name.
func TopCountries(rows []model.EnrichedTransaction, n int) []model.CountryRevenue {
	groups := make(map[string]decimal.Decimal)
	for _, r := range rows {
		groups[r.Country] = groups[r.Country].Add(r.LineTotal)
	}

	top := NewTopN(n, countryBefore)
	for country, revenue := range groups {
		top.Insert(model.CountryRevenue{Country: country, Revenue: revenue})
	}
	return top.Values()
}

func countryBefore(a, b model.CountryRevenue) bool {
	if c := a.Revenue.Cmp(b.Revenue); c != 0 {
		return c > 0
	}
	return a.Country < b.Country
}

// WeekdayTrend returns revenue per day of the week, Monday first. Days
// with no sales are omitted.
func WeekdayTrend(rows []model.EnrichedTransaction) []model.WeekdayRevenue {
	groups := make(map[string]decimal.Decimal)
	for _, r := range rows {
		groups[r.Weekday] = groups[r.Weekday].Add(r.LineTotal)
	}

	out := make([]model.WeekdayRevenue, 0, len(groups))
	for _, wd := range weekdayOrder {
		name := weekdayNames[wd]
		if revenue, ok := groups[name]; ok {
			out = append(out, model.WeekdayRevenue{Weekday: name, Revenue: revenue})
		}
	}
	return out
}

type customerAcc struct {
	invoices map[string]struct{}
	monetary decimal.Decimal
	first    time.Time
	last     time.Time
}

// CustomerRFM computes recency, frequency and monetary value for every
// customer, ordered by monetary value descending and then customer ID.
//
// RecencyDays is the number of whole days between the customer's first and
// last purchase dates, so a single-day customer has 0.
func CustomerRFM(rows []model.EnrichedTransaction) []model.CustomerRFM {
	groups := make(map[string]*customerAcc)
	for _, r := range rows {
		acc, ok := groups[r.CustomerID]
		if !ok {
			acc = &customerAcc{
				invoices: make(map[string]struct{}),
				first:    r.Date,
				last:     r.Date,
			}
			groups[r.CustomerID] = acc
		}
		acc.invoices[r.InvoiceNo] = struct{}{}
		acc.monetary = acc.monetary.Add(r.LineTotal)
		if r.Date.Before(acc.first) {
			acc.first = r.Date
		}
		if r.Date.After(acc.last) {
			acc.last = r.Date
		}
	}

	out := make([]model.CustomerRFM, 0, len(groups))
	for id, acc := range groups {
		out = append(out, model.CustomerRFM{
			CustomerID:  id,
			RecencyDays: DaysBetween(acc.first, acc.last),
			Frequency:   len(acc.invoices),
			Monetary:    acc.monetary,
		})
	}
	sort.Slice(out, func(i, j int) bool { return customerBefore(out[i], out[j]) })
	return out
}

func customerBefore(a, b model.CustomerRFM) bool {
	if c := a.Monetary.Cmp(b.Monetary); c != 0 {
		return c > 0
	}
	return a.CustomerID < b.CustomerID
}

// TopCustomers returns the first n rows of an RFM table produced by
// CustomerRFM. The input is not modified.
func TopCustomers(rfm []model.CustomerRFM, n int) []model.CustomerRFM {
	if n < 0 {
		n = 0
	}
	n = min(n, len(rfm))
	out := make([]model.CustomerRFM, n)
	copy(out, rfm[:n])
	return out
}

// DaysBetween returns the number of calendar days from a to b, counted on
// the dates as they appear in each time's location. DST shifts do not
// affect the result.
func DaysBetween(a, b time.Time) int {
	return int(civilDay(b).Sub(civilDay(a)).Hours() / 24)
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
