package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source describes the file a report was computed from.
type Source struct {
	Path   string `json:"path" yaml:"path"`
	Format string `json:"format" yaml:"format"`
	Sheet  string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Size   int64  `json:"size" yaml:"size"`
}

// LoadStats counts rows seen by the loader.
type LoadStats struct {
	Rows    int `json:"rows" yaml:"rows"`       // data rows below the header
	Parsed  int `json:"parsed" yaml:"parsed"`   // rows converted to RawTransaction
	Skipped int `json:"skipped" yaml:"skipped"` // rows with unparseable fields
	Blank   int `json:"blank" yaml:"blank"`     // fully empty rows
}

// CleanStats counts rows dropped by each cleaning rule. A row is counted
// under the first rule it fails.
type CleanStats struct {
	Input               int `json:"input" yaml:"input"`
	Kept                int `json:"kept" yaml:"kept"`
	Cancelled           int `json:"cancelled" yaml:"cancelled"`
	NonPositiveQuantity int `json:"non_positive_quantity" yaml:"non_positive_quantity"`
	NonPositivePrice    int `json:"non_positive_price" yaml:"non_positive_price"`
	MissingCustomer     int `json:"missing_customer" yaml:"missing_customer"`
}

// Dropped returns the number of rows removed by the cleaner.
func (s CleanStats) Dropped() int {
	return s.Cancelled + s.NonPositiveQuantity + s.NonPositivePrice + s.MissingCustomer
}

// Totals holds the headline figures of a report.
type Totals struct {
	Revenue   decimal.Decimal `json:"revenue" yaml:"revenue"`
	Orders    int             `json:"orders" yaml:"orders"`
	Customers int             `json:"customers" yaml:"customers"`
}

// ProductRevenue is one row of the top products table.
type ProductRevenue struct {
	StockCode   string          `json:"stock_code" yaml:"stock_code"`
	Description string          `json:"description" yaml:"description"`
	Revenue     decimal.Decimal `json:"revenue" yaml:"revenue"`
	Quantity    int             `json:"quantity" yaml:"quantity"`
}

// MonthlyRevenue is one row of the monthly trend.
type MonthlyRevenue struct {
	YearMonth string          `json:"year_month" yaml:"year_month"`
	Month     string          `json:"month" yaml:"month"`
	Revenue   decimal.Decimal `json:"revenue" yaml:"revenue"`
}

// CountryRevenue is one row of the country ranking.
type CountryRevenue struct {
	Country string          `json:"country" yaml:"country"`
	Revenue decimal.Decimal `json:"revenue" yaml:"revenue"`
}

// WeekdayRevenue is revenue booked on one day of the week.
type WeekdayRevenue struct {
	Weekday string          `json:"weekday" yaml:"weekday"`
	Revenue decimal.Decimal `json:"revenue" yaml:"revenue"`
}

// CustomerRFM holds the recency, frequency and monetary figures of a customer.
// RecencyDays is the span between the customer's first and last purchase
// day, not the time since the last purchase.
type CustomerRFM struct {
	CustomerID  string          `json:"customer_id" yaml:"customer_id"`
	RecencyDays int             `json:"recency_days" yaml:"recency_days"`
	Frequency   int             `json:"frequency" yaml:"frequency"`
	Monetary    decimal.Decimal `json:"monetary" yaml:"monetary"`
}

// Report is the complete output of one pipeline run.
type Report struct {
	RunID        string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Source       Source           `json:"source" yaml:"source"`
	GeneratedAt  time.Time        `json:"generated_at" yaml:"generated_at"`
	Load         LoadStats        `json:"load" yaml:"load"`
	Clean        CleanStats       `json:"clean" yaml:"clean"`
	Totals       Totals           `json:"totals" yaml:"totals"`
	TopProducts  []ProductRevenue `json:"top_products" yaml:"top_products"`
	Monthly      []MonthlyRevenue `json:"monthly" yaml:"monthly"`
	TopCountries []CountryRevenue `json:"top_countries" yaml:"top_countries"`
	Weekdays     []WeekdayRevenue `json:"weekdays" yaml:"weekdays"`
	TopCustomers []CustomerRFM    `json:"top_customers" yaml:"top_customers"`
	Customers    []CustomerRFM    `json:"customers" yaml:"customers"` // full RFM table
}
