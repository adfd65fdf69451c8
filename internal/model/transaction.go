package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CancellationPrefix marks invoice numbers that reverse an earlier invoice.
const CancellationPrefix = "C"

// RawTransaction is one invoice line item as read from the source file.
type RawTransaction struct {
	Row         int             `json:"row"`
	InvoiceNo   string          `json:"invoice_no"`
	StockCode   string          `json:"stock_code"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	InvoiceDate time.Time       `json:"invoice_date"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CustomerID  *string         `json:"customer_id"` // nil when the source cell is empty
	Country     string          `json:"country"`
}

// Transaction is a RawTransaction that survived cleaning. Quantity and
// UnitPrice are strictly positive and CustomerID is never empty.
type Transaction struct {
	InvoiceNo   string          `json:"invoice_no"`
	StockCode   string          `json:"stock_code"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	InvoiceDate time.Time       `json:"invoice_date"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CustomerID  string          `json:"customer_id"`
	Country     string          `json:"country"`
}

// EnrichedTransaction carries the derived columns used for grouping.
type EnrichedTransaction struct {
	Transaction
	LineTotal decimal.Decimal `json:"line_total"`
	Date      time.Time       `json:"date"`       // InvoiceDate at midnight
	YearMonth string          `json:"year_month"` // "2010-12"
	MonthName string          `json:"month_name"` // "Dec"
	Weekday   string          `json:"weekday"`    // "Wed"
}
