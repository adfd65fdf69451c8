package export

import (
	"time"

	"github.com/sells-group/retail-report/internal/model"
)

// Document is the serialized form of a report. Amounts are fixed two-place
// strings so JSON and YAML consumers never see binary floats.
type Document struct {
	RunID        string          `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Source       model.Source    `json:"source" yaml:"source"`
	GeneratedAt  time.Time       `json:"generated_at" yaml:"generated_at"`
	Load         model.LoadStats `json:"load" yaml:"load"`
	Clean        CleanDoc        `json:"clean" yaml:"clean"`
	Totals       TotalsDoc       `json:"totals" yaml:"totals"`
	TopProducts  []ProductDoc    `json:"top_products" yaml:"top_products"`
	Monthly      []MonthlyDoc    `json:"monthly" yaml:"monthly"`
	TopCountries []CountryDoc    `json:"top_countries" yaml:"top_countries"`
	Weekdays     []WeekdayDoc    `json:"weekdays" yaml:"weekdays"`
	TopCustomers []CustomerDoc   `json:"top_customers" yaml:"top_customers"`
	Customers    []CustomerDoc   `json:"customers,omitempty" yaml:"customers,omitempty"`
}

// CleanDoc adds the dropped total to the cleaning tally.
type CleanDoc struct {
	model.CleanStats `yaml:",inline"`
	Dropped          int `json:"dropped" yaml:"dropped"`
}

type TotalsDoc struct {
	Revenue   string `json:"revenue" yaml:"revenue"`
	Orders    int    `json:"orders" yaml:"orders"`
	Customers int    `json:"customers" yaml:"customers"`
}

type ProductDoc struct {
	StockCode   string `json:"stock_code" yaml:"stock_code"`
	Description string `json:"description" yaml:"description"`
	Quantity    int    `json:"quantity" yaml:"quantity"`
	Revenue     string `json:"revenue" yaml:"revenue"`
}

type MonthlyDoc struct {
	YearMonth string `json:"year_month" yaml:"year_month"`
	Month     string `json:"month" yaml:"month"`
	Revenue   string `json:"revenue" yaml:"revenue"`
}

type CountryDoc struct {
	Country string `json:"country" yaml:"country"`
	Revenue string `json:"revenue" yaml:"revenue"`
}

type WeekdayDoc struct {
	Weekday string `json:"weekday" yaml:"weekday"`
	Revenue string `json:"revenue" yaml:"revenue"`
}

type CustomerDoc struct {
	CustomerID  string `json:"customer_id" yaml:"customer_id"`
	RecencyDays int    `json:"recency_days" yaml:"recency_days"`
	Frequency   int    `json:"frequency" yaml:"frequency"`
	Monetary    string `json:"monetary" yaml:"monetary"`
}

// NewDocument converts a report. The full customer table is included only
// when withCustomers is set; it can be large.
func NewDocument(report *model.Report, withCustomers bool) *Document {
	doc := &Document{
		RunID:       report.RunID,
		Source:      report.Source,
		GeneratedAt: report.GeneratedAt,
		Load:        report.Load,
		Clean:       CleanDoc{CleanStats: report.Clean, Dropped: report.Clean.Dropped()},
		Totals: TotalsDoc{
			Revenue:   money(report.Totals.Revenue),
			Orders:    report.Totals.Orders,
			Customers: report.Totals.Customers,
		},
		TopProducts:  make([]ProductDoc, 0, len(report.TopProducts)),
		Monthly:      make([]MonthlyDoc, 0, len(report.Monthly)),
		TopCountries: make([]CountryDoc, 0, len(report.TopCountries)),
		Weekdays:     make([]WeekdayDoc, 0, len(report.Weekdays)),
		TopCustomers: customerDocs(report.TopCustomers),
	}
	for _, p := range report.TopProducts {
		doc.TopProducts = append(doc.TopProducts, ProductDoc{
			StockCode:   p.StockCode,
			Description: p.Description,
			Quantity:    p.Quantity,
			Revenue:     money(p.Revenue),
		})
	}
	for _, m := range report.Monthly {
		doc.Monthly = append(doc.Monthly, MonthlyDoc{YearMonth: m.YearMonth, Month: m.Month, Revenue: money(m.Revenue)})
	}
	for _, c := range report.TopCountries {
		doc.TopCountries = append(doc.TopCountries, CountryDoc{Country: c.Country, Revenue: money(c.Revenue)})
	}
	for _, w := range report.Weekdays {
		doc.Weekdays = append(doc.Weekdays, WeekdayDoc{Weekday: w.Weekday, Revenue: money(w.Revenue)})
	}
	if withCustomers {
		doc.Customers = customerDocs(report.Customers)
	}
	return doc
}

func customerDocs(in []model.CustomerRFM) []CustomerDoc {
	out := make([]CustomerDoc, 0, len(in))
	for _, c := range in {
		out = append(out, CustomerDoc{
			CustomerID:  c.CustomerID,
			RecencyDays: c.RecencyDays,
			Frequency:   c.Frequency,
			Monetary:    money(c.Monetary),
		})
	}
	return out
}
