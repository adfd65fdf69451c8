package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sells-group/retail-report/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleReport() *model.Report {
	return &model.Report{
		RunID:       "run-1",
		Source:      model.Source{Path: "online_retail.csv", Format: "csv", Size: 512},
		GeneratedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Load:        model.LoadStats{Rows: 5, Parsed: 5},
		Clean:       model.CleanStats{Input: 5, Kept: 3, Cancelled: 1, NonPositivePrice: 1},
		Totals:      model.Totals{Revenue: d("133.14"), Orders: 3, Customers: 2},
		TopProducts: []model.ProductRevenue{
			{StockCode: "85123A", Description: "WHITE HANGING HEART, LARGE", Revenue: d("102.6"), Quantity: 40},
			{StockCode: "71053", Description: "WHITE METAL LANTERN", Revenue: d("30.54"), Quantity: 6},
		},
		Monthly: []model.MonthlyRevenue{
			{YearMonth: "2010-12", Month: "Dec 2010", Revenue: d("102.6")},
			{YearMonth: "2011-01", Month: "Jan 2011", Revenue: d("30.54")},
		},
		TopCountries: []model.CountryRevenue{{Country: "United Kingdom", Revenue: d("133.14")}},
		Weekdays:     []model.WeekdayRevenue{{Weekday: "Wed", Revenue: d("133.14")}},
		TopCustomers: []model.CustomerRFM{
			{CustomerID: "17850", RecencyDays: 3, Frequency: 2, Monetary: d("102.6")},
		},
		Customers: []model.CustomerRFM{
			{CustomerID: "12583", RecencyDays: 34, Frequency: 1, Monetary: d("30.54")},
			{CustomerID: "17850", RecencyDays: 3, Frequency: 2, Monetary: d("102.6")},
		},
	}
}
