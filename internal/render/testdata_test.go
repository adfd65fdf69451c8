package render

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
		RunID:       "2f1c9a0e-1111-2222-3333-444455556666",
		Source:      model.Source{Path: "data/online_retail.xlsx", Format: "xlsx", Sheet: "Online Retail"},
		GeneratedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Load:        model.LoadStats{Rows: 6, Parsed: 6},
		Clean:       model.CleanStats{Input: 6, Kept: 4, Cancelled: 1, MissingCustomer: 1},
		Totals:      model.Totals{Revenue: d("1234.5"), Orders: 3, Customers: 2},
		TopProducts: []model.ProductRevenue{
			{StockCode: "85123A", Description: "WHITE HANGING HEART T-LIGHT HOLDER", Revenue: d("1000"), Quantity: 400},
			{StockCode: "22423", Description: "REGENCY CAKESTAND <3 TIER>", Revenue: d("234.5"), Quantity: 20},
		},
		Monthly: []model.MonthlyRevenue{
			{YearMonth: "2010-12", Month: "Dec 2010", Revenue: d("1000")},
			{YearMonth: "2011-01", Month: "Jan 2011", Revenue: d("234.5")},
		},
		TopCountries: []model.CountryRevenue{
			{Country: "United Kingdom", Revenue: d("1100")},
			{Country: "France", Revenue: d("134.5")},
		},
		Weekdays: []model.WeekdayRevenue{
			{Weekday: "Mon", Revenue: d("1000")},
			{Weekday: "Thu", Revenue: d("234.5")},
		},
		TopCustomers: []model.CustomerRFM{
			{CustomerID: "17850", RecencyDays: 12, Frequency: 2, Monetary: d("1000")},
			{CustomerID: "12583", RecencyDays: 0, Frequency: 1, Monetary: d("234.5")},
		},
		Customers: []model.CustomerRFM{
			{CustomerID: "12583", RecencyDays: 0, Frequency: 1, Monetary: d("234.5")},
			{CustomerID: "17850", RecencyDays: 12, Frequency: 2, Monetary: d("1000")},
		},
	}
}
