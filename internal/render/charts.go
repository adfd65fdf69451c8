package render

import (
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/retail-report/internal/model"
)

// Chart file names written by the renderer.
const (
	ChartTopProducts    = "top_products.svg"
	ChartMonthlyTrend   = "monthly_trend.svg"
	ChartTopCountries   = "top_countries.svg"
	ChartWeekdayRevenue = "weekday_revenue.svg"
	ChartRFMScatter     = "rfm_scatter.svg"
	ChartFrequency      = "frequency_histogram.svg"
)

// ChartFile is one rendered chart.
type ChartFile struct {
	Name  string
	Title string
	SVG   string
}

// Charts builds every chart of the report, in dashboard order.
func Charts(report *model.Report) ([]ChartFile, error) {
	charts := []struct {
		name  string
		title string
		svg   func() (string, error)
	}{
		{ChartMonthlyTrend, "Monthly revenue", monthlyChart(report).SVG},
		{ChartTopProducts, "Top products by revenue", productChart(report).SVG},
		{ChartTopCountries, "Top countries by revenue", countryChart(report).SVG},
		{ChartWeekdayRevenue, "Revenue by weekday", weekdayChart(report).SVG},
		{ChartRFMScatter, "Customer frequency vs. monetary value", rfmChart(report).SVG},
		{ChartFrequency, "Customers by order count", frequencyChart(report).SVG},
	}

	out := make([]ChartFile, 0, len(charts))
	for _, c := range charts {
		svg, err := c.svg()
		if err != nil {
			return nil, eris.Wrapf(err, "render: chart %s", c.name)
		}
		out = append(out, ChartFile{Name: c.name, Title: c.title, SVG: svg})
	}
	return out, nil
}

// productChart labels bars by stock code; descriptions are too long for the
// axis and appear in the dashboard table.
func productChart(report *model.Report) BarChart {
	c := BarChart{Title: "Top products by revenue"}
	for _, p := range report.TopProducts {
		c.Bars = append(c.Bars, Bar{Label: p.StockCode, Value: p.Revenue.InexactFloat64()})
	}
	return c
}

func countryChart(report *model.Report) BarChart {
	c := BarChart{Title: "Top countries by revenue"}
	for _, r := range report.TopCountries {
		c.Bars = append(c.Bars, Bar{Label: r.Country, Value: r.Revenue.InexactFloat64()})
	}
	return c
}

func monthlyChart(report *model.Report) LineChart {
	c := LineChart{Title: "Monthly revenue"}
	for _, m := range report.Monthly {
		c.Points = append(c.Points, Point{Label: m.Month, Value: m.Revenue.InexactFloat64()})
	}
	return c
}

func weekdayChart(report *model.Report) BarChart {
	c := BarChart{Title: "Revenue by weekday"}
	for _, w := range report.Weekdays {
		c.Bars = append(c.Bars, Bar{Label: w.Weekday, Value: w.Revenue.InexactFloat64()})
	}
	return c
}

func rfmChart(report *model.Report) ScatterChart {
	c := ScatterChart{
		Title:  "Customer frequency vs. monetary value",
		XLabel: "Orders",
		YLabel: "Revenue",
	}
	for _, r := range report.Customers {
		c.Points = append(c.Points, XY{X: float64(r.Frequency), Y: r.Monetary.InexactFloat64()})
	}
	return c
}

// frequencyBucket groups customers by order count. Max 0 means unbounded.
type frequencyBucket struct {
	Min, Max int
}

func (b frequencyBucket) label() string {
	switch {
	case b.Max == 0:
		return strconv.Itoa(b.Min) + "+"
	case b.Min == b.Max:
		return strconv.Itoa(b.Min)
	default:
		return strconv.Itoa(b.Min) + "-" + strconv.Itoa(b.Max)
	}
}

func (b frequencyBucket) contains(n int) bool {
	return n >= b.Min && (b.Max == 0 || n <= b.Max)
}

var frequencyBuckets = []frequencyBucket{
	{1, 1}, {2, 2}, {3, 3}, {4, 5}, {6, 10}, {11, 20}, {21, 50}, {51, 0},
}

// FrequencyHistogram counts customers per order-count bucket.
func FrequencyHistogram(customers []model.CustomerRFM) []Bar {
	counts := make([]int, len(frequencyBuckets))
	for _, c := range customers {
		for i, b := range frequencyBuckets {
			if b.contains(c.Frequency) {
				counts[i]++
				break
			}
		}
	}
	bars := make([]Bar, len(frequencyBuckets))
	for i, b := range frequencyBuckets {
		bars[i] = Bar{Label: b.label(), Value: float64(counts[i])}
	}
	return bars
}

func frequencyChart(report *model.Report) BarChart {
	c := BarChart{Title: "Customers by order count"}
	if len(report.Customers) > 0 {
		c.Bars = FrequencyHistogram(report.Customers)
	}
	return c
}
