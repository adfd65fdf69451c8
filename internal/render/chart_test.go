package render

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/retail-report/internal/model"
)

// wellFormed fails the test when svg is not parseable XML.
func wellFormed(t *testing.T, svg string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err != nil {
			require.ErrorContains(t, err, "EOF")
			return
		}
	}
}

func TestNiceMax(t *testing.T) {
	assert.Equal(t, 1.0, niceMax(0))
	assert.Equal(t, 1.0, niceMax(-4))
	assert.Equal(t, 1.0, niceMax(1))
	assert.Equal(t, 10.0, niceMax(7))
	assert.Equal(t, 200.0, niceMax(120))
	assert.Equal(t, 2500.0, niceMax(2400))
	assert.Equal(t, 5000.0, niceMax(4100))
}

func TestValueTicks(t *testing.T) {
	ticks := valueTicks(4100)
	require.Len(t, ticks, axisTicks+1)
	assert.Equal(t, 0.0, ticks[0].Value)
	assert.Equal(t, 5000.0, ticks[axisTicks].Value)
	assert.Equal(t, "5k", ticks[axisTicks].Label)
	assert.Equal(t, "1k", ticks[1].Label)
}

// svgOf renders a chart and checks it is well formed.
func svgOf(t *testing.T, render func() (string, error)) string {
	t.Helper()
	svg, err := render()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(svg, "<svg"), svg)
	wellFormed(t, svg)
	return svg
}

func TestBarChart(t *testing.T) {
	svg := svgOf(t, BarChart{
		Title: "Top <products>",
		Bars: []Bar{
			{Label: "CAKESTAND <3 TIER>", Value: 100},
			{Label: "HEART", Value: 50},
		},
	}.SVG)

	assert.Contains(t, svg, "Top &lt;products&gt;")
	assert.Contains(t, svg, "CAKESTAND &lt;3 TIER&gt;")
	assert.Contains(t, svg, ">HEART<")
	assert.NotContains(t, svg, "No data")
}

func TestBarChart_SingleAndZeroBars(t *testing.T) {
	// A single bar, or bars that are all zero, still need a y range.
	svgOf(t, BarChart{Title: "one", Bars: []Bar{{Label: "Mon", Value: 3}}}.SVG)
	svg := svgOf(t, BarChart{Title: "zero", Bars: []Bar{{Label: "Mon"}, {Label: "Tue"}}}.SVG)
	assert.Contains(t, svg, ">Tue<")
}

func TestCharts_EmptyPlaceholder(t *testing.T) {
	for _, render := range []func() (string, error){
		BarChart{Title: "a"}.SVG,
		LineChart{Title: "c"}.SVG,
		ScatterChart{Title: "d & e"}.SVG,
	} {
		svg := svgOf(t, render)
		assert.Contains(t, svg, "No data")
	}
}

func TestLineChart(t *testing.T) {
	svg := svgOf(t, LineChart{
		Title:  "Monthly",
		Points: []Point{{"Dec 2010", 10}, {"Jan 2011", 20}, {"Feb 2011", 15}},
	}.SVG)

	assert.Contains(t, svg, "Jan 2011")
	assert.Equal(t, 3, strings.Count(svg, "<circle"))
}

func TestLineChart_SinglePoint(t *testing.T) {
	svg := svgOf(t, LineChart{Title: "Monthly", Points: []Point{{"Dec 2010", 10}}}.SVG)
	assert.Equal(t, 1, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, "Dec 2010")
}

func TestScatterChart(t *testing.T) {
	svg := svgOf(t, ScatterChart{
		Title:  "RFM",
		XLabel: "Orders",
		YLabel: "Revenue",
		Points: []XY{{1, 10}, {1, 10}, {5, 500}},
	}.SVG)

	assert.Equal(t, 3, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, ">Orders<")
	assert.Contains(t, svg, ">Revenue<")
}

func TestFrequencyHistogram(t *testing.T) {
	customers := []model.CustomerRFM{
		{Frequency: 1}, {Frequency: 1}, {Frequency: 3}, {Frequency: 7}, {Frequency: 60},
	}
	bars := FrequencyHistogram(customers)

	labels := make([]string, len(bars))
	values := make([]float64, len(bars))
	for i, b := range bars {
		labels[i] = b.Label
		values[i] = b.Value
	}
	assert.Equal(t, []string{"1", "2", "3", "4-5", "6-10", "11-20", "21-50", "51+"}, labels)
	assert.Equal(t, []float64{2, 0, 1, 0, 1, 0, 0, 1}, values)
}

func TestReportCharts(t *testing.T) {
	charts, err := Charts(sampleReport())
	require.NoError(t, err)
	require.Len(t, charts, 6)

	names := make([]string, len(charts))
	for i, c := range charts {
		names[i] = c.Name
		wellFormed(t, c.SVG)
		assert.NotContains(t, c.SVG, "No data", c.Name)
	}
	assert.ElementsMatch(t, []string{
		ChartTopProducts, ChartMonthlyTrend, ChartTopCountries,
		ChartWeekdayRevenue, ChartRFMScatter, ChartFrequency,
	}, names)
}

func TestReportCharts_EmptyReport(t *testing.T) {
	charts, err := Charts(&model.Report{})
	require.NoError(t, err)
	for _, c := range charts {
		wellFormed(t, c.SVG)
		assert.Contains(t, c.SVG, "No data", c.Name)
	}
}
