package render

import (
	"bytes"
	"html"
	"io"

	"github.com/rotisserie/eris"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth  = 820
	chartHeight = 420
	axisTicks   = 5
	barWidth    = 48
)

var (
	barColor   = drawing.ColorFromHex("4e79a7")
	lineColor  = drawing.ColorFromHex("f28e2b")
	pointColor = drawing.ColorFromHex("59a14f").WithAlpha(170)

	// chartPadding leaves room for the title above and wrapped labels below.
	chartPadding = chart.Box{Top: 50, Left: 10, Right: 10, Bottom: 20}
)

// Bar is one bar of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// BarChart draws vertical bars starting at zero.
type BarChart struct {
	Title string
	Bars  []Bar
}

// Point is one labelled value of a line chart, plotted at even spacing.
type Point struct {
	Label string
	Value float64
}

// LineChart draws a line through its points in order.
type LineChart struct {
	Title  string
	Points []Point
}

// XY is one point of a scatter chart.
type XY struct {
	X, Y float64
}

// ScatterChart plots unconnected points on two value axes.
type ScatterChart struct {
	Title  string
	XLabel string
	YLabel string
	Points []XY
}

// svgChart is satisfied by chart.Chart and chart.BarChart.
type svgChart interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// SVG renders the chart. A chart without bars renders a "No data" panel.
func (c BarChart) SVG() (string, error) {
	if len(c.Bars) == 0 {
		return placeholder(c.Title)
	}

	top := 0.0
	bars := make([]chart.Value, len(c.Bars))
	for i, b := range c.Bars {
		top = max(top, b.Value)
		bars[i] = chart.Value{
			Label: html.EscapeString(b.Label),
			Value: b.Value,
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
	}

	return draw(chart.BarChart{
		Title:      html.EscapeString(c.Title),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chartPadding},
		BarWidth:   barWidth,
		YAxis:      chart.YAxis{Ticks: valueTicks(top)},
		Bars:       bars,
	})
}

// SVG renders the chart. A chart without points renders a "No data" panel.
func (c LineChart) SVG() (string, error) {
	if len(c.Points) == 0 {
		return placeholder(c.Title)
	}

	n := len(c.Points)
	xs := make([]float64, n)
	ys := make([]float64, n)
	// Unlabelled half-step ticks at both ends keep a single point off the
	// axis edges and give the x range a width.
	ticks := make([]chart.Tick, 0, n+2)
	ticks = append(ticks, chart.Tick{Value: -0.5})
	top := 0.0
	for i, p := range c.Points {
		xs[i] = float64(i)
		ys[i] = p.Value
		top = max(top, p.Value)
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: html.EscapeString(p.Label)})
	}
	ticks = append(ticks, chart.Tick{Value: float64(n) - 0.5})

	return draw(chart.Chart{
		Title:      html.EscapeString(c.Title),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chartPadding},
		XAxis: chart.XAxis{
			Ticks:     ticks,
			TickStyle: chart.Style{TextRotationDegrees: 45},
		},
		YAxis: chart.YAxis{Ticks: valueTicks(top)},
		Series: []chart.Series{chart.ContinuousSeries{
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: lineColor,
				StrokeWidth: 2,
				DotColor:    lineColor,
				DotWidth:    3,
			},
		}},
	})
}

// SVG renders the chart. A chart without points renders a "No data" panel.
func (c ScatterChart) SVG() (string, error) {
	if len(c.Points) == 0 {
		return placeholder(c.Title)
	}

	xs := make([]float64, len(c.Points))
	ys := make([]float64, len(c.Points))
	maxX, maxY := 0.0, 0.0
	for i, p := range c.Points {
		xs[i], ys[i] = p.X, p.Y
		maxX, maxY = max(maxX, p.X), max(maxY, p.Y)
	}

	return draw(chart.Chart{
		Title:      html.EscapeString(c.Title),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chartPadding},
		XAxis: chart.XAxis{
			Name:  html.EscapeString(c.XLabel),
			Ticks: valueTicks(maxX),
		},
		YAxis: chart.YAxis{
			Name:  html.EscapeString(c.YLabel),
			Ticks: valueTicks(maxY),
		},
		Series: []chart.Series{chart.ContinuousSeries{
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    pointColor,
				DotWidth:    3,
			},
		}},
	})
}

func draw(c svgChart) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(chart.SVG, &buf); err != nil {
		return "", eris.Wrap(err, "render: draw chart")
	}
	return buf.String(), nil
}

// placeholder draws the title and a "No data" note on an empty canvas.
func placeholder(title string) (string, error) {
	r, err := chart.SVG(chartWidth, chartHeight)
	if err != nil {
		return "", eris.Wrap(err, "render: create canvas")
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return "", eris.Wrap(err, "render: load font")
	}
	r.SetFont(font)
	r.SetFontColor(chart.DefaultTextColor)

	centered := func(s string, size float64, y int) {
		r.SetFontSize(size)
		box := r.MeasureText(s)
		r.Text(s, (chartWidth-box.Width())/2, y)
	}
	centered(html.EscapeString(title), chart.DefaultTitleFontSize, 40)
	centered("No data", chart.DefaultTitleFontSize, chartHeight/2)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return "", eris.Wrap(err, "render: write canvas")
	}
	return buf.String(), nil
}

// valueTicks spans zero to a rounded maximum in axisTicks even steps.
func valueTicks(v float64) []chart.Tick {
	top := niceMax(v)
	ticks := make([]chart.Tick, axisTicks+1)
	for i := range ticks {
		t := top * float64(i) / axisTicks
		ticks[i] = chart.Tick{Value: t, Label: Compact(t)}
	}
	return ticks
}

// niceMax rounds v up to 1, 2, 2.5 or 5 times a power of ten.
func niceMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	mag := 1.0
	for mag*10 <= v {
		mag *= 10
	}
	for mag > v {
		mag /= 10
	}
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if v <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}
