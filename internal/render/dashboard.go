package render

import (
	"embed"
	"html/template"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/retail-report/internal/model"
)

//go:embed templates/dashboard.html.tmpl
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html.tmpl").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	ParseFS(templateFS, "templates/dashboard.html.tmpl"))

type dashboardChart struct {
	Name string
	SVG  template.HTML
}

type dashboardProduct struct {
	StockCode   string
	Description string
	Quantity    string
	Revenue     string
}

type dashboardCountry struct {
	Name    string
	Revenue string
}

type dashboardCustomer struct {
	ID        string
	Recency   string
	Frequency string
	Monetary  string
}

type dashboardData struct {
	Source        string
	Generated     string
	RunID         string
	Revenue       string
	Orders        string
	CustomerCount string
	Kept          string
	Dropped       string
	Charts        []dashboardChart
	Products      []dashboardProduct
	Countries     []dashboardCountry
	// Top customers by monetary value.
	Customers []dashboardCustomer
}

// WriteDashboard writes a self-contained HTML page with the headline
// figures, the given charts inline and the ranked tables.
func WriteDashboard(w io.Writer, report *model.Report, charts []ChartFile, currency string) error {
	if currency == "" {
		currency = DefaultCurrency
	}
	data := dashboardData{
		Source:        report.Source.Path,
		Generated:     report.GeneratedAt.Format("2006-01-02 15:04 MST"),
		RunID:         report.RunID,
		Revenue:       Money(report.Totals.Revenue, currency),
		Orders:        Int(report.Totals.Orders),
		CustomerCount: Int(report.Totals.Customers),
		Kept:          Int(report.Clean.Kept),
		Dropped:       Int(report.Clean.Dropped()),
	}

	for _, c := range charts {
		// SVG is generated here with every label escaped.
		data.Charts = append(data.Charts, dashboardChart{Name: c.Name, SVG: template.HTML(c.SVG)}) //nolint:gosec
	}
	for _, p := range report.TopProducts {
		data.Products = append(data.Products, dashboardProduct{
			StockCode:   p.StockCode,
			Description: p.Description,
			Quantity:    Int(p.Quantity),
			Revenue:     Money(p.Revenue, currency),
		})
	}
	for _, c := range report.TopCountries {
		data.Countries = append(data.Countries, dashboardCountry{Name: c.Country, Revenue: Money(c.Revenue, currency)})
	}
	for _, c := range report.TopCustomers {
		data.Customers = append(data.Customers, dashboardCustomer{
			ID:        c.CustomerID,
			Recency:   Int(c.RecencyDays),
			Frequency: Int(c.Frequency),
			Monetary:  Money(c.Monetary, currency),
		})
	}

	if err := dashboardTmpl.Execute(w, data); err != nil {
		return eris.Wrap(err, "render: execute dashboard template")
	}
	return nil
}
