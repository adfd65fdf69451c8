package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/retail-report/internal/model"
)

// DefaultCurrency is used when no currency symbol is configured.
const DefaultCurrency = "£"

// FormatSummary renders the report as plain text: headline figures, the
// cleaning tally and each summary table.
func FormatSummary(report *model.Report, currency string) string {
	var b strings.Builder
	_ = WriteSummary(&b, report, currency)
	return b.String()
}

// WriteSummary writes the text summary to w.
func WriteSummary(out io.Writer, report *model.Report, currency string) error {
	if currency == "" {
		currency = DefaultCurrency
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "Retail Report")
	fmt.Fprintln(w, "=============")
	if report.Source.Path != "" {
		src := report.Source.Path
		if report.Source.Sheet != "" {
			src += " [" + report.Source.Sheet + "]"
		}
		fmt.Fprintf(w, "Source:\t%s\n", src)
	}
	if !report.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "Generated:\t%s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if report.RunID != "" {
		fmt.Fprintf(w, "Run:\t%s\n", report.RunID)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total revenue:\t%s\n", Money(report.Totals.Revenue, currency))
	fmt.Fprintf(w, "Orders:\t%s\n", Int(report.Totals.Orders))
	fmt.Fprintf(w, "Customers:\t%s\n", Int(report.Totals.Customers))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Rows loaded:\t%s\n", Int(report.Load.Parsed))
	if report.Load.Skipped > 0 {
		fmt.Fprintf(w, "Rows skipped (unparseable):\t%s\n", Int(report.Load.Skipped))
	}
	fmt.Fprintf(w, "Rows kept:\t%s\n", Int(report.Clean.Kept))
	fmt.Fprintf(w, "  cancelled:\t%s\n", Int(report.Clean.Cancelled))
	fmt.Fprintf(w, "  non-positive quantity:\t%s\n", Int(report.Clean.NonPositiveQuantity))
	fmt.Fprintf(w, "  non-positive price:\t%s\n", Int(report.Clean.NonPositivePrice))
	fmt.Fprintf(w, "  missing customer:\t%s\n", Int(report.Clean.MissingCustomer))
	if err := w.Flush(); err != nil {
		return err
	}

	section(out, fmt.Sprintf("Top %d products by revenue", len(report.TopProducts)))
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tStock code\tDescription\tQuantity\tRevenue\t")
	for i, p := range report.TopProducts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", i+1, p.StockCode, truncate(p.Description, 40), Int(p.Quantity), Money(p.Revenue, currency))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	section(out, "Monthly revenue")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Month\tRevenue\t")
	for _, m := range report.Monthly {
		fmt.Fprintf(w, "%s\t%s\t\n", m.YearMonth, Money(m.Revenue, currency))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	section(out, fmt.Sprintf("Top %d countries by revenue", len(report.TopCountries)))
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tCountry\tRevenue\t")
	for i, c := range report.TopCountries {
		fmt.Fprintf(w, "%d\t%s\t%s\t\n", i+1, c.Country, Money(c.Revenue, currency))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	section(out, "Revenue by day of week")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Day\tRevenue\t")
	for _, d := range report.Weekdays {
		fmt.Fprintf(w, "%s\t%s\t\n", d.Weekday, Money(d.Revenue, currency))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	section(out, fmt.Sprintf("Top %d customers by monetary value", len(report.TopCustomers)))
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tCustomer\tRecency (days)\tFrequency\tMonetary\t")
	for i, c := range report.TopCustomers {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", i+1, c.CustomerID, Int(c.RecencyDays), Int(c.Frequency), Money(c.Monetary, currency))
	}
	return w.Flush()
}

func section(out io.Writer, title string) {
	fmt.Fprintf(out, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
