package pipeline

import (
	"strings"

	"github.com/sells-group/retail-report/internal/model"
)

// Clean drops cancelled invoices, non-positive quantities or prices and
// rows without a customer. Surviving rows are copied, never modified. Each
// dropped row is counted under the first rule it fails.
func Clean(rows []model.RawTransaction) ([]model.Transaction, model.CleanStats) {
	stats := model.CleanStats{Input: len(rows)}
	out := make([]model.Transaction, 0, len(rows))

	for _, r := range rows {
		switch {
		case IsCancellation(r.InvoiceNo):
			stats.Cancelled++
			continue
		case r.Quantity <= 0:
			stats.NonPositiveQuantity++
			continue
		case !r.UnitPrice.IsPositive():
			stats.NonPositivePrice++
			continue
		case r.CustomerID == nil || strings.TrimSpace(*r.CustomerID) == "":
			stats.MissingCustomer++
			continue
		}

		out = append(out, model.Transaction{
			InvoiceNo:   r.InvoiceNo,
			StockCode:   r.StockCode,
			Description: r.Description,
			Quantity:    r.Quantity,
			InvoiceDate: r.InvoiceDate,
			UnitPrice:   r.UnitPrice,
			CustomerID:  *r.CustomerID,
			Country:     r.Country,
		})
	}

	stats.Kept = len(out)
	return out, stats
}

// IsCancellation reports whether an invoice number carries the cancellation
// marker.
func IsCancellation(invoiceNo string) bool {
	return strings.HasPrefix(invoiceNo, model.CancellationPrefix)
}
