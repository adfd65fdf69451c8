package loader

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
)

// Canonical column names.
const (
	ColInvoiceNo   = "invoice_no"
	ColStockCode   = "stock_code"
	ColDescription = "description"
	ColQuantity    = "quantity"
	ColInvoiceDate = "invoice_date"
	ColUnitPrice   = "unit_price"
	ColCustomerID  = "customer_id"
	ColCountry     = "country"
)

// RequiredColumns lists every column the loader needs, in output order.
var RequiredColumns = []string{
	ColInvoiceNo,
	ColStockCode,
	ColDescription,
	ColQuantity,
	ColInvoiceDate,
	ColUnitPrice,
	ColCustomerID,
	ColCountry,
}

// columnAliases maps squashed header text to canonical column names.
var columnAliases = map[string]string{
	"invoiceno":     ColInvoiceNo,
	"invoice":       ColInvoiceNo,
	"invoicenumber": ColInvoiceNo,
	"invoiceid":     ColInvoiceNo,
	"stockcode":     ColStockCode,
	"sku":           ColStockCode,
	"productcode":   ColStockCode,
	"description":   ColDescription,
	"productname":   ColDescription,
	"quantity":      ColQuantity,
	"qty":           ColQuantity,
	"invoicedate":   ColInvoiceDate,
	"date":          ColInvoiceDate,
	"unitprice":     ColUnitPrice,
	"price":         ColUnitPrice,
	"customerid":    ColCustomerID,
	"customer":      ColCustomerID,
	"customerno":    ColCustomerID,
	"country":       ColCountry,
}

var folder = cases.Fold()

// NormalizeHeader folds case and drops spaces, underscores, hyphens and dots,
// so "Customer ID", "customer_id" and "CustomerID" compare equal.
func NormalizeHeader(s string) string {
	s = folder.String(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '\t', '\uFEFF':
			return -1
		}
		return r
	}, s)
}

// CanonicalColumn returns the canonical name for a header cell, or "" when the
// cell names no known column.
func CanonicalColumn(header string) string {
	return columnAliases[NormalizeHeader(header)]
}

// columnIndex maps canonical column names to cell positions.
type columnIndex map[string]int

// mapHeader resolves a header row. The first occurrence of a column wins.
func mapHeader(cells []string) columnIndex {
	idx := make(columnIndex, len(RequiredColumns))
	for i, cell := range cells {
		name := CanonicalColumn(cell)
		if name == "" {
			continue
		}
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	return idx
}

// missing returns required columns absent from the index, sorted.
func (c columnIndex) missing() []string {
	var out []string
	for _, col := range RequiredColumns {
		if _, ok := c[col]; !ok {
			out = append(out, col)
		}
	}
	sort.Strings(out)
	return out
}

// complete reports whether every required column is present.
func (c columnIndex) complete() bool {
	return len(c.missing()) == 0
}

// get returns the trimmed cell for a column, or "" when the row is short.
func (c columnIndex) get(cells []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// headerFinder locates the header row among the leading rows of a sheet.
type headerFinder struct {
	limit int
	seen  int
	best  columnIndex
}

// offer inspects one row. It returns the column index once the row is a
// complete header.
func (h *headerFinder) offer(cells []string) (columnIndex, bool) {
	h.seen++
	idx := mapHeader(cells)
	if idx.complete() {
		return idx, true
	}
	if len(idx) > len(h.best) {
		h.best = idx
	}
	return nil, false
}

// exhausted reports whether the scan limit has been reached.
func (h *headerFinder) exhausted() bool {
	return h.seen >= h.limit
}

// err describes why no header was found.
func (h *headerFinder) err() error {
	if h.seen == 0 {
		return eris.New("loader: input has no rows")
	}
	if len(h.best) == 0 {
		return eris.Errorf("loader: no header row found in the first %d rows", h.seen)
	}
	return eris.Errorf("loader: missing required columns: %s", strings.Join(h.best.missing(), ", "))
}
