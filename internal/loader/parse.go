package loader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/retail-report/internal/model"
)

// dateLayouts are tried in order for textual invoice dates. Slash dates are
// month first, as in the common retail exports.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2-Jan-2006 15:04",
	"2-Jan-2006",
}

// nullTokens are cell values that mean "no value".
var nullTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"na":   true,
	"n/a":  true,
}

// rowParser converts string cells into typed transactions.
type rowParser struct {
	cols     columnIndex
	loc      *time.Location
	date1904 bool
}

// parse converts one data row. row is the 1-based source row number.
func (p *rowParser) parse(row int, cells []string) (model.RawTransaction, error) {
	tx := model.RawTransaction{
		Row:         row,
		InvoiceNo:   normalizeID(p.cols.get(cells, ColInvoiceNo)),
		StockCode:   p.cols.get(cells, ColStockCode),
		Description: p.cols.get(cells, ColDescription),
		Country:     p.cols.get(cells, ColCountry),
		CustomerID:  ParseCustomerID(p.cols.get(cells, ColCustomerID)),
	}

	if tx.InvoiceNo == "" {
		return tx, eris.Errorf("loader: row %d: empty invoice number", row)
	}

	qty, err := ParseQuantity(p.cols.get(cells, ColQuantity))
	if err != nil {
		return tx, eris.Wrapf(err, "loader: row %d", row)
	}
	tx.Quantity = qty

	price, err := ParsePrice(p.cols.get(cells, ColUnitPrice))
	if err != nil {
		return tx, eris.Wrapf(err, "loader: row %d", row)
	}
	tx.UnitPrice = price

	date, err := ParseDate(p.cols.get(cells, ColInvoiceDate), p.loc, p.date1904)
	if err != nil {
		return tx, eris.Wrapf(err, "loader: row %d", row)
	}
	tx.InvoiceDate = date

	return tx, nil
}

// ParseQuantity accepts integers and integral floats ("6", "6.0").
func ParseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, eris.Errorf("invalid quantity %q", s)
	}
	if f != math.Trunc(f) {
		return 0, eris.Errorf("quantity %q is not a whole number", s)
	}
	if f >= math.MaxInt || f < math.MinInt {
		return 0, eris.Errorf("quantity %q is out of range", s)
	}
	return int(f), nil
}

// ParsePrice parses a unit price as an exact decimal. Values carrying more
// digits than a float64 holds (workbooks store 2.55 as 2.5499999999999998)
// are reduced to their shortest float representation.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, eris.Errorf("invalid unit price %q", s)
	}
	if d.NumDigits() > maxFloatDigits {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			d = decimal.NewFromFloat(f)
		}
	}
	return d, nil
}

// maxExcelSerial is 9999-12-31, the last date a workbook can store.
const maxExcelSerial = 2958465

// maxFloatDigits is the number of significant decimal digits a float64 round-trips.
const maxFloatDigits = 15

// ParseCustomerID returns nil for empty or null-like cells. Ids exported as
// floats ("17850.0") are reduced to their integer text.
func ParseCustomerID(s string) *string {
	s = strings.TrimSpace(s)
	if nullTokens[strings.ToLower(s)] {
		return nil
	}
	id := normalizeID(s)
	return &id
}

// normalizeID strips a zero fractional part from numeric identifiers.
func normalizeID(s string) string {
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Trim(s[i+1:], "0") == "" {
		if _, err := strconv.ParseUint(s[:i], 10, 64); err == nil {
			return s[:i]
		}
	}
	return s
}

// ParseDate parses an invoice timestamp. Plain numbers are Excel serial dates;
// text is matched against dateLayouts in loc.
func ParseDate(s string, loc *time.Location, date1904 bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, eris.New("empty invoice date")
	}
	if loc == nil {
		loc = time.UTC
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial <= 0 || serial >= maxExcelSerial+1 || math.IsNaN(serial) {
			return time.Time{}, eris.Errorf("invalid serial date %q", s)
		}
		t := xlsx.TimeFromExcelTime(serial, date1904)
		// Serial dates carry no zone; read the wall clock in loc.
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("invalid invoice date %q", s)
}
