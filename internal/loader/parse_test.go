package loader

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	n, err := ParseQuantity("6")
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = ParseQuantity(" -12 ")
	require.NoError(t, err)
	assert.Equal(t, -12, n)

	n, err = ParseQuantity("3.0")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = ParseQuantity("2.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a whole number")

	_, err = ParseQuantity("six")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quantity")

	for _, s := range []string{"1e20", "-1e20", "9.3e18"} {
		_, err = ParseQuantity(s)
		require.Error(t, err, s)
		assert.Contains(t, err.Error(), "out of range", s)
	}
}

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice("2.55")
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("2.55")))

	// Workbooks store some prices with float noise.
	p, err = ParsePrice("2.5499999999999998")
	require.NoError(t, err)
	assert.Equal(t, "2.55", p.String())

	p, err = ParsePrice("-11062.06")
	require.NoError(t, err)
	assert.True(t, p.IsNegative())

	_, err = ParsePrice("£2.55")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid unit price")
}

func TestParseCustomerID(t *testing.T) {
	for _, s := range []string{"", "  ", "nan", "NaN", "NULL", "None", "n/a"} {
		assert.Nil(t, ParseCustomerID(s), "%q", s)
	}

	id := ParseCustomerID("17850.0")
	require.NotNil(t, id)
	assert.Equal(t, "17850", *id)

	id = ParseCustomerID(" 12583 ")
	require.NotNil(t, id)
	assert.Equal(t, "12583", *id)

	id = ParseCustomerID("C-100.5")
	require.NotNil(t, id)
	assert.Equal(t, "C-100.5", *id)
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC)

	for _, s := range []string{
		"2010-12-01 08:26:00",
		"2010-12-01T08:26:00",
		"2010-12-01 08:26",
		"12/1/2010 8:26",
		"12/01/2010 08:26:00",
		"1-Dec-2010 08:26",
	} {
		got, err := ParseDate(s, time.UTC, false)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), "%s parsed as %s", s, got)
	}
}

func TestParseDate_DateOnly(t *testing.T) {
	got, err := ParseDate("2011-01-04", nil, false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2011, 1, 4, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_Location(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got, err := ParseDate("2010-12-01 08:26:00", loc, false)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Hour())
	assert.Equal(t, loc, got.Location())
}

func TestParseDate_ExcelSerial(t *testing.T) {
	// 40513 is 2010-12-01 in the 1900 date system.
	got, err := ParseDate("40513.5", time.UTC, false)
	require.NoError(t, err)
	assert.Equal(t, 2010, got.Year())
	assert.Equal(t, time.December, got.Month())
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, 12, got.Hour())
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("", time.UTC, false)
	require.Error(t, err)

	_, err = ParseDate("yesterday", time.UTC, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid invoice date")

	_, err = ParseDate("-5", time.UTC, false)
	require.Error(t, err)
}

func TestParseDate_SerialOutsideWorkbookRange(t *testing.T) {
	for _, s := range []string{"20101201", "2958466", "1e9", "inf"} {
		_, err := ParseDate(s, time.UTC, false)
		require.Error(t, err, s)
		assert.Contains(t, err.Error(), "invalid serial date", s)
	}

	got, err := ParseDate("2958465", time.UTC, false)
	require.NoError(t, err)
	assert.Equal(t, 9999, got.Year())
	assert.Equal(t, time.December, got.Month())
	assert.Equal(t, 31, got.Day())
}

func TestRowParser_Parse(t *testing.T) {
	p := &rowParser{cols: mapHeader(retailHeader), loc: time.UTC}

	tx, err := p.parse(2, []string{"536365", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", "6", "2010-12-01 08:26:00", "2.55", "17850.0", "United Kingdom"})
	require.NoError(t, err)
	assert.Equal(t, 2, tx.Row)
	assert.Equal(t, "536365", tx.InvoiceNo)
	assert.Equal(t, "85123A", tx.StockCode)
	assert.Equal(t, 6, tx.Quantity)
	assert.Equal(t, "2.55", tx.UnitPrice.String())
	require.NotNil(t, tx.CustomerID)
	assert.Equal(t, "17850", *tx.CustomerID)
	assert.Equal(t, "United Kingdom", tx.Country)
}

func TestRowParser_ParseErrorsCarryRow(t *testing.T) {
	p := &rowParser{cols: mapHeader(retailHeader), loc: time.UTC}

	_, err := p.parse(7, []string{"536365", "85123A", "X", "lots", "2010-12-01", "2.55", "", "UK"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 7")

	_, err = p.parse(8, []string{"", "85123A", "X", "1", "2010-12-01", "2.55", "", "UK"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty invoice number")
}

func TestRowParser_MissingCustomerIsNotAnError(t *testing.T) {
	p := &rowParser{cols: mapHeader(retailHeader), loc: time.UTC}

	tx, err := p.parse(3, []string{"536414", "22139", "", "56", "2010-12-01 11:52", "0", "", "United Kingdom"})
	require.NoError(t, err)
	assert.Nil(t, tx.CustomerID)
	assert.True(t, tx.UnitPrice.IsZero())
}
