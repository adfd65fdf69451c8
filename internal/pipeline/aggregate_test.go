package pipeline

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/retail-report/internal/model"
)

func TestAggregate_SingleInvoice(t *testing.T) {
	rows := enriched(
		raw("536365", "85123A", 6, "2.55", "2010-12-01 08:26", "17850", "United Kingdom"),
		raw("C536379", "85123A", 1, "2.55", "2010-12-01 09:41", "17850", "United Kingdom"),
	)

	report := Aggregate(rows, DefaultTopN)

	assert.True(t, report.Totals.Revenue.Equal(dec("15.30")))
	assert.Equal(t, 1, report.Totals.Orders)
	assert.Equal(t, 1, report.Totals.Customers)

	require.Len(t, report.TopProducts, 1)
	assert.Equal(t, "85123A", report.TopProducts[0].StockCode)
	assert.Equal(t, 6, report.TopProducts[0].Quantity)

	require.Len(t, report.Customers, 1)
	assert.Equal(t, model.CustomerRFM{
		CustomerID:  "17850",
		RecencyDays: 0,
		Frequency:   1,
		Monetary:    report.Customers[0].Monetary,
	}, report.Customers[0])
	assert.True(t, report.Customers[0].Monetary.Equal(dec("15.30")))
}

func TestAggregate_MissingCustomerExcluded(t *testing.T) {
	rows := enriched(
		raw("536365", "85123A", 6, "2.55", "2010-12-01 08:26", "17850", "United Kingdom"),
		raw("536366", "22633", 3, "1.10", "2010-12-01 08:28", "", "United Kingdom"),
	)

	report := Aggregate(rows, DefaultTopN)
	assert.True(t, report.Totals.Revenue.Equal(dec("15.30")))
	assert.Equal(t, 1, report.Totals.Orders)
	require.Len(t, report.Customers, 1)
	assert.Equal(t, "17850", report.Customers[0].CustomerID)
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(Enrich(nil), DefaultTopN)

	assert.True(t, report.Totals.Revenue.IsZero())
	assert.Zero(t, report.Totals.Orders)
	assert.Zero(t, report.Totals.Customers)

	assert.NotNil(t, report.TopProducts)
	assert.Empty(t, report.TopProducts)
	assert.NotNil(t, report.Monthly)
	assert.Empty(t, report.Monthly)
	assert.NotNil(t, report.TopCountries)
	assert.Empty(t, report.TopCountries)
	assert.NotNil(t, report.Weekdays)
	assert.Empty(t, report.Weekdays)
	assert.NotNil(t, report.TopCustomers)
	assert.Empty(t, report.TopCustomers)
	assert.NotNil(t, report.Customers)
	assert.Empty(t, report.Customers)
}

func TestTotals_DistinctCounts(t *testing.T) {
	rows := enriched(
		raw("1", "A", 1, "1.00", "2011-01-03 10:00", "c1", "UK"),
		raw("1", "B", 2, "2.00", "2011-01-03 10:00", "c1", "UK"),
		raw("2", "A", 1, "1.00", "2011-01-04 10:00", "c2", "UK"),
		raw("3", "A", 1, "1.00", "2011-01-05 10:00", "c1", "UK"),
	)

	totals := Totals(rows)
	assert.True(t, totals.Revenue.Equal(dec("7")))
	assert.Equal(t, 3, totals.Orders)
	assert.Equal(t, 2, totals.Customers)
}

func TestTopProducts_RankingAndTieBreak(t *testing.T) {
	rows := enriched(
		raw("1", "B", 1, "10.00", "2011-01-03 10:00", "c1", "UK"),
		raw("2", "A", 2, "5.00", "2011-01-03 10:00", "c1", "UK"),
		raw("3", "C", 1, "20.00", "2011-01-03 10:00", "c2", "UK"),
		raw("4", "D", 1, "1.00", "2011-01-03 10:00", "c2", "UK"),
		raw("5", "C", 3, "1.00", "2011-01-04 10:00", "c2", "UK"),
	)

	top := TopProducts(rows, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "C", top[0].StockCode)
	assert.True(t, top[0].Revenue.Equal(dec("23")))
	assert.Equal(t, 4, top[0].Quantity)
	// A and B tie on 10.00; stock code decides.
	assert.Equal(t, "A", top[1].StockCode)
	assert.Equal(t, "B", top[2].StockCode)
}

func TestTopProducts_DescriptionSplitsGroups(t *testing.T) {
	a := raw("1", "85123A", 1, "2.55", "2011-01-03 10:00", "c1", "UK")
	a.Description = "WHITE HANGING HEART T-LIGHT HOLDER"
	b := raw("2", "85123A", 1, "2.55", "2011-01-03 10:00", "c1", "UK")
	b.Description = "CREAM HANGING HEART T-LIGHT HOLDER"

	top := TopProducts(enriched(a, b), 10)
	require.Len(t, top, 2)
	assert.Equal(t, "CREAM HANGING HEART T-LIGHT HOLDER", top[0].Description)
	assert.Equal(t, "WHITE HANGING HEART T-LIGHT HOLDER", top[1].Description)
}

func TestTopProducts_Truncation(t *testing.T) {
	var rows []model.RawTransaction
	for i := 0; i < 25; i++ {
		rows = append(rows, raw(fmt.Sprint(i), fmt.Sprintf("P%02d", i), i+1, "1.00", "2011-01-03 10:00", "c1", "UK"))
	}

	top := TopProducts(enriched(rows...), DefaultTopN)
	require.Len(t, top, DefaultTopN)
	assert.Equal(t, "P24", top[0].StockCode)
	assert.Equal(t, "P15", top[9].StockCode)

	assert.Empty(t, TopProducts(enriched(rows...), 0))
}

func TestMonthlyTrend_ChronologicalAndComplete(t *testing.T) {
	rows := enriched(
		raw("1", "A", 1, "3.00", "2011-02-10 10:00", "c1", "UK"),
		raw("2", "A", 1, "1.00", "2010-12-01 10:00", "c1", "UK"),
		raw("3", "A", 1, "2.00", "2011-01-15 10:00", "c1", "UK"),
		raw("4", "A", 1, "4.00", "2010-12-31 23:59", "c1", "UK"),
	)

	trend := MonthlyTrend(rows)
	require.Len(t, trend, 3)
	assert.Equal(t, "2010-12", trend[0].YearMonth)
	assert.Equal(t, "Dec 2010", trend[0].Month)
	assert.True(t, trend[0].Revenue.Equal(dec("5")))
	assert.Equal(t, "2011-01", trend[1].YearMonth)
	assert.Equal(t, "2011-02", trend[2].YearMonth)
	assert.Equal(t, "Feb 2011", trend[2].Month)
}

func TestTopCountries_TieBreakByName(t *testing.T) {
	rows := enriched(
		raw("1", "A", 1, "5.00", "2011-01-03 10:00", "c1", "Germany"),
		raw("2", "A", 1, "5.00", "2011-01-03 10:00", "c2", "France"),
		raw("3", "A", 1, "9.00", "2011-01-03 10:00", "c3", "United Kingdom"),
		raw("4", "A", 1, "1.00", "2011-01-03 10:00", "c4", "EIRE"),
	)

	top := TopCountries(rows, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "United Kingdom", top[0].Country)
	assert.Equal(t, "France", top[1].Country)
	assert.Equal(t, "Germany", top[2].Country)
}

func TestWeekdayTrend_MondayFirstPresentOnly(t *testing.T) {
	rows := enriched(
		raw("1", "A", 1, "1.00", "2011-01-09 10:00", "c1", "UK"), // Sun
		raw("2", "A", 1, "2.00", "2011-01-05 10:00", "c1", "UK"), // Wed
		raw("3", "A", 1, "3.00", "2011-01-03 10:00", "c1", "UK"), // Mon
		raw("4", "A", 1, "4.00", "2011-01-10 10:00", "c1", "UK"), // Mon
	)

	trend := WeekdayTrend(rows)
	require.Len(t, trend, 3)
	assert.Equal(t, "Mon", trend[0].Weekday)
	assert.True(t, trend[0].Revenue.Equal(dec("7")))
	assert.Equal(t, "Wed", trend[1].Weekday)
	assert.Equal(t, "Sun", trend[2].Weekday)
}

func TestCustomerRFM_SpanFrequencyMonetary(t *testing.T) {
	rows := enriched(
		raw("1", "A", 2, "5.00", "2011-01-03 18:00", "c1", "UK"),
		raw("1", "B", 1, "1.00", "2011-01-03 18:00", "c1", "UK"),
		raw("2", "A", 1, "5.00", "2011-01-13 08:00", "c1", "UK"),
		raw("3", "A", 10, "5.00", "2011-03-01 12:00", "c2", "UK"),
	)

	rfm := CustomerRFM(rows)
	require.Len(t, rfm, 2)

	assert.Equal(t, "c2", rfm[0].CustomerID)
	assert.Equal(t, 0, rfm[0].RecencyDays)
	assert.Equal(t, 1, rfm[0].Frequency)
	assert.True(t, rfm[0].Monetary.Equal(dec("50")))

	assert.Equal(t, "c1", rfm[1].CustomerID)
	assert.Equal(t, 10, rfm[1].RecencyDays)
	assert.Equal(t, 2, rfm[1].Frequency)
	assert.True(t, rfm[1].Monetary.Equal(dec("16")))
}

func TestCustomerRFM_TieBreakByID(t *testing.T) {
	rows := enriched(
		raw("1", "A", 1, "5.00", "2011-01-03 10:00", "15000", "UK"),
		raw("2", "A", 1, "5.00", "2011-01-03 10:00", "12000", "UK"),
		raw("3", "A", 1, "5.00", "2011-01-03 10:00", "13000", "UK"),
	)

	rfm := CustomerRFM(rows)
	require.Len(t, rfm, 3)
	assert.Equal(t, "12000", rfm[0].CustomerID)
	assert.Equal(t, "13000", rfm[1].CustomerID)
	assert.Equal(t, "15000", rfm[2].CustomerID)
}

func TestTopCustomers(t *testing.T) {
	rfm := []model.CustomerRFM{
		{CustomerID: "a", Monetary: dec("3")},
		{CustomerID: "b", Monetary: dec("2")},
		{CustomerID: "c", Monetary: dec("1")},
	}

	top := TopCustomers(rfm, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].CustomerID)

	top[0].CustomerID = "changed"
	assert.Equal(t, "a", rfm[0].CustomerID)

	assert.Len(t, TopCustomers(rfm, 10), 3)
	assert.Empty(t, TopCustomers(rfm, -1))
	assert.Empty(t, TopCustomers(nil, 5))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(at("2011-01-03 00:00"), at("2011-01-03 23:59")))
	assert.Equal(t, 1, DaysBetween(at("2011-01-03 23:59"), at("2011-01-04 00:01")))
	assert.Equal(t, 365, DaysBetween(at("2010-12-01 00:00"), at("2011-12-01 00:00")))

	// A spring-forward day is still one calendar day.
	loc, err := time.LoadLocation("Europe/London")
	if err == nil {
		a := time.Date(2011, 3, 27, 0, 0, 0, 0, loc)
		b := time.Date(2011, 3, 28, 0, 0, 0, 0, loc)
		assert.Equal(t, 1, DaysBetween(a, b))
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	base := []model.RawTransaction{
		raw("1", "A", 2, "1.10", "2010-12-01 08:26", "c1", "United Kingdom"),
		raw("2", "B", 3, "0.85", "2010-12-02 09:00", "c2", "France"),
		raw("3", "C", 1, "12.75", "2011-01-05 10:00", "c3", "Germany"),
		raw("4", "A", 5, "1.10", "2011-01-06 11:00", "c1", "United Kingdom"),
		raw("5", "D", 4, "2.10", "2011-02-01 12:00", "c2", "France"),
		raw("6", "E", 7, "0.42", "2011-02-07 13:00", "c4", "EIRE"),
		raw("7", "B", 3, "0.85", "2011-03-08 14:00", "c3", "Germany"),
	}
	want := Aggregate(enriched(base...), 3)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]model.RawTransaction(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Aggregate(enriched(shuffled...), 3)
		assert.Equal(t, want, got)
	}
}

func TestAggregate_RevenueConsistency(t *testing.T) {
	rows := enriched(
		raw("1", "A", 2, "1.10", "2010-12-01 08:26", "c1", "United Kingdom"),
		raw("2", "B", 3, "0.85", "2010-12-02 09:00", "c2", "France"),
		raw("3", "C", 1, "12.75", "2011-01-05 10:00", "c3", "Germany"),
		raw("4", "A", 5, "1.10", "2011-01-06 11:00", "c1", "United Kingdom"),
	)
	report := Aggregate(rows, DefaultTopN)

	monthly := dec("0")
	for _, m := range report.Monthly {
		monthly = monthly.Add(m.Revenue)
	}
	customers := dec("0")
	for _, c := range report.Customers {
		customers = customers.Add(c.Monetary)
		assert.GreaterOrEqual(t, c.RecencyDays, 0)
		assert.GreaterOrEqual(t, c.Frequency, 1)
	}
	assert.True(t, monthly.Equal(report.Totals.Revenue))
	assert.True(t, customers.Equal(report.Totals.Revenue))
}
