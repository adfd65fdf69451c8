package pipeline

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/sells-group/retail-report/internal/model"
	"github.com/sells-group/retail-report/internal/store"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) CreateRun(ctx context.Context, source model.Source) (*model.Run, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID string, report *model.Report) error {
	args := m.Called(ctx, runID, report)
	return args.Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, runID string, reason string) error {
	args := m.Called(ctx, runID, reason)
	return args.Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	args := m.Called(ctx, runID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RunPhase), args.Error(1)
}

func (m *mockStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	args := m.Called(ctx, phaseID, result)
	return args.Error(0)
}

func (m *mockStore) ListPhases(ctx context.Context, runID string) ([]model.RunPhase, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RunPhase), args.Error(1)
}

func (m *mockStore) SaveCustomerMetrics(ctx context.Context, runID string, rows []model.CustomerRFM) (int64, error) {
	args := m.Called(ctx, runID, rows)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) ListCustomerMetrics(ctx context.Context, runID string, limit int) ([]model.CustomerRFM, error) {
	args := m.Called(ctx, runID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CustomerRFM), args.Error(1)
}

func (m *mockStore) SaveMonthlyRevenue(ctx context.Context, runID string, rows []model.MonthlyRevenue) (int64, error) {
	args := m.Called(ctx, runID, rows)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) ListMonthlyRevenue(ctx context.Context, runID string) ([]model.MonthlyRevenue, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MonthlyRevenue), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Output Mock ---

type mockOutput struct {
	mock.Mock
	name string
}

func (m *mockOutput) Name() string { return m.name }

func (m *mockOutput) Write(ctx context.Context, report *model.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// --- Fixtures ---

func strPtr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

// raw builds a loaded row. An empty customer means a missing id.
func raw(invoice, stock string, qty int, price, date, customer, country string) model.RawTransaction {
	r := model.RawTransaction{
		InvoiceNo:   invoice,
		StockCode:   stock,
		Description: "ITEM " + stock,
		Quantity:    qty,
		InvoiceDate: at(date),
		UnitPrice:   dec(price),
		Country:     country,
	}
	if customer != "" {
		r.CustomerID = strPtr(customer)
	}
	return r
}

// enriched runs the clean and enrich stages over raw rows.
func enriched(rows ...model.RawTransaction) []model.EnrichedTransaction {
	clean, _ := Clean(rows)
	return Enrich(clean)
}
