package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockfusion/internal/datasource"
	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

type stubProvider struct {
	provider.BaseProvider
}

func (s *stubProvider) Ping(context.Context) error { return nil }

func (s *stubProvider) serve(model provider.ModelType, v any) {
	s.Handle(model, "", nil, func(context.Context, provider.QueryParams) (any, error) { return v, nil })
}

func newEngine(t *testing.T) *Engine {
	t.Helper()

	income := models.NewStatement(models.IncomeStatement, "600519")
	for i, v := range []float64{100, 250, 400, 600} {
		income.Set(utils.QuarterEnd(2023, i+1), "营业总收入", null.FloatFrom(v))
	}
	income.Set(utils.QuarterEnd(2023, 1), "归属于母公司所有者的净利润", null.FloatFrom(70))
	income.Set(utils.QuarterEnd(2023, 4), "归属于母公司所有者的净利润", null.FloatFrom(150))
	income.Set(utils.QuarterEnd(2024, 1), "归属于母公司所有者的净利润", null.FloatFrom(80))

	balance := models.NewStatement(models.BalanceSheet, "600519")
	balance.Set(utils.QuarterEnd(2024, 1), "归属于母公司股东权益合计", null.FloatFrom(1000))

	bars := []models.PriceBar{
		{Date: utils.Date(2024, 4, 1), Close: 10},
		{Date: utils.Date(2024, 4, 2), Close: 12},
	}

	stub := &stubProvider{BaseProvider: provider.NewBaseProvider("mock", "", "", false)}
	stub.serve(provider.ModelCompanyInfo, models.CompanyProfile{Name: "贵州茅台", Industry: "酿酒行业", TotalShares: null.FloatFrom(100)})
	stub.serve(provider.ModelIncomeStatement, income)
	stub.serve(provider.ModelBalanceSheet, balance)
	stub.serve(provider.ModelPriceHistory, bars)

	reg := provider.NewRegistry()
	require.NoError(t, reg.Register(stub))

	retry := infra.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, BackoffFactor: 1}
	orch := datasource.NewOrchestrator(reg, datasource.Options{Retry: retry}, zerolog.Nop())
	return New(orch, zerolog.Nop())
}

func TestAnalyze(t *testing.T) {
	r, err := newEngine(t).Analyze(context.Background(), "sh600519")
	require.NoError(t, err)

	_, err = uuid.Parse(r.RequestID)
	assert.NoError(t, err)
	assert.Equal(t, "600519", r.Bundle.Code)

	// cumulative {100,250,400,600} → single quarters {100,150,150,200}
	for q, want := range []float64{100, 150, 150, 200} {
		got := r.QuarterlyIncome.Value(utils.QuarterEnd(2023, q+1), "revenue")
		assert.Equal(t, null.FloatFrom(want), got, "Q%d", q+1)
	}

	// 80 + 150 − 70
	assert.Equal(t, null.FloatFrom(160), r.TTM.NetProfit.Value(utils.QuarterEnd(2024, 1)))
	assert.Equal(t, null.FloatFrom(600), r.TTM.Revenue.Value(utils.QuarterEnd(2023, 4)))

	require.Len(t, r.Daily, 2)
	last := r.Daily[1]
	assert.Equal(t, null.FloatFrom(1200), last.MarketCap)
	assert.InDelta(t, 7.5, last.PE.Float64, 1e-9)
	assert.InDelta(t, 1.2, last.PB.Float64, 1e-9)
	assert.InDelta(t, 2.0, last.PS.Float64, 1e-9)

	v := r.Valuation
	assert.Equal(t, models.ValuationDerived, v.Source)
	assert.Equal(t, models.ValuationDerived, v.Value.Source)
	assert.InDelta(t, 7.5, v.Value.PETTM, 1e-9)
	assert.Equal(t, 12.0, v.Value.Price)
	assert.InDelta(t, 20.0, v.Value.ChangePct, 1e-9)
	assert.Equal(t, 1200.0, v.Value.TotalMV)
}

func TestAnalyzeRejectsIdentifier(t *testing.T) {
	_, err := newEngine(t).Analyze(context.Background(), "")
	assert.True(t, errors.Is(err, datasource.ErrUnresolvableIdentifier))
}

func TestDeriveSnapshotKeepsUpstreamMultiples(t *testing.T) {
	snap := models.ValuationSnapshot{PETTM: 30, Source: models.ValuationIndicator}
	daily := []models.ValuationRow{{Close: 10, PE: null.FloatFrom(5)}}

	got, source := deriveSnapshot(snap, daily)
	assert.Equal(t, models.ValuationIndicator, source)
	assert.Equal(t, 30.0, got.PETTM)
}

func TestDeriveSnapshotNeedsKnownMultiple(t *testing.T) {
	snap := models.ValuationSnapshot{Price: 10, Source: models.ValuationFallback}
	daily := []models.ValuationRow{{Close: 10, MarketCap: null.FloatFrom(100)}}

	got, source := deriveSnapshot(snap, daily)
	assert.Equal(t, models.ValuationFallback, source)
	assert.Zero(t, got.TotalMV)
}

func TestReconcileAbsentBundle(t *testing.T) {
	r := Reconcile(&datasource.Bundle{Code: "600519"})

	assert.Nil(t, r.QuarterlyIncome)
	assert.Empty(t, r.TTM.NetProfit.Known())
	assert.Empty(t, r.Daily)
}
