// Package engine is the single entry point of stockfusion: it fetches every
// category of a security and reconciles the fused statements into quarterly,
// TTM and daily valuation series.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/seenimoa/stockfusion/internal/analysis/fundamental"
	"github.com/seenimoa/stockfusion/internal/datasource"
	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
)

// Report is the aggregate result of one analysis.
type Report struct {
	RequestID string             `json:"request_id"`
	Bundle    *datasource.Bundle `json:"bundle"`

	// Single-quarter views of the cumulative income and cash flow statements.
	QuarterlyIncome   *models.Statement `json:"quarterly_income,omitempty"`
	QuarterlyCashFlow *models.Statement `json:"quarterly_cash_flow,omitempty"`

	TTM    fundamental.TTMBundle `json:"ttm"`
	Equity models.Series         `json:"equity"`
	Daily  []models.ValuationRow `json:"daily_valuation"`

	// Valuation is the bundle's snapshot, completed from the daily series
	// when no upstream tier supplied multiples.
	Valuation provider.Result[models.ValuationSnapshot] `json:"valuation"`
}

// Engine composes the fetch orchestrator with the reconciler.
type Engine struct {
	orch *datasource.Orchestrator
	log  zerolog.Logger
}

// New creates an engine over orch.
func New(orch *datasource.Orchestrator, log zerolog.Logger) *Engine {
	return &Engine{orch: orch, log: infra.Component(log, "engine")}
}

// Analyze fetches and reconciles everything known about securityID. The
// only error it returns is datasource.ErrUnresolvableIdentifier; upstream
// failures surface as absent categories of the bundle.
func (e *Engine) Analyze(ctx context.Context, securityID string) (*Report, error) {
	reqID := uuid.NewString()
	log := e.log.With().Str("request_id", reqID).Str("security", securityID).Logger()
	start := time.Now()

	bundle, err := e.orch.Fetch(ctx, securityID)
	if err != nil {
		log.Warn().Err(err).Msg("identifier rejected")
		return nil, err
	}

	r := Reconcile(bundle)
	r.RequestID = reqID

	log.Info().
		Str("code", bundle.Code).
		Str("valuation_source", r.Valuation.Source).
		Int("daily_rows", len(r.Daily)).
		Strs("absent", bundle.Absent()).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")
	return r, nil
}

// Reconcile derives the report series from a fetched bundle. Absent
// statements reconcile to empty series.
func Reconcile(b *datasource.Bundle) *Report {
	income := b.Income.Value
	cashflow := b.CashFlow.Value
	abstract := b.Abstract.Value

	r := &Report{
		Bundle:            b,
		QuarterlyIncome:   fundamental.DecomposeQuarterly(income, nil),
		QuarterlyCashFlow: fundamental.DecomposeQuarterly(cashflow, nil),
		TTM:               fundamental.BuildTTMBundle(income, cashflow, abstract),
		Equity:            fundamental.EquitySeries(b.Balance.Value),
		Valuation:         b.Valuation,
	}
	if len(r.Equity.Known()) == 0 {
		r.Equity = fundamental.EquitySeries(abstract)
	}
	if b.History.Present {
		r.Daily = fundamental.DeriveDailyValuation(b.History.Value, r.TTM.NetProfit, r.TTM.Revenue, r.Equity, b.Shares())
	}
	r.Valuation.Value, r.Valuation.Source = deriveSnapshot(r.Valuation.Value, r.Daily)
	return r
}

// deriveSnapshot fills the multiples of snap from the last daily row when
// snap has none and the row has at least one.
func deriveSnapshot(snap models.ValuationSnapshot, daily []models.ValuationRow) (models.ValuationSnapshot, string) {
	if snap.HasMultiples() || len(daily) == 0 {
		return snap, snap.Source
	}
	last := daily[len(daily)-1]
	if !last.PE.Valid && !last.PB.Valid {
		return snap, snap.Source
	}

	snap.PETTM = last.PE.ValueOrZero()
	snap.PB = last.PB.ValueOrZero()
	if snap.TotalMV == 0 {
		snap.TotalMV = last.MarketCap.ValueOrZero()
	}
	if snap.Price == 0 {
		snap.Price = last.Close
	}
	if snap.AsOf.IsZero() {
		snap.AsOf = last.Date
	}
	snap.Source = models.ValuationDerived
	return snap, snap.Source
}
