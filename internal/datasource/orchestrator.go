package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/seenimoa/stockfusion/internal/analysis/fundamental"
	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

// ErrUnresolvableIdentifier is returned when a security identifier cannot be
// normalized to a six-digit code. It is the only error Fetch returns.
var ErrUnresolvableIdentifier = errors.New("unresolvable security identifier")

// Bundle is everything fetched for one security. Every category is either
// present or an explicit absence.
type Bundle struct {
	Code         string                                      `json:"code"`
	Profile      provider.Result[models.CompanyProfile]      `json:"profile"`
	Abstract     provider.Result[*models.Statement]          `json:"abstract"`
	Balance      provider.Result[*models.Statement]          `json:"balance"`
	Income       provider.Result[*models.Statement]          `json:"income"`
	CashFlow     provider.Result[*models.Statement]          `json:"cash_flow"`
	History      provider.Result[[]models.PriceBar]          `json:"history"`
	Dividends    provider.Result[[]models.Dividend]          `json:"dividends"`
	Northbound   provider.Result[[]models.NorthboundHolding] `json:"northbound"`
	Industry     provider.Result[models.IndustryComparison]  `json:"industry"`
	Shareholders provider.Result[models.ShareholderRoster]   `json:"shareholders"`
	Valuation    provider.Result[models.ValuationSnapshot]   `json:"valuation"`
	FetchedAt    time.Time                                   `json:"fetched_at"`
	Elapsed      time.Duration                               `json:"elapsed"`
}

// Options configures an Orchestrator.
type Options struct {
	MaxWorkers     int
	KlineYears     int
	Retry          infra.RetryPolicy
	ConstituentTTL time.Duration
}

// Orchestrator fans the category fetches of one security out over a
// process-wide worker pool.
type Orchestrator struct {
	cats       *Categories
	sem        *semaphore.Weighted
	klineYears int
	log        zerolog.Logger
}

// NewOrchestrator creates an orchestrator over reg. The industry directory
// is taken from the first registered provider that publishes one.
func NewOrchestrator(reg *provider.Registry, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 8
	}
	if opts.KlineYears <= 0 {
		opts.KlineYears = 5
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = infra.DefaultRetryPolicy
	}
	log = infra.Component(log, "orchestrator")

	var dir *Directory
	if src, ok := reg.Directory(); ok {
		dir = NewDirectory(src, opts.ConstituentTTL, opts.Retry, log)
	}
	return &Orchestrator{
		cats:       NewCategories(reg, dir, opts.Retry, log),
		sem:        semaphore.NewWeighted(int64(opts.MaxWorkers)),
		klineYears: opts.KlineYears,
		log:        log,
	}
}

// Categories returns the category fetchers for single-category use.
func (o *Orchestrator) Categories() *Categories { return o.cats }

// Fetch normalizes raw and fetches every category. The profile is resolved
// first; the independent categories then run concurrently, each writing
// only its own field; the dependent stages run after they all finish.
func (o *Orchestrator) Fetch(ctx context.Context, raw string) (*Bundle, error) {
	code, err := utils.NormalizeCode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnresolvableIdentifier, raw, err)
	}

	start := time.Now()
	log := o.log.With().Str("code", code).Logger()
	b := &Bundle{Code: code, FetchedAt: start}

	b.Profile = o.cats.Profile(ctx, code)
	log.Debug().Str("name", b.Profile.Value.Name).Str("industry", b.Profile.Value.Industry).Msg("profile resolved")

	now := o.cats.now()
	historyStart := utils.YearsAgo(now, o.klineYears)

	var g errgroup.Group
	o.spawn(ctx, &g, func() { b.Abstract = o.cats.Statement(ctx, provider.ModelFinancialAbstract, code) })
	o.spawn(ctx, &g, func() { b.Balance = o.cats.Statement(ctx, provider.ModelBalanceSheet, code) })
	o.spawn(ctx, &g, func() { b.Income = o.cats.Statement(ctx, provider.ModelIncomeStatement, code) })
	o.spawn(ctx, &g, func() { b.CashFlow = o.cats.Statement(ctx, provider.ModelCashFlowStatement, code) })
	o.spawn(ctx, &g, func() { b.History = o.cats.History(ctx, code, historyStart, now) })
	o.spawn(ctx, &g, func() { b.Dividends = o.cats.Dividends(ctx, code) })
	o.spawn(ctx, &g, func() { b.Northbound = o.cats.Northbound(ctx, code) })
	o.spawn(ctx, &g, func() { b.Industry = o.cats.Industry(ctx, code, b.Profile.Value.Industry) })
	_ = g.Wait()

	// dependent stages
	b.Shareholders = o.cats.Shareholders(ctx, code, b.Abstract.Value)
	if !b.Profile.Value.TotalShares.Valid && b.Abstract.Present {
		if shares, period := fundamental.SharesFromAbstract(b.Abstract.Value); shares.Valid {
			b.Profile.Value.TotalShares = shares
			b.Profile.Value.SharesSource = SourceAbstract
			log.Debug().Float64("shares", shares.Float64).Time("period", period).Msg("shares derived from abstract")
		}
	}
	b.Valuation = o.cats.Valuation(ctx, code, b.History, b.Profile.Value.TotalShares)

	b.Elapsed = time.Since(start)
	log.Info().Dur("elapsed", b.Elapsed).Int("absent", len(b.Absent())).Msg("fetch complete")
	return b, nil
}

// spawn runs task on g once a worker slot is free. Tasks never fail the
// group; a context cancelled while waiting leaves the field absent.
func (o *Orchestrator) spawn(ctx context.Context, g *errgroup.Group, task func()) {
	g.Go(func() error {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			return nil
		}
		defer o.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				o.log.Error().Interface("panic", r).Msg("category task panicked")
			}
		}()
		task()
		return nil
	})
}

// Absent lists the categories that no source could supply.
func (b *Bundle) Absent() []string {
	var out []string
	add := func(name string, present bool) {
		if !present {
			out = append(out, name)
		}
	}
	add("profile", b.Profile.Present)
	add("abstract", b.Abstract.Present)
	add("balance", b.Balance.Present)
	add("income", b.Income.Present)
	add("cash_flow", b.CashFlow.Present)
	add("history", b.History.Present)
	add("dividends", b.Dividends.Present)
	add("northbound", b.Northbound.Present)
	add("industry", b.Industry.Present)
	add("shareholders", b.Shareholders.Present)
	add("valuation", b.Valuation.Present)
	return out
}

// Shares returns the resolved total share count.
func (b *Bundle) Shares() null.Float {
	return b.Profile.Value.TotalShares
}
