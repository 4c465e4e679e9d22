package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"

	"github.com/seenimoa/stockfusion/internal/analysis/fundamental"
	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

// Retry budgets of the valuation tiers.
const (
	indicatorAttempts = 2
	snapshotAttempts  = 1

	// fallbackHistoryDays is the window fetched when the valuation fallback
	// has no price history to work from.
	fallbackHistoryDays = 45
)

// Profile field sources that are not provider names.
const (
	SourceDirectory = "directory"
	SourceAbstract  = "abstract"
	SourceSnapshot  = "snapshot"
)

var errBlank = fmt.Errorf("blank field: %w", provider.ErrEmpty)

// Categories exposes one fetch per data category, each a fallback chain
// over the registry.
type Categories struct {
	reg   *provider.Registry
	dir   *Directory // nil when no provider publishes a directory
	retry infra.RetryPolicy
	log   zerolog.Logger
	now   func() time.Time
}

// NewCategories creates the category fetchers. dir may be nil.
func NewCategories(reg *provider.Registry, dir *Directory, retry infra.RetryPolicy, log zerolog.Logger) *Categories {
	return &Categories{reg: reg, dir: dir, retry: retry, log: log, now: utils.NowCST}
}

func codeParams(code string) provider.QueryParams {
	return provider.QueryParams{provider.ParamCode: code}
}

// ── Company profile ──

// lazy memoizes one retried upstream call for the duration of a request.
func lazy[T any](retry infra.RetryPolicy, fn func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	var (
		once sync.Once
		v    T
		err  error
	)
	return func(ctx context.Context) (T, error) {
		once.Do(func() { v, err = infra.RetryValue(ctx, retry, guard(fn)) })
		return v, err
	}
}

// Profile resolves name, industry and total shares independently. Each
// field falls through its own chain; unresolved names default to the code
// and unresolved industries to models.UnknownIndustry. The result is
// present when at least one field came from a source.
func (c *Categories) Profile(ctx context.Context, code string) provider.Result[models.CompanyProfile] {
	params := codeParams(code)

	infoProviders := c.reg.ProvidersFor(provider.ModelCompanyInfo)
	info := make(map[string]func(context.Context) (models.CompanyProfile, error), len(infoProviders))
	for _, name := range infoProviders {
		info[name] = lazy(c.retry, func(ctx context.Context) (models.CompanyProfile, error) {
			return provider.FetchAs[models.CompanyProfile](ctx, c.reg, name, provider.ModelCompanyInfo, params)
		})
	}
	var snapshot func(context.Context) (models.Quote, error)
	if names := c.reg.ProvidersFor(provider.ModelMarketSnapshot); len(names) > 0 {
		snapshot = lazy(c.retry, func(ctx context.Context) (models.Quote, error) {
			return provider.FetchAs[models.Quote](ctx, c.reg, names[0], provider.ModelMarketSnapshot, params)
		})
	}

	// memoized steps are not retried again by the chain
	once := c.retry.WithAttempts(1)
	text := func(s string) bool { return strings.TrimSpace(s) != "" }

	infoStep := func(name string, field func(models.CompanyProfile) string) Step[string] {
		return Step[string]{Source: name, Fetch: func(ctx context.Context) (string, error) {
			p, err := info[name](ctx)
			if err != nil {
				return "", err
			}
			return field(p), nil
		}}
	}
	profileName := func(p models.CompanyProfile) string { return p.Name }
	profileIndustry := func(p models.CompanyProfile) string { return p.Industry }

	// Name: primary info → name registry → snapshot → other info providers.
	nameChain := Chain[string]{Model: provider.ModelCompanyInfo, Validate: text, Retry: once}
	if len(infoProviders) > 0 {
		nameChain.Steps = append(nameChain.Steps, infoStep(infoProviders[0], profileName))
	}
	for _, name := range c.reg.ProvidersFor(provider.ModelNameRegistry) {
		nameChain.Steps = append(nameChain.Steps, Step[string]{Source: name, Fetch: func(ctx context.Context) (string, error) {
			names, err := infra.RetryValue(ctx, c.retry, func(ctx context.Context) (map[string]string, error) {
				return provider.FetchAs[map[string]string](ctx, c.reg, name, provider.ModelNameRegistry, provider.QueryParams{})
			})
			if err != nil {
				return "", err
			}
			return names[code], nil
		}})
	}
	if snapshot != nil {
		nameChain.Steps = append(nameChain.Steps, Step[string]{Source: SourceSnapshot, Fetch: func(ctx context.Context) (string, error) {
			q, err := snapshot(ctx)
			return q.Name, err
		}})
	}
	for _, name := range tail(infoProviders) {
		nameChain.Steps = append(nameChain.Steps, infoStep(name, profileName))
	}

	// Industry: info providers in priority order → directory scan.
	industryChain := Chain[string]{Model: provider.ModelCompanyInfo, Validate: text, Retry: once}
	for _, name := range infoProviders {
		industryChain.Steps = append(industryChain.Steps, infoStep(name, profileIndustry))
	}
	if c.dir != nil {
		industryChain.Steps = append(industryChain.Steps, Step[string]{Source: SourceDirectory, Fetch: func(ctx context.Context) (string, error) {
			board, _, found, err := c.dir.Find(ctx, code)
			if err != nil {
				return "", err
			}
			if !found {
				return "", errBlank
			}
			return board.Name, nil
		}})
	}

	// Shares: info providers → snapshot market value ÷ price.
	sharesChain := Chain[float64]{Model: provider.ModelCompanyInfo, Validate: func(v float64) bool { return v > 0 }, Retry: once}
	for _, name := range infoProviders {
		sharesChain.Steps = append(sharesChain.Steps, Step[float64]{Source: name, Fetch: func(ctx context.Context) (float64, error) {
			p, err := info[name](ctx)
			return p.TotalShares.ValueOrZero(), err
		}})
	}
	if snapshot != nil {
		sharesChain.Steps = append(sharesChain.Steps, Step[float64]{Source: SourceSnapshot, Fetch: func(ctx context.Context) (float64, error) {
			q, err := snapshot(ctx)
			if err != nil {
				return 0, err
			}
			if q.Price <= 0 {
				return 0, errBlank
			}
			return q.TotalMV / q.Price, nil
		}})
	}

	log := c.log.With().Str("code", code).Logger()
	nameRes := nameChain.Run(ctx, log)
	industryRes := industryChain.Run(ctx, log)
	sharesRes := sharesChain.Run(ctx, log)

	profile := models.CompanyProfile{
		Code:           code,
		Name:           code,
		Industry:       models.UnknownIndustry,
		NameSource:     models.SourceDefault,
		IndustrySource: models.SourceDefault,
	}
	if v, ok := nameRes.Get(); ok {
		profile.Name, profile.NameSource = strings.TrimSpace(v), nameRes.Source
	}
	if v, ok := industryRes.Get(); ok {
		profile.Industry, profile.IndustrySource = strings.TrimSpace(v), industryRes.Source
	}
	if v, ok := sharesRes.Get(); ok {
		profile.TotalShares, profile.SharesSource = null.FloatFrom(v), sharesRes.Source
	}

	res := provider.Result[models.CompanyProfile]{
		Value:     profile,
		Source:    profile.NameSource,
		Present:   nameRes.Present || industryRes.Present || sharesRes.Present,
		FetchedAt: time.Now(),
	}
	for _, r := range [][]*provider.FetchError{nameRes.Failures, industryRes.Failures, sharesRes.Failures} {
		res.Failures = append(res.Failures, r...)
	}
	return res
}

func tail(s []string) []string {
	if len(s) < 2 {
		return nil
	}
	return s[1:]
}

// ── Statements ──

// Statement fetches one statement kind and canonicalizes its labels. Only
// statements with at least one mapped, known value are accepted.
func (c *Categories) Statement(ctx context.Context, model provider.ModelType, code string) provider.Result[*models.Statement] {
	chain := registryChain(c.reg, model, codeParams(code), c.retry, func(s *models.Statement) bool {
		return len(fundamental.KnownPeriods(fundamental.Canonicalize(s))) > 0
	})
	res := chain.Run(ctx, c.log.With().Str("code", code).Logger())
	if res.Present {
		res.Value = fundamental.Canonicalize(res.Value)
	}
	return res
}

// ── Market ──

// History fetches daily forward-adjusted bars for [start, end].
func (c *Categories) History(ctx context.Context, code string, start, end time.Time) provider.Result[[]models.PriceBar] {
	params := provider.QueryParams{
		provider.ParamCode:      code,
		provider.ParamStartDate: utils.FormatDate(start),
		provider.ParamEndDate:   utils.FormatDate(end),
	}
	return registryChain(c.reg, provider.ModelPriceHistory, params, c.retry, nonEmpty[models.PriceBar]).
		Run(ctx, c.log.With().Str("code", code).Logger())
}

// Dividends fetches the dividend history.
func (c *Categories) Dividends(ctx context.Context, code string) provider.Result[[]models.Dividend] {
	return registryChain(c.reg, provider.ModelDividends, codeParams(code), c.retry, nonEmpty[models.Dividend]).
		Run(ctx, c.log.With().Str("code", code).Logger())
}

// Northbound fetches Stock Connect holdings.
func (c *Categories) Northbound(ctx context.Context, code string) provider.Result[[]models.NorthboundHolding] {
	return registryChain(c.reg, provider.ModelNorthbound, codeParams(code), c.retry, nonEmpty[models.NorthboundHolding]).
		Run(ctx, c.log.With().Str("code", code).Logger())
}

// ── Shareholders ──

var errTooFewPeriods = errors.New("fewer than two report periods")

// Shareholders compares the top-10 holders of the two most recent report
// periods of abstract. The latest filing is required; a missing previous
// filing leaves every delta at zero.
func (c *Categories) Shareholders(ctx context.Context, code string, abstract *models.Statement) provider.Result[models.ShareholderRoster] {
	periods := fundamental.KnownPeriods(abstract)
	if len(periods) < 2 {
		return provider.Absent[models.ShareholderRoster](&provider.FetchError{
			Model: provider.ModelTopHolders, Kind: provider.KindEmpty, Err: errTooFewPeriods,
		})
	}
	latestDate, previousDate := periods[len(periods)-1], periods[len(periods)-2]
	log := c.log.With().Str("code", code).Logger()

	holdersAt := func(date time.Time) provider.Result[[]models.Shareholder] {
		params := provider.QueryParams{provider.ParamCode: code, provider.ParamDate: utils.FormatDate(date)}
		return registryChain(c.reg, provider.ModelTopHolders, params, c.retry, nonEmpty[models.Shareholder]).Run(ctx, log)
	}

	latest := holdersAt(latestDate)
	if !latest.Present {
		return provider.Absent[models.ShareholderRoster](latest.Failures...)
	}
	previous := holdersAt(previousDate)

	roster := models.ShareholderRoster{
		LatestDate:      latestDate,
		PreviousDate:    previousDate,
		PreviousMissing: !previous.Present,
	}
	var prev []models.Shareholder
	if previous.Present {
		prev = previous.Value
	}
	roster.Holders = fundamental.CompareHolders(latest.Value, prev)

	res := provider.Found(roster, latest.Source)
	res.Failures = previous.Failures
	return res
}

// ── Industry ──

// Industry locates the security's board, by the profile's industry name
// first and by scanning the directory otherwise, and compares it with its
// peers.
func (c *Categories) Industry(ctx context.Context, code, industryName string) provider.Result[models.IndustryComparison] {
	fail := func(kind provider.FailureKind, err error) provider.Result[models.IndustryComparison] {
		return provider.Absent[models.IndustryComparison](&provider.FetchError{
			Source: SourceDirectory, Model: provider.ModelCompanyInfo, Kind: kind, Err: err,
		})
	}
	if c.dir == nil {
		return fail(provider.KindUnavailable, errNoSource)
	}

	var (
		board models.Industry
		peers []models.PeerQuote
		found bool
		err   error
	)
	if industryName != "" && industryName != models.UnknownIndustry {
		board, found, err = c.dir.ByName(ctx, industryName)
		if err != nil {
			return fail(provider.Classify(err), err)
		}
		if found {
			if peers, err = c.dir.Constituents(ctx, board.Code); err != nil {
				return fail(provider.Classify(err), err)
			}
		}
	}
	if !found {
		board, peers, found, err = c.dir.Find(ctx, code)
		if err != nil {
			return fail(provider.Classify(err), err)
		}
		if !found {
			return fail(provider.KindEmpty, fmt.Errorf("%s not listed on any board: %w", code, provider.ErrEmpty))
		}
	}
	return provider.Found(fundamental.ComparePeers(board, code, peers), SourceDirectory)
}

// ── Valuation ──

// Valuation resolves the current valuation through its tiers: the
// indicator endpoint, the market snapshot, the secondary daily indicator,
// and finally local derivation from price history and the share count.
// A tier is accepted when it supplies PE or PB. The result is always
// present and its Source names the tier.
func (c *Categories) Valuation(ctx context.Context, code string, history provider.Result[[]models.PriceBar], shares null.Float) provider.Result[models.ValuationSnapshot] {
	log := c.log.With().Str("code", code).Logger()
	params := codeParams(code)

	bars := history.Value
	if !history.Present || len(bars) < 2 {
		now := c.now()
		recent := c.History(ctx, code, now.AddDate(0, 0, -fallbackHistoryDays), now)
		if recent.Present {
			bars = recent.Value
		}
	}
	price, change := lastCloses(bars)

	var failures []*provider.FetchError
	tiers := []struct {
		model    provider.ModelType
		attempts int
	}{
		{provider.ModelValuationIndicator, indicatorAttempts},
		{provider.ModelMarketSnapshot, snapshotAttempts},
		{provider.ModelDailyIndicator, c.retry.MaxAttempts},
	}
	for _, tier := range tiers {
		snap, ok, fails := c.valuationTier(ctx, log, tier.model, params, c.retry.WithAttempts(tier.attempts))
		failures = append(failures, fails...)
		if !ok {
			continue
		}
		if snap.Price == 0 {
			snap.Price = price
		}
		if snap.ChangePct == 0 {
			snap.ChangePct = change
		}
		if snap.TotalMV == 0 && shares.Valid && snap.Price > 0 {
			snap.TotalMV = snap.Price * shares.Float64
		}
		res := provider.Found(snap, snap.Source)
		res.Failures = failures
		return res
	}

	snap := models.ValuationSnapshot{
		Price:     price,
		ChangePct: change,
		Source:    models.ValuationFallback,
	}
	if len(bars) > 0 {
		snap.AsOf = bars[len(bars)-1].Date
	}
	if shares.Valid && price > 0 {
		snap.TotalMV = price * shares.Float64
	}
	log.Debug().Float64("price", price).Msg("valuation from local fallback")
	res := provider.Found(snap, models.ValuationFallback)
	res.Failures = failures
	return res
}

func (c *Categories) valuationTier(ctx context.Context, log zerolog.Logger, model provider.ModelType, params provider.QueryParams, retry infra.RetryPolicy) (models.ValuationSnapshot, bool, []*provider.FetchError) {
	if model == provider.ModelMarketSnapshot {
		res := registryChain(c.reg, model, params, retry, func(q models.Quote) bool { return q.PE != 0 || q.PB != 0 }).Run(ctx, log)
		if !res.Present {
			return models.ValuationSnapshot{}, false, res.Failures
		}
		return quoteSnapshot(res.Value), true, res.Failures
	}

	res := registryChain(c.reg, model, params, retry, models.ValuationSnapshot.HasMultiples).Run(ctx, log)
	return res.Value, res.Present, res.Failures
}

func quoteSnapshot(q models.Quote) models.ValuationSnapshot {
	return models.ValuationSnapshot{
		Price:       q.Price,
		PETTM:       q.PE,
		PB:          q.PB,
		TotalMV:     q.TotalMV,
		CircMV:      q.CircMV,
		Turnover:    q.Turnover,
		VolumeRatio: q.VolumeRatio,
		ChangePct:   q.ChangePct,
		Source:      models.ValuationMarket,
		AsOf:        utils.Truncate(q.Timestamp.In(utils.CST)),
	}
}

// lastCloses returns the latest close and its percent change over the one
// before. Both are zero without enough bars.
func lastCloses(bars []models.PriceBar) (price, changePct float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	price = bars[len(bars)-1].Close
	if len(bars) < 2 {
		return price, 0
	}
	if prev := bars[len(bars)-2].Close; prev > 0 {
		changePct = (price - prev) / prev * 100
	}
	return price, changePct
}
