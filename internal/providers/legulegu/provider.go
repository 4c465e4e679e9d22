// Package legulegu implements the Legulegu valuation indicator provider: the
// daily PE(TTM), PB and market value history of one security.
package legulegu

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

const (
	providerName = "legulegu"

	DefaultBaseURL   = "https://legulegu.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 1.0

	indicatorPath = "/api/s/base-info/"
	mvUnit        = 1e4 // total_mv is quoted in 万元
)

// Provider implements provider.Provider for Legulegu.
type Provider struct {
	provider.BaseProvider

	baseURL   string
	timeout   time.Duration
	rateLimit float64
	http      *resty.Client
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures the Provider.
type Option func(*Provider)

// WithBaseURL overrides the API host.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = baseURL }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithRateLimit sets requests per second.
func WithRateLimit(rps float64) Option {
	return func(p *Provider) { p.rateLimit = rps }
}

// WithLogger sets a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Provider) { p.log = log }
}

// New creates a new Legulegu provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Legulegu - daily valuation indicators",
			"https://legulegu.com",
			false,
		),
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		rateLimit: DefaultRateLimit,
		log:       zerolog.Nop(),
		now:       utils.NowCST,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("provider", providerName).Logger()
	p.http = infra.NewHTTPClient(infra.HTTPConfig{
		Timeout:   p.timeout,
		RateLimit: p.rateLimit,
		Referer:   "https://legulegu.com/",
	})

	p.Handle(provider.ModelValuationIndicator, "latest PE(TTM), PB and total market value", []string{provider.ParamCode}, p.fetchIndicator)
	return p
}

// Ping requests the indicator history of a liquid large cap.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.indicators(ctx, "600519"); err != nil {
		return fmt.Errorf("legulegu ping: %w", err)
	}
	return nil
}

// token is the md5 hex digest of the current CST date, which the API
// expects alongside every request.
func (p *Provider) token() string {
	sum := md5.Sum([]byte(utils.FormatDate(p.now())))
	return hex.EncodeToString(sum[:])
}

func (p *Provider) indicators(ctx context.Context, code string) (gjson.Result, error) {
	res, err := infra.GetJSON(ctx, p.http, p.baseURL+indicatorPath, map[string]string{
		"token": p.token(),
		"id":    code,
	})
	if err != nil {
		return gjson.Result{}, err
	}
	data := res.Get("data")
	if !data.IsArray() || len(data.Array()) == 0 {
		return gjson.Result{}, fmt.Errorf("indicator %s: %w", code, provider.ErrEmpty)
	}
	return data, nil
}

// fetchIndicator returns the most recent indicator row as a snapshot. Price
// and change are not published here and stay zero.
func (p *Provider) fetchIndicator(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	data, err := p.indicators(ctx, code)
	if err != nil {
		return nil, err
	}

	rows := data.Array()
	last := rows[len(rows)-1]
	snap := models.ValuationSnapshot{
		PETTM:   firstNumber(last, "peTtm", "pe_ttm", "pe"),
		PB:      firstNumber(last, "pb"),
		TotalMV: firstNumber(last, "totalMv", "total_mv") * mvUnit,
		Source:  models.ValuationIndicator,
	}
	if t, err := utils.ParseDate(last.Get("date").String()); err == nil {
		snap.AsOf = t
	} else if ms := last.Get("date").Int(); ms > 0 {
		snap.AsOf = utils.Truncate(time.UnixMilli(ms).In(utils.CST))
	}
	return snap, nil
}

// firstNumber returns the first known value among keys, zero otherwise.
func firstNumber(row gjson.Result, keys ...string) float64 {
	for _, k := range keys {
		if v := infra.Number(row.Get(k)); v.Valid {
			return v.Float64
		}
	}
	return 0
}
