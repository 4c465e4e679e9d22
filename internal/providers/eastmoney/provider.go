// Package eastmoney implements the Eastmoney data provider: company info,
// market snapshots, forward-adjusted price history, northbound holdings,
// top-10 shareholders, F10 financial statements and the industry board
// directory. All endpoints are public JSON APIs.
package eastmoney

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
)

const providerName = "eastmoney"

// Production hosts.
const (
	DefaultQuoteHost      = "https://push2.eastmoney.com"
	DefaultHistoryHost    = "https://push2his.eastmoney.com"
	DefaultDataCenterHost = "https://datacenter-web.eastmoney.com"
	DefaultF10Host        = "https://emweb.securities.eastmoney.com"

	DefaultTimeout   = 20 * time.Second
	DefaultRateLimit = 5.0
	nameRegistryTTL  = 12 * time.Hour
)

type hosts struct {
	quote, history, dataCenter, f10 string
}

// Provider implements provider.Provider and provider.IndustryDirectory.
type Provider struct {
	provider.BaseProvider

	hosts     hosts
	timeout   time.Duration
	rateLimit float64
	http      *resty.Client
	log       zerolog.Logger
	names     *infra.Cache[map[string]string]
}

// Option configures the Provider.
type Option func(*Provider)

// WithBaseURL routes every endpoint to one host. Used by tests and proxies.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.hosts = hosts{quote: baseURL, history: baseURL, dataCenter: baseURL, f10: baseURL}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithRateLimit sets requests per second across all endpoints.
func WithRateLimit(rps float64) Option {
	return func(p *Provider) { p.rateLimit = rps }
}

// WithLogger sets a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Provider) { p.log = log }
}

// New creates a new Eastmoney provider and registers all fetchers.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Eastmoney - quotes, history, F10 filings and industry boards",
			"https://www.eastmoney.com",
			false,
		),
		hosts:     hosts{DefaultQuoteHost, DefaultHistoryHost, DefaultDataCenterHost, DefaultF10Host},
		timeout:   DefaultTimeout,
		rateLimit: DefaultRateLimit,
		log:       zerolog.Nop(),
		names:     infra.NewCache[map[string]string](nameRegistryTTL),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("provider", providerName).Logger()
	p.http = infra.NewHTTPClient(infra.HTTPConfig{
		Timeout:   p.timeout,
		RateLimit: p.rateLimit,
		Referer:   "https://quote.eastmoney.com/",
	})

	code := []string{provider.ParamCode}

	// --- Company ---
	p.Handle(provider.ModelCompanyInfo, "individual stock info (name, industry, total shares)", code, p.fetchInfo)
	p.Handle(provider.ModelNameRegistry, "code → name registry of all A shares", nil, p.fetchNames)
	p.Handle(provider.ModelMarketSnapshot, "real-time quote with PE, PB and market value", code, p.fetchSnapshot)

	// --- Market ---
	p.Handle(provider.ModelPriceHistory, "daily forward-adjusted price history", code, p.fetchHistory)
	p.Handle(provider.ModelNorthbound, "Stock Connect northbound holdings", code, p.fetchNorthbound)
	p.Handle(provider.ModelTopHolders, "top-10 shareholders at a report date", []string{provider.ParamCode, provider.ParamDate}, p.fetchTopHolders)

	// --- Fundamentals ---
	p.Handle(provider.ModelBalanceSheet, "F10 balance sheet", code, p.statementFetcher(balanceReport))
	p.Handle(provider.ModelIncomeStatement, "F10 income statement", code, p.statementFetcher(incomeReport))
	p.Handle(provider.ModelCashFlowStatement, "F10 cash-flow statement", code, p.statementFetcher(cashFlowReport))

	return p
}

// Ping checks connectivity with a quote request for the Shanghai index.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := infra.GetJSON(ctx, p.http, p.hosts.quote+"/api/qt/stock/get", map[string]string{
		"secid":  "1.000001",
		"fields": "f57,f58",
	})
	if err != nil {
		return fmt.Errorf("eastmoney ping: %w", err)
	}
	return nil
}
