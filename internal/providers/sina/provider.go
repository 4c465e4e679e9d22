// Package sina implements the Sina Finance data provider: the four financial
// report pages (balance, income, cash flow and key indicators) and the
// dividend history.
package sina

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
)

const providerName = "sina"

// Production hosts.
const (
	DefaultReportHost = "https://quotes.sina.cn"
	DefaultCorpHost   = "https://vip.stock.finance.sina.com.cn"

	DefaultTimeout   = 20 * time.Second
	DefaultRateLimit = 3.0
)

// Provider implements provider.Provider for Sina Finance.
type Provider struct {
	provider.BaseProvider

	reportHost string
	corpHost   string
	timeout    time.Duration
	rateLimit  float64
	http       *resty.Client
	log        zerolog.Logger
}

// Option configures the Provider.
type Option func(*Provider)

// WithBaseURL routes every endpoint to one host.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.reportHost = baseURL
		p.corpHost = baseURL
	}
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

// New creates a new Sina provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Sina Finance - financial reports and dividend history",
			"https://finance.sina.com.cn",
			false,
		),
		reportHost: DefaultReportHost,
		corpHost:   DefaultCorpHost,
		timeout:    DefaultTimeout,
		rateLimit:  DefaultRateLimit,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("provider", providerName).Logger()
	p.http = infra.NewHTTPClient(infra.HTTPConfig{
		Timeout:   p.timeout,
		RateLimit: p.rateLimit,
		Referer:   "https://finance.sina.com.cn/",
	})

	code := []string{provider.ParamCode}
	p.Handle(provider.ModelBalanceSheet, "balance sheet (资产负债表)", code, p.reportFetcher(balanceSource))
	p.Handle(provider.ModelIncomeStatement, "income statement (利润表)", code, p.reportFetcher(incomeSource))
	p.Handle(provider.ModelCashFlowStatement, "cash-flow statement (现金流量表)", code, p.reportFetcher(cashFlowSource))
	p.Handle(provider.ModelFinancialAbstract, "key financial indicators (关键指标)", code, p.reportFetcher(abstractSource))
	p.Handle(provider.ModelDividends, "dividend and bonus share history", code, p.fetchDividends)

	return p
}

// Ping requests the report list of a liquid large cap.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.fetchReport(ctx, abstractSource, "600519"); err != nil {
		return fmt.Errorf("sina ping: %w", err)
	}
	return nil
}
