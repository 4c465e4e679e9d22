// Package baostock implements the secondary, session-based provider backed
// by the baostock TCP service: forward-adjusted price history, daily
// valuation indicators and the basic profile with its industry.
//
// Every query requires a logged-in session. When the login cannot be
// established the fetchers report provider.ErrUnavailable so fallback chains
// move on.
package baostock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/internal/session"
)

const (
	providerName = "baostock"

	DefaultAddress  = "public-api.baostock.com:10030"
	DefaultUser     = "anonymous"
	DefaultPassword = "123456"
	DefaultTimeout  = 15 * time.Second

	pageSize = 10000
)

// Provider implements provider.Provider over an injected session.
type Provider struct {
	provider.BaseProvider

	client  *Client
	session *session.Session
	log     zerolog.Logger
	now     func() time.Time
}

// Option configures the Provider.
type Option func(*Provider)

// WithLogger sets a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Provider) { p.log = log }
}

// New creates a provider issuing queries over client once sess is connected.
// sess must wrap client as its transport.
func New(client *Client, sess *session.Session, opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Baostock - session-based history, daily indicators and profile",
			"http://baostock.com",
			true,
		),
		client:  client,
		session: sess,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("provider", providerName).Logger()

	code := []string{provider.ParamCode}
	p.Handle(provider.ModelPriceHistory, "daily forward-adjusted k-data (adjustflag=2)", code, p.fetchHistory)
	p.Handle(provider.ModelDailyIndicator, "latest peTTM, pbMRQ, close, turnover and change", code, p.fetchIndicator)
	p.Handle(provider.ModelCompanyInfo, "security name and industry classification", code, p.fetchInfo)
	return p
}

// Session returns the session the provider queries through.
func (p *Provider) Session() *session.Session { return p.session }

// Ping connects the session if needed.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.session.Connect(ctx); err != nil {
		return fmt.Errorf("baostock ping: %w", err)
	}
	return nil
}

// query runs a paged query and returns every record row.
func (p *Provider) query(ctx context.Context, msgType, method string, args ...string) ([][]string, error) {
	var rows [][]string
	for page := 1; ; page++ {
		fields := append([]string{method, p.client.User(), strconv.Itoa(page), strconv.Itoa(pageSize)}, args...)
		resp, err := p.call(ctx, msgType, fields...)
		if err != nil {
			return nil, err
		}
		batch, err := records(resp)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		rows = append(rows, batch...)
		if len(batch) < pageSize {
			return rows, nil
		}
	}
}

// call connects the session on demand and performs one round trip.
func (p *Provider) call(ctx context.Context, msgType string, fields ...string) ([]string, error) {
	if err := p.session.Connect(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
	}

	resp, err := p.client.Call(ctx, msgType, fields...)
	if err != nil {
		p.session.Invalidate()
		if errors.Is(err, errNotConnected) {
			return nil, fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
		}
		return nil, err
	}

	if err := checkStatus(resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.SessionLost() {
			p.log.Warn().Str("code", se.Code).Msg("session lost")
			p.session.Invalidate()
		}
		return nil, err
	}
	return resp, nil
}
