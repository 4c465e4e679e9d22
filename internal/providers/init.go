// Package providers creates the configured upstream providers and registers
// them with a provider registry in category priority order.
package providers

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/seenimoa/stockfusion/internal/config"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/internal/providers/baostock"
	"github.com/seenimoa/stockfusion/internal/providers/eastmoney"
	"github.com/seenimoa/stockfusion/internal/providers/legulegu"
	"github.com/seenimoa/stockfusion/internal/providers/sina"
	"github.com/seenimoa/stockfusion/internal/session"
)

// Category priorities. Providers that are not registered are skipped.
var priorities = map[provider.ModelType][]string{
	provider.ModelCompanyInfo:       {"eastmoney", "baostock"},
	provider.ModelPriceHistory:      {"eastmoney", "baostock"},
	provider.ModelBalanceSheet:      {"sina", "eastmoney"},
	provider.ModelIncomeStatement:   {"sina", "eastmoney"},
	provider.ModelCashFlowStatement: {"sina", "eastmoney"},
}

// Registered holds what RegisterAll created that needs an explicit shutdown.
type Registered struct {
	Sessions []*session.Session
}

// Shutdown disconnects every provider session.
func (r *Registered) Shutdown() {
	for _, s := range r.Sessions {
		_ = s.Disconnect()
	}
}

// RegisterAll registers every enabled provider to reg.
func RegisterAll(reg *provider.Registry, cfg *config.Config, log zerolog.Logger) (*Registered, error) {
	out := &Registered{}
	pc := cfg.Providers
	timeout := cfg.Fetch.Timeout

	// --- Eastmoney (primary) ---
	if pc.Eastmoney.Enabled {
		opts := []eastmoney.Option{eastmoney.WithLogger(log), eastmoney.WithRateLimit(pc.Eastmoney.RateLimit)}
		if pc.Eastmoney.BaseURL != "" {
			opts = append(opts, eastmoney.WithBaseURL(pc.Eastmoney.BaseURL))
		}
		if timeout > 0 {
			opts = append(opts, eastmoney.WithTimeout(timeout))
		}
		if err := reg.Register(eastmoney.New(opts...)); err != nil {
			return nil, err
		}
	}

	// --- Sina (statements) ---
	if pc.Sina.Enabled {
		opts := []sina.Option{sina.WithLogger(log), sina.WithRateLimit(pc.Sina.RateLimit)}
		if pc.Sina.BaseURL != "" {
			opts = append(opts, sina.WithBaseURL(pc.Sina.BaseURL))
		}
		if timeout > 0 {
			opts = append(opts, sina.WithTimeout(timeout))
		}
		if err := reg.Register(sina.New(opts...)); err != nil {
			return nil, err
		}
	}

	// --- Legulegu (valuation indicator) ---
	if pc.Legulegu.Enabled {
		opts := []legulegu.Option{legulegu.WithLogger(log), legulegu.WithRateLimit(pc.Legulegu.RateLimit)}
		if pc.Legulegu.BaseURL != "" {
			opts = append(opts, legulegu.WithBaseURL(pc.Legulegu.BaseURL))
		}
		if timeout > 0 {
			opts = append(opts, legulegu.WithTimeout(timeout))
		}
		if err := reg.Register(legulegu.New(opts...)); err != nil {
			return nil, err
		}
	}

	// --- Baostock (secondary, session based) ---
	if pc.Baostock.Enabled {
		bc := pc.Baostock
		client := baostock.NewClient(bc.Address, bc.User, bc.Password, bc.Timeout)
		sess := session.New("baostock", client, log)
		if err := reg.Register(baostock.New(client, sess, baostock.WithLogger(log))); err != nil {
			return nil, err
		}
		out.Sessions = append(out.Sessions, sess)
	}

	if err := applyPriorities(reg); err != nil {
		return nil, err
	}
	return out, nil
}

func applyPriorities(reg *provider.Registry) error {
	for model, order := range priorities {
		available := reg.ProvidersFor(model)
		names := make([]string, 0, len(available))
		for _, name := range order {
			if slices.Contains(available, name) {
				names = append(names, name)
			}
		}
		// providers outside the table keep their place after the listed ones
		for _, name := range available {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			continue
		}
		if err := reg.SetPriority(model, names...); err != nil {
			return err
		}
	}
	return nil
}
