// Package models defines the core data structures shared by the fetch,
// reconciliation and valuation layers.
package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Profile field sources recorded when a field falls back to a local default.
const (
	SourceDefault = "default"
)

// CompanyProfile is the resolved identity of a security. Each field is
// resolved independently, so partially resolved profiles are valid.
type CompanyProfile struct {
	Code           string     `json:"code"` // canonical six-digit code, e.g. "600519"
	Name           string     `json:"name"` // e.g. "贵州茅台"
	Industry       string     `json:"industry"`
	TotalShares    null.Float `json:"total_shares"`
	NameSource     string     `json:"name_source"`
	IndustrySource string     `json:"industry_source"`
	SharesSource   string     `json:"shares_source,omitempty"`
}

// UnknownIndustry is the placeholder used when no source resolves an industry.
const UnknownIndustry = "未知"

// PriceBar is one trading day of forward-adjusted price data.
type PriceBar struct {
	Date      time.Time  `json:"date"`
	Open      float64    `json:"open"`
	High      float64    `json:"high"`
	Low       float64    `json:"low"`
	Close     float64    `json:"close"`
	Volume    float64    `json:"volume"`
	Amount    null.Float `json:"amount"`     // traded value in CNY
	Turnover  null.Float `json:"turnover"`   // percent
	ChangePct null.Float `json:"change_pct"` // percent
}

// Quote is a point-in-time market snapshot of one security.
type Quote struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	ChangePct   float64   `json:"change_pct"`
	PE          float64   `json:"pe"` // dynamic PE
	PB          float64   `json:"pb"`
	TotalMV     float64   `json:"total_mv"`
	CircMV      float64   `json:"circ_mv"`
	Turnover    float64   `json:"turnover"`
	VolumeRatio float64   `json:"volume_ratio"`
	Amount      float64   `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
}

// Valuation snapshot sources, in tier order.
const (
	ValuationIndicator = "lg_indicator"
	ValuationMarket    = "spot_em"
	ValuationSecondary = "baostock"
	ValuationFallback  = "fallback"
	ValuationDerived   = "derived"
)

// ValuationSnapshot is the current valuation estimate of a security. Zero
// means not supplied. Source names the tier that produced it.
type ValuationSnapshot struct {
	Price       float64   `json:"price"`
	PETTM       float64   `json:"pe_ttm"`
	PB          float64   `json:"pb"`
	TotalMV     float64   `json:"total_mv"`
	CircMV      float64   `json:"circ_mv"`
	Turnover    float64   `json:"turnover"`
	VolumeRatio float64   `json:"volume_ratio"`
	ChangePct   float64   `json:"change_pct"`
	Source      string    `json:"source"`
	AsOf        time.Time `json:"as_of"`
}

// HasMultiples reports whether either PE or PB is populated.
func (v ValuationSnapshot) HasMultiples() bool {
	return v.PETTM != 0 || v.PB != 0
}

// ValuationRow is one trading day of the daily valuation series.
type ValuationRow struct {
	Date       time.Time  `json:"date"`
	Close      float64    `json:"close"`
	TTMProfit  null.Float `json:"ttm_profit"`
	TTMRevenue null.Float `json:"ttm_revenue"`
	Equity     null.Float `json:"equity"`
	MarketCap  null.Float `json:"market_cap"`
	PE         null.Float `json:"pe"`
	PB         null.Float `json:"pb"`
	PS         null.Float `json:"ps"`
}

// Dividend is one distribution announcement. Amounts are per 10 shares.
type Dividend struct {
	AnnouncedAt    time.Time `json:"announced_at"`
	BonusShares    float64   `json:"bonus_shares"`
	TransferShares float64   `json:"transfer_shares"`
	CashPer10      float64   `json:"cash_per_10"`
	Progress       string    `json:"progress"`
	ExDate         time.Time `json:"ex_date,omitzero"`
	RecordDate     time.Time `json:"record_date,omitzero"`
}

// NorthboundHolding is one day of Stock Connect northbound holdings.
type NorthboundHolding struct {
	Date        time.Time  `json:"date"`
	Shares      float64    `json:"shares"`
	MarketValue null.Float `json:"market_value"`
	SharesRatio null.Float `json:"shares_ratio"` // percent of A shares
	Close       null.Float `json:"close"`
}
