package models

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

// StatementKind identifies a financial statement.
type StatementKind string

const (
	BalanceSheet      StatementKind = "balance"
	IncomeStatement   StatementKind = "income"
	CashFlowStatement StatementKind = "cashflow"
	FinancialAbstract StatementKind = "abstract"
)

// StatementRow holds the line items of one report period. Keys are provider
// labels until canonicalized, canonical line-item ids afterwards.
type StatementRow struct {
	Period time.Time             `json:"period"`
	Values map[string]null.Float `json:"values"`
}

// Get returns the value of item, unknown when absent.
func (r StatementRow) Get(item string) null.Float {
	return r.Values[item]
}

// Statement is a financial statement: report periods (quarter ends) mapped to
// line items. Rows are unique by period and kept ascending.
type Statement struct {
	Kind StatementKind  `json:"kind"`
	Code string         `json:"code"`
	Rows []StatementRow `json:"rows"`
}

// NewStatement returns an empty statement.
func NewStatement(kind StatementKind, code string) *Statement {
	return &Statement{Kind: kind, Code: code}
}

// Empty reports whether s has no rows.
func (s *Statement) Empty() bool {
	return s == nil || len(s.Rows) == 0
}

// Set stores value for item at period, creating the row when needed.
func (s *Statement) Set(period time.Time, item string, value null.Float) {
	for i := range s.Rows {
		if s.Rows[i].Period.Equal(period) {
			s.Rows[i].Values[item] = value
			return
		}
	}
	s.Rows = append(s.Rows, StatementRow{
		Period: period,
		Values: map[string]null.Float{item: value},
	})
}

// Sort orders rows ascending by period.
func (s *Statement) Sort() {
	sort.Slice(s.Rows, func(i, j int) bool {
		return s.Rows[i].Period.Before(s.Rows[j].Period)
	})
}

// Row returns the row for period.
func (s *Statement) Row(period time.Time) (StatementRow, bool) {
	if s == nil {
		return StatementRow{}, false
	}
	for _, r := range s.Rows {
		if r.Period.Equal(period) {
			return r, true
		}
	}
	return StatementRow{}, false
}

// Value returns item at period, unknown when either is missing.
func (s *Statement) Value(period time.Time, item string) null.Float {
	r, ok := s.Row(period)
	if !ok {
		return null.Float{}
	}
	return r.Get(item)
}

// Periods returns the report periods in row order.
func (s *Statement) Periods() []time.Time {
	if s == nil {
		return nil
	}
	out := make([]time.Time, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Period
	}
	return out
}

// Clone returns a deep copy of s.
func (s *Statement) Clone() *Statement {
	if s == nil {
		return nil
	}
	out := &Statement{Kind: s.Kind, Code: s.Code, Rows: make([]StatementRow, len(s.Rows))}
	for i, r := range s.Rows {
		vals := make(map[string]null.Float, len(r.Values))
		for k, v := range r.Values {
			vals[k] = v
		}
		out.Rows[i] = StatementRow{Period: r.Period, Values: vals}
	}
	return out
}

// SeriesPoint is one report period of a derived series.
type SeriesPoint struct {
	Period time.Time  `json:"period"`
	Value  null.Float `json:"value"`
}

// Series is a per-period derived value of one line item, ascending by period.
type Series struct {
	Item   string        `json:"item"`
	Points []SeriesPoint `json:"points"`
}

// Value returns the value at period, unknown when absent.
func (s Series) Value(period time.Time) null.Float {
	for _, p := range s.Points {
		if p.Period.Equal(period) {
			return p.Value
		}
	}
	return null.Float{}
}

// Known returns only the points with a known value.
func (s Series) Known() []SeriesPoint {
	out := make([]SeriesPoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Value.Valid {
			out = append(out, p)
		}
	}
	return out
}

// Latest returns the most recent known point.
func (s Series) Latest() (SeriesPoint, bool) {
	for i := len(s.Points) - 1; i >= 0; i-- {
		if s.Points[i].Value.Valid {
			return s.Points[i], true
		}
	}
	return SeriesPoint{}, false
}

// Shareholder is one entry of a top-10 holder list.
type Shareholder struct {
	Rank   int     `json:"rank"`
	Name   string  `json:"name"`
	Shares float64 `json:"shares"`
	Ratio  float64 `json:"ratio"` // percent of total shares
	Nature string  `json:"nature,omitempty"`
}

// HolderChange is a holder of the latest filing compared with the previous one.
type HolderChange struct {
	Shareholder
	PreviousShares float64 `json:"previous_shares"`
	Delta          float64 `json:"delta"`
	New            bool    `json:"new"`
}

// ShareholderRoster compares the two most recent top-10 holder filings.
type ShareholderRoster struct {
	LatestDate   time.Time      `json:"latest_date"`
	PreviousDate time.Time      `json:"previous_date"`
	Holders      []HolderChange `json:"holders"`
	// PreviousMissing is set when the previous filing could not be fetched
	// and every delta is zero.
	PreviousMissing bool `json:"previous_missing"`
}
