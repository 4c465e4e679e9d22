package fundamental

import (
	"math"
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/stockfusion/pkg/models"
)

// EquitySeries extracts shareholders' equity per period from a canonical
// balance sheet, preferring the parent-attributable total.
func EquitySeries(balance *models.Statement) models.Series {
	series := models.Series{Item: string(ParentEquity)}
	if balance.Empty() {
		return series
	}
	rows := balance.Clone()
	rows.Sort()
	for _, row := range rows.Rows {
		v := get(row, ParentEquity)
		if !v.Valid {
			v = get(row, TotalEquity)
		}
		series.Points = append(series.Points, models.SeriesPoint{Period: row.Period, Value: v})
	}
	return series
}

// asOf walks a series forward in time and returns, for each queried date,
// the latest known value dated on or before it.
type asOf struct {
	points []models.SeriesPoint
	next   int
	last   null.Float
}

func newAsOf(s models.Series) *asOf {
	known := s.Known()
	sort.Slice(known, func(i, j int) bool { return known[i].Period.Before(known[j].Period) })
	return &asOf{points: known}
}

// at must be called with non-decreasing dates.
func (a *asOf) at(day time.Time) null.Float {
	for a.next < len(a.points) && !a.points[a.next].Period.After(day) {
		a.last = a.points[a.next].Value
		a.next++
	}
	return a.last
}

// DeriveDailyValuation joins daily bars with forward-filled fundamentals.
//
// Each fundamental value, once known, is carried forward unchanged until the
// next known value. Bars without a usable close and bars before the first
// known fundamental are dropped. Market cap is close × totalShares; PE, PB
// and PS divide it by TTM profit, equity and TTM revenue. A zero or unknown
// denominator leaves the ratio unknown.
func DeriveDailyValuation(bars []models.PriceBar, ttmProfit, ttmRevenue, equity models.Series, totalShares null.Float) []models.ValuationRow {
	sorted := make([]models.PriceBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	profit, revenue, eq := newAsOf(ttmProfit), newAsOf(ttmRevenue), newAsOf(equity)

	rows := make([]models.ValuationRow, 0, len(sorted))
	for _, bar := range sorted {
		row := models.ValuationRow{
			Date:       bar.Date,
			Close:      bar.Close,
			TTMProfit:  profit.at(bar.Date),
			TTMRevenue: revenue.at(bar.Date),
			Equity:     eq.at(bar.Date),
		}
		if !usable(bar.Close) {
			continue
		}
		if !row.TTMProfit.Valid && !row.TTMRevenue.Valid && !row.Equity.Valid {
			continue
		}

		if totalShares.Valid && totalShares.Float64 > 0 {
			row.MarketCap = null.FloatFrom(bar.Close * totalShares.Float64)
		}
		row.PE = ratio(row.MarketCap, row.TTMProfit)
		row.PB = ratio(row.MarketCap, row.Equity)
		row.PS = ratio(row.MarketCap, row.TTMRevenue)
		rows = append(rows, row)
	}
	return rows
}

func usable(f float64) bool {
	return f > 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}

func ratio(num, den null.Float) null.Float {
	if !num.Valid || !den.Valid || den.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom(num.Float64 / den.Float64)
}
