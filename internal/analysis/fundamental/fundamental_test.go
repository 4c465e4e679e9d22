package fundamental

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

func q(year, quarter int) time.Time {
	return utils.QuarterEnd(year, quarter)
}

// cumulative builds a canonical statement with one item per period.
func cumulative(kind models.StatementKind, item LineItem, values map[time.Time]float64) *models.Statement {
	s := models.NewStatement(kind, "600519")
	for p, v := range values {
		s.Set(p, string(item), null.FloatFrom(v))
	}
	s.Sort()
	return s
}

// ── Canonicalize ──

func TestCanonicalizePriority(t *testing.T) {
	raw := models.NewStatement(models.IncomeStatement, "600519")
	p := q(2024, 2)
	raw.Set(p, "营业收入", null.FloatFrom(240))
	raw.Set(p, "营业总收入", null.FloatFrom(250))
	raw.Set(p, "归属于母公司所有者的净利润", null.Float{})
	raw.Set(p, "PARENT_NETPROFIT", null.FloatFrom(80))
	raw.Set(p, "研发费用", null.Float{})
	raw.Set(p, "一个没人认识的科目", null.FloatFrom(1))

	c := Canonicalize(raw)
	require.Len(t, c.Rows, 1)
	row := c.Rows[0]

	assert.Equal(t, null.FloatFrom(250), get(row, Revenue))
	assert.Equal(t, null.FloatFrom(80), get(row, ParentNetProfit))

	rd, present := row.Values[string(RDExpense)]
	assert.True(t, present)
	assert.False(t, rd.Valid)

	_, present = row.Values[string(TotalAssets)]
	assert.False(t, present)
	assert.Len(t, row.Values, 3)
}

func TestLineItemTable(t *testing.T) {
	seen := map[string]LineItem{}
	for _, m := range lineItemTable {
		for _, l := range m.labels {
			if prev, dup := seen[l]; dup {
				t.Errorf("label %q mapped to both %s and %s", l, prev, m.item)
			}
			seen[l] = m.item
		}
	}
	assert.Equal(t, Flow, ClassOf(Revenue))
	assert.Equal(t, Stock, ClassOf(TotalAssets))
	assert.Equal(t, PerShare, ClassOf(BasicEPS))
	assert.Equal(t, Stock, ClassOf("unknown_item"))
	assert.Equal(t, "营业总收入", Labels(Revenue)[0])
	assert.NotEmpty(t, MappingVersion)
}

// ── DecomposeQuarterly ──

func TestDecomposeQuarterlyScenario(t *testing.T) {
	stmt := cumulative(models.IncomeStatement, Revenue, map[time.Time]float64{
		q(2024, 1): 100, q(2024, 2): 250, q(2024, 3): 400, q(2024, 4): 600,
	})

	out := DecomposeQuarterly(stmt, []LineItem{Revenue})

	want := []float64{100, 150, 150, 200}
	require.Len(t, out.Rows, 4)
	for i, w := range want {
		v := get(out.Rows[i], Revenue)
		require.True(t, v.Valid, "quarter %d", i+1)
		assert.Equal(t, w, v.Float64, "quarter %d", i+1)
	}

	// Input is untouched.
	assert.Equal(t, 600.0, stmt.Value(q(2024, 4), string(Revenue)).Float64)
}

func TestDecomposeQuarterlyRoundTrip(t *testing.T) {
	years := map[int][4]float64{
		2022: {31.5, 77.25, 101, 180.75},
		2023: {-12, 8, 40.5, 39},
	}
	values := map[time.Time]float64{}
	for y, cum := range years {
		for i, v := range cum {
			values[q(y, i+1)] = v
		}
	}
	out := DecomposeQuarterly(cumulative(models.IncomeStatement, NetProfit, values), nil)

	for y, cum := range years {
		assert.Equal(t, cum[0], out.Value(q(y, 1), string(NetProfit)).Float64)
		sum := 0.0
		for i := 1; i <= 4; i++ {
			sum += out.Value(q(y, i), string(NetProfit)).Float64
		}
		assert.InDelta(t, cum[3], sum, 1e-9, "year %d", y)
	}
}

func TestDecomposeQuarterlyMissingPreviousIsUnknown(t *testing.T) {
	stmt := cumulative(models.CashFlowStatement, OperatingCashFlow, map[time.Time]float64{
		q(2024, 1): 10, q(2024, 3): 40, q(2024, 4): 55,
	})
	stmt.Set(q(2023, 4), string(OperatingCashFlow), null.Float{})
	stmt.Set(q(2023, 3), string(OperatingCashFlow), null.FloatFrom(30))
	stmt.Sort()

	out := DecomposeQuarterly(stmt, []LineItem{OperatingCashFlow})

	assert.Equal(t, null.FloatFrom(10), out.Value(q(2024, 1), string(OperatingCashFlow)))
	assert.False(t, out.Value(q(2024, 3), string(OperatingCashFlow)).Valid, "June absent")
	assert.Equal(t, null.FloatFrom(15), out.Value(q(2024, 4), string(OperatingCashFlow)))
	assert.False(t, out.Value(q(2023, 4), string(OperatingCashFlow)).Valid, "own value unknown")
	assert.False(t, out.Value(q(2023, 3), string(OperatingCashFlow)).Valid, "June 2023 absent")
}

func TestDecomposeQuarterlyLeavesStockItems(t *testing.T) {
	stmt := models.NewStatement(models.BalanceSheet, "600519")
	stmt.Set(q(2024, 1), string(TotalAssets), null.FloatFrom(1000))
	stmt.Set(q(2024, 2), string(TotalAssets), null.FloatFrom(1100))
	stmt.Set(q(2024, 2), string(BasicEPS), null.FloatFrom(30))
	stmt.Set(q(2024, 1), string(BasicEPS), null.FloatFrom(20))

	out := DecomposeQuarterly(stmt, []LineItem{TotalAssets, BasicEPS})

	assert.Equal(t, 1100.0, out.Value(q(2024, 2), string(TotalAssets)).Float64)
	assert.Equal(t, 30.0, out.Value(q(2024, 2), string(BasicEPS)).Float64)
	assert.Nil(t, DecomposeQuarterly(nil, nil))
}

// ── BuildTTM ──

func TestBuildTTMScenario(t *testing.T) {
	stmt := cumulative(models.IncomeStatement, NetProfit, map[time.Time]float64{
		q(2023, 2): 70, q(2023, 4): 150, q(2024, 2): 80,
	})

	ttm := BuildTTM(stmt, NetProfit)

	v := ttm.Value(q(2024, 2))
	require.True(t, v.Valid)
	assert.Equal(t, 160.0, v.Float64)
	assert.False(t, ttm.Value(q(2023, 2)).Valid, "2022 terms missing")
}

func TestBuildTTMDecemberIdentity(t *testing.T) {
	stmt := cumulative(models.IncomeStatement, Revenue, map[time.Time]float64{
		q(2022, 4): 1275.5, q(2023, 1): 300, q(2023, 4): 1505.7,
	})

	ttm := BuildTTM(stmt, Revenue)

	for _, p := range []time.Time{q(2022, 4), q(2023, 4)} {
		assert.Equal(t, stmt.Value(p, string(Revenue)), ttm.Value(p))
	}
}

func TestBuildTTMDeterministic(t *testing.T) {
	values := map[time.Time]float64{}
	for y := 2019; y <= 2024; y++ {
		for i := 1; i <= 4; i++ {
			values[q(y, i)] = float64(y-2000) * float64(i) * 10.3
		}
	}
	stmt := cumulative(models.IncomeStatement, Revenue, values)

	first := BuildTTM(stmt, Revenue)
	second := BuildTTM(stmt, Revenue)
	assert.Equal(t, first, second)
	assert.Len(t, first.Known(), len(values)-3, "first year lacks prior-year terms except December")
}

func TestBuildTTMBundleFallsBackToAbstract(t *testing.T) {
	abstract := models.NewStatement(models.FinancialAbstract, "600519")
	for p, v := range map[time.Time]float64{q(2023, 2): 70, q(2023, 4): 150, q(2024, 2): 80} {
		abstract.Set(p, string(ParentNetProfit), null.FloatFrom(v))
		abstract.Set(p, string(Revenue), null.FloatFrom(v*10))
	}
	cashflow := cumulative(models.CashFlowStatement, OperatingCashFlow, map[time.Time]float64{q(2023, 4): 90})

	b := BuildTTMBundle(nil, cashflow, abstract)

	assert.Equal(t, string(NetProfit), b.NetProfit.Item)
	assert.Equal(t, null.FloatFrom(160), b.NetProfit.Value(q(2024, 2)))
	assert.Equal(t, null.FloatFrom(1600), b.Revenue.Value(q(2024, 2)))
	assert.Equal(t, null.FloatFrom(90), b.OperatingCashFlow.Value(q(2023, 4)))
	assert.Empty(t, b.RDExpense.Points)
}

// ── ValuationDeriver ──

func day(y int, m time.Month, d int) time.Time {
	return utils.Date(y, m, d)
}

func bars(closes map[time.Time]float64) []models.PriceBar {
	out := make([]models.PriceBar, 0, len(closes))
	for d, c := range closes {
		out = append(out, models.PriceBar{Date: d, Close: c})
	}
	return out
}

func TestDeriveDailyValuationForwardFill(t *testing.T) {
	profit := models.Series{Points: []models.SeriesPoint{
		{Period: day(2024, time.March, 31), Value: null.FloatFrom(100)},
		{Period: day(2024, time.June, 30), Value: null.FloatFrom(200)},
	}}
	revenue := models.Series{Points: []models.SeriesPoint{
		{Period: day(2024, time.March, 31), Value: null.FloatFrom(0)},
	}}
	equity := models.Series{}

	rows := DeriveDailyValuation(bars(map[time.Time]float64{
		day(2024, time.March, 29): 9,  // before first fundamental
		day(2024, time.April, 1):  10, // after March
		day(2024, time.May, 15):   11,
		day(2024, time.June, 28):  12,
		day(2024, time.July, 1):   13,
		day(2024, time.July, 2):   0, // no usable close
	}), profit, revenue, equity, null.FloatFrom(50))

	require.Len(t, rows, 4)
	assert.Equal(t, day(2024, time.April, 1), rows[0].Date)

	// Strictly between March and June the March value is carried unchanged.
	for _, r := range rows[:3] {
		assert.Equal(t, null.FloatFrom(100), r.TTMProfit, r.Date)
	}
	assert.Equal(t, null.FloatFrom(200), rows[3].TTMProfit)

	assert.Equal(t, null.FloatFrom(500), rows[0].MarketCap)
	assert.Equal(t, null.FloatFrom(5), rows[0].PE)
	assert.False(t, rows[0].PS.Valid, "zero revenue")
	assert.False(t, rows[0].PB.Valid, "unknown equity")
	assert.Equal(t, null.FloatFrom(650.0/200), rows[3].PE)
}

func TestDeriveDailyValuationUnknownShares(t *testing.T) {
	equity := models.Series{Points: []models.SeriesPoint{{Period: day(2024, time.March, 31), Value: null.FloatFrom(10)}}}

	rows := DeriveDailyValuation(bars(map[time.Time]float64{day(2024, time.April, 1): 10}),
		models.Series{}, models.Series{}, equity, null.Float{})

	require.Len(t, rows, 1)
	assert.Equal(t, null.FloatFrom(10), rows[0].Equity)
	assert.False(t, rows[0].MarketCap.Valid)
	assert.False(t, rows[0].PB.Valid)
}

func TestDeriveDailyValuationNoFundamentals(t *testing.T) {
	rows := DeriveDailyValuation(bars(map[time.Time]float64{day(2024, time.April, 1): 10}),
		models.Series{}, models.Series{}, models.Series{}, null.FloatFrom(1))
	assert.Empty(t, rows)
}

func TestEquitySeriesFallsBackToTotalEquity(t *testing.T) {
	bal := models.NewStatement(models.BalanceSheet, "600519")
	bal.Set(q(2024, 2), string(ParentEquity), null.FloatFrom(90))
	bal.Set(q(2024, 2), string(TotalEquity), null.FloatFrom(100))
	bal.Set(q(2024, 1), string(TotalEquity), null.FloatFrom(95))

	s := EquitySeries(bal)

	require.Len(t, s.Points, 2)
	assert.Equal(t, null.FloatFrom(95), s.Value(q(2024, 1)))
	assert.Equal(t, null.FloatFrom(90), s.Value(q(2024, 2)))
}

// ── Holders ──

func TestCompareHolders(t *testing.T) {
	latest := []models.Shareholder{
		{Rank: 1, Name: "中国贵州茅台酒厂(集团)有限责任公司", Shares: 678e6},
		{Rank: 2, Name: "香港中央结算有限公司", Shares: 90e6},
		{Rank: 3, Name: "新进基金", Shares: 5e6},
	}
	previous := []models.Shareholder{
		{Rank: 1, Name: "中国贵州茅台酒厂(集团)有限责任公司", Shares: 678e6},
		{Rank: 2, Name: "香港中央结算有限公司", Shares: 95e6},
	}

	changes := CompareHolders(latest, previous)
	require.Len(t, changes, 3)
	assert.Equal(t, 0.0, changes[0].Delta)
	assert.Equal(t, -5e6, changes[1].Delta)
	assert.True(t, changes[2].New)
	assert.Equal(t, 0.0, changes[2].PreviousShares)
	assert.Equal(t, 5e6, changes[2].Delta)

	missing := CompareHolders(latest, nil)
	for _, c := range missing {
		assert.Zero(t, c.Delta)
		assert.False(t, c.New)
	}
}

// ── Industry ──

func TestComparePeers(t *testing.T) {
	peers := []models.PeerQuote{
		{Code: "000858", PE: 20, PB: 5, ChangePct: 1.2, Amount: 3e9},
		{Code: "600519", PE: 30, PB: 9, ChangePct: -0.5, Amount: 5e9},
		{Code: "000568", PE: 24, PB: 7, ChangePct: 0, Amount: 1e9},
		{Code: "600809", PE: -15, PB: 60, ChangePct: 2, Amount: 2e9},
	}

	cmp := ComparePeers(models.Industry{Code: "BK0477", Name: "酿酒行业"}, "600519", peers)

	require.Len(t, cmp.Peers, 4)
	assert.Equal(t, "600519", cmp.Peers[0].Code)
	assert.True(t, cmp.Peers[0].IsTarget)
	assert.False(t, cmp.Peers[1].IsTarget)
	assert.Equal(t, "000568", cmp.Peers[3].Code)

	st := cmp.Stats
	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 24.0, st.PEMedian)
	assert.InDelta(t, 74.0/3, st.PEMean, 1e-9)
	assert.Equal(t, 7.0, st.PBMedian)
	assert.Equal(t, 2, st.Advancing)
	assert.Equal(t, 1, st.Declining)
	assert.InDelta(t, 0.675, st.AvgChangePct, 1e-9)
}

func TestIndustryStatsEvenMedianAndEmpty(t *testing.T) {
	st := IndustryStats([]models.PeerQuote{{PE: 10, PB: 1}, {PE: 20, PB: 3}})
	assert.Equal(t, 15.0, st.PEMedian)
	assert.Equal(t, 2.0, st.PBMedian)

	assert.Equal(t, models.IndustryStats{}, IndustryStats(nil))
}

// ── Shares ──

func TestSharesFromAbstract(t *testing.T) {
	abs := models.NewStatement(models.FinancialAbstract, "600519")
	abs.Set(q(2023, 4), string(ParentNetProfit), null.FloatFrom(747e8))
	abs.Set(q(2023, 4), string(BasicEPS), null.FloatFrom(59.49))
	abs.Set(q(2024, 1), string(ParentNetProfit), null.FloatFrom(240e8))
	abs.Set(q(2024, 1), string(BasicEPS), null.Float{})

	shares, period := SharesFromAbstract(abs)
	require.True(t, shares.Valid)
	assert.Equal(t, q(2023, 4), period)
	assert.InDelta(t, 747e8/59.49, shares.Float64, 1)
}

func TestSharesFromAbstractFallsBackToBookValue(t *testing.T) {
	abs := models.NewStatement(models.FinancialAbstract, "000001")
	abs.Set(q(2024, 2), string(BasicEPS), null.FloatFrom(0))
	abs.Set(q(2024, 2), string(ParentNetProfit), null.FloatFrom(258e8))
	abs.Set(q(2024, 2), string(TotalEquity), null.FloatFrom(4500e8))
	abs.Set(q(2024, 2), string(BookValuePerShare), null.FloatFrom(22.5))

	shares, _ := SharesFromAbstract(abs)
	assert.Equal(t, null.FloatFrom(200e8), shares)

	none, _ := SharesFromAbstract(models.NewStatement(models.FinancialAbstract, "000001"))
	assert.False(t, none.Valid)
}

func TestKnownPeriods(t *testing.T) {
	abs := models.NewStatement(models.FinancialAbstract, "600519")
	abs.Set(q(2024, 1), string(Revenue), null.FloatFrom(1))
	abs.Set(q(2023, 3), string(Revenue), null.Float{})
	abs.Set(q(2023, 4), string(Revenue), null.FloatFrom(2))

	assert.Equal(t, []time.Time{q(2023, 4), q(2024, 1)}, KnownPeriods(abs))
	assert.Nil(t, KnownPeriods(nil))
}
