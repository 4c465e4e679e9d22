package fundamental

import (
	"github.com/guregu/null/v6"

	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

// BuildTTM returns the trailing-twelve-month series of a Flow item from a
// canonical cumulative statement.
//
//	TTM(Dec)  = cum(Dec)
//	TTM(p)    = cum(p) + cum(Dec of prior year) − cum(p of prior year)
//
// A period lacking any required term is unknown.
func BuildTTM(stmt *models.Statement, item LineItem) models.Series {
	series := models.Series{Item: string(item)}
	if stmt.Empty() {
		return series
	}

	cum := stmt.Clone()
	cum.Sort()

	for _, row := range cum.Rows {
		if _, ok := row.Values[string(item)]; !ok {
			continue
		}
		series.Points = append(series.Points, models.SeriesPoint{
			Period: row.Period,
			Value:  ttmValue(cum, row, item),
		})
	}
	return series
}

func ttmValue(cum *models.Statement, row models.StatementRow, item LineItem) null.Float {
	cur := get(row, item)
	if !cur.Valid || !utils.IsQuarterEnd(row.Period) {
		return null.Float{}
	}
	if utils.QuarterOf(row.Period) == 4 {
		return cur
	}

	lastDec := cum.Value(utils.QuarterEnd(row.Period.Year()-1, 4), string(item))
	lastSame := cum.Value(utils.SamePeriodLastYear(row.Period), string(item))
	if !lastDec.Valid || !lastSame.Valid {
		return null.Float{}
	}
	return null.FloatFrom(cur.Float64 + lastDec.Float64 - lastSame.Float64)
}

// TTMBundle holds the TTM series used by the valuation and cash-flow views.
type TTMBundle struct {
	Revenue           models.Series `json:"revenue"`
	NetProfit         models.Series `json:"net_profit"`
	RDExpense         models.Series `json:"rd_expense"`
	OperatingCashFlow models.Series `json:"operating_cash_flow"`
	InvestingCashFlow models.Series `json:"investing_cash_flow"`
	FinancingCashFlow models.Series `json:"financing_cash_flow"`
	NetCashChange     models.Series `json:"net_cash_change"`
}

// BuildTTMBundle builds the TTM series from canonical statements. Revenue
// and profit prefer the income statement and fall back to the abstract;
// profit prefers the parent-attributable figure. Any statement may be nil.
func BuildTTMBundle(income, cashflow, abstract *models.Statement) TTMBundle {
	return TTMBundle{
		Revenue:           firstKnown(Revenue, BuildTTM(income, Revenue), BuildTTM(abstract, Revenue)),
		NetProfit:         firstKnown(NetProfit, BuildTTM(income, ParentNetProfit), BuildTTM(income, NetProfit), BuildTTM(abstract, ParentNetProfit), BuildTTM(abstract, NetProfit)),
		RDExpense:         BuildTTM(income, RDExpense),
		OperatingCashFlow: firstKnown(OperatingCashFlow, BuildTTM(cashflow, OperatingCashFlow), BuildTTM(abstract, OperatingCashFlow)),
		InvestingCashFlow: BuildTTM(cashflow, InvestingCashFlow),
		FinancingCashFlow: BuildTTM(cashflow, FinancingCashFlow),
		NetCashChange:     BuildTTM(cashflow, NetCashChange),
	}
}

// firstKnown returns the first candidate with at least one known point,
// relabelled as item.
func firstKnown(item LineItem, candidates ...models.Series) models.Series {
	for _, c := range candidates {
		if len(c.Known()) > 0 {
			c.Item = string(item)
			return c
		}
	}
	return models.Series{Item: string(item)}
}
