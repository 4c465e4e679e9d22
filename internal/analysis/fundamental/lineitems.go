// Package fundamental reconciles fused financial statements into quarterly,
// trailing-twelve-month and daily valuation series. Everything here is pure:
// no network access and no hidden state.
package fundamental

import (
	"github.com/guregu/null/v6"

	"github.com/seenimoa/stockfusion/pkg/models"
)

// MappingVersion identifies the revision of the line-item table. Bump it
// whenever a label is added, removed or reordered.
const MappingVersion = "2024.2"

// LineItem is a canonical line-item id.
type LineItem string

const (
	Revenue           LineItem = "revenue"
	OperatingCost     LineItem = "operating_cost"
	RDExpense         LineItem = "rd_expense"
	OperatingProfit   LineItem = "operating_profit"
	NetProfit         LineItem = "net_profit"
	ParentNetProfit   LineItem = "parent_net_profit"
	OperatingCashFlow LineItem = "operating_cash_flow"
	InvestingCashFlow LineItem = "investing_cash_flow"
	FinancingCashFlow LineItem = "financing_cash_flow"
	NetCashChange     LineItem = "net_cash_change"
	TotalAssets       LineItem = "total_assets"
	TotalLiabilities  LineItem = "total_liabilities"
	ParentEquity      LineItem = "parent_equity"
	TotalEquity       LineItem = "total_equity"
	BasicEPS          LineItem = "basic_eps"
	BookValuePerShare LineItem = "bvps"
)

// Class tells whether a line item accumulates over the fiscal year.
type Class int

const (
	// Flow items are reported cumulative from January 1 and are decomposed
	// into quarters.
	Flow Class = iota
	// Stock items are balances at the period end.
	Stock
	// PerShare items are ratios; they are never decomposed or summed.
	PerShare
)

type mapping struct {
	item   LineItem
	class  Class
	labels []string // accepted upstream labels, highest priority first
}

// lineItemTable maps canonical ids to the labels used by the sina report
// pages, the eastmoney F10 field codes and the sina key-indicator abstract.
var lineItemTable = []mapping{
	{Revenue, Flow, []string{"营业总收入", "TOTAL_OPERATE_INCOME", "营业收入", "OPERATE_INCOME"}},
	{OperatingCost, Flow, []string{"营业总成本", "TOTAL_OPERATE_COST"}},
	{RDExpense, Flow, []string{"研发费用", "RESEARCH_EXPENSE"}},
	{OperatingProfit, Flow, []string{"营业利润", "OPERATE_PROFIT"}},
	{NetProfit, Flow, []string{"净利润", "NETPROFIT"}},
	{ParentNetProfit, Flow, []string{"归属于母公司所有者的净利润", "归属于母公司股东的净利润", "PARENT_NETPROFIT", "归母净利润"}},
	{OperatingCashFlow, Flow, []string{"经营活动产生的现金流量净额", "NETCASH_OPERATE", "经营现金流量净额"}},
	{InvestingCashFlow, Flow, []string{"投资活动产生的现金流量净额", "NETCASH_INVEST"}},
	{FinancingCashFlow, Flow, []string{"筹资活动产生的现金流量净额", "NETCASH_FINANCE"}},
	{NetCashChange, Flow, []string{"现金及现金等价物净增加额", "CCE_ADD"}},
	{TotalAssets, Stock, []string{"资产总计", "TOTAL_ASSETS"}},
	{TotalLiabilities, Stock, []string{"负债合计", "TOTAL_LIABILITIES"}},
	{ParentEquity, Stock, []string{"归属于母公司股东权益合计", "归属于母公司所有者权益合计", "TOTAL_PARENT_EQUITY"}},
	{TotalEquity, Stock, []string{"所有者权益(或股东权益)合计", "股东权益合计", "所有者权益合计", "TOTAL_EQUITY", "股东权益合计(净资产)"}},
	{BasicEPS, PerShare, []string{"基本每股收益", "BASIC_EPS"}},
	{BookValuePerShare, PerShare, []string{"每股净资产", "BPS"}},
}

var classOf = func() map[LineItem]Class {
	m := make(map[LineItem]Class, len(lineItemTable))
	for _, row := range lineItemTable {
		m[row.item] = row.class
	}
	return m
}()

// ClassOf returns the class of item. Unknown items are treated as Stock so
// they are never decomposed.
func ClassOf(item LineItem) Class {
	if c, ok := classOf[item]; ok {
		return c
	}
	return Stock
}

// Labels returns the accepted upstream labels of item in priority order.
func Labels(item LineItem) []string {
	for _, row := range lineItemTable {
		if row.item == item {
			return append([]string(nil), row.labels...)
		}
	}
	return nil
}

// FlowItems returns every Flow line item.
func FlowItems() []LineItem {
	var out []LineItem
	for _, row := range lineItemTable {
		if row.class == Flow {
			out = append(out, row.item)
		}
	}
	return out
}

// Canonicalize rewrites a provider statement keyed by upstream labels into
// one keyed by canonical line items. For each item the first label carrying
// a known value wins; a label present only with unknown values yields
// unknown. Unmapped labels are dropped. Rows are returned ascending.
func Canonicalize(stmt *models.Statement) *models.Statement {
	if stmt == nil {
		return nil
	}
	out := models.NewStatement(stmt.Kind, stmt.Code)
	for _, row := range stmt.Rows {
		values := make(map[string]null.Float)
		for _, m := range lineItemTable {
			if v, ok := resolve(row, m.labels); ok {
				values[string(m.item)] = v
			}
		}
		out.Rows = append(out.Rows, models.StatementRow{Period: row.Period, Values: values})
	}
	out.Sort()
	return out
}

func resolve(row models.StatementRow, labels []string) (null.Float, bool) {
	seen := false
	for _, label := range labels {
		v, ok := row.Values[label]
		if !ok {
			continue
		}
		if v.Valid {
			return v, true
		}
		seen = true
	}
	return null.Float{}, seen
}

func get(row models.StatementRow, item LineItem) null.Float {
	return row.Get(string(item))
}
