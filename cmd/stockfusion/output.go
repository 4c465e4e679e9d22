package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"github.com/seenimoa/stockfusion/internal/analysis/fundamental"
	"github.com/seenimoa/stockfusion/internal/engine"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

const rule = "───────────────────────────────────────"

// recentQuarters is how many periods the text report lists per series.
const recentQuarters = 8

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n  %s\n%s\n", rule, title, rule)
}

func printReport(w io.Writer, r *engine.Report) {
	b := r.Bundle
	p := b.Profile.Value

	fmt.Fprintf(w, "%s %s  [%s]\n", p.Code, p.Name, p.Industry)
	fmt.Fprintf(w, "  request %s, fetched in %s\n", r.RequestID, b.Elapsed.Round(time.Millisecond))
	if absent := b.Absent(); len(absent) > 0 {
		fmt.Fprintf(w, "  absent: %s\n", strings.Join(absent, ", "))
	}
	fmt.Fprintf(w, "  shares: %s (%s)\n", utils.FormatNull(p.TotalShares), orDash(p.SharesSource))

	section(w, "Valuation")
	printValuation(w, r.Valuation.Value)

	section(w, "Single-quarter results")
	printStatement(w, r.QuarterlyIncome, fundamental.Revenue, fundamental.ParentNetProfit)
	printStatement(w, r.QuarterlyCashFlow, fundamental.OperatingCashFlow)

	section(w, "Trailing twelve months")
	for _, s := range []models.Series{r.TTM.Revenue, r.TTM.NetProfit, r.TTM.OperatingCashFlow} {
		printSeries(w, s)
	}

	if len(r.Daily) > 0 {
		last := r.Daily[len(r.Daily)-1]
		section(w, "Derived daily valuation")
		fmt.Fprintf(w, "  %d trading days, last %s\n", len(r.Daily), utils.FormatDate(last.Date))
		fmt.Fprintf(w, "  PE %s  PB %s  PS %s  market cap %s\n",
			multiple(last.PE), multiple(last.PB), multiple(last.PS), utils.FormatNull(last.MarketCap))
	}

	if b.Shareholders.Present {
		roster := b.Shareholders.Value
		section(w, "Top shareholders "+utils.FormatDate(roster.LatestDate))
		for _, h := range roster.Holders {
			delta := utils.FormatCN(h.Delta)
			switch {
			case roster.PreviousMissing:
				delta = "-"
			case h.New:
				delta = "new"
			}
			fmt.Fprintf(w, "  %2d. %-30s %12s  %6.2f%%  %s\n", h.Rank, h.Name, utils.FormatCN(h.Shares), h.Ratio, delta)
		}
	}

	if b.Dividends.Present {
		section(w, "Dividends")
		for i, d := range b.Dividends.Value {
			if i == recentQuarters {
				break
			}
			fmt.Fprintf(w, "  %s  cash %.2f / 10  bonus %.1f  transfer %.1f  %s\n",
				utils.FormatDate(d.AnnouncedAt), d.CashPer10, d.BonusShares, d.TransferShares, d.Progress)
		}
	}
}

func printValuation(w io.Writer, v models.ValuationSnapshot) {
	fmt.Fprintf(w, "  price      %.2f (%s)\n", v.Price, utils.FormatPct(v.ChangePct))
	fmt.Fprintf(w, "  PE (TTM)   %s\n", multipleOf(v.PETTM))
	fmt.Fprintf(w, "  PB         %s\n", multipleOf(v.PB))
	fmt.Fprintf(w, "  market cap %s\n", utils.FormatCN(v.TotalMV))
	fmt.Fprintf(w, "  source     %s\n", v.Source)
}

func printIndustry(w io.Writer, cmp models.IndustryComparison, limit int) {
	s := cmp.Stats
	fmt.Fprintf(w, "%s (%s), %d constituents\n", cmp.Industry.Name, cmp.Industry.Code, s.Count)
	fmt.Fprintf(w, "  PE median %.2f mean %.2f | PB median %.2f mean %.2f\n", s.PEMedian, s.PEMean, s.PBMedian, s.PBMean)
	fmt.Fprintf(w, "  advancing %d, declining %d, average %s\n\n", s.Advancing, s.Declining, utils.FormatPct(s.AvgChangePct))

	for i, p := range cmp.Peers {
		if limit > 0 && i >= limit {
			break
		}
		marker := " "
		if p.IsTarget {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s %-8s %9.2f %8s  PE %8s  PB %6s  %s\n",
			marker, p.Code, p.Name, p.Price, utils.FormatPct(p.ChangePct), multipleOf(p.PE), multipleOf(p.PB), utils.FormatCN(p.Amount))
	}
}

func printStatement(w io.Writer, stmt *models.Statement, items ...fundamental.LineItem) {
	if stmt.Empty() {
		return
	}
	periods := stmt.Periods()
	if len(periods) > recentQuarters {
		periods = periods[len(periods)-recentQuarters:]
	}
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
		for _, p := range periods {
			if v := stmt.Value(p, string(item)); v.Valid {
				fmt.Fprintf(w, "    %s  %s\n", utils.FormatDate(p), utils.FormatCN(v.Float64))
			}
		}
	}
}

func printSeries(w io.Writer, s models.Series) {
	latest, ok := s.Latest()
	if !ok {
		return
	}
	known := s.Known()
	if len(known) > recentQuarters {
		known = known[len(known)-recentQuarters:]
	}
	fmt.Fprintf(w, "  %s (latest %s: %s)\n", s.Item, utils.FormatDate(latest.Period), utils.FormatCN(latest.Value.Float64))
	for _, pt := range known {
		fmt.Fprintf(w, "    %s  %s\n", utils.FormatDate(pt.Period), utils.FormatCN(pt.Value.Float64))
	}
}

func multipleOf(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func multiple(v null.Float) string {
	return multipleOf(v.ValueOrZero())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
