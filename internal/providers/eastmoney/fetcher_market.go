package eastmoney

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

// fetchHistory returns daily forward-adjusted bars between start_date and
// end_date (both optional), ascending and unique by date.
func (p *Provider) fetchHistory(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	beg, end := "0", "20500101"
	if s := params[provider.ParamStartDate]; s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, err
		}
		beg = utils.FormatCompactDate(t)
	}
	if s := params[provider.ParamEndDate]; s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return nil, err
		}
		end = utils.FormatCompactDate(t)
	}

	res, err := infra.GetJSON(ctx, p.http, p.hosts.history+"/api/qt/stock/kline/get", map[string]string{
		"secid":   utils.ToEastmoneySecID(code),
		"fields1": "f1,f2,f3,f4,f5,f6",
		"fields2": "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61",
		"klt":     "101", // daily
		"fqt":     "1",   // forward adjusted
		"beg":     beg,
		"end":     end,
	})
	if err != nil {
		return nil, err
	}

	var bars []models.PriceBar
	res.Get("data.klines").ForEach(func(_, line gjson.Result) bool {
		if bar, ok := parseKline(line.String()); ok {
			bars = append(bars, bar)
		}
		return true
	})
	if len(bars) == 0 {
		return nil, fmt.Errorf("kline %s: %w", code, provider.ErrEmpty)
	}
	return dedupeBars(bars), nil
}

// parseKline parses "date,open,close,high,low,volume,amount,amplitude,pct_chg,change,turnover".
func parseKline(line string) (models.PriceBar, bool) {
	f := strings.Split(line, ",")
	if len(f) < 6 {
		return models.PriceBar{}, false
	}
	date, err := utils.ParseDate(f[0])
	if err != nil {
		return models.PriceBar{}, false
	}
	closePx := utils.ParseNumber(f[2])
	if !closePx.Valid || closePx.Float64 <= 0 {
		return models.PriceBar{}, false
	}

	bar := models.PriceBar{
		Date:   date,
		Open:   utils.ParseNumberOr(f[1], 0),
		Close:  closePx.Float64,
		High:   utils.ParseNumberOr(f[3], 0),
		Low:    utils.ParseNumberOr(f[4], 0),
		Volume: utils.ParseNumberOr(f[5], 0),
	}
	if len(f) > 6 {
		bar.Amount = utils.ParseNumber(f[6])
	}
	if len(f) > 8 {
		bar.ChangePct = utils.ParseNumber(f[8])
	}
	if len(f) > 10 {
		bar.Turnover = utils.ParseNumber(f[10])
	}
	return bar, true
}

func dedupeBars(bars []models.PriceBar) []models.PriceBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && out[len(out)-1].Date.Equal(b.Date) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// fetchNorthbound returns Stock Connect holdings, ascending by date.
func (p *Provider) fetchNorthbound(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	res, err := infra.GetJSON(ctx, p.http, p.hosts.dataCenter+"/api/data/v1/get", map[string]string{
		"reportName":  "RPT_MUTUAL_HOLDSTOCKNORTH_STA",
		"columns":     "ALL",
		"filter":      fmt.Sprintf(`(SECURITY_CODE="%s")`, code),
		"sortColumns": "TRADE_DATE",
		"sortTypes":   "-1",
		"pageSize":    "500",
		"pageNumber":  "1",
	})
	if err != nil {
		return nil, err
	}

	var holdings []models.NorthboundHolding
	res.Get("result.data").ForEach(func(_, row gjson.Result) bool {
		date, err := utils.ParseDate(row.Get("TRADE_DATE").String())
		if err != nil {
			return true
		}
		holdings = append(holdings, models.NorthboundHolding{
			Date:        date,
			Shares:      infra.Float(row.Get("HOLD_SHARES")),
			MarketValue: infra.Number(row.Get("HOLD_MARKET_CAP")),
			SharesRatio: infra.Number(row.Get("A_SHARES_RATIO")),
			Close:       infra.Number(row.Get("CLOSE_PRICE")),
		})
		return true
	})
	if len(holdings) == 0 {
		return nil, fmt.Errorf("northbound %s: %w", code, provider.ErrEmpty)
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Date.Before(holdings[j].Date) })
	return holdings, nil
}

// fetchTopHolders returns the top-10 shareholders filed for a report date.
func (p *Provider) fetchTopHolders(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	date, err := utils.ParseDate(params[provider.ParamDate])
	if err != nil {
		return nil, err
	}

	res, err := infra.GetJSON(ctx, p.http, p.hosts.f10+"/PC_HSF10/ShareholderResearch/PageSDGD", map[string]string{
		"code": utils.ToPrefixedCode(code),
		"date": utils.FormatDate(date),
	})
	if err != nil {
		return nil, err
	}

	var holders []models.Shareholder
	res.Get("sdgd").ForEach(func(_, row gjson.Result) bool {
		if end, err := utils.ParseDate(row.Get("END_DATE").String()); err == nil && !end.Equal(date) {
			return true
		}
		name := cleanText(row.Get("HOLDER_NAME").String())
		if name == "" {
			return true
		}
		holders = append(holders, models.Shareholder{
			Rank:   int(row.Get("HOLDER_RANK").Int()),
			Name:   name,
			Shares: infra.Float(row.Get("HOLD_NUM")),
			Ratio:  infra.Float(row.Get("HOLD_NUM_RATIO")),
			Nature: cleanText(row.Get("SHARES_TYPE").String()),
		})
		return true
	})
	if len(holders) == 0 {
		return nil, fmt.Errorf("top holders %s at %s: %w", code, utils.FormatDate(date), provider.ErrEmpty)
	}
	sort.SliceStable(holders, func(i, j int) bool { return holders[i].Rank < holders[j].Rank })
	return holders, nil
}

