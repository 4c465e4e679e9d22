package baostock

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

const (
	historyFields   = "date,open,high,low,close,volume,amount,turn,pctChg"
	indicatorFields = "date,close,turn,pctChg,peTTM,pbMRQ"

	adjustForward = "2"
	adjustNone    = "3"

	// indicatorLookback covers long holidays when asking for the latest row.
	indicatorLookback = 20 * 24 * time.Hour
	defaultStart      = "2015-01-01"
)

func (p *Provider) kData(ctx context.Context, code, fields, start, end, adjust string) ([][]string, error) {
	return p.query(ctx, msgKData, "query_history_k_data_plus",
		utils.ToBaostockCode(code), fields, start, end, "d", adjust)
}

// fetchHistory returns daily forward-adjusted bars, ascending.
func (p *Provider) fetchHistory(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	start, end, err := p.dateRange(params)
	if err != nil {
		return nil, err
	}

	rows, err := p.kData(ctx, code, historyFields, start, end, adjustForward)
	if err != nil {
		return nil, err
	}

	bars := make([]models.PriceBar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 9 {
			continue
		}
		date, err := utils.ParseDate(row[0])
		if err != nil {
			continue
		}
		closePx := utils.ParseNumber(row[4])
		if !closePx.Valid || closePx.Float64 <= 0 {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:      date,
			Open:      utils.ParseNumberOr(row[1], 0),
			High:      utils.ParseNumberOr(row[2], 0),
			Low:       utils.ParseNumberOr(row[3], 0),
			Close:     closePx.Float64,
			Volume:    utils.ParseNumberOr(row[5], 0),
			Amount:    utils.ParseNumber(row[6]),
			Turnover:  utils.ParseNumber(row[7]),
			ChangePct: utils.ParseNumber(row[8]),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("k-data %s: %w", code, provider.ErrEmpty)
	}
	return bars, nil
}

// fetchIndicator returns the latest daily indicator row as a snapshot.
func (p *Provider) fetchIndicator(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	now := p.now().In(utils.CST)
	start := utils.FormatDate(now.Add(-indicatorLookback))

	rows, err := p.kData(ctx, code, indicatorFields, start, utils.FormatDate(now), adjustNone)
	if err != nil {
		return nil, err
	}

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		closePx := utils.ParseNumber(row[1])
		if !closePx.Valid || closePx.Float64 <= 0 {
			continue
		}
		asOf, _ := utils.ParseDate(row[0])
		return models.ValuationSnapshot{
			Price:     closePx.Float64,
			Turnover:  utils.ParseNumberOr(row[2], 0),
			ChangePct: utils.ParseNumberOr(row[3], 0),
			PETTM:     utils.ParseNumberOr(row[4], 0),
			PB:        utils.ParseNumberOr(row[5], 0),
			Source:    models.ValuationSecondary,
			AsOf:      asOf,
		}, nil
	}
	return nil, fmt.Errorf("daily indicator %s: %w", code, provider.ErrEmpty)
}

// fetchInfo returns the name from the basic listing and the industry from
// the industry classification. Share counts are not published.
func (p *Provider) fetchInfo(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	bsCode := utils.ToBaostockCode(code)
	profile := models.CompanyProfile{Code: code}

	basic, err := p.query(ctx, msgStockBasic, "query_stock_basic", bsCode, "")
	if err != nil {
		return nil, err
	}
	// code, code_name, ipoDate, outDate, type, status
	if row, ok := recordFor(basic, 0, code); ok && len(row) > 1 {
		profile.Name = row[1]
	}

	industry, err := p.query(ctx, msgIndustry, "query_stock_industry", bsCode, "")
	if err != nil {
		p.log.Debug().Err(err).Str("code", code).Msg("industry lookup failed")
	}
	// updateDate, code, code_name, industry, industryClassification
	if row, ok := recordFor(industry, 1, code); ok && len(row) > 3 {
		profile.Industry = row[3]
		if profile.Name == "" {
			profile.Name = row[2]
		}
	}

	if profile.Name == "" && profile.Industry == "" {
		return nil, fmt.Errorf("basic info %s: %w", code, provider.ErrEmpty)
	}
	return profile, nil
}

// recordFor returns the first row whose column col holds code.
func recordFor(rows [][]string, col int, code string) ([]string, bool) {
	for _, row := range rows {
		if len(row) > col && utils.FromBaostockCode(row[col]) == code {
			return row, true
		}
	}
	return nil, false
}

func (p *Provider) dateRange(params provider.QueryParams) (string, string, error) {
	start, end := defaultStart, utils.FormatDate(p.now().In(utils.CST))
	if s := params[provider.ParamStartDate]; s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return "", "", err
		}
		start = utils.FormatDate(t)
	}
	if s := params[provider.ParamEndDate]; s != "" {
		t, err := utils.ParseDate(s)
		if err != nil {
			return "", "", err
		}
		end = utils.FormatDate(t)
	}
	return start, end, nil
}
