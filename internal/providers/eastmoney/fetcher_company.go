package eastmoney

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/tidwall/gjson"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

// Quote field codes of /api/qt/stock/get (fltt=2 returns decimals).
const (
	infoFields     = "f57,f58,f84,f85,f127,f116,f117"
	snapshotFields = "f43,f47,f48,f50,f57,f58,f116,f117,f162,f167,f168,f170"
)

// Market filter of every A-share board on /api/qt/clist/get.
const allAShares = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:81+s:2048"

func (p *Provider) stockGet(ctx context.Context, code, fields string) (gjson.Result, error) {
	res, err := infra.GetJSON(ctx, p.http, p.hosts.quote+"/api/qt/stock/get", map[string]string{
		"secid":  utils.ToEastmoneySecID(code),
		"fltt":   "2",
		"invt":   "2",
		"fields": fields,
	})
	if err != nil {
		return gjson.Result{}, err
	}
	data := res.Get("data")
	if !data.IsObject() {
		return gjson.Result{}, fmt.Errorf("quote %s: %w", code, provider.ErrEmpty)
	}
	return data, nil
}

// fetchInfo returns a profile with whatever fields the upstream supplied.
func (p *Provider) fetchInfo(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	data, err := p.stockGet(ctx, code, infoFields)
	if err != nil {
		return nil, err
	}

	profile := models.CompanyProfile{
		Code:        code,
		Name:        cleanText(data.Get("f58").String()),
		Industry:    cleanText(data.Get("f127").String()),
		TotalShares: nullPositive(infra.Number(data.Get("f84"))),
	}
	return profile, nil
}

// fetchSnapshot returns the current quote of one security.
func (p *Provider) fetchSnapshot(ctx context.Context, params provider.QueryParams) (any, error) {
	code := params[provider.ParamCode]
	data, err := p.stockGet(ctx, code, snapshotFields)
	if err != nil {
		return nil, err
	}

	return models.Quote{
		Code:        code,
		Name:        cleanText(data.Get("f58").String()),
		Price:       infra.Float(data.Get("f43")),
		ChangePct:   infra.Float(data.Get("f170")),
		PE:          infra.Float(data.Get("f162")),
		PB:          infra.Float(data.Get("f167")),
		TotalMV:     infra.Float(data.Get("f116")),
		CircMV:      infra.Float(data.Get("f117")),
		Turnover:    infra.Float(data.Get("f168")),
		VolumeRatio: infra.Float(data.Get("f50")),
		Amount:      infra.Float(data.Get("f48")),
		Timestamp:   time.Now(),
	}, nil
}

// fetchNames returns the code → name registry of all listed A shares. The
// registry is cached since it changes only on listings and renames.
func (p *Provider) fetchNames(ctx context.Context, _ provider.QueryParams) (any, error) {
	if names, ok := p.names.Get("all"); ok {
		return names, nil
	}

	rows, err := p.clist(ctx, allAShares, "f12,f14", 6000)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		code, name := row.Get("f12").String(), cleanText(row.Get("f14").String())
		if code != "" && name != "" {
			names[code] = name
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("name registry: %w", provider.ErrEmpty)
	}

	p.names.Set("all", names)
	return names, nil
}

// clist pages through /api/qt/clist/get and returns the diff rows.
func (p *Provider) clist(ctx context.Context, filter, fields string, pageSize int) ([]gjson.Result, error) {
	var rows []gjson.Result
	for page := 1; ; page++ {
		res, err := infra.GetJSON(ctx, p.http, p.hosts.quote+"/api/qt/clist/get", map[string]string{
			"pn":     fmt.Sprint(page),
			"pz":     fmt.Sprint(pageSize),
			"po":     "1",
			"np":     "1",
			"fltt":   "2",
			"invt":   "2",
			"fid":    "f12",
			"fs":     filter,
			"fields": fields,
		})
		if err != nil {
			return nil, err
		}

		diff := res.Get("data.diff")
		before := len(rows)
		diff.ForEach(func(_, row gjson.Result) bool {
			rows = append(rows, row)
			return true
		})

		total := int(res.Get("data.total").Int())
		if len(rows) == before || len(rows) >= total {
			return rows, nil
		}
	}
}

// cleanText drops the placeholders eastmoney uses for missing text.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "-" || s == "--" {
		return ""
	}
	return s
}

func nullPositive(v null.Float) null.Float {
	if v.Valid && v.Float64 > 0 {
		return v
	}
	return null.Float{}
}
