package eastmoney

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

type report struct {
	kind   models.StatementKind
	prefix string // F10 endpoint prefix
}

var (
	balanceReport  = report{models.BalanceSheet, "zcfzb"}
	incomeReport   = report{models.IncomeStatement, "lrb"}
	cashFlowReport = report{models.CashFlowStatement, "xjllb"}
)

const (
	datesPerRequest = 5  // F10 accepts at most five report dates per call
	maxReportDates  = 28 // seven years of quarters
)

// non-line-item columns of the F10 statement rows.
var metaColumns = map[string]bool{
	"REPORT_DATE": true, "NOTICE_DATE": true, "UPDATE_DATE": true,
	"SECUCODE": true, "SECURITY_CODE": true, "SECURITY_NAME_ABBR": true,
	"ORG_CODE": true, "ORG_TYPE": true, "REPORT_TYPE": true,
	"REPORT_DATE_NAME": true, "SECURITY_TYPE_CODE": true, "CURRENCY": true,
}

func (p *Provider) statementFetcher(r report) provider.FetchFunc {
	return func(ctx context.Context, params provider.QueryParams) (any, error) {
		return p.fetchStatement(ctx, r, params[provider.ParamCode])
	}
}

// fetchStatement returns a statement keyed by F10 field codes.
func (p *Provider) fetchStatement(ctx context.Context, r report, code string) (*models.Statement, error) {
	base := map[string]string{
		"companyType":    "4",
		"reportDateType": "0",
		"code":           utils.ToPrefixedCode(code),
	}

	datesRes, err := infra.GetJSON(ctx, p.http, p.hosts.f10+"/PC_HSF10/NewFinanceAnalysis/"+r.prefix+"DateAjaxNew", base)
	if err != nil {
		return nil, err
	}
	var dates []string
	datesRes.Get("data.#.REPORT_DATE").ForEach(func(_, d gjson.Result) bool {
		if t, err := utils.ParseDate(d.String()); err == nil {
			dates = append(dates, utils.FormatDate(t))
		}
		return len(dates) < maxReportDates
	})
	if len(dates) == 0 {
		return nil, fmt.Errorf("%s report dates %s: %w", r.kind, code, provider.ErrEmpty)
	}

	stmt := models.NewStatement(r.kind, code)
	for start := 0; start < len(dates); start += datesPerRequest {
		batch := dates[start:min(start+datesPerRequest, len(dates))]
		params := map[string]string{"reportType": "1", "dates": strings.Join(batch, ",")}
		for k, v := range base {
			params[k] = v
		}

		res, err := infra.GetJSON(ctx, p.http, p.hosts.f10+"/PC_HSF10/NewFinanceAnalysis/"+r.prefix+"AjaxNew", params)
		if err != nil {
			return nil, err
		}
		res.Get("data").ForEach(func(_, row gjson.Result) bool {
			addStatementRow(stmt, row)
			return true
		})
	}

	if stmt.Empty() {
		return nil, fmt.Errorf("%s %s: %w", r.kind, code, provider.ErrEmpty)
	}
	stmt.Sort()
	return stmt, nil
}

func addStatementRow(stmt *models.Statement, row gjson.Result) {
	period, err := utils.ParseDate(row.Get("REPORT_DATE").String())
	if err != nil {
		return
	}
	row.ForEach(func(key, val gjson.Result) bool {
		name := key.String()
		if metaColumns[name] || strings.HasSuffix(name, "_YOY") || strings.HasSuffix(name, "_BALANCE") {
			return true
		}
		if val.Type == gjson.Number || val.Type == gjson.Null {
			stmt.Set(period, name, infra.Number(val))
		}
		return true
	})
}
