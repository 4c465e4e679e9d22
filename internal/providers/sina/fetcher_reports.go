package sina

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/seenimoa/stockfusion/internal/infra"
	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

type source struct {
	kind models.StatementKind
	name string // "source" query value
}

var (
	balanceSource  = source{models.BalanceSheet, "fzb"}
	incomeSource   = source{models.IncomeStatement, "lrb"}
	cashFlowSource = source{models.CashFlowStatement, "llb"}
	abstractSource = source{models.FinancialAbstract, "gjzb"}
)

const reportPath = "/cn/api/openapi.php/CompanyFinanceService.getFinanceReport2022"

func (p *Provider) reportFetcher(s source) provider.FetchFunc {
	return func(ctx context.Context, params provider.QueryParams) (any, error) {
		return p.fetchReport(ctx, s, params[provider.ParamCode])
	}
}

// fetchReport returns a statement keyed by the Chinese item titles of the
// report page. Values are in yuan.
func (p *Provider) fetchReport(ctx context.Context, s source, code string) (*models.Statement, error) {
	res, err := infra.GetJSON(ctx, p.http, p.reportHost+reportPath, map[string]string{
		"paperCode": utils.ToSinaSymbol(code),
		"source":    s.name,
		"type":      "0",
		"page":      "1",
		"num":       "100",
	})
	if err != nil {
		return nil, err
	}

	stmt := models.NewStatement(s.kind, code)
	res.Get("result.data.report_list").ForEach(func(key, report gjson.Result) bool {
		period, err := utils.ParseDate(key.String())
		if err != nil {
			return true
		}
		report.Get("data").ForEach(func(_, item gjson.Result) bool {
			title := item.Get("item_title").String()
			if title == "" {
				return true
			}
			stmt.Set(period, title, infra.Number(item.Get("item_value")))
			return true
		})
		return true
	})

	if stmt.Empty() {
		return nil, fmt.Errorf("%s %s: %w", s.kind, code, provider.ErrEmpty)
	}
	stmt.Sort()
	p.log.Debug().Str("code", code).Str("report", string(s.kind)).Int("periods", len(stmt.Rows)).Msg("report fetched")
	return stmt, nil
}
