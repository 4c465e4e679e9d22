package sina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/stockfusion/internal/provider"
	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

const reportBody = `{"result":{"status":{"code":0},"data":{"report_count":"2","report_list":{
	"20240331":{"rType":"合并期末","data":[
		{"item_field":"BIZTOTINCO","item_title":"营业总收入","item_value":"46485264964.14"},
		{"item_field":"PARENETP","item_title":"归属于母公司所有者的净利润","item_value":"24064515049.11"},
		{"item_field":"","item_title":"每股收益","item_value":null}
	]},
	"20231231":{"rType":"合并期末","data":[
		{"item_field":"BIZTOTINCO","item_title":"营业总收入","item_value":"150560330316.45"},
		{"item_field":"PARENETP","item_title":"归属于母公司所有者的净利润","item_value":"--"}
	]}
}}}}`

const dividendPage = `<html><body>
<table id="sharebonus_1">
<thead><tr><th>公告日期</th><th>送股</th><th>转增</th><th>派息</th><th>进度</th><th>除权除息日</th><th>股权登记日</th><th>红股上市日</th><th>查看详细</th></tr></thead>
<tbody>
<tr><td>2024-06-07</td><td>0</td><td>0</td><td>308.76</td><td>实施</td><td>2024-06-19</td><td>2024-06-18</td><td>--</td><td><a>查看</a></td></tr>
<tr><td>2023-11-30</td><td>0</td><td>0</td><td>191.06</td><td>实施</td><td>2023-12-20</td><td>2023-12-19</td><td>--</td><td><a>查看</a></td></tr>
<tr><td>2024-03-29</td><td>0</td><td>0</td><td>0</td><td>预案</td><td>--</td><td>--</td><td>--</td><td><a>查看</a></td></tr>
<tr><td colspan="9">没有数据</td></tr>
</tbody>
</table>
</body></html>`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(WithBaseURL(server.URL), WithRateLimit(0))
}

func TestProviderInfo(t *testing.T) {
	p := New()
	assert.Equal(t, "sina", p.Info().Name)
	assert.ElementsMatch(t, []provider.ModelType{
		provider.ModelBalanceSheet, provider.ModelIncomeStatement, provider.ModelCashFlowStatement,
		provider.ModelFinancialAbstract, provider.ModelDividends,
	}, p.SupportedModels())
}

func TestFetchReport(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, reportPath, r.URL.Path)
		assert.Equal(t, "sh600519", r.URL.Query().Get("paperCode"))
		assert.Equal(t, "lrb", r.URL.Query().Get("source"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reportBody))
	})

	res, err := p.Fetcher(provider.ModelIncomeStatement).Fetch(context.Background(), provider.QueryParams{provider.ParamCode: "600519"})
	require.NoError(t, err)

	stmt := res.Data.(*models.Statement)
	assert.Equal(t, models.IncomeStatement, stmt.Kind)
	require.Len(t, stmt.Rows, 2)
	assert.Equal(t, utils.Date(2023, 12, 31), stmt.Rows[0].Period)
	assert.Equal(t, 150560330316.45, stmt.Value(utils.Date(2023, 12, 31), "营业总收入").Float64)

	// placeholders are kept as unknown
	v, ok := stmt.Rows[0].Values["归属于母公司所有者的净利润"]
	assert.True(t, ok)
	assert.False(t, v.Valid)
	assert.Equal(t, 24064515049.11, stmt.Value(utils.Date(2024, 3, 31), "归属于母公司所有者的净利润").Float64)
}

func TestFetchReportEmpty(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"data":{"report_list":[]}}}`))
	})

	_, err := p.Fetcher(provider.ModelFinancialAbstract).Fetch(context.Background(), provider.QueryParams{provider.ParamCode: "600519"})
	assert.ErrorIs(t, err, provider.ErrEmpty)
}

func TestFetchDividends(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/corp/go.php/vISSUE_ShareBonus/stockid/600519.phtml", r.URL.Path)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(dividendPage))
	})

	res, err := p.Fetcher(provider.ModelDividends).Fetch(context.Background(), provider.QueryParams{provider.ParamCode: "600519"})
	require.NoError(t, err)

	divs := res.Data.([]models.Dividend)
	require.Len(t, divs, 3)
	assert.Equal(t, utils.Date(2024, 6, 7), divs[0].AnnouncedAt)
	assert.Equal(t, 308.76, divs[0].CashPer10)
	assert.Equal(t, "实施", divs[0].Progress)
	assert.Equal(t, utils.Date(2024, 6, 19), divs[0].ExDate)
	assert.Equal(t, "预案", divs[2].Progress)
	assert.Equal(t, time.Time{}, divs[2].ExDate)
}

func TestFetchDividendsNoTable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>页面不存在</p></body></html>`))
	})

	_, err := p.Fetcher(provider.ModelDividends).Fetch(context.Background(), provider.QueryParams{provider.ParamCode: "600519"})
	assert.ErrorIs(t, err, provider.ErrEmpty)
}
