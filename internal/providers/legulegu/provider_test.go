package legulegu

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

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	p := New(WithBaseURL(server.URL), WithRateLimit(0))
	p.now = func() time.Time { return time.Date(2024, 6, 28, 10, 0, 0, 0, utils.CST) }
	return p
}

func TestToken(t *testing.T) {
	p := New()
	p.now = func() time.Time { return time.Date(2024, 6, 28, 23, 0, 0, 0, utils.CST) }
	// md5("2024-06-28"): the CST calendar day, not UTC.
	assert.Equal(t, "13b8a941e1737486c87285910e30071d", p.token())
}

func TestFetchIndicator(t *testing.T) {
	var gotToken string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, indicatorPath, r.URL.Path)
		assert.Equal(t, "600519", r.URL.Query().Get("id"))
		gotToken = r.URL.Query().Get("token")
		_, _ = w.Write([]byte(`{"data":[
			{"date":"2024-06-27","peTtm":23.1,"pb":8.4,"totalMv":18300000},
			{"date":"2024-06-28","peTtm":23.4,"pb":8.5,"totalMv":18450000}
		]}`))
	})

	res, err := p.Fetcher(provider.ModelValuationIndicator).Fetch(context.Background(), provider.QueryParams{provider.ParamCode: "600519"})
	require.NoError(t, err)

	snap := res.Data.(models.ValuationSnapshot)
	assert.Equal(t, models.ValuationIndicator, snap.Source)
	assert.Equal(t, 23.4, snap.PETTM)
	assert.Equal(t, 8.5, snap.PB)
	assert.InDelta(t, 1.845e11, snap.TotalMV, 1)
	assert.Equal(t, utils.Date(2024, 6, 28), snap.AsOf)
	assert.Zero(t, snap.Price)
	assert.Equal(t, p.token(), gotToken)
}

func TestFetchIndicatorSnakeCase(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"date":1719504000000,"pe_ttm":"15.2","pb":"-"}]}`))
	})

	res, err := p.Fetcher(provider.ModelValuationIndicator).Fetch(context.Background(), provider.QueryParams{provider.ParamCode: "000001"})
	require.NoError(t, err)

	snap := res.Data.(models.ValuationSnapshot)
	assert.Equal(t, 15.2, snap.PETTM)
	assert.Zero(t, snap.PB)
	assert.Equal(t, utils.Date(2024, 6, 28), snap.AsOf)
}

func TestFetchIndicatorEmpty(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	_, err := p.Fetcher(provider.ModelValuationIndicator).Fetch(context.Background(), provider.QueryParams{provider.ParamCode: "600519"})
	assert.ErrorIs(t, err, provider.ErrEmpty)
}

func TestFetchIndicatorHTTPError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := p.Fetcher(provider.ModelValuationIndicator).Fetch(context.Background(), provider.QueryParams{provider.ParamCode: "600519"})
	require.Error(t, err)
	assert.Equal(t, provider.KindFailed, provider.Classify(err))
}
