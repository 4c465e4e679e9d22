package main

import (
	"bytes"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"

	"github.com/seenimoa/stockfusion/pkg/models"
	"github.com/seenimoa/stockfusion/pkg/utils"
)

func TestPrintValuation(t *testing.T) {
	var buf bytes.Buffer
	printValuation(&buf, models.ValuationSnapshot{Price: 10.5, ChangePct: 5, PETTM: 0, PB: 1.2, TotalMV: 2.5e9, Source: models.ValuationFallback})

	out := buf.String()
	assert.Contains(t, out, "10.50 (+5.00%)")
	assert.Contains(t, out, "PE (TTM)   -")
	assert.Contains(t, out, "25.00亿")
	assert.Contains(t, out, "source     fallback")
}

func TestPrintIndustryMarksTarget(t *testing.T) {
	var buf bytes.Buffer
	printIndustry(&buf, models.IndustryComparison{
		Industry: models.Industry{Code: "BK0477", Name: "酿酒行业"},
		Peers: []models.PeerQuote{
			{Code: "600519", Name: "贵州茅台", IsTarget: true, Amount: 5e9},
			{Code: "000858", Name: "五粮液", Amount: 3e9},
			{Code: "000568", Name: "泸州老窖", Amount: 1e9},
		},
		Stats: models.IndustryStats{Count: 3},
	}, 2)

	out := buf.String()
	assert.Contains(t, out, "酿酒行业 (BK0477), 3 constituents")
	assert.Contains(t, out, "* 600519")
	assert.Contains(t, out, "  000858")
	assert.NotContains(t, out, "000568")
}

func TestPrintSeriesHeadsWithLatestKnown(t *testing.T) {
	var buf bytes.Buffer
	printSeries(&buf, models.Series{Item: "revenue", Points: []models.SeriesPoint{
		{Period: utils.QuarterEnd(2024, 1), Value: null.FloatFrom(3e8)},
		{Period: utils.QuarterEnd(2024, 2), Value: null.FloatFrom(6.5e8)},
		{Period: utils.QuarterEnd(2024, 3)},
	}})

	out := buf.String()
	assert.Contains(t, out, "revenue (latest 2024-06-30: 6.50亿)")
	assert.NotContains(t, out, "2024-09-30")

	buf.Reset()
	printSeries(&buf, models.Series{Item: "revenue", Points: []models.SeriesPoint{{Period: utils.QuarterEnd(2024, 1)}}})
	assert.Empty(t, buf.String())
}
