package models

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStatementSetSortValue(t *testing.T) {
	s := NewStatement(IncomeStatement, "600519")
	s.Set(day(2024, time.June, 30), "revenue", null.FloatFrom(250))
	s.Set(day(2024, time.March, 31), "revenue", null.FloatFrom(100))
	s.Set(day(2024, time.June, 30), "net_profit", null.FloatFrom(80))
	s.Sort()

	require.Len(t, s.Rows, 2)
	assert.Equal(t, day(2024, time.March, 31), s.Rows[0].Period)
	assert.Equal(t, null.FloatFrom(250), s.Value(day(2024, time.June, 30), "revenue"))
	assert.Equal(t, null.FloatFrom(80), s.Value(day(2024, time.June, 30), "net_profit"))
	assert.False(t, s.Value(day(2024, time.March, 31), "net_profit").Valid)
	assert.False(t, s.Value(day(2023, time.December, 31), "revenue").Valid)

	clone := s.Clone()
	clone.Set(day(2024, time.March, 31), "revenue", null.FloatFrom(1))
	assert.Equal(t, null.FloatFrom(100), s.Value(day(2024, time.March, 31), "revenue"))
}

func TestStatementNilSafe(t *testing.T) {
	var s *Statement
	assert.True(t, s.Empty())
	assert.Nil(t, s.Periods())
	assert.False(t, s.Value(day(2024, time.March, 31), "revenue").Valid)
}

func TestSeriesLatest(t *testing.T) {
	s := Series{Item: "revenue", Points: []SeriesPoint{
		{Period: day(2024, time.March, 31), Value: null.FloatFrom(1)},
		{Period: day(2024, time.June, 30), Value: null.Float{}},
	}}

	p, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, day(2024, time.March, 31), p.Period)
	assert.Len(t, s.Known(), 1)
}
