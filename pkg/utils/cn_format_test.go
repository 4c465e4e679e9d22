package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCN(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{123456789, "1.23亿"},
		{-250000000, "-2.50亿"},
		{56789, "5.68万"},
		{12.5, "12.50"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatCN(tt.input))
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		valid bool
		want  float64
	}{
		{"1,234.5", true, 1234.5},
		{"  42 ", true, 42},
		{"-3.2%", true, -3.2},
		{"1.5亿", true, 1.5e8},
		{"2万", true, 2e4},
		{"--", false, 0},
		{"", false, 0},
		{"NaN", false, 0},
		{"inf", false, 0},
		{"不适用", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseNumber(tt.input)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.InDelta(t, tt.want, got.Float64, 1e-9)
			}
		})
	}

	assert.Equal(t, 7.0, ParseNumberOr("--", 7))
	assert.Equal(t, 3.0, ParseNumberOr("3", 7))
	assert.Equal(t, "-", FormatNull(ParseNumber("--")))
}
