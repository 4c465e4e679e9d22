package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
)

const (
	wan = 1e4
	yi  = 1e8
)

// FormatCN renders a number with the 亿/万 units used in Chinese market data:
//
//	FormatCN(123456789) → "1.23亿"
//	FormatCN(56789)     → "5.68万"
//	FormatCN(12.5)      → "12.50"
func FormatCN(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= yi:
		return fmt.Sprintf("%.2f亿", v/yi)
	case abs >= wan:
		return fmt.Sprintf("%.2f万", v/wan)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// FormatNull renders a possibly-unknown value, using "-" for unknown.
func FormatNull(v null.Float) string {
	if !v.Valid {
		return "-"
	}
	return FormatCN(v.Float64)
}

// FormatPct renders a percentage with two decimals and an explicit sign.
func FormatPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// placeholders upstream providers emit for missing values.
var placeholders = map[string]bool{
	"":     true,
	"-":    true,
	"--":   true,
	"---":  true,
	"nan":  true,
	"none": true,
	"null": true,
}

// ParseNumber parses an upstream numeric cell. Placeholders, NaN and
// non-numeric text yield an unknown value instead of an error. Thousands
// separators, a trailing % and 亿/万 units are accepted.
func ParseNumber(raw string) null.Float {
	s := strings.TrimSpace(raw)
	if placeholders[strings.ToLower(s)] {
		return null.Float{}
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "亿"):
		mult, s = yi, strings.TrimSuffix(s, "亿")
	case strings.HasSuffix(s, "万"):
		mult, s = wan, strings.TrimSuffix(s, "万")
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f * mult)
}

// ParseNumberOr parses raw and returns def when the value is unknown.
func ParseNumberOr(raw string, def float64) float64 {
	if v := ParseNumber(raw); v.Valid {
		return v.Float64
	}
	return def
}
