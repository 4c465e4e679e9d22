package utils

import (
	"errors"
	"testing"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"sh600519", "600519"},
		{"SH600519", "600519"},
		{"sz.000001", "000001"},
		{"600519.SH", "600519"},
		{"000001.sz", "000001"},
		{" 600519 ", "600519"},
		{"1", "000001"},
		{"2594", "002594"},
		{"bj430047", "430047"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := NormalizeCode(tt.input)
			if err != nil {
				t.Fatalf("NormalizeCode(%q) error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeCodeInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "sh", "abc", "60051a", "6005190"} {
		t.Run(input, func(t *testing.T) {
			_, err := NormalizeCode(input)
			if !errors.Is(err, ErrInvalidCode) {
				t.Errorf("NormalizeCode(%q) err = %v, want ErrInvalidCode", input, err)
			}
		})
	}
}

func TestMarketNotations(t *testing.T) {
	tests := []struct {
		code      string
		market    Market
		baostock  string
		secid     string
		sina      string
		prefixed  string
	}{
		{"600519", MarketShanghai, "sh.600519", "1.600519", "sh600519", "SH600519"},
		{"000001", MarketShenzhen, "sz.000001", "0.000001", "sz000001", "SZ000001"},
		{"300750", MarketShenzhen, "sz.300750", "0.300750", "sz300750", "SZ300750"},
		{"830799", MarketBeijing, "bj.830799", "0.830799", "bj830799", "BJ830799"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := MarketOf(tt.code); got != tt.market {
				t.Errorf("MarketOf = %q, want %q", got, tt.market)
			}
			if got := ToBaostockCode(tt.code); got != tt.baostock {
				t.Errorf("ToBaostockCode = %q, want %q", got, tt.baostock)
			}
			if got := FromBaostockCode(tt.baostock); got != tt.code {
				t.Errorf("FromBaostockCode = %q, want %q", got, tt.code)
			}
			if got := ToEastmoneySecID(tt.code); got != tt.secid {
				t.Errorf("ToEastmoneySecID = %q, want %q", got, tt.secid)
			}
			if got := ToSinaSymbol(tt.code); got != tt.sina {
				t.Errorf("ToSinaSymbol = %q, want %q", got, tt.sina)
			}
			if got := ToPrefixedCode(tt.code); got != tt.prefixed {
				t.Errorf("ToPrefixedCode = %q, want %q", got, tt.prefixed)
			}
		})
	}
}
