package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCode is returned when an input cannot be resolved to a
// six-digit A-share code.
var ErrInvalidCode = errors.New("invalid security code")

// Market identifies the exchange a code trades on.
type Market string

const (
	MarketShanghai Market = "sh"
	MarketShenzhen Market = "sz"
	MarketBeijing  Market = "bj"
)

// venue prefixes and suffixes accepted on user input, lowercase.
var (
	codePrefixes = []string{"sh.", "sz.", "bj.", "sh", "sz", "bj"}
	codeSuffixes = []string{".sh", ".ss", ".sz", ".bj"}
)

// NormalizeCode converts user input to the canonical six-digit code.
// It strips venue prefixes (sh600519, SZ.000001) and suffixes (600519.SH)
// and left-pads with zeros, so "1" becomes "000001".
func NormalizeCode(raw string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(raw))
	code = strings.TrimPrefix(code, "$")

	for _, p := range codePrefixes {
		if strings.HasPrefix(code, p) {
			code = code[len(p):]
			break
		}
	}
	for _, s := range codeSuffixes {
		if strings.HasSuffix(code, s) {
			code = code[:len(code)-len(s)]
			break
		}
	}

	if code == "" || len(code) > 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, raw)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCode, raw)
		}
	}
	return strings.Repeat("0", 6-len(code)) + code, nil
}

// MarketOf returns the exchange for a normalized code.
func MarketOf(code string) Market {
	if code == "" {
		return MarketShenzhen
	}
	switch code[0] {
	case '5', '6', '9':
		return MarketShanghai
	case '4', '8':
		return MarketBeijing
	default:
		return MarketShenzhen
	}
}

// ToBaostockCode converts a normalized code to baostock notation ("sh.600519").
func ToBaostockCode(code string) string {
	return string(MarketOf(code)) + "." + code
}

// FromBaostockCode strips the baostock venue prefix.
func FromBaostockCode(bsCode string) string {
	if i := strings.IndexByte(bsCode, '.'); i >= 0 {
		return bsCode[i+1:]
	}
	return bsCode
}

// ToEastmoneySecID converts a normalized code to the eastmoney secid
// ("1.600519" for Shanghai, "0.000001" otherwise).
func ToEastmoneySecID(code string) string {
	if MarketOf(code) == MarketShanghai {
		return "1." + code
	}
	return "0." + code
}

// ToSinaSymbol converts a normalized code to sina notation ("sh600519").
func ToSinaSymbol(code string) string {
	return string(MarketOf(code)) + code
}

// ToPrefixedCode returns the uppercase venue-prefixed form ("SH600519")
// used by eastmoney F10 endpoints.
func ToPrefixedCode(code string) string {
	return strings.ToUpper(string(MarketOf(code))) + code
}
