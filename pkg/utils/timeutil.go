package utils

import (
	"fmt"
	"strings"
	"time"
)

// CST is China Standard Time (UTC+8), used by both Shanghai and Shenzhen exchanges.
var CST *time.Location

func init() {
	var err error
	CST, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		CST = time.FixedZone("CST", 8*60*60)
	}
}

// NowCST returns the current time in China Standard Time.
func NowCST() time.Time {
	return time.Now().In(CST)
}

// Date returns midnight UTC for the given calendar day. Report periods and
// trading days are calendar dates, so they are kept zone-free.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the clock part of t, keeping its calendar day.
func Truncate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate parses the date notations seen across upstream providers
// ("2024-06-30", "20240630", "2024/06/30", "2024-06-30 00:00:00").
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Truncate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatCompactDate renders t as YYYYMMDD.
func FormatCompactDate(t time.Time) string {
	return t.Format("20060102")
}

// IsQuarterEnd reports whether t falls on 31 Mar, 30 Jun, 30 Sep or 31 Dec.
func IsQuarterEnd(t time.Time) bool {
	switch t.Month() {
	case time.March, time.December:
		return t.Day() == 31
	case time.June, time.September:
		return t.Day() == 30
	}
	return false
}

// QuarterOf returns the fiscal quarter (1-4) t belongs to.
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// QuarterEnd returns the last day of quarter q in year.
func QuarterEnd(year, q int) time.Time {
	month := time.Month(q * 3)
	return Date(year, month+1, 1).AddDate(0, 0, -1)
}

// PrevQuarterEnd returns the end of the quarter preceding the one t falls in.
func PrevQuarterEnd(t time.Time) time.Time {
	q := QuarterOf(t)
	if q == 1 {
		return QuarterEnd(t.Year()-1, 4)
	}
	return QuarterEnd(t.Year(), q-1)
}

// SamePeriodLastYear returns the same quarter end one year earlier.
func SamePeriodLastYear(t time.Time) time.Time {
	return QuarterEnd(t.Year()-1, QuarterOf(t))
}

// YearsAgo returns the calendar day n years before t.
func YearsAgo(t time.Time, n int) time.Time {
	return Truncate(t).AddDate(-n, 0, 0)
}
