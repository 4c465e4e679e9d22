package utils

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	want := Date(2024, time.June, 30)
	for _, input := range []string{"2024-06-30", "20240630", "2024/06/30", "2024-06-30 00:00:00", " 2024-06-30T00:00:00 "} {
		got, err := ParseDate(input)
		if err != nil {
			t.Fatalf("ParseDate(%q) error: %v", input, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseDate("--"); err == nil {
		t.Error("ParseDate(\"--\") should fail")
	}
}

func TestQuarterHelpers(t *testing.T) {
	tests := []struct {
		date     time.Time
		quarter  int
		isEnd    bool
		prev     time.Time
		lastYear time.Time
	}{
		{Date(2024, time.March, 31), 1, true, Date(2023, time.December, 31), Date(2023, time.March, 31)},
		{Date(2024, time.June, 30), 2, true, Date(2024, time.March, 31), Date(2023, time.June, 30)},
		{Date(2024, time.September, 30), 3, true, Date(2024, time.June, 30), Date(2023, time.September, 30)},
		{Date(2024, time.December, 31), 4, true, Date(2024, time.September, 30), Date(2023, time.December, 31)},
		{Date(2024, time.May, 15), 2, false, Date(2024, time.March, 31), Date(2023, time.June, 30)},
	}

	for _, tt := range tests {
		t.Run(FormatDate(tt.date), func(t *testing.T) {
			if got := QuarterOf(tt.date); got != tt.quarter {
				t.Errorf("QuarterOf = %d, want %d", got, tt.quarter)
			}
			if got := IsQuarterEnd(tt.date); got != tt.isEnd {
				t.Errorf("IsQuarterEnd = %v, want %v", got, tt.isEnd)
			}
			if got := PrevQuarterEnd(tt.date); !got.Equal(tt.prev) {
				t.Errorf("PrevQuarterEnd = %v, want %v", got, tt.prev)
			}
			if got := SamePeriodLastYear(tt.date); !got.Equal(tt.lastYear) {
				t.Errorf("SamePeriodLastYear = %v, want %v", got, tt.lastYear)
			}
		})
	}
}

func TestNowCST(t *testing.T) {
	_, offset := NowCST().Zone()
	if offset != 8*60*60 {
		t.Errorf("CST offset = %d, want %d", offset, 8*60*60)
	}
}
