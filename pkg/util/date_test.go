package util

import (
	"testing"
	"time"
)

func TestParseMonthYearMonth(t *testing.T) {
	got, ok := ParseMonth("2021-03")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseMonthTruncatesDay(t *testing.T) {
	got, ok := ParseMonth(" 2019-11-17 ")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Day() != 1 || got.Month() != time.November || got.Year() != 2019 {
		t.Fatalf("unexpected time %v", got)
	}
	if MonthLabel(got) != "2019-11" {
		t.Fatalf("unexpected label %s", MonthLabel(got))
	}
}

func TestParseMonthRejects(t *testing.T) {
	for _, s := range []string{"", "2021-13", "March 2021", "abc"} {
		if _, ok := ParseMonth(s); ok {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}
