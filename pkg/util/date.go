package util

import (
	"strings"
	"time"
)

var monthLayouts = []string{
	"2006-01",
	"2006-01-02",
	"2006/01",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseMonth parses a year-month label and returns the first day of that
// month in UTC. Full dates are accepted and truncated to the month.
func ParseMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthStart(t), true
		}
	}
	return time.Time{}, false
}

// MonthStart returns the first day of t's month at midnight UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthLabel formats t as "2006-01".
func MonthLabel(t time.Time) string { return t.Format("2006-01") }
