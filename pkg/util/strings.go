package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// StripThousands removes thousands separators and surrounding blanks from a
// numeric string: "1,234.50" -> "1234.50".
func StripThousands(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, ", _") {
		return s
	}
	return strings.NewReplacer(",", "", " ", "", "_", "").Replace(s)
}

// IntPtr returns nil for zero, otherwise a pointer to v.
func IntPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
