package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseMonth accepts a month name, a three-letter abbreviation or a 1-based
// number. Returns (m, true) if any worked.
func ParseMonth(s string) (time.Month, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), true
		}
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		name := m.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return m, true
		}
	}
	return 0, false
}

// NormalizeMonth returns the canonical English month name, or s unchanged
// when it is not a recognizable month.
func NormalizeMonth(s string) string {
	if m, ok := ParseMonth(s); ok {
		return m.String()
	}
	return strings.TrimSpace(s)
}
