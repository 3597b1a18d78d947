package domain

import (
	"fmt"
	"strings"
	"time"
)

// Weekday handling is centralized here so oracle cadence resolution and day
// grouping share one convention (Sunday = 0, matching time.Weekday) instead
// of re-deriving name-to-index maps per call site.

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday converts a weekday name to the canonical time.Weekday.
// Matching is case-insensitive and accepts three-letter abbreviations.
func ParseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if wd, ok := weekdayNames[key]; ok {
		return wd, nil
	}
	if len(key) == 3 {
		for full, wd := range weekdayNames {
			if strings.HasPrefix(full, key) {
				return wd, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}

// DaysUntil returns the smallest non-negative day delta such that moving
// that many days from `from` lands on `target`.
func DaysUntil(from, target time.Weekday) int {
	return (int(target) - int(from) + 7) % 7
}
