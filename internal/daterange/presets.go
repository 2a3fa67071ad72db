// internal/daterange/presets.go
package daterange

import (
	"fmt"
	"strings"
	"time"
)

const (
	PresetToday     = "today"
	PresetYesterday = "yesterday"
	PresetThisWeek  = "this_week"
	PresetLastWeek  = "last_week"
	PresetThisMonth = "this_month"
	PresetLastMonth = "last_month"
	PresetThisYear  = "this_year"
	PresetCustom    = "custom"
	PresetAll       = "all"
)

// Presets lists the named ranges in the order the range picker shows them.
var Presets = []string{
	PresetToday,
	PresetYesterday,
	PresetThisWeek,
	PresetLastWeek,
	PresetThisMonth,
	PresetLastMonth,
	PresetThisYear,
}

var presetLabels = map[string]string{
	PresetToday:     "Today",
	PresetYesterday: "Yesterday",
	PresetThisWeek:  "This Week",
	PresetLastWeek:  "Last Week",
	PresetThisMonth: "This Month",
	PresetLastMonth: "Last Month",
	PresetThisYear:  "This Year",
	PresetCustom:    "Custom",
	PresetAll:       "All Time",
}

// Label returns the display label for a preset, or the preset itself when unknown.
func Label(preset string) string {
	if label, ok := presetLabels[preset]; ok {
		return label
	}
	return preset
}

// IsKnownPreset reports whether preset names a range (including custom and all).
func IsKnownPreset(preset string) bool {
	_, ok := presetLabels[preset]
	return ok
}

// FromPreset resolves a named preset relative to now. Weeks start on Sunday and
// every range ends at the last instant of its final day.
func FromPreset(preset string, now time.Time) (Range, error) {
	today := StartOfDay(now)

	switch strings.ToLower(strings.TrimSpace(preset)) {
	case PresetToday:
		return Day(today), nil
	case PresetYesterday:
		return Day(today.AddDate(0, 0, -1)), nil
	case PresetThisWeek:
		start := startOfWeek(today)
		return Days(start, start.AddDate(0, 0, 6)), nil
	case PresetLastWeek:
		start := startOfWeek(today).AddDate(0, 0, -7)
		return Days(start, start.AddDate(0, 0, 6)), nil
	case PresetThisMonth:
		start := startOfMonth(today)
		return Days(start, start.AddDate(0, 1, -1)), nil
	case PresetLastMonth:
		start := startOfMonth(today).AddDate(0, -1, 0)
		return Days(start, start.AddDate(0, 1, -1)), nil
	case PresetThisYear:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		return Days(start, time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, today.Location())), nil
	case PresetAll:
		return Unbounded(), nil
	default:
		return Range{}, fmt.Errorf("invalid date_range")
	}
}

func startOfWeek(value time.Time) time.Time {
	return value.AddDate(0, 0, -int(value.Weekday()))
}

func startOfMonth(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), 1, 0, 0, 0, 0, value.Location())
}
