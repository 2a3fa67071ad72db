// internal/daterange/daterange.go
package daterange

import (
	"fmt"
	"math"
	"time"
)

const (
	// DateLayout is the calendar-date layout used in query strings and report rows.
	DateLayout = "2006-01-02"

	// NoRangeSeed is the seed used when a range has no start date.
	NoRangeSeed = 1

	day = 24 * time.Hour
)

// Range is a selected date range. Either end may be nil.
type Range struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// New returns a range over the two instants as given.
func New(from, to time.Time) Range {
	return Range{From: &from, To: &to}
}

// Days returns the calendar range covering the whole of the first day through the whole of the last day.
func Days(first, last time.Time) Range {
	return New(StartOfDay(first), EndOfDay(last))
}

// Day returns the calendar range covering a single day.
func Day(value time.Time) Range {
	return Days(value, value)
}

// Unbounded returns a range with neither end set.
func Unbounded() Range {
	return Range{}
}

// Complete reports whether both ends are set.
func (r Range) Complete() bool {
	return r.From != nil && r.To != nil
}

// Seed derives the display seed from the start date: day + month*100 + year, with a zero-based month.
func (r Range) Seed() int {
	if r.From == nil {
		return NoRangeSeed
	}
	from := *r.From
	return from.Day() + (int(from.Month())-1)*100 + from.Year()
}

// SpanDays returns max(1, ceil((to - from) / 24h)), or defaultDays when either end is missing.
func (r Range) SpanDays(defaultDays int) int {
	if !r.Complete() {
		if defaultDays < 1 {
			return 1
		}
		return defaultDays
	}
	span := int(math.Ceil(float64(r.To.Sub(*r.From)) / float64(day)))
	if span < 1 {
		return 1
	}
	return span
}

// Contains reports whether value lies within [from, to], inclusive on both ends.
func (r Range) Contains(value time.Time) bool {
	if r.From != nil && value.Before(*r.From) {
		return false
	}
	if r.To != nil && value.After(*r.To) {
		return false
	}
	return true
}

// Reversed reports whether both ends are set and from is after to.
func (r Range) Reversed() bool {
	return r.Complete() && r.From.After(*r.To)
}

// Location returns the location of the start date, falling back to the end date and then time.Local.
func (r Range) Location() *time.Location {
	switch {
	case r.From != nil:
		return r.From.Location()
	case r.To != nil:
		return r.To.Location()
	default:
		return time.Local
	}
}

// Equal reports whether both ranges have the same ends.
func (r Range) Equal(other Range) bool {
	return timePtrEqual(r.From, other.From) && timePtrEqual(r.To, other.To)
}

func (r Range) String() string {
	return fmt.Sprintf("%s to %s", formatEnd(r.From), formatEnd(r.To))
}

// StartOfDay truncates value to midnight in its own location.
func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

// EndOfDay returns the last representable instant of value's day.
func EndOfDay(value time.Time) time.Time {
	return StartOfDay(value).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func formatEnd(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.Format(DateLayout)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
