// internal/daterange/query.go
package daterange

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Selection is a parsed range together with the preset it came from.
type Selection struct {
	Range  Range  `json:"range"`
	Preset string `json:"preset"`
}

// ParseQuery reads date_range, from and to. It reports ok=false when none of
// them are present so callers can fall back to a held range. Custom bounds are
// calendar dates: from starts at midnight and to ends at the last instant of its day.
func ParseQuery(query url.Values, now time.Time) (Selection, bool, error) {
	rangeRaw := strings.TrimSpace(query.Get("date_range"))
	preset := strings.ToLower(rangeRaw)
	fromRaw := strings.TrimSpace(query.Get("from"))
	toRaw := strings.TrimSpace(query.Get("to"))

	if rangeRaw != "" && strings.Contains(rangeRaw, " to ") && !IsKnownPreset(preset) {
		parts := strings.SplitN(rangeRaw, " to ", 2)
		fromRaw = strings.TrimSpace(parts[0])
		toRaw = strings.TrimSpace(parts[1])
		preset = PresetCustom
	}

	if preset == "" && fromRaw == "" && toRaw == "" {
		return Selection{}, false, nil
	}

	if preset != "" && preset != PresetCustom {
		r, err := FromPreset(preset, now)
		if err != nil {
			return Selection{}, false, err
		}
		return Selection{Range: r, Preset: preset}, true, nil
	}

	r, err := ParseBounds(fromRaw, toRaw, now.Location())
	if err != nil {
		return Selection{}, false, err
	}
	return Selection{Range: r, Preset: PresetCustom}, true, nil
}

// ParseBounds parses YYYY-MM-DD bounds into a calendar range. Both are required
// and to must not be before from.
func ParseBounds(fromRaw, toRaw string, loc *time.Location) (Range, error) {
	if fromRaw == "" || toRaw == "" {
		return Range{}, fmt.Errorf("from and to are required")
	}

	from, err := time.ParseInLocation(DateLayout, fromRaw, loc)
	if err != nil {
		return Range{}, fmt.Errorf("from must be in YYYY-MM-DD format")
	}
	to, err := time.ParseInLocation(DateLayout, toRaw, loc)
	if err != nil {
		return Range{}, fmt.Errorf("to must be in YYYY-MM-DD format")
	}
	if to.Before(from) {
		return Range{}, fmt.Errorf("to must not be before from")
	}

	return Days(from, to), nil
}
