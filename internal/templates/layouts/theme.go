package layouts

import (
	"fmt"
	"regexp"
	"strings"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Palette is the set of brand colours exposed to stylesheets as CSS variables.
type Palette struct {
	Primary   string
	Secondary string
	Surface   string
	Accent    string
	Highlight string
}

func DefaultPalette() Palette {
	return Palette{
		Primary:   "#0f172a",
		Secondary: "#e2e8f0",
		Surface:   "#f8fafc",
		Accent:    "#2563eb",
		Highlight: "#16a34a",
	}
}

func paletteCSSVars(palette Palette) string {
	defaults := DefaultPalette()
	return fmt.Sprintf(
		":root{--brand-primary:%s;--brand-secondary:%s;--brand-surface:%s;--brand-accent:%s;--brand-highlight:%s;}",
		colorOrDefault(palette.Primary, defaults.Primary),
		colorOrDefault(palette.Secondary, defaults.Secondary),
		colorOrDefault(palette.Surface, defaults.Surface),
		colorOrDefault(palette.Accent, defaults.Accent),
		colorOrDefault(palette.Highlight, defaults.Highlight),
	)
}

func colorOrDefault(value string, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if !hexColorRegex.MatchString(trimmed) {
		return fallback
	}
	return trimmed
}
