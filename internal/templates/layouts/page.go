package layouts

// Page describes the chrome around a rendered body.
type Page struct {
	Title    string
	UserName string
	IsAdmin  bool
	SignedIn bool
	Palette  Palette
}

func pageTitle(page Page) string {
	if page.Title == "" {
		return "SoulParking"
	}
	return page.Title + " · SoulParking"
}

// paletteStyle is safe to emit raw: colorOrDefault only lets #rrggbb values through.
func paletteStyle(palette Palette) string {
	return "<style>" + paletteCSSVars(palette) + "</style>"
}
