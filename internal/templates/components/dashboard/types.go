package dashboard

type PresetOption struct {
	Value    string
	Label    string
	Selected bool
}

type Stat struct {
	Label string
	Value string
}

type Bar struct {
	Label   string
	Value   string
	Percent int
}

type Breakdown struct {
	Title string
	Rows  []Bar
}

type DashboardData struct {
	UserName   string
	IsAdmin    bool
	Preset     string
	Presets    []PresetOption
	From       string
	To         string
	RangeLabel string
	Stats      []Stat
	Hourly     []Bar
	Breakdowns []Breakdown
}

func (b Bar) clampedPercent() int {
	return min(max(b.Percent, 0), 100)
}
