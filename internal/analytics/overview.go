// internal/analytics/overview.go
package analytics

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/soulparking/dashboard/internal/daterange"
)

// OverviewDefaultSpanDays is the span the admin overview uses when the range is incomplete.
const OverviewDefaultSpanDays = 7

const (
	overviewUptime     = "99.99%"
	overviewAvgSession = "2h 45m"
	revenuePointCount  = 7
)

var (
	overviewRevenueMillions = decimal.RequireFromString("18.2")
	overviewBaseVehicles    = int64(1245)
)

// Point is one bar of the overview revenue chart.
type Point struct {
	Name    string `json:"name"`
	Revenue int64  `json:"revenue"`
}

// OverviewMetrics is the network-wide summary shown to admins.
type OverviewMetrics struct {
	Seed             int     `json:"seed"`
	SpanDays         int     `json:"spanDays"`
	RevenueMillions  string  `json:"revenueMillions"`
	Vehicles         int64   `json:"vehicles"`
	Uptime           string  `json:"uptime"`
	AvgSession       string  `json:"avgSession"`
	RevenueSeries    []Point `json:"revenueSeries"`
	LocationVehicles []Slice `json:"locationVehicles"`
}

// Overview derives the admin overview for r. The revenue series is random-looking
// but reproducible for the same seed and span.
func Overview(r daterange.Range, defaultSpanDays int) OverviewMetrics {
	seed := r.Seed()
	span := r.SpanDays(defaultSpanDays)
	m := int64(span)

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(span)))
	series := make([]Point, 0, revenuePointCount)
	for i := range revenuePointCount {
		value := (15 + rng.Float64()*10) * (float64(span) / 7) * 1_000_000
		series = append(series, Point{
			Name:    fmt.Sprintf("Day %d", i+1),
			Revenue: int64(math.Floor(value)),
		})
	}

	return OverviewMetrics{
		Seed:            seed,
		SpanDays:        span,
		RevenueMillions: overviewRevenueMillions.Mul(decimal.NewFromInt(m)).StringFixed(1),
		Vehicles:        overviewBaseVehicles * m,
		Uptime:          overviewUptime,
		AvgSession:      overviewAvgSession,
		RevenueSeries:   series,
		LocationVehicles: []Slice{
			{Name: "Jakarta", Value: 45 * m},
			{Name: "Bandung", Value: 32 * m},
			{Name: "Surakarta", Value: 28 * m},
			{Name: "Yogyakarta", Value: 38 * m},
		},
	}
}
