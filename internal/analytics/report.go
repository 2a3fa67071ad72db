// internal/analytics/report.go
package analytics

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/soulparking/dashboard/internal/daterange"
	"github.com/soulparking/dashboard/internal/export"
)

// MaxReportDays caps the number of rows in a daily report.
const MaxReportDays = 366

var ErrIncompleteRange = errors.New("report requires both from and to")

// ReportRow is one day of the daily report.
type ReportRow struct {
	Date        string
	TotalIncome int64
	Vehicles    int64
	Occupancy   string
}

// DailyReport produces one single-day row per calendar day of r. Reversed
// ranges yield no rows.
func DailyReport(r daterange.Range) ([]ReportRow, error) {
	if !r.Complete() {
		return nil, ErrIncompleteRange
	}

	first := daterange.StartOfDay(*r.From)
	last := daterange.StartOfDay(*r.To)
	rows := make([]ReportRow, 0)
	for day := first; !day.After(last) && len(rows) < MaxReportDays; day = day.AddDate(0, 0, 1) {
		metrics := Generate(daterange.Day(day), DefaultSpanDays)
		rows = append(rows, ReportRow{
			Date:        day.Format(daterange.DateLayout),
			TotalIncome: metrics.Summary.Revenue,
			Vehicles:    metrics.Summary.Transactions,
			Occupancy:   fmt.Sprintf("%d%%", metrics.Summary.OccupancyPercent),
		})
	}
	return rows, nil
}

// FormatRupiah renders an amount as "Rp 12.500.000".
func FormatRupiah(amount int64) string {
	digits := decimal.NewFromInt(amount).Abs().String()
	grouped := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range len(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, digits[i])
	}
	if amount < 0 {
		return "-Rp " + string(grouped)
	}
	return "Rp " + string(grouped)
}

// ReportColumns is the column order of the exported daily report.
var ReportColumns = []export.Column[ReportRow]{
	{Name: "Date", Value: func(r ReportRow) any { return r.Date }},
	{Name: "TotalIncome", Value: func(r ReportRow) any { return r.TotalIncome }},
	{Name: "Vehicles", Value: func(r ReportRow) any { return r.Vehicles }},
	{Name: "Occupancy", Value: func(r ReportRow) any { return r.Occupancy }},
}
