// internal/api/dashboard/handlers.go
package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/analytics"
	"github.com/soulparking/dashboard/internal/api/apiutil"
	"github.com/soulparking/dashboard/internal/api/authz"
	"github.com/soulparking/dashboard/internal/api/htmx"
	"github.com/soulparking/dashboard/internal/api/selection"
	"github.com/soulparking/dashboard/internal/daterange"
	"github.com/soulparking/dashboard/internal/export"
	"github.com/soulparking/dashboard/internal/metrics"
	dashboardtempl "github.com/soulparking/dashboard/internal/templates/components/dashboard"
)

const (
	reportFileBase = "parking-report"
	lotCapacity    = 200
)

var (
	service  *analytics.Service
	registry *selection.Registry
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(svc *analytics.Service, reg *selection.Registry) {
	if svc == nil || reg == nil {
		log.Warn().Msg("InitHandlers called without analytics service or registry; dashboard handlers will be unavailable")
		return
	}
	initOnce.Do(func() {
		service = svc
		registry = reg
	})
}

type metricsResponse struct {
	Range   selection.RangeResponse `json:"range"`
	Metrics analytics.Metrics       `json:"metrics"`
}

type overviewResponse struct {
	Range    selection.RangeResponse   `json:"range"`
	Overview analytics.OverviewMetrics `json:"overview"`
}

// HandleDashboardPage renders the dashboard page for GET /. Picking a range
// on the page stores it for the session.
func HandleDashboardPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !ready() {
		logger.Error().Msg("Dashboard handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sel, err := registry.Resolve(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	registry.Commit(r, sel)

	dashboardSpan, _ := service.DefaultSpans()
	data := buildDashboardData(sel, service.Dashboard(sel.Range), dashboardSpan)
	if user := authz.UserFromContext(r.Context()); user != nil {
		data.UserName = user.Name
		data.IsAdmin = authz.IsAdmin(user)
	}

	page := dashboardtempl.DashboardLayout(data)
	if htmx.IsRequest(r) {
		page = dashboardtempl.DashboardContent(data)
	}
	apiutil.RenderHTMLComponent(r.Context(), w, page, nil, "Failed to render dashboard page", "Failed to render page")
}

// HandleDashboardMetrics returns the derived metrics for GET /api/v1/dashboard.
func HandleDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !ready() {
		logger.Error().Msg("Dashboard handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sel, err := registry.Resolve(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dashboardSpan, _ := service.DefaultSpans()
	resp := metricsResponse{
		Range:   selection.NewRangeResponse(sel, dashboardSpan),
		Metrics: service.Dashboard(sel.Range),
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write dashboard response")
	}
}

// HandleOverview returns the network overview for GET /api/v1/admin/overview.
func HandleOverview(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !ready() {
		logger.Error().Msg("Dashboard handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !apiutil.RequireRole(w, r, authz.RoleAdmin) {
		return
	}

	sel, err := registry.Resolve(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, overviewSpan := service.DefaultSpans()
	resp := overviewResponse{
		Range:    selection.NewRangeResponse(sel, overviewSpan),
		Overview: service.Overview(sel.Range),
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write overview response")
	}
}

// HandleReport serves the per-day report for GET /api/v1/dashboard/report as CSV.
func HandleReport(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !ready() {
		logger.Error().Msg("Dashboard handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sel, err := registry.Resolve(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := analytics.DailyReport(sel.Range)
	if err != nil {
		if errors.Is(err, analytics.ErrIncompleteRange) {
			http.Error(w, "Select a range with a start and end date", http.StatusBadRequest)
			return
		}
		logger.Error().Err(err).Msg("Failed to build daily report")
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, analytics.ReportColumns, rows); err != nil {
		if errors.Is(err, export.ErrNoRows) {
			logger.Warn().Str("range", sel.Range.String()).Msg("No report rows to export")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		logger.Error().Err(err).Msg("Failed to write report CSV")
		http.Error(w, "Failed to export report", http.StatusInternalServerError)
		return
	}

	filename := export.Filename(reportFileBase, registry.Now(), export.FormatCSV)
	if err := apiutil.WriteAttachment(w, export.CSVContentType, filename, buf.Bytes()); err != nil {
		logger.Error().Err(err).Msg("Failed to write report response")
		return
	}
	metrics.ExportsTotal.WithLabelValues("report", export.FormatCSV).Inc()
	logger.Info().Int("rows", len(rows)).Str("filename", filename).Msg("Report exported")
}

func ready() bool {
	return service != nil && registry != nil
}

func buildDashboardData(sel daterange.Selection, m analytics.Metrics, defaultSpan int) dashboardtempl.DashboardData {
	data := dashboardtempl.DashboardData{
		Preset:     sel.Preset,
		RangeLabel: rangeLabel(sel, defaultSpan),
		Stats: []dashboardtempl.Stat{
			{Label: "Total Revenue", Value: analytics.FormatRupiah(m.Summary.Revenue)},
			{Label: "Transactions", Value: fmt.Sprintf("%d", m.Summary.Transactions)},
			{Label: "Occupancy", Value: fmt.Sprintf("%d%%", m.Summary.OccupancyPercent)},
			{Label: "Occupied Spaces", Value: fmt.Sprintf("%d / %d", m.Summary.OccupiedSpaces, lotCapacity)},
		},
	}
	if sel.Range.From != nil {
		data.From = sel.Range.From.Format(daterange.DateLayout)
	}
	if sel.Range.To != nil {
		data.To = sel.Range.To.Format(daterange.DateLayout)
	}

	options := append([]string{}, daterange.Presets...)
	options = append(options, daterange.PresetAll, daterange.PresetCustom)
	for _, preset := range options {
		data.Presets = append(data.Presets, dashboardtempl.PresetOption{
			Value:    preset,
			Label:    daterange.Label(preset),
			Selected: preset == sel.Preset,
		})
	}

	for _, sample := range m.HourlyOccupancy {
		data.Hourly = append(data.Hourly, dashboardtempl.Bar{
			Label:   sample.Time,
			Value:   fmt.Sprintf("%d", sample.Vehicles),
			Percent: sample.Vehicles * 100 / lotCapacity,
		})
	}

	data.Breakdowns = []dashboardtempl.Breakdown{
		{Title: "Income by payment method", Rows: shareBars(m.IncomeByMethod, analytics.FormatRupiah)},
		{Title: "Vehicle types", Rows: percentBars(m.VehicleShares)},
		{Title: "Customer segments", Rows: percentBars(m.Segmentation)},
		{Title: "Parking duration", Rows: shareBars(m.Durations, func(v int64) string { return fmt.Sprintf("%d", v) })},
	}
	return data
}

func rangeLabel(sel daterange.Selection, defaultSpan int) string {
	if !sel.Range.Complete() {
		return fmt.Sprintf("%s (%d day default)", daterange.Label(sel.Preset), sel.Range.SpanDays(defaultSpan))
	}
	return fmt.Sprintf("%s: %s (%d days)", daterange.Label(sel.Preset), sel.Range, sel.Range.SpanDays(defaultSpan))
}

// shareBars sizes each slice by its share of the total.
func shareBars(slices []analytics.Slice, format func(int64) string) []dashboardtempl.Bar {
	var total int64
	for _, slice := range slices {
		total += slice.Value
	}
	bars := make([]dashboardtempl.Bar, 0, len(slices))
	for _, slice := range slices {
		percent := 0
		if total > 0 {
			percent = int(slice.Value * 100 / total)
		}
		bars = append(bars, dashboardtempl.Bar{Label: slice.Name, Value: format(slice.Value), Percent: percent})
	}
	return bars
}

// percentBars renders slices whose values are already percentages.
func percentBars(slices []analytics.Slice) []dashboardtempl.Bar {
	bars := make([]dashboardtempl.Bar, 0, len(slices))
	for _, slice := range slices {
		bars = append(bars, dashboardtempl.Bar{
			Label:   slice.Name,
			Value:   fmt.Sprintf("%d%%", slice.Value),
			Percent: int(slice.Value),
		})
	}
	return bars
}
