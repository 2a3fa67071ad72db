package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/soulparking/dashboard/internal/analytics"
	"github.com/soulparking/dashboard/internal/api/authz"
	"github.com/soulparking/dashboard/internal/api/selection"
	"github.com/soulparking/dashboard/internal/daterange"
)

func setupDashboard(t *testing.T) *selection.Registry {
	t.Helper()

	svc, err := analytics.NewService(analytics.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	reg, err := selection.NewRegistry(8, time.UTC, svc.Warm)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	prevService := service
	prevRegistry := registry
	t.Cleanup(func() {
		service = prevService
		registry = prevRegistry
	})
	service = svc
	registry = reg
	return reg
}

func asUser(r *http.Request, role, token string) *http.Request {
	return r.WithContext(authz.ContextWithUser(r.Context(), &authz.AuthUser{
		Email:        "user@soulparking.co.id",
		Name:         "Parking Staff",
		Role:         role,
		SessionToken: token,
	}))
}

func TestHandleDashboardMetricsSingleDay(t *testing.T) {
	setupDashboard(t)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?from=2023-10-26&to=2023-10-26", nil), "user", "t1")
	rec := httptest.NewRecorder()

	HandleDashboardMetrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp metricsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Metrics.SpanDays != 1 || resp.Metrics.Summary.Revenue != 12_500_000 {
		t.Fatalf("expected single-day base values, got %+v", resp.Metrics.Summary)
	}
	if resp.Range.Seed != 2949 || resp.Range.Preset != daterange.PresetCustom {
		t.Fatalf("unexpected range %+v", resp.Range)
	}
}

func TestHandleDashboardMetricsUsesHeldRange(t *testing.T) {
	reg := setupDashboard(t)

	week := daterange.Days(
		time.Date(2023, time.October, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.October, 26, 0, 0, 0, 0, time.UTC),
	)
	reg.Set("t1", daterange.Selection{Range: week, Preset: daterange.PresetCustom})

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil), "user", "t1")
	rec := httptest.NewRecorder()

	HandleDashboardMetrics(rec, req)

	var resp metricsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Metrics.SpanDays != 7 || resp.Metrics.Summary.Revenue != 7*12_500_000 {
		t.Fatalf("expected seven-day magnitudes, got %+v", resp.Metrics.Summary)
	}
}

func TestHandleDashboardMetricsBadRange(t *testing.T) {
	setupDashboard(t)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?date_range=fortnight", nil), "user", "t1")
	rec := httptest.NewRecorder()

	HandleDashboardMetrics(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleDashboardPage(t *testing.T) {
	reg := setupDashboard(t)

	t.Run("full page commits selection", func(t *testing.T) {
		req := asUser(httptest.NewRequest(http.MethodGet, "/?date_range=this_month", nil), "admin", "t1")
		rec := httptest.NewRecorder()

		HandleDashboardPage(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "<!DOCTYPE html>") || !strings.Contains(body, "Total Revenue") {
			t.Fatalf("expected full dashboard page, got %q", body)
		}
		if !strings.Contains(body, `<option value="this_month" selected>`) {
			t.Fatal("expected this_month to be selected")
		}
		if got := reg.Selection("t1"); got.Preset != daterange.PresetThisMonth {
			t.Fatalf("expected selection committed, got %+v", got)
		}
	})

	t.Run("htmx partial", func(t *testing.T) {
		req := asUser(httptest.NewRequest(http.MethodGet, "/?date_range=today", nil), "user", "t2")
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()

		HandleDashboardPage(rec, req)

		body := rec.Body.String()
		if strings.Contains(body, "<!DOCTYPE html>") || !strings.Contains(body, `<section id="dashboard">`) {
			t.Fatalf("expected dashboard partial, got %q", body)
		}
	})
}

func TestHandleOverview(t *testing.T) {
	setupDashboard(t)

	t.Run("staff forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleOverview(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/admin/overview", nil), "user", "t1"))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rec.Code)
		}
	})

	t.Run("admin unbounded uses seven day default", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleOverview(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/admin/overview?date_range=all", nil), "admin", "t1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp overviewResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Overview.SpanDays != 7 || resp.Overview.RevenueMillions != "127.4" {
			t.Fatalf("unexpected overview %+v", resp.Overview)
		}
		if resp.Range.SpanDays != 7 {
			t.Fatalf("expected range span 7, got %d", resp.Range.SpanDays)
		}
	})
}

func TestHandleReport(t *testing.T) {
	setupDashboard(t)

	t.Run("csv attachment", func(t *testing.T) {
		req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/report?from=2023-10-26&to=2023-10-27", nil), "user", "t1")
		rec := httptest.NewRecorder()

		HandleReport(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("Content-Type") != "text/csv;charset=utf-8" {
			t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
		}
		disposition := rec.Header().Get("Content-Disposition")
		if !strings.HasPrefix(disposition, "attachment; filename=parking-report-") || !strings.HasSuffix(disposition, ".csv") {
			t.Fatalf("unexpected disposition %q", disposition)
		}
		lines := strings.Split(rec.Body.String(), "\n")
		if len(lines) != 3 || lines[0] != "Date,TotalIncome,Vehicles,Occupancy" {
			t.Fatalf("unexpected report %q", rec.Body.String())
		}
		if !strings.HasPrefix(lines[1], "2023-10-26,") || !strings.HasPrefix(lines[2], "2023-10-27,") {
			t.Fatalf("unexpected report rows %q", lines[1:])
		}
	})

	t.Run("unbounded range rejected", func(t *testing.T) {
		req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/report?date_range=all", nil), "user", "t1")
		rec := httptest.NewRecorder()

		HandleReport(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestBuildDashboardData(t *testing.T) {
	day := daterange.Day(time.Date(2023, time.October, 26, 0, 0, 0, 0, time.UTC))
	sel := daterange.Selection{Range: day, Preset: daterange.PresetToday}
	data := buildDashboardData(sel, analytics.Generate(day, 1), 1)

	if data.From != "2023-10-26" || data.To != "2023-10-26" {
		t.Fatalf("unexpected bounds %q %q", data.From, data.To)
	}
	if len(data.Hourly) != 9 {
		t.Fatalf("expected 9 hourly bars, got %d", len(data.Hourly))
	}
	for _, bar := range data.Hourly {
		if bar.Percent < 0 || bar.Percent > 100 {
			t.Fatalf("hourly bar out of range: %+v", bar)
		}
	}
	if len(data.Breakdowns) != 4 {
		t.Fatalf("expected 4 breakdowns, got %d", len(data.Breakdowns))
	}

	var selected int
	for _, option := range data.Presets {
		if option.Selected {
			selected++
		}
	}
	if selected != 1 {
		t.Fatalf("expected exactly one selected preset, got %d", selected)
	}
}
