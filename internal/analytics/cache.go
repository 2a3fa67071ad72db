// internal/analytics/cache.go
package analytics

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/soulparking/dashboard/internal/daterange"
	"github.com/soulparking/dashboard/internal/metrics"
)

type cacheKey struct {
	seed int
	span int
}

// Service serves derived datasets from an LRU cache keyed by seed and span,
// which fully determine the output.
type Service struct {
	dashboardSpan int
	overviewSpan  int
	dashboards    *lru.Cache[cacheKey, Metrics]
	overviews     *lru.Cache[cacheKey, OverviewMetrics]
	logger        zerolog.Logger
}

// Config holds generator defaults and cache sizing.
type Config struct {
	DashboardDefaultSpanDays int
	OverviewDefaultSpanDays  int
	CacheSize                int
}

// NewService creates a cached generator.
func NewService(config Config, logger zerolog.Logger) (*Service, error) {
	if config.DashboardDefaultSpanDays <= 0 {
		config.DashboardDefaultSpanDays = DefaultSpanDays
	}
	if config.OverviewDefaultSpanDays <= 0 {
		config.OverviewDefaultSpanDays = OverviewDefaultSpanDays
	}
	if config.CacheSize <= 0 {
		config.CacheSize = 256
	}

	dashboards, err := lru.New[cacheKey, Metrics](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics cache: %w", err)
	}
	overviews, err := lru.New[cacheKey, OverviewMetrics](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create overview cache: %w", err)
	}

	return &Service{
		dashboardSpan: config.DashboardDefaultSpanDays,
		overviewSpan:  config.OverviewDefaultSpanDays,
		dashboards:    dashboards,
		overviews:     overviews,
		logger:        logger.With().Str("component", "analytics").Logger(),
	}, nil
}

// Dashboard returns the operator dashboard dataset for r.
func (s *Service) Dashboard(r daterange.Range) Metrics {
	key := cacheKey{seed: r.Seed(), span: r.SpanDays(s.dashboardSpan)}
	if cached, ok := s.dashboards.Get(key); ok {
		metrics.MetricsCacheHits.Inc()
		return cached
	}
	metrics.MetricsCacheMisses.Inc()

	result := Generate(r, s.dashboardSpan)
	s.dashboards.Add(key, result)
	return result
}

// Overview returns the admin overview dataset for r.
func (s *Service) Overview(r daterange.Range) OverviewMetrics {
	key := cacheKey{seed: r.Seed(), span: r.SpanDays(s.overviewSpan)}
	if cached, ok := s.overviews.Get(key); ok {
		metrics.MetricsCacheHits.Inc()
		return cached
	}
	metrics.MetricsCacheMisses.Inc()

	result := Overview(r, s.overviewSpan)
	s.overviews.Add(key, result)
	return result
}

// Warm precomputes both datasets for r. It is meant to be subscribed to a
// date range holder so a new selection is ready before it is read.
func (s *Service) Warm(r daterange.Range) {
	s.Dashboard(r)
	s.Overview(r)
	s.logger.Debug().
		Int("seed", r.Seed()).
		Int("span_days", r.SpanDays(s.dashboardSpan)).
		Msg("Warmed metrics cache")
}

// DefaultSpans returns the dashboard and overview fallback spans.
func (s *Service) DefaultSpans() (int, int) {
	return s.dashboardSpan, s.overviewSpan
}
