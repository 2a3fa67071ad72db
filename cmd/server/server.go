// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/analytics"
	"github.com/soulparking/dashboard/internal/api"
	"github.com/soulparking/dashboard/internal/api/admin"
	apiauth "github.com/soulparking/dashboard/internal/api/auth"
	"github.com/soulparking/dashboard/internal/api/dashboard"
	"github.com/soulparking/dashboard/internal/api/selection"
	"github.com/soulparking/dashboard/internal/api/support"
	"github.com/soulparking/dashboard/internal/api/transactions"
	"github.com/soulparking/dashboard/internal/audit"
	parkauth "github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/config"
	"github.com/soulparking/dashboard/internal/db"
	"github.com/soulparking/dashboard/internal/email"
	"github.com/soulparking/dashboard/internal/events"
	"github.com/soulparking/dashboard/internal/metrics"
	"github.com/soulparking/dashboard/internal/ratelimit"
	"github.com/soulparking/dashboard/internal/scheduler"
	redisstore "github.com/soulparking/dashboard/internal/sessionstore/redis"
)

type app struct {
	server    *http.Server
	scheduler *scheduler.Service
	closers   []func() error
	closeOnce sync.Once
}

// Close releases everything newApp opened, newest first.
func (a *app) Close() {
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil {
				log.Error().Err(err).Msg("Failed to release resource")
			}
		}
	})
}

func newApp(env *Config, cfg *config.Config) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return fail(fmt.Errorf("open database: %w", err))
	}
	a.closers = append(a.closers, database.Close)

	store, pruner, err := openSessionStore(cfg, database)
	if err != nil {
		return fail(err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	credentials, err := parkauth.DefaultCredentials()
	if err != nil {
		return fail(fmt.Errorf("load credentials: %w", err))
	}
	sessions := parkauth.NewSessionService(store, credentials, cfg.Sessions.TTL())
	manager := apiauth.NewManager(sessions, apiauth.ManagerConfig{
		CookieName: cfg.Sessions.CookieName,
		TTL:        cfg.Sessions.TTL(),
		Secure:     !cfg.IsDevelopment(),
	})

	location, err := cfg.Dashboard.Location()
	if err != nil {
		return fail(fmt.Errorf("load dashboard timezone: %w", err))
	}
	svc, err := analytics.NewService(analytics.Config{
		DashboardDefaultSpanDays: cfg.Dashboard.DefaultSpanDays,
		OverviewDefaultSpanDays:  cfg.Dashboard.OverviewDefaultSpanDays,
		CacheSize:                cfg.Dashboard.CacheSize,
	}, log.Logger)
	if err != nil {
		return fail(err)
	}
	registry, err := selection.NewRegistry(cfg.Dashboard.HolderCacheSize, location, svc.Warm)
	if err != nil {
		return fail(err)
	}

	publisher, err := openPublisher(cfg)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, publisher.Close)
	recorder := audit.NewRecorder(database.Queries, publisher)

	limiter := ratelimit.New(nil)
	a.closers = append(a.closers, func() error {
		limiter.Close()
		return nil
	})

	apiauth.InitHandlers(apiauth.Deps{
		Manager:    manager,
		Limiter:    limiter,
		Recorder:   recorder,
		Queries:    database.Queries,
		TrustProxy: cfg.App.TrustProxy,
		OnLogout:   registry.Remove,
	})
	selection.InitHandlers(registry, cfg.Dashboard.DefaultSpanDays)
	dashboard.InitHandlers(svc, registry)
	transactions.InitHandlers(registry, cfg.Dashboard.DefaultSpanDays)
	admin.InitHandlers(database.Queries, recorder)
	support.InitHandlers(cfg.Support)

	sched, err := newScheduler(cfg, pruner, recorder, location)
	if err != nil {
		return fail(err)
	}
	a.scheduler = sched

	router := http.NewServeMux()
	registerRoutes(router, cfg.Features.EnableMetrics)

	// The first middleware listed runs closest to the router.
	handler := api.ChainMiddleware(
		router,
		api.WithMetrics,
		api.WithAuth(manager),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	a.server = &http.Server{
		Addr:         ":" + env.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// openSessionStore returns the configured store and, when the backend needs
// sweeping, the pruner the scheduler should run.
func openSessionStore(cfg *config.Config, database *db.DB) (parkauth.Store, parkauth.Pruner, error) {
	switch cfg.Sessions.Backend {
	case config.SessionBackendMemory:
		store := parkauth.NewMemoryStore()
		return store, store, nil
	case config.SessionBackendRedis:
		store, err := redisstore.Open(cfg.Sessions.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis session store: %w", err)
		}
		// Redis expires keys itself.
		return store, nil, nil
	default:
		store := db.NewSessionStore(database.Queries)
		return store, store, nil
	}
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if !cfg.Events.Enabled {
		return events.Noop{}, nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange)
	if err != nil {
		return nil, fmt.Errorf("connect activity publisher: %w", err)
	}
	log.Info().Str("exchange", cfg.Events.Exchange).Msg("Activity events enabled")
	return publisher, nil
}

func newScheduler(cfg *config.Config, pruner parkauth.Pruner, recorder *audit.Recorder, location *time.Location) (*scheduler.Service, error) {
	if err := scheduler.Init(); err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	sched, err := scheduler.ServiceInstance()
	if err != nil {
		return nil, err
	}

	if pruner != nil {
		if err := scheduler.RegisterSessionPruneJob(sched, pruner); err != nil {
			return nil, fmt.Errorf("register session prune job: %w", err)
		}
	}

	if !cfg.Reports.Enabled {
		return sched, nil
	}
	client, err := email.NewSESClient(cfg.Reports.AccessKeyID, cfg.Reports.SecretAccessKey, cfg.Reports.Region, cfg.Reports.Sender)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	err = scheduler.RegisterDailyReportJob(sched, cfg.Reports.Schedule, scheduler.ReportJob{
		AppName:    cfg.App.Name,
		Recipients: cfg.Reports.Recipients,
		From:       cfg.Reports.Sender,
		Sender:     client,
		Recorder:   recorder,
		Location:   location,
	})
	if err != nil {
		return nil, fmt.Errorf("register daily report job: %w", err)
	}
	log.Info().Str("schedule", cfg.Reports.Schedule).Int("recipients", len(cfg.Reports.Recipients)).Msg("Daily report enabled")
	return sched, nil
}

func registerRoutes(mux *http.ServeMux, enableMetrics bool) {
	session := func(h http.HandlerFunc) http.Handler {
		return api.WithSession(h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return api.WithSession(api.WithAdmin(h))
	}

	// Pages
	mux.Handle("GET /{$}", session(dashboard.HandleDashboardPage))
	mux.HandleFunc("GET /login", apiauth.HandleLoginPage)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if enableMetrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/login", apiauth.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", apiauth.HandleLogout)
	mux.Handle("GET /api/v1/auth/me", session(apiauth.HandleMe))

	// Date range
	mux.Handle("GET /api/v1/date-range", session(selection.HandleGetRange))
	mux.Handle("PUT /api/v1/date-range", session(selection.HandleSetRange))

	// Dashboard routes
	mux.Handle("GET /api/v1/dashboard", session(dashboard.HandleDashboardMetrics))
	mux.Handle("GET /api/v1/dashboard/report", session(dashboard.HandleReport))

	// Transaction routes
	mux.Handle("GET /api/v1/transactions", session(transactions.HandleList))
	mux.Handle("GET /api/v1/transactions/export", session(transactions.HandleExport))

	mux.Handle("GET /api/v1/support", session(support.HandleContact))

	// Admin routes
	mux.Handle("GET /api/v1/admin/overview", adminOnly(dashboard.HandleOverview))

	mux.Handle("GET /api/v1/admin/users", adminOnly(admin.HandleListUsers))
	mux.Handle("POST /api/v1/admin/users", adminOnly(admin.HandleCreateUser))
	mux.Handle("GET /api/v1/admin/users/{id}", adminOnly(admin.HandleGetUser))
	mux.Handle("PUT /api/v1/admin/users/{id}", adminOnly(admin.HandleUpdateUser))
	mux.Handle("DELETE /api/v1/admin/users/{id}", adminOnly(admin.HandleDeleteUser))

	mux.Handle("GET /api/v1/admin/locations", adminOnly(admin.HandleListLocations))
	mux.Handle("POST /api/v1/admin/locations", adminOnly(admin.HandleCreateLocation))
	mux.Handle("PUT /api/v1/admin/locations/{id}", adminOnly(admin.HandleUpdateLocation))
	mux.Handle("DELETE /api/v1/admin/locations/{id}", adminOnly(admin.HandleDeleteLocation))

	mux.Handle("GET /api/v1/admin/activity", adminOnly(admin.HandleListActivity))
}
