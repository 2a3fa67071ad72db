// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/soulparking/dashboard/internal/config"
)

// Config holds process-level settings read from the environment.
type Config struct {
	ConfigPath      string
	Port            string
	ShutdownTimeout time.Duration
}

func loadConfig() (*Config, *config.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	env := &Config{
		ConfigPath:      getEnv("CONFIG_PATH", "config.yaml"),
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	appConfig, err := config.Load(env.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	env.Port = getEnv("PORT", strconv.Itoa(appConfig.App.Port))

	return env, appConfig, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func setupLogger(appConfig *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if appConfig.Features.EnableDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if appConfig.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	env, appConfig, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(appConfig)

	srv, err := newApp(env, appConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}
	defer srv.Close()

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	srv.scheduler.Start()

	// Run server
	g.Go(func() error {
		log.Info().Str("port", env.Port).Str("environment", appConfig.App.Environment).Msg("Starting server")
		if err := srv.server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := srv.scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
		if err := srv.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		srv.Close()
		os.Exit(1)
	}
}
