// internal/config/config.go
package config

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/soulparking/dashboard/internal/phone"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	Password string `yaml:"-"` // Loaded from environment
}

type SessionsConfig struct {
	Backend    string      `yaml:"backend"`
	TTLHours   int         `yaml:"ttl_hours"`
	CookieName string      `yaml:"cookie_name"`
	Redis      RedisConfig `yaml:"redis"`
}

// TTL returns the configured session lifetime.
func (s SessionsConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

type DashboardConfig struct {
	DefaultSpanDays         int    `yaml:"default_span_days"`
	OverviewDefaultSpanDays int    `yaml:"overview_default_span_days"`
	CacheSize               int    `yaml:"cache_size"`
	HolderCacheSize         int    `yaml:"holder_cache_size"`
	Timezone                string `yaml:"timezone"`
}

// Location loads the configured timezone, falling back to time.Local when unset.
func (d DashboardConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(d.Timezone)
}

type ReportsConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Schedule        string   `yaml:"schedule"`
	Recipients      []string `yaml:"recipients"`
	Sender          string   `yaml:"sender"`
	Region          string   `yaml:"region"`
	AccessKeyID     string   `yaml:"-"` // Loaded from environment
	SecretAccessKey string   `yaml:"-"` // Loaded from environment
}

type EventsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type SupportConfig struct {
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		TrustProxy  bool   `yaml:"trust_proxy"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Reports   ReportsConfig   `yaml:"reports"`
	Events    EventsConfig    `yaml:"events"`
	Support   SupportConfig   `yaml:"support"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, overlays secrets from the environment,
// applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Sessions.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Reports.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Reports.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.Sessions.Backend == "" {
		c.Sessions.Backend = SessionBackendSQLite
	}
	if c.Sessions.TTLHours == 0 {
		c.Sessions.TTLHours = 8
	}
	if c.Sessions.CookieName == "" {
		c.Sessions.CookieName = "soulparking_session"
	}
	if c.Sessions.Redis.Prefix == "" {
		c.Sessions.Redis.Prefix = "soulparking:session:"
	}
	if c.Dashboard.DefaultSpanDays == 0 {
		c.Dashboard.DefaultSpanDays = 1
	}
	if c.Dashboard.OverviewDefaultSpanDays == 0 {
		c.Dashboard.OverviewDefaultSpanDays = 7
	}
	if c.Dashboard.CacheSize == 0 {
		c.Dashboard.CacheSize = 256
	}
	if c.Dashboard.HolderCacheSize == 0 {
		c.Dashboard.HolderCacheSize = 1024
	}
	if c.Reports.Schedule == "" {
		c.Reports.Schedule = "0 6 * * *"
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "soulparking.activity"
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Sessions.Backend {
	case SessionBackendMemory, SessionBackendSQLite:
	case SessionBackendRedis:
		if c.Sessions.Redis.Addr == "" {
			return fmt.Errorf("sessions redis addr is required for redis backend")
		}
	default:
		return fmt.Errorf("unsupported sessions backend: %s", c.Sessions.Backend)
	}
	if c.Sessions.TTLHours < 0 {
		return fmt.Errorf("sessions ttl_hours must be 0 or greater")
	}

	if c.Dashboard.DefaultSpanDays < 1 || c.Dashboard.OverviewDefaultSpanDays < 1 {
		return fmt.Errorf("dashboard default spans must be at least 1 day")
	}
	if _, err := c.Dashboard.Location(); err != nil {
		return fmt.Errorf("dashboard timezone is invalid: %w", err)
	}

	if c.Reports.Enabled {
		if _, err := cron.ParseStandard(c.Reports.Schedule); err != nil {
			return fmt.Errorf("reports schedule is invalid: %w", err)
		}
		if len(c.Reports.Recipients) == 0 {
			return fmt.Errorf("reports recipients are required when reports are enabled")
		}
		for _, recipient := range c.Reports.Recipients {
			if _, err := mail.ParseAddress(recipient); err != nil {
				return fmt.Errorf("reports recipient %q is invalid", recipient)
			}
		}
		if c.Reports.Sender == "" || c.Reports.Region == "" {
			return fmt.Errorf("reports sender and region are required when reports are enabled")
		}
	}

	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events url is required when events are enabled")
	}

	if c.Support.Email != "" {
		if _, err := mail.ParseAddress(c.Support.Email); err != nil {
			return fmt.Errorf("support email is invalid")
		}
	}
	if c.Support.Phone != "" {
		normalized, err := phone.Normalize(c.Support.Phone)
		if err != nil {
			return fmt.Errorf("support phone is invalid: %w", err)
		}
		c.Support.Phone = normalized
	}

	return nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Environment, "development")
}
