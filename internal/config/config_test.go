package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalConfig = `
app:
  name: SoulParking
  port: 8080
database:
  driver: sqlite
  filename: soulparking.db
`

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.App.Environment != "development" || !cfg.IsDevelopment() {
		t.Fatalf("expected development environment, got %q", cfg.App.Environment)
	}
	if cfg.Sessions.Backend != SessionBackendSQLite {
		t.Fatalf("expected sqlite sessions by default, got %q", cfg.Sessions.Backend)
	}
	if cfg.Sessions.TTL() != 8*time.Hour {
		t.Fatalf("expected 8h session ttl, got %v", cfg.Sessions.TTL())
	}
	if cfg.Dashboard.DefaultSpanDays != 1 || cfg.Dashboard.OverviewDefaultSpanDays != 7 {
		t.Fatalf("unexpected dashboard spans: %+v", cfg.Dashboard)
	}
	if cfg.Reports.Schedule != "0 6 * * *" {
		t.Fatalf("unexpected report schedule %q", cfg.Reports.Schedule)
	}
}

func TestParse_SecretsFromEnvironment(t *testing.T) {
	t.Setenv("APP_SECRET_KEY", "secret")
	t.Setenv("REDIS_PASSWORD", "redis-pass")
	t.Setenv("SES_ACCESS_KEY_ID", "AKIA")
	t.Setenv("SES_SECRET_ACCESS_KEY", "ses-secret")

	cfg, err := Parse([]byte(minimalConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.App.SecretKey != "secret" || cfg.Sessions.Redis.Password != "redis-pass" {
		t.Fatalf("expected secrets loaded from env, got %+v", cfg)
	}
	if cfg.Reports.AccessKeyID != "AKIA" || cfg.Reports.SecretAccessKey != "ses-secret" {
		t.Fatalf("expected ses keys loaded from env")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{
			name:    "redis without addr",
			extra:   "sessions:\n  backend: redis\n",
			wantErr: "redis addr",
		},
		{
			name:    "unknown session backend",
			extra:   "sessions:\n  backend: etcd\n",
			wantErr: "unsupported sessions backend",
		},
		{
			name:    "bad cron",
			extra:   "reports:\n  enabled: true\n  schedule: every day\n  recipients: [ops@soulparking.co.id]\n  sender: reports@soulparking.co.id\n  region: ap-southeast-1\n",
			wantErr: "schedule is invalid",
		},
		{
			name:    "reports without recipients",
			extra:   "reports:\n  enabled: true\n  sender: reports@soulparking.co.id\n  region: ap-southeast-1\n",
			wantErr: "recipients are required",
		},
		{
			name:    "events without url",
			extra:   "events:\n  enabled: true\n",
			wantErr: "events url",
		},
		{
			name:    "bad timezone",
			extra:   "dashboard:\n  timezone: Mars/Olympus\n",
			wantErr: "timezone",
		},
		{
			name:    "bad support phone",
			extra:   "support:\n  phone: \"12\"\n",
			wantErr: "support phone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(minimalConfig + tt.extra))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParse_MissingRequired(t *testing.T) {
	if _, err := Parse([]byte("app:\n  port: 8080\n")); err == nil {
		t.Fatal("expected error for missing app name")
	}
	if _, err := Parse([]byte("app:\n  name: x\n  port: 1\ndatabase:\n  driver: postgres\n")); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestParse_NormalizesSupportPhone(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig + "support:\n  email: support@soulparking.co.id\n  phone: \"0812-3456-7890\"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Support.Phone != "+6281234567890" {
		t.Fatalf("expected E.164 phone, got %q", cfg.Support.Phone)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(minimalConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("APP_SECRET_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("APP_SECRET_KEY", "")
	os.Unsetenv("APP_SECRET_KEY")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.SecretKey != "from-dotenv" {
		t.Fatalf("expected secret from .env, got %q", cfg.App.SecretKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
