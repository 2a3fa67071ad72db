package ratelimit

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *mockClock, cfg Config) *Limiter {
	cfg.Clock = clock
	if cfg.GlobalRate == 0 {
		cfg.GlobalRate = rate.Inf
	}
	return New(&cfg)
}

func TestCheckLogin_LockoutAfterFailures(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock, Config{MaxFailures: 3, Lockout: 5 * time.Minute, MaxIPPerHour: 100})
	defer limiter.Close()

	email := "user@soulparking.co.id"
	ip := "203.0.113.10"

	for i := 0; i < 3; i++ {
		result := limiter.CheckLogin(email, ip)
		if !result.Allowed {
			t.Fatalf("attempt %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		lockedOut := limiter.RecordAttempt(email, ip, false)
		if lockedOut != (i == 2) {
			t.Fatalf("attempt %d: expected lockedOut=%v, got %v", i+1, i == 2, lockedOut)
		}
	}

	clock.Advance(time.Minute)
	result := limiter.CheckLogin(email, ip)
	if result.Allowed {
		t.Fatal("expected lockout after max failures")
	}
	if result.Reason != "lockout" {
		t.Fatalf("expected reason lockout, got %q", result.Reason)
	}
	if result.RetryAfter != 4*time.Minute {
		t.Fatalf("expected RetryAfter 4m, got %v", result.RetryAfter)
	}

	clock.Advance(4 * time.Minute)
	if result := limiter.CheckLogin(email, ip); !result.Allowed {
		t.Fatalf("expected login allowed after lockout, got %s", result.Reason)
	}
	if limiter.RecordAttempt(email, ip, false) {
		t.Fatal("expected first failure after lockout to start a new window")
	}
}

func TestRecordAttempt_SuccessResetsFailures(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock, Config{MaxFailures: 2, MaxIPPerHour: 100})
	defer limiter.Close()

	email := "admin@soulparking.co.id"
	ip := "203.0.113.11"

	limiter.RecordAttempt(email, ip, false)
	limiter.RecordAttempt(email, ip, true)
	if limiter.RecordAttempt(email, ip, false) {
		t.Fatal("expected failure count to restart after success")
	}
	if result := limiter.CheckLogin(email, ip); !result.Allowed {
		t.Fatalf("expected login allowed, got %s", result.Reason)
	}
}

func TestCheckLogin_EmailNormalization(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock, Config{MaxFailures: 1, MaxIPPerHour: 100})
	defer limiter.Close()

	limiter.RecordAttempt("Admin@SoulParking.co.id ", "203.0.113.12", false)
	if result := limiter.CheckLogin("admin@soulparking.co.id", "203.0.113.99"); result.Allowed {
		t.Fatal("expected case variants of an email to share a lockout")
	}
}

func TestCheckLogin_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock, Config{MaxFailures: 100, MaxIPPerHour: 2})
	defer limiter.Close()

	ip := "203.0.113.13"
	for i := 0; i < 2; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		if result := limiter.CheckLogin(email, ip); !result.Allowed {
			t.Fatalf("attempt %d should be allowed, got %s", i+1, result.Reason)
		}
		limiter.RecordAttempt(email, ip, false)
	}

	result := limiter.CheckLogin("other@example.com", ip)
	if result.Allowed || result.Reason != "ip_hourly_limit" {
		t.Fatalf("expected ip_hourly_limit, got allowed=%v reason=%q", result.Allowed, result.Reason)
	}

	clock.Advance(time.Hour)
	if result := limiter.CheckLogin("other@example.com", ip); !result.Allowed {
		t.Fatalf("expected login allowed after an hour, got %s", result.Reason)
	}
}

func TestCheckLogin_GlobalRate(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock, Config{GlobalRate: rate.Limit(1), GlobalBurst: 2, MaxIPPerHour: 100})
	defer limiter.Close()

	for i := 0; i < 2; i++ {
		if result := limiter.CheckLogin("a@example.com", "203.0.113.14"); !result.Allowed {
			t.Fatalf("burst attempt %d should be allowed, got %s", i+1, result.Reason)
		}
	}
	if result := limiter.CheckLogin("a@example.com", "203.0.113.14"); result.Reason != "global_rate" {
		t.Fatalf("expected global_rate, got %q", result.Reason)
	}

	clock.Advance(time.Second)
	if result := limiter.CheckLogin("a@example.com", "203.0.113.14"); !result.Allowed {
		t.Fatalf("expected token refill after a second, got %s", result.Reason)
	}
}

func TestGetClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50",
		},
		{
			name:       "TrustProxy=true, XFF all private",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1",
		},
		{
			name:       "TrustProxy=true, X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("POST", "/api/v1/auth/login", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := GetClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	tests := map[string]string{
		"admin@soulparking.co.id": "ad***@soulparking.co.id",
		"ab@example.com":          "***@example.com",
		"not-an-email":            "***",
	}
	for input, want := range tests {
		if got := SanitizeEmail(input); got != want {
			t.Errorf("SanitizeEmail(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := map[string]bool{
		"10.1.2.3":           true,
		"172.16.0.1":         true,
		"192.168.1.1":        true,
		"127.0.0.1":          true,
		"::1":                true,
		"::ffff:192.168.1.1": true,
		"203.0.113.1":        false,
		"8.8.8.8":            false,
		"garbage":            false,
	}
	for ip, want := range tests {
		if got := isPrivateIP(ip); got != want {
			t.Errorf("isPrivateIP(%q) = %v, want %v", ip, got, want)
		}
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)
	defer limiter.Close()

	if limiter.config.MaxFailures != 5 || limiter.config.Lockout != 5*time.Minute {
		t.Fatalf("expected default config, got %+v", limiter.config)
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newMockClock()
	limiter := newTestLimiter(clock, Config{MaxFailures: 1000, MaxIPPerHour: 1000})
	defer limiter.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			email := fmt.Sprintf("user%d@example.com", n%4)
			for j := 0; j < 25; j++ {
				limiter.CheckLogin(email, "203.0.113.20")
				limiter.RecordAttempt(email, "203.0.113.20", j%5 == 0)
			}
		}(i)
	}
	wg.Wait()
}
