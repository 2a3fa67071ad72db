// Package ratelimit throttles login attempts per email and per client address.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	MaxFailures  int           // Failed logins per email before lockout (default: 5)
	Lockout      time.Duration // Lockout duration after max failures (default: 5m)
	MaxIPPerHour int           // Login attempts per IP per hour (default: 30)
	GlobalRate   rate.Limit    // Sustained login requests per second across all clients (default: 10)
	GlobalBurst  int           // Burst allowance for GlobalRate (default: 20)
	CleanupEvery time.Duration // Stale entry sweep interval (default: 5m)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFailures:  5,
		Lockout:      5 * time.Minute,
		MaxIPPerHour: 30,
		GlobalRate:   rate.Limit(10),
		GlobalBurst:  20,
		CleanupEvery: 5 * time.Minute,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry tracks attempt counts and timestamps.
type entry struct {
	count    int
	firstAt  time.Time // First attempt in window
	lastAt   time.Time // Most recent attempt
	lockedAt time.Time // When lockout started (zero if not locked)
}

// Limiter implements layered rate limiting for the login endpoint.
type Limiter struct {
	config *Config
	clock  Clock
	global *rate.Limiter
	mu     sync.RWMutex
	// Keyed by hash of email or IP
	failuresByID map[string]*entry
	attemptsByIP map[string]*entry

	// Cleanup goroutine management
	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = defaults.MaxFailures
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = defaults.Lockout
	}
	if cfg.MaxIPPerHour <= 0 {
		cfg.MaxIPPerHour = defaults.MaxIPPerHour
	}
	if cfg.GlobalRate <= 0 {
		cfg.GlobalRate = defaults.GlobalRate
	}
	if cfg.GlobalBurst <= 0 {
		cfg.GlobalBurst = defaults.GlobalBurst
	}
	if cfg.CleanupEvery <= 0 {
		cfg.CleanupEvery = defaults.CleanupEvery
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		global:        rate.NewLimiter(cfg.GlobalRate, cfg.GlobalBurst),
		failuresByID:  make(map[string]*entry),
		attemptsByIP:  make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// CheckLogin reports whether a login attempt for email from ip may proceed.
// It does not record the attempt; call RecordAttempt once credentials are checked.
func (l *Limiter) CheckLogin(email, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()

	if !l.global.AllowN(now, 1) {
		return LimitResult{
			Allowed:    false,
			RetryAfter: time.Second,
			Reason:     "global_rate",
		}
	}

	idKey := l.hashKey("login:id:", normalizeIdentifier(email))
	ipKey := l.hashKey("login:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.failuresByID[idKey]; e != nil {
		if !e.lockedAt.IsZero() {
			elapsed := now.Sub(e.lockedAt)
			if elapsed < l.config.Lockout {
				return LimitResult{
					Allowed:    false,
					RetryAfter: l.config.Lockout - elapsed,
					Reason:     "lockout",
				}
			}
			// Lockout expired - the next recorded attempt resets the entry
		}
	}

	if e := l.attemptsByIP[ipKey]; e != nil {
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.MaxIPPerHour {
			return LimitResult{
				Allowed:    false,
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "ip_hourly_limit",
			}
		}
	}

	return LimitResult{Allowed: true}
}

// RecordAttempt records a login attempt. A successful attempt clears the
// email's failure count. Returns true when this failure triggered a lockout.
func (l *Limiter) RecordAttempt(email, ip string, success bool) (lockedOut bool) {
	now := l.clock.Now()
	idKey := l.hashKey("login:id:", normalizeIdentifier(email))
	ipKey := l.hashKey("login:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.attemptsByIP[ipKey]
	if e == nil || now.Sub(e.firstAt) >= time.Hour {
		l.attemptsByIP[ipKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else {
		e.count++
		e.lastAt = now
	}

	if success {
		delete(l.failuresByID, idKey)
		return false
	}

	e = l.failuresByID[idKey]
	if e == nil || (!e.lockedAt.IsZero() && now.Sub(e.lockedAt) >= l.config.Lockout) {
		e = &entry{firstAt: now}
		l.failuresByID[idKey] = e
	}
	e.count++
	e.lastAt = now
	if e.count >= l.config.MaxFailures && e.lockedAt.IsZero() {
		e.lockedAt = now
		lockedOut = true
	}

	return lockedOut
}

func (l *Limiter) hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeIdentifier lowercases the identifier to prevent case-based bypass.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(l.config.CleanupEvery)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	maxAge := l.config.Lockout + time.Hour
	for k, e := range l.failuresByID {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.failuresByID, k)
		}
	}
	for k, e := range l.attemptsByIP {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.attemptsByIP, k)
		}
	}
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost public IP from X-Forwarded-For.
// When trustProxy is false, ignores X-Forwarded-For entirely (prevents spoofing).
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			// All IPs are private, use the last one
			return strings.TrimSpace(parts[len(parts)-1])
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP checks if an IP is in a private/reserved range, including IPv4-mapped IPv6.
func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// SanitizeEmail masks an email address for logging.
func SanitizeEmail(email string) string {
	email = normalizeIdentifier(email)
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}

// LogRateLimitExceeded logs a rate limit event with a sanitized email.
func LogRateLimitExceeded(email, ip, reason string) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Str("email", SanitizeEmail(email)).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Login rate limit exceeded")
}
