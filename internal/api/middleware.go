// internal/api/middleware.go
package api

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/api/auth"
	"github.com/soulparking/dashboard/internal/api/authz"
	"github.com/soulparking/dashboard/internal/api/htmx"
	"github.com/soulparking/dashboard/internal/metrics"
)

type Middleware func(http.Handler) http.Handler

func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response wrapper to capture status code
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)
		log.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request completed")
	})
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger := log.Ctx(r.Context())
				// Log the full stack trace
				stack := debug.Stack()
				logger.Error().
					Interface("error", err).
					Str("stack", string(stack)).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		// The request-scoped logger carries the id into every handler log line
		logger := log.With().Str("request_id", requestID).Logger()
		ctx := logger.WithContext(r.Context())

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithMetrics records request counts and latency per route pattern. It must
// wrap the mux directly so the matched pattern is visible after serving.
func WithMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// WithAuth loads the signed-in user from the session cookie into the context.
func WithAuth(manager *auth.Manager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := manager.UserFromRequest(w, r)
			if err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load auth session")
				next.ServeHTTP(w, r)
				return
			}

			if user != nil {
				ctx := authz.ContextWithUser(r.Context(), user)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithSession rejects requests without a signed-in user. Page requests are
// sent to the login page; API and htmx requests get 401.
func WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := authz.RequireAuthenticated(r.Context()); err != nil {
			log.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("Session required")
			switch {
			case htmx.IsRequest(r):
				w.Header().Set("HX-Redirect", "/login")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			case strings.HasPrefix(r.URL.Path, "/api/"):
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			default:
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.Ctx(r.Context())
		user := authz.UserFromContext(r.Context())
		if err := authz.RequireRole(r.Context(), authz.RoleAdmin); err != nil {
			switch {
			case errors.Is(err, authz.ErrUnauthenticated):
				logger.Warn().Msg("Admin access denied: unauthenticated")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			case errors.Is(err, authz.ErrForbidden):
				logEvent := logger.Warn()
				if user != nil {
					logEvent = logEvent.Str("user_email", user.Email)
				}
				logEvent.Msg("Admin access denied: forbidden")
				http.Error(w, "Forbidden", http.StatusForbidden)
			default:
				logger.Error().Err(err).Msg("Admin access denied: error")
				http.Error(w, "Failed to authorize request", http.StatusInternalServerError)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

// Status returns the written status, or 200 when the handler wrote nothing.
func (rw *responseWriter) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
