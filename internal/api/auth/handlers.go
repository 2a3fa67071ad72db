package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/api/apiutil"
	"github.com/soulparking/dashboard/internal/api/authz"
	"github.com/soulparking/dashboard/internal/api/htmx"
	"github.com/soulparking/dashboard/internal/audit"
	parkauth "github.com/soulparking/dashboard/internal/auth"
	"github.com/soulparking/dashboard/internal/db"
	"github.com/soulparking/dashboard/internal/metrics"
	"github.com/soulparking/dashboard/internal/models"
	"github.com/soulparking/dashboard/internal/ratelimit"
	authtempl "github.com/soulparking/dashboard/internal/templates/components/auth"
)

var (
	manager    *Manager
	limiter    *ratelimit.Limiter
	recorder   *audit.Recorder
	queries    *db.Queries
	trustProxy bool
	onLogout   func(token string)
	initOnce   sync.Once
)

// Deps are the collaborators the auth handlers use.
type Deps struct {
	Manager    *Manager
	Limiter    *ratelimit.Limiter
	Recorder   *audit.Recorder
	Queries    *db.Queries
	TrustProxy bool
	// OnLogout is called with the session token of a signed-out user.
	OnLogout func(token string)
}

func InitHandlers(deps Deps) {
	initOnce.Do(func() {
		manager = deps.Manager
		limiter = deps.Limiter
		recorder = deps.Recorder
		queries = deps.Queries
		trustProxy = deps.TrustProxy
		onLogout = deps.OnLogout
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// GET /login
func HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager != nil {
		if user, err := manager.UserFromRequest(w, r); err == nil && user != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := authtempl.LoginLayout().Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render login page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// POST /api/v1/auth/login
func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Session manager not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}
	email := strings.TrimSpace(req.Email)

	if email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	clientIP := ratelimit.GetClientIP(r, trustProxy)
	if limiter != nil {
		result := limiter.CheckLogin(email, clientIP)
		if !result.Allowed {
			ratelimit.LogRateLimitExceeded(email, clientIP, result.Reason)
			metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			http.Error(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
			return
		}
	}

	user, _, err := manager.Login(r.Context(), w, email, req.Password)
	if err != nil {
		if errors.Is(err, parkauth.ErrInvalidCredentials) {
			if limiter != nil {
				limiter.RecordAttempt(email, clientIP, false)
			}
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			logger.Info().Str("email", ratelimit.SanitizeEmail(email)).Msg("Login rejected")
			writeLoginFailure(w, r, email)
			return
		}
		logger.Error().Err(err).Msg("Failed to create session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if limiter != nil {
		limiter.RecordAttempt(email, clientIP, true)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	recordActivity(r, audit.ByUser(user, models.ActivityAuth, "Login", user.Email+" signed in"))
	touchUser(r, user.Email)

	logger.Info().Str("email", user.Email).Str("role", user.Role).Msg("User signed in")

	switch {
	case htmx.IsRequest(r):
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
	case apiutil.IsJSONRequest(r):
		if err := apiutil.WriteJSON(w, http.StatusOK, newUserResponse(user)); err != nil {
			logger.Error().Err(err).Msg("Failed to write login response")
		}
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// POST /api/v1/auth/logout
func HandleLogout(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if manager == nil {
		logger.Error().Msg("Session manager not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, err := manager.Logout(w, r)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to end session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if current := authz.UserFromContext(r.Context()); current != nil && onLogout != nil {
		onLogout(current.SessionToken)
	}
	if user != nil {
		recordActivity(r, audit.ByUser(*user, models.ActivityAuth, "Logout", user.Email+" signed out"))
		logger.Info().Str("email", user.Email).Msg("User signed out")
	}

	switch {
	case htmx.IsRequest(r):
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
	case apiutil.IsJSONRequest(r) || strings.Contains(r.Header.Get("Accept"), "application/json"):
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// GET /api/v1/auth/me
func HandleMe(w http.ResponseWriter, r *http.Request) {
	user := apiutil.RequireAuthenticated(w, r)
	if user == nil {
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, newUserResponse(UserFromAuthz(user))); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write user response")
	}
}

func writeLoginFailure(w http.ResponseWriter, r *http.Request, email string) {
	if htmx.IsRequest(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		if err := authtempl.LoginForm(email, parkauth.InvalidCredentialsMessage).Render(r.Context(), w); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to render login form")
		}
		return
	}
	if apiutil.IsJSONRequest(r) {
		_ = apiutil.WriteJSON(w, http.StatusUnauthorized, apiutil.ErrorResponse{Error: parkauth.InvalidCredentialsMessage})
		return
	}
	http.Error(w, parkauth.InvalidCredentialsMessage, http.StatusUnauthorized)
}

func recordActivity(r *http.Request, entry audit.Entry) {
	if recorder == nil {
		return
	}
	if _, err := recorder.Record(r.Context(), entry); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("action", entry.Action).Msg("Failed to record activity")
	}
}

func touchUser(r *http.Request, email string) {
	if queries == nil {
		return
	}
	if _, err := queries.TouchManagedUserByEmail(r.Context(), strings.ToLower(email), time.Now().Unix()); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("Failed to update last active time")
	}
}

func newUserResponse(user parkauth.User) userResponse {
	return userResponse{Email: user.Email, Name: user.Name, Role: user.Role}
}

// UserFromAuthz converts the request identity back to a session user.
func UserFromAuthz(user *authz.AuthUser) parkauth.User {
	if user == nil {
		return parkauth.User{}
	}
	return parkauth.User{Email: user.Email, Name: user.Name, Role: user.Role}
}
