package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/soulparking/dashboard/internal/api/authz"
	parkauth "github.com/soulparking/dashboard/internal/auth"
)

const (
	DefaultCookieName = "soulparking_session"
	sessionTokenBytes = 32
)

// Manager ties a browser cookie to a login session scoped by the cookie's token.
type Manager struct {
	sessions   *parkauth.SessionService
	cookieName string
	ttl        time.Duration
	secure     bool
}

type ManagerConfig struct {
	CookieName string
	TTL        time.Duration
	// Secure marks cookies HTTPS-only. Disable it for local development.
	Secure bool
}

func NewManager(sessions *parkauth.SessionService, cfg ManagerConfig) *Manager {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Manager{
		sessions:   sessions,
		cookieName: cookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
	}
}

// Login verifies the credentials, stores the user under a fresh token and sets the cookie.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, email, password string) (parkauth.User, string, error) {
	token, err := newSessionToken()
	if err != nil {
		return parkauth.User{}, "", err
	}

	user, err := m.sessions.Scoped(token).Login(ctx, email, password)
	if err != nil {
		return parkauth.User{}, "", err
	}

	cookie := &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.ttl > 0 {
		cookie.Expires = time.Now().Add(m.ttl)
		cookie.MaxAge = int(m.ttl.Seconds())
	}
	http.SetCookie(w, cookie)

	return user, token, nil
}

// Logout removes the session behind the request cookie and clears the cookie.
// It returns the user that was signed in, if any.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) (*parkauth.User, error) {
	defer m.ClearSessionCookie(w)

	token, ok := m.token(r)
	if !ok {
		return nil, nil
	}
	scoped := m.sessions.Scoped(token)
	user, err := scoped.Current(r.Context())
	if err != nil {
		return nil, err
	}
	if err := scoped.Logout(r.Context()); err != nil {
		return user, err
	}
	return user, nil
}

// UserFromRequest loads the signed-in user for the request cookie. Unknown or
// expired tokens clear the cookie and yield nil.
func (m *Manager) UserFromRequest(w http.ResponseWriter, r *http.Request) (*authz.AuthUser, error) {
	if r == nil {
		return nil, nil
	}

	token, ok := m.token(r)
	if !ok {
		return nil, nil
	}

	user, err := m.sessions.Scoped(token).Current(r.Context())
	if err != nil {
		return nil, err
	}
	if user == nil {
		m.ClearSessionCookie(w)
		return nil, nil
	}

	return &authz.AuthUser{
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		SessionToken: token,
	}, nil
}

func (m *Manager) ClearSessionCookie(w http.ResponseWriter) {
	if w == nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (m *Manager) token(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func newSessionToken() (string, error) {
	token := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(token), nil
}
