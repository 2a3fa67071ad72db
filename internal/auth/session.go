package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultSessionKey is the key the signed-in user is stored under.
const DefaultSessionKey = "user"

// SessionService signs users in and out against a Store.
type SessionService struct {
	store       Store
	credentials *Credentials
	key         string
	ttl         time.Duration
}

// NewSessionService returns a service storing the user under DefaultSessionKey.
// A zero ttl keeps sessions until logout.
func NewSessionService(store Store, credentials *Credentials, ttl time.Duration) *SessionService {
	return &SessionService{
		store:       store,
		credentials: credentials,
		key:         DefaultSessionKey,
		ttl:         ttl,
	}
}

// Scoped returns a service whose key is suffixed with scope, such as a browser session token.
func (s *SessionService) Scoped(scope string) *SessionService {
	scoped := *s
	scoped.key = s.key + ":" + scope
	return &scoped
}

// Key returns the store key this service reads and writes.
func (s *SessionService) Key() string {
	return s.key
}

// Login checks the credentials and stores the resulting user.
func (s *SessionService) Login(ctx context.Context, email, password string) (User, error) {
	if !s.credentials.Verify(email, password) {
		return User{}, ErrInvalidCredentials
	}

	user := UserFor(email)
	payload, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("encode session user: %w", err)
	}
	if err := s.store.Put(ctx, s.key, payload, s.ttl); err != nil {
		return User{}, fmt.Errorf("store session: %w", err)
	}
	return user, nil
}

// Logout removes the stored user.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Current returns the stored user, or nil when nobody is signed in. A value
// that does not decode is discarded.
func (s *SessionService) Current(ctx context.Context) (*User, error) {
	payload, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var user User
	if err := json.Unmarshal(payload, &user); err != nil || user.Email == "" {
		log.Ctx(ctx).Warn().Str("session_key", s.key).Msg("Discarding unreadable session")
		if err := s.store.Delete(ctx, s.key); err != nil {
			return nil, fmt.Errorf("delete unreadable session: %w", err)
		}
		return nil, nil
	}
	return &user, nil
}
