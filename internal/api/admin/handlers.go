// Package admin serves the admin-only management API for users, locations and the activity log.
package admin

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/api/apiutil"
	apiauth "github.com/soulparking/dashboard/internal/api/auth"
	"github.com/soulparking/dashboard/internal/api/authz"
	"github.com/soulparking/dashboard/internal/audit"
	"github.com/soulparking/dashboard/internal/db"
)

const adminQueryTimeout = 5 * time.Second

var (
	queries  *db.Queries
	recorder *audit.Recorder
	now      = time.Now
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *db.Queries, rec *audit.Recorder) {
	initOnce.Do(func() {
		queries = q
		recorder = rec
	})
}

// begin checks the admin role and handler wiring. It writes the error
// response itself and returns nil when the request cannot proceed.
func begin(w http.ResponseWriter, r *http.Request) *authz.AuthUser {
	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	if !apiutil.RequireRole(w, r, authz.RoleAdmin) {
		return nil
	}
	return authz.UserFromContext(r.Context())
}

// record appends an activity entry for the acting admin. Failures are logged only.
func record(r *http.Request, actor *authz.AuthUser, activityType, action, details string) {
	if recorder == nil {
		return
	}
	entry := audit.ByUser(apiauth.UserFromAuthz(actor), activityType, action, details)
	if _, err := recorder.Record(r.Context(), entry); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("action", action).Msg("Failed to record activity")
	}
}
