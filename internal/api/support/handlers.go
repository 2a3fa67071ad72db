// Package support serves the support contact shown to signed-in users.
package support

import (
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/api/apiutil"
	"github.com/soulparking/dashboard/internal/config"
)

var (
	contact  config.SupportConfig
	initOnce sync.Once
)

// InitHandlers stores the support contact. The phone is expected in E.164
// form, which config validation guarantees.
func InitHandlers(cfg config.SupportConfig) {
	initOnce.Do(func() {
		contact = cfg
	})
}

type contactResponse struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// GET /api/v1/support
func HandleContact(w http.ResponseWriter, r *http.Request) {
	if apiutil.RequireAuthenticated(w, r) == nil {
		return
	}

	resp := contactResponse{Email: contact.Email, Phone: contact.Phone}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write support response")
	}
}
