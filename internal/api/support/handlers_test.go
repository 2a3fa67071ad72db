package support

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soulparking/dashboard/internal/api/authz"
	"github.com/soulparking/dashboard/internal/config"
)

func TestHandleContact(t *testing.T) {
	prev := contact
	t.Cleanup(func() { contact = prev })
	contact = config.SupportConfig{Email: "support@soulparking.co.id", Phone: "+6281234567890"}

	t.Run("signed in", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/support", nil)
		req = req.WithContext(authz.ContextWithUser(req.Context(), &authz.AuthUser{Email: "ahmad@soulparking.co.id", Role: "staff"}))
		rec := httptest.NewRecorder()

		HandleContact(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var resp contactResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Email != "support@soulparking.co.id" || resp.Phone != "+6281234567890" {
			t.Fatalf("unexpected contact %+v", resp)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		HandleContact(rec, httptest.NewRequest(http.MethodGet, "/api/v1/support", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Code)
		}
	})
}
