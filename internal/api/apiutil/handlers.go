package apiutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/api/authz"
	"github.com/soulparking/dashboard/internal/models"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of a validation failure.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// IsJSONRequest reports whether the request body is JSON.
func IsJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// FirstNonEmpty returns the first value that is not blank, trimmed.
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// WriteValidationError answers 400 with the failing field when err carries one.
// It reports false when err is not a validation error.
func WriteValidationError(w http.ResponseWriter, err error) bool {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		_ = WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationErr.Message, Field: validationErr.Field})
		return true
	}
	var fieldErr FieldError
	if errors.As(err, &fieldErr) {
		_ = WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: fieldErr.Error(), Field: fieldErr.Field})
		return true
	}
	return false
}

// WriteHandlerError answers with the status and message of a HandlerError, or 500.
func WriteHandlerError(w http.ResponseWriter, r *http.Request, err error) {
	var handlerErr HandlerError
	if errors.As(err, &handlerErr) {
		if handlerErr.Err != nil && handlerErr.Status >= http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(handlerErr.Err).Msg(handlerErr.Message)
		}
		http.Error(w, handlerErr.Message, handlerErr.Status)
		return
	}
	log.Ctx(r.Context()).Error().Err(err).Msg("Unhandled request error")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// RequireAuthenticated writes 401 and returns nil when no user is signed in.
func RequireAuthenticated(w http.ResponseWriter, r *http.Request) *authz.AuthUser {
	user := authz.UserFromContext(r.Context())
	if user == nil {
		log.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("Access denied: unauthenticated")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil
	}
	return user
}

// RequireRole checks the signed-in user's role and writes the matching error response.
func RequireRole(w http.ResponseWriter, r *http.Request, role string) bool {
	logger := log.Ctx(r.Context())
	user := authz.UserFromContext(r.Context())
	if err := authz.RequireRole(r.Context(), role); err != nil {
		switch {
		case errors.Is(err, authz.ErrUnauthenticated):
			logger.Warn().Str("role", role).Msg("Role access denied: unauthenticated")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case errors.Is(err, authz.ErrForbidden):
			logEvent := logger.Warn().Str("role", role)
			if user != nil {
				logEvent = logEvent.Str("user_email", user.Email)
			}
			logEvent.Msg("Role access denied: forbidden")
			http.Error(w, "Forbidden", http.StatusForbidden)
		default:
			logger.Error().Err(err).Str("role", role).Msg("Role access denied: error")
			http.Error(w, "Failed to authorize request", http.StatusInternalServerError)
		}
		return false
	}
	return true
}

// RenderHTMLComponent renders component into a buffer and writes it with the
// given headers. On failure it logs logMessage, answers 500 with
// errorMessage and returns false.
func RenderHTMLComponent(ctx context.Context, w http.ResponseWriter, component templ.Component, headers map[string]string, logMessage, errorMessage string) bool {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg(logMessage)
		http.Error(w, errorMessage, http.StatusInternalServerError)
		return false
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to write HTML response")
		return false
	}
	return true
}

// WriteAttachment serves body as a download named filename.
func WriteAttachment(w http.ResponseWriter, contentType, filename string, body []byte) error {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(body)
	return err
}
