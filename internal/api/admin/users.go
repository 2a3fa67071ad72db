package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/api/apiutil"
	"github.com/soulparking/dashboard/internal/api/htmx"
	"github.com/soulparking/dashboard/internal/models"
)

type usersResponse struct {
	Users []models.User `json:"users"`
}

// GET /api/v1/admin/users
func HandleListUsers(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if begin(w, r) == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	search := strings.TrimSpace(r.URL.Query().Get("search"))
	rows, err := queries.ListManagedUsers(ctx, search)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list users")
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, usersResponse{Users: models.UsersFromDB(rows)}); err != nil {
		logger.Error().Err(err).Msg("Failed to write users response")
	}
}

// GET /api/v1/admin/users/{id}
func HandleGetUser(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if begin(w, r) == nil {
		return
	}

	userID, err := apiutil.IDFromPath(r, "id", "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	row, err := queries.GetManagedUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to fetch user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, models.UserFromDB(row)); err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to write user response")
	}
}

// POST /api/v1/admin/users
func HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	actor := begin(w, r)
	if actor == nil {
		return
	}

	input, err := decodeUserInput(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := input.Normalize(); err != nil {
		if !apiutil.WriteValidationError(w, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	params, err := input.CreateParams(now())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	created, err := queries.CreateManagedUser(ctx, params)
	if err != nil {
		if apiutil.IsSQLiteUniqueViolation(err) {
			http.Error(w, "A user with this email already exists", http.StatusConflict)
			return
		}
		logger.Error().Err(err).Msg("Failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	user := models.UserFromDB(created)

	record(r, actor, models.ActivityUser, "User Added", fmt.Sprintf("Added %s as %s", user.Name, user.Role))
	logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("User created")

	if htmx.IsRequest(r) {
		w.Header().Set("HX-Trigger", "refreshUsersList")
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, user); err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to write user create response")
	}
}

// PUT /api/v1/admin/users/{id}
func HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	actor := begin(w, r)
	if actor == nil {
		return
	}

	userID, err := apiutil.IDFromPath(r, "id", "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	input, err := decodeUserInput(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	existing, err := queries.GetManagedUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to fetch user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	input = input.Merge(models.UserFromDB(existing))
	if err := input.Normalize(); err != nil {
		if !apiutil.WriteValidationError(w, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	params, err := input.UpdateParams(userID, now())
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to encode user")
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	updated, err := queries.UpdateManagedUser(ctx, params)
	if err != nil {
		if apiutil.IsSQLiteUniqueViolation(err) {
			http.Error(w, "A user with this email already exists", http.StatusConflict)
			return
		}
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to update user")
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	user := models.UserFromDB(updated)

	record(r, actor, models.ActivityUser, "User Updated", fmt.Sprintf("Updated %s (%s)", user.Name, user.Role))
	logger.Info().Int64("user_id", userID).Msg("User updated")

	if htmx.IsRequest(r) {
		w.Header().Set("HX-Trigger", "refreshUsersList")
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, user); err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to write user update response")
	}
}

// DELETE /api/v1/admin/users/{id}
func HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	actor := begin(w, r)
	if actor == nil {
		return
	}

	userID, err := apiutil.IDFromPath(r, "id", "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	existing, err := queries.GetManagedUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to fetch user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	if strings.EqualFold(existing.Email, actor.Email) {
		http.Error(w, "You cannot delete your own account", http.StatusConflict)
		return
	}

	deleted, err := queries.DeleteManagedUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to delete user")
		http.Error(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}
	if deleted == 0 {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	record(r, actor, models.ActivityUser, "User Removed", fmt.Sprintf("Removed %s", existing.Name))
	logger.Info().Int64("user_id", userID).Msg("User deleted")

	if htmx.IsRequest(r) {
		w.Header().Set("HX-Trigger", "refreshUsersList")
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeUserInput(r *http.Request) (models.UserInput, error) {
	var input models.UserInput
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, &input); err != nil {
			return models.UserInput{}, errors.New("Invalid request body")
		}
		return input, nil
	}

	if err := r.ParseForm(); err != nil {
		return models.UserInput{}, errors.New("Invalid form data")
	}
	input = models.UserInput{
		Name:              r.FormValue("name"),
		Email:             r.FormValue("email"),
		Phone:             r.FormValue("phone"),
		Role:              r.FormValue("role"),
		AssignedLocations: apiutil.SplitList(r.FormValue("assignedLocations")),
		Status:            r.FormValue("status"),
	}
	return input, nil
}
