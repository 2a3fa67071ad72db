package admin

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/api/apiutil"
	"github.com/soulparking/dashboard/internal/models"
)

type activityResponse struct {
	Activity []models.Activity `json:"activity"`
}

// GET /api/v1/admin/activity?type=&search=&limit=
func HandleListActivity(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if begin(w, r) == nil {
		return
	}

	query := r.URL.Query()
	limit, err := apiutil.ParseOptionalInt64Field(query.Get("limit"), "limit")
	if err != nil {
		apiutil.WriteValidationError(w, err)
		return
	}
	filter := models.ActivityFilter{
		Type:   query.Get("type"),
		Search: query.Get("search"),
		Limit:  limit,
	}
	if err := filter.Normalize(); err != nil {
		if !apiutil.WriteValidationError(w, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	rows, err := queries.ListActivity(ctx, filter.Params())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list activity")
		http.Error(w, "Failed to load activity", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, activityResponse{Activity: models.ActivitiesFromDB(rows)}); err != nil {
		logger.Error().Err(err).Msg("Failed to write activity response")
	}
}
