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

type locationsResponse struct {
	Locations []models.Location    `json:"locations"`
	Totals    models.NetworkTotals `json:"totals"`
}

// GET /api/v1/admin/locations
func HandleListLocations(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if begin(w, r) == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	search := strings.TrimSpace(r.URL.Query().Get("search"))
	rows, err := queries.ListLocations(ctx, search)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list locations")
		http.Error(w, "Failed to load locations", http.StatusInternalServerError)
		return
	}
	totals, err := queries.GetLocationTotals(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load location totals")
		http.Error(w, "Failed to load locations", http.StatusInternalServerError)
		return
	}

	resp := locationsResponse{
		Locations: models.LocationsFromDB(rows),
		Totals:    models.NetworkTotalsFromDB(totals),
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write locations response")
	}
}

// POST /api/v1/admin/locations
func HandleCreateLocation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	actor := begin(w, r)
	if actor == nil {
		return
	}

	input, err := decodeLocationInput(r)
	if err != nil {
		if !apiutil.WriteValidationError(w, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	if err := input.Normalize(); err != nil {
		if !apiutil.WriteValidationError(w, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	created, err := queries.CreateLocation(ctx, input.CreateParams(now()))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create location")
		http.Error(w, "Failed to create location", http.StatusInternalServerError)
		return
	}
	location := models.LocationFromDB(created)

	record(r, actor, models.ActivityLocation, "Location Added",
		fmt.Sprintf("Added %s with %d spots", location.Name, location.TotalSpots))
	logger.Info().Int64("location_id", location.ID).Msg("Location created")

	if htmx.IsRequest(r) {
		w.Header().Set("HX-Trigger", "refreshLocationsList")
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, location); err != nil {
		logger.Error().Err(err).Int64("location_id", location.ID).Msg("Failed to write location create response")
	}
}

// PUT /api/v1/admin/locations/{id}
func HandleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	actor := begin(w, r)
	if actor == nil {
		return
	}

	locationID, err := apiutil.IDFromPath(r, "id", "location")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	input, err := decodeLocationInput(r)
	if err != nil {
		if !apiutil.WriteValidationError(w, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	existing, err := queries.GetLocation(ctx, locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Location not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("location_id", locationID).Msg("Failed to fetch location")
		http.Error(w, "Failed to load location", http.StatusInternalServerError)
		return
	}

	if err := input.Normalize(); err != nil {
		if !apiutil.WriteValidationError(w, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	updated, err := queries.UpdateLocation(ctx, input.UpdateParams(locationID, now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Location not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("location_id", locationID).Msg("Failed to update location")
		http.Error(w, "Failed to update location", http.StatusInternalServerError)
		return
	}
	location := models.LocationFromDB(updated)

	record(r, actor, models.ActivityLocation, "Location Config", describeLocationChange(existing.Name, existing.TotalSpots, existing.Status, location))
	logger.Info().Int64("location_id", locationID).Msg("Location updated")

	if htmx.IsRequest(r) {
		w.Header().Set("HX-Trigger", "refreshLocationsList")
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, location); err != nil {
		logger.Error().Err(err).Int64("location_id", locationID).Msg("Failed to write location update response")
	}
}

// DELETE /api/v1/admin/locations/{id}
func HandleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	actor := begin(w, r)
	if actor == nil {
		return
	}

	locationID, err := apiutil.IDFromPath(r, "id", "location")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	existing, err := queries.GetLocation(ctx, locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Location not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("location_id", locationID).Msg("Failed to fetch location")
		http.Error(w, "Failed to load location", http.StatusInternalServerError)
		return
	}

	deleted, err := queries.DeleteLocation(ctx, locationID)
	if err != nil {
		logger.Error().Err(err).Int64("location_id", locationID).Msg("Failed to delete location")
		http.Error(w, "Failed to delete location", http.StatusInternalServerError)
		return
	}
	if deleted == 0 {
		http.Error(w, "Location not found", http.StatusNotFound)
		return
	}

	record(r, actor, models.ActivityLocation, "Location Removed", fmt.Sprintf("Removed %s", existing.Name))
	logger.Info().Int64("location_id", locationID).Msg("Location deleted")

	if htmx.IsRequest(r) {
		w.Header().Set("HX-Trigger", "refreshLocationsList")
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeLocationInput(r *http.Request) (models.LocationInput, error) {
	var input models.LocationInput
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, &input); err != nil {
			return models.LocationInput{}, errors.New("Invalid request body")
		}
		return input, nil
	}

	if err := r.ParseForm(); err != nil {
		return models.LocationInput{}, errors.New("Invalid form data")
	}
	totalSpots, err := apiutil.ParseOptionalInt64Field(r.FormValue("totalSpots"), "totalSpots")
	if err != nil {
		return models.LocationInput{}, err
	}
	occupiedSpots, err := apiutil.ParseOptionalInt64Field(r.FormValue("occupiedSpots"), "occupiedSpots")
	if err != nil {
		return models.LocationInput{}, err
	}
	revenueToday, err := apiutil.ParseOptionalInt64Field(r.FormValue("revenueToday"), "revenueToday")
	if err != nil {
		return models.LocationInput{}, err
	}
	input = models.LocationInput{
		Name:          r.FormValue("name"),
		Address:       r.FormValue("address"),
		TotalSpots:    totalSpots,
		OccupiedSpots: occupiedSpots,
		Status:        r.FormValue("status"),
		RevenueToday:  revenueToday,
	}
	return input, nil
}

// describeLocationChange summarises what an update changed for the activity log.
func describeLocationChange(previousName string, previousSpots int64, previousStatus string, updated models.Location) string {
	var changes []string
	if updated.TotalSpots != previousSpots {
		delta := updated.TotalSpots - previousSpots
		verb := "Increased"
		if delta < 0 {
			verb, delta = "Decreased", -delta
		}
		changes = append(changes, fmt.Sprintf("%s capacity for %s by %d spots", verb, updated.Name, delta))
	}
	if updated.Status != previousStatus {
		changes = append(changes, fmt.Sprintf("Changed status of %s to %q", updated.Name, updated.Status))
	}
	if updated.Name != previousName {
		changes = append(changes, fmt.Sprintf("Renamed %s to %s", previousName, updated.Name))
	}
	if len(changes) == 0 {
		return fmt.Sprintf("Updated %s", updated.Name)
	}
	return strings.Join(changes, "; ")
}
