package selection

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/api/apiutil"
	"github.com/soulparking/dashboard/internal/daterange"
)

var (
	registry        *Registry
	defaultSpanDays = 1
	initOnce        sync.Once
)

func InitHandlers(reg *Registry, dashboardSpanDays int) {
	initOnce.Do(func() {
		registry = reg
		if dashboardSpanDays > 0 {
			defaultSpanDays = dashboardSpanDays
		}
	})
}

type rangeRequest struct {
	Preset string `json:"preset"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// RangeResponse describes a selection the way the range picker shows it.
type RangeResponse struct {
	Preset   string  `json:"preset"`
	Label    string  `json:"label"`
	From     *string `json:"from"`
	To       *string `json:"to"`
	Seed     int     `json:"seed"`
	SpanDays int     `json:"spanDays"`
}

// NewRangeResponse formats sel. Missing ends are null.
func NewRangeResponse(sel daterange.Selection, spanDays int) RangeResponse {
	resp := RangeResponse{
		Preset:   sel.Preset,
		Label:    daterange.Label(sel.Preset),
		Seed:     sel.Range.Seed(),
		SpanDays: sel.Range.SpanDays(spanDays),
	}
	if sel.Range.From != nil {
		from := sel.Range.From.Format(daterange.DateLayout)
		resp.From = &from
	}
	if sel.Range.To != nil {
		to := sel.Range.To.Format(daterange.DateLayout)
		resp.To = &to
	}
	return resp
}

// GET /api/v1/date-range
func HandleGetRange(w http.ResponseWriter, r *http.Request) {
	user := apiutil.RequireAuthenticated(w, r)
	if user == nil {
		return
	}
	if registry == nil {
		log.Ctx(r.Context()).Error().Msg("Date range registry not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sel := registry.Selection(user.SessionToken)
	if err := apiutil.WriteJSON(w, http.StatusOK, NewRangeResponse(sel, defaultSpanDays)); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write date range response")
	}
}

// PUT /api/v1/date-range
func HandleSetRange(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	user := apiutil.RequireAuthenticated(w, r)
	if user == nil {
		return
	}
	if registry == nil {
		logger.Error().Msg("Date range registry not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req rangeRequest
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
		req.Preset = apiutil.FirstNonEmpty(r.FormValue("preset"), r.FormValue("date_range"))
		req.From = r.FormValue("from")
		req.To = r.FormValue("to")
	}

	query := url.Values{}
	query.Set("date_range", req.Preset)
	query.Set("from", req.From)
	query.Set("to", req.To)

	sel, ok, err := daterange.ParseQuery(query, registry.Now())
	if err != nil {
		_ = apiutil.WriteJSON(w, http.StatusBadRequest, apiutil.ErrorResponse{Error: err.Error(), Field: "date_range"})
		return
	}
	if !ok {
		_ = apiutil.WriteJSON(w, http.StatusBadRequest, apiutil.ErrorResponse{Error: "date_range or from and to are required", Field: "date_range"})
		return
	}

	registry.Set(user.SessionToken, sel)
	logger.Info().
		Str("preset", sel.Preset).
		Str("range", sel.Range.String()).
		Msg("Date range selected")

	if err := apiutil.WriteJSON(w, http.StatusOK, NewRangeResponse(sel, defaultSpanDays)); err != nil {
		logger.Error().Err(err).Msg("Failed to write date range response")
	}
}
