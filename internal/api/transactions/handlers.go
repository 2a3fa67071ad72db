package transactions

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/soulparking/dashboard/internal/analytics"
	"github.com/soulparking/dashboard/internal/api/apiutil"
	"github.com/soulparking/dashboard/internal/api/selection"
	"github.com/soulparking/dashboard/internal/export"
	"github.com/soulparking/dashboard/internal/metrics"
	"github.com/soulparking/dashboard/internal/transactions"
)

const (
	exportFileBase = "transactions"
	exportSheet    = "Transactions"
)

var (
	registry        *selection.Registry
	defaultSpanDays = analytics.DefaultSpanDays
	initOnce        sync.Once
)

// InitHandlers wires the range registry. dashboardSpanDays is the span
// reported for open ranges; zero keeps the default.
func InitHandlers(reg *selection.Registry, dashboardSpanDays int) {
	initOnce.Do(func() {
		registry = reg
		if dashboardSpanDays > 0 {
			defaultSpanDays = dashboardSpanDays
		}
	})
}

type listResponse struct {
	Range   selection.RangeResponse `json:"range"`
	Search  string                  `json:"search"`
	Totals  transactions.Totals     `json:"totals"`
	Records []transactions.Record   `json:"records"`
}

// GET /api/v1/transactions
func HandleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	records, resp, ok := loadRecords(w, r)
	if !ok {
		return
	}
	resp.Records = records
	resp.Totals = transactions.Summarize(records)

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		logger.Error().Err(err).Msg("Failed to write transactions response")
	}
}

// GET /api/v1/transactions/export?format=csv|xlsx
func HandleExport(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	format := strings.ToLower(apiutil.FirstNonEmpty(r.URL.Query().Get("format"), export.FormatCSV))
	contentType, err := export.ContentType(format)
	if err != nil {
		http.Error(w, "format must be csv or xlsx", http.StatusBadRequest)
		return
	}

	records, _, ok := loadRecords(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	switch format {
	case export.FormatXLSX:
		err = export.WriteXLSX(&buf, exportSheet, transactions.Columns, records)
	default:
		err = export.WriteCSV(&buf, transactions.Columns, records)
	}
	if err != nil {
		if errors.Is(err, export.ErrNoRows) {
			logger.Warn().Str("format", format).Msg("No transactions to export")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		logger.Error().Err(err).Str("format", format).Msg("Failed to export transactions")
		http.Error(w, "Failed to export transactions", http.StatusInternalServerError)
		return
	}

	filename := export.Filename(exportFileBase, registry.Now(), format)
	if err := apiutil.WriteAttachment(w, contentType, filename, buf.Bytes()); err != nil {
		logger.Error().Err(err).Msg("Failed to write export response")
		return
	}
	metrics.ExportsTotal.WithLabelValues("transactions", format).Inc()
	logger.Info().Int("rows", len(records)).Str("filename", filename).Msg("Transactions exported")
}

// loadRecords resolves the range and search text and returns the matching
// records. It writes the error response itself and reports false on failure.
func loadRecords(w http.ResponseWriter, r *http.Request) ([]transactions.Record, listResponse, bool) {
	if registry == nil {
		log.Ctx(r.Context()).Error().Msg("Transactions handlers not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, listResponse{}, false
	}

	sel, err := registry.Resolve(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, listResponse{}, false
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	records := transactions.Filter(transactions.All(), sel.Range)
	records = transactions.Search(records, search)

	return records, listResponse{
		Range:  selection.NewRangeResponse(sel, defaultSpanDays),
		Search: search,
	}, true
}
