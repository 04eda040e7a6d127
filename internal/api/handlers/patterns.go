package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"moodcast/internal/analytics"
	"moodcast/internal/api/response"
	"moodcast/internal/extraction"
	"moodcast/internal/forecast"
	"moodcast/internal/logging"
	"moodcast/internal/pattern"
	"moodcast/pkg/types"
)

// PatternsHandler serves learned personal patterns and the extraction
// pipeline that produces them.
type PatternsHandler struct {
	patterns  pattern.Store
	extractor *extraction.Extractor
	analytics *analytics.Engine
	forecast  *forecast.Service
	logger    logging.Logger
}

// NewPatternsHandler creates the patterns handler. A nil extractor
// disables POST /patterns/extract; analytics and forecast may be nil.
func NewPatternsHandler(patternStore pattern.Store, extractor *extraction.Extractor, analyticsEngine *analytics.Engine, forecastService *forecast.Service, logger logging.Logger) *PatternsHandler {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &PatternsHandler{
		patterns:  patternStore,
		extractor: extractor,
		analytics: analyticsEngine,
		forecast:  forecastService,
		logger:    logger,
	}
}

// HandleList lists stored patterns, optionally filtered by type.
func (h *PatternsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		patterns []types.PersonalPattern
		err      error
	)
	if v := r.URL.Query().Get("type"); v != "" {
		pt := types.PatternType(v)
		if !pt.Valid() {
			response.WriteBadRequest(w, "Unknown pattern type: "+v)
			return
		}
		patterns, err = h.patterns.ListByType(r.Context(), pt)
	} else {
		patterns, err = h.patterns.All(r.Context())
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list patterns", "error", err)
		response.WriteInternalError(w, "Failed to list patterns")
		return
	}

	response.WriteSuccess(w, map[string]interface{}{
		"patterns": patterns,
		"count":    len(patterns),
	})
}

// HandleDelete removes a pattern. Forecasts lean on patterns, so the
// derived caches are invalidated.
func (h *PatternsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.patterns.Remove(r.Context(), id); err != nil {
		if errors.Is(err, pattern.ErrNotFound) {
			response.WriteNotFound(w, "Pattern not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to delete pattern", "id", id, "error", err)
		response.WriteInternalError(w, "Failed to delete pattern")
		return
	}

	h.invalidateDerived(r)
	response.WriteSuccess(w, map[string]string{"id": id}, "Pattern deleted")
}

// HandleExtract runs the extraction pipeline over the recent journal
// window and ingests whatever it learned.
func (h *PatternsHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		response.WriteServiceUnavailable(w, "Pattern extraction is not configured")
		return
	}

	stats, err := h.extractor.Extract(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Pattern extraction failed", "error", err)
		response.WriteError(w, http.StatusBadGateway, response.ErrorCodeServiceUnavailable, "Pattern extraction failed", err.Error())
		return
	}

	if stats.Accepted > 0 || stats.Refreshed > 0 {
		h.invalidateDerived(r)
	}
	response.WriteSuccess(w, stats)
}

func (h *PatternsHandler) invalidateDerived(r *http.Request) {
	if h.analytics != nil {
		h.analytics.MarkStale(r.Context())
	}
	if h.forecast != nil {
		h.forecast.Invalidate(r.Context())
	}
}
