package handlers

import (
	"net/http"

	"moodcast/internal/analytics"
	"moodcast/internal/api/response"
	"moodcast/internal/logging"
)

// AnalyticsHandler serves the personal analytics summary.
type AnalyticsHandler struct {
	analytics *analytics.Engine
	logger    logging.Logger
}

// NewAnalyticsHandler creates the analytics handler.
func NewAnalyticsHandler(analyticsEngine *analytics.Engine, logger logging.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &AnalyticsHandler{analytics: analyticsEngine, logger: logger}
}

// HandleSummary serves the current analytics summary, recomputing it if
// the cached one has gone stale.
func (h *AnalyticsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Analytics summary failed", "error", err)
		response.WriteInternalError(w, "Failed to compute analytics summary")
		return
	}
	response.WriteSuccess(w, summary)
}
