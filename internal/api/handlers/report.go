package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"moodcast/internal/analytics"
	"moodcast/internal/api/response"
	"moodcast/internal/forecast"
	"moodcast/internal/logging"
	"moodcast/internal/report"
)

// ReportHandler renders the weekly mood report.
type ReportHandler struct {
	analytics *analytics.Engine
	forecast  *forecast.Service
	builder   *report.Builder
	logger    logging.Logger
}

// NewReportHandler creates the report handler.
func NewReportHandler(analyticsEngine *analytics.Engine, forecastService *forecast.Service, logger logging.Logger) *ReportHandler {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &ReportHandler{
		analytics: analyticsEngine,
		forecast:  forecastService,
		builder:   report.NewBuilder(),
		logger:    logger,
	}
}

// HandleWeekly serves the report for the week starting today, as
// markdown by default or HTML with format=html. This endpoint returns a
// document rather than the JSON envelope.
func (h *ReportHandler) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.WriteBadRequest(w, err.Error())
		return
	}

	start := forecast.DateOnly(time.Now().UTC())
	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.WriteBadRequest(w, "Invalid start date, expected YYYY-MM-DD", err.Error())
			return
		}
		start = parsed
	}

	summary, err := h.analytics.Summary(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Report analytics failed", "error", err)
		response.WriteInternalError(w, "Failed to compute analytics summary")
		return
	}

	predictions, err := h.forecast.ForecastRange(r.Context(), start, weekDays)
	if err != nil {
		if errors.Is(err, forecast.ErrHorizonExceeded) {
			response.WriteBadRequest(w, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "Report forecasts failed", "error", err)
		response.WriteInternalError(w, "Failed to compute forecasts")
		return
	}

	rep := &report.WeeklyReport{
		Start:       start,
		Summary:     summary,
		Predictions: predictions,
		GeneratedAt: time.Now().UTC(),
	}

	ext := "md"
	if format == report.FormatHTML {
		ext = "html"
	}
	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", "mood-report-"+start.Format("2006-01-02")+"."+ext))

	if err := h.builder.Render(w, format, rep); err != nil {
		h.logger.ErrorContext(r.Context(), "Report rendering failed", "error", err)
		response.WriteInternalError(w, "Failed to render report")
	}
}
