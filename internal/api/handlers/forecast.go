package handlers

import (
	"errors"
	"net/http"
	"time"

	"moodcast/internal/api/response"
	"moodcast/internal/forecast"
	"moodcast/internal/logging"
	"moodcast/internal/websocket"
)

// weekDays is the span of the week view and weekly report.
const weekDays = 7

// ForecastHandler serves mood predictions.
type ForecastHandler struct {
	forecast *forecast.Service
	hub      *websocket.Hub
	logger   logging.Logger
}

// NewForecastHandler creates the forecast handler. The hub may be nil.
func NewForecastHandler(forecastService *forecast.Service, hub *websocket.Hub, logger logging.Logger) *ForecastHandler {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &ForecastHandler{
		forecast: forecastService,
		hub:      hub,
		logger:   logger,
	}
}

// HandleGet serves the forecast for one date, defaulting to tomorrow.
func (h *ForecastHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	date := forecast.DateOnly(time.Now().UTC()).AddDate(0, 0, 1)
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.WriteBadRequest(w, "Invalid date, expected YYYY-MM-DD", err.Error())
			return
		}
		date = parsed
	}

	prediction, err := h.forecast.Forecast(r.Context(), date)
	if err != nil {
		if errors.Is(err, forecast.ErrHorizonExceeded) {
			response.WriteBadRequest(w, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "Forecast failed", "date", date.Format("2006-01-02"), "error", err)
		response.WriteInternalError(w, "Failed to compute forecast")
		return
	}

	// Push the latest figure to live subscribers so dashboards stay in
	// step with whoever requested it.
	if h.hub != nil {
		h.hub.BroadcastForecast(websocket.ActionRecomputed, prediction)
	}
	response.WriteSuccess(w, prediction)
}

// HandleWeek serves seven consecutive forecasts, starting today by
// default.
func (h *ForecastHandler) HandleWeek(w http.ResponseWriter, r *http.Request) {
	start := forecast.DateOnly(time.Now().UTC())
	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.WriteBadRequest(w, "Invalid start date, expected YYYY-MM-DD", err.Error())
			return
		}
		start = parsed
	}

	predictions, err := h.forecast.ForecastRange(r.Context(), start, weekDays)
	if err != nil {
		if errors.Is(err, forecast.ErrHorizonExceeded) {
			response.WriteBadRequest(w, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "Week forecast failed", "start", start.Format("2006-01-02"), "error", err)
		response.WriteInternalError(w, "Failed to compute week forecast")
		return
	}

	response.WriteSuccess(w, map[string]interface{}{
		"start":       start.Format("2006-01-02"),
		"predictions": predictions,
		"count":       len(predictions),
	})
}
