package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"moodcast/internal/analytics"
	"moodcast/internal/api/response"
	"moodcast/internal/forecast"
	"moodcast/internal/journal"
	"moodcast/internal/logging"
	"moodcast/internal/websocket"
	"moodcast/pkg/types"
)

// defaultListWindowDays bounds the entry listing when the client sends
// no explicit range.
const defaultListWindowDays = 30

// EntriesHandler serves journal entry CRUD. Every write invalidates the
// derived caches and notifies websocket subscribers.
type EntriesHandler struct {
	journal   journal.Store
	analytics *analytics.Engine
	forecast  *forecast.Service
	hub       *websocket.Hub
	logger    logging.Logger
}

// NewEntriesHandler creates the journal entries handler. Analytics,
// forecast, and hub may be nil; the corresponding notifications are
// skipped.
func NewEntriesHandler(journalStore journal.Store, analyticsEngine *analytics.Engine, forecastService *forecast.Service, hub *websocket.Hub, logger logging.Logger) *EntriesHandler {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &EntriesHandler{
		journal:   journalStore,
		analytics: analyticsEngine,
		forecast:  forecastService,
		hub:       hub,
		logger:    logger,
	}
}

// CreateEntryRequest is the POST /entries payload. CreatedAt is optional
// and exists so historical journals can be imported with their original
// timestamps.
type CreateEntryRequest struct {
	Content   string     `json:"content"`
	Mood      *int       `json:"mood,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// SetMoodRequest is the PUT /entries/{id}/mood payload.
type SetMoodRequest struct {
	Mood int `json:"mood"`
}

// HandleCreate creates a journal entry.
func (h *EntriesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid request body", err.Error())
		return
	}

	entry, err := types.NewJournalEntry(req.Content, req.Mood)
	if err != nil {
		response.WriteValidationError(w, err.Error())
		return
	}
	if req.CreatedAt != nil {
		entry.CreatedAt = req.CreatedAt.UTC()
	}

	if err := h.journal.Put(r.Context(), entry); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to store entry", "error", err)
		response.WriteInternalError(w, "Failed to store entry")
		return
	}

	h.notifyWrite(r.Context(), websocket.ActionCreated, entry)
	response.WriteCreated(w, entry)
}

// HandleList lists entries in a date range, most recent last. Defaults
// to the last 30 days.
func (h *EntriesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -defaultListWindowDays)
	to := now.AddDate(0, 0, 1)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.WriteBadRequest(w, "Invalid from date, expected YYYY-MM-DD", err.Error())
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.WriteBadRequest(w, "Invalid to date, expected YYYY-MM-DD", err.Error())
			return
		}
		// The range is half-open, so include the named day.
		to = parsed.AddDate(0, 0, 1)
	}

	var (
		entries []types.JournalEntry
		err     error
	)
	if r.URL.Query().Get("scored") == "true" {
		entries, err = h.journal.ListScoredRange(r.Context(), from, to)
	} else {
		entries, err = h.journal.ListRange(r.Context(), from, to)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list entries", "error", err)
		response.WriteInternalError(w, "Failed to list entries")
		return
	}

	response.WriteSuccess(w, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// HandleGet returns one entry by ID.
func (h *EntriesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.journal.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			response.WriteNotFound(w, "Entry not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to load entry", "id", id, "error", err)
		response.WriteInternalError(w, "Failed to load entry")
		return
	}
	response.WriteSuccess(w, entry)
}

// HandleDelete removes an entry.
func (h *EntriesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.journal.Delete(r.Context(), id); err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			response.WriteNotFound(w, "Entry not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to delete entry", "id", id, "error", err)
		response.WriteInternalError(w, "Failed to delete entry")
		return
	}

	h.notifyWrite(r.Context(), websocket.ActionDeleted, &types.JournalEntry{ID: id})
	response.WriteSuccess(w, map[string]string{"id": id}, "Entry deleted")
}

// HandleSetMood backfills the sentiment score for an entry. Scores are
// immutable once set, so a second attempt conflicts.
func (h *EntriesHandler) HandleSetMood(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req SetMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid request body", err.Error())
		return
	}
	if req.Mood < types.MoodScaleMin || req.Mood > types.MoodScaleMax {
		response.WriteValidationError(w, "Mood must be between 1 and 10")
		return
	}

	if err := h.journal.SetMood(r.Context(), id, req.Mood); err != nil {
		switch {
		case errors.Is(err, journal.ErrNotFound):
			response.WriteNotFound(w, "Entry not found")
		case errors.Is(err, journal.ErrAlreadyScored):
			response.WriteConflict(w, "Entry already has a mood score")
		default:
			h.logger.ErrorContext(r.Context(), "Failed to set mood", "id", id, "error", err)
			response.WriteInternalError(w, "Failed to set mood")
		}
		return
	}

	entry, err := h.journal.Get(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to reload entry after scoring", "id", id, "error", err)
		response.WriteInternalError(w, "Failed to load entry")
		return
	}

	h.notifyWrite(r.Context(), websocket.ActionScored, entry)
	response.WriteSuccess(w, entry)
}

// notifyWrite marks derived data stale and pushes the change to live
// subscribers. Forecasts and the analytics summary both depend on the
// journal, so any write invalidates both.
func (h *EntriesHandler) notifyWrite(ctx context.Context, action string, entry *types.JournalEntry) {
	if h.analytics != nil {
		h.analytics.MarkStale(ctx)
	}
	if h.forecast != nil {
		h.forecast.Invalidate(ctx)
	}
	if h.hub != nil {
		h.hub.BroadcastEntry(action, entry)
	}
}
