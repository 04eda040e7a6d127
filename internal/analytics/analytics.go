// Package analytics derives per-user mood statistics from the journal:
// personal baseline, weekday ranking, trend detection, and the short
// insight strings surfaced to the user. Summaries are cached and marked
// stale whenever journal data changes.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"moodcast/internal/cache"
	"moodcast/internal/journal"
	"moodcast/internal/logging"
	"moodcast/internal/pattern"
	"moodcast/pkg/types"
)

const summaryCacheKey = "analytics:summary"

// Engine computes analytics summaries over the journal.
type Engine struct {
	journal  journal.Store
	patterns pattern.Store
	cache    cache.Cache
	ttl      time.Duration
	logger   logging.Logger
}

// NewEngine wires the analytics engine. The pattern store may be nil when
// pattern learning is disabled; insights then skip pattern phrasing. A nil
// cache disables summary caching.
func NewEngine(journalStore journal.Store, patternStore pattern.Store, c cache.Cache, ttl time.Duration, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Engine{
		journal:  journalStore,
		patterns: patternStore,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
	}
}

// Summary returns the current analytics pass, serving a cached copy while
// fresh. Repeated calls inside the freshness window return identical
// summaries, generation time included.
func (e *Engine) Summary(ctx context.Context) (*types.AnalyticsSummary, error) {
	if e.cache == nil {
		return e.compute(ctx)
	}

	raw, err := cache.GetOrCompute(ctx, e.cache, summaryCacheKey, e.ttl, func(ctx context.Context) ([]byte, error) {
		summary, err := e.compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(summary)
	})
	if err != nil {
		return nil, err
	}

	var summary types.AnalyticsSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode cached analytics summary: %w", err)
	}
	return &summary, nil
}

// MarkStale drops the cached summary so the next read recomputes. Called
// whenever an entry is created, rescored, or deleted.
func (e *Engine) MarkStale(ctx context.Context) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, summaryCacheKey); err != nil {
		e.logger.WarnContext(ctx, "Failed to invalidate analytics summary", "error", err)
	}
}

func (e *Engine) compute(ctx context.Context) (*types.AnalyticsSummary, error) {
	entries, err := e.journal.AllScored(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal entries: %w", err)
	}

	now := time.Now().UTC()

	var dayPatterns []types.PersonalPattern
	if e.patterns != nil {
		dayPatterns, err = e.patterns.PatternsForDate(ctx, now.AddDate(0, 0, 1))
		if err != nil {
			e.logger.WarnContext(ctx, "Failed to load patterns for insight", "error", err)
			dayPatterns = nil
		}
	}

	summary := Compute(entries, dayPatterns, now)
	e.logger.DebugContext(ctx, "Computed analytics summary",
		"entries", summary.TotalEntries,
		"trend", string(summary.Trend),
		"baseline", summary.PersonalBaseline)
	return summary, nil
}
