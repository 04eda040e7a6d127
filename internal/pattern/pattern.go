// Package pattern persists learned personal patterns and answers the
// lookups the forecasting pipeline needs: which patterns fire on a given
// date, which weekday preferences exist, which triggers to scan content
// for, and what the user's occupation looks like.
package pattern

import (
	"context"
	"errors"
	"time"

	"moodcast/pkg/types"
)

// ErrNotFound is returned when a pattern ID does not exist in the store.
var ErrNotFound = errors.New("pattern not found")

// ErrLowConfidence is returned by Put for patterns below the acceptance
// threshold. Low-confidence extractions must never reach persistence.
var ErrLowConfidence = errors.New("pattern confidence below acceptance threshold")

// Store is the persistence interface for personal patterns. Listings are
// ordered by confidence descending, then creation time, then ID, so both
// backends iterate identically.
type Store interface {
	// Put validates and upserts a pattern by ID. Patterns with
	// Confidence < types.MinPatternConfidence are rejected.
	Put(ctx context.Context, p *types.PersonalPattern) error

	// Get retrieves a pattern by ID.
	Get(ctx context.Context, id string) (*types.PersonalPattern, error)

	// Remove deletes a pattern by ID.
	Remove(ctx context.Context, id string) error

	// All returns every stored pattern.
	All(ctx context.Context) ([]types.PersonalPattern, error)

	// ListByType returns all patterns of the given type.
	ListByType(ctx context.Context, pt types.PatternType) ([]types.PersonalPattern, error)

	// PatternsForDate returns the date-addressed patterns firing on the
	// given date: significant dates matching its month-day plus weekday
	// preferences matching its weekday.
	PatternsForDate(ctx context.Context, date time.Time) ([]types.PersonalPattern, error)

	// WeekdayPatterns returns weekday-preference patterns for one weekday.
	WeekdayPatterns(ctx context.Context, weekday time.Weekday) ([]types.PersonalPattern, error)

	// TriggerPatterns returns all recurring-trigger patterns. They match
	// on journal content rather than dates, so the adjuster scans them
	// against a content window itself.
	TriggerPatterns(ctx context.Context) ([]types.PersonalPattern, error)

	// Occupation returns the highest-confidence occupation category, or
	// OccupationUnknown when no occupation pattern is stored.
	Occupation(ctx context.Context) (types.OccupationType, error)

	// Count returns the number of stored patterns.
	Count(ctx context.Context) (int, error)

	// Close releases underlying resources.
	Close() error
}

// checkPattern applies the shared Put preconditions.
func checkPattern(p *types.PersonalPattern) error {
	if p == nil {
		return errors.New("pattern cannot be nil")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Confidence < types.MinPatternConfidence {
		return ErrLowConfidence
	}
	return nil
}
