// Package journal stores journal entries and serves the time-window reads
// the forecasting and analytics engines are built on.
package journal

import (
	"context"
	"errors"
	"time"

	"moodcast/pkg/types"
)

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("journal entry not found")

// ErrAlreadyScored is returned when SetMood targets an entry that
// already carries a score. Scores are immutable once set.
var ErrAlreadyScored = errors.New("journal entry already scored")

// Store is the journal persistence surface. All listing methods return
// entries ordered by CreatedAt ascending, timestamps in UTC.
type Store interface {
	// Put inserts or replaces an entry.
	Put(ctx context.Context, entry *types.JournalEntry) error
	// Get returns the entry with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*types.JournalEntry, error)
	// Delete removes an entry, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// SetMood backfills the sentiment score for an entry. It fails
	// with ErrAlreadyScored if the entry has one.
	SetMood(ctx context.Context, id string, mood int) error

	// ListRange returns all entries with CreatedAt in [from, to).
	ListRange(ctx context.Context, from, to time.Time) ([]types.JournalEntry, error)
	// ListScoredRange returns only mood-scored entries in [from, to).
	ListScoredRange(ctx context.Context, from, to time.Time) ([]types.JournalEntry, error)
	// AllScored returns every mood-scored entry.
	AllScored(ctx context.Context) ([]types.JournalEntry, error)
	// CountScored returns the number of mood-scored entries.
	CountScored(ctx context.Context) (int, error)

	Close() error
}
