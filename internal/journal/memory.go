package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"moodcast/pkg/types"
)

// MemoryStore is an in-memory journal store for tests and ephemeral runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]types.JournalEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]types.JournalEntry)}
}

// Put inserts or replaces an entry.
func (s *MemoryStore) Put(_ context.Context, entry *types.JournalEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = cloneEntry(*entry)
	return nil
}

// Get returns the entry with the given ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*types.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := cloneEntry(entry)
	return &clone, nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

// SetMood backfills the sentiment score for an entry. Scores are
// immutable once set.
func (s *MemoryStore) SetMood(_ context.Context, id string, mood int) error {
	if mood < types.MoodScaleMin || mood > types.MoodScaleMax {
		return fmt.Errorf("mood %d out of range %d-%d", mood, types.MoodScaleMin, types.MoodScaleMax)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	if entry.Mood != nil {
		return ErrAlreadyScored
	}
	m := mood
	entry.Mood = &m
	s.entries[id] = entry
	return nil
}

// ListRange returns all entries with CreatedAt in [from, to).
func (s *MemoryStore) ListRange(_ context.Context, from, to time.Time) ([]types.JournalEntry, error) {
	return s.list(func(e *types.JournalEntry) bool {
		return inRange(e.CreatedAt, from, to)
	}), nil
}

// ListScoredRange returns only mood-scored entries in [from, to).
func (s *MemoryStore) ListScoredRange(_ context.Context, from, to time.Time) ([]types.JournalEntry, error) {
	return s.list(func(e *types.JournalEntry) bool {
		return e.HasMood() && inRange(e.CreatedAt, from, to)
	}), nil
}

// AllScored returns every mood-scored entry.
func (s *MemoryStore) AllScored(_ context.Context) ([]types.JournalEntry, error) {
	return s.list(func(e *types.JournalEntry) bool {
		return e.HasMood()
	}), nil
}

// CountScored returns the number of mood-scored entries.
func (s *MemoryStore) CountScored(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for id := range s.entries {
		entry := s.entries[id]
		if entry.HasMood() {
			count++
		}
	}
	return count, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) list(keep func(*types.JournalEntry) bool) []types.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]types.JournalEntry, 0, len(s.entries))
	for id := range s.entries {
		entry := s.entries[id]
		if keep(&entry) {
			result = append(result, cloneEntry(entry))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// cloneEntry deep-copies the mood pointer so callers never alias the store.
func cloneEntry(e types.JournalEntry) types.JournalEntry {
	if e.Mood != nil {
		m := *e.Mood
		e.Mood = &m
	}
	return e
}
