package pattern

import (
	"context"
	"sort"
	"sync"
	"time"

	"moodcast/pkg/types"
)

// MemoryStore keeps patterns in a mutex-guarded map. It is the default
// backend and the reference implementation the Postgres store must agree
// with ordering-wise.
type MemoryStore struct {
	mu       sync.RWMutex
	patterns map[string]types.PersonalPattern
}

// NewMemoryStore creates an empty in-memory pattern store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patterns: make(map[string]types.PersonalPattern),
	}
}

// clonePattern deep-copies a pattern so callers can never mutate stored state.
func clonePattern(p types.PersonalPattern) types.PersonalPattern {
	out := p
	if p.Weekday != nil {
		wd := *p.Weekday
		out.Weekday = &wd
	}
	if p.MonthDay != nil {
		md := *p.MonthDay
		out.MonthDay = &md
	}
	if p.Keywords != nil {
		out.Keywords = append([]string(nil), p.Keywords...)
	}
	return out
}

// sortPatterns orders by confidence descending, then creation time, then ID.
func sortPatterns(ps []types.PersonalPattern) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Confidence != ps[j].Confidence {
			return ps[i].Confidence > ps[j].Confidence
		}
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}

// Put validates and upserts a pattern.
func (s *MemoryStore) Put(ctx context.Context, p *types.PersonalPattern) error {
	if err := checkPattern(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[p.ID] = clonePattern(*p)
	return nil
}

// Get retrieves a pattern by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*types.PersonalPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patterns[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clonePattern(p)
	return &out, nil
}

// Remove deletes a pattern by ID.
func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patterns[id]; !ok {
		return ErrNotFound
	}
	delete(s.patterns, id)
	return nil
}

// list returns clones of all patterns passing keep, in the shared order.
func (s *MemoryStore) list(keep func(*types.PersonalPattern) bool) []types.PersonalPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.PersonalPattern, 0, len(s.patterns))
	for id := range s.patterns {
		p := s.patterns[id]
		if keep == nil || keep(&p) {
			out = append(out, clonePattern(p))
		}
	}
	sortPatterns(out)
	return out
}

// All returns every stored pattern.
func (s *MemoryStore) All(ctx context.Context) ([]types.PersonalPattern, error) {
	return s.list(nil), nil
}

// ListByType returns all patterns of the given type.
func (s *MemoryStore) ListByType(ctx context.Context, pt types.PatternType) ([]types.PersonalPattern, error) {
	return s.list(func(p *types.PersonalPattern) bool {
		return p.Type == pt
	}), nil
}

// PatternsForDate returns significant-date and weekday patterns firing on date.
func (s *MemoryStore) PatternsForDate(ctx context.Context, date time.Time) ([]types.PersonalPattern, error) {
	return s.list(func(p *types.PersonalPattern) bool {
		switch p.Type {
		case types.PatternSignificantDate, types.PatternWeekdayPreference:
			return p.AppliesTo(date)
		}
		return false
	}), nil
}

// WeekdayPatterns returns weekday-preference patterns for one weekday.
func (s *MemoryStore) WeekdayPatterns(ctx context.Context, weekday time.Weekday) ([]types.PersonalPattern, error) {
	return s.list(func(p *types.PersonalPattern) bool {
		return p.Type == types.PatternWeekdayPreference && p.Weekday != nil && *p.Weekday == weekday
	}), nil
}

// TriggerPatterns returns all recurring-trigger patterns.
func (s *MemoryStore) TriggerPatterns(ctx context.Context) ([]types.PersonalPattern, error) {
	return s.ListByType(ctx, types.PatternRecurringTrigger)
}

// Occupation returns the highest-confidence occupation category.
func (s *MemoryStore) Occupation(ctx context.Context) (types.OccupationType, error) {
	occ, err := s.ListByType(ctx, types.PatternOccupation)
	if err != nil {
		return types.OccupationUnknown, err
	}
	if len(occ) == 0 {
		return types.OccupationUnknown, nil
	}
	return occ[0].Occupation, nil
}

// Count returns the number of stored patterns.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patterns), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
