package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodcast/internal/cache"
	"moodcast/internal/journal"
	"moodcast/internal/pattern"
	"moodcast/pkg/types"
)

func seedEntries(t *testing.T, store journal.Store, count int) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		entry := entryAt(t, now.AddDate(0, 0, -i), 5+i%3)
		require.NoError(t, store.Put(ctx, &entry))
	}
}

func TestEngineSummaryCachesUntilMarkedStale(t *testing.T) {
	ctx := context.Background()
	journalStore := journal.NewMemoryStore()
	defer journalStore.Close()
	c := cache.NewMemory(nil)
	defer c.Close()

	seedEntries(t, journalStore, 5)
	engine := NewEngine(journalStore, nil, c, time.Minute, nil)

	first, err := engine.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, first.TotalEntries)

	// A new entry without invalidation is invisible inside the window.
	extra := entryAt(t, time.Now().UTC(), 8)
	require.NoError(t, journalStore.Put(ctx, &extra))

	second, err := engine.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	engine.MarkStale(ctx)

	third, err := engine.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, third.TotalEntries)
}

func TestEngineSummaryWithoutCache(t *testing.T) {
	ctx := context.Background()
	journalStore := journal.NewMemoryStore()
	defer journalStore.Close()

	seedEntries(t, journalStore, 4)
	engine := NewEngine(journalStore, nil, nil, 0, nil)

	first, err := engine.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, first.TotalEntries)

	extra := entryAt(t, time.Now().UTC(), 8)
	require.NoError(t, journalStore.Put(ctx, &extra))

	second, err := engine.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, second.TotalEntries)
}

func TestEngineSummaryUsesPatternForInsight(t *testing.T) {
	ctx := context.Background()
	journalStore := journal.NewMemoryStore()
	defer journalStore.Close()
	patternStore := pattern.NewMemoryStore()
	defer patternStore.Close()

	seedEntries(t, journalStore, 4)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Weekday()
	p, err := types.NewPersonalPattern(types.PatternWeekdayPreference, "Team planning day", -0.8, 0.7)
	require.NoError(t, err)
	p.Weekday = &tomorrow
	require.NoError(t, patternStore.Put(ctx, p))

	engine := NewEngine(journalStore, patternStore, nil, 0, nil)

	summary, err := engine.Summary(ctx)
	require.NoError(t, err)
	assert.Contains(t, summary.PrimaryInsight, "Team planning day")
}
