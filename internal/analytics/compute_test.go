package analytics

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodcast/pkg/types"
)

func entryAt(t *testing.T, at time.Time, mood int) types.JournalEntry {
	t.Helper()
	e, err := types.NewJournalEntry("test entry", &mood)
	require.NoError(t, err)
	e.CreatedAt = at
	return *e
}

// entriesOverDays seeds one entry per day, oldest first, ending at now.
func entriesOverDays(t *testing.T, now time.Time, moods []int) []types.JournalEntry {
	t.Helper()
	entries := make([]types.JournalEntry, 0, len(moods))
	for i, mood := range moods {
		at := now.AddDate(0, 0, -(len(moods) - 1 - i))
		entries = append(entries, entryAt(t, at, mood))
	}
	return entries
}

func assertRankPermutation(t *testing.T, stats [7]types.WeekdayStat) {
	t.Helper()
	ranks := make([]int, 0, 7)
	for _, s := range stats {
		ranks = append(ranks, s.Rank)
	}
	sort.Ints(ranks)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, ranks)
}

func TestComputeEmptyEntries(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) // Tuesday

	summary := Compute(nil, nil, now)

	assert.Equal(t, 0, summary.TotalEntries)
	assert.InDelta(t, 6.0, summary.PersonalBaseline, 1e-9)
	assert.InDelta(t, 0.45, summary.Volatility, 1e-9)
	assert.Equal(t, types.TrendStable, summary.Trend)
	assert.Equal(t, 0, summary.TrendStrength)
	assertRankPermutation(t, summary.WeekdayStats)

	// All placeholders tie at 6.0, so weekday order decides.
	assert.Equal(t, time.Sunday, summary.BestDay)
	assert.Equal(t, time.Saturday, summary.HardestDay)

	assert.Equal(t, "Your mood has been steady recently.", summary.PrimaryInsight)
	assert.Empty(t, summary.SecondaryInsight)
}

func TestComputeWeekdayStats(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) // Tuesday
	entries := []types.JournalEntry{
		entryAt(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 6), // Monday
		entryAt(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), 8), // Monday
		entryAt(t, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), 4), // Wednesday
	}

	summary := Compute(entries, nil, now)

	monday := summary.Stat(time.Monday)
	assert.InDelta(t, 7.0, monday.AverageMood, 1e-9)
	assert.Equal(t, 2, monday.SampleCount)
	assert.InDelta(t, 1.0, monday.StdDev, 1e-9)
	assert.Equal(t, 1, monday.Rank)

	wednesday := summary.Stat(time.Wednesday)
	assert.InDelta(t, 4.0, wednesday.AverageMood, 1e-9)
	assert.Equal(t, 1, wednesday.SampleCount)
	assert.Zero(t, wednesday.StdDev)
	assert.Equal(t, 7, wednesday.Rank)

	// Placeholder days tie at 6.0 behind Monday, in weekday order.
	assert.Equal(t, 2, summary.Stat(time.Sunday).Rank)
	assert.Equal(t, 0, summary.Stat(time.Sunday).SampleCount)

	assert.Equal(t, time.Monday, summary.BestDay)
	assert.Equal(t, time.Wednesday, summary.HardestDay)
	assertRankPermutation(t, summary.WeekdayStats)

	// Monday has two samples and sits a full point above baseline.
	assert.Equal(t, "Mondays are usually your best day of the week.", summary.PrimaryInsight)
	// Tomorrow is the hardest day but has a single sample, so stay quiet.
	assert.Empty(t, summary.SecondaryInsight)
}

func TestComputeRanksArePermutation(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := []types.JournalEntry{
		entryAt(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 7), // Monday
		entryAt(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), 5), // Tuesday
		entryAt(t, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), 6), // Wednesday
		entryAt(t, time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC), 6), // Thursday
	}

	summary := Compute(entries, nil, now)

	assertRankPermutation(t, summary.WeekdayStats)
	assert.Equal(t, time.Monday, summary.BestDay)
	assert.Equal(t, time.Tuesday, summary.HardestDay)
}

func TestComputeTwoEntriesIsStable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := entriesOverDays(t, now, []int{3, 9})

	summary := Compute(entries, nil, now)

	assert.Equal(t, 2, summary.TotalEntries)
	assert.Equal(t, types.TrendStable, summary.Trend)
	assert.Equal(t, 0, summary.TrendStrength)
}

func TestComputeIgnoresUnscoredEntries(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := entriesOverDays(t, now, []int{3, 9})
	unscored, err := types.NewJournalEntry("no mood yet", nil)
	require.NoError(t, err)
	unscored.CreatedAt = now.AddDate(0, 0, -1)
	entries = append(entries, *unscored)

	summary := Compute(entries, nil, now)

	assert.Equal(t, 2, summary.TotalEntries)
	assert.Equal(t, types.TrendStable, summary.Trend)
}

func TestComputeTrend(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		moods        []int
		wantTrend    types.Trend
		wantStrength int
	}{
		{
			name:         "steadily improving caps the streak scan at a week",
			moods:        []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			wantTrend:    types.TrendImproving,
			wantStrength: 7,
		},
		{
			name:         "steadily declining",
			moods:        []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
			wantTrend:    types.TrendDeclining,
			wantStrength: 7,
		},
		{
			name:         "flat moods are a stable streak",
			moods:        []int{6, 6, 6, 6, 6},
			wantTrend:    types.TrendStable,
			wantStrength: 4,
		},
		{
			name:         "dip two days back breaks the streak",
			moods:        []int{5, 5, 5, 5, 9, 7, 8},
			wantTrend:    types.TrendImproving,
			wantStrength: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Compute(entriesOverDays(t, now, tt.moods), nil, now)
			assert.Equal(t, tt.wantTrend, summary.Trend)
			assert.Equal(t, tt.wantStrength, summary.TrendStrength)
		})
	}
}

func TestComputeBaselineFallsBackToAllEntries(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := []types.JournalEntry{
		entryAt(t, now.AddDate(0, 0, -20), 4),
		entryAt(t, now.AddDate(0, 0, -25), 6),
	}

	summary := Compute(entries, nil, now)

	assert.InDelta(t, 5.0, summary.PersonalBaseline, 1e-9)
	// Nothing in the trailing window, so volatility stays at its default.
	assert.InDelta(t, 0.45, summary.Volatility, 1e-9)
}

func TestComputeVolatility(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("clamped to one for wild swings", func(t *testing.T) {
		summary := Compute(entriesOverDays(t, now, []int{2, 10, 2, 10}), nil, now)
		assert.InDelta(t, 1.0, summary.Volatility, 1e-9)
	})

	t.Run("defaults below three samples", func(t *testing.T) {
		summary := Compute(entriesOverDays(t, now, []int{2, 10}), nil, now)
		assert.InDelta(t, 0.45, summary.Volatility, 1e-9)
	})
}

func TestComputePatternInsightWins(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := entriesOverDays(t, now, []int{6, 6, 6, 6})
	dayPatterns := []types.PersonalPattern{
		{Description: "Wedding anniversary", MoodImpact: 1.5, Confidence: 0.9},
	}

	summary := Compute(entries, dayPatterns, now)

	assert.Equal(t, "Tomorrow matches one of your patterns: Wedding anniversary.", summary.PrimaryInsight)
}

func TestComputeSecondaryInsightStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	entries := entriesOverDays(t, now, []int{4, 4, 4, 9, 5, 6, 7, 8})

	summary := Compute(entries, nil, now)

	require.Equal(t, types.TrendImproving, summary.Trend)
	require.Equal(t, 3, summary.TrendStrength)
	assert.Equal(t, "Your mood has been trending upward recently.", summary.PrimaryInsight)
	assert.Equal(t, "You're on a 3-day upswing.", summary.SecondaryInsight)
}

func TestComputeSecondaryInsightTomorrowBestDay(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) // Sunday, so tomorrow is Monday
	entries := []types.JournalEntry{
		entryAt(t, time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC), 9), // Monday
		entryAt(t, time.Date(2026, 2, 23, 12, 0, 0, 0, time.UTC), 9), // Monday
		entryAt(t, time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC), 6),
		entryAt(t, time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC), 6),
		entryAt(t, time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC), 6),
		entryAt(t, time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC), 6),
	}

	summary := Compute(entries, nil, now)

	require.Equal(t, time.Monday, summary.BestDay)
	require.Less(t, summary.TrendStrength, 3)
	assert.Equal(t, "Mondays are usually your best day of the week.", summary.PrimaryInsight)
	assert.Equal(t, "Tomorrow is usually one of your better days.", summary.SecondaryInsight)
}
