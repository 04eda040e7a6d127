package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodcast/pkg/types"
)

func moodEntry(t *testing.T, at time.Time, mood int) types.JournalEntry {
	t.Helper()
	e, err := types.NewJournalEntry("test entry", &mood)
	require.NoError(t, err)
	e.CreatedAt = at
	return *e
}

func TestBaseEstimateNoHistory(t *testing.T) {
	p := NewPredictor(false)

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 5.5, p.BaseEstimate(monday, nil), 1e-9)
	assert.InDelta(t, 6.6, p.BaseEstimate(friday, nil), 1e-9)
}

func TestBaseEstimateIgnoresEntriesOnTargetDate(t *testing.T) {
	p := NewPredictor(false)
	target := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday midnight

	entries := []types.JournalEntry{
		moodEntry(t, target.Add(9*time.Hour), 9), // later the same day
	}

	assert.InDelta(t, 5.5, p.BaseEstimate(target, entries), 1e-9)
}

func TestBaseEstimateSameWeekdayAndBaseline(t *testing.T) {
	p := NewPredictor(false)
	target := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC) // Monday

	entries := []types.JournalEntry{
		moodEntry(t, time.Date(2026, 3, 23, 9, 0, 0, 0, time.UTC), 8), // Monday
		moodEntry(t, time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC), 6), // Monday
		moodEntry(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), 7),  // Monday
	}

	// Same-weekday term: (8*1.0 + 6*0.85 + 7*0.7) / 2.55 = 7.0588...,
	// weight 0.55. No non-Monday entries in the last week, so the recent
	// term drops out. Baseline term: mean 7.0, weight 0.15. Renormalized:
	// (7.0588*0.55 + 7.0*0.15) / 0.70.
	assert.InDelta(t, 7.0462184874, p.BaseEstimate(target, entries), 1e-9)
}

func TestBaseEstimateRecentAndBaselineOnly(t *testing.T) {
	p := NewPredictor(false)
	target := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC) // Monday

	entries := []types.JournalEntry{
		moodEntry(t, time.Date(2026, 3, 27, 9, 0, 0, 0, time.UTC), 4), // Friday
		moodEntry(t, time.Date(2026, 3, 28, 9, 0, 0, 0, time.UTC), 6), // Saturday
		moodEntry(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 8), // Tuesday, outside the week
	}

	// Recent term: (4+6)/2 = 5, weight 0.30. Baseline: (4+6+8)/3 = 6,
	// weight 0.15. No same-weekday data: (5*0.30 + 6*0.15) / 0.45.
	assert.InDelta(t, 16.0/3.0, p.BaseEstimate(target, entries), 1e-9)
}

func TestBaseEstimateCapsSameWeekdaySamples(t *testing.T) {
	p := NewPredictor(false)
	target := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC) // Monday

	// Eight prior Mondays, newest mood 9 down to 2. Only the newest six
	// count, with recency weights 1.0, 0.85, 0.70, 0.55, 0.40 and the 0.3
	// floor: value 27.2/3.8. The four Mondays inside 30 days also form the
	// baseline term: mean 7.5.
	var entries []types.JournalEntry
	for i := 0; i < 8; i++ {
		at := target.AddDate(0, 0, -7*(i+1)).Add(9 * time.Hour)
		entries = append(entries, moodEntry(t, at, 9-i))
	}

	assert.InDelta(t, 7.2312030075, p.BaseEstimate(target, entries), 1e-9)
}

func TestBaseEstimateFallsBackToOverallMean(t *testing.T) {
	p := NewPredictor(false)
	target := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC) // Monday

	entries := []types.JournalEntry{
		moodEntry(t, target.AddDate(0, 0, -100), 4),
		moodEntry(t, target.AddDate(0, 0, -90), 8),
	}

	// Everything is older than every window, so the overall mean wins over
	// the no-history weekday default.
	assert.InDelta(t, 6.0, p.BaseEstimate(target, entries), 1e-9)
}

func TestBaseEstimateOutlierDampening(t *testing.T) {
	target := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC) // Monday

	// Nine calm days plus one crash, all inside the baseline window but
	// outside the recent week, never on a Monday. Only the baseline term
	// fires, so the dampening effect is isolated.
	offsets := []int{8, 9, 10, 11, 12, 13, 15, 16, 17}
	var entries []types.JournalEntry
	for _, off := range offsets {
		entries = append(entries, moodEntry(t, target.AddDate(0, 0, -off).Add(9*time.Hour), 6))
	}
	entries = append(entries, moodEntry(t, target.AddDate(0, 0, -18).Add(9*time.Hour), 1))

	plain := NewPredictor(false).BaseEstimate(target, entries)
	dampened := NewPredictor(true).BaseEstimate(target, entries)

	assert.InDelta(t, 5.5, plain, 1e-9)
	// The crash has z = 3.0, so it enters at weight 0.2: 54.2/9.2.
	assert.InDelta(t, 5.8913043478, dampened, 1e-9)
	assert.Greater(t, dampened, plain)
}

func TestBaseEstimateIgnoresUnscoredEntries(t *testing.T) {
	p := NewPredictor(false)
	target := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday

	unscored, err := types.NewJournalEntry("not scored yet", nil)
	require.NoError(t, err)
	unscored.CreatedAt = target.AddDate(0, 0, -1)

	assert.InDelta(t, 5.5, p.BaseEstimate(target, []types.JournalEntry{*unscored}), 1e-9)
}
