package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"moodcast/pkg/types"
)

func TestHorizonDecayValues(t *testing.T) {
	tests := []struct {
		daysAhead int
		expected  float64
	}{
		{-3, 0.85},
		{0, 0.85},
		{1, 0.85},
		{2, 0.80},
		{3, 0.75},
		{4, 0.60},
		{7, 0.45},
		{8, 0.35},
		{14, 0.23},
		{15, 0.20},
		{25, 0.10},
		{60, 0.10},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, HorizonDecay(tt.daysAhead), 1e-9, "daysAhead=%d", tt.daysAhead)
	}
}

func TestHorizonDecayNonIncreasing(t *testing.T) {
	previous := HorizonDecay(0)
	for d := 1; d <= 60; d++ {
		current := HorizonDecay(d)
		assert.LessOrEqual(t, current, previous, "decay rose at day %d", d)
		assert.GreaterOrEqual(t, current, 0.1)
		previous = current
	}
}

func TestDataConfidenceTiers(t *testing.T) {
	tests := []struct {
		count    int
		expected float64
	}{
		{0, 0.3},
		{4, 0.3},
		{5, 0.5},
		{9, 0.5},
		{10, 0.65},
		{19, 0.65},
		{20, 0.8},
		{200, 0.8},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, DataConfidence(tt.count), 1e-9, "count=%d", tt.count)
	}

	// Never decreasing as history grows.
	previous := DataConfidence(0)
	for n := 1; n <= 30; n++ {
		current := DataConfidence(n)
		assert.GreaterOrEqual(t, current, previous, "confidence dropped at n=%d", n)
		previous = current
	}
}

func TestVolatility(t *testing.T) {
	target := time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC)

	t.Run("defaults below three samples", func(t *testing.T) {
		entries := []types.JournalEntry{
			moodEntry(t, target.AddDate(0, 0, -1), 2),
			moodEntry(t, target.AddDate(0, 0, -2), 10),
		}
		assert.InDelta(t, 0.45, Volatility(target, entries), 1e-9)
	})

	t.Run("clamps wild swings to one", func(t *testing.T) {
		var entries []types.JournalEntry
		for i, mood := range []int{2, 10, 2, 10} {
			entries = append(entries, moodEntry(t, target.AddDate(0, 0, -(i+1)), mood))
		}
		assert.InDelta(t, 1.0, Volatility(target, entries), 1e-9)
	})

	t.Run("measures calm stretches", func(t *testing.T) {
		var entries []types.JournalEntry
		for i, mood := range []int{6, 6, 6, 7} {
			entries = append(entries, moodEntry(t, target.AddDate(0, 0, -(i+1)), mood))
		}
		// Population stddev of 6,6,6,7 is sqrt(0.1875).
		assert.InDelta(t, 0.2165063509, Volatility(target, entries), 1e-9)
	})

	t.Run("ignores entries on or after the target", func(t *testing.T) {
		entries := []types.JournalEntry{
			moodEntry(t, target.AddDate(0, 0, -1), 6),
			moodEntry(t, target.AddDate(0, 0, -2), 6),
			moodEntry(t, target.AddDate(0, 0, -3), 6),
			moodEntry(t, target, 1),
			moodEntry(t, target.AddDate(0, 0, 2), 10),
		}
		assert.InDelta(t, 0.0, Volatility(target, entries), 1e-9)
	})
}

func TestStability(t *testing.T) {
	assert.InDelta(t, 0.55, Stability(0.45), 1e-9)
	assert.InDelta(t, 1.0, Stability(0), 1e-9)
}

func TestBandBracketsPrediction(t *testing.T) {
	tests := []struct {
		name       string
		predicted  float64
		confidence float64
		volatility float64
	}{
		{"mid scale", 6.0, 0.8, 0.2},
		{"near floor", 2.2, 0.9, 0.0},
		{"near ceiling", 9.9, 0.3, 0.8},
		{"no confidence", 5.0, 0.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band := Band(tt.predicted, tt.confidence, tt.volatility)
			assert.LessOrEqual(t, band.Lower, tt.predicted)
			assert.GreaterOrEqual(t, band.Upper, tt.predicted)
			assert.GreaterOrEqual(t, band.Lower, types.PredictionFloor)
			assert.LessOrEqual(t, band.Upper, types.PredictionCeiling)
		})
	}

	band := Band(6.0, 0.8, 0.2)
	assert.InDelta(t, 5.48, band.Lower, 1e-9)
	assert.InDelta(t, 6.52, band.Upper, 1e-9)

	// The spread never collapses below 0.4 even at full confidence.
	tight := Band(6.0, 1.0, 0.0)
	assert.InDelta(t, 5.6, tight.Lower, 1e-9)
	assert.InDelta(t, 6.4, tight.Upper, 1e-9)
}

func TestDampeningFactor(t *testing.T) {
	tests := []struct {
		z        float64
		expected float64
	}{
		{0.0, 1.0},
		{1.5, 1.0},
		{1.6, 0.7},
		{2.0, 0.7},
		{2.1, 0.4},
		{2.5, 0.4},
		{2.6, 0.2},
		{10.0, 0.2},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, DampeningFactor(tt.z), 1e-9, "z=%.1f", tt.z)
	}
}
