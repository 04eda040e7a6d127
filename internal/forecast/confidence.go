package forecast

import (
	"math"
	"time"

	"moodcast/pkg/types"
)

const (
	volatilityWindowDays = 14
	defaultVolatility    = 0.45
	minBandSpread        = 0.4
)

// HorizonDecay is the confidence multiplier for forecasting daysAhead into
// the future. Non-increasing: today and tomorrow share the top value, then
// the decay steepens through the first week and flattens near the floor.
func HorizonDecay(daysAhead int) float64 {
	switch {
	case daysAhead <= 0:
		return 0.85
	case daysAhead <= 3:
		return 0.85 - 0.05*float64(daysAhead-1)
	case daysAhead <= 7:
		return 0.60 - 0.05*float64(daysAhead-4)
	case daysAhead <= 14:
		return 0.35 - 0.02*float64(daysAhead-8)
	default:
		return math.Max(0.1, 0.20-0.01*float64(daysAhead-15))
	}
}

// DataConfidence maps entry volume to a confidence tier.
func DataConfidence(entryCount int) float64 {
	switch {
	case entryCount < 5:
		return 0.3
	case entryCount < 10:
		return 0.5
	case entryCount < 20:
		return 0.65
	default:
		return 0.8
	}
}

// Volatility is the standard deviation of moods in the two weeks before
// the target, squeezed into 0..1. Below three samples it reports a
// moderate default rather than a false calm.
func Volatility(target time.Time, entries []types.JournalEntry) float64 {
	cutoff := target.AddDate(0, 0, -volatilityWindowDays)
	var moods []float64
	for _, e := range entries {
		if !e.HasMood() {
			continue
		}
		if e.CreatedAt.Before(cutoff) || !e.CreatedAt.Before(target) {
			continue
		}
		moods = append(moods, e.MoodValue())
	}
	if len(moods) < 3 {
		return defaultVolatility
	}
	return types.ClampUnit(stddev(moods) / 2.0)
}

// Stability is the inverse of volatility.
func Stability(volatility float64) float64 {
	return 1 - volatility
}

// Band is the plausible range around the estimate. The spread grows with
// uncertainty and volatility and never collapses below the minimum.
func Band(predicted, confidence, volatility float64) types.ConfidenceBand {
	spread := math.Max(minBandSpread, (1-confidence)*1.4+volatility*1.2)
	return types.ConfidenceBand{
		Lower: math.Max(types.PredictionFloor, predicted-spread),
		Upper: math.Min(types.PredictionCeiling, predicted+spread),
	}
}

// DampeningFactor down-weights an anomalous data point by its z-score.
func DampeningFactor(z float64) float64 {
	switch {
	case z > 2.5:
		return 0.2
	case z > 2.0:
		return 0.4
	case z > 1.5:
		return 0.7
	default:
		return 1.0
	}
}
