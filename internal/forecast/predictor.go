// Package forecast is the prediction core: a three-term ensemble estimate
// from journal history, contextual corrections with adaptive weighting, a
// confidence and volatility model, and the outlook classification that
// turns the numbers into something a person can act on.
package forecast

import (
	"math"
	"sort"
	"time"

	"moodcast/pkg/types"
)

// Windows and weights for the three-term ensemble.
const (
	sameWeekdayCap        = 6
	sameWeekdayWindowDays = 56
	recentWindowDays      = 7
	baselineWindowDays    = 30

	sameWeekdayMaxWeight = 0.55
	recentTrendWeight    = 0.30
	baselineTermWeight   = 0.15

	recencyDecayStep = 0.15
	recencyFloor     = 0.3
)

// defaultWeekdayVariation shifts the neutral default per weekday when there
// is no personal history to learn from. Population-level effects only:
// Monday dread, Friday lift.
var defaultWeekdayVariation = map[time.Weekday]float64{
	time.Sunday:    0.3,
	time.Monday:    -0.5,
	time.Tuesday:   -0.2,
	time.Wednesday: 0.0,
	time.Thursday:  0.1,
	time.Friday:    0.6,
	time.Saturday:  0.5,
}

// DefaultWeekdayVariation returns the population-level weekday offset. The
// contextual adjuster reuses the table at half strength for its generic
// weekday correction.
func DefaultWeekdayVariation(wd time.Weekday) float64 {
	return defaultWeekdayVariation[wd]
}

// Predictor computes the unadjusted mood estimate for a target date.
type Predictor struct {
	dampenOutliers bool
}

// NewPredictor creates the base predictor. With dampenOutliers set,
// anomalous historical moods are down-weighted before entering any term.
func NewPredictor(dampenOutliers bool) *Predictor {
	return &Predictor{dampenOutliers: dampenOutliers}
}

// weighted pairs an entry with its dampening weight.
type weighted struct {
	entry types.JournalEntry
	w     float64
}

// BaseEstimate blends three terms over scored entries strictly before the
// target date: the same-weekday history, the recent week excluding that
// weekday, and a thirty-day baseline. Terms without data drop out and the
// remaining weights renormalize. No history at all falls back to the
// neutral default plus the weekday table.
func (p *Predictor) BaseEstimate(target time.Time, entries []types.JournalEntry) float64 {
	history := p.history(target, entries)
	if len(history) == 0 {
		return types.NeutralMood + defaultWeekdayVariation[target.Weekday()]
	}

	var sum, weightSum float64
	addTerm := func(value, weight float64) {
		sum += value * weight
		weightSum += weight
	}

	if value, used, ok := sameWeekdayTerm(target, history); ok {
		addTerm(value, sameWeekdayMaxWeight*math.Min(1, float64(used)/3.0))
	}
	if value, ok := recentTrendTerm(target, history); ok {
		addTerm(value, recentTrendWeight)
	}
	if value, ok := baselineTerm(target, history); ok {
		addTerm(value, baselineTermWeight)
	}

	if weightSum == 0 {
		// Entries exist but all windows are empty; the overall mean is the
		// best remaining anchor.
		return weightedMean(history)
	}
	return sum / weightSum
}

// history filters to scored entries strictly before the target, newest
// first, with dampening weights attached.
func (p *Predictor) history(target time.Time, entries []types.JournalEntry) []weighted {
	var history []weighted
	for _, e := range entries {
		if e.HasMood() && e.CreatedAt.Before(target) {
			history = append(history, weighted{entry: e, w: 1})
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].entry.CreatedAt.After(history[j].entry.CreatedAt)
	})

	if p.dampenOutliers {
		applyDampening(history)
	}
	return history
}

// applyDampening rescales each entry by its anomaly score so one outlier
// day cannot drag a whole term.
func applyDampening(history []weighted) {
	if len(history) < 3 {
		return
	}
	moods := make([]float64, len(history))
	for i, h := range history {
		moods[i] = h.entry.MoodValue()
	}
	m := mean(moods)
	sd := stddev(moods)
	if sd == 0 {
		return
	}
	for i := range history {
		z := math.Abs(history[i].entry.MoodValue()-m) / sd
		history[i].w = DampeningFactor(z)
	}
}

// sameWeekdayTerm blends the most recent entries sharing the target's
// weekday within the lookback window, newest weighted hardest. Returns the
// blended value, the sample count used, and whether any sample was found.
func sameWeekdayTerm(target time.Time, history []weighted) (float64, int, bool) {
	cutoff := target.AddDate(0, 0, -sameWeekdayWindowDays)
	wd := target.Weekday()

	var sum, weightSum float64
	used := 0
	for _, h := range history {
		if used == sameWeekdayCap {
			break
		}
		if h.entry.CreatedAt.Before(cutoff) || h.entry.CreatedAt.UTC().Weekday() != wd {
			continue
		}
		w := math.Max(recencyFloor, 1.0-recencyDecayStep*float64(used)) * h.w
		sum += h.entry.MoodValue() * w
		weightSum += w
		used++
	}
	if used == 0 || weightSum == 0 {
		return 0, 0, false
	}
	return sum / weightSum, used, true
}

// recentTrendTerm averages the last week excluding the target's weekday,
// which the same-weekday term already covers.
func recentTrendTerm(target time.Time, history []weighted) (float64, bool) {
	cutoff := target.AddDate(0, 0, -recentWindowDays)
	wd := target.Weekday()

	var sum, weightSum float64
	for _, h := range history {
		if h.entry.CreatedAt.Before(cutoff) || h.entry.CreatedAt.UTC().Weekday() == wd {
			continue
		}
		sum += h.entry.MoodValue() * h.w
		weightSum += h.w
	}
	if weightSum == 0 {
		return 0, false
	}
	return sum / weightSum, true
}

// baselineTerm averages the trailing thirty days.
func baselineTerm(target time.Time, history []weighted) (float64, bool) {
	cutoff := target.AddDate(0, 0, -baselineWindowDays)

	var sum, weightSum float64
	for _, h := range history {
		if h.entry.CreatedAt.Before(cutoff) {
			continue
		}
		sum += h.entry.MoodValue() * h.w
		weightSum += h.w
	}
	if weightSum == 0 {
		return 0, false
	}
	return sum / weightSum, true
}

func weightedMean(history []weighted) float64 {
	var sum, weightSum float64
	for _, h := range history {
		sum += h.entry.MoodValue() * h.w
		weightSum += h.w
	}
	if weightSum == 0 {
		return types.NeutralMood
	}
	return sum / weightSum
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
