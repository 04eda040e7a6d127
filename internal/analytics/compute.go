package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"moodcast/pkg/types"
)

// Window sizes and thresholds for one analytics pass.
const (
	baselineWindowDays   = 14
	volatilityWindowDays = 14
	trendMaxWindow       = 5
	streakScanLimit      = 7

	trendThreshold    = 0.5
	stableStepMax     = 0.5
	insightDeviation  = 0.5
	insightMinSamples = 2
	streakMinDays     = 3
)

// defaultVolatility is reported when the trailing window holds fewer than
// three samples: moderate, unknown.
const defaultVolatility = 0.45

// Compute runs one full analytics pass over the given entries. Entries
// without a mood score are ignored. dayPatterns are the learned patterns
// applying to the next calendar day; they take precedence in the insight
// text. Pure: callers pass now, so results are reproducible.
func Compute(entries []types.JournalEntry, dayPatterns []types.PersonalPattern, now time.Time) *types.AnalyticsSummary {
	scored := scoredOnly(entries)

	summary := &types.AnalyticsSummary{
		PersonalBaseline: baseline(scored, now),
		Volatility:       volatility(scored, now),
		TotalEntries:     len(scored),
		GeneratedAt:      now,
	}

	summary.WeekdayStats = weekdayStats(scored)
	rankWeekdays(&summary.WeekdayStats)
	summary.BestDay, summary.HardestDay = bestAndHardest(summary.WeekdayStats)

	summary.Trend, summary.TrendStrength = detectTrend(scored)

	summary.PrimaryInsight = primaryInsight(summary, dayPatterns)
	summary.SecondaryInsight = secondaryInsight(summary, now)

	return summary
}

func scoredOnly(entries []types.JournalEntry) []types.JournalEntry {
	scored := make([]types.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if e.HasMood() {
			scored = append(scored, e)
		}
	}
	return scored
}

// baseline is the comparative zero point: the trailing two weeks when any
// entry lands there, else the lifetime mean, else the neutral default.
func baseline(scored []types.JournalEntry, now time.Time) float64 {
	cutoff := now.AddDate(0, 0, -baselineWindowDays)
	var windowed []float64
	for _, e := range scored {
		if !e.CreatedAt.Before(cutoff) {
			windowed = append(windowed, e.MoodValue())
		}
	}
	if len(windowed) > 0 {
		return mean(windowed)
	}
	if len(scored) > 0 {
		return meanMood(scored)
	}
	return types.NeutralMood
}

// volatility squeezes the trailing-window mood stddev into 0..1. Fewer than
// three samples reports the moderate default rather than a false calm.
func volatility(scored []types.JournalEntry, now time.Time) float64 {
	cutoff := now.AddDate(0, 0, -volatilityWindowDays)
	var windowed []float64
	for _, e := range scored {
		if !e.CreatedAt.Before(cutoff) {
			windowed = append(windowed, e.MoodValue())
		}
	}
	if len(windowed) < 3 {
		return defaultVolatility
	}
	return types.ClampUnit(stddev(windowed) / 2.0)
}

func weekdayStats(scored []types.JournalEntry) [7]types.WeekdayStat {
	var moods [7][]float64
	for _, e := range scored {
		wd := e.CreatedAt.UTC().Weekday()
		moods[wd] = append(moods[wd], e.MoodValue())
	}

	var stats [7]types.WeekdayStat
	for wd := 0; wd < 7; wd++ {
		stat := types.WeekdayStat{Weekday: time.Weekday(wd)}
		if len(moods[wd]) == 0 {
			// Neutral placeholder; the rank pass still assigns a real rank
			// so the seven ranks stay a permutation.
			stat.AverageMood = types.NeutralMood
			stat.Rank = 4
		} else {
			stat.AverageMood = mean(moods[wd])
			stat.SampleCount = len(moods[wd])
			if stat.SampleCount >= 2 {
				stat.StdDev = stddev(moods[wd])
			}
		}
		stats[wd] = stat
	}
	return stats
}

// rankWeekdays assigns ranks 1..7 by descending mean mood. Ties keep
// weekday order, Sunday first.
func rankWeekdays(stats *[7]types.WeekdayStat) {
	order := []int{0, 1, 2, 3, 4, 5, 6}
	sort.SliceStable(order, func(i, j int) bool {
		return stats[order[i]].AverageMood > stats[order[j]].AverageMood
	})
	for pos, wd := range order {
		stats[wd].Rank = pos + 1
	}
}

func bestAndHardest(stats [7]types.WeekdayStat) (best, hardest time.Weekday) {
	for _, s := range stats {
		switch s.Rank {
		case 1:
			best = s.Weekday
		case 7:
			hardest = s.Weekday
		}
	}
	return best, hardest
}

// detectTrend compares the means of two equally sized windows of the most
// recent entries and measures how long the current day-over-day streak has
// held. Fewer than three scored entries is not enough signal.
func detectTrend(scored []types.JournalEntry) (types.Trend, int) {
	if len(scored) < 3 {
		return types.TrendStable, 0
	}

	recent := make([]types.JournalEntry, len(scored))
	copy(recent, scored)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})

	window := len(recent) / 2
	if window > trendMaxWindow {
		window = trendMaxWindow
	}

	diff := meanMood(recent[:window]) - meanMood(recent[window:2*window])

	trend := types.TrendStable
	switch {
	case diff > trendThreshold:
		trend = types.TrendImproving
	case diff < -trendThreshold:
		trend = types.TrendDeclining
	}
	return trend, streakLength(recent, trend)
}

// streakLength counts consecutive day-over-day moves, newest first, that
// agree with the detected trend. The scan stops after a week or at the
// first move in the wrong direction.
func streakLength(recentFirst []types.JournalEntry, trend types.Trend) int {
	days := dailyMeans(recentFirst)

	streak := 0
	for i := 0; i+1 < len(days) && i < streakScanLimit; i++ {
		if !consistent(days[i]-days[i+1], trend) {
			break
		}
		streak++
	}
	return streak
}

func consistent(delta float64, trend types.Trend) bool {
	switch trend {
	case types.TrendImproving:
		return delta >= 0
	case types.TrendDeclining:
		return delta <= 0
	default:
		return math.Abs(delta) <= stableStepMax
	}
}

// dailyMeans collapses entries into per-day mean moods, newest day first.
// Days are UTC calendar days.
func dailyMeans(entries []types.JournalEntry) []float64 {
	type bucket struct {
		day time.Time
		sum float64
		n   int
	}
	var days []bucket
	index := make(map[time.Time]int)
	for _, e := range entries {
		day := e.CreatedAt.UTC().Truncate(24 * time.Hour)
		i, ok := index[day]
		if !ok {
			i = len(days)
			index[day] = i
			days = append(days, bucket{day: day})
		}
		days[i].sum += e.MoodValue()
		days[i].n++
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].day.After(days[j].day) })

	means := make([]float64, len(days))
	for i, b := range days {
		means[i] = b.sum / float64(b.n)
	}
	return means
}

// primaryInsight picks the headline observation: a learned pattern for the
// next day beats weekday ranking, which beats plain trend phrasing.
func primaryInsight(summary *types.AnalyticsSummary, dayPatterns []types.PersonalPattern) string {
	for _, p := range dayPatterns {
		if p.Description != "" {
			return fmt.Sprintf("Tomorrow matches one of your patterns: %s.", strings.TrimRight(p.Description, "."))
		}
	}

	best := summary.Stat(summary.BestDay)
	if best.SampleCount >= insightMinSamples && best.AverageMood-summary.PersonalBaseline >= insightDeviation {
		return fmt.Sprintf("%ss are usually your best day of the week.", summary.BestDay)
	}
	hardest := summary.Stat(summary.HardestDay)
	if hardest.SampleCount >= insightMinSamples && summary.PersonalBaseline-hardest.AverageMood >= insightDeviation {
		return fmt.Sprintf("%ss tend to be your hardest day of the week.", summary.HardestDay)
	}

	switch summary.Trend {
	case types.TrendImproving:
		return "Your mood has been trending upward recently."
	case types.TrendDeclining:
		return "Your mood has been trending downward recently."
	}
	return "Your mood has been steady recently."
}

// secondaryInsight is only surfaced for a real streak or when the next
// calendar day is a known best or hardest weekday.
func secondaryInsight(summary *types.AnalyticsSummary, now time.Time) string {
	if summary.TrendStrength >= streakMinDays {
		switch summary.Trend {
		case types.TrendImproving:
			return fmt.Sprintf("You're on a %d-day upswing.", summary.TrendStrength)
		case types.TrendDeclining:
			return fmt.Sprintf("Your mood has dipped %d days in a row.", summary.TrendStrength)
		default:
			return fmt.Sprintf("Your mood has held steady for %d days.", summary.TrendStrength)
		}
	}

	tomorrow := now.UTC().AddDate(0, 0, 1).Weekday()
	if tomorrow == summary.BestDay && summary.Stat(tomorrow).SampleCount >= insightMinSamples {
		return "Tomorrow is usually one of your better days."
	}
	if tomorrow == summary.HardestDay && summary.Stat(tomorrow).SampleCount >= insightMinSamples {
		return "Tomorrow is often a tougher day, so go easy on yourself."
	}
	return ""
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

func meanMood(entries []types.JournalEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.MoodValue()
	}
	return sum / float64(len(entries))
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
