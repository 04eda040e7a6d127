package forecast

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"moodcast/internal/logging"
	"moodcast/internal/pattern"
	"moodcast/pkg/types"
)

// Adaptive weighting and gating for contextual corrections.
const (
	// personalWeightSaturation is the entry count at which the forecast
	// trusts personal data fully and general patterns fade out entirely.
	personalWeightSaturation = 20

	// genericGateEntries gates population-level corrections: past this many
	// entries the ensemble terms already encode the user's own rhythm.
	genericGateEntries = 7

	// Occupation rhythm is only worth applying in the mid range; below it
	// the signal is too thin, above it the same-weekday term captures it.
	occupationGateMin = 3
	occupationGateMax = 10

	holidayLeadDays = 3

	genericWeekdayScale = 0.5
)

// seasonEffect is the population-level seasonal mood offset.
var seasonEffect = map[types.Season]float64{
	types.SeasonWinter: -0.3,
	types.SeasonSpring: 0.2,
	types.SeasonSummer: 0.3,
	types.SeasonAutumn: -0.1,
}

// weatherEffect is the population-level daily weather offset. Conditions
// missing from the table are neutral.
var weatherEffect = map[types.WeatherCondition]float64{
	types.WeatherClear: 0.2,
	types.WeatherRain:  -0.2,
	types.WeatherStorm: -0.3,
	types.WeatherSnow:  0.1,
}

// occupationWeekdayEffect captures the typical weekly rhythm per occupation
// category. Small nudges only; personal history outranks all of this.
var occupationWeekdayEffect = map[types.OccupationType]map[time.Weekday]float64{
	types.OccupationOffice: {
		time.Sunday:   -0.2,
		time.Monday:   -0.4,
		time.Tuesday:  -0.1,
		time.Thursday: 0.1,
		time.Friday:   0.5,
		time.Saturday: 0.3,
	},
	types.OccupationStudent: {
		time.Sunday:   -0.3,
		time.Monday:   -0.3,
		time.Friday:   0.4,
		time.Saturday: 0.4,
	},
	types.OccupationShift: {
		time.Friday: 0.1,
	},
	types.OccupationFreelance: {
		time.Sunday: -0.1,
		time.Monday: 0.1,
	},
	types.OccupationRemote: {
		time.Monday: -0.2,
		time.Friday: 0.3,
	},
	types.OccupationRetired: {},
}

// Adjuster layers contextual corrections on top of the base estimate,
// weighting general population patterns against the user's own learned
// patterns by how much history exists.
type Adjuster struct {
	patterns pattern.Store
	logger   logging.Logger
}

// NewAdjuster creates a contextual adjuster. The pattern store may be nil,
// in which case only general corrections apply.
func NewAdjuster(patternStore pattern.Store, logger logging.Logger) *Adjuster {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Adjuster{patterns: patternStore, logger: logger}
}

// AdjustInput carries everything one adjustment pass needs.
type AdjustInput struct {
	Base       float64
	Target     time.Time
	Factors    *types.ContextualFactors
	EntryCount int
	// RecentContent is the journal text from the three days before the
	// target, scanned for trigger keywords.
	RecentContent []string
}

// Adjust applies the correction stack and returns the adjusted estimate,
// the data-volume confidence, and one contributing factor per applied
// correction. Store failures degrade to skipping the personal corrections;
// the adjuster never fails a forecast.
func (a *Adjuster) Adjust(ctx context.Context, in AdjustInput) (float64, float64, []types.ContributingFactor) {
	personalWeight := math.Min(1, float64(in.EntryCount)/personalWeightSaturation)
	generalWeight := 1 - personalWeight

	adjusted := in.Base
	var factors []types.ContributingFactor
	apply := func(f types.ContributingFactor) {
		if f.Impact == 0 {
			return
		}
		adjusted += f.Impact
		factors = append(factors, f)
	}

	if in.EntryCount < genericGateEntries && in.Factors != nil {
		for _, f := range a.generalCorrections(in.Factors, generalWeight) {
			apply(f)
		}
	}

	if a.patterns != nil {
		for _, f := range a.personalCorrections(ctx, in, personalWeight) {
			apply(f)
		}
	}

	return types.ClampMood(adjusted), DataConfidence(in.EntryCount), factors
}

// generalCorrections produces the population-level corrections: season,
// generic weekday, holiday proximity, and weather. All scale with
// generalWeight so they fade as personal history accumulates.
func (a *Adjuster) generalCorrections(cf *types.ContextualFactors, generalWeight float64) []types.ContributingFactor {
	var out []types.ContributingFactor

	if effect, ok := seasonEffect[cf.Season]; ok {
		out = append(out, types.ContributingFactor{
			Name:       "seasonal",
			Impact:     effect * generalWeight,
			Reason:     fmt.Sprintf("general %s effect", cf.Season),
			Confidence: generalWeight,
		})
	}

	out = append(out, types.ContributingFactor{
		Name:       "weekday_rhythm",
		Impact:     DefaultWeekdayVariation(cf.Weekday) * genericWeekdayScale * generalWeight,
		Reason:     fmt.Sprintf("general %s effect", cf.Weekday),
		Confidence: generalWeight,
	})

	if holiday := holidayCorrection(cf, generalWeight); holiday != nil {
		out = append(out, *holiday)
	}

	if cf.Weather != nil {
		if effect, ok := weatherEffect[cf.Weather.Condition]; ok {
			out = append(out, types.ContributingFactor{
				Name:       "weather",
				Impact:     effect * generalWeight,
				Reason:     fmt.Sprintf("%s weather expected", cf.Weather.Condition),
				Confidence: generalWeight,
			})
		}
	}

	return out
}

// holidayCorrection boosts the day itself and, less so, the run-up.
func holidayCorrection(cf *types.ContextualFactors, generalWeight float64) *types.ContributingFactor {
	if cf.IsHoliday() {
		return &types.ContributingFactor{
			Name:       "holiday",
			Impact:     0.4 * generalWeight,
			Reason:     cf.Holiday.Name,
			Confidence: generalWeight,
		}
	}
	if cf.NextHoliday != nil && cf.DaysToNextHoliday > 0 && cf.DaysToNextHoliday <= holidayLeadDays {
		return &types.ContributingFactor{
			Name:       "holiday",
			Impact:     0.2 * generalWeight,
			Reason:     fmt.Sprintf("%d days before %s", cf.DaysToNextHoliday, cf.NextHoliday.Name),
			Confidence: generalWeight,
		}
	}
	return nil
}

// personalCorrections applies learned patterns: significant dates always,
// occupation rhythm only in the mid-history range, and content triggers
// when their keywords showed up in the recent window.
func (a *Adjuster) personalCorrections(ctx context.Context, in AdjustInput, personalWeight float64) []types.ContributingFactor {
	var out []types.ContributingFactor

	dated, err := a.patterns.PatternsForDate(ctx, in.Target)
	if err != nil {
		a.logger.WarnContext(ctx, "Pattern lookup failed, adjusting without personal dates", "error", err)
	}
	for _, p := range dated {
		// Weekday preferences are already encoded by the same-weekday
		// ensemble term; applying them again would double-count.
		if p.Type != types.PatternSignificantDate {
			continue
		}
		out = append(out, types.ContributingFactor{
			Name:       "significant_date",
			Impact:     p.MoodImpact * personalWeight,
			Reason:     p.Description,
			Confidence: p.Confidence,
		})
	}

	if in.EntryCount >= occupationGateMin && in.EntryCount < occupationGateMax {
		if f := a.occupationCorrection(ctx, in.Target, personalWeight); f != nil {
			out = append(out, *f)
		}
	}

	out = append(out, a.triggerCorrections(ctx, in.RecentContent, personalWeight)...)

	return out
}

func (a *Adjuster) occupationCorrection(ctx context.Context, target time.Time, personalWeight float64) *types.ContributingFactor {
	occupation, err := a.patterns.Occupation(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "Occupation lookup failed", "error", err)
		return nil
	}
	if occupation == types.OccupationUnknown {
		return nil
	}
	effect := occupationWeekdayEffect[occupation][target.Weekday()]
	if effect == 0 {
		return nil
	}
	return &types.ContributingFactor{
		Name:       "occupation",
		Impact:     effect * personalWeight,
		Reason:     fmt.Sprintf("weekly rhythm for %s work", occupation),
		Confidence: personalWeight,
	}
}

// triggerCorrections scans the recent content window for learned trigger
// keywords. Each pattern fires at most once per forecast.
func (a *Adjuster) triggerCorrections(ctx context.Context, recentContent []string, personalWeight float64) []types.ContributingFactor {
	if len(recentContent) == 0 {
		return nil
	}
	triggers, err := a.patterns.TriggerPatterns(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "Trigger lookup failed, adjusting without triggers", "error", err)
		return nil
	}
	if len(triggers) == 0 {
		return nil
	}

	haystack := strings.ToLower(strings.Join(recentContent, "\n"))

	var out []types.ContributingFactor
	for _, p := range triggers {
		keyword, found := firstKeywordMatch(haystack, p.Keywords)
		if !found {
			continue
		}
		out = append(out, types.ContributingFactor{
			Name:       "trigger",
			Impact:     p.MoodImpact * personalWeight,
			Reason:     fmt.Sprintf("recent mention of %q", keyword),
			Confidence: p.Confidence,
		})
	}
	return out
}

func firstKeywordMatch(haystack string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return kw, true
		}
	}
	return "", false
}
