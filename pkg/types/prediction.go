package types

import (
	"errors"
	"fmt"
	"time"
)

// Trend labels the direction of recent mood movement.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Valid returns true if the trend is valid.
func (tr Trend) Valid() bool {
	switch tr {
	case TrendImproving, TrendDeclining, TrendStable:
		return true
	}
	return false
}

// WeekdayStat holds per-weekday aggregates for one analytics pass.
// Rank 1 is the best weekday, 7 the hardest; ties break by stable order.
type WeekdayStat struct {
	Weekday     time.Weekday `json:"weekday"`
	AverageMood float64      `json:"average_mood"`
	SampleCount int          `json:"sample_count"`
	StdDev      float64      `json:"std_dev"`
	Rank        int          `json:"rank"`
}

// AnalyticsSummary is the output of one personal analytics pass. It is
// derived data: recomputed on demand and valid until the next pass.
type AnalyticsSummary struct {
	PersonalBaseline float64         `json:"personal_baseline"`
	Volatility       float64         `json:"volatility"`
	WeekdayStats     [7]WeekdayStat  `json:"weekday_stats"` // indexed by time.Weekday
	BestDay          time.Weekday    `json:"best_day"`
	HardestDay       time.Weekday    `json:"hardest_day"`
	Trend            Trend           `json:"trend"`
	TrendStrength    int             `json:"trend_strength"` // consecutive consistent days
	TotalEntries     int             `json:"total_entries"`
	PrimaryInsight   string          `json:"primary_insight"`
	SecondaryInsight string          `json:"secondary_insight,omitempty"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// Stat returns the weekday stat for the given weekday.
func (s *AnalyticsSummary) Stat(wd time.Weekday) WeekdayStat {
	return s.WeekdayStats[int(wd)]
}

// OutlookState is the qualitative short-term trajectory classification.
type OutlookState string

const (
	OutlookRising   OutlookState = "rising"
	OutlookSteady   OutlookState = "steady"
	OutlookEasing   OutlookState = "easing"
	OutlookVolatile OutlookState = "volatile"
)

// Valid returns true if the outlook state is valid.
func (o OutlookState) Valid() bool {
	switch o {
	case OutlookRising, OutlookSteady, OutlookEasing, OutlookVolatile:
		return true
	}
	return false
}

// MicroOutlook is the qualitative headline attached to a prediction.
type MicroOutlook struct {
	Direction OutlookState `json:"direction"`
	Headline  string       `json:"headline"`
	Summary   string       `json:"summary"`
}

// ContributingFactor names one correction that moved a forecast, with the
// signed impact it applied and why.
type ContributingFactor struct {
	Name       string  `json:"name"`
	Impact     float64 `json:"impact"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// ConfidenceBand is the plausible range around a point forecast.
type ConfidenceBand struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// MoodPrediction is the single externally consumed artifact of the
// forecasting core: one immutable forecast for one date. Never mutated
// after construction.
type MoodPrediction struct {
	Date                time.Time            `json:"date"`
	PredictedMood       float64              `json:"predicted_mood"` // clamped 2.0-10.0
	Confidence          float64              `json:"confidence"`     // 0..1
	ContributingFactors []ContributingFactor `json:"contributing_factors"`
	ComparativeScore    float64              `json:"comparative_score"` // predicted - baseline
	Band                ConfidenceBand       `json:"confidence_band"`
	Trend               Trend                `json:"trend"`
	Outlook             MicroOutlook         `json:"micro_outlook"`
	SupportSuggestion   string               `json:"support_suggestion"`
	GeneratedAt         time.Time            `json:"generated_at"`
}

// Validate checks the prediction's invariants: mood and confidence in
// domain, band bracketing the estimate.
func (mp *MoodPrediction) Validate() error {
	if mp.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if mp.PredictedMood < PredictionFloor || mp.PredictedMood > PredictionCeiling {
		return fmt.Errorf("predicted mood %.2f out of range %.1f..%.1f", mp.PredictedMood, PredictionFloor, PredictionCeiling)
	}
	if mp.Confidence < 0 || mp.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range 0..1", mp.Confidence)
	}
	if !mp.Trend.Valid() {
		return fmt.Errorf("invalid trend: %s", mp.Trend)
	}
	if !mp.Outlook.Direction.Valid() {
		return fmt.Errorf("invalid outlook direction: %s", mp.Outlook.Direction)
	}
	if mp.Band.Lower > mp.PredictedMood || mp.Band.Upper < mp.PredictedMood {
		return fmt.Errorf("band [%.2f, %.2f] does not bracket %.2f", mp.Band.Lower, mp.Band.Upper, mp.PredictedMood)
	}
	return nil
}

// ClampMood clamps a raw estimate into the prediction domain.
func ClampMood(v float64) float64 {
	if v < PredictionFloor {
		return PredictionFloor
	}
	if v > PredictionCeiling {
		return PredictionCeiling
	}
	return v
}

// ClampUnit clamps a value into 0..1.
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
