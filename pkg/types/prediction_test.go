package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrend_Valid(t *testing.T) {
	tests := []struct {
		name     string
		trend    Trend
		expected bool
	}{
		{"valid improving", TrendImproving, true},
		{"valid declining", TrendDeclining, true},
		{"valid stable", TrendStable, true},
		{"invalid empty", Trend(""), false},
		{"invalid random", Trend("sideways"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.trend.Valid())
		})
	}
}

func TestOutlookState_Valid(t *testing.T) {
	tests := []struct {
		name     string
		state    OutlookState
		expected bool
	}{
		{"valid rising", OutlookRising, true},
		{"valid steady", OutlookSteady, true},
		{"valid easing", OutlookEasing, true},
		{"valid volatile", OutlookVolatile, true},
		{"invalid empty", OutlookState(""), false},
		{"invalid random", OutlookState("plummeting"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.Valid())
		})
	}
}

func TestSeason_Valid(t *testing.T) {
	assert.True(t, SeasonSpring.Valid())
	assert.True(t, SeasonWinter.Valid())
	assert.False(t, Season("monsoon").Valid())
}

func TestMoonPhase_Valid(t *testing.T) {
	for _, phase := range []MoonPhase{
		MoonNew, MoonWaxingCrescent, MoonFirstQuarter, MoonWaxingGibbous,
		MoonFull, MoonWaningGibbous, MoonLastQuarter, MoonWaningCrescent,
	} {
		assert.True(t, phase.Valid(), "phase %s", phase)
	}
	assert.False(t, MoonPhase("blood").Valid())
}

func TestMoodPrediction_Validate(t *testing.T) {
	valid := func() *MoodPrediction {
		return &MoodPrediction{
			Date:          time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC),
			PredictedMood: 6.8,
			Confidence:    0.62,
			Band:          ConfidenceBand{Lower: 6.1, Upper: 7.5},
			Trend:         TrendStable,
			Outlook:       MicroOutlook{Direction: OutlookSteady, Headline: "Steady day ahead"},
			GeneratedAt:   time.Now().UTC(),
		}
	}

	t.Run("valid prediction", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("zero date", func(t *testing.T) {
		p := valid()
		p.Date = time.Time{}
		assert.Error(t, p.Validate())
	})

	t.Run("mood below floor", func(t *testing.T) {
		p := valid()
		p.PredictedMood = 1.5
		assert.Error(t, p.Validate())
	})

	t.Run("mood above ceiling", func(t *testing.T) {
		p := valid()
		p.PredictedMood = 10.4
		assert.Error(t, p.Validate())
	})

	t.Run("confidence out of unit range", func(t *testing.T) {
		p := valid()
		p.Confidence = 1.3
		assert.Error(t, p.Validate())
	})

	t.Run("invalid trend", func(t *testing.T) {
		p := valid()
		p.Trend = Trend("wobbling")
		assert.Error(t, p.Validate())
	})

	t.Run("band not bracketing estimate", func(t *testing.T) {
		p := valid()
		p.Band = ConfidenceBand{Lower: 7.0, Upper: 7.5}
		assert.Error(t, p.Validate())
	})
}

func TestClampMood(t *testing.T) {
	assert.InDelta(t, PredictionFloor, ClampMood(0.4), 1e-9)
	assert.InDelta(t, PredictionCeiling, ClampMood(11.2), 1e-9)
	assert.InDelta(t, 6.3, ClampMood(6.3), 1e-9)
}

func TestClampUnit(t *testing.T) {
	assert.InDelta(t, 0.0, ClampUnit(-0.2), 1e-9)
	assert.InDelta(t, 1.0, ClampUnit(1.7), 1e-9)
	assert.InDelta(t, 0.55, ClampUnit(0.55), 1e-9)
}

func TestAnalyticsSummary_Stat(t *testing.T) {
	var s AnalyticsSummary
	s.WeekdayStats[int(time.Friday)] = WeekdayStat{Weekday: time.Friday, AverageMood: 7.2, Rank: 1}

	got := s.Stat(time.Friday)
	assert.Equal(t, time.Friday, got.Weekday)
	assert.InDelta(t, 7.2, got.AverageMood, 1e-9)
	assert.Equal(t, 1, got.Rank)
}
