package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternType_Valid(t *testing.T) {
	tests := []struct {
		name     string
		pt       PatternType
		expected bool
	}{
		{"valid occupation", PatternOccupation, true},
		{"valid weekday preference", PatternWeekdayPreference, true},
		{"valid significant date", PatternSignificantDate, true},
		{"valid recurring trigger", PatternRecurringTrigger, true},
		{"invalid empty", PatternType(""), false},
		{"invalid random", PatternType("random"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pt.Valid())
		})
	}
}

func TestOccupationType_Valid(t *testing.T) {
	tests := []struct {
		name     string
		ot       OccupationType
		expected bool
	}{
		{"valid office", OccupationOffice, true},
		{"valid student", OccupationStudent, true},
		{"valid shift", OccupationShift, true},
		{"valid freelance", OccupationFreelance, true},
		{"valid remote", OccupationRemote, true},
		{"valid retired", OccupationRetired, true},
		{"valid unknown", OccupationUnknown, true},
		{"invalid empty", OccupationType(""), false},
		{"invalid random", OccupationType("astronaut"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ot.Valid())
		})
	}
}

func TestParseMonthDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MonthDay
		wantErr bool
	}{
		{"valid mid-year", "06-15", MonthDay{Month: time.June, Day: 15}, false},
		{"valid january first", "01-01", MonthDay{Month: time.January, Day: 1}, false},
		{"valid december last", "12-31", MonthDay{Month: time.December, Day: 31}, false},
		{"valid leap day", "02-29", MonthDay{Month: time.February, Day: 29}, false},
		{"invalid month zero", "00-10", MonthDay{}, true},
		{"invalid month thirteen", "13-01", MonthDay{}, true},
		{"invalid day zero", "05-00", MonthDay{}, true},
		{"invalid day overflow", "04-31", MonthDay{}, true},
		{"invalid separator", "06/15", MonthDay{}, true},
		{"invalid empty", "", MonthDay{}, true},
		{"invalid garbage", "birthday", MonthDay{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonthDay_Matches(t *testing.T) {
	md := MonthDay{Month: time.June, Day: 15}

	assert.True(t, md.Matches(time.Date(2026, time.June, 15, 9, 30, 0, 0, time.UTC)))
	assert.True(t, md.Matches(time.Date(1999, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, md.Matches(time.Date(2026, time.June, 16, 0, 0, 0, 0, time.UTC)))
	assert.False(t, md.Matches(time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)))
}

func TestMonthDay_String(t *testing.T) {
	assert.Equal(t, "06-15", MonthDay{Month: time.June, Day: 15}.String())
	assert.Equal(t, "01-02", MonthDay{Month: time.January, Day: 2}.String())
	assert.Equal(t, "12-31", MonthDay{Month: time.December, Day: 31}.String())
}

func TestParseWeekdayName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Weekday
		wantErr bool
	}{
		{"monday", "Monday", time.Monday, false},
		{"sunday", "Sunday", time.Sunday, false},
		{"saturday", "Saturday", time.Saturday, false},
		{"lowercase rejected", "monday", time.Sunday, true},
		{"abbreviation rejected", "Mon", time.Sunday, true},
		{"empty rejected", "", time.Sunday, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWeekdayName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJournalEntry(t *testing.T) {
	t.Run("entry with mood", func(t *testing.T) {
		mood := 7
		entry, err := NewJournalEntry("long walk by the river", &mood)
		require.NoError(t, err)

		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, "long walk by the river", entry.Content)
		assert.True(t, entry.HasMood())
		assert.Equal(t, 7, entry.MoodValue())
		assert.False(t, entry.CreatedAt.IsZero())
		assert.Equal(t, time.UTC, entry.CreatedAt.Location())
	})

	t.Run("entry without mood", func(t *testing.T) {
		entry, err := NewJournalEntry("untracked day", nil)
		require.NoError(t, err)
		assert.False(t, entry.HasMood())
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := NewJournalEntry("", nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "content cannot be empty")
	})

	t.Run("mood below scale", func(t *testing.T) {
		mood := 0
		_, err := NewJournalEntry("rough day", &mood)
		assert.Error(t, err)
	})

	t.Run("mood above scale", func(t *testing.T) {
		mood := 11
		_, err := NewJournalEntry("great day", &mood)
		assert.Error(t, err)
	})
}

func TestJournalEntry_Validate(t *testing.T) {
	mood := 6
	valid := &JournalEntry{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Mood:      &mood,
		Content:   "ordinary tuesday",
	}

	t.Run("valid entry", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("empty ID", func(t *testing.T) {
		entry := *valid
		entry.ID = ""
		assert.Error(t, entry.Validate())
	})

	t.Run("zero timestamp", func(t *testing.T) {
		entry := *valid
		entry.CreatedAt = time.Time{}
		assert.Error(t, entry.Validate())
	})

	t.Run("empty content", func(t *testing.T) {
		entry := *valid
		entry.Content = ""
		assert.Error(t, entry.Validate())
	})

	t.Run("mood out of scale", func(t *testing.T) {
		entry := *valid
		bad := 12
		entry.Mood = &bad
		assert.Error(t, entry.Validate())
	})

	t.Run("nil mood is fine", func(t *testing.T) {
		entry := *valid
		entry.Mood = nil
		assert.NoError(t, entry.Validate())
	})
}

func TestNewPersonalPattern(t *testing.T) {
	t.Run("valid significant date pattern", func(t *testing.T) {
		md := MonthDay{Month: time.March, Day: 14}
		p, err := NewPersonalPattern(PatternSignificantDate, "late father's birthday", -1.2, 0.8)
		require.NoError(t, err)
		p.MonthDay = &md

		assert.NotEmpty(t, p.ID)
		assert.Equal(t, PatternSignificantDate, p.Type)
		assert.InDelta(t, -1.2, p.MoodImpact, 1e-9)
		assert.InDelta(t, 0.8, p.Confidence, 1e-9)
		assert.False(t, p.CreatedAt.IsZero())
		assert.NoError(t, p.Validate())
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := NewPersonalPattern(PatternType("lunar"), "x", 0.5, 0.9)
		assert.Error(t, err)
	})

	t.Run("impact out of range", func(t *testing.T) {
		_, err := NewPersonalPattern(PatternWeekdayPreference, "x", 4.5, 0.9)
		assert.Error(t, err)
	})

	t.Run("confidence out of range", func(t *testing.T) {
		_, err := NewPersonalPattern(PatternWeekdayPreference, "x", 0.5, 1.2)
		assert.Error(t, err)
	})
}

func TestPersonalPattern_Validate(t *testing.T) {
	wd := time.Friday
	md := MonthDay{Month: time.December, Day: 24}

	valid := func() *PersonalPattern {
		return &PersonalPattern{
			ID:          uuid.New().String(),
			Type:        PatternWeekdayPreference,
			Description: "fridays lift mood",
			MoodImpact:  0.9,
			Confidence:  0.7,
			Weekday:     &wd,
			CreatedAt:   time.Now().UTC(),
		}
	}

	t.Run("valid weekday pattern", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("weekday pattern without weekday", func(t *testing.T) {
		p := valid()
		p.Weekday = nil
		assert.Error(t, p.Validate())
	})

	t.Run("significant date without month day", func(t *testing.T) {
		p := valid()
		p.Type = PatternSignificantDate
		p.Weekday = nil
		assert.Error(t, p.Validate())
	})

	t.Run("significant date with month day", func(t *testing.T) {
		p := valid()
		p.Type = PatternSignificantDate
		p.Weekday = nil
		p.MonthDay = &md
		assert.NoError(t, p.Validate())
	})

	t.Run("trigger without keywords", func(t *testing.T) {
		p := valid()
		p.Type = PatternRecurringTrigger
		p.Weekday = nil
		assert.Error(t, p.Validate())
	})

	t.Run("trigger with keywords", func(t *testing.T) {
		p := valid()
		p.Type = PatternRecurringTrigger
		p.Weekday = nil
		p.Keywords = []string{"deadline", "presentation"}
		assert.NoError(t, p.Validate())
	})

	t.Run("occupation without occupation type", func(t *testing.T) {
		p := valid()
		p.Type = PatternOccupation
		p.Weekday = nil
		assert.Error(t, p.Validate())
	})

	t.Run("impact beyond bounds", func(t *testing.T) {
		p := valid()
		p.MoodImpact = -3.5
		assert.Error(t, p.Validate())
	})
}

func TestPersonalPattern_AppliesTo(t *testing.T) {
	saturday := time.Date(2026, time.June, 13, 0, 0, 0, 0, time.UTC) // a Saturday
	christmasEve := time.Date(2026, time.December, 24, 0, 0, 0, 0, time.UTC)

	t.Run("weekday pattern matches same weekday", func(t *testing.T) {
		wd := time.Saturday
		p := &PersonalPattern{Type: PatternWeekdayPreference, Weekday: &wd}
		assert.True(t, p.AppliesTo(saturday))
		assert.False(t, p.AppliesTo(christmasEve)) // a Thursday
	})

	t.Run("significant date matches month and day", func(t *testing.T) {
		md := MonthDay{Month: time.December, Day: 24}
		p := &PersonalPattern{Type: PatternSignificantDate, MonthDay: &md}
		assert.True(t, p.AppliesTo(christmasEve))
		assert.False(t, p.AppliesTo(saturday))
	})

	t.Run("occupation applies to any date", func(t *testing.T) {
		p := &PersonalPattern{Type: PatternOccupation, Occupation: OccupationOffice}
		assert.True(t, p.AppliesTo(saturday))
		assert.True(t, p.AppliesTo(christmasEve))
	})

	t.Run("trigger never date-matches directly", func(t *testing.T) {
		p := &PersonalPattern{Type: PatternRecurringTrigger, Keywords: []string{"exam"}}
		assert.False(t, p.AppliesTo(saturday))
	})
}
