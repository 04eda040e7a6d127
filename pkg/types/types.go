// Package types provides core data structures and type definitions
// for MoodCast, including journal entries, learned personal patterns,
// and the mood prediction result model.
package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Mood score domain. Entries are scored 1-10 by the sentiment backfill;
// predictions are clamped to the narrower 2.0-10.0 band.
const (
	MoodScaleMin = 1
	MoodScaleMax = 10

	PredictionFloor   = 2.0
	PredictionCeiling = 10.0
)

// NeutralMood is the population-level resting point used whenever there is
// no personal history to anchor on.
const NeutralMood = 6.0

// JournalEntry is a single journal record as the journaling subsystem hands
// it to us. The forecasting core only ever reads entries; Mood stays nil
// until the sentiment analyzer backfills a score.
type JournalEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Mood      *int      `json:"mood,omitempty"` // 1-10, nil until scored
	Content   string    `json:"content"`
}

// NewJournalEntry creates a journal entry with defaults. Pass a nil mood
// for entries the sentiment analyzer has not scored yet.
func NewJournalEntry(content string, mood *int) (*JournalEntry, error) {
	if content == "" {
		return nil, errors.New("content cannot be empty")
	}
	if mood != nil && (*mood < MoodScaleMin || *mood > MoodScaleMax) {
		return nil, fmt.Errorf("mood %d out of range %d-%d", *mood, MoodScaleMin, MoodScaleMax)
	}
	return &JournalEntry{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Mood:      mood,
		Content:   content,
	}, nil
}

// HasMood reports whether the entry carries a usable mood score.
func (e *JournalEntry) HasMood() bool {
	return e.Mood != nil && *e.Mood >= MoodScaleMin && *e.Mood <= MoodScaleMax
}

// MoodValue returns the mood score as a float. Callers must check HasMood first.
func (e *JournalEntry) MoodValue() float64 {
	if e.Mood == nil {
		return 0
	}
	return float64(*e.Mood)
}

// Validate checks if the journal entry is valid.
func (e *JournalEntry) Validate() error {
	if e.ID == "" {
		return errors.New("ID cannot be empty")
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created at cannot be zero")
	}
	if e.Content == "" {
		return errors.New("content cannot be empty")
	}
	if e.Mood != nil && (*e.Mood < MoodScaleMin || *e.Mood > MoodScaleMax) {
		return fmt.Errorf("mood %d out of range %d-%d", *e.Mood, MoodScaleMin, MoodScaleMax)
	}
	return nil
}

// PatternType represents the kind of learned personal pattern.
type PatternType string

const (
	// PatternOccupation captures the user's occupation category and its
	// weekly mood rhythm.
	PatternOccupation PatternType = "occupation"
	// PatternWeekdayPreference captures a personal good/bad weekday.
	PatternWeekdayPreference PatternType = "weekday_preference"
	// PatternSignificantDate captures a recurring calendar date that moves
	// the user's mood (anniversary, birthday, deadline season).
	PatternSignificantDate PatternType = "significant_date"
	// PatternRecurringTrigger captures keywords whose appearance in recent
	// journal content predicts a mood shift.
	PatternRecurringTrigger PatternType = "recurring_trigger"
)

// Valid returns true if the pattern type is valid.
func (pt PatternType) Valid() bool {
	switch pt {
	case PatternOccupation, PatternWeekdayPreference, PatternSignificantDate, PatternRecurringTrigger:
		return true
	}
	return false
}

// OccupationType represents the occupation category extracted from journal text.
type OccupationType string

const (
	OccupationOffice    OccupationType = "office"
	OccupationStudent   OccupationType = "student"
	OccupationShift     OccupationType = "shift"
	OccupationFreelance OccupationType = "freelance"
	OccupationRemote    OccupationType = "remote"
	OccupationRetired   OccupationType = "retired"
	OccupationUnknown   OccupationType = "unknown"
)

// Valid returns true if the occupation type is valid.
func (ot OccupationType) Valid() bool {
	switch ot {
	case OccupationOffice, OccupationStudent, OccupationShift, OccupationFreelance, OccupationRemote, OccupationRetired, OccupationUnknown:
		return true
	}
	return false
}

// Mood impact bounds for learned patterns.
const (
	MoodImpactMin = -3.0
	MoodImpactMax = 3.0
)

// MinPatternConfidence is the acceptance threshold below which extracted
// patterns are discarded before they ever reach a store.
const MinPatternConfidence = 0.5

// MonthDay is a recurring calendar date (month + day, no year).
type MonthDay struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// ParseMonthDay parses the "MM-DD" wire format used by the extraction contract.
func ParseMonthDay(s string) (MonthDay, error) {
	var m, d int
	if _, err := fmt.Sscanf(s, "%2d-%2d", &m, &d); err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q: %w", s, err)
	}
	md := MonthDay{Month: time.Month(m), Day: d}
	if err := md.Validate(); err != nil {
		return MonthDay{}, err
	}
	return md, nil
}

// String renders the "MM-DD" wire format.
func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// Matches reports whether the given date falls on this month-day.
func (md MonthDay) Matches(t time.Time) bool {
	return t.Month() == md.Month && t.Day() == md.Day
}

// daysInMonth ignores years, so February keeps its leap-year maximum.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Validate checks if the month-day is a plausible calendar date.
func (md MonthDay) Validate() error {
	if md.Month < time.January || md.Month > time.December {
		return fmt.Errorf("invalid month %d", int(md.Month))
	}
	if md.Day < 1 || md.Day > daysInMonth[md.Month] {
		return fmt.Errorf("invalid day %d for month %s", md.Day, md.Month)
	}
	return nil
}

// PersonalPattern is a learned, user-specific mood-impact rule. Exactly one
// discriminating field is set depending on Type: Weekday for weekday
// preferences, MonthDay for significant dates, Keywords for recurring
// triggers, Occupation for occupation patterns.
type PersonalPattern struct {
	ID          string       `json:"id"`
	Type        PatternType  `json:"type"`
	Description string       `json:"description"`
	MoodImpact  float64      `json:"mood_impact"` // signed, -3..+3
	Confidence  float64      `json:"confidence"`  // 0..1

	Weekday    *time.Weekday  `json:"weekday,omitempty"`
	MonthDay   *MonthDay      `json:"month_day,omitempty"`
	Keywords   []string       `json:"keywords,omitempty"`
	Occupation OccupationType `json:"occupation,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// NewPersonalPattern creates a pattern shell with ID and timestamps set.
// Callers fill the discriminating field and call Validate before storing.
func NewPersonalPattern(patternType PatternType, description string, moodImpact, confidence float64) (*PersonalPattern, error) {
	if !patternType.Valid() {
		return nil, fmt.Errorf("invalid pattern type: %s", patternType)
	}
	if moodImpact < MoodImpactMin || moodImpact > MoodImpactMax {
		return nil, fmt.Errorf("mood impact %.2f out of range %.1f..%.1f", moodImpact, MoodImpactMin, MoodImpactMax)
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence %.2f out of range 0..1", confidence)
	}
	now := time.Now().UTC()
	return &PersonalPattern{
		ID:          uuid.New().String(),
		Type:        patternType,
		Description: description,
		MoodImpact:  moodImpact,
		Confidence:  confidence,
		CreatedAt:   now,
		LastSeenAt:  now,
	}, nil
}

// Validate checks type, ranges, and that the discriminating field matches Type.
func (p *PersonalPattern) Validate() error {
	if p.ID == "" {
		return errors.New("ID cannot be empty")
	}
	if !p.Type.Valid() {
		return fmt.Errorf("invalid pattern type: %s", p.Type)
	}
	if p.MoodImpact < MoodImpactMin || p.MoodImpact > MoodImpactMax {
		return fmt.Errorf("mood impact %.2f out of range %.1f..%.1f", p.MoodImpact, MoodImpactMin, MoodImpactMax)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range 0..1", p.Confidence)
	}

	switch p.Type {
	case PatternWeekdayPreference:
		if p.Weekday == nil {
			return errors.New("weekday preference pattern requires a weekday")
		}
		if *p.Weekday < time.Sunday || *p.Weekday > time.Saturday {
			return fmt.Errorf("invalid weekday %d", int(*p.Weekday))
		}
	case PatternSignificantDate:
		if p.MonthDay == nil {
			return errors.New("significant date pattern requires a month-day")
		}
		if err := p.MonthDay.Validate(); err != nil {
			return err
		}
	case PatternRecurringTrigger:
		if len(p.Keywords) == 0 {
			return errors.New("recurring trigger pattern requires keywords")
		}
	case PatternOccupation:
		if !p.Occupation.Valid() || p.Occupation == OccupationUnknown {
			return fmt.Errorf("occupation pattern requires a known occupation, got %q", p.Occupation)
		}
	}
	return nil
}

// AppliesTo reports whether the pattern fires on the given date. Occupation
// patterns apply to every date; trigger patterns fire on content matches,
// not dates, so they always return false here.
func (p *PersonalPattern) AppliesTo(date time.Time) bool {
	switch p.Type {
	case PatternWeekdayPreference:
		return p.Weekday != nil && *p.Weekday == date.Weekday()
	case PatternSignificantDate:
		return p.MonthDay != nil && p.MonthDay.Matches(date)
	case PatternOccupation:
		return true
	case PatternRecurringTrigger:
		return false
	}
	return false
}

// ParseWeekdayName maps the extraction contract's English day names onto
// time.Weekday. Matching is exact and case-sensitive: the schema is
// versioned and anything else counts as a malformed item.
func ParseWeekdayName(name string) (time.Weekday, error) {
	switch name {
	case "Sunday":
		return time.Sunday, nil
	case "Monday":
		return time.Monday, nil
	case "Tuesday":
		return time.Tuesday, nil
	case "Wednesday":
		return time.Wednesday, nil
	case "Thursday":
		return time.Thursday, nil
	case "Friday":
		return time.Friday, nil
	case "Saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday name %q", name)
}
