package almanac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEasterSunday(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
	}{
		{2000, time.April, 23},
		{2024, time.March, 31},
		{2025, time.April, 20},
		{2026, time.April, 5},
		// Exception year: the raw formula would give April 26.
		{1981, time.April, 19},
	}

	for _, tt := range tests {
		got := easterSunday(tt.year)
		assert.Equal(t, tt.month, got.Month(), "year %d", tt.year)
		assert.Equal(t, tt.day, got.Day(), "year %d", tt.year)
	}
}

func TestNthWeekdayOfMonth(t *testing.T) {
	// Thanksgiving 2026: fourth Thursday of November.
	got := nthWeekdayOfMonth(2026, time.November, time.Thursday, 4)
	assert.Equal(t, time.Date(2026, time.November, 26, 0, 0, 0, 0, time.UTC), got)

	// Memorial Day 2026: last Monday of May.
	got = nthWeekdayOfMonth(2026, time.May, time.Monday, -1)
	assert.Equal(t, time.Date(2026, time.May, 25, 0, 0, 0, 0, time.UTC), got)

	// MLK Day 2026: third Monday of January.
	got = nthWeekdayOfMonth(2026, time.January, time.Monday, 3)
	assert.Equal(t, time.Date(2026, time.January, 19, 0, 0, 0, 0, time.UTC), got)
}

func TestParseNthWeekday(t *testing.T) {
	nth, wd, err := parseNthWeekday("4th-thursday")
	require.NoError(t, err)
	assert.Equal(t, 4, nth)
	assert.Equal(t, time.Thursday, wd)

	nth, wd, err = parseNthWeekday("last-monday")
	require.NoError(t, err)
	assert.Equal(t, -1, nth)
	assert.Equal(t, time.Monday, wd)

	_, _, err = parseNthWeekday("fifth-monday")
	assert.Error(t, err)
	_, _, err = parseNthWeekday("easter")
	assert.Error(t, err)
}

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		name     string
		locale   string
		expected string
	}{
		{name: "exact american", locale: "en-US", expected: "en-US"},
		{name: "exact british", locale: "en-GB", expected: "en-GB"},
		{name: "bare german", locale: "de", expected: "de-DE"},
		{name: "austrian german lands on german table", locale: "de-AT", expected: "de-DE"},
		{name: "unsupported falls back", locale: "fr-FR", expected: "en-US"},
		{name: "empty falls back", locale: "", expected: "en-US"},
		{name: "garbage falls back", locale: "not a locale", expected: "en-US"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchLocale(tt.locale))
		})
	}
}

func TestNewCalendar_LoadsEmbeddedTables(t *testing.T) {
	for _, locale := range []string{"en-US", "en-GB", "de-DE"} {
		cal, err := NewCalendar(locale)
		require.NoError(t, err, locale)
		assert.Equal(t, locale, cal.Locale())
	}
}

func TestCalendar_Holiday(t *testing.T) {
	cal, err := NewCalendar("en-US")
	require.NoError(t, err)

	h := cal.Holiday(time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, h)
	assert.Equal(t, "Independence Day", h.Name)
	assert.Equal(t, "en-US", h.Locale)

	// Thanksgiving is rule-computed.
	h = cal.Holiday(time.Date(2026, time.November, 26, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, h)
	assert.Equal(t, "Thanksgiving", h.Name)

	assert.Nil(t, cal.Holiday(time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC)))
}

func TestCalendar_HolidayGermanEasterChain(t *testing.T) {
	cal, err := NewCalendar("de-DE")
	require.NoError(t, err)

	// Easter Sunday 2026 is April 5; Good Friday is two days before,
	// Whit Monday fifty days after.
	h := cal.Holiday(time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, h)
	assert.Equal(t, "Karfreitag", h.Name)

	h = cal.Holiday(time.Date(2026, time.May, 25, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, h)
	assert.Equal(t, "Pfingstmontag", h.Name)
}

func TestCalendar_NextHoliday(t *testing.T) {
	cal, err := NewCalendar("en-US")
	require.NoError(t, err)

	h, days := cal.NextHoliday(time.Date(2026, time.July, 1, 9, 30, 0, 0, time.UTC))
	require.NotNil(t, h)
	assert.Equal(t, "Independence Day", h.Name)
	assert.Equal(t, 3, days)

	// A holiday itself comes back with zero days.
	h, days = cal.NextHoliday(time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, h)
	assert.Equal(t, "Independence Day", h.Name)
	assert.Equal(t, 0, days)

	// Past the year's last holiday the scan rolls into the next year.
	h, days = cal.NextHoliday(time.Date(2026, time.December, 26, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, h)
	assert.Equal(t, "New Year's Day", h.Name)
	assert.Equal(t, 6, days)
}
