package types

import "time"

// Season is an astronomical season, hemisphere already applied.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// Valid returns true if the season is valid.
func (s Season) Valid() bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter:
		return true
	}
	return false
}

// MoonPhase is one of the eight principal lunar phases.
type MoonPhase string

const (
	MoonNew            MoonPhase = "new"
	MoonWaxingCrescent MoonPhase = "waxing_crescent"
	MoonFirstQuarter   MoonPhase = "first_quarter"
	MoonWaxingGibbous  MoonPhase = "waxing_gibbous"
	MoonFull           MoonPhase = "full"
	MoonWaningGibbous  MoonPhase = "waning_gibbous"
	MoonLastQuarter    MoonPhase = "last_quarter"
	MoonWaningCrescent MoonPhase = "waning_crescent"
)

// Valid returns true if the moon phase is valid.
func (m MoonPhase) Valid() bool {
	switch m {
	case MoonNew, MoonWaxingCrescent, MoonFirstQuarter, MoonWaxingGibbous,
		MoonFull, MoonWaningGibbous, MoonLastQuarter, MoonWaningCrescent:
		return true
	}
	return false
}

// WeatherCondition is a coarse daily weather classification.
type WeatherCondition string

const (
	WeatherClear  WeatherCondition = "clear"
	WeatherCloudy WeatherCondition = "cloudy"
	WeatherRain   WeatherCondition = "rain"
	WeatherSnow   WeatherCondition = "snow"
	WeatherStorm  WeatherCondition = "storm"
	WeatherFog    WeatherCondition = "fog"
)

// Valid returns true if the weather condition is valid.
func (w WeatherCondition) Valid() bool {
	switch w {
	case WeatherClear, WeatherCloudy, WeatherRain, WeatherSnow, WeatherStorm, WeatherFog:
		return true
	}
	return false
}

// WeatherSnapshot is one day's forecast weather at the user's location.
// Temperature is the daily high in Celsius; Humidity the mean relative
// humidity in percent; UVIndex the daily maximum.
type WeatherSnapshot struct {
	Date        time.Time        `json:"date"`
	Condition   WeatherCondition `json:"condition"`
	Temperature float64          `json:"temperature"`
	Humidity    float64          `json:"humidity"`
	UVIndex     float64          `json:"uv_index"`
}

// Holiday is a named public holiday resolved from the almanac tables.
type Holiday struct {
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

// ContextualFactors bundles everything known about a target date that is
// not derived from the user's own journal. Missing weather is represented
// by a nil Weather, never by zero values. NextHoliday is the date's own
// holiday when it falls on one, otherwise the nearest upcoming holiday
// within the almanac's lookahead; nil when none was found.
type ContextualFactors struct {
	Date              time.Time        `json:"date"`
	Weekday           time.Weekday     `json:"weekday"`
	Season            Season           `json:"season"`
	MoonPhase         MoonPhase        `json:"moon_phase"`
	Holiday           *Holiday         `json:"holiday,omitempty"`
	NextHoliday       *Holiday         `json:"next_holiday,omitempty"`
	DaysToNextHoliday int              `json:"days_to_next_holiday,omitempty"`
	Weather           *WeatherSnapshot `json:"weather,omitempty"`
}

// IsHoliday returns true when the date resolved to a public holiday.
func (cf *ContextualFactors) IsHoliday() bool {
	return cf != nil && cf.Holiday != nil
}
