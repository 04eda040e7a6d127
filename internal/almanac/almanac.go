// Package almanac resolves calendar context for a target date: season,
// moon phase, and public holidays from embedded per-locale tables.
package almanac

import (
	"math"
	"strings"
	"time"

	"moodcast/pkg/types"
)

// Hemisphere values accepted by SeasonOf.
const (
	HemisphereNorthern = "northern"
	HemisphereSouthern = "southern"
)

// SeasonOf returns the meteorological season of the date. The southern
// hemisphere runs the table half a year out of phase.
func SeasonOf(date time.Time, hemisphere string) types.Season {
	var season types.Season
	switch date.Month() {
	case time.December, time.January, time.February:
		season = types.SeasonWinter
	case time.March, time.April, time.May:
		season = types.SeasonSpring
	case time.June, time.July, time.August:
		season = types.SeasonSummer
	default:
		season = types.SeasonAutumn
	}

	if strings.EqualFold(hemisphere, HemisphereSouthern) {
		season = oppositeSeason(season)
	}
	return season
}

func oppositeSeason(s types.Season) types.Season {
	switch s {
	case types.SeasonWinter:
		return types.SeasonSummer
	case types.SeasonSummer:
		return types.SeasonWinter
	case types.SeasonSpring:
		return types.SeasonAutumn
	default:
		return types.SeasonSpring
	}
}

// newMoonEpoch is the new moon of 2000-01-06 18:14 UTC, the anchor for the
// synodic approximation. Accurate to well under a day over decades, which
// is all a coarse phase label needs.
var newMoonEpoch = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// synodicMonth is the mean lunation length in days.
const synodicMonth = 29.530588853

var moonPhases = [8]types.MoonPhase{
	types.MoonNew,
	types.MoonWaxingCrescent,
	types.MoonFirstQuarter,
	types.MoonWaxingGibbous,
	types.MoonFull,
	types.MoonWaningGibbous,
	types.MoonLastQuarter,
	types.MoonWaningCrescent,
}

// MoonPhaseOf returns the principal lunar phase of the date. Buckets are
// centered on the exact phase moments, so a date lands on "full" from half
// a bucket before the instant to half a bucket after.
func MoonPhaseOf(date time.Time) types.MoonPhase {
	days := date.Sub(newMoonEpoch).Hours() / 24
	age := math.Mod(days, synodicMonth)
	if age < 0 {
		age += synodicMonth
	}

	idx := int(math.Floor(age/synodicMonth*8+0.5)) % 8
	return moonPhases[idx]
}
