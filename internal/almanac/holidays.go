package almanac

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"moodcast/pkg/types"
)

//go:embed holidays/*.yaml
var holidayTables embed.FS

// nextHolidayLookahead bounds the NextHoliday scan. Every shipped table has
// at least one holiday per year, so a full year always finds one.
const nextHolidayLookahead = 366

// Locales shipped as embedded tables. The first entry doubles as the
// fallback when matching fails.
var (
	supportedLocales = []language.Tag{
		language.AmericanEnglish,
		language.BritishEnglish,
		language.MustParse("de-DE"),
	}
	localeFiles   = []string{"en-US", "en-GB", "de-DE"}
	localeMatcher = language.NewMatcher(supportedLocales)
)

// MatchLocale maps an arbitrary BCP 47 locale onto the nearest shipped
// holiday table, falling back to en-US.
func MatchLocale(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return localeFiles[0]
	}
	_, idx, _ := localeMatcher.Match(tag)
	return localeFiles[idx]
}

// holidayTable is the YAML document shape of one locale file.
type holidayTable struct {
	Locale   string        `yaml:"locale"`
	Holidays []holidayRule `yaml:"holidays"`
}

// holidayRule is one holiday definition. Either Month+Day (fixed date), or
// Rule "easter" with an optional Offset in days, or Rule "<nth>-<weekday>"
// with Month (nth 1st..4th or last).
type holidayRule struct {
	Name   string `yaml:"name"`
	Month  int    `yaml:"month,omitempty"`
	Day    int    `yaml:"day,omitempty"`
	Rule   string `yaml:"rule,omitempty"`
	Offset int    `yaml:"offset,omitempty"`
}

// resolve computes the holiday's date in the given year.
func (r *holidayRule) resolve(year int) (time.Time, error) {
	if r.Rule == "" {
		md := types.MonthDay{Month: time.Month(r.Month), Day: r.Day}
		if err := md.Validate(); err != nil {
			return time.Time{}, fmt.Errorf("holiday %q: %w", r.Name, err)
		}
		return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC), nil
	}

	if r.Rule == "easter" {
		return easterSunday(year).AddDate(0, 0, r.Offset), nil
	}

	nth, weekday, err := parseNthWeekday(r.Rule)
	if err != nil {
		return time.Time{}, fmt.Errorf("holiday %q: %w", r.Name, err)
	}
	if r.Month < 1 || r.Month > 12 {
		return time.Time{}, fmt.Errorf("holiday %q: rule %q needs a month", r.Name, r.Rule)
	}
	return nthWeekdayOfMonth(year, time.Month(r.Month), weekday, nth), nil
}

// parseNthWeekday parses "<nth>-<weekday>", e.g. "4th-thursday" or
// "last-monday". nth -1 means last.
func parseNthWeekday(rule string) (int, time.Weekday, error) {
	parts := strings.SplitN(rule, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed rule %q", rule)
	}

	var nth int
	switch parts[0] {
	case "1st":
		nth = 1
	case "2nd":
		nth = 2
	case "3rd":
		nth = 3
	case "4th":
		nth = 4
	case "last":
		nth = -1
	default:
		return 0, 0, fmt.Errorf("malformed rule %q", rule)
	}

	var weekday time.Weekday
	switch parts[1] {
	case "sunday":
		weekday = time.Sunday
	case "monday":
		weekday = time.Monday
	case "tuesday":
		weekday = time.Tuesday
	case "wednesday":
		weekday = time.Wednesday
	case "thursday":
		weekday = time.Thursday
	case "friday":
		weekday = time.Friday
	case "saturday":
		weekday = time.Saturday
	default:
		return 0, 0, fmt.Errorf("malformed rule %q", rule)
	}

	return nth, weekday, nil
}

// nthWeekdayOfMonth finds e.g. the 4th Thursday of a month. nth -1 walks
// back from the month's last day.
func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, nth int) time.Time {
	if nth == -1 {
		last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		back := (int(last.Weekday()) - int(weekday) + 7) % 7
		return last.AddDate(0, 0, -back)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	forward := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, forward+(nth-1)*7)
}

// easterSunday computes Gregorian Easter with Gauss's algorithm, including
// the two exception rules.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year % 4
	c := year % 7
	k := year / 100
	p := (13 + 8*k) / 25
	q := k / 4
	m := (15 - p + k - q) % 30
	n := (4 + k - q) % 7
	d := (19*a + m) % 30
	e := (2*b + 4*c + 6*d + n) % 7

	if day := 22 + d + e; day <= 31 {
		return time.Date(year, time.March, day, 0, 0, 0, 0, time.UTC)
	}

	day := d + e - 9
	if d == 29 && e == 6 {
		day = 19
	} else if d == 28 && e == 6 && (11*m+11)%30 < 19 {
		day = 18
	}
	return time.Date(year, time.April, day, 0, 0, 0, 0, time.UTC)
}

// resolvedHoliday is one holiday pinned to a concrete date.
type resolvedHoliday struct {
	date time.Time
	name string
}

// Calendar answers holiday queries for one locale. Year resolutions are
// cached; the calendar is safe for concurrent use.
type Calendar struct {
	locale string
	rules  []holidayRule

	mu    sync.Mutex
	years map[int][]resolvedHoliday
}

// NewCalendar loads the holiday table nearest the requested locale. Every
// rule is probe-resolved once so malformed tables fail here, not at query
// time.
func NewCalendar(locale string) (*Calendar, error) {
	file := MatchLocale(locale)

	data, err := holidayTables.ReadFile("holidays/" + file + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday table %s: %w", file, err)
	}

	var table holidayTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse holiday table %s: %w", file, err)
	}

	for i := range table.Holidays {
		if _, err := table.Holidays[i].resolve(2000); err != nil {
			return nil, fmt.Errorf("holiday table %s: %w", file, err)
		}
	}

	return &Calendar{
		locale: file,
		rules:  table.Holidays,
		years:  make(map[int][]resolvedHoliday),
	}, nil
}

// Locale returns the shipped locale the calendar resolved to.
func (c *Calendar) Locale() string {
	return c.locale
}

// resolveYear returns the year's holidays sorted by date.
func (c *Calendar) resolveYear(year int) []resolvedHoliday {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.years[year]; ok {
		return cached
	}

	resolved := make([]resolvedHoliday, 0, len(c.rules))
	for i := range c.rules {
		date, err := c.rules[i].resolve(year)
		if err != nil {
			continue
		}
		resolved = append(resolved, resolvedHoliday{date: date, name: c.rules[i].Name})
	}
	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].date.Before(resolved[j].date)
	})

	c.years[year] = resolved
	return resolved
}

// Holiday returns the holiday falling on the date, or nil.
func (c *Calendar) Holiday(date time.Time) *types.Holiday {
	for _, h := range c.resolveYear(date.Year()) {
		if h.date.Month() == date.Month() && h.date.Day() == date.Day() {
			return &types.Holiday{Name: h.name, Locale: c.locale}
		}
	}
	return nil
}

// NextHoliday returns the nearest holiday on or after the date and the
// number of days until it, scanning up to a year ahead. A date that is
// itself a holiday comes back with zero days. Returns nil when the
// lookahead finds nothing.
func (c *Calendar) NextHoliday(date time.Time) (*types.Holiday, int) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	for _, year := range []int{day.Year(), day.Year() + 1} {
		for _, h := range c.resolveYear(year) {
			if h.date.Before(day) {
				continue
			}
			days := int(h.date.Sub(day).Hours() / 24)
			if days > nextHolidayLookahead {
				return nil, 0
			}
			return &types.Holiday{Name: h.name, Locale: c.locale}, days
		}
	}
	return nil, 0
}
