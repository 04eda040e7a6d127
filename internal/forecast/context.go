package forecast

import (
	"context"
	"time"

	"moodcast/internal/almanac"
	"moodcast/internal/logging"
	"moodcast/internal/weather"
	"moodcast/pkg/types"
)

// Gatherer assembles the contextual factors for a target date: season,
// moon phase, holiday proximity, and a best-effort weather snapshot.
type Gatherer struct {
	calendar   *almanac.Calendar
	hemisphere string
	weather    weather.Provider
	latitude   float64
	longitude  float64
	useWeather bool
	logger     logging.Logger
}

// GathererConfig wires the collaborators of the factor gatherer. Calendar
// may be nil to skip holiday resolution; Weather may be nil or UseWeather
// false to forecast without weather.
type GathererConfig struct {
	Calendar   *almanac.Calendar
	Hemisphere string
	Weather    weather.Provider
	Latitude   float64
	Longitude  float64
	UseWeather bool
}

// NewGatherer creates a contextual factor gatherer.
func NewGatherer(cfg GathererConfig, logger logging.Logger) *Gatherer {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	hemisphere := cfg.Hemisphere
	if hemisphere == "" {
		hemisphere = almanac.HemisphereNorthern
	}
	return &Gatherer{
		calendar:   cfg.Calendar,
		hemisphere: hemisphere,
		weather:    cfg.Weather,
		latitude:   cfg.Latitude,
		longitude:  cfg.Longitude,
		useWeather: cfg.UseWeather && cfg.Weather != nil,
		logger:     logger,
	}
}

// Factors derives everything known about the target date that does not
// come from the journal. A failed weather lookup leaves Weather nil and
// is never an error.
func (g *Gatherer) Factors(ctx context.Context, date time.Time) *types.ContextualFactors {
	factors := &types.ContextualFactors{
		Date:      date,
		Weekday:   date.Weekday(),
		Season:    almanac.SeasonOf(date, g.hemisphere),
		MoonPhase: almanac.MoonPhaseOf(date),
	}

	if g.calendar != nil {
		factors.Holiday = g.calendar.Holiday(date)
		factors.NextHoliday, factors.DaysToNextHoliday = g.calendar.NextHoliday(date)
	}

	if g.useWeather {
		snapshot, err := g.weather.Snapshot(ctx, g.latitude, g.longitude, date)
		if err != nil {
			g.logger.WarnContext(ctx, "Weather lookup failed, forecasting without it",
				"date", date.Format("2006-01-02"), "error", err)
		} else {
			factors.Weather = snapshot
		}
	}

	return factors
}
