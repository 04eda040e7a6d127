// Package weather fetches daily forecast snapshots for the user's
// location. The forecasting pipeline treats weather as optional
// enrichment: a missing snapshot is never an error upstream.
package weather

import (
	"context"
	"time"

	"moodcast/pkg/types"
)

// Provider produces the forecast weather for one date at a location.
type Provider interface {
	Snapshot(ctx context.Context, lat, lon float64, date time.Time) (*types.WeatherSnapshot, error)
}

// ConditionFromWMOCode collapses WMO weather interpretation codes into the
// coarse conditions the adjuster reasons about.
func ConditionFromWMOCode(code int) types.WeatherCondition {
	switch {
	case code == 0 || code == 1:
		return types.WeatherClear
	case code == 2 || code == 3:
		return types.WeatherCloudy
	case code == 45 || code == 48:
		return types.WeatherFog
	case code >= 51 && code <= 67:
		return types.WeatherRain
	case code >= 71 && code <= 77:
		return types.WeatherSnow
	case code >= 80 && code <= 82:
		return types.WeatherRain
	case code == 85 || code == 86:
		return types.WeatherSnow
	case code >= 95 && code <= 99:
		return types.WeatherStorm
	default:
		return types.WeatherCloudy
	}
}
