package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"moodcast/internal/cache"
	"moodcast/internal/circuitbreaker"
	"moodcast/internal/config"
	"moodcast/internal/logging"
	"moodcast/pkg/types"
)

// defaultBaseURL is the public Open-Meteo forecast API.
const defaultBaseURL = "https://api.open-meteo.com/v1"

// OpenMeteoClient implements Provider against the Open-Meteo daily
// endpoint. Calls are paced by a client-side limiter, guarded by a circuit
// breaker, and cached per (location, date).
type OpenMeteoClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	cache   cache.Cache
	ttl     time.Duration
	logger  logging.Logger
}

// NewOpenMeteoClient builds a client from the weather configuration. Pass a
// nil cache to disable snapshot caching.
func NewOpenMeteoClient(cfg config.WeatherConfig, store cache.Cache, ttl time.Duration, logger logging.Logger) *OpenMeteoClient {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 3
	}

	return &OpenMeteoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: circuitbreaker.New(nil),
		cache:   store,
		ttl:     ttl,
		logger:  logger,
	}
}

// Snapshot returns the daily forecast for the date, served from cache when
// fresh.
func (c *OpenMeteoClient) Snapshot(ctx context.Context, lat, lon float64, date time.Time) (*types.WeatherSnapshot, error) {
	if c.cache == nil {
		return c.fetch(ctx, lat, lon, date)
	}

	key := cache.Key("weather",
		fmt.Sprintf("%.3f,%.3f", lat, lon),
		date.Format("2006-01-02"),
	)
	data, err := cache.GetOrCompute(ctx, c.cache, key, c.ttl, func(ctx context.Context) ([]byte, error) {
		snap, err := c.fetch(ctx, lat, lon, date)
		if err != nil {
			return nil, err
		}
		return json.Marshal(snap)
	})
	if err != nil {
		return nil, err
	}

	var snap types.WeatherSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cached snapshot: %w", err)
	}
	return &snap, nil
}

// fetch runs one guarded upstream call.
func (c *OpenMeteoClient) fetch(ctx context.Context, lat, lon float64, date time.Time) (*types.WeatherSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var snap *types.WeatherSnapshot
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		s, err := c.request(ctx, lat, lon, date)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Weather fetch failed", "date", date.Format("2006-01-02"), "error", err)
		return nil, err
	}
	return snap, nil
}

// openMeteoResponse is the slice of the daily payload we consume.
type openMeteoResponse struct {
	Daily struct {
		Time           []string  `json:"time"`
		WeatherCode    []int     `json:"weathercode"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		HumidityMean   []float64 `json:"relative_humidity_2m_mean"`
		UVIndexMax     []float64 `json:"uv_index_max"`
	} `json:"daily"`
}

func (c *OpenMeteoClient) request(ctx context.Context, lat, lon float64, date time.Time) (*types.WeatherSnapshot, error) {
	day := date.Format("2006-01-02")

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("daily", "weathercode,temperature_2m_max,relative_humidity_2m_mean,uv_index_max")
	params.Set("timezone", "UTC")
	params.Set("start_date", day)
	params.Set("end_date", day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather API returned %d: %s", resp.StatusCode, string(body))
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if len(payload.Daily.Time) == 0 || len(payload.Daily.WeatherCode) == 0 {
		return nil, fmt.Errorf("weather response has no daily data for %s", day)
	}

	snap := &types.WeatherSnapshot{
		Date:      time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Condition: ConditionFromWMOCode(payload.Daily.WeatherCode[0]),
	}
	if len(payload.Daily.TemperatureMax) > 0 {
		snap.Temperature = payload.Daily.TemperatureMax[0]
	}
	if len(payload.Daily.HumidityMean) > 0 {
		snap.Humidity = payload.Daily.HumidityMean[0]
	}
	if len(payload.Daily.UVIndexMax) > 0 {
		snap.UVIndex = payload.Daily.UVIndexMax[0]
	}
	return snap, nil
}
