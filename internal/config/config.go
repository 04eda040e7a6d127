// Package config loads MoodCast configuration from defaults, an optional
// YAML file, and MOODCAST_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Pattern    PatternConfig    `json:"pattern" yaml:"pattern"`
	Cache      CacheConfig      `json:"cache" yaml:"cache"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Weather    WeatherConfig    `json:"weather" yaml:"weather"`
	Almanac    AlmanacConfig    `json:"almanac" yaml:"almanac"`
	Forecast   ForecastConfig   `json:"forecast" yaml:"forecast"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port         int    `json:"port" yaml:"port"`
	Host         string `json:"host" yaml:"host"`
	ReadTimeout  int    `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeout int    `json:"write_timeout_seconds" yaml:"write_timeout_seconds"`
}

// JournalConfig selects and configures the journal entry store.
type JournalConfig struct {
	Backend    string `json:"backend" yaml:"backend"` // "memory" or "sqlite"
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`
	// Passphrase enables at-rest encryption of entry content when set.
	Passphrase string `json:"-" yaml:"-"`
}

// PatternConfig selects and configures the learned pattern store.
type PatternConfig struct {
	Backend     string `json:"backend" yaml:"backend"` // "memory" or "postgres"
	PostgresDSN string `json:"-" yaml:"-"`
}

// CacheConfig configures forecast and analytics caching.
type CacheConfig struct {
	Backend            string `json:"backend" yaml:"backend"` // "memory" or "redis"
	RedisAddr          string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword      string `json:"-" yaml:"-"`
	RedisDB            int    `json:"redis_db" yaml:"redis_db"`
	ForecastTTLMinutes int    `json:"forecast_ttl_minutes" yaml:"forecast_ttl_minutes"`
	SummaryTTLMinutes  int    `json:"summary_ttl_minutes" yaml:"summary_ttl_minutes"`
	ContextTTLMinutes  int    `json:"context_ttl_minutes" yaml:"context_ttl_minutes"`
}

// ExtractionConfig configures the language-model pattern extraction client.
type ExtractionConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	BaseURL        string `json:"base_url" yaml:"base_url"`
	APIKey         string `json:"-" yaml:"-"`
	Model          string `json:"model" yaml:"model"`
	RequestTimeout int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	RateLimitRPM   int    `json:"rate_limit_rpm" yaml:"rate_limit_rpm"`
	SchemaVersion  int    `json:"schema_version" yaml:"schema_version"`
}

// WeatherConfig configures the daily weather enrichment client.
type WeatherConfig struct {
	Enabled        bool    `json:"enabled" yaml:"enabled"`
	BaseURL        string  `json:"base_url" yaml:"base_url"`
	Latitude       float64 `json:"latitude" yaml:"latitude"`
	Longitude      float64 `json:"longitude" yaml:"longitude"`
	RequestTimeout int     `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	RatePerSecond  float64 `json:"rate_per_second" yaml:"rate_per_second"`
	Burst          int     `json:"burst" yaml:"burst"`
}

// AlmanacConfig configures calendar context resolution.
type AlmanacConfig struct {
	Locale     string `json:"locale" yaml:"locale"`         // BCP 47, e.g. "en-US"
	Hemisphere string `json:"hemisphere" yaml:"hemisphere"` // "northern" or "southern"
}

// ForecastConfig tunes the prediction engine.
type ForecastConfig struct {
	MaxHorizonDays int  `json:"max_horizon_days" yaml:"max_horizon_days"`
	DampenOutliers bool `json:"dampen_outliers" yaml:"dampen_outliers"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "json" or "text"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "localhost",
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Journal: JournalConfig{
			Backend:    "sqlite",
			SQLitePath: "./data/journal.db",
		},
		Pattern: PatternConfig{
			Backend: "memory",
		},
		Cache: CacheConfig{
			Backend:            "memory",
			RedisAddr:          "localhost:6379",
			ForecastTTLMinutes: 15,
			SummaryTTLMinutes:  60,
			ContextTTLMinutes:  360,
		},
		Extraction: ExtractionConfig{
			Enabled:        false,
			Model:          "gpt-4o-mini",
			RequestTimeout: 60,
			RateLimitRPM:   30,
			SchemaVersion:  1,
		},
		Weather: WeatherConfig{
			Enabled:        false,
			BaseURL:        "https://api.open-meteo.com/v1",
			RequestTimeout: 10,
			RatePerSecond:  1,
			Burst:          3,
		},
		Almanac: AlmanacConfig{
			Locale:     "en-US",
			Hemisphere: "northern",
		},
		Forecast: ForecastConfig{
			MaxHorizonDays: 14,
			DampenOutliers: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file named
// by MOODCAST_CONFIG_FILE, and environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := DefaultConfig()

	if path := os.Getenv("MOODCAST_CONFIG_FILE"); path != "" {
		if err := loadFromFile(config, path); err != nil {
			return nil, err
		}
	}

	loadFromEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile overlays settings from a YAML file onto the config.
func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(config *Config) {
	loadServerConfig(config)
	loadJournalConfig(config)
	loadPatternConfig(config)
	loadCacheConfig(config)
	loadExtractionConfig(config)
	loadWeatherConfig(config)
	loadAlmanacConfig(config)
	loadForecastConfig(config)
	loadLoggingConfig(config)
}

func loadServerConfig(config *Config) {
	if port := os.Getenv("MOODCAST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MOODCAST_HOST"); host != "" {
		config.Server.Host = host
	}
	if readTimeout := os.Getenv("MOODCAST_READ_TIMEOUT_SECONDS"); readTimeout != "" {
		if rt, err := strconv.Atoi(readTimeout); err == nil {
			config.Server.ReadTimeout = rt
		}
	}
	if writeTimeout := os.Getenv("MOODCAST_WRITE_TIMEOUT_SECONDS"); writeTimeout != "" {
		if wt, err := strconv.Atoi(writeTimeout); err == nil {
			config.Server.WriteTimeout = wt
		}
	}
}

func loadJournalConfig(config *Config) {
	if backend := os.Getenv("MOODCAST_JOURNAL_BACKEND"); backend != "" {
		config.Journal.Backend = backend
	}
	if path := os.Getenv("MOODCAST_JOURNAL_SQLITE_PATH"); path != "" {
		config.Journal.SQLitePath = path
	}
	if passphrase := os.Getenv("MOODCAST_JOURNAL_PASSPHRASE"); passphrase != "" {
		config.Journal.Passphrase = passphrase
	}
}

func loadPatternConfig(config *Config) {
	if backend := os.Getenv("MOODCAST_PATTERN_BACKEND"); backend != "" {
		config.Pattern.Backend = backend
	}
	// DATABASE_URL is the conventional unprefixed fallback.
	if dsn := os.Getenv("MOODCAST_PATTERN_POSTGRES_DSN"); dsn != "" {
		config.Pattern.PostgresDSN = dsn
	} else if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		config.Pattern.PostgresDSN = dsn
	}
}

func loadCacheConfig(config *Config) {
	if backend := os.Getenv("MOODCAST_CACHE_BACKEND"); backend != "" {
		config.Cache.Backend = backend
	}
	if addr := os.Getenv("MOODCAST_REDIS_ADDR"); addr != "" {
		config.Cache.RedisAddr = addr
	} else if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Cache.RedisAddr = addr
	}
	if password := os.Getenv("MOODCAST_REDIS_PASSWORD"); password != "" {
		config.Cache.RedisPassword = password
	} else if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Cache.RedisPassword = password
	}
	if db := os.Getenv("MOODCAST_REDIS_DB"); db != "" {
		if d, err := strconv.Atoi(db); err == nil {
			config.Cache.RedisDB = d
		}
	}
	if ttl := os.Getenv("MOODCAST_FORECAST_TTL_MINUTES"); ttl != "" {
		if t, err := strconv.Atoi(ttl); err == nil {
			config.Cache.ForecastTTLMinutes = t
		}
	}
	if ttl := os.Getenv("MOODCAST_SUMMARY_TTL_MINUTES"); ttl != "" {
		if t, err := strconv.Atoi(ttl); err == nil {
			config.Cache.SummaryTTLMinutes = t
		}
	}
	if ttl := os.Getenv("MOODCAST_CONTEXT_TTL_MINUTES"); ttl != "" {
		if t, err := strconv.Atoi(ttl); err == nil {
			config.Cache.ContextTTLMinutes = t
		}
	}
}

func loadExtractionConfig(config *Config) {
	if enabled := os.Getenv("MOODCAST_EXTRACTION_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Extraction.Enabled = e
		}
	}
	if baseURL := os.Getenv("MOODCAST_EXTRACTION_BASE_URL"); baseURL != "" {
		config.Extraction.BaseURL = baseURL
	}
	if apiKey := os.Getenv("MOODCAST_EXTRACTION_API_KEY"); apiKey != "" {
		config.Extraction.APIKey = apiKey
	} else if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Extraction.APIKey = apiKey
	}
	if model := os.Getenv("MOODCAST_EXTRACTION_MODEL"); model != "" {
		config.Extraction.Model = model
	}
	if timeout := os.Getenv("MOODCAST_EXTRACTION_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Extraction.RequestTimeout = t
		}
	}
	if rpm := os.Getenv("MOODCAST_EXTRACTION_RATE_LIMIT_RPM"); rpm != "" {
		if r, err := strconv.Atoi(rpm); err == nil {
			config.Extraction.RateLimitRPM = r
		}
	}
	if version := os.Getenv("MOODCAST_EXTRACTION_SCHEMA_VERSION"); version != "" {
		if v, err := strconv.Atoi(version); err == nil {
			config.Extraction.SchemaVersion = v
		}
	}
}

func loadWeatherConfig(config *Config) {
	if enabled := os.Getenv("MOODCAST_WEATHER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Weather.Enabled = e
		}
	}
	if baseURL := os.Getenv("MOODCAST_WEATHER_BASE_URL"); baseURL != "" {
		config.Weather.BaseURL = baseURL
	}
	if lat := os.Getenv("MOODCAST_WEATHER_LATITUDE"); lat != "" {
		if l, err := strconv.ParseFloat(lat, 64); err == nil {
			config.Weather.Latitude = l
		}
	}
	if lon := os.Getenv("MOODCAST_WEATHER_LONGITUDE"); lon != "" {
		if l, err := strconv.ParseFloat(lon, 64); err == nil {
			config.Weather.Longitude = l
		}
	}
	if timeout := os.Getenv("MOODCAST_WEATHER_TIMEOUT_SECONDS"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			config.Weather.RequestTimeout = t
		}
	}
	if rate := os.Getenv("MOODCAST_WEATHER_RATE_PER_SECOND"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Weather.RatePerSecond = r
		}
	}
	if burst := os.Getenv("MOODCAST_WEATHER_BURST"); burst != "" {
		if b, err := strconv.Atoi(burst); err == nil {
			config.Weather.Burst = b
		}
	}
}

func loadAlmanacConfig(config *Config) {
	if locale := os.Getenv("MOODCAST_ALMANAC_LOCALE"); locale != "" {
		config.Almanac.Locale = locale
	}
	if hemisphere := os.Getenv("MOODCAST_ALMANAC_HEMISPHERE"); hemisphere != "" {
		config.Almanac.Hemisphere = hemisphere
	}
}

func loadForecastConfig(config *Config) {
	if horizon := os.Getenv("MOODCAST_FORECAST_MAX_HORIZON_DAYS"); horizon != "" {
		if h, err := strconv.Atoi(horizon); err == nil {
			config.Forecast.MaxHorizonDays = h
		}
	}
	if dampen := os.Getenv("MOODCAST_FORECAST_DAMPEN_OUTLIERS"); dampen != "" {
		if d, err := strconv.ParseBool(dampen); err == nil {
			config.Forecast.DampenOutliers = d
		}
	}
}

func loadLoggingConfig(config *Config) {
	if level := os.Getenv("MOODCAST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("MOODCAST_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	switch c.Journal.Backend {
	case "memory":
	case "sqlite":
		if c.Journal.SQLitePath == "" {
			return fmt.Errorf("journal sqlite path cannot be empty")
		}
	default:
		return fmt.Errorf("unknown journal backend: %s", c.Journal.Backend)
	}

	switch c.Pattern.Backend {
	case "memory":
	case "postgres":
		if c.Pattern.PostgresDSN == "" {
			return fmt.Errorf("pattern postgres DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown pattern backend: %s", c.Pattern.Backend)
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.ForecastTTLMinutes <= 0 || c.Cache.SummaryTTLMinutes <= 0 || c.Cache.ContextTTLMinutes <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	if c.Extraction.Enabled {
		if c.Extraction.BaseURL == "" {
			return fmt.Errorf("extraction base URL is required when extraction is enabled")
		}
		if c.Extraction.APIKey == "" {
			return fmt.Errorf("extraction API key is required when extraction is enabled")
		}
		if c.Extraction.SchemaVersion < 1 {
			return fmt.Errorf("extraction schema version must be at least 1")
		}
	}

	if c.Weather.Enabled {
		if c.Weather.BaseURL == "" {
			return fmt.Errorf("weather base URL is required when weather is enabled")
		}
		if c.Weather.Latitude < -90 || c.Weather.Latitude > 90 {
			return fmt.Errorf("weather latitude %.4f out of range", c.Weather.Latitude)
		}
		if c.Weather.Longitude < -180 || c.Weather.Longitude > 180 {
			return fmt.Errorf("weather longitude %.4f out of range", c.Weather.Longitude)
		}
	}

	if c.Almanac.Hemisphere != "northern" && c.Almanac.Hemisphere != "southern" {
		return fmt.Errorf("almanac hemisphere must be northern or southern, got %q", c.Almanac.Hemisphere)
	}
	if c.Almanac.Locale == "" {
		return fmt.Errorf("almanac locale cannot be empty")
	}

	if c.Forecast.MaxHorizonDays < 1 || c.Forecast.MaxHorizonDays > 62 {
		return fmt.Errorf("forecast max horizon must be between 1 and 62 days, got %d", c.Forecast.MaxHorizonDays)
	}

	return nil
}

// EnsureJournalDir creates the directory for the SQLite journal file and
// returns its absolute path.
func (c *Config) EnsureJournalDir() (string, error) {
	dir := filepath.Dir(c.Journal.SQLitePath)
	if dir == "" {
		dir = "./data"
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for journal directory: %w", err)
	}

	if err := os.MkdirAll(absPath, 0750); err != nil {
		return "", fmt.Errorf("failed to create journal directory: %w", err)
	}

	return absPath, nil
}
