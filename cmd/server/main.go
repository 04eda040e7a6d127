// server is the MoodCast HTTP server binary. It wires the journal store,
// pattern store, cache, and forecasting engine from configuration, then
// serves the REST and WebSocket API until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moodcast/internal/almanac"
	"moodcast/internal/analytics"
	"moodcast/internal/api"
	"moodcast/internal/cache"
	"moodcast/internal/config"
	"moodcast/internal/extraction"
	"moodcast/internal/forecast"
	"moodcast/internal/journal"
	"moodcast/internal/logging"
	"moodcast/internal/pattern"
	"moodcast/internal/weather"
	"moodcast/internal/websocket"
)

// version is stamped at build time via -ldflags "-X main.version=v1.2.3".
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	var (
		addr        = flag.String("addr", "", "listen address, overriding the configured host and port")
		showVersion = flag.Bool("version", false, "print the version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("moodcast-server %s\n", version)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal("Failed to load configuration", "error", err)
	}

	logger := logging.New(logging.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format == "json", os.Stdout)
	logging.SetDefaultLogger(logger)
	logger = logger.WithComponent("server")

	app, err := buildApp(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to assemble server", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.run(ctx, *addr); err != nil {
		logger.Error("Server exited with error", "error", err)
	}

	app.close()
}

// app owns every long-lived component so shutdown can release them in one
// place, in reverse construction order.
type app struct {
	cfg    *config.Config
	logger logging.Logger

	journal  journal.Store
	patterns pattern.Store
	cache    cache.Cache
	ws       *websocket.Server
	router   *api.Router
}

// buildApp assembles the full component graph from configuration. It only
// returns components that started cleanly, so close is always safe to call
// on a returned app.
func buildApp(cfg *config.Config, logger logging.Logger) (*app, error) {
	journalStore, err := newJournalStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("journal store: %w", err)
	}

	patternStore, err := newPatternStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("pattern store: %w", err)
	}

	cacheStore, err := newCacheStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	forecastTTL := time.Duration(cfg.Cache.ForecastTTLMinutes) * time.Minute
	summaryTTL := time.Duration(cfg.Cache.SummaryTTLMinutes) * time.Minute
	contextTTL := time.Duration(cfg.Cache.ContextTTLMinutes) * time.Minute

	engine := analytics.NewEngine(journalStore, patternStore, cacheStore, summaryTTL, logger)

	calendar, err := almanac.NewCalendar(cfg.Almanac.Locale)
	if err != nil {
		// Forecasts still work without holiday context, so a bad locale
		// degrades instead of aborting startup.
		logger.Warn("Holiday calendar unavailable", "locale", cfg.Almanac.Locale, "error", err)
		calendar = nil
	}

	var weatherProvider weather.Provider
	if cfg.Weather.Enabled {
		weatherProvider = weather.NewOpenMeteoClient(cfg.Weather, cacheStore, contextTTL, logger)
	}

	gatherer := forecast.NewGatherer(forecast.GathererConfig{
		Calendar:   calendar,
		Hemisphere: cfg.Almanac.Hemisphere,
		Weather:    weatherProvider,
		Latitude:   cfg.Weather.Latitude,
		Longitude:  cfg.Weather.Longitude,
		UseWeather: cfg.Weather.Enabled,
	}, logger)

	forecastService := forecast.NewService(
		journalStore,
		engine,
		forecast.NewPredictor(cfg.Forecast.DampenOutliers),
		forecast.NewAdjuster(patternStore, logger),
		gatherer,
		forecast.ServiceConfig{
			Cache:          cacheStore,
			TTL:            forecastTTL,
			MaxHorizonDays: cfg.Forecast.MaxHorizonDays,
		},
		logger,
	)

	var extractor *extraction.Extractor
	if cfg.Extraction.Enabled {
		provider := extraction.NewOpenAIProvider(cfg.Extraction, logger)
		extractor = extraction.NewExtractor(provider, patternStore, journalStore, logger)
	}

	ws := websocket.NewServer(nil, logger)
	if err := ws.Start(); err != nil {
		return nil, fmt.Errorf("websocket server: %w", err)
	}

	router := api.NewRouter(api.Deps{
		Config:    cfg,
		Journal:   journalStore,
		Patterns:  patternStore,
		Analytics: engine,
		Forecast:  forecastService,
		Extractor: extractor,
		WS:        ws,
		Logger:    logger,
		Version:   version,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		journal:  journalStore,
		patterns: patternStore,
		cache:    cacheStore,
		ws:       ws,
		router:   router,
	}, nil
}

func newJournalStore(cfg *config.Config) (journal.Store, error) {
	switch cfg.Journal.Backend {
	case "memory":
		return journal.NewMemoryStore(), nil
	case "sqlite":
		if _, err := cfg.EnsureJournalDir(); err != nil {
			return nil, err
		}
		return journal.NewSQLiteStore(cfg.Journal.SQLitePath, journal.NewCipher(cfg.Journal.Passphrase))
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Journal.Backend)
	}
}

func newPatternStore(cfg *config.Config, logger logging.Logger) (pattern.Store, error) {
	switch cfg.Pattern.Backend {
	case "memory":
		return pattern.NewMemoryStore(), nil
	case "postgres":
		return pattern.NewSQLStore(cfg.Pattern.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("unknown pattern backend %q", cfg.Pattern.Backend)
	}
}

func newCacheStore(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return cache.NewMemory(nil), nil
	case "redis":
		return cache.NewRedis(&cache.RedisConfig{
			Addr:       cfg.Cache.RedisAddr,
			Password:   cfg.Cache.RedisPassword,
			DB:         cfg.Cache.RedisDB,
			KeyPrefix:  "moodcast",
			DefaultTTL: time.Duration(cfg.Cache.ForecastTTLMinutes) * time.Minute,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// run serves HTTP until the context is cancelled, then drains in-flight
// requests before returning.
func (a *app) run(ctx context.Context, addrOverride string) error {
	addr := addrOverride
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	}

	writeTimeout := time.Duration(a.cfg.Server.WriteTimeout) * time.Second
	if a.cfg.Extraction.Enabled {
		// Pattern extraction holds its response open for the full
		// language-model timeout, which the connection deadline must outlive.
		if floor := time.Duration(a.cfg.Extraction.RequestTimeout+10) * time.Second; writeTimeout < floor {
			writeTimeout = floor
		}
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           a.router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("MoodCast server listening",
			"addr", addr,
			"version", version,
			"journal_backend", a.cfg.Journal.Backend,
			"pattern_backend", a.cfg.Pattern.Backend,
			"cache_backend", a.cfg.Cache.Backend,
			"weather_enabled", a.cfg.Weather.Enabled,
			"extraction_enabled", a.cfg.Extraction.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")

	// The parent context is already cancelled, so shutdown gets a fresh one.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// close releases components in reverse construction order.
func (a *app) close() {
	if err := a.ws.Stop(); err != nil {
		a.logger.Warn("WebSocket server stop failed", "error", err)
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("Cache close failed", "error", err)
	}
	if err := a.patterns.Close(); err != nil {
		a.logger.Warn("Pattern store close failed", "error", err)
	}
	if err := a.journal.Close(); err != nil {
		a.logger.Warn("Journal store close failed", "error", err)
	}
}
