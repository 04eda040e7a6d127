// Package api provides the HTTP API layer for MoodCast.
package api

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"moodcast/internal/analytics"
	"moodcast/internal/api/handlers"
	"moodcast/internal/api/middleware"
	"moodcast/internal/api/response"
	"moodcast/internal/config"
	"moodcast/internal/extraction"
	"moodcast/internal/forecast"
	"moodcast/internal/journal"
	"moodcast/internal/logging"
	"moodcast/internal/pattern"
	"moodcast/internal/websocket"
)

const (
	requestSizeLimit = 1 << 20 // 1MB, journal entries are short text
	requestTimeout   = 30 * time.Second
)

// Deps carries everything the API surfaces. Extractor and WS may be nil
// when those features are disabled.
type Deps struct {
	Config    *config.Config
	Journal   journal.Store
	Patterns  pattern.Store
	Analytics *analytics.Engine
	Forecast  *forecast.Service
	Extractor *extraction.Extractor
	WS        *websocket.Server
	Logger    logging.Logger
	Version   string
}

// Router is the MoodCast HTTP router.
type Router struct {
	deps Deps
	mux  *chi.Mux
}

// NewRouter builds the router with its middleware stack and routes.
func NewRouter(deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = logging.NewNoOpLogger()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	r := &Router{deps: deps, mux: chi.NewRouter()}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Handler returns the HTTP handler.
func (r *Router) Handler() http.Handler {
	return r.mux
}

func (r *Router) setupMiddleware() {
	r.mux.Use(chimiddleware.Recoverer)
	r.mux.Use(timeoutMiddleware())

	requestLogger := middleware.NewRequestLogger(r.deps.Logger)
	r.mux.Use(requestLogger.Handler())

	r.mux.Use(createCORSMiddleware().Handler())
	r.mux.Use(chimiddleware.RequestSize(requestSizeLimit))
	r.mux.Use(chimiddleware.Heartbeat("/ping"))
}

// createCORSMiddleware allows local dashboard origins by default;
// MOODCAST_CORS_ORIGINS overrides them for a deployed setup.
func createCORSMiddleware() *middleware.CORSMiddleware {
	if origins := os.Getenv("MOODCAST_CORS_ORIGINS"); origins != "" {
		allowed := strings.Split(origins, ",")
		for i := range allowed {
			allowed[i] = strings.TrimSpace(allowed[i])
		}
		return middleware.NewCORSMiddleware(&middleware.CORSConfig{
			AllowedOrigins:   allowed,
			AllowCredentials: true,
		})
	}
	return middleware.NewDefaultCORSMiddleware()
}

// timeoutMiddleware applies the request deadline everywhere except the
// websocket upgrade, which holds its connection open, and pattern
// extraction, whose language-model call can legitimately run longer.
func timeoutMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		timed := chimiddleware.Timeout(requestTimeout)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasSuffix(req.URL.Path, "/ws") || strings.HasSuffix(req.URL.Path, "/patterns/extract") {
				next.ServeHTTP(w, req)
				return
			}
			timed.ServeHTTP(w, req)
		})
	}
}

func (r *Router) setupRoutes() {
	deps := r.deps

	var hub *websocket.Hub
	if deps.WS != nil {
		hub = deps.WS.Hub()
	}

	healthHandler := handlers.NewHealthHandler(deps.Config, deps.Journal, deps.Patterns, deps.Version)
	entriesHandler := handlers.NewEntriesHandler(deps.Journal, deps.Analytics, deps.Forecast, hub, deps.Logger)
	forecastHandler := handlers.NewForecastHandler(deps.Forecast, hub, deps.Logger)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Analytics, deps.Logger)
	patternsHandler := handlers.NewPatternsHandler(deps.Patterns, deps.Extractor, deps.Analytics, deps.Forecast, deps.Logger)
	reportHandler := handlers.NewReportHandler(deps.Analytics, deps.Forecast, deps.Logger)

	// Health endpoints without the version prefix for load balancers.
	r.mux.Get("/health", healthHandler.Handle)
	r.mux.Get("/readiness", healthHandler.HandleReadiness)
	r.mux.Get("/liveness", healthHandler.HandleLiveness)

	r.mux.Route("/api/v1", func(rtr chi.Router) {
		rtr.Get("/health", healthHandler.Handle)
		rtr.Get("/readiness", healthHandler.HandleReadiness)
		rtr.Get("/liveness", healthHandler.HandleLiveness)

		rtr.Route("/entries", func(er chi.Router) {
			er.Post("/", entriesHandler.HandleCreate)
			er.Get("/", entriesHandler.HandleList)
			er.Get("/{id}", entriesHandler.HandleGet)
			er.Delete("/{id}", entriesHandler.HandleDelete)
			er.Put("/{id}/mood", entriesHandler.HandleSetMood)
		})

		rtr.Get("/forecast", forecastHandler.HandleGet)
		rtr.Get("/forecast/week", forecastHandler.HandleWeek)

		rtr.Get("/analytics", analyticsHandler.HandleSummary)

		rtr.Route("/patterns", func(pr chi.Router) {
			pr.Get("/", patternsHandler.HandleList)
			pr.Delete("/{id}", patternsHandler.HandleDelete)
			pr.Post("/extract", patternsHandler.HandleExtract)
		})

		rtr.Get("/report/weekly", reportHandler.HandleWeekly)

		if deps.WS != nil {
			rtr.Get("/ws", deps.WS.HandleUpgrade)
		}
	})

	r.mux.Get("/", r.handleRoot)
	r.mux.NotFound(handleNotFound)
	r.mux.MethodNotAllowed(handleMethodNotAllowed)
}

// handleRoot serves basic server info and an endpoint map.
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	endpoints := map[string]string{
		"health":    "/health",
		"readiness": "/readiness",
		"liveness":  "/liveness",
		"entries":   "/api/v1/entries",
		"forecast":  "/api/v1/forecast",
		"week":      "/api/v1/forecast/week",
		"analytics": "/api/v1/analytics",
		"patterns":  "/api/v1/patterns",
		"report":    "/api/v1/report/weekly",
	}
	if r.deps.WS != nil {
		endpoints["websocket"] = "/api/v1/ws"
	}

	response.WriteSuccess(w, map[string]interface{}{
		"server":      "moodcast",
		"version":     r.deps.Version,
		"api_version": "v1",
		"endpoints":   endpoints,
		"features": map[string]bool{
			"extraction": r.deps.Extractor != nil,
			"websocket":  r.deps.WS != nil,
		},
	})
}

func handleNotFound(w http.ResponseWriter, req *http.Request) {
	response.WriteError(w, http.StatusNotFound, response.ErrorCodeNotFound,
		"Endpoint not found", "The requested resource does not exist")
}

func handleMethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	response.WriteError(w, http.StatusMethodNotAllowed, response.ErrorCodeMethodNotAllowed,
		"Method not allowed", "The HTTP method is not supported for this endpoint")
}
