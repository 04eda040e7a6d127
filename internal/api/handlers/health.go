// Package handlers provides HTTP request handlers for the MoodCast API.
package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"moodcast/internal/api/response"
	"moodcast/internal/config"
	"moodcast/internal/journal"
	"moodcast/internal/pattern"
)

// HealthHandler reports service health for probes and dashboards.
type HealthHandler struct {
	config    *config.Config
	journal   journal.Store
	patterns  pattern.Store
	version   string
	startTime time.Time
}

// HealthStatus is the health check response structure.
type HealthStatus struct {
	Status    string           `json:"status"`
	Server    string           `json:"server"`
	Version   string           `json:"version"`
	Uptime    string           `json:"uptime"`
	Timestamp string           `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	System    SystemInfo       `json:"system"`
}

// Check is an individual health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo carries runtime diagnostics.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemoryMB     uint64 `json:"memory_mb"`
}

// NewHealthHandler creates a health check handler.
func NewHealthHandler(cfg *config.Config, journalStore journal.Store, patternStore pattern.Store, version string) *HealthHandler {
	return &HealthHandler{
		config:    cfg,
		journal:   journalStore,
		patterns:  patternStore,
		version:   version,
		startTime: time.Now(),
	}
}

// Handle serves the full health report.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Server:    "moodcast",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    h.runChecks(ctx),
		System:    systemInfo(),
	}
	status.Status = overallStatus(status.Checks)

	statusCode := http.StatusOK
	if status.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	response.WriteJSON(w, statusCode, status)
}

// HandleLiveness answers liveness probes. If the process can serve this,
// it is alive.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, map[string]string{"status": "alive"})
}

// HandleReadiness answers readiness probes by touching the journal store.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.journal.CountScored(ctx); err != nil {
		response.WriteServiceUnavailable(w, "Journal store not ready", err.Error())
		return
	}
	response.WriteSuccess(w, map[string]string{"status": "ready"})
}

func (h *HealthHandler) runChecks(ctx context.Context) map[string]Check {
	return map[string]Check{
		"journal":  h.checkJournal(ctx),
		"patterns": h.checkPatterns(ctx),
		"config":   h.checkConfig(),
		"memory":   checkMemory(),
	}
}

func (h *HealthHandler) checkJournal(ctx context.Context) Check {
	start := time.Now()
	count, err := h.journal.CountScored(ctx)
	latency := time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency}
	}
	if count == 0 {
		return Check{Status: "healthy", Message: "No scored entries yet", Latency: latency}
	}
	return Check{Status: "healthy", Latency: latency}
}

func (h *HealthHandler) checkPatterns(ctx context.Context) Check {
	start := time.Now()
	_, err := h.patterns.Count(ctx)
	latency := time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		return Check{Status: "unhealthy", Message: err.Error(), Latency: latency}
	}
	return Check{Status: "healthy", Latency: latency}
}

func (h *HealthHandler) checkConfig() Check {
	if err := h.config.Validate(); err != nil {
		return Check{Status: "warning", Message: "Configuration validation warning: " + err.Error()}
	}
	return Check{Status: "healthy"}
}

// checkMemory flags runaway allocation. The threshold is generous for a
// single-user service.
func checkMemory() Check {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	if m.Alloc/1024/1024 > 500 {
		return Check{Status: "warning", Message: "High memory usage"}
	}
	return Check{Status: "healthy"}
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		MemoryMB:     m.Alloc / 1024 / 1024,
	}
}

func overallStatus(checks map[string]Check) string {
	status := "healthy"
	for _, check := range checks {
		switch check.Status {
		case "unhealthy":
			return "unhealthy"
		case "warning":
			status = "warning"
		}
	}
	return status
}
