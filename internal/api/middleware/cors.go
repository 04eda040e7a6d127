package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORSMiddleware applies CORS headers for browser dashboards that talk
// to the API from another origin.
type CORSMiddleware struct {
	config CORSConfig
}

// NewCORSMiddleware creates CORS middleware, filling in defaults for
// anything the config leaves empty.
func NewCORSMiddleware(config *CORSConfig) *CORSMiddleware {
	if len(config.AllowedMethods) == 0 {
		config.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(config.AllowedHeaders) == 0 {
		config.AllowedHeaders = []string{
			"Accept",
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"X-Request-ID",
		}
	}
	if len(config.ExposedHeaders) == 0 {
		config.ExposedHeaders = []string{
			"X-Request-ID",
			"Content-Disposition",
		}
	}
	if config.MaxAge == 0 {
		config.MaxAge = 86400 // 24 hours
	}

	return &CORSMiddleware{config: *config}
}

// NewDefaultCORSMiddleware allows the usual local dashboard origins.
func NewDefaultCORSMiddleware() *CORSMiddleware {
	return NewCORSMiddleware(&CORSConfig{
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8080",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
			"http://127.0.0.1:8080",
		},
		AllowCredentials: true,
	})
}

// Handler returns the CORS middleware handler.
func (c *CORSMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Same-origin requests carry no Origin header.
			if origin == "" || c.isOriginAllowed(origin) {
				c.setCORSHeaders(w, origin)
			}

			if r.Method == http.MethodOptions {
				c.handlePreflight(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isOriginAllowed checks the origin against the allowed list,
// including "*" and wildcard subdomain patterns.
func (c *CORSMiddleware) isOriginAllowed(origin string) bool {
	for _, allowed := range c.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
		if matchesWildcard(allowed, origin) {
			return true
		}
	}
	return false
}

// matchesWildcard matches patterns like "*.example.com".
func matchesWildcard(pattern, origin string) bool {
	if !strings.HasPrefix(pattern, "*.") {
		return false
	}
	return strings.HasSuffix(origin, pattern[1:])
}

func (c *CORSMiddleware) setCORSHeaders(w http.ResponseWriter, origin string) {
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	} else if len(c.config.AllowedOrigins) == 1 && c.config.AllowedOrigins[0] == "*" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}

	if c.config.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	if len(c.config.ExposedHeaders) > 0 {
		w.Header().Set("Access-Control-Expose-Headers", strings.Join(c.config.ExposedHeaders, ", "))
	}
}

// handlePreflight answers CORS preflight OPTIONS requests.
func (c *CORSMiddleware) handlePreflight(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	if origin == "" || !c.isOriginAllowed(origin) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	c.setCORSHeaders(w, origin)
	w.Header().Set("Access-Control-Allow-Methods", strings.Join(c.config.AllowedMethods, ", "))

	requested := r.Header.Get("Access-Control-Request-Headers")
	if requested != "" && c.areHeadersAllowed(requested) {
		w.Header().Set("Access-Control-Allow-Headers", requested)
	} else {
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(c.config.AllowedHeaders, ", "))
	}

	w.Header().Set("Access-Control-Max-Age", strconv.Itoa(c.config.MaxAge))
	w.WriteHeader(http.StatusOK)
}

// areHeadersAllowed reports whether every requested header is allowed.
func (c *CORSMiddleware) areHeadersAllowed(requested string) bool {
	allowed := make(map[string]bool, len(c.config.AllowedHeaders))
	for _, header := range c.config.AllowedHeaders {
		allowed[strings.ToLower(strings.TrimSpace(header))] = true
	}

	for _, header := range strings.Split(requested, ",") {
		if !allowed[strings.ToLower(strings.TrimSpace(header))] {
			return false
		}
	}
	return true
}
