// openapi validates and serves the MoodCast API specification. The spec
// ships in api/openapi.yaml; `validate` checks it against the OpenAPI 3.0
// rules and `serve` hosts it with a Swagger UI shell.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

const defaultSpecPath = "api/openapi.yaml"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		if err := validateSpec(); err != nil {
			fmt.Fprintf(os.Stderr, "validate: %v\n", err)
			os.Exit(1)
		}
	case "serve":
		if err := serveDocs(); err != nil {
			fmt.Fprintf(os.Stderr, "serve: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: openapi <command>")
	fmt.Println("Commands:")
	fmt.Println("  validate - Check api/openapi.yaml against the OpenAPI 3.0 rules")
	fmt.Println("  serve    - Host the spec with interactive documentation")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  MOODCAST_OPENAPI_SPEC - spec path (default api/openapi.yaml)")
	fmt.Println("  MOODCAST_OPENAPI_PORT - serve port (default 8081)")
}

func validateSpec() error {
	doc, err := loadSpec()
	if err != nil {
		return err
	}

	if err := doc.Validate(openapi3.NewLoader().Context); err != nil {
		return fmt.Errorf("specification invalid: %w", err)
	}

	fmt.Println("OpenAPI specification is valid")
	fmt.Printf("  paths:      %d\n", doc.Paths.Len())
	fmt.Printf("  operations: %d\n", countOperations(doc))
	fmt.Printf("  schemas:    %d\n", len(doc.Components.Schemas))
	return nil
}

func serveDocs() error {
	router := mux.NewRouter()

	router.HandleFunc("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		doc, err := loadSpec()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	})

	router.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		data, err := os.ReadFile(specPath()) // #nosec G304 -- path comes from the operator
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(data)
	})

	router.HandleFunc("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(docsPage))
	})

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusTemporaryRedirect)
	})

	port := os.Getenv("MOODCAST_OPENAPI_PORT")
	if port == "" {
		port = "8081"
	}

	fmt.Printf("Serving MoodCast API documentation at http://localhost:%s/docs\n", port)
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func specPath() string {
	if path := os.Getenv("MOODCAST_OPENAPI_SPEC"); path != "" {
		return path
	}
	return defaultSpecPath
}

// loadSpec reads the YAML spec and parses it through the OpenAPI loader.
// The YAML goes through a JSON roundtrip because the loader wants JSON keys.
func loadSpec() (*openapi3.T, error) {
	data, err := os.ReadFile(specPath()) // #nosec G304 -- path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	var specData interface{}
	if err := yaml.Unmarshal(data, &specData); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	jsonData, err := json.Marshal(specData)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to JSON: %w", err)
	}

	doc, err := openapi3.NewLoader().LoadFromData(jsonData)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	return doc, nil
}

func countOperations(doc *openapi3.T) int {
	count := 0
	for _, pathItem := range doc.Paths.Map() {
		for range pathItem.Operations() {
			count++
		}
	}
	return count
}

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>MoodCast API Documentation</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@4/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@4/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: "/openapi.json",
                dom_id: '#swagger-ui',
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                layout: "StandaloneLayout"
            });
        }
    </script>
</body>
</html>
`
