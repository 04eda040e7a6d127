package main

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The shipped spec must always load and validate; routing drift gets
// caught here rather than by an API consumer.
func TestShippedSpecIsValid(t *testing.T) {
	t.Setenv("MOODCAST_OPENAPI_SPEC", "../../api/openapi.yaml")

	doc, err := loadSpec()
	require.NoError(t, err)
	require.NoError(t, doc.Validate(openapi3.NewLoader().Context))

	assert.Equal(t, "MoodCast API", doc.Info.Title)

	for _, path := range []string{
		"/health",
		"/api/v1/entries",
		"/api/v1/entries/{id}",
		"/api/v1/entries/{id}/mood",
		"/api/v1/forecast",
		"/api/v1/forecast/week",
		"/api/v1/analytics",
		"/api/v1/patterns",
		"/api/v1/patterns/{id}",
		"/api/v1/patterns/extract",
		"/api/v1/report/weekly",
		"/api/v1/ws",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "missing path %s", path)
	}

	assert.GreaterOrEqual(t, countOperations(doc), 14)
}

func TestSpecPathDefaultsAndOverride(t *testing.T) {
	t.Setenv("MOODCAST_OPENAPI_SPEC", "")
	assert.Equal(t, defaultSpecPath, specPath())

	t.Setenv("MOODCAST_OPENAPI_SPEC", "/tmp/other.yaml")
	assert.Equal(t, "/tmp/other.yaml", specPath())
}

func TestLoadSpecMissingFile(t *testing.T) {
	t.Setenv("MOODCAST_OPENAPI_SPEC", "does-not-exist.yaml")
	_, err := loadSpec()
	require.Error(t, err)
}
