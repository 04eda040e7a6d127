package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
  "schemaVersion": 1,
  "occupationType": "office",
  "significantDates": [{"monthDay": "03-14", "description": "anniversary", "moodImpact": 1.5, "confidence": 0.9}],
  "weekdayPatterns": [{"dayName": "Monday", "description": "meeting day", "moodImpact": -0.8, "confidence": 0.7}],
  "emotionalTriggers": [{"keywords": ["Deadline", " code review "], "description": "work pressure", "moodImpact": -1.2, "confidence": 0.8}]
}`

func TestParseResult(t *testing.T) {
	result, err := ParseResult([]byte(samplePayload))
	require.NoError(t, err)

	assert.Equal(t, 1, result.SchemaVersion)
	assert.Equal(t, "office", result.OccupationType)
	require.Len(t, result.SignificantDates, 1)
	assert.Equal(t, "03-14", result.SignificantDates[0].MonthDay)
	assert.Equal(t, 1.5, result.SignificantDates[0].MoodImpact)
	require.Len(t, result.WeekdayPatterns, 1)
	assert.Equal(t, "Monday", result.WeekdayPatterns[0].DayName)
	require.Len(t, result.EmotionalTriggers, 1)
	assert.Equal(t, []string{"Deadline", " code review "}, result.EmotionalTriggers[0].Keywords)
	assert.False(t, result.IsEmpty())
}

func TestParseResult_DefaultsSchemaVersion(t *testing.T) {
	result, err := ParseResult([]byte(`{"occupationType": "student"}`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SchemaVersion)
	assert.Equal(t, "student", result.OccupationType)
}

func TestParseResult_UnknownSchemaVersion(t *testing.T) {
	_, err := ParseResult([]byte(`{"schemaVersion": 7, "occupationType": "office"}`))
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestParseResult_MalformedJSON(t *testing.T) {
	_, err := ParseResult([]byte(`{"occupationType": `))
	assert.Error(t, err)

	_, err = ParseResult([]byte(`[]`))
	assert.Error(t, err)
}

func TestParseResult_StripsCodeFences(t *testing.T) {
	fenced := "```json\n" + samplePayload + "\n```"
	result, err := ParseResult([]byte(fenced))
	require.NoError(t, err)
	assert.Equal(t, "office", result.OccupationType)

	bare := "```\n" + `{"occupationType": "remote"}` + "\n```"
	result, err = ParseResult([]byte(bare))
	require.NoError(t, err)
	assert.Equal(t, "remote", result.OccupationType)
}

func TestExtractionResult_IsEmpty(t *testing.T) {
	assert.True(t, (&ExtractionResult{SchemaVersion: 1}).IsEmpty())
	assert.False(t, (&ExtractionResult{OccupationType: "office"}).IsEmpty())
	assert.False(t, (&ExtractionResult{WeekdayPatterns: []WeekdayPattern{{DayName: "Monday"}}}).IsEmpty())
}
