// Package extraction consumes structured pattern-extraction output from an
// AI completion call and turns it into persisted personal patterns. The
// payload contract is versioned; items failing validation or the acceptance
// threshold are skipped individually and never abort a batch.
package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// SchemaVersion is the extraction payload contract this build understands.
const SchemaVersion = 1

// ErrUnknownSchema is returned for payloads declaring a schema version this
// build does not speak.
var ErrUnknownSchema = errors.New("unknown extraction schema version")

// ExtractionResult is the versioned payload the extraction model returns.
// A missing schemaVersion means version 1.
type ExtractionResult struct {
	SchemaVersion     int                `json:"schemaVersion,omitempty" mapstructure:"schemaVersion"`
	OccupationType    string             `json:"occupationType,omitempty" mapstructure:"occupationType"`
	SignificantDates  []SignificantDate  `json:"significantDates,omitempty" mapstructure:"significantDates"`
	WeekdayPatterns   []WeekdayPattern   `json:"weekdayPatterns,omitempty" mapstructure:"weekdayPatterns"`
	EmotionalTriggers []EmotionalTrigger `json:"emotionalTriggers,omitempty" mapstructure:"emotionalTriggers"`
}

// SignificantDate is a recurring calendar date the model found in the journal.
type SignificantDate struct {
	MonthDay    string  `json:"monthDay" mapstructure:"monthDay"`
	Description string  `json:"description" mapstructure:"description"`
	MoodImpact  float64 `json:"moodImpact" mapstructure:"moodImpact"`
	Confidence  float64 `json:"confidence" mapstructure:"confidence"`
}

// WeekdayPattern is a personal good or bad weekday the model found.
type WeekdayPattern struct {
	DayName     string  `json:"dayName" mapstructure:"dayName"`
	Description string  `json:"description" mapstructure:"description"`
	MoodImpact  float64 `json:"moodImpact" mapstructure:"moodImpact"`
	Confidence  float64 `json:"confidence" mapstructure:"confidence"`
}

// EmotionalTrigger is a keyword set whose appearance in journal content
// predicts a mood shift.
type EmotionalTrigger struct {
	Keywords    []string `json:"keywords" mapstructure:"keywords"`
	Description string   `json:"description" mapstructure:"description"`
	MoodImpact  float64  `json:"moodImpact" mapstructure:"moodImpact"`
	Confidence  float64  `json:"confidence" mapstructure:"confidence"`
}

// IsEmpty reports whether the result carries no items at all.
func (r *ExtractionResult) IsEmpty() bool {
	return r.OccupationType == "" &&
		len(r.SignificantDates) == 0 &&
		len(r.WeekdayPatterns) == 0 &&
		len(r.EmotionalTriggers) == 0
}

// ParseResult parses a raw completion payload into an ExtractionResult.
// Markdown code fences around the JSON are tolerated; anything else
// malformed at the top level is an error.
func ParseResult(data []byte) (*ExtractionResult, error) {
	payload := stripFences(data)

	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("malformed extraction payload: %w", err)
	}

	var result ExtractionResult
	if err := mapstructure.Decode(raw, &result); err != nil {
		return nil, fmt.Errorf("invalid extraction payload: %w", err)
	}

	if result.SchemaVersion == 0 {
		result.SchemaVersion = 1
	}
	if result.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchema, result.SchemaVersion)
	}

	return &result, nil
}

// stripFences removes a surrounding markdown code fence, which completion
// models add even when told not to.
func stripFences(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("```")) {
		return trimmed
	}

	if idx := bytes.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = bytes.TrimSpace(trimmed)
	trimmed = bytes.TrimSuffix(trimmed, []byte("```"))
	return bytes.TrimSpace(trimmed)
}
