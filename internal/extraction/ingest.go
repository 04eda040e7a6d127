package extraction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"moodcast/internal/logging"
	"moodcast/internal/pattern"
	"moodcast/pkg/types"
)

// occupationConfidence anchors occupation patterns just above the acceptance
// threshold. The payload contract carries no per-occupation confidence.
const occupationConfidence = 0.6

// IngestStats summarizes one ingest batch. Every payload item lands in
// exactly one counter.
type IngestStats struct {
	Accepted  int      `json:"accepted"`
	Refreshed int      `json:"refreshed"`
	Skipped   int      `json:"skipped"`
	Malformed int      `json:"malformed"`
	Failed    int      `json:"failed"`
	Reasons   []string `json:"reasons,omitempty"`
}

// Total returns the number of items the batch carried.
func (s *IngestStats) Total() int {
	return s.Accepted + s.Refreshed + s.Skipped + s.Malformed + s.Failed
}

func (s *IngestStats) reason(format string, args ...interface{}) {
	s.Reasons = append(s.Reasons, fmt.Sprintf(format, args...))
}

// mergeKey identifies a pattern by its discriminating value so repeated
// extractions refresh existing patterns instead of duplicating them.
func mergeKey(p *types.PersonalPattern) string {
	switch p.Type {
	case types.PatternOccupation:
		return "occupation"
	case types.PatternWeekdayPreference:
		return fmt.Sprintf("weekday:%d", int(*p.Weekday))
	case types.PatternSignificantDate:
		return "date:" + p.MonthDay.String()
	case types.PatternRecurringTrigger:
		kw := append([]string(nil), p.Keywords...)
		sort.Strings(kw)
		return "trigger:" + strings.Join(kw, "|")
	}
	return ""
}

// normalizeKeywords trims, lowercases, and dedupes trigger keywords while
// preserving their order.
func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// Ingest validates every item in the result and upserts the survivors into
// the store. Items matching an existing pattern's discriminating value
// refresh it in place, keeping its ID and creation time. Malformed items
// are counted and skipped; they never abort the batch.
func Ingest(ctx context.Context, result *ExtractionResult, store pattern.Store, logger logging.Logger) (*IngestStats, error) {
	stats := &IngestStats{}
	if result == nil {
		return stats, errors.New("extraction result cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	existing, err := store.All(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list existing patterns: %w", err)
	}
	// Listings come highest-confidence first, so keeping the first
	// occurrence per key makes it the refresh target.
	byKey := make(map[string]*types.PersonalPattern, len(existing))
	for i := range existing {
		p := existing[i]
		if k := mergeKey(&p); byKey[k] == nil {
			byKey[k] = &p
		}
	}

	now := time.Now().UTC()
	apply := func(p *types.PersonalPattern) {
		refreshing := false
		if prev := byKey[mergeKey(p)]; prev != nil {
			p.ID = prev.ID
			p.CreatedAt = prev.CreatedAt
			refreshing = true
		}
		p.LastSeenAt = now

		if err := store.Put(ctx, p); err != nil {
			stats.Failed++
			stats.reason("store rejected %s pattern: %v", p.Type, err)
			return
		}
		if refreshing {
			stats.Refreshed++
		} else {
			stats.Accepted++
		}
	}

	if occ := strings.TrimSpace(result.OccupationType); occ != "" && occ != string(types.OccupationUnknown) {
		if p, reason := buildOccupation(occ); p != nil {
			apply(p)
		} else {
			stats.Malformed++
			stats.reason("%s", reason)
		}
	}

	for _, item := range result.SignificantDates {
		p, reason := buildSignificantDate(item)
		ingestItem(stats, apply, p, reason)
	}
	for _, item := range result.WeekdayPatterns {
		p, reason := buildWeekdayPattern(item)
		ingestItem(stats, apply, p, reason)
	}
	for _, item := range result.EmotionalTriggers {
		p, reason := buildTrigger(item)
		ingestItem(stats, apply, p, reason)
	}

	logger.InfoContext(ctx, "Ingested extraction result",
		"accepted", stats.Accepted,
		"refreshed", stats.Refreshed,
		"skipped", stats.Skipped,
		"malformed", stats.Malformed,
		"failed", stats.Failed,
	)
	return stats, nil
}

// ingestItem routes one built item into the right counter.
func ingestItem(stats *IngestStats, apply func(*types.PersonalPattern), p *types.PersonalPattern, reason string) {
	switch {
	case p != nil:
		apply(p)
	case reason == "":
		stats.Skipped++
	default:
		stats.Malformed++
		stats.reason("%s", reason)
	}
}

// Item builders return (pattern, ""), (nil, reason) for malformed items,
// or (nil, "") for items below the acceptance threshold.

func buildOccupation(raw string) (*types.PersonalPattern, string) {
	occ := types.OccupationType(raw)
	if !occ.Valid() {
		return nil, fmt.Sprintf("unknown occupation type %q", raw)
	}
	p, err := types.NewPersonalPattern(types.PatternOccupation, "occupation category: "+raw, 0, occupationConfidence)
	if err != nil {
		return nil, err.Error()
	}
	p.Occupation = occ
	return p, ""
}

func buildSignificantDate(item SignificantDate) (*types.PersonalPattern, string) {
	md, err := types.ParseMonthDay(item.MonthDay)
	if err != nil {
		return nil, fmt.Sprintf("significant date: %v", err)
	}
	p, err := types.NewPersonalPattern(types.PatternSignificantDate, item.Description, item.MoodImpact, item.Confidence)
	if err != nil {
		return nil, fmt.Sprintf("significant date %s: %v", item.MonthDay, err)
	}
	if item.Confidence < types.MinPatternConfidence {
		return nil, ""
	}
	p.MonthDay = &md
	return p, ""
}

func buildWeekdayPattern(item WeekdayPattern) (*types.PersonalPattern, string) {
	wd, err := types.ParseWeekdayName(item.DayName)
	if err != nil {
		return nil, fmt.Sprintf("weekday pattern: %v", err)
	}
	p, err := types.NewPersonalPattern(types.PatternWeekdayPreference, item.Description, item.MoodImpact, item.Confidence)
	if err != nil {
		return nil, fmt.Sprintf("weekday pattern %s: %v", item.DayName, err)
	}
	if item.Confidence < types.MinPatternConfidence {
		return nil, ""
	}
	p.Weekday = &wd
	return p, ""
}

func buildTrigger(item EmotionalTrigger) (*types.PersonalPattern, string) {
	keywords := normalizeKeywords(item.Keywords)
	if len(keywords) == 0 {
		return nil, "emotional trigger: no usable keywords"
	}
	p, err := types.NewPersonalPattern(types.PatternRecurringTrigger, item.Description, item.MoodImpact, item.Confidence)
	if err != nil {
		return nil, fmt.Sprintf("emotional trigger: %v", err)
	}
	if item.Confidence < types.MinPatternConfidence {
		return nil, ""
	}
	p.Keywords = keywords
	return p, ""
}
