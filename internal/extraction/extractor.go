package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"moodcast/internal/journal"
	"moodcast/internal/logging"
	"moodcast/internal/pattern"
	"moodcast/pkg/types"
)

// Prompt sizing. The extraction window trails the present; entries beyond
// the cap are dropped oldest-first.
const (
	contentWindowDays = 60
	maxPromptEntries  = 60
	maxEntryChars     = 280
)

// Extractor runs the full extraction pass: journal window, prompt,
// completion call, parse, ingest.
type Extractor struct {
	provider Provider
	patterns pattern.Store
	journal  journal.Store
	logger   logging.Logger
}

// NewExtractor wires an extractor. A nil logger is replaced with a no-op.
func NewExtractor(provider Provider, patterns pattern.Store, journalStore journal.Store, logger logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Extractor{
		provider: provider,
		patterns: patterns,
		journal:  journalStore,
		logger:   logger,
	}
}

// Extract runs one extraction pass. A failed or cancelled completion call
// yields zero new patterns and a logged warning; only journal or store
// failures surface as errors.
func (e *Extractor) Extract(ctx context.Context) (*IngestStats, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -contentWindowDays)

	entries, err := e.journal.ListRange(ctx, from, now.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load journal window: %w", err)
	}
	if len(entries) == 0 {
		e.logger.InfoContext(ctx, "No journal entries in extraction window, skipping")
		return &IngestStats{}, nil
	}

	raw, err := e.provider.Complete(ctx, buildPrompt(entries))
	if err != nil {
		e.logger.WarnContext(ctx, "Pattern extraction call failed, keeping existing patterns", "error", err)
		stats := &IngestStats{}
		stats.reason("extraction call failed: %v", err)
		return stats, nil
	}

	result, err := ParseResult([]byte(raw))
	if err != nil {
		e.logger.WarnContext(ctx, "Pattern extraction returned unusable payload", "error", err)
		stats := &IngestStats{}
		stats.reason("unusable payload: %v", err)
		return stats, nil
	}

	return Ingest(ctx, result, e.patterns, e.logger)
}

// buildPrompt renders the journal window oldest-first, one line per entry.
func buildPrompt(entries []types.JournalEntry) string {
	if len(entries) > maxPromptEntries {
		entries = entries[len(entries)-maxPromptEntries:]
	}

	var b strings.Builder
	b.WriteString("Journal entries, oldest first:\n")
	for i := range entries {
		entry := &entries[i]
		b.WriteString(entry.CreatedAt.Format("2006-01-02 Mon"))
		if entry.HasMood() {
			fmt.Fprintf(&b, " (mood %d/10)", *entry.Mood)
		}
		b.WriteString(": ")
		b.WriteString(clipContent(entry.Content))
		b.WriteByte('\n')
	}
	return b.String()
}

// clipContent collapses whitespace and truncates long entries on a rune
// boundary.
func clipContent(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= maxEntryChars {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxEntryChars]) + "..."
}
