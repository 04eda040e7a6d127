// moodctl runs MoodCast analytics and forecasting locally against a JSON
// journal export, without a server. It prints a colorized summary of the
// forecast, contributing factors, and weekday ranking.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"moodcast/internal/almanac"
	"moodcast/internal/analytics"
	"moodcast/internal/cache"
	"moodcast/internal/forecast"
	"moodcast/internal/journal"
	"moodcast/internal/pattern"
	"moodcast/pkg/types"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

func main() {
	if err := run(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "moodctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		journalPath = flag.String("journal", "", "path to a JSON journal export, or - for stdin")
		dateStr     = flag.String("date", "", "forecast date as YYYY-MM-DD (default tomorrow)")
		days        = flag.Int("days", 1, "number of days to forecast")
		locale      = flag.String("locale", "en-US", "holiday locale for contextual factors")
		noColor     = flag.Bool("no-color", false, "disable colorized output")
	)
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	if *journalPath == "" {
		return errors.New("a journal export is required: -journal <file> (or - for stdin)")
	}
	if *days < 1 {
		return fmt.Errorf("days must be at least 1, got %d", *days)
	}

	target := forecast.DateOnly(time.Now().UTC()).AddDate(0, 0, 1)
	if *dateStr != "" {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", *dateStr)
		}
		target = forecast.DateOnly(parsed)
	}

	entries, skipped, err := loadJournal(*journalPath)
	if err != nil {
		return err
	}

	p := newPrinter(os.Stdout)
	ctx := context.Background()

	engine, svc, cleanup, err := buildStack(ctx, entries, *locale, p.warn)
	if err != nil {
		return err
	}
	defer cleanup()

	p.banner()
	total, scored, dropped, first, last := journalShape(entries, skipped)
	p.journalLine(total, scored, dropped, first, last)

	summary, err := engine.Summary(ctx)
	if err != nil {
		return fmt.Errorf("analytics: %w", err)
	}

	if *days == 1 {
		pred, err := svc.Forecast(ctx, target)
		if err != nil {
			return err
		}
		p.forecastCard(pred)
		p.factors(pred.ContributingFactors)
	} else {
		preds, err := svc.ForecastRange(ctx, target, *days)
		if err != nil {
			return err
		}
		p.rangeHeading(target, *days)
		for i := range preds {
			p.forecastRow(&preds[i])
		}
	}

	p.weekdays(summary)
	p.insights(summary)
	return nil
}

// loadJournal reads and repairs a journal export. Entries missing an ID get
// one minted; entries that still fail validation are dropped and counted.
func loadJournal(path string) ([]*types.JournalEntry, int, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- path comes from the operator
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading journal: %w", err)
	}

	entries, err := decodeEntries(data)
	if err != nil {
		return nil, 0, err
	}

	kept := make([]*types.JournalEntry, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		if e == nil {
			skipped++
			continue
		}
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if err := e.Validate(); err != nil {
			skipped++
			continue
		}
		kept = append(kept, e)
	}
	return kept, skipped, nil
}

// decodeEntries accepts the three shapes a journal export shows up in: a
// bare array, an object with an "entries" key, and the API success envelope.
// The last keeps `curl .../entries | moodctl -journal -` working.
func decodeEntries(data []byte) ([]*types.JournalEntry, error) {
	var direct []*types.JournalEntry
	if err := json.Unmarshal(data, &direct); err == nil {
		return direct, nil
	}

	var wrapped struct {
		Entries []*types.JournalEntry `json:"entries"`
		Data    *struct {
			Entries []*types.JournalEntry `json:"entries"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing journal export: %w", err)
	}
	if wrapped.Entries != nil {
		return wrapped.Entries, nil
	}
	if wrapped.Data != nil && wrapped.Data.Entries != nil {
		return wrapped.Data.Entries, nil
	}
	return nil, errors.New("journal export has no entries")
}

// buildStack assembles the in-process analytics and forecast pipeline over
// the loaded entries. Weather stays off; the CLI runs offline.
func buildStack(ctx context.Context, entries []*types.JournalEntry, locale string, warn func(string)) (*analytics.Engine, *forecast.Service, func(), error) {
	journalStore := journal.NewMemoryStore()
	for _, e := range entries {
		if err := journalStore.Put(ctx, e); err != nil {
			return nil, nil, nil, fmt.Errorf("loading entry %s: %w", e.ID, err)
		}
	}

	patternStore := pattern.NewMemoryStore()
	cacheStore := cache.NewMemory(nil)

	engine := analytics.NewEngine(journalStore, patternStore, cacheStore, time.Minute, nil)

	calendar, err := almanac.NewCalendar(locale)
	if err != nil {
		warn(fmt.Sprintf("holiday calendar unavailable for %s: %v", locale, err))
		calendar = nil
	}

	svc := forecast.NewService(
		journalStore,
		engine,
		forecast.NewPredictor(false),
		forecast.NewAdjuster(patternStore, nil),
		forecast.NewGatherer(forecast.GathererConfig{Calendar: calendar}, nil),
		forecast.ServiceConfig{Cache: cacheStore, TTL: time.Minute},
		nil,
	)

	cleanup := func() { _ = cacheStore.Close() }
	return engine, svc, cleanup, nil
}

// journalShape summarizes the loaded entries for the header line.
func journalShape(entries []*types.JournalEntry, skipped int) (total, scored, dropped int, first, last time.Time) {
	for _, e := range entries {
		if e.HasMood() {
			scored++
		}
		if first.IsZero() || e.CreatedAt.Before(first) {
			first = e.CreatedAt
		}
		if e.CreatedAt.After(last) {
			last = e.CreatedAt
		}
	}
	return len(entries), scored, skipped, first, last
}
