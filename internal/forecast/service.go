package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"moodcast/internal/analytics"
	"moodcast/internal/cache"
	"moodcast/internal/journal"
	"moodcast/internal/logging"
	"moodcast/pkg/types"
)

// ErrHorizonExceeded is returned for targets beyond the configured
// forecast horizon.
var ErrHorizonExceeded = errors.New("forecast horizon exceeds the configured maximum")

const (
	triggerWindowDays   = 3
	defaultMaxHorizon   = 14
	defaultRangeWorkers = 4

	forecastCachePrefix = "forecast"
)

// Service orchestrates the forecasting pipeline: base estimate, contextual
// corrections, confidence modeling, analytics enrichment, and outlook
// classification. One immutable MoodPrediction per requested date, cached
// for the configured freshness window.
type Service struct {
	journal      journal.Store
	analytics    *analytics.Engine
	predictor    *Predictor
	adjuster     *Adjuster
	gatherer     *Gatherer
	cache        cache.Cache
	ttl          time.Duration
	maxHorizon   int
	rangeWorkers int
	logger       logging.Logger
}

// ServiceConfig tunes the forecasting service. A nil Cache disables
// forecast caching; zero values fall back to defaults.
type ServiceConfig struct {
	Cache          cache.Cache
	TTL            time.Duration
	MaxHorizonDays int
	RangeWorkers   int
}

// NewService wires the forecasting service from its collaborators.
func NewService(journalStore journal.Store, analyticsEngine *analytics.Engine, predictor *Predictor, adjuster *Adjuster, gatherer *Gatherer, cfg ServiceConfig, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	maxHorizon := cfg.MaxHorizonDays
	if maxHorizon <= 0 {
		maxHorizon = defaultMaxHorizon
	}
	rangeWorkers := cfg.RangeWorkers
	if rangeWorkers <= 0 {
		rangeWorkers = defaultRangeWorkers
	}
	return &Service{
		journal:      journalStore,
		analytics:    analyticsEngine,
		predictor:    predictor,
		adjuster:     adjuster,
		gatherer:     gatherer,
		cache:        cfg.Cache,
		ttl:          cfg.TTL,
		maxHorizon:   maxHorizon,
		rangeWorkers: rangeWorkers,
		logger:       logger,
	}
}

// DateOnly normalizes to midnight UTC of the same calendar day.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysAhead counts whole calendar days from now's date to the target date.
func DaysAhead(now, target time.Time) int {
	return int(DateOnly(target).Sub(DateOnly(now)) / (24 * time.Hour))
}

// Forecast returns the mood prediction for the given date, serving a
// cached copy while fresh. Past dates are allowed; the horizon decay
// simply tops out for them.
func (s *Service) Forecast(ctx context.Context, date time.Time) (*types.MoodPrediction, error) {
	target := DateOnly(date)
	if ahead := DaysAhead(time.Now().UTC(), target); ahead > s.maxHorizon {
		return nil, fmt.Errorf("%w: %d days ahead, maximum %d", ErrHorizonExceeded, ahead, s.maxHorizon)
	}

	if s.cache == nil {
		return s.compute(ctx, target)
	}

	key := cache.Key(forecastCachePrefix, target.Format("2006-01-02"))
	raw, err := cache.GetOrCompute(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]byte, error) {
		prediction, err := s.compute(ctx, target)
		if err != nil {
			return nil, err
		}
		return json.Marshal(prediction)
	})
	if err != nil {
		return nil, err
	}

	var prediction types.MoodPrediction
	if err := json.Unmarshal(raw, &prediction); err != nil {
		return nil, fmt.Errorf("failed to decode cached forecast: %w", err)
	}
	return &prediction, nil
}

// ForecastRange forecasts consecutive days starting at start, fanned out
// over a small worker pool so independent dates never serialize. The whole
// range must fit inside the configured horizon.
func (s *Service) ForecastRange(ctx context.Context, start time.Time, days int) ([]types.MoodPrediction, error) {
	if days < 1 {
		return nil, errors.New("range must cover at least one day")
	}
	first := DateOnly(start)
	if ahead := DaysAhead(time.Now().UTC(), first.AddDate(0, 0, days-1)); ahead > s.maxHorizon {
		return nil, fmt.Errorf("%w: range ends %d days ahead, maximum %d", ErrHorizonExceeded, ahead, s.maxHorizon)
	}

	predictions := make([]types.MoodPrediction, days)
	errs := make([]error, days)

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.rangeWorkers)
	for i := 0; i < days; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			prediction, err := s.Forecast(ctx, first.AddDate(0, 0, i))
			if err != nil {
				errs[i] = err
				return
			}
			predictions[i] = *prediction
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return predictions, nil
}

// Invalidate drops all cached forecasts. Called whenever journal entries
// or learned patterns change.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, forecastCachePrefix+":"); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate forecasts", "error", err)
	}
}

func (s *Service) compute(ctx context.Context, target time.Time) (*types.MoodPrediction, error) {
	entries, err := s.journal.AllScored(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load journal entries: %w", err)
	}

	base := s.predictor.BaseEstimate(target, entries)
	factors := s.gatherer.Factors(ctx, target)

	adjusted, dataConfidence, contributing := s.adjuster.Adjust(ctx, AdjustInput{
		Base:          base,
		Target:        target,
		Factors:       factors,
		EntryCount:    len(entries),
		RecentContent: s.recentContent(ctx, target),
	})

	daysAhead := DaysAhead(time.Now().UTC(), target)
	confidence := types.ClampUnit(dataConfidence * HorizonDecay(daysAhead))
	vol := Volatility(target, entries)

	summary, err := s.analytics.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics summary: %w", err)
	}

	predicted := types.ClampMood(adjusted)
	comparative := predicted - summary.PersonalBaseline

	state := classifyOutlook(summary.Trend, summary.TrendStrength, comparative, vol)
	outlook, support := outlookFor(state)

	prediction := &types.MoodPrediction{
		Date:                target,
		PredictedMood:       predicted,
		Confidence:          confidence,
		ContributingFactors: contributing,
		ComparativeScore:    comparative,
		Band:                Band(predicted, confidence, vol),
		Trend:               summary.Trend,
		Outlook:             outlook,
		SupportSuggestion:   support,
		GeneratedAt:         time.Now().UTC(),
	}

	s.logger.InfoContext(ctx, "Generated forecast",
		"date", target.Format("2006-01-02"),
		"predicted", prediction.PredictedMood,
		"confidence", prediction.Confidence,
		"outlook", string(state))

	return prediction, nil
}

// recentContent returns the journal text from the three days before the
// target for trigger scanning. Failures degrade to an empty window.
func (s *Service) recentContent(ctx context.Context, target time.Time) []string {
	entries, err := s.journal.ListRange(ctx, target.AddDate(0, 0, -triggerWindowDays), target)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load recent content window", "error", err)
		return nil
	}
	contents := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Content != "" {
			contents = append(contents, e.Content)
		}
	}
	return contents
}
