// Package report renders analytics summaries and mood forecasts into
// weekly reports, as markdown or standalone HTML.
package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"moodcast/pkg/types"
)

// Format selects the output encoding of a rendered report.
type Format string

const (
	// FormatMarkdown renders the report as GitHub-flavored markdown.
	FormatMarkdown Format = "markdown"
	// FormatHTML renders the report as a standalone HTML page.
	FormatHTML Format = "html"
)

// ParseFormat normalizes a user-supplied format string. An empty string
// defaults to markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", s)
	}
}

// ContentType returns the MIME type a rendered report should be served with.
func ContentType(f Format) string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// WeeklyReport bundles everything one report covers: the current
// analytics pass plus the forecasts for the week starting at Start.
type WeeklyReport struct {
	Start       time.Time               `json:"start"`
	Summary     *types.AnalyticsSummary `json:"summary"`
	Predictions []types.MoodPrediction  `json:"predictions"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// weekStart resolves the date the report headline names.
func (rep *WeeklyReport) weekStart() time.Time {
	if !rep.Start.IsZero() {
		return rep.Start
	}
	if len(rep.Predictions) > 0 {
		return rep.Predictions[0].Date
	}
	return rep.GeneratedAt
}

// Builder renders weekly reports. Safe for concurrent use.
type Builder struct {
	md goldmark.Markdown
}

// NewBuilder creates a report builder with GFM tables enabled.
func NewBuilder() *Builder {
	return &Builder{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render writes the report to w in the requested format.
func (b *Builder) Render(w io.Writer, format Format, rep *WeeklyReport) error {
	if rep == nil || rep.Summary == nil {
		return fmt.Errorf("report requires an analytics summary")
	}

	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, b.Markdown(rep))
		return err
	case FormatHTML:
		page, err := b.HTML(rep)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// Markdown renders the report as markdown. rep.Summary must be non-nil.
func (b *Builder) Markdown(rep *WeeklyReport) string {
	var builder strings.Builder

	generated := rep.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	builder.WriteString(fmt.Sprintf("# %s\n\n", reportTitle(rep)))
	builder.WriteString(fmt.Sprintf("Generated %s from %d scored entries.\n\n",
		generated.UTC().Format("2006-01-02 15:04 UTC"), rep.Summary.TotalEntries))

	writeForecastSection(&builder, rep.Predictions)
	writeStandingSection(&builder, rep.Summary)
	writeWeekdaySection(&builder, rep.Summary)
	writeInsightSection(&builder, rep.Summary)

	return builder.String()
}

// HTML renders the report as a self-contained HTML page, converting the
// markdown body through goldmark.
func (b *Builder) HTML(rep *WeeklyReport) (string, error) {
	var body bytes.Buffer
	if err := b.md.Convert([]byte(b.Markdown(rep)), &body); err != nil {
		return "", fmt.Errorf("failed to convert report to HTML: %w", err)
	}
	return fmt.Sprintf(htmlShell, reportTitle(rep), body.String()), nil
}

func reportTitle(rep *WeeklyReport) string {
	return fmt.Sprintf("Mood Report: Week of %s", rep.weekStart().UTC().Format("January 2, 2006"))
}

func writeForecastSection(builder *strings.Builder, predictions []types.MoodPrediction) {
	builder.WriteString("## Seven-Day Outlook\n\n")

	if len(predictions) == 0 {
		builder.WriteString("No forecasts available for this week.\n\n")
		return
	}

	builder.WriteString("| Date | Day | Forecast | Range | Confidence | Outlook |\n")
	builder.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for i := range predictions {
		p := &predictions[i]
		builder.WriteString(fmt.Sprintf("| %s | %s | %.1f %s | %.1f to %.1f | %d%% | %s |\n",
			p.Date.UTC().Format("Jan 02"),
			p.Date.UTC().Weekday(),
			p.PredictedMood,
			trendArrow(p.Trend),
			p.Band.Lower,
			p.Band.Upper,
			int(math.Round(p.Confidence*100)),
			p.Outlook.Headline))
	}
	builder.WriteString("\n")

	if suggestion := predictions[0].SupportSuggestion; suggestion != "" {
		builder.WriteString(fmt.Sprintf("> %s\n\n", suggestion))
	}
}

func writeStandingSection(builder *strings.Builder, summary *types.AnalyticsSummary) {
	builder.WriteString("## Where You Stand\n\n")
	builder.WriteString(fmt.Sprintf("- Personal baseline: **%.1f/10**\n", summary.PersonalBaseline))
	builder.WriteString(fmt.Sprintf("- %s\n", trendLine(summary)))
	builder.WriteString(fmt.Sprintf("- Volatility: %s (%.2f)\n\n",
		volatilityLabel(summary.Volatility), summary.Volatility))
}

func writeWeekdaySection(builder *strings.Builder, summary *types.AnalyticsSummary) {
	builder.WriteString("## Weekday Rhythm\n\n")

	ranked := make([]types.WeekdayStat, 0, len(summary.WeekdayStats))
	for _, stat := range summary.WeekdayStats {
		if stat.SampleCount > 0 {
			ranked = append(ranked, stat)
		}
	}
	if len(ranked) == 0 {
		builder.WriteString("Not enough scored entries yet to rank weekdays.\n\n")
		return
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })

	builder.WriteString("| Rank | Day | Average | Entries |\n")
	builder.WriteString("| --- | --- | --- | --- |\n")
	for _, stat := range ranked {
		builder.WriteString(fmt.Sprintf("| %d | %s | %.1f | %d |\n",
			stat.Rank, stat.Weekday, stat.AverageMood, stat.SampleCount))
	}
	builder.WriteString("\n")
}

func writeInsightSection(builder *strings.Builder, summary *types.AnalyticsSummary) {
	if summary.PrimaryInsight == "" && summary.SecondaryInsight == "" {
		return
	}

	builder.WriteString("## Insights\n\n")
	if summary.PrimaryInsight != "" {
		builder.WriteString(fmt.Sprintf("- %s\n", summary.PrimaryInsight))
	}
	if summary.SecondaryInsight != "" {
		builder.WriteString(fmt.Sprintf("- %s\n", summary.SecondaryInsight))
	}
	builder.WriteString("\n")
}

func trendLine(summary *types.AnalyticsSummary) string {
	arrow := trendArrow(summary.Trend)
	if summary.Trend != types.TrendStable && summary.TrendStrength > 0 {
		noun := "days"
		if summary.TrendStrength == 1 {
			noun = "day"
		}
		return fmt.Sprintf("Trend: %s %s (%d consecutive %s)", summary.Trend, arrow, summary.TrendStrength, noun)
	}
	return fmt.Sprintf("Trend: %s %s", summary.Trend, arrow)
}

func trendArrow(tr types.Trend) string {
	switch tr {
	case types.TrendImproving:
		return "↑"
	case types.TrendDeclining:
		return "↓"
	default:
		return "→"
	}
}

// volatilityLabel buckets normalized volatility for prose. High begins
// where the outlook classifier calls a stretch volatile.
func volatilityLabel(v float64) string {
	switch {
	case v < 0.30:
		return "low"
	case v <= 0.55:
		return "moderate"
	default:
		return "high"
	}
}

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 46rem; padding: 0 1rem; color: #1f2430; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d0d4dc; padding: 0.35rem 0.7rem; text-align: left; }
th { background: #f3f5f8; }
blockquote { border-left: 3px solid #7a8aa0; margin: 1rem 0; padding: 0.2rem 1rem; color: #4a5568; }
</style>
</head>
<body>
%s</body>
</html>
`
