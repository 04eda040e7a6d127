package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"moodcast/pkg/types"

	"github.com/fatih/color"
)

const maxFactorLines = 3

const bannerArt = `
╔═══════════════════════════════════════════════╗
║        MoodCast  ·  Local Mood Forecast       ║
╚═══════════════════════════════════════════════╝`

// printer renders CLI output with a shared color palette. The global
// color.NoColor switch turns everything into plain text.
type printer struct {
	out     io.Writer
	heading *color.Color
	good    *color.Color
	low     *color.Color
	mid     *color.Color
	note    *color.Color
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		good:    color.New(color.FgGreen, color.Bold),
		low:     color.New(color.FgRed, color.Bold),
		mid:     color.New(color.FgYellow, color.Bold),
		note:    color.New(color.FgYellow),
	}
}

func (p *printer) banner() {
	p.heading.Fprintln(p.out, bannerArt)
}

func (p *printer) warn(msg string) {
	p.note.Fprintf(p.out, "note: %s\n", msg)
}

func (p *printer) journalLine(total, scored, skipped int, first, last time.Time) {
	fmt.Fprintf(p.out, "Journal: %d entries, %d scored", total, scored)
	if !first.IsZero() {
		fmt.Fprintf(p.out, ", %s to %s", first.Format("2006-01-02"), last.Format("2006-01-02"))
	}
	if skipped > 0 {
		p.note.Fprintf(p.out, "  (%d skipped)", skipped)
	}
	fmt.Fprintln(p.out)
}

// moodColor picks the value color on the 1-10 scale.
func (p *printer) moodColor(v float64) *color.Color {
	switch {
	case v >= 7:
		return p.good
	case v < 5:
		return p.low
	default:
		return p.mid
	}
}

func (p *printer) forecastCard(pred *types.MoodPrediction) {
	p.heading.Fprintf(p.out, "\n%s\n", pred.Date.Format("Monday, January 2"))

	fmt.Fprint(p.out, "  Forecast    ")
	p.moodColor(pred.PredictedMood).Fprintf(p.out, "%.1f", pred.PredictedMood)
	fmt.Fprintf(p.out, "   band %.1f to %.1f\n", pred.Band.Lower, pred.Band.Upper)

	fmt.Fprintf(p.out, "  Confidence  %d%%\n", int(pred.Confidence*100+0.5))
	fmt.Fprintf(p.out, "  Outlook     %s (%s)\n", pred.Outlook.Headline, pred.Outlook.Direction)
	if pred.Outlook.Summary != "" {
		fmt.Fprintf(p.out, "              %s\n", pred.Outlook.Summary)
	}
	if pred.SupportSuggestion != "" {
		fmt.Fprintf(p.out, "  Suggestion  %s\n", pred.SupportSuggestion)
	}
}

func (p *printer) rangeHeading(start time.Time, days int) {
	p.heading.Fprintf(p.out, "\n%d days from %s\n", days, start.Format("Monday, January 2"))
}

func (p *printer) forecastRow(pred *types.MoodPrediction) {
	fmt.Fprintf(p.out, "  %s  ", pred.Date.Format("Mon Jan 02"))
	p.moodColor(pred.PredictedMood).Fprintf(p.out, "%4.1f", pred.PredictedMood)
	fmt.Fprintf(p.out, "  %.1f to %.1f  %s\n", pred.Band.Lower, pred.Band.Upper, pred.Outlook.Direction)
}

// factors prints the corrections that moved the forecast, largest first.
func (p *printer) factors(factors []types.ContributingFactor) {
	if len(factors) == 0 {
		return
	}

	sorted := make([]types.ContributingFactor, len(factors))
	copy(sorted, factors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].Impact) > math.Abs(sorted[j].Impact)
	})
	if len(sorted) > maxFactorLines {
		sorted = sorted[:maxFactorLines]
	}

	p.heading.Fprintln(p.out, "\nWhat moved it")
	for _, f := range sorted {
		impactColor := p.mid
		if f.Impact > 0 {
			impactColor = p.good
		} else if f.Impact < 0 {
			impactColor = p.low
		}
		fmt.Fprintf(p.out, "  %-18s ", f.Name)
		impactColor.Fprintf(p.out, "%+.2f", f.Impact)
		fmt.Fprintf(p.out, "  %s\n", f.Reason)
	}
}

// weekdays prints the full ranking, best day green and hardest day red.
func (p *printer) weekdays(summary *types.AnalyticsSummary) {
	stats := make([]types.WeekdayStat, 0, len(summary.WeekdayStats))
	for _, st := range summary.WeekdayStats {
		stats = append(stats, st)
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Rank < stats[j].Rank })

	p.heading.Fprintln(p.out, "\nWeekday ranking")
	for _, st := range stats {
		line := fmt.Sprintf("  %d. %-9s %4.1f  (%d scored)", st.Rank, st.Weekday, st.AverageMood, st.SampleCount)
		switch st.Weekday {
		case summary.BestDay:
			p.good.Fprintln(p.out, line)
		case summary.HardestDay:
			p.low.Fprintln(p.out, line)
		default:
			fmt.Fprintln(p.out, line)
		}
	}
}

func (p *printer) insights(summary *types.AnalyticsSummary) {
	p.heading.Fprintln(p.out, "\nInsights")
	fmt.Fprintf(p.out, "  %s\n", summary.PrimaryInsight)
	if summary.SecondaryInsight != "" {
		fmt.Fprintf(p.out, "  %s\n", summary.SecondaryInsight)
	}

	fmt.Fprintf(p.out, "  Baseline %.1f, trend %s", summary.PersonalBaseline, summary.Trend)
	if summary.TrendStrength > 1 {
		fmt.Fprintf(p.out, " for %d days", summary.TrendStrength)
	}
	fmt.Fprintln(p.out)
}
