package forecast

import (
	"math"

	"moodcast/pkg/types"
)

// Thresholds for the outlook transition rules.
const (
	outlookStreakMin     = 3
	comparativeThreshold = 0.4
	volatileThreshold    = 0.55
)

// classifyOutlook runs the transition rules in order, first match wins:
// an established streak decides by trend direction, then a clear gap from
// baseline decides by sign, then high volatility, else steady.
func classifyOutlook(trend types.Trend, trendStrength int, comparativeScore, volatility float64) types.OutlookState {
	if trendStrength >= outlookStreakMin {
		switch trend {
		case types.TrendImproving:
			return types.OutlookRising
		case types.TrendDeclining:
			return types.OutlookEasing
		default:
			// A stable streak is still a resolved state, not a fall-through.
			return types.OutlookSteady
		}
	}
	if math.Abs(comparativeScore) >= comparativeThreshold {
		if comparativeScore > 0 {
			return types.OutlookRising
		}
		return types.OutlookEasing
	}
	if volatility > volatileThreshold {
		return types.OutlookVolatile
	}
	return types.OutlookSteady
}

// outlookCopy holds the fixed presentation strings per state.
type outlookCopy struct {
	headline string
	summary  string
	support  string
}

var outlookTemplates = map[types.OutlookState]outlookCopy{
	types.OutlookRising: {
		headline: "On the up",
		summary:  "Your recent days point upward, and this one looks set to continue the climb.",
		support:  "Protect what's working: keep the routines that carried this stretch.",
	},
	types.OutlookSteady: {
		headline: "Holding steady",
		summary:  "No big swings expected; your mood should stay close to its recent level.",
		support:  "A steady stretch is a good time to bank energy for busier days.",
	},
	types.OutlookEasing: {
		headline: "Easing off",
		summary:  "The recent drift is downward, so expect a softer day than your baseline.",
		support:  "Keep the schedule light and plan something kind for yourself.",
	},
	types.OutlookVolatile: {
		headline: "Swingy stretch",
		summary:  "Your moods have been swinging, so this forecast carries extra uncertainty.",
		support:  "Build buffers: regular sleep, meals, and small routines steady the swings.",
	},
}

// outlookFor returns the populated micro-outlook and the paired support
// suggestion for a state.
func outlookFor(state types.OutlookState) (types.MicroOutlook, string) {
	copyFor := outlookTemplates[state]
	return types.MicroOutlook{
		Direction: state,
		Headline:  copyFor.headline,
		Summary:   copyFor.summary,
	}, copyFor.support
}
