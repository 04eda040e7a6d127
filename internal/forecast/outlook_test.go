package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"moodcast/pkg/types"
)

func TestClassifyOutlook(t *testing.T) {
	tests := []struct {
		name        string
		trend       types.Trend
		strength    int
		comparative float64
		volatility  float64
		expected    types.OutlookState
	}{
		{
			name:     "improving streak rises",
			trend:    types.TrendImproving,
			strength: 3,
			expected: types.OutlookRising,
		},
		{
			name:     "declining streak eases",
			trend:    types.TrendDeclining,
			strength: 5,
			expected: types.OutlookEasing,
		},
		{
			name:        "stable streak resolves steady before any other rule",
			trend:       types.TrendStable,
			strength:    4,
			comparative: 2.0,
			volatility:  0.9,
			expected:    types.OutlookSteady,
		},
		{
			name:        "positive gap from baseline rises without a streak",
			trend:       types.TrendImproving,
			strength:    2,
			comparative: 0.5,
			expected:    types.OutlookRising,
		},
		{
			name:        "negative gap at the boundary eases",
			trend:       types.TrendStable,
			comparative: -0.4,
			expected:    types.OutlookEasing,
		},
		{
			name:        "high volatility wins over a small gap",
			trend:       types.TrendStable,
			comparative: 0.39,
			volatility:  0.56,
			expected:    types.OutlookVolatile,
		},
		{
			name:        "volatility threshold is strict",
			trend:       types.TrendStable,
			comparative: 0.1,
			volatility:  0.55,
			expected:    types.OutlookSteady,
		},
		{
			name:     "quiet default",
			trend:    types.TrendStable,
			expected: types.OutlookSteady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := classifyOutlook(tt.trend, tt.strength, tt.comparative, tt.volatility)
			assert.Equal(t, tt.expected, state)
		})
	}
}

func TestOutlookCopy(t *testing.T) {
	states := []types.OutlookState{
		types.OutlookRising,
		types.OutlookSteady,
		types.OutlookEasing,
		types.OutlookVolatile,
	}

	for _, state := range states {
		outlook, support := outlookFor(state)
		assert.Equal(t, state, outlook.Direction)
		assert.NotEmpty(t, outlook.Headline)
		assert.NotEmpty(t, outlook.Summary)
		assert.NotEmpty(t, support)
	}

	_, rising := outlookFor(types.OutlookRising)
	assert.Contains(t, rising, "Protect what's working")

	_, volatile := outlookFor(types.OutlookVolatile)
	assert.Contains(t, volatile, "buffers")
}
