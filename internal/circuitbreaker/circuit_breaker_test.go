package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failure")

func failing(context.Context) error { return errUpstream }
func succeeding(context.Context) error { return nil }

func testBreaker() *CircuitBreaker {
	return New(&Config{
		FailureThreshold:      3,
		SuccessThreshold:      2,
		Timeout:               20 * time.Millisecond,
		MaxConcurrentRequests: 1,
	})
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := testBreaker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.Equal(t, StateClosed, cb.State())
		_ = cb.Execute(ctx, failing)
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(ctx, succeeding)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := testBreaker()
	ctx := context.Background()

	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, failing)
	require.NoError(t, cb.Execute(ctx, succeeding))
	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, failing)

	assert.Equal(t, StateClosed, cb.State(), "non-consecutive failures must not open the circuit")
}

func TestHalfOpenProbeAndClose(t *testing.T) {
	cb := testBreaker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, failing)
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	// First probe transitions open -> half-open.
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateHalfOpen, cb.State())

	// Second success closes the circuit.
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := testBreaker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, failing)
	}
	time.Sleep(30 * time.Millisecond)

	_ = cb.Execute(ctx, failing)
	assert.Equal(t, StateOpen, cb.State())
}

func TestFallbackOnRejection(t *testing.T) {
	cb := testBreaker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, failing)
	}
	require.Equal(t, StateOpen, cb.State())

	fallbackUsed := false
	err := cb.ExecuteWithFallback(ctx, succeeding, func(_ context.Context, cause error) error {
		fallbackUsed = true
		assert.ErrorIs(t, cause, ErrCircuitOpen)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, fallbackUsed)
}

func TestStats(t *testing.T) {
	cb := testBreaker()
	ctx := context.Background()

	require.NoError(t, cb.Execute(ctx, succeeding))
	_ = cb.Execute(ctx, failing)

	stats := cb.GetStats()
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.TotalFailures)
	assert.Equal(t, int64(1), stats.TotalSuccesses)
	assert.InDelta(t, 0.5, stats.FailureRate, 1e-9)
	assert.False(t, stats.LastFailureTime.IsZero())
}

func TestReset(t *testing.T) {
	cb := testBreaker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, failing)
	}
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	require.NoError(t, cb.Execute(ctx, succeeding))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
