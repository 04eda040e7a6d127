package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts:     maxAttempts,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		Multiplier:      2.0,
		RandomizeFactor: 0,
		RetryIf:         DefaultRetryIf,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	r := New(fastConfig(3))

	result := r.Do(context.Background(), func(context.Context) error { return nil })

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Attempts)
}

func TestDo_RetriesTemporaryThenSucceeds(t *testing.T) {
	r := New(fastConfig(5))

	calls := 0
	result := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &TemporaryError{Err: errors.New("upstream flake")}
		}
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	r := New(fastConfig(5))

	calls := 0
	result := r.Do(context.Background(), func(context.Context) error {
		calls++
		return &PermanentError{Err: errors.New("bad request")}
	})

	require.Error(t, result.Err)
	assert.Equal(t, 1, calls)

	var perm *PermanentError
	assert.True(t, errors.As(result.Err, &perm))
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	r := New(fastConfig(3))

	result := r.Do(context.Background(), func(context.Context) error {
		return errors.New("always failing")
	})

	require.Error(t, result.Err)
	assert.Equal(t, 3, result.Attempts)
}

func TestDo_ContextCancellation(t *testing.T) {
	cfg := fastConfig(0) // unlimited attempts
	cfg.InitialDelay = 50 * time.Millisecond
	r := New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result := r.Do(ctx, func(context.Context) error {
		return errors.New("keep trying")
	})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "context cancelled")
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.True(t, DefaultRetryIf(&TemporaryError{Err: errors.New("x")}))
	assert.False(t, DefaultRetryIf(&PermanentError{Err: errors.New("x")}))
	assert.True(t, DefaultRetryIf(errors.New("unclassified")))

	wrapped := &PermanentError{Err: errors.New("inner")}
	assert.False(t, DefaultRetryIf(errors.Join(errors.New("outer"), wrapped)))
}

func TestErrorUnwrapping(t *testing.T) {
	inner := errors.New("root cause")
	temp := &TemporaryError{Err: inner}
	assert.ErrorIs(t, temp, inner)

	perm := &PermanentError{Err: inner}
	assert.ErrorIs(t, perm, inner)
}
