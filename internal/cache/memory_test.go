package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *MemoryConfig {
	return &MemoryConfig{
		MaxItems:        4,
		DefaultTTL:      time.Minute,
		MaxTTL:          time.Hour,
		CleanupInterval: 0, // no janitor in tests
		CleanupBatch:    16,
	}
}

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, Key("forecast", "2026-06-15"), []byte(`{"mood":6.8}`), 0))

	value, ok, err := m.Get(ctx, Key("forecast", "2026-06-15"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"mood":6.8}`, string(value))

	_, ok, err = m.Get(ctx, Key("forecast", "2026-06-16"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := m.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry should miss")
	assert.Equal(t, 0, m.Len())
}

func TestMemory_DeletePrefix(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, Key("summary", "v1"), []byte("a"), 0))
	require.NoError(t, m.Set(ctx, Key("summary", "v2"), []byte("b"), 0))
	require.NoError(t, m.Set(ctx, Key("forecast", "2026-06-15"), []byte("c"), 0))

	require.NoError(t, m.DeletePrefix(ctx, "summary"))

	_, ok, _ := m.Get(ctx, Key("summary", "v1"))
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, Key("forecast", "2026-06-15"))
	assert.True(t, ok, "unrelated keys survive a prefix delete")
}

func TestMemory_EvictsOldestAtCapacity(t *testing.T) {
	m := NewMemory(testConfig()) // MaxItems: 4
	defer m.Close()
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.Set(ctx, k, []byte(k), 0))
	}
	// Touch everything except "b" so it becomes the eviction candidate.
	for _, k := range []string{"a", "c", "d"} {
		_, _, _ = m.Get(ctx, k)
	}

	require.NoError(t, m.Set(ctx, "e", []byte("e"), 0))

	assert.Equal(t, 4, m.Len())
	_, ok, _ := m.Get(ctx, "b")
	assert.False(t, ok, "least recently used entry should have been evicted")
}

func TestMemory_Cleanup(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "stale", []byte("v"), 5*time.Millisecond))
	require.NoError(t, m.Set(ctx, "fresh", []byte("v"), time.Minute))
	time.Sleep(20 * time.Millisecond)

	removed := m.Cleanup()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_Stats(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	_, _, _ = m.Get(ctx, "k")
	_, _, _ = m.Get(ctx, "k")
	_, _, _ = m.Get(ctx, "absent")

	stats := m.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 1e-9)
}

func TestMemory_ClosedBehaviour(t *testing.T) {
	m := NewMemory(testConfig())
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, m.Close())

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Error(t, m.Set(ctx, "k2", []byte("v"), 0))
	assert.NoError(t, m.Close(), "double close is harmless")
}

func TestGetOrCompute(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) ([]byte, error) {
		calls++
		return []byte("computed"), nil
	}

	first, err := GetOrCompute(ctx, m, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, "computed", string(first))

	second, err := GetOrCompute(ctx, m, "k", time.Minute, compute)
	require.NoError(t, err)
	assert.Equal(t, "computed", string(second))
	assert.Equal(t, 1, calls, "second call should be served from cache")
}

func TestGetOrCompute_ErrorNotCached(t *testing.T) {
	m := NewMemory(testConfig())
	defer m.Close()
	ctx := context.Background()

	boom := errors.New("upstream down")
	_, err := GetOrCompute(ctx, m, "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok, "failed computations must not be cached")
}
