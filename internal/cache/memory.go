package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// entry is a cached item with access metadata.
type entry struct {
	value       []byte
	createdAt   time.Time
	accessedAt  time.Time
	expiresAt   time.Time
	accessCount int64
}

// MemoryConfig defines in-memory cache tuning.
type MemoryConfig struct {
	MaxItems        int           `json:"max_items"`
	DefaultTTL      time.Duration `json:"default_ttl"`
	MaxTTL          time.Duration `json:"max_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
	CleanupBatch    int           `json:"cleanup_batch"`
}

// DefaultMemoryConfig returns sensible defaults for a single-user service.
func DefaultMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		MaxItems:        4096,
		DefaultTTL:      15 * time.Minute,
		MaxTTL:          12 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		CleanupBatch:    256,
	}
}

// Memory is a thread-safe in-process TTL cache with background cleanup.
type Memory struct {
	store  map[string]*entry
	mutex  sync.RWMutex
	config *MemoryConfig
	stats  *stats
	stop   chan struct{}
	closed bool
}

// stats holds counters behind their own lock so reads never contend with
// the store.
type stats struct {
	mutex sync.RWMutex
	data  StatsData
}

// NewMemory creates an in-memory cache and starts its cleanup janitor.
func NewMemory(config *MemoryConfig) *Memory {
	if config == nil {
		config = DefaultMemoryConfig()
	}

	m := &Memory{
		store:  make(map[string]*entry),
		config: config,
		stats:  &stats{},
		stop:   make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

// Get retrieves a value, expiring it lazily if its TTL has passed.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return nil, false, nil
	}

	e, exists := m.store[key]
	if !exists {
		m.stats.bump(func(d *StatsData) { d.Misses++ })
		return nil, false, nil
	}

	if time.Now().After(e.expiresAt) {
		delete(m.store, key)
		m.stats.bump(func(d *StatsData) { d.Misses++; d.Items = len(m.store) })
		return nil, false, nil
	}

	e.accessedAt = time.Now()
	e.accessCount++
	m.stats.bump(func(d *StatsData) { d.Hits++ })
	return e.value, true, nil
}

// Set stores a value under the key. A zero TTL falls back to the default;
// TTLs above the cap are clamped.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.config.DefaultTTL
	}
	if m.config.MaxTTL > 0 && ttl > m.config.MaxTTL {
		ttl = m.config.MaxTTL
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return fmt.Errorf("cache is closed")
	}

	if _, exists := m.store[key]; !exists && len(m.store) >= m.config.MaxItems {
		m.evictOldest()
	}

	now := time.Now()
	m.store[key] = &entry{
		value:       value,
		createdAt:   now,
		accessedAt:  now,
		expiresAt:   now.Add(ttl),
		accessCount: 1,
	}
	m.stats.bump(func(d *StatsData) { d.Sets++; d.Items = len(m.store) })
	return nil
}

// Delete removes a single key.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.store[key]; exists {
		delete(m.store, key)
		m.stats.bump(func(d *StatsData) { d.Deletes++; d.Items = len(m.store) })
	}
	return nil
}

// DeletePrefix removes every key under the prefix.
func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	removed := 0
	for key := range m.store {
		if strings.HasPrefix(key, prefix) {
			delete(m.store, key)
			removed++
		}
	}
	if removed > 0 {
		m.stats.bump(func(d *StatsData) { d.Deletes += int64(removed); d.Items = len(m.store) })
	}
	return nil
}

// Len returns the number of live items.
func (m *Memory) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.store)
}

// Stats returns a snapshot of the cache counters.
func (m *Memory) Stats() StatsData {
	m.stats.mutex.RLock()
	defer m.stats.mutex.RUnlock()

	data := m.stats.data
	if total := data.Hits + data.Misses; total > 0 {
		data.HitRate = float64(data.Hits) / float64(total)
	}
	return data
}

// Close stops the janitor and drops the store.
func (m *Memory) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.stop)
	m.store = nil
	return nil
}

// Cleanup removes up to one batch of expired items and reports how many.
func (m *Memory) Cleanup() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return 0
	}

	now := time.Now()
	removed := 0
	for key, e := range m.store {
		if !now.After(e.expiresAt) {
			continue
		}
		delete(m.store, key)
		removed++
		if removed >= m.config.CleanupBatch {
			break
		}
	}

	m.stats.bump(func(d *StatsData) {
		d.Evictions += int64(removed)
		d.Items = len(m.store)
		d.LastCleanup = now
	})
	return removed
}

// evictOldest drops the least recently accessed entry. Caller holds the lock.
func (m *Memory) evictOldest() {
	var oldestKey string
	var oldestAccess time.Time

	for key, e := range m.store {
		if oldestKey == "" || e.accessedAt.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = e.accessedAt
		}
	}
	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.bump(func(d *StatsData) { d.Evictions++ })
	}
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Cleanup()
		case <-m.stop:
			return
		}
	}
}

func (s *stats) bump(fn func(*StatsData)) {
	s.mutex.Lock()
	fn(&s.data)
	s.mutex.Unlock()
}
