package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig defines the Redis cache backend settings.
type RedisConfig struct {
	Addr       string        `json:"addr"`
	Password   string        `json:"-"`
	DB         int           `json:"db"`
	KeyPrefix  string        `json:"key_prefix"`
	DefaultTTL time.Duration `json:"default_ttl"`
}

// DefaultRedisConfig returns defaults for a local Redis.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:       "localhost:6379",
		KeyPrefix:  "moodcast",
		DefaultTTL: 15 * time.Minute,
	}
}

// Redis is a Redis-backed cache. Counters are process-local.
type Redis struct {
	client *redis.Client
	config *RedisConfig

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// NewRedis creates a Redis cache and verifies connectivity.
func NewRedis(config *RedisConfig) (*Redis, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{client: client, config: config}, nil
}

func (r *Redis) key(key string) string {
	if r.config.KeyPrefix == "" {
		return key
	}
	return r.config.KeyPrefix + ":" + key
}

// Get retrieves a value. Redis handles expiry itself.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	r.hits.Add(1)
	return value, true, nil
}

// Set stores a value with the given TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.config.DefaultTTL
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.sets.Add(1)
	return nil
}

// Delete removes a single key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	r.deletes.Add(1)
	return nil
}

// DeletePrefix removes every key under the prefix using incremental SCAN so
// large keyspaces never block the server.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := r.key(prefix) + "*"
	iter := r.client.Scan(ctx, 0, pattern, 128).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= 128 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del prefix %s: %w", prefix, err)
			}
			r.deletes.Add(int64(len(keys)))
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan prefix %s: %w", prefix, err)
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del prefix %s: %w", prefix, err)
		}
		r.deletes.Add(int64(len(keys)))
	}
	return nil
}

// Stats returns process-local counters; item counts live in Redis.
func (r *Redis) Stats() StatsData {
	data := StatsData{
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Sets:    r.sets.Load(),
		Deletes: r.deletes.Load(),
	}
	if total := data.Hits + data.Misses; total > 0 {
		data.HitRate = float64(data.Hits) / float64(total)
	}
	return data
}

// Close shuts down the client connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
