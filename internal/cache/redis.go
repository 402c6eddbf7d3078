package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tennisdata/ingestion/internal/metrics"
	"tennisdata/ingestion/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Config holds Redis cache configuration
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache caches upstream response envelopes per (date, timezone) so a
// re-run inside the TTL does not repeat the API call. Every failure here is
// logged and swallowed; the cache only ever degrades to the live call.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.Info().Str("addr", client.Options().Addr).Msg("Redis cache connected")

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func envelopeKey(date time.Time, timezone string) string {
	return fmt.Sprintf("fixtures:%s:%s", date.Format(models.DateLayout), timezone)
}

// GetEnvelope returns the cached envelope for (date, timezone), if any.
func (c *RedisCache) GetEnvelope(ctx context.Context, date time.Time, timezone string) (*models.Envelope, bool) {
	key := envelopeKey(date, timezone)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.RecordCacheMiss()
		return nil, false
	}
	if err != nil {
		metrics.RecordCacheMiss()
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling through to API")
		return nil, false
	}

	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.RecordCacheMiss()
		log.Warn().Err(err).Str("key", key).Msg("Cached envelope is corrupt, ignoring")
		return nil, false
	}

	metrics.RecordCacheHit()
	log.Debug().Str("key", key).Int("records", len(env.Result)).Msg("Envelope cache hit")
	return &env, true
}

// SetEnvelope stores an envelope for (date, timezone) with the configured TTL.
func (c *RedisCache) SetEnvelope(ctx context.Context, date time.Time, timezone string, env *models.Envelope) {
	key := envelopeKey(date, timezone)

	data, err := json.Marshal(env)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to marshal envelope for cache")
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
