package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache is a time-boxed store of adapter results keyed by query.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Prospect, bool)
	Set(ctx context.Context, key string, prospects []models.Prospect, ttl time.Duration)
}

// CacheKey builds the key of one adapter query.
func CacheKey(adapter, query string, maxResults int) string {
	return fmt.Sprintf("prospects:cache:%s:%d:%s", adapter, maxResults, strings.ToLower(strings.TrimSpace(query)))
}

type memoryEntry struct {
	prospects []models.Prospect
	expiresAt time.Time
}

// MemoryCache is the in-process Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]models.Prospect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return append([]models.Prospect(nil), entry.prospects...), true
}

func (c *MemoryCache) Set(_ context.Context, key string, prospects []models.Prospect, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{
		prospects: append([]models.Prospect(nil), prospects...),
		expiresAt: c.now().Add(ttl),
	}
}

// RedisCache stores results as JSON strings with an expiry.
type RedisCache struct {
	client *redis.RedisClient
}

func NewRedisCache(client *redis.RedisClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.Prospect, bool) {
	raw, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Failed to read cached results")
		}
		return nil, false
	}

	var prospects []models.Prospect
	if err := json.Unmarshal([]byte(raw), &prospects); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Dropping unreadable cache entry")
		_ = c.client.Delete(ctx, key)
		return nil, false
	}
	return prospects, true
}

func (c *RedisCache) Set(ctx context.Context, key string, prospects []models.Prospect, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(prospects)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to encode results for cache")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache results")
	}
}
