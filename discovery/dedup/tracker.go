package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/redis"
)

// Tracker remembers addresses already returned for one campaign so that
// repeated search rounds only surface new ones.
type Tracker interface {
	// Add records emails and returns the ones that were not seen before, in
	// input order.
	Add(ctx context.Context, emails ...string) ([]string, error)
	Seen(ctx context.Context, email string) (bool, error)
	Len(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

type MemoryTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{seen: make(map[string]struct{})}
}

func (t *MemoryTracker) Add(_ context.Context, emails ...string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fresh []string
	for _, e := range emails {
		key := models.NormalizeEmail(e)
		if _, ok := t.seen[key]; ok || key == "" {
			continue
		}
		t.seen[key] = struct{}{}
		fresh = append(fresh, key)
	}
	return fresh, nil
}

func (t *MemoryTracker) Seen(_ context.Context, email string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[models.NormalizeEmail(email)]
	return ok, nil
}

func (t *MemoryTracker) Len(context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen), nil
}

func (t *MemoryTracker) Reset(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen = make(map[string]struct{})
	return nil
}

// RedisTracker keeps the seen set in a Redis set so it survives restarts
// and is shared by every replica working on the campaign.
type RedisTracker struct {
	client *redis.RedisClient
	key    string
	ttl    time.Duration
}

const seenKeyPrefix = "prospects:seen"

func NewRedisTracker(client *redis.RedisClient, campaignID string, ttl time.Duration) *RedisTracker {
	return &RedisTracker{
		client: client,
		key:    fmt.Sprintf("%s:%s", seenKeyPrefix, campaignID),
		ttl:    ttl,
	}
}

func (t *RedisTracker) Add(ctx context.Context, emails ...string) ([]string, error) {
	var fresh []string
	for _, e := range emails {
		key := models.NormalizeEmail(e)
		if key == "" {
			continue
		}
		added, err := t.client.SAdd(ctx, t.key, t.ttl, key)
		if err != nil {
			return fresh, fmt.Errorf("failed to track %s: %w", key, err)
		}
		if added > 0 {
			fresh = append(fresh, key)
		}
	}
	return fresh, nil
}

func (t *RedisTracker) Seen(ctx context.Context, email string) (bool, error) {
	return t.client.SIsMember(ctx, t.key, models.NormalizeEmail(email))
}

func (t *RedisTracker) Len(ctx context.Context) (int, error) {
	n, err := t.client.SCard(ctx, t.key)
	return int(n), err
}

func (t *RedisTracker) Reset(ctx context.Context) error {
	return t.client.Delete(ctx, t.key)
}
