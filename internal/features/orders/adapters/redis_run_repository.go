package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"order-scrapper/internal/core/cache"
	"order-scrapper/internal/features/orders/domain"
)

const lastRunCacheKey = "order_scrape:last_run"

// RedisRunRepository implements ports.RunRepository on top of the cache.
type RedisRunRepository struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisRunRepository creates a new RedisRunRepository. A ttl of 0 keeps the summary forever.
func NewRedisRunRepository(c cache.Cache, ttl time.Duration) *RedisRunRepository {
	return &RedisRunRepository{
		cache: c,
		ttl:   ttl,
	}
}

// Save replaces the stored summary.
func (r *RedisRunRepository) Save(ctx context.Context, summary *domain.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := r.cache.Set(ctx, lastRunCacheKey, data, r.ttl); err != nil {
		return fmt.Errorf("failed to save run summary: %w", err)
	}
	return nil
}

// Latest returns the stored summary, or nil when none is stored.
func (r *RedisRunRepository) Latest(ctx context.Context) (*domain.RunSummary, error) {
	data, err := r.cache.Get(ctx, lastRunCacheKey)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}

	var summary domain.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &summary, nil
}
