package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"lora-lending/internal/domain/lender"
	"time"

	"github.com/redis/go-redis/v9"
)

const catalogKey = "lora:lenders:catalog"

const defaultCatalogTTL = 30 * time.Minute

type LenderCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ lender.Cache = (*LenderCache)(nil)

func NewLenderCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *LenderCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &LenderCache{client: client, ttl: ttl, logger: logger.With("component", "LenderCache")}
}

func (c *LenderCache) GetAll(ctx context.Context) ([]*lender.Policy, error) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, lender.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read lender catalog from redis: %w", err)
	}

	var policies []*lender.Policy
	if err := json.Unmarshal(raw, &policies); err != nil {
		c.logger.WarnContext(ctx, "Discarding unreadable cached catalog", "error", err)
		_ = c.client.Del(ctx, catalogKey).Err()
		return nil, lender.ErrCacheMiss
	}
	if len(policies) == 0 {
		return nil, lender.ErrCacheMiss
	}
	return policies, nil
}

func (c *LenderCache) SetAll(ctx context.Context, policies []*lender.Policy) error {
	raw, err := json.Marshal(policies)
	if err != nil {
		return fmt.Errorf("failed to encode lender catalog: %w", err)
	}
	if err := c.client.Set(ctx, catalogKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write lender catalog to redis: %w", err)
	}
	c.logger.DebugContext(ctx, "Lender catalog cached", "count", len(policies), "ttl", c.ttl)
	return nil
}

func (c *LenderCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate lender catalog: %w", err)
	}
	return nil
}
