package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fundtrack/internal/config"
	"fundtrack/internal/models"
)

// PriceCache keeps resolved NAVs in redis so repeated valuations of the same
// day do not hammer the source. A nil cache is a valid no-op.
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPriceCache(cfg config.CacheConfig) *PriceCache {
	if !cfg.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ttl := cfg.PriceTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &PriceCache{client: client, ttl: ttl}
}

func (c *PriceCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *PriceCache) Get(ctx context.Context, fundCode string, date time.Time) (*models.FundPrice, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	b, err := c.client.Get(ctx, priceKey(fundCode, date)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var fp models.FundPrice
	if err := json.Unmarshal(b, &fp); err != nil {
		return nil, false, err
	}
	return &fp, true, nil
}

// SetAt stores fp under an arbitrary query day, which may differ from the
// price's own trading day when the resolver fell back across non-trading days.
func (c *PriceCache) SetAt(ctx context.Context, fundCode string, date time.Time, fp models.FundPrice) error {
	if c == nil || c.client == nil {
		return nil
	}
	b, err := json.Marshal(fp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, priceKey(fundCode, date), b, c.ttl).Err()
}

func priceKey(fundCode string, date time.Time) string {
	return fmt.Sprintf("nav:%s:%s", fundCode, date.UTC().Format("2006-01-02"))
}
