package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

const newsKeyPrefix = "dreamtrade:news:"

// NewsCache stores scored news reports with a TTL so several server
// processes share one upstream fetch per symbol.
type NewsCache struct {
	client cmdable
	ttl    time.Duration
}

// NewNewsCache wraps client. ttl <= 0 means 30s.
func NewNewsCache(client *goredis.Client, ttl time.Duration) *NewsCache {
	return newNewsCache(client, ttl)
}

func newNewsCache(client cmdable, ttl time.Duration) *NewsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &NewsCache{client: client, ttl: ttl}
}

// Get returns the cached report. ok is false on a miss.
func (c *NewsCache) Get(ctx context.Context, symbol string) (model.NewsReport, bool, error) {
	raw, err := c.client.Get(ctx, newsKeyPrefix+symbol).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.NewsReport{}, false, nil
	}
	if err != nil {
		return model.NewsReport{}, false, fmt.Errorf("redis get news %s: %w", symbol, err)
	}
	var report model.NewsReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return model.NewsReport{}, false, fmt.Errorf("redis decode news %s: %w", symbol, err)
	}
	return report, true, nil
}

// Set stores report under its symbol for the cache TTL.
func (c *NewsCache) Set(ctx context.Context, report model.NewsReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("redis encode news %s: %w", report.Symbol, err)
	}
	if err := c.client.Set(ctx, newsKeyPrefix+report.Symbol, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set news %s: %w", report.Symbol, err)
	}
	return nil
}
