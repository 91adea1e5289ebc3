package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/quantegy/tradepulse/internal/persistence"
)

// Classifications keeps the latest classification per symbol and timeframe
// in Redis so the HTTP surface can answer without touching Postgres.
type Classifications struct {
	client redis.Cmdable
	ttl    time.Duration
}

// New creates a classification cache.
func New(client redis.Cmdable, ttl time.Duration) *Classifications {
	return &Classifications{client: client, ttl: ttl}
}

func key(symbol, timeframe string) string {
	return fmt.Sprintf("tradepulse:classification:%s:%s", symbol, timeframe)
}

// SetLatest stores the row under its symbol and timeframe.
func (c *Classifications) SetLatest(ctx context.Context, row persistence.ClassificationRow) error {
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	if err := c.client.Set(ctx, key(row.Symbol, row.Timeframe), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// GetLatest reads the cached row. A miss returns (nil, nil).
func (c *Classifications) GetLatest(ctx context.Context, symbol, timeframe string) (*persistence.ClassificationRow, error) {
	b, err := c.client.Get(ctx, key(symbol, timeframe)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var row persistence.ClassificationRow
	if err := json.Unmarshal(b, &row); err != nil {
		return nil, fmt.Errorf("unmarshal classification: %w", err)
	}
	return &row, nil
}
