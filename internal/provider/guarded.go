package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Guarded decorates a SnapshotSource with a rate limiter and a circuit
// breaker. The limiter runs first so breaker counts reflect real upstream
// calls, not local throttling.
type Guarded struct {
	source  SnapshotSource
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// Guard wraps source. rps bounds upstream calls per second.
func Guard(name string, source SnapshotSource, rps float64) *Guarded {
	settings := gobreaker.Settings{Name: name}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		if counts.Requests < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
	}

	return &Guarded{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *Guarded) Fetch(ctx context.Context, symbol, timeframe string) (*MarketData, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.source.Fetch(ctx, symbol, timeframe)
	})
	if err != nil {
		return nil, err
	}
	return out.(*MarketData), nil
}
