package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantegy/tradepulse/internal/domain"
)

type fakeSource struct {
	calls int
	err   error
}

func (f *fakeSource) Fetch(ctx context.Context, symbol, timeframe string) (*MarketData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &MarketData{Snapshot: &domain.FeatureSnapshot{Symbol: symbol}}, nil
}

func TestGuarded_PassesThrough(t *testing.T) {
	src := &fakeSource{}
	g := Guard("test", src, 100)

	data, err := g.Fetch(context.Background(), "BTCUSDT", "1m")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", data.Snapshot.Symbol)
	assert.Equal(t, 1, src.calls)
}

func TestGuarded_BreakerOpensOnConsecutiveFailures(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream down")}
	g := Guard("test", src, 1000)

	for i := 0; i < 3; i++ {
		_, err := g.Fetch(context.Background(), "BTCUSDT", "1m")
		require.Error(t, err)
	}
	calls := src.calls

	// Breaker now open: the source is no longer reached.
	_, err := g.Fetch(context.Background(), "BTCUSDT", "1m")
	require.Error(t, err)
	assert.Equal(t, calls, src.calls)
}

func TestGuarded_CancelledContext(t *testing.T) {
	src := &fakeSource{}
	g := Guard("test", src, 0.0001)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Fetch(ctx, "BTCUSDT", "1m")
	assert.Error(t, err)
	assert.Equal(t, 0, src.calls)
}
