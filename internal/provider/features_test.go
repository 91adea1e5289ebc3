package provider

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantegy/tradepulse/internal/domain"
)

// makeCandles produces a sine-wave range with uniform volume, enough bars
// for every indicator window.
func makeCandles(n int) []domain.Candle {
	out := make([]domain.Candle, n)
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		mid := 100.0 + 2.0*math.Sin(float64(i)/10.0)
		out[i] = domain.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     mid - 0.1,
			High:     mid + 0.3,
			Low:      mid - 0.3,
			Close:    mid + 0.1,
			Volume:   50 + float64(i%5),
		}
	}
	return out
}

func TestBuildSnapshot_FullWindow(t *testing.T) {
	candles := makeCandles(300)
	snap := BuildSnapshot(DefaultFeatureConfig(), "BTCUSDT", "1m", candles)

	assert.Equal(t, "BTCUSDT", snap.Symbol)
	assert.Equal(t, candles[299].Close, snap.Price)
	assert.Equal(t, candles[299].OpenTime, snap.Timestamp)

	require.NotNil(t, snap.ATRPct)
	assert.Greater(t, *snap.ATRPct, 0.0)
	require.NotNil(t, snap.BBWidth)
	require.NotNil(t, snap.BBWRatio)
	require.NotNil(t, snap.ADX)
	require.NotNil(t, snap.RSI)
	require.NotNil(t, snap.VolumeZ)
	require.NotNil(t, snap.Return5mPct)
	require.NotNil(t, snap.VolumeRatio5m)

	require.True(t, snap.HasValueArea())
	assert.Greater(t, *snap.VAH, *snap.VAL)
	require.NotNil(t, snap.RangePosition)
	assert.GreaterOrEqual(t, *snap.RangePosition, 0.0)
	assert.LessOrEqual(t, *snap.RangePosition, 1.0)
}

func TestBuildSnapshot_ShortWindowLeavesNils(t *testing.T) {
	snap := BuildSnapshot(DefaultFeatureConfig(), "BTCUSDT", "1m", makeCandles(10))

	// 10 bars cannot support ADX (needs 28) or the band-width ratio.
	assert.Nil(t, snap.ADX)
	assert.Nil(t, snap.BBWRatio)
	assert.Nil(t, snap.VolumeZ)
	// The raw price is still present.
	assert.Greater(t, snap.Price, 0.0)
}

func TestBuildSnapshot_EmptyWindow(t *testing.T) {
	snap := BuildSnapshot(DefaultFeatureConfig(), "BTCUSDT", "1m", nil)
	assert.Nil(t, snap.ATRPct)
	assert.False(t, snap.HasValueArea())
}

func TestBuildSnapshot_DriftDirectionFollowsTrend(t *testing.T) {
	// Steadily rising prices shift the point of control upward.
	candles := make([]domain.Candle, 240)
	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		mid := 100.0 + float64(i)*0.05
		candles[i] = domain.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     mid - 0.1, High: mid + 0.2, Low: mid - 0.2, Close: mid + 0.1,
			Volume: 50,
		}
	}
	snap := BuildSnapshot(DefaultFeatureConfig(), "BTCUSDT", "1m", candles)
	require.NotNil(t, snap.DriftDirection)
	assert.Equal(t, domain.DriftUp, *snap.DriftDirection)
	require.NotNil(t, snap.DriftScore)
	assert.Greater(t, *snap.DriftScore, 0.0)
}
