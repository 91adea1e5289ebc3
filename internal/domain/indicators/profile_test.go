package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantegy/tradepulse/internal/domain"
)

func barAt(price, volume float64) domain.Candle {
	return domain.Candle{
		Open: price, High: price + 5, Low: price - 5, Close: price,
		Volume: volume,
	}
}

func TestComputeVolumeProfile_POCAtHeaviestPrice(t *testing.T) {
	// Most volume traded near 50000, thin tails at the extremes.
	candles := []domain.Candle{
		barAt(49800, 10),
		barAt(50000, 100),
		barAt(50000, 120),
		barAt(50010, 90),
		barAt(50200, 10),
	}

	profile := ComputeVolumeProfile(candles, 20, 0.7)
	require.NotNil(t, profile)

	assert.InDelta(t, 50000, profile.POC, 30)
	assert.GreaterOrEqual(t, profile.VAH, profile.POC)
	assert.LessOrEqual(t, profile.VAL, profile.POC)
	assert.Less(t, profile.VAH, 50200.0, "thin tail excluded from value area")
	assert.Greater(t, profile.VAL, 49800.0)
}

func TestComputeVolumeProfile_DegenerateWindows(t *testing.T) {
	assert.Nil(t, ComputeVolumeProfile(nil, 20, 0.7))
	assert.Nil(t, ComputeVolumeProfile([]domain.Candle{barAt(50000, 10)}, 2, 0.7), "too few bins")

	flat := []domain.Candle{
		{Open: 50000, High: 50000, Low: 50000, Close: 50000, Volume: 10},
	}
	assert.Nil(t, ComputeVolumeProfile(flat, 20, 0.7), "no price spread")

	zeroVol := []domain.Candle{barAt(50000, 0), barAt(50100, 0)}
	assert.Nil(t, ComputeVolumeProfile(zeroVol, 20, 0.7))
}

func TestPOCSlope_RisingAcceptanceIsPositive(t *testing.T) {
	candles := make([]domain.Candle, 0, 40)
	for i := 0; i < 20; i++ {
		candles = append(candles, barAt(50000, 100))
	}
	for i := 0; i < 20; i++ {
		candles = append(candles, barAt(50400, 100))
	}

	slope := POCSlope(candles, 24, 0.7)
	require.NotNil(t, slope)
	assert.Greater(t, *slope, 0.0)

	flipped := append(candles[20:40:40], candles[:20]...)
	down := POCSlope(flipped, 24, 0.7)
	require.NotNil(t, down)
	assert.Less(t, *down, 0.0)
}

func TestPOCSlope_ShortWindowIsNil(t *testing.T) {
	assert.Nil(t, POCSlope([]domain.Candle{barAt(50000, 10), barAt(50010, 10)}, 24, 0.7))
}

func TestVolumeZScore_SpikeScoresHigh(t *testing.T) {
	candles := make([]domain.Candle, 0, 21)
	for i := 0; i < 20; i++ {
		vol := 100.0
		if i%2 == 0 {
			vol = 110.0
		}
		candles = append(candles, barAt(50000, vol))
	}
	candles = append(candles, barAt(50000, 400))

	z := VolumeZScore(candles, 20)
	require.NotNil(t, z)
	assert.Greater(t, *z, 3.0)
}

func TestVolumeZScore_ZeroVarianceIsNil(t *testing.T) {
	candles := make([]domain.Candle, 21)
	for i := range candles {
		candles[i] = barAt(50000, 100)
	}
	assert.Nil(t, VolumeZScore(candles, 20))
}

func TestVolumeZScore_ShortWindowIsNil(t *testing.T) {
	assert.Nil(t, VolumeZScore(make([]domain.Candle, 10), 20))
}
