package regime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/domain/flow"
	"github.com/quantegy/tradepulse/internal/domain/indicators"
)

func baseInputs() Inputs {
	return Inputs{
		Symbol:    "BTCUSDT",
		Timeframe: "1m",
		Timestamp: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Price:     50000,
		VAH:       domain.Float(50500),
		VAL:       domain.Float(49500),
		POC:       domain.Float(50000),
	}
}

// candlesAt returns n one-minute candles all closing at the given price.
func candlesAt(n int, close float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{
			Open: close, High: close + 10, Low: close - 10, Close: close,
			Volume: 100,
		}
	}
	return out
}

func TestClassify_QuietRangeHighConfidence(t *testing.T) {
	c := NewDefaultClassifier()

	in := baseInputs()
	in.ADX = &indicators.ADXResult{ADX: 14.0, PlusDI: 18, MinusDI: 17}
	in.BBWRatio = domain.Float(0.7)
	in.Return5mPct = domain.Float(0.1)
	in.VolumeRatio5m = domain.Float(1.0)

	result, err := c.Classify(in)
	require.NoError(t, err)

	assert.Equal(t, Range, result.Regime)
	assert.Equal(t, 85, result.Confidence)
	assert.Equal(t, InsideVA, result.PriceVsVA)
	assert.Nil(t, result.ShockType)
	assert.False(t, result.BreakoutConfirmed)
}

func TestClassify_RangeConfidenceDegradesWithMissingInputs(t *testing.T) {
	c := NewDefaultClassifier()

	// Quiet ADX and compressed bands but price above the value area: the
	// 85 band requires inside-VA, so this lands at 65.
	in := baseInputs()
	in.Price = 50800
	in.ADX = &indicators.ADXResult{ADX: 14.0}
	in.BBWRatio = domain.Float(0.7)
	result, err := c.Classify(in)
	require.NoError(t, err)
	assert.Equal(t, Range, result.Regime)
	assert.Equal(t, 65, result.Confidence)
	assert.Equal(t, AboveVAH, result.PriceVsVA)

	// ADX known but in the loose band, no bbw reading.
	in = baseInputs()
	in.ADX = &indicators.ADXResult{ADX: 23.0}
	result, err = c.Classify(in)
	require.NoError(t, err)
	assert.Equal(t, Range, result.Regime)
	assert.Equal(t, 55, result.Confidence)

	// Nothing known at all: the floor.
	in = baseInputs()
	result, err = c.Classify(in)
	require.NoError(t, err)
	assert.Equal(t, Range, result.Regime)
	assert.Equal(t, 50, result.Confidence)
}

func TestClassify_BreakoutOnTwoConditions(t *testing.T) {
	c := NewDefaultClassifier()

	in := baseInputs()
	in.VolumeRatio5m = domain.Float(2.5)
	in.ADX = &indicators.ADXResult{ADX: 28.0}

	result, err := c.Classify(in)
	require.NoError(t, err)

	assert.Equal(t, Breakout, result.Regime)
	assert.True(t, result.BreakoutConfirmed)
	assert.True(t, result.BreakoutConditions["volume_ratio"])
	assert.True(t, result.BreakoutConditions["adx"])
	assert.False(t, result.BreakoutConditions["va_blocks"])
	assert.Equal(t, 80, result.Confidence)
}

func TestClassify_BreakoutADXBonus(t *testing.T) {
	c := NewDefaultClassifier()

	in := baseInputs()
	in.VolumeRatio5m = domain.Float(2.5)
	in.ADX = &indicators.ADXResult{ADX: 32.0}

	result, err := c.Classify(in)
	require.NoError(t, err)
	assert.Equal(t, Breakout, result.Regime)
	assert.Equal(t, 90, result.Confidence)
}

// The VA-blocks condition is judged on each 5m block's closing candle, so
// an intra-block dip back inside the value area does not break the streak.
func TestClassify_VABlocksJudgedOnBlockCloses(t *testing.T) {
	c := NewDefaultClassifier()

	in := baseInputs()
	in.Price = 50800
	in.VolumeRatio5m = domain.Float(2.5)
	in.Candles1m = candlesAt(15, 50800)
	for i := 1; i < 15; i += 5 {
		in.Candles1m[i].Close = 50200 // inside the VA, mid-block
	}

	result, err := c.Classify(in)
	require.NoError(t, err)

	assert.True(t, result.BreakoutConditions["va_blocks"])
	assert.Equal(t, Breakout, result.Regime)

	// A block close back inside breaks it.
	in.Candles1m[14].Close = 50200
	result, err = c.Classify(in)
	require.NoError(t, err)
	assert.False(t, result.BreakoutConditions["va_blocks"])
	assert.Equal(t, Range, result.Regime)
}

func TestClassify_SingleConditionStaysRange(t *testing.T) {
	c := NewDefaultClassifier()

	in := baseInputs()
	in.VolumeRatio5m = domain.Float(2.5)

	result, err := c.Classify(in)
	require.NoError(t, err)
	assert.Equal(t, Range, result.Regime)
	assert.False(t, result.BreakoutConfirmed)
}

// A shock classification must win even when every breakout condition holds
// simultaneously; the breakout alignment is still reported through ACCEL.
func TestClassify_ShockPreemptsBreakout(t *testing.T) {
	c := NewDefaultClassifier()

	in := baseInputs()
	in.Price = 50900
	in.Candles1m = candlesAt(15, 50800) // three full 5m blocks above VAH
	in.VolumeRatio5m = domain.Float(2.5)
	in.Return5mPct = domain.Float(2.5)
	in.Flow = flow.Result{Bias: 40}

	result, err := c.Classify(in)
	require.NoError(t, err)

	assert.Equal(t, Shock, result.Regime)
	assert.True(t, result.BreakoutConfirmed, "breakout alignment still reported")
	require.NotNil(t, result.ShockType)
	assert.Equal(t, ShockAccel, *result.ShockType)
	require.NotNil(t, result.ShockDirection)
	assert.Equal(t, ShockUp, *result.ShockDirection)
	assert.Equal(t, 75, result.Confidence) // 2.5*20 + 2.5*10
}

func TestClassify_VetoOverridesAlignment(t *testing.T) {
	c := NewDefaultClassifier()

	// Identical alignment to the ACCEL case, downward, but the move is
	// violent enough that VETO wins regardless.
	in := baseInputs()
	in.Price = 49100
	in.Candles1m = candlesAt(15, 49200)
	in.VolumeRatio5m = domain.Float(2.5)
	in.Return5mPct = domain.Float(-3.4)
	in.Flow = flow.Result{Bias: -40}

	result, err := c.Classify(in)
	require.NoError(t, err)

	assert.Equal(t, Shock, result.Regime)
	require.NotNil(t, result.ShockType)
	assert.Equal(t, ShockVeto, *result.ShockType)
	require.NotNil(t, result.ShockDirection)
	assert.Equal(t, ShockDown, *result.ShockDirection)
	assert.True(t, result.IsVeto())
}

func TestClassify_ShockRiskDownWithoutAlignment(t *testing.T) {
	c := NewDefaultClassifier()

	// Volume-triggered shock, tiny price move, neutral flow: no direction
	// can be assigned and no breakout alignment exists.
	in := baseInputs()
	in.VolumeRatio5m = domain.Float(3.5)
	in.Return5mPct = domain.Float(0.2)

	result, err := c.Classify(in)
	require.NoError(t, err)

	assert.Equal(t, Shock, result.Regime)
	require.NotNil(t, result.ShockType)
	assert.Equal(t, ShockRiskDown, *result.ShockType)
	assert.Nil(t, result.ShockDirection)
	assert.Equal(t, 60, result.Confidence) // floor: 0.2*20 + 3.5*10 = 39
}

func TestClassify_ShockDirectionFromFlowBias(t *testing.T) {
	c := NewDefaultClassifier()

	in := baseInputs()
	in.VolumeRatio5m = domain.Float(3.5)
	in.Return5mPct = domain.Float(0.2)
	in.Flow = flow.Result{Bias: 35}

	result, err := c.Classify(in)
	require.NoError(t, err)

	assert.Equal(t, Shock, result.Regime)
	require.NotNil(t, result.ShockDirection)
	assert.Equal(t, ShockUp, *result.ShockDirection)
}

func TestClassify_FlowShockTriggersShock(t *testing.T) {
	c := NewDefaultClassifier()

	in := baseInputs()
	in.Flow = flow.Result{Bias: 10, Shock: true}

	result, err := c.Classify(in)
	require.NoError(t, err)
	assert.Equal(t, Shock, result.Regime)
	assert.True(t, result.FlowShock)
}

func TestClassify_RequiresSymbol(t *testing.T) {
	c := NewDefaultClassifier()
	_, err := c.Classify(Inputs{Timeframe: "1m"})
	assert.Error(t, err)
}
