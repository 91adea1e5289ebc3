package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/domain/flow"
)

func trendCandles(n int, start, step float64) []domain.Candle {
	out := make([]domain.Candle, n)
	price := start
	for i := range out {
		out[i] = domain.Candle{
			Open: price, High: price + 20, Low: price - 20, Close: price + step,
			Volume: 100,
		}
		price += step
	}
	return out
}

func TestTechnicalAxis_RisingMarketScoresLong(t *testing.T) {
	candles := trendCandles(250, 48000, 15)
	snap := &domain.FeatureSnapshot{
		Price:   candles[len(candles)-1].Close,
		VolumeZ: domain.Float(1.5),
	}

	axis := TechnicalAxis(snap, candles, DefaultTechnicalConfig())

	assert.Equal(t, "technical", axis.Name)
	assert.Greater(t, axis.Score, 0)
	assert.Greater(t, axis.Components["ma_structure"], 0)
	assert.Greater(t, axis.Components["momentum"], 0)
	assert.Greater(t, axis.Components["volume"], 0, "volume confirms upward momentum")
	assert.False(t, axis.IsSupplementary)
}

func TestTechnicalAxis_FallingMarketScoresShort(t *testing.T) {
	candles := trendCandles(250, 52000, -15)
	snap := &domain.FeatureSnapshot{Price: candles[len(candles)-1].Close}

	axis := TechnicalAxis(snap, candles, DefaultTechnicalConfig())
	assert.Less(t, axis.Score, 0)
}

func TestTechnicalAxis_SparseDataDropsComponents(t *testing.T) {
	candles := trendCandles(10, 50000, 5)
	snap := &domain.FeatureSnapshot{Price: 50050}

	axis := TechnicalAxis(snap, candles, DefaultTechnicalConfig())

	_, hasMA := axis.Components["ma_structure"]
	assert.False(t, hasMA, "ema lookbacks unmet")
	assert.Contains(t, axis.Components, "momentum")
}

func TestMacroAxis_EmptyIsNeutral(t *testing.T) {
	axis := MacroAxis(nil, time.Now())
	assert.Equal(t, 0, axis.Score)
	assert.Empty(t, axis.Components)
}

func TestMacroAxis_TimeDecayHalvesContribution(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	events := []MacroEvent{
		{
			Label: "rate_decision", Score: 60, Weight: 1.0,
			Timestamp: now.Add(-6 * time.Hour), HalfLifeHours: 6.0,
		},
	}

	axis := MacroAxis(events, now)

	assert.Equal(t, 30, axis.Score)
	assert.Equal(t, 30, axis.Components["rate_decision"])
}

func TestMacroAxis_WeightScalesAndFutureEventsDoNotAmplify(t *testing.T) {
	now := time.Now()
	events := []MacroEvent{
		{Label: "etf_flows", Score: -80, Weight: 0.5, Timestamp: now.Add(time.Hour), HalfLifeHours: 6.0},
	}

	axis := MacroAxis(events, now)
	assert.Equal(t, -40, axis.Score, "future timestamp clamps to zero age")
}

func TestPositionAxis_FlatIsNeutral(t *testing.T) {
	snap := &domain.FeatureSnapshot{Price: 50000, ATRPct: domain.Float(0.8)}

	axis := PositionAxis(&domain.PositionContext{}, snap, 40, DefaultPositionConfig())
	assert.Equal(t, 0, axis.Score)
	assert.Empty(t, axis.Components)
}

func TestPositionAxis_HealthyLongLeansLong(t *testing.T) {
	snap := &domain.FeatureSnapshot{Price: 50000, ATRPct: domain.Float(0.8)}
	position := &domain.PositionContext{
		Side: domain.SidePtr(domain.SideLong), Qty: 1.0, Stage: 1,
		UnrealizedPnLPct: domain.Float(1.6),
	}

	axis := PositionAxis(position, snap, 40, DefaultPositionConfig())

	assert.Equal(t, 20, axis.Components["pnl_vs_atr"], "two ATRs in profit")
	assert.Equal(t, 15, axis.Components["tech_alignment"])
	assert.Greater(t, axis.Score, 0)
}

func TestPositionAxis_DeepStageLeansAgainstAdding(t *testing.T) {
	snap := &domain.FeatureSnapshot{Price: 50000}
	position := &domain.PositionContext{
		Side: domain.SidePtr(domain.SideLong), Qty: 1.0, Stage: 4,
	}

	axis := PositionAxis(position, snap, 0, DefaultPositionConfig())
	assert.Equal(t, -20, axis.Components["stage_utilization"])
}

func TestPositionAxis_StopProximityTurnsAgainstPosition(t *testing.T) {
	snap := &domain.FeatureSnapshot{Price: 50000, ATRPct: domain.Float(1.0)}
	stop := 49900.0 // 0.2% away, inside one ATR
	position := &domain.PositionContext{
		Side: domain.SidePtr(domain.SideLong), Qty: 1.0, Stage: 1,
		StopPrice: &stop,
	}

	axis := PositionAxis(position, snap, 0, DefaultPositionConfig())
	assert.Equal(t, -20, axis.Components["stop_proximity"])
}

func TestNewsAxis_SupplementaryAndBounded(t *testing.T) {
	axis := NewsAxis(nil)
	assert.Equal(t, 0, axis.Score)
	assert.True(t, axis.IsSupplementary)

	score := 140
	axis = NewsAxis(&score)
	assert.Equal(t, 100, axis.Score)
}

func TestLiquidityAxis_PassesFlowBiasThrough(t *testing.T) {
	result := flow.Result{
		Bias:       -45,
		Components: map[string]int{"open_interest": -30, "funding": -15},
	}

	axis := LiquidityAxis(result)

	assert.Equal(t, "liquidity", axis.Name)
	assert.Equal(t, -45, axis.Score)
	assert.Equal(t, -30, axis.Components["open_interest"])
	assert.False(t, axis.IsSupplementary)
}
