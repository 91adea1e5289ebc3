package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestCompute_SLClampedToRegimeBand(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 1.5 * 0.2 = 0.3, below the STATIC_RANGE floor of 0.5.
	params, err := engine.Compute(Inputs{Regime: StaticRange, ATRPct: f(0.2)})
	require.NoError(t, err)
	assert.Equal(t, 0.5, params.SLPct)

	// 1.5 * 2.0 = 3.0, above the STATIC_RANGE cap of 0.9.
	params, err = engine.Compute(Inputs{Regime: StaticRange, ATRPct: f(2.0)})
	require.NoError(t, err)
	assert.Equal(t, 0.9, params.SLPct)

	// In band: 1.5 * 0.5 = 0.75.
	params, err = engine.Compute(Inputs{Regime: StaticRange, ATRPct: f(0.5)})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, params.SLPct, 1e-9)
}

func TestCompute_TPAlwaysDerivedFromSL(t *testing.T) {
	config := DefaultConfig()
	config.TPRRatio = 2.0
	engine := NewEngine(config)

	for _, regime := range []RegimeClass{StaticRange, DriftUp, DriftDown, BreakoutCls} {
		for _, atr := range []float64{0.1, 0.5, 1.0, 3.0} {
			params, err := engine.Compute(Inputs{Regime: regime, ATRPct: f(atr)})
			require.NoError(t, err)
			assert.InDelta(t, params.SLPct*2.0, params.TPPct, 1e-9,
				"regime %s atr %.2f", regime, atr)
		}
	}
}

func TestCompute_DriftProfileWiderThanStatic(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	params, err := engine.Compute(Inputs{Regime: DriftDown, ATRPct: f(0.2)})
	require.NoError(t, err)
	assert.Equal(t, 0.6, params.SLPct)

	params, err = engine.Compute(Inputs{Regime: DriftUp, ATRPct: f(5.0)})
	require.NoError(t, err)
	assert.Equal(t, 1.2, params.SLPct)
}

func TestCompute_BreakoutScenario(t *testing.T) {
	// High-vol breakout with a 3-trade loss streak and deep stage:
	// slice = 1.0 * 0.6 (breakout) * 0.5 (streak >= 3), leverage starts at
	// the breakout cap of 8 and is ceilinged to 6 by stage >= 3.
	engine := NewEngine(DefaultConfig())

	params, err := engine.Compute(Inputs{
		Regime:     BreakoutCls,
		ATRPct:     f(0.8),
		LossStreak: 3,
		Stage:      3,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.6, params.SLPct, 1e-9) // 2.0 * 0.8 inside [0.8, 2.0]
	assert.InDelta(t, 3.2, params.TPPct, 1e-9)
	assert.InDelta(t, 0.3, params.StageSliceMult, 1e-9)
	assert.Equal(t, 6, params.LeverageMax)
}

func TestCompute_SliceReductionsStackMultiplicatively(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	params, err := engine.Compute(Inputs{
		Regime:     DriftUp,
		ATRPct:     f(0.5),
		Impulse:    f(2.0), // above chase threshold
		LossStreak: 2,
	})
	require.NoError(t, err)
	// 1.0 * 0.5 (chase) * 0.7 (streak 2)
	assert.InDelta(t, 0.35, params.StageSliceMult, 1e-9)
}

func TestCompute_HealthWarnCapsSlice(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	params, err := engine.Compute(Inputs{
		Regime:       StaticRange,
		ATRPct:       f(0.5),
		MarketHealth: HealthWarn,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.6, params.StageSliceMult)

	// Already below the cap via the chase reduction: WARN must not raise
	// it back up.
	params, err = engine.Compute(Inputs{
		Regime:       StaticRange,
		ATRPct:       f(0.5),
		Impulse:      f(1.5),
		MarketHealth: HealthWarn,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, params.StageSliceMult, 1e-9)

	// The streak multiplier applies after the cap and stacks on top of it.
	params, err = engine.Compute(Inputs{
		Regime:       StaticRange,
		ATRPct:       f(0.5),
		MarketHealth: HealthWarn,
		LossStreak:   3,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, params.StageSliceMult, 1e-9)
}

func TestCompute_ExternalBandClampsLeverage(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	lookup := func(regime RegimeClass, shockType string) (int, int, bool) {
		return 2, 4, true
	}
	params, err := engine.Compute(Inputs{Regime: BreakoutCls, ATRPct: f(0.8), Lookup: lookup})
	require.NoError(t, err)
	assert.Equal(t, 4, params.LeverageMax)

	// Lookup declining to answer leaves leverage untouched.
	declined := func(regime RegimeClass, shockType string) (int, int, bool) {
		return 0, 0, false
	}
	params, err = engine.Compute(Inputs{Regime: BreakoutCls, ATRPct: f(0.8), Lookup: declined})
	require.NoError(t, err)
	assert.Equal(t, 8, params.LeverageMax)
}

func TestCompute_MissingATRErrors(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	_, err := engine.Compute(Inputs{Regime: StaticRange})
	assert.Error(t, err)

	_, err = engine.Compute(Inputs{Regime: StaticRange, ATRPct: f(-0.1)})
	assert.Error(t, err)
}

func TestCompute_LegacyPath(t *testing.T) {
	config := DefaultConfig()
	config.UseRegimeAware = false
	engine := NewEngine(config)

	params, err := engine.Compute(Inputs{Regime: BreakoutCls, ATRPct: f(0.6)})
	require.NoError(t, err)
	// Legacy path ignores regime profiles: 1.5 * 0.6 = 0.9 in [0.5, 1.5].
	assert.InDelta(t, 0.9, params.SLPct, 1e-9)
	assert.Equal(t, 5, params.LeverageMax)
}

func TestConservativeDefaults(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	params := engine.ConservativeDefaults()
	assert.Equal(t, 0.5, params.SLPct)
	assert.Equal(t, 1.0, params.TPPct)
	assert.Equal(t, 0.5, params.StageSliceMult)
	assert.Equal(t, 3, params.LeverageMax)
}

func TestComputeSizing(t *testing.T) {
	config := DefaultConfig()
	config.UseEquitySizing = true
	engine := NewEngine(config)

	// 10000 * 0.01 / 0.008 = 12500, capped at 25% = 2500.
	s, err := engine.ComputeSizing(10000, 0.8)
	require.NoError(t, err)
	assert.InDelta(t, 2500, s.PositionUSDT, 1e-9)
	assert.True(t, s.Capped)

	// 100 * 0.01 / 0.02 = 50, capped at 25% = 25, above min notional.
	s, err = engine.ComputeSizing(100, 2.0)
	require.NoError(t, err)
	assert.InDelta(t, 25, s.PositionUSDT, 1e-9)
	assert.True(t, s.Capped)
	assert.False(t, s.Floored)

	s, err = engine.ComputeSizing(20, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.PositionUSDT)
	assert.True(t, s.Floored)
}

func TestComputeSizing_Disabled(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	_, err := engine.ComputeSizing(10000, 0.8)
	assert.Error(t, err)
}
