package risk

import (
	"fmt"
)

// Config holds risk-engine tuning. The regime-aware path and the
// equity-fraction sizing path are separately flag-selected; the legacy
// flat-ATR path remains the fallback.
type Config struct {
	UseRegimeAware  bool    `yaml:"use_regime_aware"`
	UseEquitySizing bool    `yaml:"use_equity_sizing"`
	TPRRatio        float64 `yaml:"tp_r_ratio"` // reward:risk multiple

	BreakoutATRMult float64 `yaml:"breakout_atr_mult"`

	ChaseImpulseMax float64 `yaml:"chase_impulse_max"` // percent body triggering slice halving
	LossStreak2Mult float64 `yaml:"loss_streak_2_mult"`
	LossStreak3Mult float64 `yaml:"loss_streak_3_mult"`

	LeverageNormal       int `yaml:"leverage_normal"`
	LeverageBreakout     int `yaml:"leverage_breakout"`
	LeverageStageCeiling int `yaml:"leverage_stage_ceiling"`
	StageCeilingFrom     int `yaml:"stage_ceiling_from"`

	// Legacy flat-ATR parameters
	LegacyATRMult  float64 `yaml:"legacy_atr_mult"`
	LegacyMinSLPct float64 `yaml:"legacy_min_sl_pct"`
	LegacyMaxSLPct float64 `yaml:"legacy_max_sl_pct"`

	// v1.1 equity-fraction sizing
	RiskPct     float64 `yaml:"risk_pct"`     // fraction of equity at risk per trade
	CapMaxPct   float64 `yaml:"cap_max_pct"`  // max fraction of equity per position
	MinNotional float64 `yaml:"min_notional"` // exchange minimum, USDT
}

// DefaultConfig returns production risk tuning.
func DefaultConfig() Config {
	return Config{
		UseRegimeAware:  true,
		UseEquitySizing: false,
		TPRRatio:        2.0,

		BreakoutATRMult: 2.0,

		ChaseImpulseMax: 1.2,
		LossStreak2Mult: 0.7,
		LossStreak3Mult: 0.5,

		LeverageNormal:       5,
		LeverageBreakout:     8,
		LeverageStageCeiling: 6,
		StageCeilingFrom:     3,

		LegacyATRMult:  1.5,
		LegacyMinSLPct: 0.5,
		LegacyMaxSLPct: 1.5,

		RiskPct:     0.01,
		CapMaxPct:   0.25,
		MinNotional: 10.0,
	}
}

// Inputs carries the per-cycle readings the risk engine consumes.
type Inputs struct {
	Regime       RegimeClass
	ShockType    string // empty when not in shock
	ATRPct       *float64
	Impulse      *float64
	MarketHealth MarketHealth
	LossStreak   int
	Stage        int
	Lookup       ParamLookup // optional external leverage bands
}

// Engine computes risk parameters.
type Engine struct {
	config   Config
	profiles map[RegimeClass]Profile
}

// NewEngine creates a risk engine with regime profiles derived from config.
func NewEngine(config Config) *Engine {
	return &Engine{
		config: config,
		profiles: map[RegimeClass]Profile{
			StaticRange: {ATRMult: 1.5, MinSLPct: 0.5, MaxSLPct: 0.9, SliceFactor: 1.0, LeverageCap: config.LeverageNormal},
			DriftUp:     {ATRMult: 1.5, MinSLPct: 0.6, MaxSLPct: 1.2, SliceFactor: 1.0, LeverageCap: config.LeverageNormal},
			DriftDown:   {ATRMult: 1.5, MinSLPct: 0.6, MaxSLPct: 1.2, SliceFactor: 1.0, LeverageCap: config.LeverageNormal},
			BreakoutCls: {ATRMult: config.BreakoutATRMult, MinSLPct: 0.8, MaxSLPct: 2.0, SliceFactor: 0.6, LeverageCap: config.LeverageBreakout},
		},
	}
}

// Compute derives risk parameters for one decision. The regime-aware path is
// used when enabled; otherwise the legacy flat-ATR path runs. Errors mean
// the inputs were insufficient; the caller converts them into the
// conservative fallback (see ConservativeDefaults).
func (e *Engine) Compute(in Inputs) (*Params, error) {
	if in.ATRPct == nil {
		return nil, fmt.Errorf("risk: atr_pct unavailable")
	}
	if *in.ATRPct < 0 {
		return nil, fmt.Errorf("risk: negative atr_pct %.4f", *in.ATRPct)
	}

	if e.config.UseRegimeAware {
		return e.computeRegimeAware(in)
	}
	return e.computeLegacy(in)
}

func (e *Engine) computeRegimeAware(in Inputs) (*Params, error) {
	profile, ok := e.profiles[in.Regime]
	if !ok {
		// Unknown regime class degrades to the tightest profile.
		profile = e.profiles[StaticRange]
	}

	params := &Params{StageSliceMult: 1.0}
	params.addReason("regime %s: atr_mult %.1f, sl band [%.2f%%, %.2f%%]",
		in.Regime, profile.ATRMult, profile.MinSLPct, profile.MaxSLPct)

	params.SLPct = clampFloat(profile.ATRMult**in.ATRPct, profile.MinSLPct, profile.MaxSLPct)
	// TP is always derived from SL; never computed independently.
	params.TPPct = params.SLPct * e.config.TPRRatio

	// Slice reductions stack multiplicatively; nothing overwrites.
	if profile.SliceFactor != 1.0 {
		params.StageSliceMult *= profile.SliceFactor
		params.addReason("regime slice factor x%.2f", profile.SliceFactor)
	}
	if in.Impulse != nil && *in.Impulse > e.config.ChaseImpulseMax {
		params.StageSliceMult *= 0.5
		params.addReason("impulse %.2f%% above chase threshold, slice x0.5", *in.Impulse)
	}
	if in.MarketHealth == HealthWarn {
		breakoutSlice := e.profiles[BreakoutCls].SliceFactor
		if params.StageSliceMult > breakoutSlice {
			params.StageSliceMult = breakoutSlice
			params.addReason("market health WARN, slice capped at %.2f", breakoutSlice)
		}
	}
	e.applyLossStreak(params, in.LossStreak)

	params.LeverageMax = profile.LeverageCap
	if in.Stage >= e.config.StageCeilingFrom && params.LeverageMax > e.config.LeverageStageCeiling {
		params.LeverageMax = e.config.LeverageStageCeiling
		params.addReason("stage %d >= %d, leverage capped at %dx", in.Stage, e.config.StageCeilingFrom, params.LeverageMax)
	}
	e.applyExternalBand(params, in)

	return params, nil
}

func (e *Engine) computeLegacy(in Inputs) (*Params, error) {
	params := &Params{StageSliceMult: 1.0}
	params.addReason("legacy flat atr_mult %.1f", e.config.LegacyATRMult)

	params.SLPct = clampFloat(e.config.LegacyATRMult**in.ATRPct, e.config.LegacyMinSLPct, e.config.LegacyMaxSLPct)
	params.TPPct = params.SLPct * e.config.TPRRatio

	e.applyLossStreak(params, in.LossStreak)

	params.LeverageMax = e.config.LeverageNormal
	e.applyExternalBand(params, in)

	return params, nil
}

func (e *Engine) applyLossStreak(params *Params, streak int) {
	switch {
	case streak >= 3:
		params.StageSliceMult *= e.config.LossStreak3Mult
		params.addReason("loss streak %d, slice x%.2f", streak, e.config.LossStreak3Mult)
	case streak >= 2:
		params.StageSliceMult *= e.config.LossStreak2Mult
		params.addReason("loss streak %d, slice x%.2f", streak, e.config.LossStreak2Mult)
	}
}

// applyExternalBand clamps leverage into the externally managed band when a
// lookup is present. A missing lookup skips clamping entirely.
func (e *Engine) applyExternalBand(params *Params, in Inputs) {
	if in.Lookup == nil {
		return
	}
	minLev, maxLev, ok := in.Lookup(in.Regime, in.ShockType)
	if !ok {
		return
	}
	if params.LeverageMax > maxLev {
		params.LeverageMax = maxLev
		params.addReason("external band caps leverage at %dx", maxLev)
	}
	if params.LeverageMax < minLev {
		params.LeverageMax = minLev
		params.addReason("external band floors leverage at %dx", minLev)
	}
}

// ConservativeDefaults is the fail-open fallback when risk computation
// cannot run: tight stop, matching target, half slice, minimum leverage.
func (e *Engine) ConservativeDefaults() *Params {
	sl := e.config.LegacyMinSLPct
	return &Params{
		SLPct:          sl,
		TPPct:          sl * e.config.TPRRatio,
		StageSliceMult: 0.5,
		LeverageMax:    3,
		Reasoning:      []string{"fail-open conservative defaults"},
	}
}

func (p *Params) addReason(format string, args ...interface{}) {
	p.Reasoning = append(p.Reasoning, fmt.Sprintf(format, args...))
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
