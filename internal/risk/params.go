// Package risk derives stop, target, sizing, and leverage parameters from
// the active regime and score confidence.
package risk

// RegimeClass is the execution-regime taxonomy risk parameters key on. It is
// derived from the mode router output, not from the monitoring regime label.
type RegimeClass string

const (
	StaticRange RegimeClass = "STATIC_RANGE"
	DriftUp     RegimeClass = "DRIFT_UP"
	DriftDown   RegimeClass = "DRIFT_DOWN"
	BreakoutCls RegimeClass = "BREAKOUT"
)

// MarketHealth is the coarse venue/market condition flag from the health
// pipeline.
type MarketHealth string

const (
	HealthOK   MarketHealth = "OK"
	HealthWarn MarketHealth = "WARN"
)

// Params is one cycle's derived risk parameterization.
type Params struct {
	SLPct          float64  `json:"sl_pct"`
	TPPct          float64  `json:"tp_pct"`
	StageSliceMult float64  `json:"stage_slice_mult"` // (0,1]
	LeverageMax    int      `json:"leverage_max"`     // 3-8
	MaxStage       *int     `json:"max_stage,omitempty"`
	Reasoning      []string `json:"reasoning"`
}

// ParamLookup resolves externally managed leverage bands per regime and
// shock type. A nil lookup, or ok=false, means no external clamp applies:
// absence fails open, it never raises.
type ParamLookup func(regime RegimeClass, shockType string) (minLev, maxLev int, ok bool)

// Profile holds the regime-specific stop geometry and slice factor.
type Profile struct {
	ATRMult     float64 `yaml:"atr_mult"`
	MinSLPct    float64 `yaml:"min_sl_pct"`
	MaxSLPct    float64 `yaml:"max_sl_pct"`
	SliceFactor float64 `yaml:"slice_factor"`
	LeverageCap int     `yaml:"leverage_cap"`
}
