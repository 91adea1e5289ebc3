package regime

import (
	"time"
)

// Regime is the coarse market-state label for a symbol/timeframe.
type Regime string

const (
	Range    Regime = "RANGE"
	Breakout Regime = "BREAKOUT"
	Shock    Regime = "SHOCK"
)

// ShockType refines a SHOCK classification.
type ShockType string

const (
	ShockVeto     ShockType = "VETO"      // move too violent to trade at all
	ShockAccel    ShockType = "ACCEL"     // shock accelerating a confirmed breakout
	ShockRiskDown ShockType = "RISK_DOWN" // unaligned shock, reduce exposure
)

// ShockDirection is the direction of a shock move when one can be inferred.
type ShockDirection string

const (
	ShockUp   ShockDirection = "UP"
	ShockDown ShockDirection = "DOWN"
)

// PriceVsVA locates price relative to the value area.
type PriceVsVA string

const (
	AboveVAH PriceVsVA = "ABOVE_VAH"
	BelowVAL PriceVsVA = "BELOW_VAL"
	InsideVA PriceVsVA = "INSIDE"
)

// Result is one immutable classification, created once per cycle. It is
// persisted keyed by (symbol, timeframe, ts) with upsert semantics so
// re-running a cycle for the same timestamp is idempotent.
type Result struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Timestamp time.Time `json:"ts"`

	Regime     Regime `json:"regime"`
	Confidence int    `json:"confidence"` // 0-100

	ADX14   *float64 `json:"adx_14,omitempty"`
	PlusDI  *float64 `json:"plus_di,omitempty"`
	MinusDI *float64 `json:"minus_di,omitempty"`

	BBWRatio *float64 `json:"bbw_ratio,omitempty"`

	POC       *float64  `json:"poc,omitempty"`
	VAH       *float64  `json:"vah,omitempty"`
	VAL       *float64  `json:"val,omitempty"`
	PriceVsVA PriceVsVA `json:"price_vs_va"`

	FlowBias  int  `json:"flow_bias"` // -100..+100
	FlowShock bool `json:"flow_shock"`

	ShockType      *ShockType      `json:"shock_type,omitempty"`
	ShockDirection *ShockDirection `json:"shock_direction,omitempty"`

	BreakoutConfirmed  bool            `json:"breakout_confirmed"`
	BreakoutConditions map[string]bool `json:"breakout_conditions"`
}

// IsVeto reports whether the classification forbids any trading action.
func (r *Result) IsVeto() bool {
	return r.Regime == Shock && r.ShockType != nil && *r.ShockType == ShockVeto
}
