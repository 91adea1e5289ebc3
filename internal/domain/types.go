package domain

import "time"

// Side represents the direction of a position or signal.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// DriftDirection labels the slow directional bias inside a ranging market.
type DriftDirection string

const (
	DriftUp   DriftDirection = "UP"
	DriftDown DriftDirection = "DOWN"
)

// Candle is a single OHLCV bar. Sequences are ordered oldest to newest
// unless a function documents otherwise.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Range returns the high-low span of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Body returns the signed open-to-close move.
func (c Candle) Body() float64 {
	return c.Close - c.Open
}

// BodyPct returns the signed open-to-close move as a percentage of the open.
func (c Candle) BodyPct() float64 {
	if c.Open == 0 {
		return 0
	}
	return (c.Close - c.Open) / c.Open * 100.0
}

// PositionContext is the read-only view of the current position owned by the
// execution subsystem. A nil Side means flat.
type PositionContext struct {
	Side               *Side    `json:"side"`
	Qty                float64  `json:"qty"`
	AvgEntryPrice      float64  `json:"avg_entry_price"`
	Stage              int      `json:"stage"`
	TradeBudgetUsedPct float64  `json:"trade_budget_used_pct"`
	StopPrice          *float64 `json:"stop_price,omitempty"`
	UnrealizedPnLPct   *float64 `json:"unrealized_pnl_pct,omitempty"`
}

// IsOpen reports whether a position is currently held.
func (p *PositionContext) IsOpen() bool {
	return p != nil && p.Side != nil && p.Qty > 0
}

// Float returns a pointer to v. Snapshot fields use pointers so that a
// missing reading stays distinguishable from a zero reading.
func Float(v float64) *float64 { return &v }

// SidePtr returns a pointer to s.
func SidePtr(s Side) *Side { return &s }

// DriftPtr returns a pointer to d.
func DriftPtr(d DriftDirection) *DriftDirection { return &d }
