package domain

import "time"

// FeatureSnapshot is the per-cycle bag of indicator readings the engine
// consumes. It is produced fresh each polling cycle and never mutated after
// creation. A nil field means the upstream pipeline could not produce that
// reading this cycle; consumers must treat nil as "insufficient data", never
// as zero.
type FeatureSnapshot struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Timestamp time.Time `json:"timestamp"`

	Price float64 `json:"price"`

	// Volatility and band structure
	ATRPct   *float64 `json:"atr_pct,omitempty"`
	BBWidth  *float64 `json:"bb_width,omitempty"`
	BBWRatio *float64 `json:"bbw_ratio,omitempty"` // current width vs its recent average
	BBMid    *float64 `json:"bb_mid,omitempty"`
	BBUpper  *float64 `json:"bb_upper,omitempty"`
	BBLower  *float64 `json:"bb_lower,omitempty"`

	// Participation
	VolumeZ       *float64 `json:"volume_z,omitempty"`
	VolumeRatio5m *float64 `json:"volume_ratio_5m,omitempty"`
	Return5mPct   *float64 `json:"return_5m_pct,omitempty"`
	Impulse       *float64 `json:"impulse,omitempty"` // latest bar body, percent of open

	// Trend strength
	ADX      *float64 `json:"adx,omitempty"`
	PlusDI   *float64 `json:"plus_di,omitempty"`
	MinusDI  *float64 `json:"minus_di,omitempty"`
	RSI      *float64 `json:"rsi,omitempty"`
	POCSlope *float64 `json:"poc_slope,omitempty"`

	// Volume profile levels
	POC *float64 `json:"poc,omitempty"`
	VAH *float64 `json:"vah,omitempty"`
	VAL *float64 `json:"val,omitempty"`

	// Position of price inside the value area, 0 at VAL and 1 at VAH
	RangePosition *float64 `json:"range_position,omitempty"`

	// Drift
	DriftScore     *float64        `json:"drift_score,omitempty"`
	DriftDirection *DriftDirection `json:"drift_direction,omitempty"`

	// Venue quality flags from the liquidity pipeline
	SpreadOK    bool `json:"spread_ok"`
	LiquidityOK bool `json:"liquidity_ok"`
}

// InsideVA reports whether price sits inside the value area. Returns false
// when the value-area levels are missing.
func (fs *FeatureSnapshot) InsideVA() bool {
	if fs.VAH == nil || fs.VAL == nil {
		return false
	}
	return fs.Price <= *fs.VAH && fs.Price >= *fs.VAL
}

// HasValueArea reports whether both value-area boundaries are present.
func (fs *FeatureSnapshot) HasValueArea() bool {
	return fs.VAH != nil && fs.VAL != nil
}
