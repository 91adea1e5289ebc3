// Package router maps a feature snapshot onto an execution mode. It is a
// second, independently-thresholded regime decision so execution routing can
// be tuned without disturbing the monitoring-oriented regime labels.
package router

import (
	"fmt"

	"github.com/quantegy/tradepulse/internal/domain"
)

// Mode selects which per-mode strategy object runs this cycle.
type Mode string

const (
	ModeA Mode = "MODE_A" // static range, mean reversion
	ModeB Mode = "MODE_B" // volatile or drifting range (default)
	ModeC Mode = "MODE_C" // shock/breakout entry mode
)

// Result is the routing decision for one cycle. It carries no persisted
// identity: always recomputed from the current snapshot, never read back.
type Result struct {
	Mode         Mode                   `json:"mode"`
	Confidence   int                    `json:"confidence"` // 0-100
	Reasons      []string               `json:"reasons"`
	DriftSubmode *domain.DriftDirection `json:"drift_submode,omitempty"`
}

// Config holds routing thresholds.
type Config struct {
	VolZMin          float64 `yaml:"vol_z_min"`           // MODE_C volume spike threshold
	ImpulseMin       float64 `yaml:"impulse_min"`         // MODE_C impulse threshold, percent
	VABufferPct      float64 `yaml:"va_buffer_pct"`       // outside-VA buffer, fraction (0.001 = 0.1%)
	ADXMax           float64 `yaml:"adx_max"`             // MODE_A quiet-trend ceiling
	BBWidthMax       float64 `yaml:"bb_width_max"`        // MODE_A compression ceiling
	ATRPctMax        float64 `yaml:"atr_pct_max"`         // MODE_A volatility ceiling, percent
	POCSlopeMax      float64 `yaml:"poc_slope_max"`       // MODE_A profile drift ceiling
	DriftPOCSlopeMin float64 `yaml:"drift_poc_slope_min"` // drift submode trigger
}

// DefaultConfig returns production routing thresholds.
func DefaultConfig() Config {
	return Config{
		VolZMin:          2.5,
		ImpulseMin:       0.8,
		VABufferPct:      0.002,
		ADXMax:           22.0,
		BBWidthMax:       0.035,
		ATRPctMax:        0.9,
		POCSlopeMax:      0.05,
		DriftPOCSlopeMin: 0.3,
	}
}

// Router routes each cycle to an execution mode.
type Router struct {
	config Config
}

// New creates a Router with the given config.
func New(config Config) *Router {
	return &Router{config: config}
}

// Route evaluates MODE_C, then MODE_A, then falls back to MODE_B. Reason
// strings are for audit and telemetry, never decision logic.
func (r *Router) Route(snapshot *domain.FeatureSnapshot) Result {
	if result, ok := r.routeModeC(snapshot); ok {
		return result
	}
	if result, ok := r.routeModeA(snapshot); ok {
		return result
	}
	return r.routeModeB(snapshot)
}

func (r *Router) routeModeC(snap *domain.FeatureSnapshot) (Result, bool) {
	if !snap.HasValueArea() {
		return Result{}, false
	}

	volSpike := snap.VolumeZ != nil && *snap.VolumeZ >= r.config.VolZMin
	impulseHit := snap.Impulse != nil && *snap.Impulse >= r.config.ImpulseMin
	if !volSpike && !impulseHit {
		return Result{}, false
	}

	lower := *snap.VAL * (1 - r.config.VABufferPct)
	upper := *snap.VAH * (1 + r.config.VABufferPct)
	if snap.Price >= lower && snap.Price <= upper {
		return Result{}, false
	}

	reasons := []string{fmt.Sprintf("price %.2f outside value area [%.2f, %.2f]", snap.Price, lower, upper)}
	confidence := 70
	if volSpike {
		reasons = append(reasons, fmt.Sprintf("volume_z %.2f >= %.2f", *snap.VolumeZ, r.config.VolZMin))
		confidence += 10
	}
	if impulseHit {
		reasons = append(reasons, fmt.Sprintf("impulse %.2f%% >= %.2f%%", *snap.Impulse, r.config.ImpulseMin))
		confidence += 10
	}

	return Result{Mode: ModeC, Confidence: confidence, Reasons: reasons}, true
}

func (r *Router) routeModeA(snap *domain.FeatureSnapshot) (Result, bool) {
	type check struct {
		name    string
		present bool
		ok      bool
		detail  string
	}

	checks := []check{
		{
			name:    "adx",
			present: snap.ADX != nil,
			ok:      snap.ADX != nil && *snap.ADX <= r.config.ADXMax,
			detail:  fmt.Sprintf("adx <= %.1f", r.config.ADXMax),
		},
		{
			name:    "bb_width",
			present: snap.BBWidth != nil,
			ok:      snap.BBWidth != nil && *snap.BBWidth <= r.config.BBWidthMax,
			detail:  fmt.Sprintf("bb_width <= %.3f", r.config.BBWidthMax),
		},
		{
			name:    "atr_pct",
			present: snap.ATRPct != nil,
			ok:      snap.ATRPct != nil && *snap.ATRPct <= r.config.ATRPctMax,
			detail:  fmt.Sprintf("atr_pct <= %.2f", r.config.ATRPctMax),
		},
		{
			name:    "poc_slope",
			present: snap.POCSlope != nil,
			ok:      snap.POCSlope != nil && *snap.POCSlope <= r.config.POCSlopeMax,
			detail:  fmt.Sprintf("poc_slope <= %.3f", r.config.POCSlopeMax),
		},
	}

	missing := 0
	met := 0
	var reasons []string
	for _, ch := range checks {
		if !ch.present {
			missing++
			reasons = append(reasons, fmt.Sprintf("%s missing", ch.name))
			continue
		}
		if ch.ok {
			met++
			reasons = append(reasons, fmt.Sprintf("%s quiet (%s)", ch.name, ch.detail))
		}
	}

	// 3-of-4 normally; with exactly one input missing, 2-of-remaining.
	// Two or more missing inputs is insufficient data for the static call.
	required := 3
	switch {
	case missing == 1:
		required = 2
	case missing >= 2:
		return Result{}, false
	}
	if met < required {
		return Result{}, false
	}

	confidence := 60 + met*8
	if confidence > 92 {
		confidence = 92
	}
	return Result{Mode: ModeA, Confidence: confidence, Reasons: reasons}, true
}

func (r *Router) routeModeB(snap *domain.FeatureSnapshot) Result {
	result := Result{
		Mode:       ModeB,
		Confidence: 60,
		Reasons:    []string{"default: neither static-range nor shock conditions met"},
	}

	if snap.DriftScore != nil && *snap.DriftScore > r.config.DriftPOCSlopeMin &&
		snap.DriftDirection != nil &&
		(*snap.DriftDirection == domain.DriftUp || *snap.DriftDirection == domain.DriftDown) {
		result.DriftSubmode = snap.DriftDirection
		result.Confidence = 70
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("drift %s (score %.2f > %.2f)", *snap.DriftDirection, *snap.DriftScore, r.config.DriftPOCSlopeMin))
	}

	return result
}
