package strategy

import (
	"fmt"

	"github.com/quantegy/tradepulse/internal/domain"
)

// VolatileRangeConfig tunes the default mode strategy.
type VolatileRangeConfig struct {
	RPLongThreshold  float64 `yaml:"rp_long_threshold"`
	RPShortThreshold float64 `yaml:"rp_short_threshold"`
	ExitPnLPct       float64 `yaml:"exit_pnl_pct"` // take-profit on unrealized move
}

// DefaultVolatileRangeConfig returns production tuning for the default mode.
func DefaultVolatileRangeConfig() VolatileRangeConfig {
	return VolatileRangeConfig{
		RPLongThreshold:  0.10,
		RPShortThreshold: 0.90,
		ExitPnLPct:       1.0,
	}
}

// VolatileRange runs when neither the quiet-range nor the breakout mode
// matches. It fades only deep edges and only in the drift direction when a
// drift submode is active.
type VolatileRange struct {
	config VolatileRangeConfig
}

func NewVolatileRange(config VolatileRangeConfig) *VolatileRange {
	return &VolatileRange{config: config}
}

func (s *VolatileRange) Name() string { return "volatile_range" }

func (s *VolatileRange) Decide(ctx Context) (*Decision, error) {
	snap := ctx.Snapshot
	if snap == nil || snap.RangePosition == nil {
		return nil, fmt.Errorf("volatile_range: range_position unavailable")
	}
	rp := *snap.RangePosition

	if ctx.Position.IsOpen() {
		return s.manage(ctx, rp), nil
	}

	var side domain.Side
	switch {
	case rp <= s.config.RPLongThreshold:
		side = domain.SideLong
	case rp >= s.config.RPShortThreshold:
		side = domain.SideShort
	default:
		return hold(fmt.Sprintf("range_position %.2f not at a deep edge", rp)), nil
	}

	// In a drifting range only drift-aligned fades are allowed; fading
	// against the drift in a volatile box is how ranges turn into losses.
	if drift := ctx.Mode.DriftSubmode; drift != nil {
		if (side == domain.SideLong && *drift == domain.DriftDown) ||
			(side == domain.SideShort && *drift == domain.DriftUp) {
			return hold(fmt.Sprintf("%s entry opposes drift %s", side, *drift)), nil
		}
	}

	return &Decision{
		Action:    ActionEnter,
		Side:      &side,
		Reason:    fmt.Sprintf("deep edge fade %s in volatile range, range_position %.2f", side, rp),
		SignalKey: newSignalKey(),
		OrderType: "LIMIT",
	}, nil
}

func (s *VolatileRange) manage(ctx Context, rp float64) *Decision {
	side := *ctx.Position.Side

	if side == domain.SideLong && rp >= s.config.RPShortThreshold {
		return &Decision{Action: ActionExit, Side: &side, Reason: fmt.Sprintf("opposite edge reached, range_position %.2f", rp)}
	}
	if side == domain.SideShort && rp <= s.config.RPLongThreshold {
		return &Decision{Action: ActionExit, Side: &side, Reason: fmt.Sprintf("opposite edge reached, range_position %.2f", rp)}
	}
	if pnl := ctx.Position.UnrealizedPnLPct; pnl != nil && *pnl >= s.config.ExitPnLPct {
		return &Decision{Action: ActionExit, Side: &side, Reason: fmt.Sprintf("unrealized pnl %.2f%% at target", *pnl)}
	}
	return hold("position open, holding through volatile range")
}
