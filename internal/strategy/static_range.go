package strategy

import (
	"fmt"
	"math"

	"github.com/quantegy/tradepulse/internal/domain"
)

// StaticRangeConfig tunes the mean-reversion edge-fade strategy.
type StaticRangeConfig struct {
	RPLongThreshold  float64 `yaml:"rp_long_threshold"`   // enter LONG at or below
	RPShortThreshold float64 `yaml:"rp_short_threshold"`  // enter SHORT at or above
	AntiChaseBodyPct float64 `yaml:"anti_chase_body_pct"` // prior candle body blocking entry
	WickConfirmRatio float64 `yaml:"wick_confirm_ratio"`  // wick share of range
	AddDeepenMinDiff float64 `yaml:"add_deepen_min_diff"` // range_position gain past entry edge
}

// DefaultStaticRangeConfig returns production edge-fade tuning.
func DefaultStaticRangeConfig() StaticRangeConfig {
	return StaticRangeConfig{
		RPLongThreshold:  0.15,
		RPShortThreshold: 0.85,
		AntiChaseBodyPct: 0.8,
		WickConfirmRatio: 0.5,
		AddDeepenMinDiff: 0.05,
	}
}

// StaticRange fades value-area edges in quiet ranges. It never chases an
// extended candle into the edge and never enters without rejection evidence.
type StaticRange struct {
	config StaticRangeConfig
}

func NewStaticRange(config StaticRangeConfig) *StaticRange {
	return &StaticRange{config: config}
}

func (s *StaticRange) Name() string { return "static_range" }

func (s *StaticRange) Decide(ctx Context) (*Decision, error) {
	snap := ctx.Snapshot
	if snap == nil || snap.RangePosition == nil {
		return nil, fmt.Errorf("static_range: range_position unavailable")
	}
	if len(ctx.Candles) < 2 {
		return nil, fmt.Errorf("static_range: need at least 2 candles, have %d", len(ctx.Candles))
	}
	rp := *snap.RangePosition

	if ctx.Position.IsOpen() {
		return s.manage(ctx, rp), nil
	}
	return s.tryEnter(ctx, rp), nil
}

func (s *StaticRange) tryEnter(ctx Context, rp float64) *Decision {
	var side domain.Side
	switch {
	case rp <= s.config.RPLongThreshold:
		side = domain.SideLong
	case rp >= s.config.RPShortThreshold:
		side = domain.SideShort
	default:
		return hold(fmt.Sprintf("range_position %.2f not at an edge", rp))
	}

	current := ctx.Candles[len(ctx.Candles)-1]
	prior := ctx.Candles[len(ctx.Candles)-2]

	// A large prior candle in the entry direction means the bounce off the
	// edge already ran; entering now chases it. Absolute block.
	if s.chasing(prior, side) {
		return hold(fmt.Sprintf("anti-chase: prior candle body %.2f%% into %s entry", prior.BodyPct(), side))
	}

	if !s.confirmed(current, prior, side) {
		d := hold(fmt.Sprintf("at %s edge, awaiting rejection confirmation", side))
		d.Meta = map[string]string{"near_edge": string(side)}
		return d
	}

	return &Decision{
		Action:    ActionEnter,
		Side:      &side,
		Reason:    fmt.Sprintf("edge fade %s: range_position %.2f with rejection confirmation", side, rp),
		SignalKey: newSignalKey(),
		OrderType: "LIMIT",
	}
}

func (s *StaticRange) manage(ctx Context, rp float64) *Decision {
	side := *ctx.Position.Side

	// Opposite edge reached: the fade played out. Exit regardless of PnL.
	if side == domain.SideLong && rp >= s.config.RPShortThreshold {
		return &Decision{Action: ActionExit, Side: &side, Reason: fmt.Sprintf("opposite edge reached, range_position %.2f", rp)}
	}
	if side == domain.SideShort && rp <= s.config.RPLongThreshold {
		return &Decision{Action: ActionExit, Side: &side, Reason: fmt.Sprintf("opposite edge reached, range_position %.2f", rp)}
	}

	if ctx.Position.Stage >= ctx.MaxStage {
		return hold(fmt.Sprintf("stage %d at max, holding", ctx.Position.Stage))
	}

	// ADD only when price pushed deeper into the entry edge.
	deeper := false
	switch side {
	case domain.SideLong:
		deeper = rp <= s.config.RPLongThreshold-s.config.AddDeepenMinDiff
	case domain.SideShort:
		deeper = rp >= s.config.RPShortThreshold+s.config.AddDeepenMinDiff
	}
	if deeper {
		return &Decision{
			Action:    ActionAdd,
			Side:      &side,
			Reason:    fmt.Sprintf("price deeper into %s edge, range_position %.2f, stage %d", side, rp, ctx.Position.Stage),
			SignalKey: newSignalKey(),
			OrderType: "LIMIT",
		}
	}
	return hold("position open, no add or exit condition")
}

func (s *StaticRange) chasing(prior domain.Candle, side domain.Side) bool {
	body := prior.BodyPct()
	if math.Abs(body) <= s.config.AntiChaseBodyPct {
		return false
	}
	// Only a prior candle already moving in the entry direction blocks.
	if side == domain.SideLong {
		return body > 0
	}
	return body < 0
}

// confirmed checks for a rejection wick opposite the entry direction or a
// higher-low (LONG) / lower-high (SHORT) against the prior candle.
func (s *StaticRange) confirmed(current, prior domain.Candle, side domain.Side) bool {
	rng := current.Range()
	if side == domain.SideLong {
		if rng > 0 {
			lowerWick := math.Min(current.Open, current.Close) - current.Low
			if lowerWick/rng >= s.config.WickConfirmRatio {
				return true
			}
		}
		return current.Low > prior.Low
	}
	if rng > 0 {
		upperWick := current.High - math.Max(current.Open, current.Close)
		if upperWick/rng >= s.config.WickConfirmRatio {
			return true
		}
	}
	return current.High < prior.High
}
