package strategy

import (
	"fmt"

	"github.com/quantegy/tradepulse/internal/domain"
)

// ShockBreakoutConfig tunes the breakout confirmation strategy.
type ShockBreakoutConfig struct {
	VABufferPct          float64 `yaml:"va_buffer_pct"`           // boundary buffer for breach detection
	RetestBufferPct      float64 `yaml:"retest_buffer_pct"`       // widened zone around the old boundary
	VolZSpikeThreshold   float64 `yaml:"vol_z_spike_threshold"`   // router spike level; hold entry needs 50%
	NewsOverrideMinScore int     `yaml:"news_override_min_score"` // relaxes confirmation to 1 candle
	MaxAddStages         int     `yaml:"max_add_stages"`
	NewBoxLookback       int     `yaml:"new_box_lookback"`
	NewBoxInsideMin      int     `yaml:"new_box_inside_min"`
}

// DefaultShockBreakoutConfig returns production breakout tuning.
func DefaultShockBreakoutConfig() ShockBreakoutConfig {
	return ShockBreakoutConfig{
		VABufferPct:          0.002,
		RetestBufferPct:      0.004,
		VolZSpikeThreshold:   2.5,
		NewsOverrideMinScore: 70,
		MaxAddStages:         2,
		NewBoxLookback:       8,
		NewBoxInsideMin:      5,
	}
}

// ShockBreakout trades value-area breaks after confirmation. Its core rule
// is that the first candle breaching the boundary never produces an entry.
type ShockBreakout struct {
	config ShockBreakoutConfig
}

func NewShockBreakout(config ShockBreakoutConfig) *ShockBreakout {
	return &ShockBreakout{config: config}
}

func (s *ShockBreakout) Name() string { return "shock_breakout" }

func (s *ShockBreakout) Decide(ctx Context) (*Decision, error) {
	snap := ctx.Snapshot
	if snap == nil || !snap.HasValueArea() {
		return nil, fmt.Errorf("shock_breakout: value area unavailable")
	}
	if len(ctx.Candles) < 2 {
		return nil, fmt.Errorf("shock_breakout: need at least 2 candles, have %d", len(ctx.Candles))
	}

	if ctx.Position.IsOpen() {
		return s.manage(ctx), nil
	}
	return s.tryEnter(ctx), nil
}

func (s *ShockBreakout) tryEnter(ctx Context) *Decision {
	snap := ctx.Snapshot
	current := ctx.Candles[len(ctx.Candles)-1]
	prior := ctx.Candles[len(ctx.Candles)-2]

	side, outside := s.breachSide(current.Close, snap)
	if !outside {
		return hold("price inside value area, no breakout")
	}

	firstBreach := s.inside(prior.Close, snap)
	if firstBreach {
		// Never enter on the candle that breaks the boundary. A strong
		// aligned news signal is the only relaxation.
		if !s.newsOverride(ctx.NewsScore, side) {
			return hold(fmt.Sprintf("first candle breaching value area %s, entry blocked", side))
		}
		return s.enter(side, "news override: first-breach entry with aligned high-impact news")
	}

	if reason, ok := s.retestConfirmed(ctx, side); ok {
		return s.enter(side, reason)
	}
	if reason, ok := s.holdConfirmed(ctx, side); ok {
		return s.enter(side, reason)
	}
	return hold(fmt.Sprintf("breakout %s unconfirmed, awaiting retest or hold", side))
}

func (s *ShockBreakout) manage(ctx Context) *Decision {
	snap := ctx.Snapshot
	side := *ctx.Position.Side

	// A new box forming inside the old value area means the breakout
	// failed structurally. Exit and hand routing back to the range mode.
	if s.newBoxForming(ctx.Candles, snap) {
		return &Decision{
			Action: ActionExit,
			Side:   &side,
			Reason: fmt.Sprintf("%d of last %d candles back inside value area, new box forming", s.config.NewBoxInsideMin, s.config.NewBoxLookback),
			Meta:   map[string]string{"handoff_mode": "MODE_B"},
		}
	}

	if ctx.Position.Stage >= s.config.MaxAddStages {
		return hold(fmt.Sprintf("stage %d at breakout add cap", ctx.Position.Stage))
	}
	// Each ADD needs its own fresh retest; the entry confirmation does not
	// carry over.
	if reason, ok := s.retestConfirmed(ctx, side); ok {
		return &Decision{
			Action:    ActionAdd,
			Side:      &side,
			Reason:    "fresh retest reconfirmation: " + reason,
			SignalKey: newSignalKey(),
			OrderType: "LIMIT",
		}
	}
	return hold("position open, no fresh retest")
}

func (s *ShockBreakout) enter(side domain.Side, reason string) *Decision {
	return &Decision{
		Action:    ActionEnter,
		Side:      &side,
		Reason:    reason,
		SignalKey: newSignalKey(),
		OrderType: "LIMIT",
	}
}

// breachSide reports which boundary price sits beyond, with the buffer
// applied. outside is false inside the buffered area.
func (s *ShockBreakout) breachSide(price float64, snap *domain.FeatureSnapshot) (domain.Side, bool) {
	if price > *snap.VAH*(1+s.config.VABufferPct) {
		return domain.SideLong, true
	}
	if price < *snap.VAL*(1-s.config.VABufferPct) {
		return domain.SideShort, true
	}
	return "", false
}

func (s *ShockBreakout) inside(price float64, snap *domain.FeatureSnapshot) bool {
	_, outside := s.breachSide(price, snap)
	return !outside
}

func (s *ShockBreakout) newsOverride(score *int, side domain.Side) bool {
	if score == nil {
		return false
	}
	if side == domain.SideLong {
		return *score >= s.config.NewsOverrideMinScore
	}
	return *score <= -s.config.NewsOverrideMinScore
}

// retestConfirmed checks that the current candle revisited the broken
// boundary within the widened buffer and closed back beyond it.
func (s *ShockBreakout) retestConfirmed(ctx Context, side domain.Side) (string, bool) {
	snap := ctx.Snapshot
	current := ctx.Candles[len(ctx.Candles)-1]

	if side == domain.SideLong {
		level := *snap.VAH
		touched := current.Low <= level*(1+s.config.RetestBufferPct)
		closedBeyond := current.Close > level*(1+s.config.VABufferPct)
		if touched && closedBeyond {
			return fmt.Sprintf("retest of old VAH %.4f held as support", level), true
		}
		return "", false
	}
	level := *snap.VAL
	touched := current.High >= level*(1-s.config.RetestBufferPct)
	closedBeyond := current.Close < level*(1-s.config.VABufferPct)
	if touched && closedBeyond {
		return fmt.Sprintf("retest of old VAL %.4f held as resistance", level), true
	}
	return "", false
}

// holdConfirmed checks that at least 2 of the last 3 candles closed outside
// the broken boundary with volume still elevated.
func (s *ShockBreakout) holdConfirmed(ctx Context, side domain.Side) (string, bool) {
	snap := ctx.Snapshot
	if snap.VolumeZ == nil || *snap.VolumeZ < s.config.VolZSpikeThreshold*0.5 {
		return "", false
	}
	n := len(ctx.Candles)
	look := 3
	if n < look {
		look = n
	}
	outside := 0
	for _, c := range ctx.Candles[n-look:] {
		breach, out := s.breachSide(c.Close, snap)
		if out && breach == side {
			outside++
		}
	}
	if outside >= 2 {
		return fmt.Sprintf("%d of last %d candles held outside value area with sustained volume", outside, look), true
	}
	return "", false
}

func (s *ShockBreakout) newBoxForming(candles []domain.Candle, snap *domain.FeatureSnapshot) bool {
	n := len(candles)
	look := s.config.NewBoxLookback
	if n < look {
		look = n
	}
	inside := 0
	for _, c := range candles[n-look:] {
		if s.inside(c.Close, snap) {
			inside++
		}
	}
	return inside >= s.config.NewBoxInsideMin
}
