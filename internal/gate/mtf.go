// Package gate restricts entries by higher-timeframe trend direction. The
// ADX hysteresis uses separate enter/keep thresholds so the gate does not
// flap when ADX oscillates around a single level.
package gate

import (
	"fmt"
	"time"
)

// Direction is the entry restriction produced by the gate.
type Direction string

const (
	LongOnly  Direction = "LONG_ONLY"
	ShortOnly Direction = "SHORT_ONLY"
	NoTrade   Direction = "NO_TRADE"
)

// TrendState reports where the ADX hysteresis machine currently sits.
type TrendState string

const (
	TrendEnter TrendState = "ENTER" // ADX crossed the enter threshold this evaluation
	TrendKeep  TrendState = "KEEP"  // previously entered, still above keep
	TrendBelow TrendState = "BELOW" // not trend-confirmed
)

// State is the hysteresis memory, owned by the caller and passed back in
// each cycle. One State per symbol instance; never shared across symbols.
type State struct {
	WasAboveEnter bool `json:"was_above_enter"`
}

// Inputs carries higher-timeframe readings for one evaluation. Nil means the
// reading is unavailable, which forces NO_TRADE.
type Inputs struct {
	ADX *float64

	EMA50H1   *float64
	EMA200H1  *float64
	EMA50M15  *float64
	EMA200M15 *float64

	// DataTimestamp is when the newest underlying bar was produced.
	DataTimestamp time.Time
}

// Config holds the gate thresholds.
type Config struct {
	ADXEnter     float64       `yaml:"adx_enter" validate:"gtefield=ADXKeep"`
	ADXKeep      float64       `yaml:"adx_keep"`
	MaxStaleness time.Duration `yaml:"max_staleness"`
}

// DefaultConfig returns production gate thresholds.
func DefaultConfig() Config {
	return Config{
		ADXEnter:     27.0,
		ADXKeep:      23.0,
		MaxStaleness: 120 * time.Second,
	}
}

// Evaluation is the gate output for one cycle.
type Evaluation struct {
	Direction  Direction  `json:"direction"`
	TrendState TrendState `json:"trend_state"`
	Reason     string     `json:"reason"`
}

// Gate is the multi-timeframe direction gate.
type Gate struct {
	config Config
}

// New creates a Gate, normalizing an inverted keep threshold.
func New(config Config) *Gate {
	if config.ADXKeep > config.ADXEnter {
		config.ADXKeep = config.ADXEnter
	}
	return &Gate{config: config}
}

// Evaluate runs the gate for one cycle, mutating state in place. The
// staleness check runs before any signal logic: stale data forces NO_TRADE
// regardless of how strong the signals look.
func (g *Gate) Evaluate(state *State, in Inputs, now time.Time) Evaluation {
	if in.DataTimestamp.IsZero() || now.Sub(in.DataTimestamp) > g.config.MaxStaleness {
		return Evaluation{
			Direction:  NoTrade,
			TrendState: TrendBelow,
			Reason:     fmt.Sprintf("data older than %s", g.config.MaxStaleness),
		}
	}

	if in.ADX == nil {
		return Evaluation{Direction: NoTrade, TrendState: TrendBelow, Reason: "adx unavailable"}
	}

	adx := *in.ADX
	trendState := TrendBelow
	switch {
	case adx >= g.config.ADXEnter:
		if !state.WasAboveEnter {
			trendState = TrendEnter
		} else {
			trendState = TrendKeep
		}
		state.WasAboveEnter = true
	case state.WasAboveEnter && adx >= g.config.ADXKeep:
		trendState = TrendKeep
	default:
		state.WasAboveEnter = false
	}

	if trendState == TrendBelow {
		return Evaluation{
			Direction:  NoTrade,
			TrendState: TrendBelow,
			Reason:     fmt.Sprintf("adx %.1f below keep %.1f", adx, g.config.ADXKeep),
		}
	}

	if in.EMA50H1 == nil || in.EMA200H1 == nil || in.EMA50M15 == nil || in.EMA200M15 == nil {
		return Evaluation{Direction: NoTrade, TrendState: trendState, Reason: "ema structure unavailable"}
	}

	bullH1 := *in.EMA50H1 > *in.EMA200H1
	bullM15 := *in.EMA50M15 > *in.EMA200M15
	bearH1 := *in.EMA50H1 < *in.EMA200H1
	bearM15 := *in.EMA50M15 < *in.EMA200M15

	switch {
	case bullH1 && bullM15:
		return Evaluation{Direction: LongOnly, TrendState: trendState, Reason: "1h and 15m ema50 above ema200"}
	case bearH1 && bearM15:
		return Evaluation{Direction: ShortOnly, TrendState: trendState, Reason: "1h and 15m ema50 below ema200"}
	default:
		return Evaluation{Direction: NoTrade, TrendState: trendState, Reason: "timeframe ema structure conflicts"}
	}
}
