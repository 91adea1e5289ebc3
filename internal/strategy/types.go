package strategy

import (
	"github.com/google/uuid"

	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/regime/router"
)

// Action is what a strategy wants done this cycle.
type Action string

const (
	ActionEnter Action = "ENTER"
	ActionAdd   Action = "ADD"
	ActionExit  Action = "EXIT"
	ActionHold  Action = "HOLD"
)

// Decision is the strategy output consumed by the execution layer. A HOLD
// decision carries only the reason.
type Decision struct {
	Action    Action            `json:"action"`
	Side      *domain.Side      `json:"side,omitempty"`
	TP        *float64          `json:"tp,omitempty"`
	SL        *float64          `json:"sl,omitempty"`
	Reason    string            `json:"reason"`
	SignalKey string            `json:"signal_key,omitempty"`
	OrderType string            `json:"order_type,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// Context is everything a strategy may consult for one decision. Candles run
// oldest to newest.
type Context struct {
	Snapshot  *domain.FeatureSnapshot
	Candles   []domain.Candle
	Position  *domain.PositionContext
	NewsScore *int
	Mode      router.Result
	MaxStage  int
}

// Strategy maps one operating mode to decisions. Implementations are
// stateless between calls; any hysteresis lives in the caller.
type Strategy interface {
	Name() string
	Decide(ctx Context) (*Decision, error)
}

// Registry selects a strategy per routed mode.
type Registry struct {
	staticRange   Strategy
	volatileRange Strategy
	shockBreakout Strategy
}

// NewRegistry wires the three mode strategies.
func NewRegistry(staticRange, volatileRange, shockBreakout Strategy) *Registry {
	return &Registry{
		staticRange:   staticRange,
		volatileRange: volatileRange,
		shockBreakout: shockBreakout,
	}
}

// ForMode returns the strategy handling the routed mode.
func (r *Registry) ForMode(mode router.Mode) Strategy {
	switch mode {
	case router.ModeA:
		return r.staticRange
	case router.ModeC:
		return r.shockBreakout
	default:
		return r.volatileRange
	}
}

func hold(reason string) *Decision {
	return &Decision{Action: ActionHold, Reason: reason}
}

func newSignalKey() string {
	return uuid.NewString()
}
