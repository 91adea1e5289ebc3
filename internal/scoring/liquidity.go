package scoring

import (
	"github.com/quantegy/tradepulse/internal/domain/flow"
)

// LiquidityAxis wraps the flow-inference composite as a score axis. The
// flow bias is already bounded -100..+100 with missing sub-signals degraded
// to neutral, so the axis passes it through with its component breakdown.
func LiquidityAxis(result flow.Result) AxisResult {
	components := make(map[string]int, len(result.Components))
	for name, v := range result.Components {
		components[name] = v
	}

	return AxisResult{
		Name:       "liquidity",
		Score:      clampAxis(result.Bias),
		Components: components,
	}
}
