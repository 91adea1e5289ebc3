package scoring

import (
	"math"

	"github.com/quantegy/tradepulse/internal/domain"
)

// PositionConfig bounds the position-context axis components.
type PositionConfig struct {
	MaxStage int `yaml:"max_stage"`
}

// DefaultPositionConfig returns production bounds.
func DefaultPositionConfig() PositionConfig {
	return PositionConfig{MaxStage: 4}
}

// PositionAxis scores the current position context. A flat book yields a
// neutral zero axis. Contributions are signed toward the held side: a
// healthy long pushes the total long, a deteriorating long pushes it short.
func PositionAxis(position *domain.PositionContext, snap *domain.FeatureSnapshot, techScore int, cfg PositionConfig) AxisResult {
	components := map[string]int{}
	if !position.IsOpen() {
		return AxisResult{Name: "position", Score: 0, Components: components}
	}

	sideSign := 1
	if *position.Side == domain.SideShort {
		sideSign = -1
	}

	// PnL measured in ATR multiples: up to 30 points with the position,
	// down to -30 against it when underwater.
	if position.UnrealizedPnLPct != nil && snap.ATRPct != nil && *snap.ATRPct > 0 {
		atrMultiple := *position.UnrealizedPnLPct / *snap.ATRPct
		capped := math.Max(-3.0, math.Min(3.0, atrMultiple))
		components["pnl_vs_atr"] = clampComponent(int(math.Round(capped*10.0))*sideSign, 30)
	}

	// Stage utilization: the deeper into the pyramid, the more the axis
	// leans against adding further.
	if cfg.MaxStage > 0 {
		used := float64(position.Stage) / float64(cfg.MaxStage)
		components["stage_utilization"] = clampComponent(-int(math.Round(used*20.0))*sideSign, 20)
	}

	// Stop proximity: within one ATR of the stop the axis turns against
	// the position.
	if position.StopPrice != nil && snap.ATRPct != nil && *snap.ATRPct > 0 && snap.Price > 0 {
		distancePct := math.Abs(snap.Price-*position.StopPrice) / snap.Price * 100.0
		if distancePct < *snap.ATRPct {
			severity := 1.0 - distancePct / *snap.ATRPct
			components["stop_proximity"] = clampComponent(-int(math.Round(severity*25.0))*sideSign, 25)
		}
	}

	// Alignment with the technical axis.
	if techScore != 0 {
		techSign := 1
		if techScore < 0 {
			techSign = -1
		}
		if techSign == sideSign {
			components["tech_alignment"] = 15 * sideSign
		} else {
			components["tech_alignment"] = -15 * sideSign
		}
	}

	total := 0
	for _, v := range components {
		total += v
	}

	return AxisResult{
		Name:       "position",
		Score:      clampAxis(total),
		Components: components,
	}
}
