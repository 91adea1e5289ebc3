package scoring

import (
	"fmt"

	"github.com/quantegy/tradepulse/internal/domain"
)

// ModifierConfig selects how a counter-drift dominant side is handled.
type ModifierConfig struct {
	// DriftHardBlock refuses counter-drift entries outright. When false,
	// the same condition applies DriftPenalty instead, preserving the
	// legacy soft-bias behavior.
	DriftHardBlock bool `yaml:"drift_hard_block"`
	DriftPenalty   int  `yaml:"drift_penalty"`
}

// DefaultModifierConfig returns the production setting: hard block on.
func DefaultModifierConfig() ModifierConfig {
	return ModifierConfig{
		DriftHardBlock: true,
		DriftPenalty:   20,
	}
}

// ModifierResult adjusts or blocks the fused score before execution.
type ModifierResult struct {
	Modifier     int    `json:"modifier"`
	EntryBlocked bool   `json:"entry_blocked"`
	BlockReason  string `json:"block_reason,omitempty"`
}

// ComputeModifier applies the drift counter-block. When a drift submode is
// active and the dominant side opposes it, the hard-block flag refuses entry
// regardless of score magnitude; with the flag off the same condition only
// subtracts a penalty from the modifier.
func ComputeModifier(total TotalScore, drift *domain.DriftDirection, cfg ModifierConfig) ModifierResult {
	if drift == nil {
		return ModifierResult{}
	}

	opposes := (*drift == domain.DriftDown && total.Side == domain.SideLong) ||
		(*drift == domain.DriftUp && total.Side == domain.SideShort)
	if !opposes {
		return ModifierResult{}
	}

	if cfg.DriftHardBlock {
		return ModifierResult{
			EntryBlocked: true,
			BlockReason:  fmt.Sprintf("%s entry against DRIFT_%s", total.Side, *drift),
		}
	}

	return ModifierResult{Modifier: -cfg.DriftPenalty}
}
