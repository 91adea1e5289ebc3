package scoring

import (
	"github.com/quantegy/tradepulse/internal/domain"
)

// TotalScore is the fused directional decision across all axes.
type TotalScore struct {
	Total      int            `json:"total"` // -100..+100
	Side       domain.Side    `json:"side"`
	Confidence int            `json:"confidence"` // abs(total)
	Components map[string]int `json:"components"` // axis name -> axis score

	// SupplementaryCapped records that the news axis was dropped or
	// truncated by a guardrail this cycle.
	SupplementaryCapped bool `json:"supplementary_capped"`
}

// Fuse sums the axis scores into one total, enforcing the supplementary
// guardrails at the fusion point:
//
//   - a supplementary axis contributes nothing when every primary axis is
//     zero (it cannot independently trigger trades), and
//   - it may strengthen or weaken the primary total but never flip its
//     sign; a flip is truncated to zero.
//
// Dominant side is LONG when total >= 0. The exact-zero case defaulting to
// LONG reproduces long-standing production behavior; see the fusion tests
// before changing it.
func Fuse(axes []AxisResult) TotalScore {
	components := make(map[string]int, len(axes))
	primarySum := 0
	supplementarySum := 0

	for _, axis := range axes {
		components[axis.Name] = axis.Score
		if axis.IsSupplementary {
			supplementarySum += axis.Score
		} else {
			primarySum += axis.Score
		}
	}

	total := primarySum + supplementarySum
	capped := false

	if primarySum == 0 && supplementarySum != 0 {
		total = 0
		capped = true
	} else if primarySum > 0 && total < 0 {
		total = 0
		capped = true
	} else if primarySum < 0 && total > 0 {
		total = 0
		capped = true
	}

	total = clampAxis(total)

	side := domain.SideLong
	if total < 0 {
		side = domain.SideShort
	}

	confidence := total
	if confidence < 0 {
		confidence = -confidence
	}

	return TotalScore{
		Total:               total,
		Side:                side,
		Confidence:          confidence,
		Components:          components,
		SupplementaryCapped: capped,
	}
}
