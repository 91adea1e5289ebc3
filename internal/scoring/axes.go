// Package scoring computes the five directional score axes and fuses them
// into a single total with guardrails.
package scoring

// AxisResult is one axis score for one cycle, bounded to -100..+100.
// Positive favors LONG. The supplementary news axis is flagged so the fusion
// point can enforce that it never acts alone; the axis itself cannot see
// what else is present.
type AxisResult struct {
	Name            string         `json:"name"`
	Score           int            `json:"score"`
	Components      map[string]int `json:"components"`
	IsSupplementary bool           `json:"is_supplementary"`
}

func clampAxis(v int) int {
	if v > 100 {
		return 100
	}
	if v < -100 {
		return -100
	}
	return v
}

func clampComponent(v, bound int) int {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
