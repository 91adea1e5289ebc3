package flow

import "math"

// Inputs carries the raw derivatives and orderbook readings used for flow
// inference. Nil fields mean the upstream feed had no reading this cycle;
// unlike trend-strength, a missing flow signal degrades to neutral rather
// than unknown, so each sub-score independently falls back to 0.
type Inputs struct {
	OpenInterestPrev *float64
	OpenInterestCurr *float64
	FundingRate      *float64
	BidDepth         *float64
	AskDepth         *float64
	VolumeSpike      bool
}

// Result is the fused directional pressure estimate.
type Result struct {
	Bias       int            `json:"bias"`  // -100..+100, positive = bullish pressure
	Shock      bool           `json:"shock"` // abrupt positioning change detected
	Components map[string]int `json:"components"`
}

// Sub-score weights for the composite bias.
const (
	oiWeight        = 0.5
	fundingWeight   = 0.3
	orderbookWeight = 0.2
)

// Shock trigger thresholds.
const (
	oiShockChangePct    = 5.0
	fundingShockAbsRate = 0.0003
)

// Infer fuses open-interest change, funding rate, and orderbook imbalance
// into a single flow bias plus a shock flag.
func Infer(in Inputs) Result {
	oiScore := 0
	oiChangePct := 0.0
	if in.OpenInterestPrev != nil && in.OpenInterestCurr != nil && *in.OpenInterestPrev != 0 {
		oiChangePct = (*in.OpenInterestCurr - *in.OpenInterestPrev) / *in.OpenInterestPrev * 100.0
		oiScore = clamp100(oiChangePct * 10.0)
	}

	fundingScore := 0
	fundingRate := 0.0
	if in.FundingRate != nil {
		fundingRate = *in.FundingRate
		// Positive funding means longs pay shorts: crowded longs, bearish bias.
		fundingScore = clamp100(fundingRate * -100000.0)
	}

	orderbookScore := 0
	if in.BidDepth != nil && in.AskDepth != nil && *in.AskDepth > 0 {
		ratio := *in.BidDepth / *in.AskDepth
		orderbookScore = clamp100((ratio - 1.0) * 100.0)
	}

	bias := clamp100(oiWeight*float64(oiScore) + fundingWeight*float64(fundingScore) + orderbookWeight*float64(orderbookScore))

	shock := (math.Abs(oiChangePct) > oiShockChangePct && in.VolumeSpike) ||
		math.Abs(fundingRate) > fundingShockAbsRate

	return Result{
		Bias:  bias,
		Shock: shock,
		Components: map[string]int{
			"open_interest": oiScore,
			"funding":       fundingScore,
			"orderbook":     orderbookScore,
		},
	}
}

func clamp100(v float64) int {
	if v > 100 {
		return 100
	}
	if v < -100 {
		return -100
	}
	return int(math.Round(v))
}
