package indicators

import (
	"math"

	"github.com/quantegy/tradepulse/internal/domain"
)

// DefaultADXPeriod is the standard Wilder lookback.
const DefaultADXPeriod = 14

// ADXResult holds the Average Directional Index and both directional
// indicators for one candle window.
type ADXResult struct {
	ADX       float64 `json:"adx"`
	PlusDI    float64 `json:"plus_di"`
	MinusDI   float64 `json:"minus_di"`
	Period    int     `json:"period"`
	DataCount int     `json:"data_count"`
}

// ComputeADX calculates ADX and +DI/-DI from candles ordered oldest to
// newest using Wilder smoothing. It returns nil when fewer than 2*period
// candles are available: callers must treat nil as "trend strength unknown",
// never as ADX=0.
func ComputeADX(candles []domain.Candle, period int) *ADXResult {
	if period <= 0 {
		period = DefaultADXPeriod
	}
	if len(candles) < 2*period {
		return nil
	}

	n := len(candles) - 1
	trueRanges := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)

	for i := 1; i < len(candles); i++ {
		cur := candles[i]
		prev := candles[i-1]

		hl := cur.High - cur.Low
		hc := math.Abs(cur.High - prev.Close)
		lc := math.Abs(cur.Low - prev.Close)
		trueRanges[i-1] = math.Max(hl, math.Max(hc, lc))

		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low
		if upMove > downMove && upMove > 0 {
			plusDM[i-1] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i-1] = downMove
		}
	}

	// Wilder running sums, seeded with the first period's plain sum.
	smoothedTR := 0.0
	smoothedPlus := 0.0
	smoothedMinus := 0.0
	for i := 0; i < period; i++ {
		smoothedTR += trueRanges[i]
		smoothedPlus += plusDM[i]
		smoothedMinus += minusDM[i]
	}

	diAt := func(tr, plus, minus float64) (float64, float64, float64) {
		// Zero true range short-circuits to a zero contribution for the bar.
		if tr <= 0 {
			return 0, 0, 0
		}
		pdi := 100.0 * plus / tr
		mdi := 100.0 * minus / tr
		sum := pdi + mdi
		if sum <= 0 {
			return pdi, mdi, 0
		}
		return pdi, mdi, 100.0 * math.Abs(pdi-mdi) / sum
	}

	pdi, mdi, dx := diAt(smoothedTR, smoothedPlus, smoothedMinus)
	dxValues := []float64{dx}

	for i := period; i < n; i++ {
		smoothedTR = smoothedTR - smoothedTR/float64(period) + trueRanges[i]
		smoothedPlus = smoothedPlus - smoothedPlus/float64(period) + plusDM[i]
		smoothedMinus = smoothedMinus - smoothedMinus/float64(period) + minusDM[i]

		pdi, mdi, dx = diAt(smoothedTR, smoothedPlus, smoothedMinus)
		dxValues = append(dxValues, dx)
	}

	// ADX is the Wilder-smoothed DX across the available window.
	adx := 0.0
	seed := period
	if seed > len(dxValues) {
		seed = len(dxValues)
	}
	for i := 0; i < seed; i++ {
		adx += dxValues[i]
	}
	adx /= float64(seed)
	for i := seed; i < len(dxValues); i++ {
		adx = (adx*float64(period-1) + dxValues[i]) / float64(period)
	}

	return &ADXResult{
		ADX:       adx,
		PlusDI:    pdi,
		MinusDI:   mdi,
		Period:    period,
		DataCount: len(candles),
	}
}
