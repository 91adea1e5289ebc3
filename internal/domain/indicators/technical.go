package indicators

import (
	"math"

	"github.com/quantegy/tradepulse/internal/domain"
)

// RSIResult represents the result of RSI calculation.
type RSIResult struct {
	Value     float64 `json:"value"`
	Period    int     `json:"period"`
	IsValid   bool    `json:"is_valid"`
	DataCount int     `json:"data_count"`
}

// CalculateRSI calculates the Relative Strength Index for the given closes.
func CalculateRSI(prices []float64, period int) RSIResult {
	if len(prices) < period+1 {
		return RSIResult{
			Value:     50.0, // Neutral RSI when insufficient data
			Period:    period,
			IsValid:   false,
			DataCount: len(prices),
		}
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder's smoothing for the remaining bars
	alpha := 1.0 / float64(period)
	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = avgGain*(1-alpha) + gain*alpha
		avgLoss = avgLoss*(1-alpha) + loss*alpha
	}

	if avgLoss == 0 {
		return RSIResult{Value: 100.0, Period: period, IsValid: true, DataCount: len(prices)}
	}

	rs := avgGain / avgLoss
	return RSIResult{
		Value:     100.0 - (100.0 / (1.0 + rs)),
		Period:    period,
		IsValid:   true,
		DataCount: len(prices),
	}
}

// ATRResult represents the result of ATR calculation.
type ATRResult struct {
	Value     float64 `json:"value"`
	Period    int     `json:"period"`
	IsValid   bool    `json:"is_valid"`
	DataCount int     `json:"data_count"`
}

// CalculateATR calculates the Average True Range over candles ordered oldest
// to newest.
func CalculateATR(candles []domain.Candle, period int) ATRResult {
	if len(candles) < period+1 {
		return ATRResult{Period: period, IsValid: false, DataCount: len(candles)}
	}

	trueRanges := make([]float64, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		cur := candles[i]
		prevClose := candles[i-1].Close

		hl := cur.High - cur.Low
		hc := math.Abs(cur.High - prevClose)
		lc := math.Abs(cur.Low - prevClose)
		trueRanges[i-1] = math.Max(hl, math.Max(hc, lc))
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trueRanges[i]
	}
	atr /= float64(period)

	alpha := 1.0 / float64(period)
	for i := period; i < len(trueRanges); i++ {
		atr = atr*(1-alpha) + trueRanges[i]*alpha
	}

	return ATRResult{Value: atr, Period: period, IsValid: true, DataCount: len(candles)}
}

// EMA computes the exponential moving average of values, returning the final
// EMA value. Returns (0, false) when fewer than period values are available.
func EMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}

	// Seed with SMA of the first period
	ema := 0.0
	for i := 0; i < period; i++ {
		ema += values[i]
	}
	ema /= float64(period)

	k := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(values); i++ {
		ema = values[i]*k + ema*(1-k)
	}
	return ema, true
}

// Closes extracts close prices from candles in the same order.
func Closes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// BollingerResult holds band levels and width for the latest bar.
type BollingerResult struct {
	Mid     float64 `json:"mid"`
	Upper   float64 `json:"upper"`
	Lower   float64 `json:"lower"`
	Width   float64 `json:"width"` // (upper-lower)/mid
	IsValid bool    `json:"is_valid"`
}

// CalculateBollinger computes bands with the given stddev multiplier over the
// trailing period window.
func CalculateBollinger(prices []float64, period int, mult float64) BollingerResult {
	if len(prices) < period {
		return BollingerResult{IsValid: false}
	}

	window := prices[len(prices)-period:]
	mean := 0.0
	for _, p := range window {
		mean += p
	}
	mean /= float64(period)

	variance := 0.0
	for _, p := range window {
		variance += (p - mean) * (p - mean)
	}
	stddev := math.Sqrt(variance / float64(period))

	upper := mean + mult*stddev
	lower := mean - mult*stddev
	width := 0.0
	if mean != 0 {
		width = (upper - lower) / mean
	}

	return BollingerResult{Mid: mean, Upper: upper, Lower: lower, Width: width, IsValid: true}
}

// DonchianResult holds the channel extremes over a lookback window.
type DonchianResult struct {
	Upper   float64 `json:"upper"`
	Lower   float64 `json:"lower"`
	IsValid bool    `json:"is_valid"`
}

// CalculateDonchian computes the highest high and lowest low over the last
// period candles, excluding the final candle so breakout checks can compare
// the current close against the prior channel.
func CalculateDonchian(candles []domain.Candle, period int) DonchianResult {
	if len(candles) < period+1 {
		return DonchianResult{IsValid: false}
	}

	window := candles[len(candles)-period-1 : len(candles)-1]
	upper := window[0].High
	lower := window[0].Low
	for _, c := range window[1:] {
		if c.High > upper {
			upper = c.High
		}
		if c.Low < lower {
			lower = c.Low
		}
	}

	return DonchianResult{Upper: upper, Lower: lower, IsValid: true}
}
