package indicators

import (
	"math"

	"github.com/quantegy/tradepulse/internal/domain"
)

// VolumeProfile is a price-binned volume histogram over a candle window.
type VolumeProfile struct {
	POC float64 // price of the highest-volume bin
	VAH float64
	VAL float64
}

// ComputeVolumeProfile bins candle volume across price levels and derives
// the point of control plus the value area holding vaShare of total volume.
// Returns nil when the window is empty or has no price spread.
func ComputeVolumeProfile(candles []domain.Candle, bins int, vaShare float64) *VolumeProfile {
	if len(candles) == 0 || bins < 3 {
		return nil
	}
	low := math.Inf(1)
	high := math.Inf(-1)
	for _, c := range candles {
		low = math.Min(low, c.Low)
		high = math.Max(high, c.High)
	}
	if high <= low {
		return nil
	}

	binSize := (high - low) / float64(bins)
	volumes := make([]float64, bins)
	total := 0.0
	for _, c := range candles {
		// Spread each candle's volume evenly across the bins it spans.
		lo := int((c.Low - low) / binSize)
		hi := int((c.High - low) / binSize)
		if hi >= bins {
			hi = bins - 1
		}
		span := float64(hi - lo + 1)
		for b := lo; b <= hi; b++ {
			volumes[b] += c.Volume / span
		}
		total += c.Volume
	}
	if total == 0 {
		return nil
	}

	pocBin := 0
	for b, v := range volumes {
		if v > volumes[pocBin] {
			pocBin = b
		}
	}

	// Expand from the POC bin outward, greedily taking the heavier
	// neighbor until the value area share is covered.
	covered := volumes[pocBin]
	loBin, hiBin := pocBin, pocBin
	for covered < total*vaShare {
		nextLo, nextHi := -1.0, -1.0
		if loBin > 0 {
			nextLo = volumes[loBin-1]
		}
		if hiBin < bins-1 {
			nextHi = volumes[hiBin+1]
		}
		if nextLo < 0 && nextHi < 0 {
			break
		}
		if nextHi >= nextLo {
			hiBin++
			covered += nextHi
		} else {
			loBin--
			covered += nextLo
		}
	}

	binPrice := func(b int) float64 { return low + (float64(b)+0.5)*binSize }
	return &VolumeProfile{
		POC: binPrice(pocBin),
		VAH: low + float64(hiBin+1)*binSize,
		VAL: low + float64(loBin)*binSize,
	}
}

// POCSlope estimates drift of the point of control: the percent change of
// POC between the first and second half of the window, per bar. Returns nil
// when either half lacks a profile.
func POCSlope(candles []domain.Candle, bins int, vaShare float64) *float64 {
	if len(candles) < 4 {
		return nil
	}
	mid := len(candles) / 2
	older := ComputeVolumeProfile(candles[:mid], bins, vaShare)
	newer := ComputeVolumeProfile(candles[mid:], bins, vaShare)
	if older == nil || newer == nil || older.POC == 0 {
		return nil
	}
	slope := (newer.POC - older.POC) / older.POC * 100.0 / float64(mid)
	return &slope
}

// VolumeZScore returns the z-score of the newest candle's volume against
// the prior lookback candles. Returns nil with fewer than lookback+1
// candles or zero variance.
func VolumeZScore(candles []domain.Candle, lookback int) *float64 {
	if len(candles) < lookback+1 {
		return nil
	}
	window := candles[len(candles)-lookback-1 : len(candles)-1]
	mean := 0.0
	for _, c := range window {
		mean += c.Volume
	}
	mean /= float64(len(window))

	variance := 0.0
	for _, c := range window {
		d := c.Volume - mean
		variance += d * d
	}
	variance /= float64(len(window))
	if variance == 0 {
		return nil
	}
	z := (candles[len(candles)-1].Volume - mean) / math.Sqrt(variance)
	return &z
}
