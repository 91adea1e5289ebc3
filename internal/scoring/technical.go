package scoring

import (
	"math"

	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/domain/indicators"
)

// TechnicalConfig holds the lookbacks and component bounds for the technical
// axis.
type TechnicalConfig struct {
	EMAFastPeriod   int `yaml:"ema_fast_period"`
	EMASlowPeriod   int `yaml:"ema_slow_period"`
	RSIPeriod       int `yaml:"rsi_period"`
	MomentumBars    int `yaml:"momentum_bars"`
	BollingerPeriod int `yaml:"bollinger_period"`
}

// DefaultTechnicalConfig returns production lookbacks.
func DefaultTechnicalConfig() TechnicalConfig {
	return TechnicalConfig{
		EMAFastPeriod:   50,
		EMASlowPeriod:   200,
		RSIPeriod:       14,
		MomentumBars:    5,
		BollingerPeriod: 20,
	}
}

// TechnicalAxis scores trend and momentum structure from candles and the
// snapshot. Missing inputs drop their component rather than contributing
// zero-biased noise.
func TechnicalAxis(snap *domain.FeatureSnapshot, candles []domain.Candle, cfg TechnicalConfig) AxisResult {
	components := map[string]int{}
	closes := indicators.Closes(candles)

	// MA structure: fast vs slow EMA spread, up to 25 points either way.
	if fast, okF := indicators.EMA(closes, cfg.EMAFastPeriod); okF {
		if slow, okS := indicators.EMA(closes, cfg.EMASlowPeriod); okS && slow != 0 {
			spreadPct := (fast - slow) / slow * 100.0
			components["ma_structure"] = clampComponent(int(math.Round(spreadPct*12.5)), 25)
		}
	}

	// Bollinger position: where price sits between the bands, 20 points.
	bb := indicators.CalculateBollinger(closes, cfg.BollingerPeriod, 2.0)
	if bb.IsValid && bb.Upper > bb.Lower {
		pos := (snap.Price - bb.Mid) / ((bb.Upper - bb.Lower) / 2.0)
		components["bollinger"] = clampComponent(int(math.Round(pos*20.0)), 20)
	}

	// RSI: distance from the 50 midline, 20 points.
	rsi := indicators.CalculateRSI(closes, cfg.RSIPeriod)
	if rsi.IsValid {
		components["rsi"] = clampComponent(int(math.Round((rsi.Value-50.0)/50.0*20.0)), 20)
	}

	// Short momentum: return over the last MomentumBars closes, 20 points.
	momentumSign := 0
	if len(closes) > cfg.MomentumBars {
		base := closes[len(closes)-1-cfg.MomentumBars]
		if base != 0 {
			retPct := (closes[len(closes)-1] - base) / base * 100.0
			components["momentum"] = clampComponent(int(math.Round(retPct*10.0)), 20)
			if retPct > 0 {
				momentumSign = 1
			} else if retPct < 0 {
				momentumSign = -1
			}
		}
	}

	// Volume: confirms whichever way momentum points, 15 points.
	if snap.VolumeZ != nil && momentumSign != 0 {
		strength := math.Min(math.Abs(*snap.VolumeZ), 3.0) / 3.0
		components["volume"] = clampComponent(int(math.Round(strength*15.0))*momentumSign, 15)
	}

	total := 0
	for _, v := range components {
		total += v
	}

	return AxisResult{
		Name:       "technical",
		Score:      clampAxis(total),
		Components: components,
	}
}
