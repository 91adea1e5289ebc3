package provider

import (
	"time"

	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/domain/indicators"
)

// FeatureConfig tunes snapshot derivation from raw candles.
type FeatureConfig struct {
	ATRPeriod      int     `yaml:"atr_period" default:"14"`
	ADXPeriod      int     `yaml:"adx_period" default:"14"`
	RSIPeriod      int     `yaml:"rsi_period" default:"14"`
	BBPeriod       int     `yaml:"bb_period" default:"20"`
	BBMult         float64 `yaml:"bb_mult" default:"2"`
	BBWLookback    int     `yaml:"bbw_lookback" default:"96"`
	VolumeLookback int     `yaml:"volume_lookback" default:"20"`
	ProfileWindow  int     `yaml:"profile_window" default:"240"`
	ProfileBins    int     `yaml:"profile_bins" default:"48"`
	ValueAreaShare float64 `yaml:"value_area_share" default:"0.7"`
}

// DefaultFeatureConfig returns production feature derivation settings.
func DefaultFeatureConfig() FeatureConfig {
	return FeatureConfig{
		ATRPeriod:      14,
		ADXPeriod:      14,
		RSIPeriod:      14,
		BBPeriod:       20,
		BBMult:         2.0,
		BBWLookback:    96,
		VolumeLookback: 20,
		ProfileWindow:  240,
		ProfileBins:    48,
		ValueAreaShare: 0.7,
	}
}

// BuildSnapshot derives a feature snapshot from a candle window, oldest
// first. Every field the data cannot support stays nil.
func BuildSnapshot(config FeatureConfig, symbol, timeframe string, candles []domain.Candle) *domain.FeatureSnapshot {
	snap := &domain.FeatureSnapshot{
		Symbol:    symbol,
		Timeframe: timeframe,
		Timestamp: time.Now(),
	}
	if len(candles) == 0 {
		return snap
	}
	last := candles[len(candles)-1]
	snap.Price = last.Close
	snap.Timestamp = last.OpenTime

	if atr := indicators.CalculateATR(candles, config.ATRPeriod); atr.IsValid && last.Close > 0 {
		snap.ATRPct = domain.Float(atr.Value / last.Close * 100.0)
	}

	closes := indicators.Closes(candles)
	if bb := indicators.CalculateBollinger(closes, config.BBPeriod, config.BBMult); bb.IsValid {
		snap.BBWidth = domain.Float(bb.Width)
		snap.BBMid = domain.Float(bb.Mid)
		snap.BBUpper = domain.Float(bb.Upper)
		snap.BBLower = domain.Float(bb.Lower)
		if ratio := bbwRatio(closes, config, bb.Width); ratio != nil {
			snap.BBWRatio = ratio
		}
	}

	if rsi := indicators.CalculateRSI(closes, config.RSIPeriod); rsi.IsValid {
		snap.RSI = domain.Float(rsi.Value)
	}

	if adx := indicators.ComputeADX(candles, config.ADXPeriod); adx != nil {
		snap.ADX = domain.Float(adx.ADX)
		snap.PlusDI = domain.Float(adx.PlusDI)
		snap.MinusDI = domain.Float(adx.MinusDI)
	}

	snap.VolumeZ = indicators.VolumeZScore(candles, config.VolumeLookback)
	snap.Impulse = domain.Float(abs(last.BodyPct()))

	if len(candles) >= 6 {
		base := candles[len(candles)-6].Close
		if base > 0 {
			snap.Return5mPct = domain.Float((last.Close - base) / base * 100.0)
		}
		volSum := 0.0
		for _, c := range candles[len(candles)-6 : len(candles)-1] {
			volSum += c.Volume
		}
		if volSum > 0 {
			snap.VolumeRatio5m = domain.Float(last.Volume / (volSum / 5.0))
		}
	}

	window := candles
	if len(window) > config.ProfileWindow {
		window = window[len(window)-config.ProfileWindow:]
	}
	if vp := indicators.ComputeVolumeProfile(window, config.ProfileBins, config.ValueAreaShare); vp != nil {
		snap.POC = domain.Float(vp.POC)
		snap.VAH = domain.Float(vp.VAH)
		snap.VAL = domain.Float(vp.VAL)
		if vp.VAH > vp.VAL {
			rp := (last.Close - vp.VAL) / (vp.VAH - vp.VAL)
			snap.RangePosition = domain.Float(clamp01(rp))
		}
	}
	if slope := indicators.POCSlope(window, config.ProfileBins, config.ValueAreaShare); slope != nil {
		snap.POCSlope = domain.Float(abs(*slope))
		snap.DriftScore = domain.Float(abs(*slope))
		if *slope > 0 {
			snap.DriftDirection = domain.DriftPtr(domain.DriftUp)
		} else if *slope < 0 {
			snap.DriftDirection = domain.DriftPtr(domain.DriftDown)
		}
	}

	return snap
}

// bbwRatio compares the current band width against the average width over
// the lookback so squeezes read below 1.0 and expansions above.
func bbwRatio(closes []float64, config FeatureConfig, current float64) *float64 {
	if len(closes) < config.BBPeriod+config.BBWLookback {
		return nil
	}
	sum := 0.0
	count := 0
	for i := len(closes) - config.BBWLookback; i < len(closes); i++ {
		bb := indicators.CalculateBollinger(closes[:i+1], config.BBPeriod, config.BBMult)
		if bb.IsValid {
			sum += bb.Width
			count++
		}
	}
	if count == 0 || sum == 0 {
		return nil
	}
	ratio := current / (sum / float64(count))
	return &ratio
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
