package gate

import (
	"fmt"

	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/domain/indicators"
)

// TriggerSignal is an entry trigger that has already passed the direction
// gate. Nil means no trigger fired this cycle.
type TriggerSignal struct {
	Side   domain.Side `json:"side"`
	Kind   string      `json:"kind"` // "donchian_breakout" or "ema_pullback"
	Level  float64     `json:"level"`
	Reason string      `json:"reason"`
}

// TriggerConfig holds lookbacks for the trend entry triggers.
type TriggerConfig struct {
	DonchianPeriod int `yaml:"donchian_period"`
	EMAFastPeriod  int `yaml:"ema_fast_period"`
	EMASlowPeriod  int `yaml:"ema_slow_period"`
}

// DefaultTriggerConfig returns production trigger lookbacks.
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		DonchianPeriod: 20,
		EMAFastPeriod:  50,
		EMASlowPeriod:  200,
	}
}

// DonchianBreakout fires when the latest close escapes the prior channel in
// a direction the gate allows. Candles are ordered oldest to newest.
func DonchianBreakout(candles []domain.Candle, cfg TriggerConfig, allowed Direction) *TriggerSignal {
	if allowed == NoTrade || len(candles) == 0 {
		return nil
	}

	channel := indicators.CalculateDonchian(candles, cfg.DonchianPeriod)
	if !channel.IsValid {
		return nil
	}

	last := candles[len(candles)-1]
	if allowed == LongOnly && last.Close > channel.Upper {
		return &TriggerSignal{
			Side:   domain.SideLong,
			Kind:   "donchian_breakout",
			Level:  channel.Upper,
			Reason: fmt.Sprintf("close %.2f above %d-bar high %.2f", last.Close, cfg.DonchianPeriod, channel.Upper),
		}
	}
	if allowed == ShortOnly && last.Close < channel.Lower {
		return &TriggerSignal{
			Side:   domain.SideShort,
			Kind:   "donchian_breakout",
			Level:  channel.Lower,
			Reason: fmt.Sprintf("close %.2f below %d-bar low %.2f", last.Close, cfg.DonchianPeriod, channel.Lower),
		}
	}
	return nil
}

// EMAPullback fires when price retraces to the fast EMA inside an
// established trend and closes back in the trend direction.
func EMAPullback(candles []domain.Candle, cfg TriggerConfig, allowed Direction) *TriggerSignal {
	if allowed == NoTrade || len(candles) == 0 {
		return nil
	}

	closes := indicators.Closes(candles)
	fast, okFast := indicators.EMA(closes, cfg.EMAFastPeriod)
	slow, okSlow := indicators.EMA(closes, cfg.EMASlowPeriod)
	if !okFast || !okSlow {
		return nil
	}

	last := candles[len(candles)-1]
	if allowed == LongOnly && fast > slow && last.Low <= fast && last.Close > fast {
		return &TriggerSignal{
			Side:   domain.SideLong,
			Kind:   "ema_pullback",
			Level:  fast,
			Reason: fmt.Sprintf("pullback to ema%d %.2f held, close %.2f", cfg.EMAFastPeriod, fast, last.Close),
		}
	}
	if allowed == ShortOnly && fast < slow && last.High >= fast && last.Close < fast {
		return &TriggerSignal{
			Side:   domain.SideShort,
			Kind:   "ema_pullback",
			Level:  fast,
			Reason: fmt.Sprintf("rally to ema%d %.2f rejected, close %.2f", cfg.EMAFastPeriod, fast, last.Close),
		}
	}
	return nil
}
