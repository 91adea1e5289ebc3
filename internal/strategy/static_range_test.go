package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantegy/tradepulse/internal/domain"
)

func snapshotAtRP(rp float64) *domain.FeatureSnapshot {
	return &domain.FeatureSnapshot{
		Symbol:        "BTCUSDT",
		Timeframe:     "1m",
		Timestamp:     time.Now(),
		Price:         50000,
		VAH:           domain.Float(50500),
		VAL:           domain.Float(49500),
		RangePosition: domain.Float(rp),
	}
}

// candle builds a bar from open/high/low/close.
func candle(o, h, l, c float64) domain.Candle {
	return domain.Candle{OpenTime: time.Now(), Open: o, High: h, Low: l, Close: c, Volume: 100}
}

func TestStaticRange_HoldsAwayFromEdges(t *testing.T) {
	s := NewStaticRange(DefaultStaticRangeConfig())

	d, err := s.Decide(Context{
		Snapshot: snapshotAtRP(0.5),
		Candles:  []domain.Candle{candle(100, 101, 99, 100), candle(100, 101, 99, 100)},
		MaxStage: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionHold, d.Action)
	assert.Empty(t, d.Meta)
}

func TestStaticRange_EntersLongOnWickRejection(t *testing.T) {
	s := NewStaticRange(DefaultStaticRangeConfig())

	// Long lower wick: open 100, low 97, close 100.2 in a range of 3.3.
	d, err := s.Decide(Context{
		Snapshot: snapshotAtRP(0.10),
		Candles: []domain.Candle{
			candle(100.5, 100.6, 99.8, 100.0), // small prior candle
			candle(100, 100.3, 97, 100.2),
		},
		MaxStage: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionEnter, d.Action)
	require.NotNil(t, d.Side)
	assert.Equal(t, domain.SideLong, *d.Side)
	assert.NotEmpty(t, d.SignalKey)
}

func TestStaticRange_EntersShortOnLowerHigh(t *testing.T) {
	s := NewStaticRange(DefaultStaticRangeConfig())

	d, err := s.Decide(Context{
		Snapshot: snapshotAtRP(0.90),
		Candles: []domain.Candle{
			candle(100.2, 101.0, 100.0, 100.1), // small prior candle, high 101
			candle(100.1, 100.6, 99.9, 100.0),  // lower high
		},
		MaxStage: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionEnter, d.Action)
	assert.Equal(t, domain.SideShort, *d.Side)
}

func TestStaticRange_AntiChaseBlocksRegardlessOfConfirmation(t *testing.T) {
	s := NewStaticRange(DefaultStaticRangeConfig())

	// Prior candle is a 2% up impulse matching the LONG entry side. The
	// current candle carries a textbook rejection wick; entry must still be
	// blocked.
	d, err := s.Decide(Context{
		Snapshot: snapshotAtRP(0.05),
		Candles: []domain.Candle{
			candle(100, 102.1, 99.9, 102), // +2% body
			candle(102, 102.2, 99, 102.1), // long lower wick
		},
		MaxStage: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionHold, d.Action)
	assert.Contains(t, d.Reason, "anti-chase")
}

func TestStaticRange_AntiChaseIgnoresOpposingImpulse(t *testing.T) {
	s := NewStaticRange(DefaultStaticRangeConfig())

	// A big down candle into VAL does not block the LONG fade.
	d, err := s.Decide(Context{
		Snapshot: snapshotAtRP(0.05),
		Candles: []domain.Candle{
			candle(102, 102.1, 99.8, 100), // -2% body, opposite the entry
			candle(100, 100.3, 97, 100.2), // wick rejection
		},
		MaxStage: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionEnter, d.Action)
}

func TestStaticRange_NearEdgeMetaWithoutConfirmation(t *testing.T) {
	s := NewStaticRange(DefaultStaticRangeConfig())

	// At the edge, no wick, lower low than prior: no confirmation.
	d, err := s.Decide(Context{
		Snapshot: snapshotAtRP(0.10),
		Candles: []domain.Candle{
			candle(100.3, 100.5, 100.0, 100.1),
			candle(100.1, 100.2, 99.5, 99.6),
		},
		MaxStage: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionHold, d.Action)
	assert.Equal(t, "LONG", d.Meta["near_edge"])
}

func TestStaticRange_ExitAtOppositeEdgeIgnoresPnL(t *testing.T) {
	s := NewStaticRange(DefaultStaticRangeConfig())

	pnl := -3.0
	d, err := s.Decide(Context{
		Snapshot: snapshotAtRP(0.90),
		Candles:  []domain.Candle{candle(100, 101, 99, 100), candle(100, 101, 99, 100)},
		Position: &domain.PositionContext{
			Side:             domain.SidePtr(domain.SideLong),
			Qty:              1,
			AvgEntryPrice:    49600,
			Stage:            1,
			UnrealizedPnLPct: &pnl,
		},
		MaxStage: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionExit, d.Action)
}

func TestStaticRange_AddRequiresDeeperEdgeAndStageRoom(t *testing.T) {
	s := NewStaticRange(DefaultStaticRangeConfig())

	position := &domain.PositionContext{
		Side:          domain.SidePtr(domain.SideLong),
		Qty:           1,
		AvgEntryPrice: 49650,
		Stage:         1,
	}

	// Deeper than threshold minus the deepen margin.
	d, err := s.Decide(Context{
		Snapshot: snapshotAtRP(0.05),
		Candles:  []domain.Candle{candle(100, 101, 99, 100), candle(100, 101, 99, 100)},
		Position: position,
		MaxStage: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionAdd, d.Action)

	// Same depth but stage at max: hold.
	position.Stage = 4
	d, err = s.Decide(Context{
		Snapshot: snapshotAtRP(0.05),
		Candles:  []domain.Candle{candle(100, 101, 99, 100), candle(100, 101, 99, 100)},
		Position: position,
		MaxStage: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionHold, d.Action)
}

func TestStaticRange_MissingRangePositionErrors(t *testing.T) {
	s := NewStaticRange(DefaultStaticRangeConfig())

	snap := snapshotAtRP(0.5)
	snap.RangePosition = nil
	_, err := s.Decide(Context{
		Snapshot: snap,
		Candles:  []domain.Candle{candle(100, 101, 99, 100), candle(100, 101, 99, 100)},
	})
	assert.Error(t, err)
}
