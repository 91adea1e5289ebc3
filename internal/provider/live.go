package provider

import (
	"context"
	"fmt"

	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/domain/flow"
	"github.com/quantegy/tradepulse/internal/provider/feed"
)

// LiveSource builds MarketData from the websocket feed. Position context
// comes from an optional PositionReader; flow readings beyond the orderbook
// (open interest, funding) are left unset until a derivatives feed is wired
// in.
type LiveSource struct {
	feed      *feed.Feed
	features  FeatureConfig
	positions PositionReader
}

// PositionReader exposes the execution subsystem's current position.
type PositionReader interface {
	Position(ctx context.Context, symbol string) (*domain.PositionContext, error)
}

// NewLiveSource creates a live market data source over the feed.
func NewLiveSource(f *feed.Feed, features FeatureConfig, positions PositionReader) *LiveSource {
	return &LiveSource{feed: f, features: features, positions: positions}
}

func (s *LiveSource) Fetch(ctx context.Context, symbol, timeframe string) (*MarketData, error) {
	candles := s.feed.Candles(symbol)
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles for %s yet", symbol)
	}

	snap := BuildSnapshot(s.features, symbol, timeframe, candles)

	flowIn := flow.Inputs{}
	if top, ok := s.feed.Book(symbol); ok {
		snap.SpreadOK = spreadOK(top)
		snap.LiquidityOK = top.BidQty > 0 && top.AskQty > 0
		if top.AskQty > 0 {
			flowIn.BidDepth = domain.Float(top.BidQty)
			flowIn.AskDepth = domain.Float(top.AskQty)
		}
	}
	if snap.VolumeZ != nil {
		flowIn.VolumeSpike = *snap.VolumeZ >= 2.0
	}

	data := &MarketData{Snapshot: snap, Candles: candles, Flow: flowIn}

	if s.positions != nil {
		position, err := s.positions.Position(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("read position: %w", err)
		}
		data.Position = position
	}
	return data, nil
}

// maxSpreadFrac is the widest top-of-book spread still considered tradeable,
// as a fraction of mid.
const maxSpreadFrac = 0.0005

func spreadOK(top feed.BookTop) bool {
	if top.BidPrice <= 0 || top.AskPrice <= top.BidPrice {
		return false
	}
	mid := (top.BidPrice + top.AskPrice) / 2.0
	return (top.AskPrice-top.BidPrice)/mid <= maxSpreadFrac
}
