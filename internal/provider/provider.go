package provider

import (
	"context"

	"github.com/quantegy/tradepulse/internal/domain"
	"github.com/quantegy/tradepulse/internal/domain/flow"
)

// MarketData is everything one decision cycle reads from the outside world.
type MarketData struct {
	Snapshot *domain.FeatureSnapshot
	Candles  []domain.Candle // oldest to newest
	Flow     flow.Inputs
	Position *domain.PositionContext
}

// SnapshotSource produces the per-cycle market view. Implementations talk
// to exchanges or replay recorded data.
type SnapshotSource interface {
	Fetch(ctx context.Context, symbol, timeframe string) (*MarketData, error)
}
