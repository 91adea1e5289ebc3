package persistence

import (
	"context"
	"time"
)

// TimeRange is a closed query window.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ClassificationRow is one persisted regime decision per symbol, timeframe
// and bar timestamp. Readings is the raw feature map the decision was made
// from, kept for replay and audit.
type ClassificationRow struct {
	Timestamp  time.Time              `json:"ts" db:"ts"`
	Symbol     string                 `json:"symbol" db:"symbol"`
	Timeframe  string                 `json:"timeframe" db:"timeframe"`
	Regime     string                 `json:"regime" db:"regime"`
	ShockType  *string                `json:"shock_type,omitempty" db:"shock_type"`
	Mode       string                 `json:"mode" db:"mode"`
	Confidence int                    `json:"confidence" db:"confidence"`
	FlowBias   int                    `json:"flow_bias" db:"flow_bias"`
	Readings   map[string]interface{} `json:"readings" db:"readings"`
	Reasons    []string               `json:"reasons" db:"reasons"`
	CreatedAt  time.Time              `json:"created_at" db:"created_at"`
}

// ClassificationRepo stores and reads regime decisions. Upsert is
// idempotent per (symbol, timeframe, ts): re-running a cycle over the same
// bar overwrites rather than duplicates.
type ClassificationRepo interface {
	Upsert(ctx context.Context, row ClassificationRow) error
	Latest(ctx context.Context, symbol, timeframe string) (*ClassificationRow, error)
	GetByTimestamp(ctx context.Context, symbol, timeframe string, ts time.Time) (*ClassificationRow, error)
	ListRange(ctx context.Context, symbol, timeframe string, tr TimeRange) ([]ClassificationRow, error)
	RegimeStats(ctx context.Context, symbol string, tr TimeRange) (map[string]int64, error)
}

// DecisionRow is one persisted strategy decision, written only when the
// action is not HOLD.
type DecisionRow struct {
	ID        int64     `json:"id" db:"id"`
	Timestamp time.Time `json:"ts" db:"ts"`
	Symbol    string    `json:"symbol" db:"symbol"`
	Action    string    `json:"action" db:"action"`
	Side      *string   `json:"side,omitempty" db:"side"`
	SignalKey string    `json:"signal_key" db:"signal_key"`
	Reason    string    `json:"reason" db:"reason"`
	SLPct     *float64  `json:"sl_pct,omitempty" db:"sl_pct"`
	TPPct     *float64  `json:"tp_pct,omitempty" db:"tp_pct"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DecisionRepo appends strategy decisions for audit.
type DecisionRepo interface {
	Insert(ctx context.Context, row DecisionRow) (int64, error)
	ListRecent(ctx context.Context, symbol string, limit int) ([]DecisionRow, error)
}
