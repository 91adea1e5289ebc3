package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/quantegy/tradepulse/internal/persistence"
)

type decisionRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewDecisionRepo creates a PostgreSQL decision audit repository.
func NewDecisionRepo(db *sqlx.DB, timeout time.Duration) persistence.DecisionRepo {
	return &decisionRepo{db: db, timeout: timeout}
}

func (r *decisionRepo) Insert(ctx context.Context, row persistence.DecisionRow) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO decisions (ts, symbol, action, side, signal_key, reason, sl_pct, tp_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		row.Timestamp, row.Symbol, row.Action, row.Side, row.SignalKey,
		row.Reason, row.SLPct, row.TPPct).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert decision: %w", err)
	}
	return id, nil
}

func (r *decisionRepo) ListRecent(ctx context.Context, symbol string, limit int) ([]persistence.DecisionRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, ts, symbol, action, side, signal_key, reason, sl_pct, tp_pct, created_at
		FROM decisions
		WHERE symbol = $1
		ORDER BY ts DESC
		LIMIT $2`

	var out []persistence.DecisionRow
	if err := r.db.SelectContext(ctx, &out, query, symbol, limit); err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return out, nil
}
