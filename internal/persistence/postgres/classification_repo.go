package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/quantegy/tradepulse/internal/persistence"
)

type classificationRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewClassificationRepo creates a PostgreSQL classification repository.
func NewClassificationRepo(db *sqlx.DB, timeout time.Duration) persistence.ClassificationRepo {
	return &classificationRepo{db: db, timeout: timeout}
}

var validRegimes = map[string]bool{
	"RANGE":    true,
	"BREAKOUT": true,
	"SHOCK":    true,
}

// Upsert writes one classification row keyed by (symbol, timeframe, ts).
func (r *classificationRepo) Upsert(ctx context.Context, row persistence.ClassificationRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if !validRegimes[row.Regime] {
		return fmt.Errorf("invalid regime: %s", row.Regime)
	}

	readingsJSON, err := json.Marshal(row.Readings)
	if err != nil {
		return fmt.Errorf("marshal readings: %w", err)
	}
	reasonsJSON, err := json.Marshal(row.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}

	query := `
		INSERT INTO classifications
		(ts, symbol, timeframe, regime, shock_type, mode, confidence, flow_bias, readings, reasons)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol, timeframe, ts) DO UPDATE SET
			regime = EXCLUDED.regime,
			shock_type = EXCLUDED.shock_type,
			mode = EXCLUDED.mode,
			confidence = EXCLUDED.confidence,
			flow_bias = EXCLUDED.flow_bias,
			readings = EXCLUDED.readings,
			reasons = EXCLUDED.reasons
		RETURNING created_at`

	err = r.db.QueryRowxContext(ctx, query,
		row.Timestamp, row.Symbol, row.Timeframe, row.Regime, row.ShockType,
		row.Mode, row.Confidence, row.FlowBias, readingsJSON, reasonsJSON).
		Scan(&row.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert classification: %w", err)
	}
	return nil
}

func (r *classificationRepo) Latest(ctx context.Context, symbol, timeframe string) (*persistence.ClassificationRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := selectColumns + `
		FROM classifications
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY ts DESC
		LIMIT 1`

	row, err := r.scanRow(r.db.QueryRowxContext(ctx, query, symbol, timeframe))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest classification: %w", err)
	}
	return row, nil
}

func (r *classificationRepo) GetByTimestamp(ctx context.Context, symbol, timeframe string, ts time.Time) (*persistence.ClassificationRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := selectColumns + `
		FROM classifications
		WHERE symbol = $1 AND timeframe = $2 AND ts = $3`

	row, err := r.scanRow(r.db.QueryRowxContext(ctx, query, symbol, timeframe, ts))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("classification by timestamp: %w", err)
	}
	return row, nil
}

func (r *classificationRepo) ListRange(ctx context.Context, symbol, timeframe string, tr persistence.TimeRange) ([]persistence.ClassificationRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := selectColumns + `
		FROM classifications
		WHERE symbol = $1 AND timeframe = $2 AND ts >= $3 AND ts <= $4
		ORDER BY ts DESC`

	rows, err := r.db.QueryxContext(ctx, query, symbol, timeframe, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("query classification range: %w", err)
	}
	defer rows.Close()

	var out []persistence.ClassificationRow
	for rows.Next() {
		row, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

func (r *classificationRepo) RegimeStats(ctx context.Context, symbol string, tr persistence.TimeRange) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT regime, COUNT(*)
		FROM classifications
		WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		GROUP BY regime
		ORDER BY regime`

	rows, err := r.db.QueryxContext(ctx, query, symbol, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("query regime stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var regime string
		var count int64
		if err := rows.Scan(&regime, &count); err != nil {
			return nil, fmt.Errorf("scan regime stats: %w", err)
		}
		stats[regime] = count
	}
	return stats, rows.Err()
}

const selectColumns = `
		SELECT ts, symbol, timeframe, regime, shock_type, mode, confidence, flow_bias, readings, reasons, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *classificationRepo) scanRow(scanner rowScanner) (*persistence.ClassificationRow, error) {
	var row persistence.ClassificationRow
	var readingsJSON, reasonsJSON []byte

	err := scanner.Scan(&row.Timestamp, &row.Symbol, &row.Timeframe, &row.Regime,
		&row.ShockType, &row.Mode, &row.Confidence, &row.FlowBias,
		&readingsJSON, &reasonsJSON, &row.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(readingsJSON) > 0 {
		if err := json.Unmarshal(readingsJSON, &row.Readings); err != nil {
			return nil, fmt.Errorf("unmarshal readings: %w", err)
		}
	}
	if len(reasonsJSON) > 0 {
		if err := json.Unmarshal(reasonsJSON, &row.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshal reasons: %w", err)
		}
	}
	return &row, nil
}
