package datafeed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fazecat/signalpulse/Internal/types"
)

// ValidatedCorrelation is a correlation row joined with its asset, the input
// to the improvement analysis.
type ValidatedCorrelation struct {
	Symbol        string
	AssetType     types.AssetType
	SignalType    types.SignalType
	Confidence    int
	ChangePercent float64
	Correct       bool
	MeasuredAt    time.Time
}

func (s *Store) RecentValidatedCorrelations(ctx context.Context, limit int) ([]ValidatedCorrelation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.symbol, a.type, c.signal_type, c.signal_confidence,
		       c.price_change_percent, c.prediction_correct, c.measured_at
		FROM price_correlations c
		JOIN assets a ON a.id = c.asset_id
		ORDER BY c.created_at DESC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch validated correlations: %w", err)
	}
	defer rows.Close()

	out := []ValidatedCorrelation{}
	for rows.Next() {
		var c ValidatedCorrelation
		if err := rows.Scan(&c.Symbol, &c.AssetType, &c.SignalType, &c.Confidence,
			&c.ChangePercent, &c.Correct, &c.MeasuredAt); err != nil {
			return nil, fmt.Errorf("failed to scan correlation: %w", err)
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (s *Store) LastImprovementVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM algorithm_improvements ORDER BY created_at DESC LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch last improvement version: %w", err)
	}
	return version, nil
}

func (s *Store) InsertImprovement(ctx context.Context, version string, accuracyBefore float64, metricsJSON string, recommendations string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO algorithm_improvements (version, accuracy_before, metrics, recommendations)
		VALUES ($1, $2, $3, $4)`,
		version, accuracyBefore, metricsJSON, recommendations)
	if err != nil {
		return fmt.Errorf("failed to insert improvement: %w", err)
	}
	return nil
}

type ImprovementReport struct {
	Version         string          `json:"version"`
	AccuracyBefore  float64         `json:"accuracy_before"`
	AccuracyAfter   sql.NullFloat64 `json:"-"`
	Metrics         string          `json:"metrics"`
	Recommendations string          `json:"recommendations"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (s *Store) ListImprovements(ctx context.Context, limit int) ([]ImprovementReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, accuracy_before, accuracy_after, metrics::text, recommendations, created_at
		FROM algorithm_improvements
		ORDER BY created_at DESC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list improvements: %w", err)
	}
	defer rows.Close()

	out := []ImprovementReport{}
	for rows.Next() {
		var r ImprovementReport
		if err := rows.Scan(&r.Version, &r.AccuracyBefore, &r.AccuracyAfter, &r.Metrics, &r.Recommendations, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan improvement: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}
