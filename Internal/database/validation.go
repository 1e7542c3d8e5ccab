package datafeed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fazecat/signalpulse/Internal/types"
)

// UnvalidatedSignalsInWindow returns signals created inside [from, to] that
// have not been validated yet. The validated flag makes re-running a window
// a no-op.
func (s *Store) UnvalidatedSignalsInWindow(ctx context.Context, from, to time.Time) ([]types.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sg.id, sg.asset_id, a.symbol, a.type,
		       sg.signal, sg.confidence, sg.price::float8, sg.change_percent::float8, sg.created_at
		FROM trading_signals sg
		JOIN assets a ON a.id = sg.asset_id
		WHERE sg.created_at >= $1 AND sg.created_at <= $2 AND sg.validated = FALSE
		ORDER BY sg.created_at DESC`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signals for validation: %w", err)
	}
	defer rows.Close()

	signals := []types.Signal{}
	for rows.Next() {
		var sg types.Signal
		if err := rows.Scan(&sg.ID, &sg.AssetID, &sg.Symbol, &sg.AssetType,
			&sg.Type, &sg.Confidence, &sg.Price, &sg.ChangePercent, &sg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, sg)
	}

	return signals, rows.Err()
}

// PostsBefore returns posts for an asset inside the window leading up to a
// signal, for outcome attribution.
func (s *Store) PostsBefore(ctx context.Context, assetID string, signalAt time.Time, window time.Duration) ([]types.SocialPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, influencer_id, sentiment_label, posted_at
		FROM social_posts
		WHERE asset_id = $1 AND posted_at <= $2 AND posted_at >= $3`,
		assetID, signalAt, signalAt.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch related posts: %w", err)
	}
	defer rows.Close()

	posts := []types.SocialPost{}
	for rows.Next() {
		var p types.SocialPost
		if err := rows.Scan(&p.ID, &p.InfluencerID, &p.SentimentLabel, &p.PostedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.AssetID = assetID
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

func (s *Store) InsertCorrelation(ctx context.Context, c types.PriceCorrelation) error {
	var postID sql.NullString
	if c.PostID != "" {
		postID = sql.NullString{String: c.PostID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO price_correlations
			(post_id, asset_id, price_before, price_after, price_change_percent,
			 prediction_correct, signal_type, signal_confidence, time_to_impact_hours, measured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		postID, c.AssetID,
		decimal.NewFromFloat(c.PriceBefore).String(),
		decimal.NewFromFloat(c.PriceAfter).String(),
		c.ChangePercent, c.Correct, string(c.SignalType), c.SignalConfidence,
		c.TimeToImpactHrs, c.MeasuredAt)
	if err != nil {
		return fmt.Errorf("failed to insert correlation: %w", err)
	}
	return nil
}

// ApplyInfluencerOutcome rolls a validation outcome into an influencer's
// counters. A single UPDATE does the increment and recomputes accuracy, so
// overlapping validator runs cannot lose updates.
func (s *Store) ApplyInfluencerOutcome(ctx context.Context, influencerID string, posts int, correct int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE influencers SET
			total_predictions = total_predictions + $2,
			correct_predictions = correct_predictions + $3,
			accuracy_score = (correct_predictions + $3)::float8
				/ (total_predictions + $2)::float8 * 100
		WHERE id = $1`,
		influencerID, posts, correct)
	if err != nil {
		return fmt.Errorf("failed to update influencer accuracy: %w", err)
	}
	return nil
}

func (s *Store) MarkSignalValidated(ctx context.Context, signalID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE trading_signals SET validated = TRUE WHERE id = $1`, signalID)
	if err != nil {
		return fmt.Errorf("failed to mark signal validated: %w", err)
	}
	return nil
}
