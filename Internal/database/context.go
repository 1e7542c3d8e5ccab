package datafeed

import (
	"context"
	"fmt"
	"time"

	"github.com/fazecat/signalpulse/Internal/types"
)

// ReliableSocialPosts returns recent posts for an asset, restricted to
// influencers with a proven track record. Unproven sources are noise.
func (s *Store) ReliableSocialPosts(ctx context.Context, assetID string, since time.Time, minPredictions int, minAccuracy float64) ([]types.SocialPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.influencer_id, p.content, p.sentiment_label, p.sentiment_score, p.urgency_level, p.posted_at
		FROM social_posts p
		JOIN influencers i ON i.id = p.influencer_id
		WHERE p.asset_id = $1
		  AND p.posted_at >= $2
		  AND i.total_predictions >= $3
		  AND i.accuracy_score > $4
		ORDER BY p.posted_at DESC`,
		assetID, since, minPredictions, minAccuracy)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch social posts: %w", err)
	}
	defer rows.Close()

	posts := []types.SocialPost{}
	for rows.Next() {
		var p types.SocialPost
		if err := rows.Scan(&p.ID, &p.InfluencerID, &p.Content, &p.SentimentLabel, &p.SentimentScore, &p.UrgencyLevel, &p.PostedAt); err != nil {
			return nil, fmt.Errorf("failed to scan social post: %w", err)
		}
		p.AssetID = assetID
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

func (s *Store) RecentNews(ctx context.Context, assetID string, since time.Time) ([]types.NewsArticle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, headline, summary, source, sentiment_label, sentiment_score, relevance_score,
		       COALESCE(nlp_analysis::text, ''), category, published_at
		FROM market_news
		WHERE asset_id = $1 AND published_at >= $2
		ORDER BY published_at DESC`,
		assetID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer rows.Close()

	articles := []types.NewsArticle{}
	for rows.Next() {
		var a types.NewsArticle
		var nlpRaw string
		if err := rows.Scan(&a.ID, &a.Headline, &a.Summary, &a.Source, &a.SentimentLabel, &a.SentimentScore, &a.RelevanceScore, &nlpRaw, &a.Category, &a.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan news article: %w", err)
		}
		a.AssetID = assetID
		a.NLP = parseNLP(nlpRaw)
		articles = append(articles, a)
	}

	return articles, rows.Err()
}

// AccuracyProfile builds the asset's trailing validation record from its most
// recent correlations.
func (s *Store) AccuracyProfile(ctx context.Context, assetID string, sample int) (types.AccuracyProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signal_type, prediction_correct, price_change_percent
		FROM price_correlations
		WHERE asset_id = $1
		ORDER BY measured_at DESC
		LIMIT $2`,
		assetID, sample)
	if err != nil {
		return types.AccuracyProfile{}, fmt.Errorf("failed to fetch correlations: %w", err)
	}
	defer rows.Close()

	var profile types.AccuracyProfile
	var correct, callCorrect, putCorrect int
	var sumAbsChange float64

	for rows.Next() {
		var signalType string
		var wasCorrect bool
		var change float64
		if err := rows.Scan(&signalType, &wasCorrect, &change); err != nil {
			return types.AccuracyProfile{}, fmt.Errorf("failed to scan correlation: %w", err)
		}

		profile.TotalValidations++
		if change < 0 {
			change = -change
		}
		sumAbsChange += change

		if wasCorrect {
			correct++
		}

		switch types.SignalType(signalType) {
		case types.SignalCall:
			profile.CallCount++
			if wasCorrect {
				callCorrect++
			}
		case types.SignalPut:
			profile.PutCount++
			if wasCorrect {
				putCorrect++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return types.AccuracyProfile{}, err
	}

	if profile.TotalValidations > 0 {
		profile.Accuracy = float64(correct) / float64(profile.TotalValidations) * 100
		profile.AvgAbsChange = sumAbsChange / float64(profile.TotalValidations)
	}
	if profile.CallCount > 0 {
		profile.CallAccuracy = float64(callCorrect) / float64(profile.CallCount) * 100
	}
	if profile.PutCount > 0 {
		profile.PutAccuracy = float64(putCorrect) / float64(profile.PutCount) * 100
	}

	return profile, nil
}
