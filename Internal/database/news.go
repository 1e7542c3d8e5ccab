package datafeed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fazecat/signalpulse/Internal/types"
)

func parseNLP(raw string) *types.NLPAnalysis {
	if raw == "" {
		return nil
	}
	var nlp types.NLPAnalysis
	if err := json.Unmarshal([]byte(raw), &nlp); err != nil {
		// Malformed analysis is treated as absent, not fatal.
		return nil
	}
	return &nlp
}

// InsertNewsArticle stores an article, deduplicating on URL. Returns true
// when a new row was written.
func (s *Store) InsertNewsArticle(ctx context.Context, article types.NewsArticle) (bool, error) {
	var assetID sql.NullString
	if article.AssetID != "" {
		assetID = sql.NullString{String: article.AssetID, Valid: true}
	}

	var nlpRaw interface{}
	if article.NLP != nil {
		data, err := json.Marshal(article.NLP)
		if err != nil {
			return false, fmt.Errorf("failed to marshal nlp analysis: %w", err)
		}
		nlpRaw = string(data)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO market_news
			(asset_id, headline, summary, source, url, sentiment_label, sentiment_score, relevance_score, nlp_analysis, category, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (url) DO NOTHING`,
		assetID, article.Headline, article.Summary, article.Source, article.URL,
		article.SentimentLabel, article.SentimentScore, article.RelevanceScore,
		nlpRaw, article.Category, article.PublishedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert news article: %w", err)
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) InsertSocialPost(ctx context.Context, post types.SocialPost) (string, error) {
	var assetID sql.NullString
	if post.AssetID != "" {
		assetID = sql.NullString{String: post.AssetID, Valid: true}
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO social_posts
			(influencer_id, asset_id, content, sentiment_label, sentiment_score, urgency_level, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		post.InfluencerID, assetID, post.Content,
		post.SentimentLabel, post.SentimentScore, post.UrgencyLevel, post.PostedAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert social post: %w", err)
	}
	return id, nil
}
