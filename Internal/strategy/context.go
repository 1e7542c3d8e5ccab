package strategy

import (
	"context"
	"log"
	"time"

	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils/config"
)

// Context is everything the scorer consumes beyond the indicator snapshot:
// recent reliable social posts, recent news, and the asset's own validation
// history. Empty collections mean "no contribution", never an error.
type Context struct {
	SocialPosts []types.SocialPost
	News        []types.NewsArticle
	Profile     types.AccuracyProfile
}

// ContextStore is the slice of the datastore the aggregator reads.
type ContextStore interface {
	ReliableSocialPosts(ctx context.Context, assetID string, since time.Time, minPredictions int, minAccuracy float64) ([]types.SocialPost, error)
	RecentNews(ctx context.Context, assetID string, since time.Time) ([]types.NewsArticle, error)
	AccuracyProfile(ctx context.Context, assetID string, sample int) (types.AccuracyProfile, error)
}

// GatherContext collects the sentiment context for one asset. A failed
// sub-fetch degrades to an empty contribution so one flaky source cannot
// block signal generation.
func GatherContext(ctx context.Context, store ContextStore, cfg *config.Config, assetID string, now time.Time) Context {
	out := Context{
		SocialPosts: []types.SocialPost{},
		News:        []types.NewsArticle{},
	}

	socialSince := now.Add(-time.Duration(cfg.Social.WindowHours) * time.Hour)
	posts, err := store.ReliableSocialPosts(ctx, assetID, socialSince, cfg.Social.MinPredictions, cfg.Social.MinAccuracy)
	if err != nil {
		log.Printf("Warning: could not fetch social posts for asset %s: %v", assetID, err)
	} else if posts != nil {
		out.SocialPosts = posts
	}

	newsSince := now.Add(-time.Duration(cfg.News.WindowHours) * time.Hour)
	news, err := store.RecentNews(ctx, assetID, newsSince)
	if err != nil {
		log.Printf("Warning: could not fetch news for asset %s: %v", assetID, err)
	} else if news != nil {
		out.News = news
	}

	profile, err := store.AccuracyProfile(ctx, assetID, cfg.Profile.CorrelationSample)
	if err != nil {
		log.Printf("Warning: could not fetch accuracy profile for asset %s: %v", assetID, err)
	} else {
		out.Profile = profile
	}

	return out
}
