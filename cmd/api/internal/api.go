package internal

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	datafeed "github.com/fazecat/signalpulse/Internal/database"
	"github.com/fazecat/signalpulse/Internal/improve"
	"github.com/fazecat/signalpulse/Internal/news"
	"github.com/fazecat/signalpulse/Internal/sentiment"
	"github.com/fazecat/signalpulse/Internal/strategy"
	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils/config"
	"github.com/fazecat/signalpulse/Internal/validator"
)

type API struct {
	Engine    *strategy.Engine
	Validator *validator.Validator
	Improver  *improve.Analyzer
	Ingestor  *news.Ingestor
	Analyzer  *sentiment.Analyzer
	Store     *datafeed.Store
	Cfg       *config.Config
}

func (api *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := datafeed.HealthCheck(); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	WriteJSON(w, http.StatusOK, "healthy")
}

type generateRequest struct {
	Symbol string `json:"symbol"`
}

func (api *API) HandleGenerateSignal(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	sig, err := api.Engine.GenerateSignal(r.Context(), symbol)
	if err != nil {
		log.Printf("Error generating signal for %s: %v", symbol, err)
		if strings.Contains(err.Error(), "not found") {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "signal generation failed")
		return
	}
	WriteJSON(w, http.StatusOK, sig)
}

func (api *API) HandleGenerateAll(w http.ResponseWriter, r *http.Request) {
	results, err := api.Engine.GenerateAll(r.Context())
	if err != nil {
		log.Printf("Error generating signals: %v", err)
		WriteError(w, http.StatusInternalServerError, "batch generation failed")
		return
	}

	successful := 0
	for _, sig := range results {
		if sig.Success {
			successful++
		}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total":      len(results),
		"successful": successful,
		"failed":     len(results) - successful,
		"results":    results,
	})
}

func (api *API) HandleLatestSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := api.Store.LatestSignals(r.Context())
	if err != nil {
		log.Printf("Error fetching latest signals: %v", err)
		WriteError(w, http.StatusInternalServerError, "failed to fetch signals")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(signals),
		"signals": signals,
	})
}

func (api *API) HandleValidate(w http.ResponseWriter, r *http.Request) {
	summary, err := api.Validator.Run(r.Context(), time.Now().UTC())
	if err != nil {
		log.Printf("Error running validation: %v", err)
		WriteError(w, http.StatusInternalServerError, "validation run failed")
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (api *API) HandleNewsRefresh(w http.ResponseWriter, r *http.Request) {
	window := time.Duration(api.Cfg.News.WindowHours) * time.Hour
	summary, err := api.Ingestor.Refresh(r.Context(), window)
	if err != nil {
		log.Printf("Error refreshing news: %v", err)
		WriteError(w, http.StatusInternalServerError, "news refresh failed")
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

type analyzePostRequest struct {
	InfluencerID string `json:"influencer_id"`
	Symbol       string `json:"symbol,omitempty"`
	Content      string `json:"content"`
	PostedAt     string `json:"posted_at,omitempty"`
}

// HandleAnalyzeSocialPost scores a post's text with the lexicon analyzer and
// stores it so the context aggregator can pick it up.
func (api *API) HandleAnalyzeSocialPost(w http.ResponseWriter, r *http.Request) {
	var req analyzePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.InfluencerID == "" || strings.TrimSpace(req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "influencer_id and content are required")
		return
	}

	post := types.SocialPost{
		InfluencerID: req.InfluencerID,
		Content:      req.Content,
		PostedAt:     time.Now().UTC(),
		AnalyzedAt:   time.Now().UTC(),
	}
	if req.PostedAt != "" {
		postedAt, err := time.Parse(time.RFC3339, req.PostedAt)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "posted_at must be RFC3339")
			return
		}
		post.PostedAt = postedAt
	}
	if req.Symbol != "" {
		asset, err := api.Store.GetAssetBySymbol(r.Context(), strings.ToUpper(strings.TrimSpace(req.Symbol)))
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		post.AssetID = asset.ID
	}

	analysis := api.Analyzer.Analyze(req.Content)
	post.SentimentLabel = analysis.Label
	post.SentimentScore = analysis.Score
	post.UrgencyLevel = analysis.Urgency

	id, err := api.Store.InsertSocialPost(r.Context(), post)
	if err != nil {
		log.Printf("Error storing social post: %v", err)
		WriteError(w, http.StatusInternalServerError, "failed to store post")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"post_id":  id,
		"analysis": analysis,
	})
}

func (api *API) HandleImprove(w http.ResponseWriter, r *http.Request) {
	report, err := api.Improver.Run(r.Context())
	if err != nil {
		log.Printf("Error running improvement analysis: %v", err)
		if strings.Contains(err.Error(), "need at least") {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "improvement analysis failed")
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (api *API) HandleListImprovements(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	reports, err := api.Store.ListImprovements(r.Context(), limit)
	if err != nil {
		log.Printf("Error listing improvements: %v", err)
		WriteError(w, http.StatusInternalServerError, "failed to fetch improvements")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":        len(reports),
		"improvements": reports,
	})
}

func (api *API) HandleAccuracy(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol query parameter is required")
		return
	}

	asset, err := api.Store.GetAssetBySymbol(r.Context(), symbol)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	profile, err := api.Store.AccuracyProfile(r.Context(), asset.ID, api.Cfg.Profile.CorrelationSample)
	if err != nil {
		log.Printf("Error fetching accuracy profile for %s: %v", symbol, err)
		WriteError(w, http.StatusInternalServerError, "failed to fetch accuracy profile")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":     asset.Symbol,
		"profile":    profile,
		"volatility": profile.VolatilityBucket(),
	})
}
