// Package news ingests market headlines, tags them with lexicon sentiment,
// matches them to tracked assets and stores them with URL dedupe.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fazecat/signalpulse/Internal/metrics"
	"github.com/fazecat/signalpulse/Internal/sentiment"
	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils"
)

const newsURL = "https://data.alpaca.markets/v1beta1/news"

// Relevance levels assigned during asset matching. A symbol match is
// strong; a name-only match or no match at all is weak but still stored.
const (
	RelevanceSymbolMatch = 0.8
	RelevanceWeak        = 0.3
)

// RawArticle is an upstream headline before tagging.
type RawArticle struct {
	Headline    string
	Summary     string
	Source      string
	URL         string
	Symbols     []string
	PublishedAt time.Time
}

// Source fetches raw articles published since a cutoff.
type Source interface {
	FetchSince(ctx context.Context, since time.Time) ([]RawArticle, error)
}

// AlpacaSource reads the Alpaca news feed.
type AlpacaSource struct {
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	retry      utils.RetryConfig
}

func NewAlpacaSource(timeout time.Duration) *AlpacaSource {
	return &AlpacaSource{
		apiKey:     os.Getenv("ALPACA_API_KEY"),
		apiSecret:  os.Getenv("ALPACA_API_SECRET"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      utils.DefaultRetryConfig(),
	}
}

type newsJSON struct {
	News []struct {
		Headline  string    `json:"headline"`
		Summary   string    `json:"summary"`
		Source    string    `json:"source"`
		URL       string    `json:"url"`
		Symbols   []string  `json:"symbols"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"news"`
}

func (s *AlpacaSource) FetchSince(ctx context.Context, since time.Time) ([]RawArticle, error) {
	params := url.Values{}
	params.Set("start", since.UTC().Format(time.RFC3339))
	params.Set("limit", "50")
	params.Set("sort", "desc")

	var payload newsJSON
	err := utils.RetryWithBackoff(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, newsURL+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("APCA-API-KEY-ID", s.apiKey)
		req.Header.Set("APCA-API-SECRET-KEY", s.apiSecret)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("news request returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	}, s.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}

	out := make([]RawArticle, 0, len(payload.News))
	for _, n := range payload.News {
		out = append(out, RawArticle{
			Headline:    n.Headline,
			Summary:     n.Summary,
			Source:      n.Source,
			URL:         n.URL,
			Symbols:     n.Symbols,
			PublishedAt: n.CreatedAt,
		})
	}
	return out, nil
}

// Store is the datastore slice ingestion writes through.
type Store interface {
	ListActiveAssets(ctx context.Context) ([]types.Asset, error)
	InsertNewsArticle(ctx context.Context, article types.NewsArticle) (bool, error)
}

type Ingestor struct {
	Store    Store
	Source   Source
	Analyzer *sentiment.Analyzer
	Metrics  *metrics.Metrics
}

func NewIngestor(store Store, source Source, m *metrics.Metrics) *Ingestor {
	return &Ingestor{
		Store:    store,
		Source:   source,
		Analyzer: sentiment.NewAnalyzer(),
		Metrics:  m,
	}
}

// Summary reports one ingestion run. Fetched counts upstream articles,
// Stored counts the ones that survived URL dedupe.
type Summary struct {
	Fetched int `json:"fetched"`
	Stored  int `json:"stored"`
}

// Refresh pulls articles published inside the window, tags and stores them.
func (i *Ingestor) Refresh(ctx context.Context, window time.Duration) (Summary, error) {
	raw, err := i.Source.FetchSince(ctx, time.Now().UTC().Add(-window))
	if err != nil {
		return Summary{}, err
	}

	assets, err := i.Store.ListActiveAssets(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Fetched: len(raw)}
	for _, article := range raw {
		if article.URL == "" {
			continue
		}
		tagged := i.Tag(article, assets)
		stored, err := i.Store.InsertNewsArticle(ctx, tagged)
		if err != nil {
			log.Printf("Warning: could not store article %q: %v", article.Headline, err)
			continue
		}
		if stored {
			sum.Stored++
			if i.Metrics != nil {
				i.Metrics.NewsIngested.Inc()
			}
		}
	}
	log.Printf("News refresh: %d fetched, %d stored", sum.Fetched, sum.Stored)
	return sum, nil
}

// Tag runs lexicon sentiment over the headline and summary and matches the
// article to the most relevant tracked asset.
func (i *Ingestor) Tag(article RawArticle, assets []types.Asset) types.NewsArticle {
	analysis := i.Analyzer.Analyze(article.Headline + " " + article.Summary)
	assetID, relevance := MatchAsset(article, assets)

	return types.NewsArticle{
		AssetID:        assetID,
		Headline:       article.Headline,
		Summary:        article.Summary,
		Source:         article.Source,
		URL:            article.URL,
		SentimentLabel: analysis.Label,
		SentimentScore: analysis.Score,
		RelevanceScore: relevance,
		Category:       categorize(article.Headline),
		PublishedAt:    article.PublishedAt,
	}
}

// MatchAsset picks the tracked asset an article is about. An upstream
// symbol tag or a symbol in the headline is a strong match; a company name
// in the text is weak. First strong match wins.
func MatchAsset(article RawArticle, assets []types.Asset) (string, float64) {
	tagged := map[string]bool{}
	for _, s := range article.Symbols {
		tagged[strings.ToUpper(s)] = true
	}
	headline := strings.ToUpper(article.Headline)
	text := strings.ToLower(article.Headline + " " + article.Summary)

	weakID := ""
	for _, a := range assets {
		symbol := strings.ToUpper(a.Symbol)
		if tagged[symbol] || containsWord(headline, symbol) {
			return a.ID, RelevanceSymbolMatch
		}
		if weakID == "" && a.Name != "" && strings.Contains(text, strings.ToLower(a.Name)) {
			weakID = a.ID
		}
	}
	return weakID, RelevanceWeak
}

// containsWord reports whether text contains word bounded by non-letters,
// so "A" does not match inside "APPLE".
func containsWord(text, word string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)
		leftOK := idx == 0 || !isAlnum(text[idx-1])
		rightOK := end == len(text) || !isAlnum(text[end])
		if leftOK && rightOK {
			return true
		}
		start = idx + 1
	}
}

func isAlnum(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

func categorize(headline string) string {
	h := strings.ToLower(headline)
	switch {
	case strings.Contains(h, "earnings") || strings.Contains(h, "revenue") || strings.Contains(h, "profit"):
		return "earnings"
	case strings.Contains(h, "fed") || strings.Contains(h, "inflation") || strings.Contains(h, "rate"):
		return "macro"
	case strings.Contains(h, "merger") || strings.Contains(h, "acquisition") || strings.Contains(h, "acquire"):
		return "mna"
	case strings.Contains(h, "upgrade") || strings.Contains(h, "downgrade") || strings.Contains(h, "analyst"):
		return "analyst"
	default:
		return "general"
	}
}
