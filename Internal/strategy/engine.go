package strategy

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fazecat/signalpulse/Internal/indicators"
	"github.com/fazecat/signalpulse/Internal/metrics"
	"github.com/fazecat/signalpulse/Internal/notify"
	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils/config"
)

// MarketData is the upstream quote/candle surface the engine consumes.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string, assetType types.AssetType) (types.Quote, error)
	GetDailyCandles(ctx context.Context, symbol string, assetType types.AssetType, days int) ([]types.Candle, error)
}

// SignalStore is the datastore slice the engine writes through. It includes
// the read surface the context aggregator needs.
type SignalStore interface {
	ContextStore
	GetAssetBySymbol(ctx context.Context, symbol string) (*types.Asset, error)
	ListActiveAssets(ctx context.Context) ([]types.Asset, error)
	InsertIndicators(ctx context.Context, assetID string, ind types.IndicatorSet) error
	InsertSignal(ctx context.Context, assetID string, signalType types.SignalType, confidence int, price, changePercent float64) (string, error)
	InsertAlert(ctx context.Context, assetID string, signalType types.SignalType, message string, confidence int) error
}

type Engine struct {
	Store    SignalStore
	Market   MarketData
	Notifier notify.Notifier
	Cfg      *config.Config
	Metrics  *metrics.Metrics
}

func NewEngine(store SignalStore, market MarketData, notifier notify.Notifier, cfg *config.Config, m *metrics.Metrics) *Engine {
	return &Engine{Store: store, Market: market, Notifier: notifier, Cfg: cfg, Metrics: m}
}

// GeneratedSignal is the outcome of one generation run for one symbol. A
// policy SKIP is a successful run with a SkipReason; a failed run carries
// Error and nothing else.
type GeneratedSignal struct {
	Symbol     string           `json:"symbol"`
	Success    bool             `json:"success"`
	SignalID   string           `json:"signal_id,omitempty"`
	Type       types.SignalType `json:"signal,omitempty"`
	Confidence int              `json:"confidence,omitempty"`
	Price      float64          `json:"price,omitempty"`
	Change     float64          `json:"change_percent,omitempty"`
	Message    string           `json:"message,omitempty"`
	SkipReason string           `json:"skip_reason,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// GenerateSignal runs the full pipeline for one symbol: fetch market data,
// compute indicators, gather sentiment context, score, persist. The
// indicator snapshot is always stored; a signal row is stored unless the
// scorer decides to SKIP.
func (e *Engine) GenerateSignal(ctx context.Context, symbol string) (*GeneratedSignal, error) {
	asset, err := e.Store.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	quote, err := e.Market.GetQuote(ctx, asset.Symbol, asset.Type)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	candles, err := e.Market.GetDailyCandles(ctx, asset.Symbol, asset.Type, e.Cfg.MarketData.CandleDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles for %s: %w", symbol, err)
	}
	e.observe("market_data", time.Since(start))

	ind := indicators.Compute(candles)
	if err := e.Store.InsertIndicators(ctx, asset.ID, ind); err != nil {
		return nil, err
	}

	sctx := GatherContext(ctx, e.Store, e.Cfg, asset.ID, time.Now().UTC())

	result := Score(Input{
		AssetType:     asset.Type,
		Indicators:    ind,
		Quote:         quote,
		Context:       sctx,
		TrustedSource: e.Cfg.News.TrustedSource,
	}, e.Cfg.Scoring)

	out := &GeneratedSignal{
		Symbol:     asset.Symbol,
		Success:    true,
		Type:       result.Type,
		Confidence: result.Confidence,
		Price:      result.Price,
		Change:     result.Change,
		Message:    result.Message,
		SkipReason: result.SkipReason,
	}

	if result.Type == types.SignalSkip {
		log.Printf("Skipping %s: %s", asset.Symbol, result.SkipReason)
		if e.Metrics != nil {
			e.Metrics.SignalsSkipped.Inc()
		}
		return out, nil
	}

	id, err := e.Store.InsertSignal(ctx, asset.ID, result.Type, result.Confidence, result.Price, result.Change)
	if err != nil {
		return nil, err
	}
	out.SignalID = id
	if e.Metrics != nil {
		e.Metrics.SignalsGenerated.WithLabelValues(string(result.Type)).Inc()
	}
	log.Printf("Generated %s signal for %s at confidence %d", result.Type, asset.Symbol, result.Confidence)

	if result.Type != types.SignalNeutral && result.Confidence >= e.Cfg.Alerts.ConfidenceThreshold {
		e.raiseAlert(ctx, asset, result)
	}

	return out, nil
}

// GenerateAll runs generation for every active asset. Per-asset failures are
// recorded in the result instead of aborting the batch.
func (e *Engine) GenerateAll(ctx context.Context) ([]GeneratedSignal, error) {
	assets, err := e.Store.ListActiveAssets(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]GeneratedSignal, 0, len(assets))
	for _, a := range assets {
		sig, err := e.GenerateSignal(ctx, a.Symbol)
		if err != nil {
			log.Printf("Warning: generation failed for %s: %v", a.Symbol, err)
			results = append(results, GeneratedSignal{
				Symbol: a.Symbol,
				Error:  err.Error(),
			})
			continue
		}
		results = append(results, *sig)
	}
	return results, nil
}

func (e *Engine) raiseAlert(ctx context.Context, asset *types.Asset, result Result) {
	message := fmt.Sprintf("%s %s at $%.2f (confidence %d). %s",
		result.Type, asset.Symbol, result.Price, result.Confidence, result.Message)

	if err := e.Store.InsertAlert(ctx, asset.ID, result.Type, message, result.Confidence); err != nil {
		log.Printf("Warning: could not store alert for %s: %v", asset.Symbol, err)
		return
	}
	if e.Metrics != nil {
		e.Metrics.AlertsPublished.Inc()
	}

	if e.Notifier == nil {
		return
	}
	alert := types.Alert{
		AssetID:    asset.ID,
		SignalType: result.Type,
		Message:    message,
		Confidence: result.Confidence,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.Notifier.Publish(ctx, alert); err != nil {
		log.Printf("Warning: could not publish alert for %s: %v", asset.Symbol, err)
	}
}

func (e *Engine) observe(endpoint string, d time.Duration) {
	if e.Metrics != nil {
		e.Metrics.ExternalDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}
