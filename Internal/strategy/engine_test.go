package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils/config"
)

type fakeStore struct {
	assets       map[string]types.Asset
	posts        []types.SocialPost
	news         []types.NewsArticle
	profile      types.AccuracyProfile
	profileErr   error
	indicators   []types.IndicatorSet
	signals      []types.SignalType
	confidences  []int
	alerts       []string
	nextSignalID string
}

func (f *fakeStore) GetAssetBySymbol(_ context.Context, symbol string) (*types.Asset, error) {
	a, ok := f.assets[symbol]
	if !ok {
		return nil, errors.New("asset not found")
	}
	return &a, nil
}

func (f *fakeStore) ListActiveAssets(_ context.Context) ([]types.Asset, error) {
	out := []types.Asset{}
	for _, a := range f.assets {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) InsertIndicators(_ context.Context, _ string, ind types.IndicatorSet) error {
	f.indicators = append(f.indicators, ind)
	return nil
}

func (f *fakeStore) InsertSignal(_ context.Context, _ string, signalType types.SignalType, confidence int, _, _ float64) (string, error) {
	f.signals = append(f.signals, signalType)
	f.confidences = append(f.confidences, confidence)
	if f.nextSignalID == "" {
		return "sig-1", nil
	}
	return f.nextSignalID, nil
}

func (f *fakeStore) InsertAlert(_ context.Context, _ string, _ types.SignalType, message string, _ int) error {
	f.alerts = append(f.alerts, message)
	return nil
}

func (f *fakeStore) ReliableSocialPosts(_ context.Context, _ string, _ time.Time, _ int, _ float64) ([]types.SocialPost, error) {
	return f.posts, nil
}

func (f *fakeStore) RecentNews(_ context.Context, _ string, _ time.Time) ([]types.NewsArticle, error) {
	return f.news, nil
}

func (f *fakeStore) AccuracyProfile(_ context.Context, _ string, _ int) (types.AccuracyProfile, error) {
	return f.profile, f.profileErr
}

type fakeMarket struct {
	quote   types.Quote
	candles []types.Candle
	err     error
}

func (f *fakeMarket) GetQuote(_ context.Context, _ string, _ types.AssetType) (types.Quote, error) {
	return f.quote, f.err
}

func (f *fakeMarket) GetDailyCandles(_ context.Context, _ string, _ types.AssetType, _ int) ([]types.Candle, error) {
	return f.candles, f.err
}

// risingCandles builds a steady uptrend so indicator computation has real
// input without an external fetch.
func risingCandles(n int) []types.Candle {
	out := make([]types.Candle, n)
	price := 100.0
	for i := range out {
		out[i] = types.Candle{
			Timestamp: time.Now().Add(time.Duration(i-n) * 24 * time.Hour),
			Open:      price,
			High:      price * 1.01,
			Low:       price * 0.99,
			Close:     price * 1.003,
			Volume:    1_000_000,
		}
		price *= 1.003
	}
	return out
}

func TestGenerateSignalPersistsSnapshotAndSignal(t *testing.T) {
	store := &fakeStore{
		assets: map[string]types.Asset{
			"AAPL": {ID: "a1", Symbol: "AAPL", Name: "Apple", Type: types.AssetStock, Active: true},
		},
	}
	market := &fakeMarket{
		quote:   types.Quote{Price: 180, ChangePercent: 0.4},
		candles: risingCandles(60),
	}
	engine := NewEngine(store, market, nil, config.DefaultConfig(), nil)

	sig, err := engine.GenerateSignal(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GenerateSignal: %v", err)
	}

	if len(store.indicators) != 1 {
		t.Fatalf("expected one indicator snapshot, got %d", len(store.indicators))
	}
	if sig.Type == types.SignalSkip {
		t.Fatalf("unexpected skip: %s", sig.SkipReason)
	}
	if len(store.signals) != 1 {
		t.Fatalf("expected one stored signal, got %d", len(store.signals))
	}
	if sig.SignalID == "" {
		t.Error("expected a signal id")
	}
}

func TestGenerateSignalCryptoStoresSnapshotOnly(t *testing.T) {
	store := &fakeStore{
		assets: map[string]types.Asset{
			"BTC": {ID: "c1", Symbol: "BTC", Type: types.AssetCrypto, Active: true},
		},
	}
	market := &fakeMarket{
		quote:   types.Quote{Price: 64000},
		candles: risingCandles(60),
	}
	engine := NewEngine(store, market, nil, config.DefaultConfig(), nil)

	sig, err := engine.GenerateSignal(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("GenerateSignal: %v", err)
	}
	if sig.Type != types.SignalSkip {
		t.Fatalf("expected SKIP for crypto, got %s", sig.Type)
	}
	if len(store.indicators) != 1 {
		t.Errorf("snapshot should be stored even for skips, got %d", len(store.indicators))
	}
	if len(store.signals) != 0 {
		t.Errorf("no signal row expected for a skip, got %d", len(store.signals))
	}
}

func TestGenerateSignalQuoteFailure(t *testing.T) {
	store := &fakeStore{
		assets: map[string]types.Asset{
			"AAPL": {ID: "a1", Symbol: "AAPL", Type: types.AssetStock, Active: true},
		},
	}
	market := &fakeMarket{err: errors.New("upstream down")}
	engine := NewEngine(store, market, nil, config.DefaultConfig(), nil)

	if _, err := engine.GenerateSignal(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error when the quote fetch fails")
	}
	if len(store.indicators) != 0 {
		t.Error("nothing should be persisted when market data is unavailable")
	}
}

func TestGenerateAllContinuesPastFailures(t *testing.T) {
	store := &fakeStore{
		assets: map[string]types.Asset{
			"AAPL": {ID: "a1", Symbol: "AAPL", Type: types.AssetStock, Active: true},
			"SPY":  {ID: "a2", Symbol: "SPY", Type: types.AssetETF, Active: true},
		},
	}
	market := &fakeMarket{
		quote:   types.Quote{Price: 100},
		candles: risingCandles(60),
	}
	engine := NewEngine(store, market, nil, config.DefaultConfig(), nil)

	results, err := engine.GenerateAll(context.Background())
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected results for both assets, got %d", len(results))
	}
}

// symbolFailMarket fails the quote fetch for one symbol only.
type symbolFailMarket struct {
	fakeMarket
	failSymbol string
}

func (f *symbolFailMarket) GetQuote(ctx context.Context, symbol string, assetType types.AssetType) (types.Quote, error) {
	if symbol == f.failSymbol {
		return types.Quote{}, errors.New("upstream down")
	}
	return f.fakeMarket.GetQuote(ctx, symbol, assetType)
}

func TestGenerateAllDistinguishesSkipsFromFailures(t *testing.T) {
	store := &fakeStore{
		assets: map[string]types.Asset{
			"AAPL": {ID: "a1", Symbol: "AAPL", Type: types.AssetStock, Active: true},
			"BTC":  {ID: "c1", Symbol: "BTC", Type: types.AssetCrypto, Active: true},
			"FAIL": {ID: "a2", Symbol: "FAIL", Type: types.AssetStock, Active: true},
		},
	}
	market := &symbolFailMarket{
		fakeMarket: fakeMarket{
			quote:   types.Quote{Price: 100},
			candles: risingCandles(60),
		},
		failSymbol: "FAIL",
	}
	engine := NewEngine(store, market, nil, config.DefaultConfig(), nil)

	results, err := engine.GenerateAll(context.Background())
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}

	bySymbol := map[string]GeneratedSignal{}
	for _, r := range results {
		bySymbol[r.Symbol] = r
	}

	aapl := bySymbol["AAPL"]
	if !aapl.Success || aapl.Error != "" {
		t.Errorf("AAPL = %+v, want a successful run", aapl)
	}

	// A policy skip is a successful run with a reason, never an error.
	btc := bySymbol["BTC"]
	if !btc.Success {
		t.Errorf("BTC skip must count as a successful run: %+v", btc)
	}
	if btc.Type != types.SignalSkip || btc.SkipReason == "" {
		t.Errorf("BTC = %+v, want SKIP with a reason", btc)
	}
	if btc.Error != "" {
		t.Errorf("BTC skip must not carry an error: %q", btc.Error)
	}

	// A hard failure carries only the error.
	failed := bySymbol["FAIL"]
	if failed.Success {
		t.Errorf("FAIL must be reported as failed: %+v", failed)
	}
	if failed.Error == "" {
		t.Error("failed item must carry the error message")
	}
	if failed.Type == types.SignalSkip || failed.SkipReason != "" {
		t.Errorf("failure must not masquerade as a skip: %+v", failed)
	}
}

func TestHighConfidenceSignalRaisesAlert(t *testing.T) {
	store := &fakeStore{
		assets: map[string]types.Asset{
			"NVDA": {ID: "a1", Symbol: "NVDA", Type: types.AssetStock, Active: true},
		},
	}
	market := &fakeMarket{
		quote:   types.Quote{Price: 115, ChangePercent: 2.4},
		candles: risingCandles(60),
	}

	// Lower the gate and threshold so the directional lean from the
	// uptrend clears both without depending on exact indicator values.
	cfg := config.DefaultConfig()
	cfg.Scoring.ConfidenceGate = 40
	cfg.Alerts.ConfidenceThreshold = 45
	engine := NewEngine(store, market, nil, cfg, nil)

	sig, err := engine.GenerateSignal(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("GenerateSignal: %v", err)
	}

	actionable := sig.Type == types.SignalCall || sig.Type == types.SignalPut
	if !actionable {
		t.Fatalf("expected an actionable signal with a lowered gate, got %s (%s)", sig.Type, sig.Message)
	}
	if sig.Confidence >= cfg.Alerts.ConfidenceThreshold && len(store.alerts) == 0 {
		t.Error("expected a stored alert for a signal above the threshold")
	}
	if sig.Confidence < cfg.Alerts.ConfidenceThreshold && len(store.alerts) != 0 {
		t.Error("alert stored below the configured threshold")
	}
}
