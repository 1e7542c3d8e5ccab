package strategy

import (
	"reflect"
	"testing"

	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils/config"
)

func flatIndicators() types.IndicatorSet {
	return types.IndicatorSet{
		RSI:            50,
		MACD:           0,
		EMA50:          100,
		EMA200:         100,
		BollingerUpper: 110,
		BollingerLower: 90,
		ATR:            1,
	}
}

func TestScoreCryptoAlwaysSkipped(t *testing.T) {
	in := Input{
		AssetType:  types.AssetCrypto,
		Indicators: flatIndicators(),
		Quote:      types.Quote{Price: 45000},
	}
	res := Score(in, config.DefaultConfig().Scoring)
	if res.Type != types.SignalSkip {
		t.Fatalf("expected SKIP for crypto, got %s", res.Type)
	}
	if res.SkipReason == "" {
		t.Error("expected a skip reason")
	}
}

func TestScorePoorTrackRecordSkipped(t *testing.T) {
	w := config.DefaultConfig().Scoring

	tests := []struct {
		name        string
		validations int
		accuracy    float64
		wantSkip    bool
	}{
		{"enough samples, bad accuracy", 15, 20.0, true},
		{"too few samples to judge", 5, 0.0, false},
		{"enough samples, passable accuracy", 15, 30.0, false},
		{"exactly at the sample floor", 10, 24.9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				AssetType:  types.AssetStock,
				Indicators: flatIndicators(),
				Quote:      types.Quote{Price: 100},
				Context: Context{Profile: types.AccuracyProfile{
					TotalValidations: tt.validations,
					Accuracy:         tt.accuracy,
					AvgAbsChange:     3.0,
				}},
			}
			res := Score(in, w)
			gotSkip := res.Type == types.SignalSkip
			if gotSkip != tt.wantSkip {
				t.Errorf("skip = %v, want %v (type %s)", gotSkip, tt.wantSkip, res.Type)
			}
		})
	}
}

func TestScoreStrongCallScenario(t *testing.T) {
	// Deeply oversold stock with bullish momentum in a bullish regime,
	// trading at the lower band. Every long rule fires.
	in := Input{
		AssetType: types.AssetStock,
		Indicators: types.IndicatorSet{
			RSI:            20,
			MACD:           0.8,
			EMA50:          105,
			EMA200:         100,
			BollingerUpper: 110,
			BollingerLower: 95,
		},
		Quote: types.Quote{Price: 95, ChangePercent: -2.1},
	}
	res := Score(in, config.DefaultConfig().Scoring)

	if res.Type != types.SignalCall {
		t.Fatalf("expected CALL, got %s (%s)", res.Type, res.Message)
	}
	if res.Confidence < 65 {
		t.Errorf("expected actionable confidence, got %d", res.Confidence)
	}
	if res.Confidence > 92 {
		t.Errorf("confidence %d exceeds cap", res.Confidence)
	}
	if res.Price != 95 {
		t.Errorf("price = %v, want 95", res.Price)
	}
}

func TestScoreStrongPutScenario(t *testing.T) {
	// Overbought stock with bearish momentum in a bearish regime, pressed
	// against the upper band.
	in := Input{
		AssetType: types.AssetStock,
		Indicators: types.IndicatorSet{
			RSI:            80,
			MACD:           -0.9,
			EMA50:          95,
			EMA200:         100,
			BollingerUpper: 108,
			BollingerLower: 94,
		},
		Quote: types.Quote{Price: 109, ChangePercent: 1.8},
	}
	res := Score(in, config.DefaultConfig().Scoring)

	if res.Type != types.SignalPut {
		t.Fatalf("expected PUT, got %s (%s)", res.Type, res.Message)
	}
	if res.Confidence < 65 {
		t.Errorf("expected actionable confidence, got %d", res.Confidence)
	}
}

func TestScoreNeverActionableBelowGate(t *testing.T) {
	// Mild oversold reading against a death cross lands under the gate,
	// so the signal must come out NEUTRAL.
	in := Input{
		AssetType: types.AssetStock,
		Indicators: types.IndicatorSet{
			RSI:            30,
			MACD:           0,
			EMA50:          95,
			EMA200:         100,
			BollingerUpper: 110,
			BollingerLower: 90,
		},
		Quote: types.Quote{Price: 100},
	}
	res := Score(in, config.DefaultConfig().Scoring)

	if res.Type == types.SignalCall || res.Type == types.SignalPut {
		if res.Confidence < 65 {
			t.Fatalf("actionable %s at confidence %d below gate", res.Type, res.Confidence)
		}
	}
	if res.Type != types.SignalNeutral {
		t.Errorf("expected NEUTRAL, got %s at %d (%s)", res.Type, res.Confidence, res.Message)
	}
}

func TestScoreFlatStaysNeutral(t *testing.T) {
	in := Input{
		AssetType:  types.AssetStock,
		Indicators: flatIndicators(),
		Quote:      types.Quote{Price: 100},
	}
	res := Score(in, config.DefaultConfig().Scoring)
	if res.Type != types.SignalNeutral {
		t.Errorf("expected NEUTRAL for flat indicators, got %s", res.Type)
	}
}

func TestScoreBoundsProperty(t *testing.T) {
	w := config.DefaultConfig().Scoring

	// Adversarial grid: every combination of extremes should still land
	// inside the clamp and never put an actionable signal under the gate.
	rsis := []float64{0, 20, 30, 50, 70, 80, 100}
	macds := []float64{-3, -0.6, 0, 0.6, 3}
	prices := []float64{80, 100, 120}
	profiles := []types.AccuracyProfile{
		{},
		{TotalValidations: 20, Accuracy: 90, AvgAbsChange: 0.5, CallCount: 8, CallAccuracy: 90, PutCount: 8, PutAccuracy: 30},
		{TotalValidations: 20, Accuracy: 90, AvgAbsChange: 6, CallCount: 8, CallAccuracy: 20, PutCount: 8, PutAccuracy: 80},
	}

	for _, rsi := range rsis {
		for _, macd := range macds {
			for _, price := range prices {
				for _, prof := range profiles {
					for _, bullish := range []bool{true, false} {
						ema50, ema200 := 95.0, 100.0
						if bullish {
							ema50, ema200 = 100.0, 95.0
						}
						in := Input{
							AssetType: types.AssetStock,
							Indicators: types.IndicatorSet{
								RSI: rsi, MACD: macd,
								EMA50: ema50, EMA200: ema200,
								BollingerUpper: 110, BollingerLower: 90,
							},
							Quote:   types.Quote{Price: price},
							Context: Context{Profile: prof},
						}
						res := Score(in, w)
						if res.Type == types.SignalSkip {
							continue
						}
						if res.Confidence < w.ConfidenceMin || res.Confidence > w.ConfidenceMax {
							t.Fatalf("confidence %d outside [%d,%d] for rsi=%v macd=%v price=%v",
								res.Confidence, w.ConfidenceMin, w.ConfidenceMax, rsi, macd, price)
						}
						if (res.Type == types.SignalCall || res.Type == types.SignalPut) &&
							res.Confidence < w.ConfidenceGate {
							t.Fatalf("%s at confidence %d below gate %d for rsi=%v macd=%v",
								res.Type, res.Confidence, w.ConfidenceGate, rsi, macd)
						}
					}
				}
			}
		}
	}
}

func TestScoreIsPure(t *testing.T) {
	in := Input{
		AssetType: types.AssetStock,
		Indicators: types.IndicatorSet{
			RSI: 28, MACD: 0.7, EMA50: 102, EMA200: 100,
			BollingerUpper: 110, BollingerLower: 96,
		},
		Quote: types.Quote{Price: 96, ChangePercent: -1.2},
		Context: Context{
			SocialPosts: []types.SocialPost{
				{SentimentLabel: "bullish"},
				{SentimentLabel: "bullish"},
				{SentimentLabel: "bearish"},
			},
			Profile: types.AccuracyProfile{TotalValidations: 12, Accuracy: 60, AvgAbsChange: 2.5},
		},
	}
	w := config.DefaultConfig().Scoring

	first := Score(in, w)
	for i := 0; i < 5; i++ {
		if got := Score(in, w); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestSocialReinforcementNeedsAgreement(t *testing.T) {
	w := config.DefaultConfig().Scoring

	base := Input{
		AssetType: types.AssetStock,
		Indicators: types.IndicatorSet{
			RSI: 20, MACD: 0.8, EMA50: 105, EMA200: 100,
			BollingerUpper: 110, BollingerLower: 96,
		},
		Quote: types.Quote{Price: 100},
	}
	without := Score(base, w)

	agreeing := base
	agreeing.Context.SocialPosts = []types.SocialPost{
		{SentimentLabel: "bullish"},
		{SentimentLabel: "bullish"},
		{SentimentLabel: "bullish"},
	}
	with := Score(agreeing, w)

	if with.Confidence <= without.Confidence && without.Confidence < w.ConfidenceMax {
		t.Errorf("agreeing social consensus did not raise confidence: %d vs %d",
			with.Confidence, without.Confidence)
	}

	// Bearish consensus must never establish a PUT on a bullish card.
	opposing := base
	opposing.Context.SocialPosts = []types.SocialPost{
		{SentimentLabel: "bearish"},
		{SentimentLabel: "bearish"},
		{SentimentLabel: "bearish"},
	}
	against := Score(opposing, w)
	if against.Type != without.Type {
		t.Errorf("opposing social posts flipped signal from %s to %s", without.Type, against.Type)
	}
}

func TestNewsReinforcementTrustedSourceOnly(t *testing.T) {
	w := config.DefaultConfig().Scoring

	base := Input{
		AssetType: types.AssetStock,
		Indicators: types.IndicatorSet{
			RSI: 20, MACD: 0.8, EMA50: 105, EMA200: 100,
			BollingerUpper: 110, BollingerLower: 96,
		},
		Quote:         types.Quote{Price: 100},
		TrustedSource: "seeking_alpha",
	}
	without := Score(base, w)

	trusted := base
	trusted.Context.News = []types.NewsArticle{
		{Source: "seeking_alpha", NLP: &types.NLPAnalysis{TradingSignal: "buy"}},
	}
	withTrusted := Score(trusted, w)
	if withTrusted.Confidence <= without.Confidence && without.Confidence < w.ConfidenceMax {
		t.Errorf("trusted bullish coverage did not raise confidence")
	}

	untrusted := base
	untrusted.Context.News = []types.NewsArticle{
		{Source: "random_blog", NLP: &types.NLPAnalysis{TradingSignal: "buy"}},
	}
	withUntrusted := Score(untrusted, w)
	if withUntrusted.Confidence != without.Confidence {
		t.Errorf("untrusted coverage moved confidence: %d vs %d",
			withUntrusted.Confidence, without.Confidence)
	}
}

func TestLowVolatilityPenalty(t *testing.T) {
	w := config.DefaultConfig().Scoring

	in := Input{
		AssetType: types.AssetStock,
		Indicators: types.IndicatorSet{
			RSI: 20, MACD: 0.8, EMA50: 105, EMA200: 100,
			BollingerUpper: 110, BollingerLower: 96,
		},
		Quote: types.Quote{Price: 100},
	}
	strong := Score(in, w)

	quiet := in
	quiet.Context.Profile = types.AccuracyProfile{TotalValidations: 8, Accuracy: 50, AvgAbsChange: 0.8}
	damped := Score(quiet, w)

	if strong.Confidence < w.ConfidenceMax && damped.Confidence >= strong.Confidence {
		t.Errorf("low-volatility history did not damp confidence: %d vs %d",
			damped.Confidence, strong.Confidence)
	}
}
