package types

import "time"

type AssetType string

const (
	AssetStock     AssetType = "stock"
	AssetETF       AssetType = "etf"
	AssetCrypto    AssetType = "crypto"
	AssetCommodity AssetType = "commodity"
)

type SignalType string

const (
	SignalCall    SignalType = "CALL"
	SignalPut     SignalType = "PUT"
	SignalNeutral SignalType = "NEUTRAL"
	SignalSkip    SignalType = "SKIP"
)

type Asset struct {
	ID     string    `json:"id"`
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Type   AssetType `json:"type"`
	Active bool      `json:"active"`
}

type Candle struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type Quote struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PrevClose     float64 `json:"prev_close"`
}

type IndicatorSet struct {
	RSI            float64 `json:"rsi"`
	MACD           float64 `json:"macd"`
	EMA50          float64 `json:"ema_50"`
	EMA200         float64 `json:"ema_200"`
	BollingerUpper float64 `json:"bollinger_upper"`
	BollingerLower float64 `json:"bollinger_lower"`
	ATR            float64 `json:"atr"`
	Volume         int64   `json:"volume"`
	OBVChange      float64 `json:"obv_change"`
}

type Signal struct {
	ID            string     `json:"id"`
	AssetID       string     `json:"asset_id"`
	Symbol        string     `json:"symbol,omitempty"`
	AssetType     AssetType  `json:"asset_type,omitempty"`
	Type          SignalType `json:"signal"`
	Confidence    int        `json:"confidence"`
	Price         float64    `json:"price"`
	ChangePercent float64    `json:"change_percent"`
	Validated     bool       `json:"validated"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Alert struct {
	ID         string     `json:"id"`
	AssetID    string     `json:"asset_id"`
	SignalType SignalType `json:"signal_type"`
	Message    string     `json:"message"`
	Confidence int        `json:"confidence"`
	Read       bool       `json:"read"`
	CreatedAt  time.Time  `json:"created_at"`
}

type Influencer struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Handle             string  `json:"handle"`
	Platform           string  `json:"platform"`
	Followers          int64   `json:"followers"`
	InfluenceScore     float64 `json:"influence_score"`
	AccuracyScore      float64 `json:"accuracy_score"`
	TotalPredictions   int     `json:"total_predictions"`
	CorrectPredictions int     `json:"correct_predictions"`
}

type SocialPost struct {
	ID             string    `json:"id"`
	InfluencerID   string    `json:"influencer_id"`
	AssetID        string    `json:"asset_id,omitempty"`
	Content        string    `json:"content"`
	SentimentLabel string    `json:"sentiment_label"`
	SentimentScore float64   `json:"sentiment_score"`
	UrgencyLevel   string    `json:"urgency_level"`
	PostedAt       time.Time `json:"posted_at"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// NLPAnalysis is the structured judgement attached to professionally
// analyzed articles. TradingSignal is one of buy/sell/hold.
type NLPAnalysis struct {
	SentimentDetailed string   `json:"sentiment_detailed"`
	Category          string   `json:"category"`
	TradingSignal     string   `json:"trading_signal"`
	MarketImpact      string   `json:"market_impact"`
	Entities          []string `json:"entities,omitempty"`
}

type NewsArticle struct {
	ID             string       `json:"id"`
	AssetID        string       `json:"asset_id,omitempty"`
	Headline       string       `json:"headline"`
	Summary        string       `json:"summary"`
	Source         string       `json:"source"`
	URL            string       `json:"url"`
	SentimentLabel string       `json:"sentiment_label"`
	SentimentScore float64      `json:"sentiment_score"`
	RelevanceScore float64      `json:"relevance_score"`
	NLP            *NLPAnalysis `json:"nlp_analysis,omitempty"`
	Category       string       `json:"category"`
	PublishedAt    time.Time    `json:"published_at"`
}

type PriceCorrelation struct {
	ID               string     `json:"id"`
	PostID           string     `json:"post_id,omitempty"`
	AssetID          string     `json:"asset_id"`
	PriceBefore      float64    `json:"price_before"`
	PriceAfter       float64    `json:"price_after"`
	ChangePercent    float64    `json:"price_change_percent"`
	Correct          bool       `json:"prediction_correct"`
	SignalType       SignalType `json:"signal_type"`
	SignalConfidence int        `json:"signal_confidence"`
	TimeToImpactHrs  int        `json:"time_to_impact_hours"`
	MeasuredAt       time.Time  `json:"measured_at"`
}

// AccuracyProfile is an asset's trailing validation record, built from its
// most recent correlations.
type AccuracyProfile struct {
	TotalValidations int     `json:"total_validations"`
	Accuracy         float64 `json:"accuracy"`
	AvgAbsChange     float64 `json:"avg_abs_change"`
	CallCount        int     `json:"call_count"`
	CallAccuracy     float64 `json:"call_accuracy"`
	PutCount         int     `json:"put_count"`
	PutAccuracy      float64 `json:"put_accuracy"`
}

const (
	VolatilityLowMax  = 2.0
	VolatilityHighMin = 5.0
)

// VolatilityBucket classifies the asset's average validated move.
func (p AccuracyProfile) VolatilityBucket() string {
	switch {
	case p.AvgAbsChange < VolatilityLowMax:
		return "low"
	case p.AvgAbsChange > VolatilityHighMin:
		return "high"
	default:
		return "medium"
	}
}
