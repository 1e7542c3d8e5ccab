package strategy

import (
	"fmt"
	"strings"

	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils/config"
)

// Rule trigger levels. The point values they award live in
// config.ScoringWeights; these are the activation thresholds.
const (
	RSIOversoldStrongMax   = 25.0
	RSIOversoldMildMax     = 35.0
	RSIOverboughtStrongMin = 75.0
	RSIOverboughtMildMin   = 65.0

	MACDMinStrength = 0.5

	SocialNetMin = 2
	NewsAvgMin   = 0.5

	HistorySkewGapMin = 10.0
	LowVolatilityMax  = 1.5
)

// Input is everything the scorer may look at. Score is a pure function of
// this value and the weight table.
type Input struct {
	AssetType     types.AssetType
	Indicators    types.IndicatorSet
	Quote         types.Quote
	Context       Context
	TrustedSource string
}

type Result struct {
	Type       types.SignalType `json:"type"`
	Confidence int              `json:"confidence"`
	Price      float64          `json:"price"`
	Change     float64          `json:"change"`
	Message    string           `json:"message"`
	SkipReason string           `json:"skip_reason,omitempty"`
}

// regime is the market context computed once per call and passed to every
// rule. CALLs validate far better than PUTs when the long EMAs align upward,
// so the bullish flag damps PUT scoring throughout.
type regime struct {
	bullish bool
}

type scorecard struct {
	signal     types.SignalType
	confidence int
	reasons    []string
}

func (sc *scorecard) note(format string, args ...interface{}) {
	sc.reasons = append(sc.reasons, fmt.Sprintf(format, args...))
}

// Score turns one indicator snapshot plus market and sentiment context into
// a directional signal with a bounded confidence.
func Score(in Input, w config.ScoringWeights) Result {
	// Hard skip gates come first.
	if in.AssetType == types.AssetCrypto {
		return Result{
			Type:       types.SignalSkip,
			Price:      in.Quote.Price,
			Change:     in.Quote.ChangePercent,
			SkipReason: "crypto assets are excluded: historical predictability is poor",
		}
	}
	if in.Context.Profile.TotalValidations >= w.SkipMinValidations &&
		in.Context.Profile.Accuracy < w.SkipAccuracyBelow {
		return Result{
			Type:   types.SignalSkip,
			Price:  in.Quote.Price,
			Change: in.Quote.ChangePercent,
			SkipReason: fmt.Sprintf("historical accuracy %.1f%% over %d validations is below the %.0f%% floor",
				in.Context.Profile.Accuracy, in.Context.Profile.TotalValidations, w.SkipAccuracyBelow),
		}
	}

	reg := regime{bullish: in.Indicators.EMA50 > in.Indicators.EMA200}

	sc := scorecard{signal: types.SignalNeutral, confidence: w.Base}

	if reg.bullish {
		sc.confidence += w.MarketBias
		sc.note("Market in bullish regime.")
	}

	applyRSI(&sc, in.Indicators.RSI, w)
	applyMACD(&sc, in.Indicators.MACD, reg, w)
	applyEMACross(&sc, reg, w)
	applyBollinger(&sc, in.Quote.Price, in.Indicators, reg, w)
	applySocial(&sc, in.Context.SocialPosts, w)
	applyNews(&sc, in.Context.News, in.TrustedSource, w)
	applyHistory(&sc, in.Context.Profile, w)
	applyContradiction(&sc, in.Indicators.MACD, w)

	// Natural NEUTRALs resolve by confidence level, tilting toward CALL in
	// a bullish regime.
	if sc.signal == types.SignalNeutral {
		switch {
		case sc.confidence > w.TieBreakCallAbove:
			sc.signal = types.SignalCall
		case sc.confidence < w.TieBreakPutBelow:
			sc.signal = types.SignalPut
		case reg.bullish:
			sc.signal = types.SignalCall
		}
	}

	// Don't call a trade we're not sure about.
	if sc.signal != types.SignalNeutral && sc.confidence < w.ConfidenceGate {
		sc.signal = types.SignalNeutral
		sc.note("Confidence below actionable floor, holding neutral.")
	}

	if sc.confidence > w.ConfidenceMax {
		sc.confidence = w.ConfidenceMax
	}
	if sc.confidence < w.ConfidenceMin {
		sc.confidence = w.ConfidenceMin
	}

	return Result{
		Type:       sc.signal,
		Confidence: sc.confidence,
		Price:      in.Quote.Price,
		Change:     in.Quote.ChangePercent,
		Message:    strings.Join(sc.reasons, " "),
	}
}

func applyRSI(sc *scorecard, rsi float64, w config.ScoringWeights) {
	switch {
	case rsi < RSIOversoldStrongMax:
		sc.signal = types.SignalCall
		sc.confidence += w.RSIOversoldStrong
		sc.note("RSI %.1f strongly oversold.", rsi)
	case rsi < RSIOversoldMildMax:
		if sc.signal == types.SignalNeutral {
			sc.signal = types.SignalCall
			sc.confidence += w.RSIOversoldMild
			sc.note("RSI %.1f mildly oversold.", rsi)
		}
	case rsi > RSIOverboughtStrongMin:
		sc.signal = types.SignalPut
		sc.confidence += w.RSIOverboughtStrong
		sc.note("RSI %.1f strongly overbought.", rsi)
	case rsi > RSIOverboughtMildMin:
		if sc.signal == types.SignalNeutral {
			sc.signal = types.SignalPut
			sc.confidence += w.RSIOverboughtMild
			sc.note("RSI %.1f mildly overbought.", rsi)
		}
	}
}

func applyMACD(sc *scorecard, macd float64, reg regime, w config.ScoringWeights) {
	if macd > -MACDMinStrength && macd < MACDMinStrength {
		return
	}

	if macd > 0 {
		switch sc.signal {
		case types.SignalCall:
			sc.confidence += w.MACDReinforce
		case types.SignalNeutral:
			sc.signal = types.SignalCall
			sc.confidence += w.MACDEstablish
		}
		sc.note("MACD %.2f positive.", macd)
		return
	}

	// Bearish MACD: PUT points are damped in a bullish regime.
	reinforce, establish := w.MACDReinforce, w.MACDEstablish
	if reg.bullish {
		reinforce, establish = w.MACDPutReinforceBullish, w.MACDPutEstablishBullish
	}
	switch sc.signal {
	case types.SignalPut:
		sc.confidence += reinforce
	case types.SignalNeutral:
		sc.signal = types.SignalPut
		sc.confidence += establish
	}
	sc.note("MACD %.2f negative.", macd)
}

func applyEMACross(sc *scorecard, reg regime, w config.ScoringWeights) {
	if reg.bullish {
		switch sc.signal {
		case types.SignalCall:
			sc.confidence += w.EMACrossAligned
			sc.note("Golden cross active.")
		case types.SignalPut:
			sc.confidence -= w.EMACrossOpposed
			sc.note("PUT against golden cross.")
		}
		return
	}

	switch sc.signal {
	case types.SignalPut:
		sc.confidence += w.EMACrossAligned
		sc.note("Death cross active.")
	case types.SignalCall:
		sc.confidence -= w.EMACrossOpposed
		sc.note("CALL against death cross.")
	}
}

func applyBollinger(sc *scorecard, price float64, ind types.IndicatorSet, reg regime, w config.ScoringWeights) {
	if price <= ind.BollingerLower && price > 0 {
		switch sc.signal {
		case types.SignalCall:
			sc.confidence += w.BollingerReinforce
		case types.SignalNeutral:
			sc.signal = types.SignalCall
			sc.confidence += w.BollingerEstablish
		}
		sc.note("Price at lower Bollinger band.")
		return
	}

	if price >= ind.BollingerUpper && ind.BollingerUpper > 0 {
		reinforce, establish := w.BollingerReinforce, w.BollingerEstablish
		if reg.bullish {
			reinforce, establish = w.BollingerPutReinforceBullish, w.BollingerPutEstablishBullish
		}
		switch sc.signal {
		case types.SignalPut:
			sc.confidence += reinforce
		case types.SignalNeutral:
			sc.signal = types.SignalPut
			sc.confidence += establish
		}
		sc.note("Price at upper Bollinger band.")
	}
}

// applySocial adds a small reinforcement when the reliable-influencer
// consensus clearly agrees with the signal already on the card. Social
// sentiment never establishes a direction on its own.
func applySocial(sc *scorecard, posts []types.SocialPost, w config.ScoringWeights) {
	if len(posts) == 0 {
		return
	}

	var bullish, bearish int
	for _, p := range posts {
		switch p.SentimentLabel {
		case "bullish":
			bullish++
		case "bearish":
			bearish++
		}
	}

	net := bullish - bearish
	if net >= SocialNetMin && sc.signal == types.SignalCall {
		sc.confidence += w.SocialReinforce
		sc.note("Reliable influencers net bullish (%d).", net)
	} else if net <= -SocialNetMin && sc.signal == types.SignalPut {
		sc.confidence += w.SocialReinforce
		sc.note("Reliable influencers net bearish (%d).", -net)
	}
}

// applyNews averages the structured trading calls from professionally
// analyzed articles. Reinforcement only, same as social.
func applyNews(sc *scorecard, news []types.NewsArticle, trustedSource string, w config.ScoringWeights) {
	var sum, count float64
	for _, a := range news {
		if a.NLP == nil || a.Source != trustedSource {
			continue
		}
		switch a.NLP.TradingSignal {
		case "buy":
			sum++
		case "sell":
			sum--
		default:
			continue
		}
		count++
	}
	if count == 0 {
		return
	}

	avg := sum / count
	if avg > NewsAvgMin && sc.signal == types.SignalCall {
		sc.confidence += w.NewsReinforce
		sc.note("Professional coverage bullish.")
	} else if avg < -NewsAvgMin && sc.signal == types.SignalPut {
		sc.confidence += w.NewsReinforce
		sc.note("Professional coverage bearish.")
	}
}

func applyHistory(sc *scorecard, profile types.AccuracyProfile, w config.ScoringWeights) {
	if profile.CallCount > 0 && profile.PutCount > 0 {
		gap := profile.CallAccuracy - profile.PutAccuracy
		if gap > HistorySkewGapMin {
			switch sc.signal {
			case types.SignalCall:
				sc.confidence += w.HistorySkew
				sc.note("Asset historically favors CALLs.")
			case types.SignalPut:
				sc.confidence -= w.HistorySkew
				sc.note("Asset historically punishes PUTs.")
			}
		} else if gap < -HistorySkewGapMin {
			switch sc.signal {
			case types.SignalPut:
				sc.confidence += w.HistorySkew
				sc.note("Asset historically favors PUTs.")
			case types.SignalCall:
				sc.confidence -= w.HistorySkew
				sc.note("Asset historically punishes CALLs.")
			}
		}
	}

	if profile.TotalValidations > 0 && profile.AvgAbsChange < LowVolatilityMax &&
		sc.signal != types.SignalNeutral {
		sc.confidence -= w.LowVolatilityPenalty
		sc.note("Low-volatility asset, directional calls rarely confirm.")
	}
}

// applyContradiction penalizes a signal that momentum directly opposes,
// even after other factors set the direction.
func applyContradiction(sc *scorecard, macd float64, w config.ScoringWeights) {
	if sc.signal == types.SignalCall && macd < -MACDMinStrength {
		sc.confidence -= w.ContradictionPenalty
		sc.note("Warning: bearish momentum against CALL.")
	} else if sc.signal == types.SignalPut && macd > MACDMinStrength {
		sc.confidence -= w.ContradictionPenalty
		sc.note("Warning: bullish momentum against PUT.")
	}
}
