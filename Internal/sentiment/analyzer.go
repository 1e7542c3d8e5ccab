// Package sentiment scores financial text with a weighted keyword lexicon and
// returns the structured judgement the rest of the system consumes: label,
// score in [-1,1], urgency level and a short reasoning string.
package sentiment

import (
	"fmt"
	"strings"
)

const (
	LabelBullish = "bullish"
	LabelBearish = "bearish"
	LabelNeutral = "neutral"
)

const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

type Analysis struct {
	Label     string  `json:"sentiment_label"`
	Score     float64 `json:"sentiment_score"`
	Urgency   string  `json:"urgency_level"`
	Reasoning string  `json:"reasoning"`
}

type Analyzer struct {
	bullishWords map[string]float64
	bearishWords map[string]float64
	urgencyWords map[string]string
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		bullishWords: map[string]float64{
			// Strong bullish (0.9-1.0)
			"surge": 1.0, "soar": 1.0, "skyrocket": 1.0, "breakthrough": 1.0,
			"bullish": 0.95, "rally": 0.95, "boom": 0.95, "explode": 0.95,
			"rocket": 0.9, "moon": 0.9, "outperform": 0.9, "breakout": 0.9,

			// Moderate bullish (0.7-0.89)
			"beat": 0.85, "exceed": 0.85, "upgrade": 0.85, "optimistic": 0.85,
			"profit": 0.8, "growth": 0.8, "gain": 0.8, "jump": 0.8,
			"strong": 0.8, "boost": 0.8, "accumulate": 0.8, "win": 0.8,
			"improve": 0.75, "rising": 0.75, "advance": 0.75, "climb": 0.75,
			"momentum": 0.75, "upside": 0.75, "undervalued": 0.75,
			"recover": 0.7, "rebound": 0.7, "buy": 0.7, "long": 0.7,

			// Mild bullish (0.5-0.69)
			"positive": 0.65, "rise": 0.65, "higher": 0.65, "increase": 0.65,
			"better": 0.65, "good": 0.65, "solid": 0.65, "confident": 0.65,
			"opportunity": 0.6, "potential": 0.6, "promising": 0.6,
			"support": 0.6, "resilient": 0.6, "steady": 0.6,
			"healthy": 0.55, "buying": 0.55, "hold": 0.5, "stable": 0.5,
		},
		bearishWords: map[string]float64{
			// Strong bearish (0.9-1.0)
			"crash": 1.0, "plunge": 1.0, "collapse": 1.0, "devastate": 1.0,
			"catastrophic": 1.0, "disaster": 1.0, "crisis": 0.95, "bankruptcy": 0.95,
			"plummet": 0.95, "tumble": 0.95, "rout": 0.95, "capitulation": 0.95,
			"hammered": 0.9, "panic": 0.9, "meltdown": 0.9, "worst": 0.9,

			// Moderate bearish (0.7-0.89)
			"bearish": 0.85, "downgrade": 0.85, "warning": 0.85, "alert": 0.85,
			"lawsuit": 0.85, "scrutiny": 0.85, "short": 0.8, "dump": 0.8,
			"miss": 0.8, "loss": 0.8, "losses": 0.8, "slump": 0.8,
			"decline": 0.8, "deteriorate": 0.8, "underperform": 0.8, "fail": 0.8,
			"struggle": 0.75, "weak": 0.75, "weakness": 0.75, "sell": 0.75,
			"drop": 0.75, "fall": 0.75, "falling": 0.75, "overvalued": 0.75,
			"concern": 0.7, "worry": 0.7, "disappoint": 0.7, "uncertain": 0.7,

			// Mild bearish (0.5-0.69)
			"problem": 0.65, "issue": 0.65, "risk": 0.65, "volatile": 0.65,
			"uncertainty": 0.65, "doubt": 0.65, "threat": 0.65,
			"pressure": 0.6, "challenge": 0.6, "lower": 0.6, "below": 0.6,
			"negative": 0.6, "poor": 0.6, "slowdown": 0.6, "hurt": 0.6,
			"dip": 0.55, "slip": 0.55, "retreat": 0.55, "caution": 0.55,
			"correction": 0.5, "pullback": 0.5, "cut": 0.5, "headwind": 0.5,
		},
		urgencyWords: map[string]string{
			"now":         UrgencyHigh,
			"today":       UrgencyHigh,
			"urgent":      UrgencyCritical,
			"immediately": UrgencyCritical,
			"breaking":    UrgencyCritical,
			"alert":       UrgencyHigh,
			"soon":        UrgencyMedium,
			"week":        UrgencyMedium,
			"imminent":    UrgencyCritical,
			"halted":      UrgencyCritical,
		},
	}
}

// Analyze scores a piece of text. Deterministic, never fails; empty or
// unknown text comes back neutral/low.
func (a *Analyzer) Analyze(text string) Analysis {
	lowered := strings.ToLower(text)
	words := strings.Fields(lowered)

	var score float64
	var matches int
	var bullishHits, bearishHits []string
	urgency := UrgencyLow

	for _, word := range words {
		word = strings.Trim(word, ".,!?\"'()[]{}:;#$")

		if val, ok := a.bullishWords[word]; ok {
			score += val
			matches++
			bullishHits = append(bullishHits, word)
		} else if val, ok := a.bearishWords[word]; ok {
			score -= val
			matches++
			bearishHits = append(bearishHits, word)
		}

		if level, ok := a.urgencyWords[word]; ok {
			urgency = maxUrgency(urgency, level)
		}
	}

	if matches > 0 {
		score /= float64(matches)
	}

	label := LabelNeutral
	if score > 0.1 {
		label = LabelBullish
	} else if score < -0.1 {
		label = LabelBearish
	}

	// Strong one-sided signals raise urgency a notch.
	if urgency == UrgencyLow && (score > 0.8 || score < -0.8) {
		urgency = UrgencyMedium
	}

	return Analysis{
		Label:     label,
		Score:     score,
		Urgency:   urgency,
		Reasoning: buildReasoning(label, bullishHits, bearishHits),
	}
}

var urgencyRank = map[string]int{
	UrgencyLow:      0,
	UrgencyMedium:   1,
	UrgencyHigh:     2,
	UrgencyCritical: 3,
}

func maxUrgency(a, b string) string {
	if urgencyRank[b] > urgencyRank[a] {
		return b
	}
	return a
}

func buildReasoning(label string, bullish, bearish []string) string {
	if len(bullish) == 0 && len(bearish) == 0 {
		return "no sentiment-bearing terms found"
	}

	parts := []string{}
	if len(bullish) > 0 {
		parts = append(parts, fmt.Sprintf("bullish terms: %s", strings.Join(dedupe(bullish, 5), ", ")))
	}
	if len(bearish) > 0 {
		parts = append(parts, fmt.Sprintf("bearish terms: %s", strings.Join(dedupe(bearish, 5), ", ")))
	}

	return fmt.Sprintf("%s: %s", label, strings.Join(parts, "; "))
}

func dedupe(words []string, limit int) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}
	return out
}
