// Package improve analyzes the trailing validation record and produces a
// versioned report of where the algorithm is weak, with rule-derived
// recommendations.
package improve

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	datafeed "github.com/fazecat/signalpulse/Internal/database"
)

const (
	// SampleSize is how many recent correlations feed one analysis.
	SampleSize = 100
	// MinSample is the floor below which an analysis is meaningless.
	MinSample = 10
	// minAssetSample is the per-asset floor for best/worst ranking.
	minAssetSample = 3
)

// Store is the datastore slice the analyzer needs.
type Store interface {
	RecentValidatedCorrelations(ctx context.Context, limit int) ([]datafeed.ValidatedCorrelation, error)
	LastImprovementVersion(ctx context.Context) (string, error)
	InsertImprovement(ctx context.Context, version string, accuracyBefore float64, metricsJSON string, recommendations string) error
}

// TypeAccuracy is the hit rate for one signal type.
type TypeAccuracy struct {
	Count    int     `json:"count"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Report is one improvement analysis over the trailing sample.
type Report struct {
	Version         string                  `json:"version"`
	Sample          int                     `json:"sample"`
	Overall         TypeAccuracy            `json:"overall"`
	ByType          map[string]TypeAccuracy `json:"by_type"`
	ByConfidence    map[string]TypeAccuracy `json:"by_confidence"`
	BestAssets      []AssetAccuracy         `json:"best_assets"`
	WorstAssets     []AssetAccuracy         `json:"worst_assets"`
	Recommendations []string                `json:"recommendations"`
}

type AssetAccuracy struct {
	Symbol   string  `json:"symbol"`
	Count    int     `json:"count"`
	Accuracy float64 `json:"accuracy"`
}

type Analyzer struct {
	Store Store
}

func New(store Store) *Analyzer {
	return &Analyzer{Store: store}
}

// Run analyzes the recent validation record, persists a versioned report and
// returns it. It fails when fewer than MinSample validations exist.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	correlations, err := a.Store.RecentValidatedCorrelations(ctx, SampleSize)
	if err != nil {
		return nil, err
	}
	if len(correlations) < MinSample {
		return nil, fmt.Errorf("need at least %d validations to analyze, have %d", MinSample, len(correlations))
	}

	report := Analyze(correlations)

	last, err := a.Store.LastImprovementVersion(ctx)
	if err != nil {
		return nil, err
	}
	report.Version = NextVersion(last)

	metricsJSON, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	recs := strings.Join(report.Recommendations, "\n")
	if err := a.Store.InsertImprovement(ctx, report.Version, report.Overall.Accuracy, string(metricsJSON), recs); err != nil {
		return nil, err
	}
	log.Printf("Stored improvement report %s over %d validations (accuracy %.1f%%)",
		report.Version, report.Sample, report.Overall.Accuracy)

	return report, nil
}

// Analyze computes the accuracy breakdowns and recommendations. Pure.
func Analyze(correlations []datafeed.ValidatedCorrelation) *Report {
	report := &Report{
		Sample:       len(correlations),
		ByType:       map[string]TypeAccuracy{},
		ByConfidence: map[string]TypeAccuracy{},
	}

	perAsset := map[string]*TypeAccuracy{}
	for _, c := range correlations {
		tally(&report.Overall, c.Correct)

		byType := report.ByType[string(c.SignalType)]
		tally(&byType, c.Correct)
		report.ByType[string(c.SignalType)] = byType

		bucket := confidenceBucket(c.Confidence)
		byConf := report.ByConfidence[bucket]
		tally(&byConf, c.Correct)
		report.ByConfidence[bucket] = byConf

		asset := perAsset[c.Symbol]
		if asset == nil {
			asset = &TypeAccuracy{}
			perAsset[c.Symbol] = asset
		}
		tally(asset, c.Correct)
	}

	ranked := []AssetAccuracy{}
	for symbol, acc := range perAsset {
		if acc.Count < minAssetSample {
			continue
		}
		ranked = append(ranked, AssetAccuracy{Symbol: symbol, Count: acc.Count, Accuracy: acc.Accuracy})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Accuracy != ranked[j].Accuracy {
			return ranked[i].Accuracy > ranked[j].Accuracy
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	if len(ranked) > 0 {
		top := ranked
		if len(top) > 3 {
			top = top[:3]
		}
		report.BestAssets = append(report.BestAssets, top...)

		bottom := ranked
		if len(bottom) > 3 {
			bottom = bottom[len(bottom)-3:]
		}
		worst := make([]AssetAccuracy, len(bottom))
		for i, a := range bottom {
			worst[len(bottom)-1-i] = a
		}
		report.WorstAssets = worst
	}

	report.Recommendations = recommend(report)
	return report
}

func tally(acc *TypeAccuracy, correct bool) {
	acc.Count++
	if correct {
		acc.Correct++
	}
	acc.Accuracy = float64(acc.Correct) / float64(acc.Count) * 100
}

func confidenceBucket(confidence int) string {
	switch {
	case confidence >= 80:
		return "high"
	case confidence >= 60:
		return "medium"
	default:
		return "low"
	}
}

// recommend derives concrete tuning suggestions from the breakdowns.
func recommend(r *Report) []string {
	recs := []string{}

	if r.Overall.Accuracy < 50 {
		recs = append(recs, fmt.Sprintf(
			"Overall accuracy %.1f%% is below coin-flip; tighten the confidence gate or raise rule thresholds.",
			r.Overall.Accuracy))
	}

	for _, signalType := range []string{"CALL", "PUT", "NEUTRAL"} {
		acc, ok := r.ByType[signalType]
		if !ok || acc.Count < minAssetSample {
			continue
		}
		if acc.Accuracy < 40 {
			recs = append(recs, fmt.Sprintf(
				"%s signals validate at %.1f%% over %d samples; consider damping the rules that establish them.",
				signalType, acc.Accuracy, acc.Count))
		}
	}

	if high, ok := r.ByConfidence["high"]; ok {
		if low, ok := r.ByConfidence["low"]; ok && high.Count >= minAssetSample && low.Count >= minAssetSample {
			if high.Accuracy <= low.Accuracy {
				recs = append(recs, "High-confidence signals do not outperform low-confidence ones; the point weights are not discriminating.")
			}
		}
	}

	for _, a := range r.WorstAssets {
		if a.Accuracy < 30 {
			recs = append(recs, fmt.Sprintf(
				"%s validates at %.1f%% over %d samples; it is a candidate for the skip list.",
				a.Symbol, a.Accuracy, a.Count))
		}
	}

	if len(recs) == 0 {
		recs = append(recs, fmt.Sprintf("No weak spots found over %d validations; keep current weights.", r.Sample))
	}
	return recs
}

// NextVersion bumps the minor component of a vMAJOR.MINOR.PATCH version
// string. An empty or malformed last version starts the sequence over.
func NextVersion(last string) string {
	const first = "v1.0.0"
	if !strings.HasPrefix(last, "v") {
		return first
	}
	parts := strings.Split(strings.TrimPrefix(last, "v"), ".")
	if len(parts) != 3 {
		return first
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return first
	}
	return fmt.Sprintf("v%d.%d.0", major, minor+1)
}
