package improve

import (
	"context"
	"strings"
	"testing"

	datafeed "github.com/fazecat/signalpulse/Internal/database"
	"github.com/fazecat/signalpulse/Internal/types"
)

func correlation(symbol string, sigType types.SignalType, confidence int, correct bool) datafeed.ValidatedCorrelation {
	return datafeed.ValidatedCorrelation{
		Symbol:     symbol,
		AssetType:  types.AssetStock,
		SignalType: sigType,
		Confidence: confidence,
		Correct:    correct,
	}
}

func TestNextVersion(t *testing.T) {
	tests := []struct {
		last string
		want string
	}{
		{"", "v1.0.0"},
		{"v1.0.0", "v1.1.0"},
		{"v1.9.0", "v1.10.0"},
		{"v2.3.0", "v2.4.0"},
		{"garbage", "v1.0.0"},
		{"v1.x.0", "v1.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.last, func(t *testing.T) {
			if got := NextVersion(tt.last); got != tt.want {
				t.Errorf("NextVersion(%q) = %q, want %q", tt.last, got, tt.want)
			}
		})
	}
}

func TestAnalyzeBreakdowns(t *testing.T) {
	sample := []datafeed.ValidatedCorrelation{
		correlation("AAPL", types.SignalCall, 85, true),
		correlation("AAPL", types.SignalCall, 82, true),
		correlation("AAPL", types.SignalCall, 88, true),
		correlation("SPY", types.SignalPut, 70, false),
		correlation("SPY", types.SignalPut, 72, false),
		correlation("SPY", types.SignalPut, 68, false),
		correlation("GLD", types.SignalNeutral, 50, true),
		correlation("GLD", types.SignalNeutral, 55, false),
		correlation("GLD", types.SignalNeutral, 52, true),
		correlation("MSFT", types.SignalCall, 90, true),
	}

	r := Analyze(sample)

	if r.Sample != 10 {
		t.Fatalf("sample = %d, want 10", r.Sample)
	}
	if r.Overall.Correct != 6 || r.Overall.Accuracy != 60 {
		t.Errorf("overall = %+v, want 6 correct at 60%%", r.Overall)
	}
	if call := r.ByType["CALL"]; call.Count != 4 || call.Accuracy != 100 {
		t.Errorf("CALL = %+v, want 4 at 100%%", call)
	}
	if put := r.ByType["PUT"]; put.Count != 3 || put.Accuracy != 0 {
		t.Errorf("PUT = %+v, want 3 at 0%%", put)
	}
	if high := r.ByConfidence["high"]; high.Count != 4 {
		t.Errorf("high bucket count = %d, want 4", high.Count)
	}
	if low := r.ByConfidence["low"]; low.Count != 3 {
		t.Errorf("low bucket count = %d, want 3", low.Count)
	}

	// MSFT has one sample and must not be ranked.
	for _, a := range append(r.BestAssets, r.WorstAssets...) {
		if a.Symbol == "MSFT" {
			t.Error("single-sample asset should not appear in rankings")
		}
	}
	if len(r.BestAssets) == 0 || r.BestAssets[0].Symbol != "AAPL" {
		t.Errorf("best assets = %+v, want AAPL first", r.BestAssets)
	}
	if len(r.WorstAssets) == 0 || r.WorstAssets[0].Symbol != "SPY" {
		t.Errorf("worst assets = %+v, want SPY first", r.WorstAssets)
	}
}

func TestAnalyzeRecommendations(t *testing.T) {
	// All PUTs wrong, SPY deep underwater: both rules should fire.
	sample := []datafeed.ValidatedCorrelation{}
	for i := 0; i < 6; i++ {
		sample = append(sample, correlation("SPY", types.SignalPut, 70, false))
	}
	for i := 0; i < 6; i++ {
		sample = append(sample, correlation("AAPL", types.SignalCall, 85, true))
	}

	r := Analyze(sample)
	joined := strings.Join(r.Recommendations, "\n")
	if !strings.Contains(joined, "PUT signals validate") {
		t.Errorf("expected a PUT damping recommendation, got: %s", joined)
	}
	if !strings.Contains(joined, "SPY") {
		t.Errorf("expected a skip-list recommendation for SPY, got: %s", joined)
	}
}

func TestAnalyzeHealthyRecordGetsKeepRecommendation(t *testing.T) {
	sample := []datafeed.ValidatedCorrelation{}
	for i := 0; i < 12; i++ {
		sample = append(sample, correlation("AAPL", types.SignalCall, 85, true))
	}
	r := Analyze(sample)
	if len(r.Recommendations) != 1 || !strings.Contains(r.Recommendations[0], "keep current weights") {
		t.Errorf("expected the keep-weights recommendation, got %v", r.Recommendations)
	}
}

type fakeStore struct {
	correlations []datafeed.ValidatedCorrelation
	lastVersion  string
	stored       []string
}

func (f *fakeStore) RecentValidatedCorrelations(_ context.Context, limit int) ([]datafeed.ValidatedCorrelation, error) {
	if len(f.correlations) > limit {
		return f.correlations[:limit], nil
	}
	return f.correlations, nil
}

func (f *fakeStore) LastImprovementVersion(_ context.Context) (string, error) {
	return f.lastVersion, nil
}

func (f *fakeStore) InsertImprovement(_ context.Context, version string, _ float64, _ string, _ string) error {
	f.stored = append(f.stored, version)
	return nil
}

func TestRunRequiresMinimumSample(t *testing.T) {
	store := &fakeStore{
		correlations: []datafeed.ValidatedCorrelation{
			correlation("AAPL", types.SignalCall, 85, true),
		},
	}
	if _, err := New(store).Run(context.Background()); err == nil {
		t.Fatal("expected error below the minimum sample")
	}
	if len(store.stored) != 0 {
		t.Error("nothing should be persisted below the minimum sample")
	}
}

func TestRunPersistsVersionedReport(t *testing.T) {
	store := &fakeStore{lastVersion: "v1.2.0"}
	for i := 0; i < 20; i++ {
		store.correlations = append(store.correlations, correlation("AAPL", types.SignalCall, 85, i%2 == 0))
	}

	r, err := New(store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.Version != "v1.3.0" {
		t.Errorf("version = %s, want v1.3.0", r.Version)
	}
	if len(store.stored) != 1 || store.stored[0] != "v1.3.0" {
		t.Errorf("stored versions = %v", store.stored)
	}
}
