package sentiment

import "testing"

func TestAnalyze(t *testing.T) {
	analyzer := NewAnalyzer()

	tests := []struct {
		name        string
		text        string
		wantLabel   string
		wantUrgency string
	}{
		{
			name:        "strongly bullish post",
			text:        "TSLA about to surge, breakout confirmed, very bullish",
			wantLabel:   LabelBullish,
			wantUrgency: UrgencyMedium,
		},
		{
			name:        "strongly bearish post",
			text:        "This stock will crash, total collapse imminent",
			wantLabel:   LabelBearish,
			wantUrgency: UrgencyCritical,
		},
		{
			name:        "neutral text",
			text:        "The company announced its quarterly report date",
			wantLabel:   LabelNeutral,
			wantUrgency: UrgencyLow,
		},
		{
			name:        "mixed signals cancel out",
			text:        "profit growth but falling sales and decline in guidance",
			wantLabel:   LabelNeutral,
			wantUrgency: UrgencyLow,
		},
		{
			name:        "urgency keyword without sentiment",
			text:        "breaking: trading schedule update",
			wantLabel:   LabelNeutral,
			wantUrgency: UrgencyCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzer.Analyze(tt.text)

			if got.Label != tt.wantLabel {
				t.Errorf("Analyze() label = %s, want %s", got.Label, tt.wantLabel)
			}
			if got.Urgency != tt.wantUrgency {
				t.Errorf("Analyze() urgency = %s, want %s", got.Urgency, tt.wantUrgency)
			}
			if got.Score < -1.0 || got.Score > 1.0 {
				t.Errorf("Analyze() score out of range: %f", got.Score)
			}
			if got.Reasoning == "" {
				t.Errorf("Analyze() reasoning should never be empty")
			}
		})
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	analyzer := NewAnalyzer()
	text := "massive rally expected, upgrade to buy"

	first := analyzer.Analyze(text)
	for i := 0; i < 5; i++ {
		if got := analyzer.Analyze(text); got != first {
			t.Fatalf("Analyze not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	got := NewAnalyzer().Analyze("")
	if got.Label != LabelNeutral || got.Score != 0 {
		t.Errorf("empty text should be neutral with score 0, got %+v", got)
	}
}
