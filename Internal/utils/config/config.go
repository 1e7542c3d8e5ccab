package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ScoringWeights is the scorer's point table. Every bonus and penalty the
// scorer can apply lives here so weights are tunable without touching the
// rule flow.
type ScoringWeights struct {
	Base       int `yaml:"base"`
	MarketBias int `yaml:"market_bias"`

	RSIOversoldStrong   int `yaml:"rsi_oversold_strong"`
	RSIOversoldMild     int `yaml:"rsi_oversold_mild"`
	RSIOverboughtStrong int `yaml:"rsi_overbought_strong"`
	RSIOverboughtMild   int `yaml:"rsi_overbought_mild"`

	MACDReinforce           int `yaml:"macd_reinforce"`
	MACDEstablish           int `yaml:"macd_establish"`
	MACDPutReinforceBullish int `yaml:"macd_put_reinforce_bullish"`
	MACDPutEstablishBullish int `yaml:"macd_put_establish_bullish"`

	EMACrossAligned int `yaml:"ema_cross_aligned"`
	EMACrossOpposed int `yaml:"ema_cross_opposed"`

	BollingerReinforce           int `yaml:"bollinger_reinforce"`
	BollingerEstablish           int `yaml:"bollinger_establish"`
	BollingerPutReinforceBullish int `yaml:"bollinger_put_reinforce_bullish"`
	BollingerPutEstablishBullish int `yaml:"bollinger_put_establish_bullish"`

	SocialReinforce int `yaml:"social_reinforce"`
	NewsReinforce   int `yaml:"news_reinforce"`

	HistorySkew          int `yaml:"history_skew"`
	LowVolatilityPenalty int `yaml:"low_volatility_penalty"`
	ContradictionPenalty int `yaml:"contradiction_penalty"`

	ConfidenceGate int `yaml:"confidence_gate"`
	ConfidenceMin  int `yaml:"confidence_min"`
	ConfidenceMax  int `yaml:"confidence_max"`

	TieBreakCallAbove int `yaml:"tie_break_call_above"`
	TieBreakPutBelow  int `yaml:"tie_break_put_below"`

	SkipMinValidations int     `yaml:"skip_min_validations"`
	SkipAccuracyBelow  float64 `yaml:"skip_accuracy_below"`
}

type AlertConfig struct {
	ConfidenceThreshold int    `yaml:"confidence_threshold"`
	Channel             string `yaml:"channel"`
}

type ValidationConfig struct {
	WindowStartDays   int                `yaml:"window_start_days"`
	WindowEndDays     int                `yaml:"window_end_days"`
	Thresholds        map[string]float64 `yaml:"thresholds"`
	DefaultThreshold  float64            `yaml:"default_threshold"`
	TimeToImpactHours int                `yaml:"time_to_impact_hours"`
	AttributionHours  int                `yaml:"attribution_hours"`
}

type SocialConfig struct {
	WindowHours    int     `yaml:"window_hours"`
	MinPredictions int     `yaml:"min_predictions"`
	MinAccuracy    float64 `yaml:"min_accuracy"`
}

type NewsConfig struct {
	WindowHours   int    `yaml:"window_hours"`
	TrustedSource string `yaml:"trusted_source"`
}

type ProfileConfig struct {
	CorrelationSample int `yaml:"correlation_sample"`
}

type MarketDataConfig struct {
	CandleDays     int `yaml:"candle_days"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type Config struct {
	Scoring    ScoringWeights   `yaml:"scoring"`
	Alerts     AlertConfig      `yaml:"alerts"`
	Validation ValidationConfig `yaml:"validation"`
	Social     SocialConfig     `yaml:"social"`
	News       NewsConfig       `yaml:"news"`
	Profile    ProfileConfig    `yaml:"profile"`
	MarketData MarketDataConfig `yaml:"market_data"`
}

// DefaultConfig returns the tuned production values. The yaml file overrides
// whatever it sets; anything absent keeps these.
func DefaultConfig() *Config {
	return &Config{
		Scoring: ScoringWeights{
			Base:       50,
			MarketBias: 8,

			RSIOversoldStrong:   12,
			RSIOversoldMild:     6,
			RSIOverboughtStrong: 10,
			RSIOverboughtMild:   5,

			MACDReinforce:           8,
			MACDEstablish:           6,
			MACDPutReinforceBullish: 5,
			MACDPutEstablishBullish: 4,

			EMACrossAligned: 8,
			EMACrossOpposed: 5,

			BollingerReinforce:           10,
			BollingerEstablish:           8,
			BollingerPutReinforceBullish: 7,
			BollingerPutEstablishBullish: 5,

			SocialReinforce: 5,
			NewsReinforce:   8,

			HistorySkew:          5,
			LowVolatilityPenalty: 10,
			ContradictionPenalty: 8,

			ConfidenceGate: 65,
			ConfidenceMin:  40,
			ConfidenceMax:  92,

			TieBreakCallAbove: 52,
			TieBreakPutBelow:  45,

			SkipMinValidations: 10,
			SkipAccuracyBelow:  25.0,
		},
		Alerts: AlertConfig{
			ConfidenceThreshold: 80,
			Channel:             "pub:alerts",
		},
		Validation: ValidationConfig{
			WindowStartDays: 6,
			WindowEndDays:   5,
			Thresholds: map[string]float64{
				"crypto":    3.0,
				"etf":       1.0,
				"commodity": 1.5,
				"stock":     1.5,
			},
			DefaultThreshold:  1.5,
			TimeToImpactHours: 120,
			AttributionHours:  24,
		},
		Social: SocialConfig{
			WindowHours:    48,
			MinPredictions: 10,
			MinAccuracy:    40.0,
		},
		News: NewsConfig{
			WindowHours:   24,
			TrustedSource: "seeking_alpha",
		},
		Profile: ProfileConfig{
			CorrelationSample: 50,
		},
		MarketData: MarketDataConfig{
			CandleDays:     30,
			TimeoutSeconds: 10,
		},
	}
}

// Threshold returns the validation threshold for an asset type.
func (v ValidationConfig) Threshold(assetType string) float64 {
	if t, ok := v.Thresholds[assetType]; ok {
		return t
	}
	return v.DefaultThreshold
}

// LoadConfig reads config.yaml over the defaults. A missing file is not an
// error; the defaults are a complete configuration.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	path := findConfigFile()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

func findConfigFile() string {
	// Resolve path relative to this file first
	possiblePaths := []string{}
	if _, filePath, _, ok := runtime.Caller(0); ok {
		possiblePaths = append(possiblePaths, filepath.Join(filepath.Dir(filePath), "config.yaml"))
	}

	if cwd, err := os.Getwd(); err == nil {
		possiblePaths = append(possiblePaths,
			filepath.Join(cwd, "config.yaml"),
			filepath.Join(cwd, "Internal", "utils", "config", "config.yaml"),
		)
	}

	for _, p := range possiblePaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
