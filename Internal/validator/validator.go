// Package validator closes the feedback loop: it checks aged signals
// against what the market actually did and feeds the outcomes back into
// asset and influencer track records.
package validator

import (
	"context"
	"log"
	"time"

	"github.com/fazecat/signalpulse/Internal/metrics"
	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils/config"
)

// Store is the datastore slice the validator reads and writes.
type Store interface {
	UnvalidatedSignalsInWindow(ctx context.Context, from, to time.Time) ([]types.Signal, error)
	PostsBefore(ctx context.Context, assetID string, signalAt time.Time, window time.Duration) ([]types.SocialPost, error)
	InsertCorrelation(ctx context.Context, c types.PriceCorrelation) error
	ApplyInfluencerOutcome(ctx context.Context, influencerID string, posts int, correct int) error
	MarkSignalValidated(ctx context.Context, signalID string) error
}

// MarketData is the quote surface used to read where the price ended up.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string, assetType types.AssetType) (types.Quote, error)
}

type Validator struct {
	Store   Store
	Market  MarketData
	Cfg     config.ValidationConfig
	Metrics *metrics.Metrics
}

func New(store Store, market MarketData, cfg config.ValidationConfig, m *metrics.Metrics) *Validator {
	return &Validator{Store: store, Market: market, Cfg: cfg, Metrics: m}
}

// Summary reports one validation run.
type Summary struct {
	Validated int     `json:"validated"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
}

// ChangePercent is the realized move between signal price and current price.
func ChangePercent(signalPrice, currentPrice float64) float64 {
	if signalPrice == 0 {
		return 0
	}
	return (currentPrice - signalPrice) / signalPrice * 100
}

// Classify decides whether a prediction was borne out by the realized move.
// CALLs need the price to beat the threshold upward, PUTs downward, and
// NEUTRAL is correct when the price stayed inside the band.
func Classify(signalType types.SignalType, changePercent, threshold float64) bool {
	switch signalType {
	case types.SignalCall:
		return changePercent > threshold
	case types.SignalPut:
		return changePercent < -threshold
	case types.SignalNeutral:
		return changePercent >= -threshold && changePercent <= threshold
	default:
		return false
	}
}

// Run validates every signal that aged into the window. Per-signal failures
// are logged and skipped so one bad symbol cannot stall the whole batch.
func (v *Validator) Run(ctx context.Context, now time.Time) (Summary, error) {
	from := now.Add(-time.Duration(v.Cfg.WindowStartDays) * 24 * time.Hour)
	to := now.Add(-time.Duration(v.Cfg.WindowEndDays) * 24 * time.Hour)

	signals, err := v.Store.UnvalidatedSignalsInWindow(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	log.Printf("Validating %d signals aged into [%s, %s]",
		len(signals), from.Format(time.RFC3339), to.Format(time.RFC3339))

	var sum Summary
	for _, sig := range signals {
		correct, err := v.validateOne(ctx, sig, now)
		if err != nil {
			log.Printf("Warning: validation failed for signal %s (%s): %v", sig.ID, sig.Symbol, err)
			continue
		}
		sum.Validated++
		if correct {
			sum.Correct++
		}
		v.observe(correct)
	}
	if sum.Validated > 0 {
		sum.Accuracy = float64(sum.Correct) / float64(sum.Validated) * 100
	}
	return sum, nil
}

func (v *Validator) validateOne(ctx context.Context, sig types.Signal, now time.Time) (bool, error) {
	quote, err := v.Market.GetQuote(ctx, sig.Symbol, sig.AssetType)
	if err != nil {
		return false, err
	}

	change := ChangePercent(sig.Price, quote.Price)
	threshold := v.Cfg.Threshold(string(sig.AssetType))
	correct := Classify(sig.Type, change, threshold)

	base := types.PriceCorrelation{
		AssetID:          sig.AssetID,
		PriceBefore:      sig.Price,
		PriceAfter:       quote.Price,
		ChangePercent:    change,
		Correct:          correct,
		SignalType:       sig.Type,
		SignalConfidence: sig.Confidence,
		TimeToImpactHrs:  v.Cfg.TimeToImpactHours,
		MeasuredAt:       now,
	}

	attribution := time.Duration(v.Cfg.AttributionHours) * time.Hour
	posts, err := v.Store.PostsBefore(ctx, sig.AssetID, sig.CreatedAt, attribution)
	if err != nil {
		log.Printf("Warning: could not fetch posts for signal %s: %v", sig.ID, err)
		posts = nil
	}

	if len(posts) == 0 {
		if err := v.Store.InsertCorrelation(ctx, base); err != nil {
			return false, err
		}
	} else {
		// One correlation per contributing post, and each influencer's
		// record absorbs the outcome.
		perInfluencer := map[string]int{}
		for _, p := range posts {
			c := base
			c.PostID = p.ID
			if err := v.Store.InsertCorrelation(ctx, c); err != nil {
				return false, err
			}
			if p.InfluencerID != "" {
				perInfluencer[p.InfluencerID]++
			}
		}
		for influencerID, n := range perInfluencer {
			nCorrect := 0
			if correct {
				nCorrect = n
			}
			if err := v.Store.ApplyInfluencerOutcome(ctx, influencerID, n, nCorrect); err != nil {
				log.Printf("Warning: could not update influencer %s: %v", influencerID, err)
			}
		}
	}

	if err := v.Store.MarkSignalValidated(ctx, sig.ID); err != nil {
		return false, err
	}
	return correct, nil
}

func (v *Validator) observe(correct bool) {
	if v.Metrics == nil {
		return
	}
	outcome := "incorrect"
	if correct {
		outcome = "correct"
	}
	v.Metrics.Validations.WithLabelValues(outcome).Inc()
}
