// Package interactive holds the console handlers behind the root menu.
package interactive

import (
	"context"
	"fmt"
	"strings"
	"time"

	datafeed "github.com/fazecat/signalpulse/Internal/database"
	"github.com/fazecat/signalpulse/Internal/improve"
	"github.com/fazecat/signalpulse/Internal/news"
	"github.com/fazecat/signalpulse/Internal/strategy"
	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils/config"
	"github.com/fazecat/signalpulse/Internal/validator"
)

func readSymbol() (string, error) {
	fmt.Print("Enter symbol: ")
	var symbol string
	if _, err := fmt.Scanln(&symbol); err != nil {
		return "", fmt.Errorf("invalid input")
	}
	return strings.ToUpper(strings.TrimSpace(symbol)), nil
}

func HandleGenerateSignal(ctx context.Context, engine *strategy.Engine) {
	symbol, err := readSymbol()
	if err != nil {
		fmt.Println(err)
		return
	}

	sig, err := engine.GenerateSignal(ctx, symbol)
	if err != nil {
		fmt.Printf("Generation failed: %v\n", err)
		return
	}

	if sig.Type == types.SignalSkip {
		fmt.Printf("\n%s: SKIP (%s)\n", sig.Symbol, sig.SkipReason)
		return
	}
	fmt.Printf("\n%s: %s at $%.2f, confidence %d\n", sig.Symbol, sig.Type, sig.Price, sig.Confidence)
	if sig.Message != "" {
		fmt.Println(sig.Message)
	}
}

func HandleGenerateAll(ctx context.Context, engine *strategy.Engine) {
	fmt.Println("Generating signals for all active assets...")
	results, err := engine.GenerateAll(ctx)
	if err != nil {
		fmt.Printf("Batch generation failed: %v\n", err)
		return
	}

	for _, sig := range results {
		switch {
		case !sig.Success:
			fmt.Printf("  %-6s FAILED %s\n", sig.Symbol, sig.Error)
		case sig.Type == types.SignalSkip:
			fmt.Printf("  %-6s SKIP   %s\n", sig.Symbol, sig.SkipReason)
		default:
			fmt.Printf("  %-6s %-7s confidence %d at $%.2f\n", sig.Symbol, sig.Type, sig.Confidence, sig.Price)
		}
	}
	fmt.Printf("%d assets processed\n", len(results))
}

func HandleLatestSignals(ctx context.Context, store *datafeed.Store) {
	signals, err := store.LatestSignals(ctx)
	if err != nil {
		fmt.Printf("Could not fetch signals: %v\n", err)
		return
	}
	if len(signals) == 0 {
		fmt.Println("No signals yet. Generate some first.")
		return
	}

	fmt.Printf("\n%-6s %-7s %-6s %-10s %s\n", "SYMBOL", "SIGNAL", "CONF", "PRICE", "WHEN")
	for _, s := range signals {
		fmt.Printf("%-6s %-7s %-6d $%-9.2f %s\n",
			s.Symbol, s.Signal, s.Confidence, s.Price, s.CreatedAt.Format("Jan 02 15:04"))
	}
}

func HandleValidate(ctx context.Context, v *validator.Validator) {
	fmt.Println("Validating aged signals...")
	sum, err := v.Run(ctx, time.Now().UTC())
	if err != nil {
		fmt.Printf("Validation failed: %v\n", err)
		return
	}
	if sum.Validated == 0 {
		fmt.Println("No signals aged into the validation window.")
		return
	}
	fmt.Printf("Validated %d signals: %d correct (%.1f%%)\n", sum.Validated, sum.Correct, sum.Accuracy)
}

func HandleNewsRefresh(ctx context.Context, ingestor *news.Ingestor, cfg *config.Config) {
	fmt.Println("Refreshing market news...")
	sum, err := ingestor.Refresh(ctx, time.Duration(cfg.News.WindowHours)*time.Hour)
	if err != nil {
		fmt.Printf("News refresh failed: %v\n", err)
		return
	}
	fmt.Printf("%d articles fetched, %d stored\n", sum.Fetched, sum.Stored)
}

func HandleImprove(ctx context.Context, analyzer *improve.Analyzer) {
	fmt.Println("Analyzing validation history...")
	report, err := analyzer.Run(ctx)
	if err != nil {
		fmt.Printf("Analysis not available: %v\n", err)
		return
	}

	fmt.Printf("\nReport %s over %d validations\n", report.Version, report.Sample)
	fmt.Printf("Overall accuracy: %.1f%%\n", report.Overall.Accuracy)
	for signalType, acc := range report.ByType {
		fmt.Printf("  %-8s %3d samples at %.1f%%\n", signalType, acc.Count, acc.Accuracy)
	}
	fmt.Println("Recommendations:")
	for _, rec := range report.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}
}

func HandleAccuracy(ctx context.Context, store *datafeed.Store, cfg *config.Config) {
	symbol, err := readSymbol()
	if err != nil {
		fmt.Println(err)
		return
	}

	asset, err := store.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		fmt.Printf("Lookup failed: %v\n", err)
		return
	}

	profile, err := store.AccuracyProfile(ctx, asset.ID, cfg.Profile.CorrelationSample)
	if err != nil {
		fmt.Printf("Could not fetch profile: %v\n", err)
		return
	}
	if profile.TotalValidations == 0 {
		fmt.Printf("%s has no validation history yet.\n", asset.Symbol)
		return
	}

	fmt.Printf("\n%s (%s)\n", asset.Symbol, asset.Type)
	fmt.Printf("  Validations: %d, accuracy %.1f%%\n", profile.TotalValidations, profile.Accuracy)
	fmt.Printf("  CALLs: %d at %.1f%%, PUTs: %d at %.1f%%\n",
		profile.CallCount, profile.CallAccuracy, profile.PutCount, profile.PutAccuracy)
	fmt.Printf("  Avg validated move %.2f%% (%s volatility)\n",
		profile.AvgAbsChange, profile.VolatilityBucket())
}

func HandleToggleAsset(ctx context.Context, store *datafeed.Store) {
	symbol, err := readSymbol()
	if err != nil {
		fmt.Println(err)
		return
	}

	asset, err := store.GetAssetBySymbol(ctx, symbol)
	if err != nil {
		fmt.Printf("Lookup failed: %v\n", err)
		return
	}

	if err := store.SetAssetActive(ctx, symbol, !asset.Active); err != nil {
		fmt.Printf("Update failed: %v\n", err)
		return
	}
	if asset.Active {
		fmt.Printf("%s deactivated\n", symbol)
	} else {
		fmt.Printf("%s activated\n", symbol)
	}
}
