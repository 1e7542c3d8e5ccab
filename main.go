package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/joho/godotenv"

	datafeed "github.com/fazecat/signalpulse/Internal/database"
	"github.com/fazecat/signalpulse/Internal/improve"
	"github.com/fazecat/signalpulse/Internal/marketdata"
	"github.com/fazecat/signalpulse/Internal/news"
	"github.com/fazecat/signalpulse/Internal/notify"
	"github.com/fazecat/signalpulse/Internal/strategy"
	"github.com/fazecat/signalpulse/Internal/utils/config"
	"github.com/fazecat/signalpulse/Internal/validator"
	"github.com/fazecat/signalpulse/interactive"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := datafeed.InitDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer datafeed.CloseDatabase()

	apiKey := os.Getenv("ALPACA_API_KEY")
	secretKey := os.Getenv("ALPACA_API_SECRET")

	alpclient := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: secretKey,
		BaseURL:   "https://paper-api.alpaca.markets",
	})
	if _, err := alpclient.GetAccount(); err != nil {
		log.Printf("Warning: Could not connect to Alpaca (check API keys): %v", err)
	} else {
		log.Println("Alpaca account connected successfully")
	}

	store := datafeed.NewStore(datafeed.DB)
	market := marketdata.NewClient(time.Duration(cfg.MarketData.TimeoutSeconds) * time.Second)

	var notifier notify.Notifier = notify.LogNotifier{}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisNotifier, err := notify.NewRedisNotifier(addr, os.Getenv("REDIS_PASSWORD"), cfg.Alerts.Channel)
		if err != nil {
			log.Printf("Warning: redis unavailable, alerts go to the log: %v", err)
		} else {
			notifier = redisNotifier
			defer redisNotifier.Close()
		}
	}

	engine := strategy.NewEngine(store, market, notifier, cfg, nil)
	val := validator.New(store, market, cfg.Validation, nil)
	improver := improve.New(store)
	ingestor := news.NewIngestor(store,
		news.NewAlpacaSource(time.Duration(cfg.MarketData.TimeoutSeconds)*time.Second), nil)

	ctx := context.Background()

	for {
		fmt.Println("\n--- SignalPulse Menu ---")
		fmt.Println("1. Generate Signal")
		fmt.Println("2. Generate All Signals")
		fmt.Println("3. Latest Signals")
		fmt.Println("4. Validate Aged Signals")
		fmt.Println("5. Refresh News")
		fmt.Println("6. Improvement Report")
		fmt.Println("7. Asset Accuracy")
		fmt.Println("8. Toggle Asset Active")
		fmt.Println("9. Exit")
		fmt.Print("Enter choice (1-9): ")

		var choice int
		if _, err := fmt.Scanln(&choice); err != nil {
			fmt.Println("Invalid input. Try again.")
			continue
		}

		switch choice {
		case 1:
			interactive.HandleGenerateSignal(ctx, engine)
		case 2:
			interactive.HandleGenerateAll(ctx, engine)
		case 3:
			interactive.HandleLatestSignals(ctx, store)
		case 4:
			interactive.HandleValidate(ctx, val)
		case 5:
			interactive.HandleNewsRefresh(ctx, ingestor, cfg)
		case 6:
			interactive.HandleImprove(ctx, improver)
		case 7:
			interactive.HandleAccuracy(ctx, store, cfg)
		case 8:
			interactive.HandleToggleAsset(ctx, store)
		case 9:
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Invalid choice. Try again.")
		}
	}
}
