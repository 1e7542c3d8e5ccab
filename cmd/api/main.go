package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	datafeed "github.com/fazecat/signalpulse/Internal/database"
	"github.com/fazecat/signalpulse/Internal/improve"
	"github.com/fazecat/signalpulse/Internal/marketdata"
	"github.com/fazecat/signalpulse/Internal/metrics"
	"github.com/fazecat/signalpulse/Internal/news"
	"github.com/fazecat/signalpulse/Internal/notify"
	"github.com/fazecat/signalpulse/Internal/sentiment"
	"github.com/fazecat/signalpulse/Internal/strategy"
	"github.com/fazecat/signalpulse/Internal/utils/config"
	"github.com/fazecat/signalpulse/Internal/validator"
	"github.com/fazecat/signalpulse/cmd/api/internal"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../../.env")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := datafeed.InitDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer datafeed.CloseDatabase()

	store := datafeed.NewStore(datafeed.DB)
	m := metrics.NewMetrics()

	// Alpaca trading-API connectivity check; the data endpoints work with
	// the same key pair, so a failed check here means generation will fail.
	apiKey := os.Getenv("ALPACA_API_KEY")
	secretKey := os.Getenv("ALPACA_API_SECRET")
	if apiKey != "" && secretKey != "" {
		alpclient := alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: secretKey,
			BaseURL:   "https://paper-api.alpaca.markets"})
		if _, err := alpclient.GetAccount(); err != nil {
			log.Printf("Warning: Could not connect to Alpaca (check API keys): %v", err)
		} else {
			log.Println("Alpaca account connected successfully")
		}
	} else {
		log.Println("Warning: Alpaca API keys not configured")
	}

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

	apiServer := &internal.API{
		Engine:    strategy.NewEngine(store, market, notifier, cfg, m),
		Validator: validator.New(store, market, cfg.Validation, m),
		Improver:  improve.New(store),
		Ingestor: news.NewIngestor(store,
			news.NewAlpacaSource(time.Duration(cfg.MarketData.TimeoutSeconds)*time.Second), m),
		Analyzer: sentiment.NewAnalyzer(),
		Store:    store,
		Cfg:      cfg,
	}

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(internal.CorsMiddleware)

	r.Get("/health", apiServer.HandleHealth)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Post("/api/signals/generate", apiServer.HandleGenerateSignal)
	r.Post("/api/signals/generate-all", apiServer.HandleGenerateAll)
	r.Get("/api/signals/latest", apiServer.HandleLatestSignals)
	r.Post("/api/validate", apiServer.HandleValidate)
	r.Post("/api/news/refresh", apiServer.HandleNewsRefresh)
	r.Post("/api/social/analyze", apiServer.HandleAnalyzeSocialPost)
	r.Post("/api/improve", apiServer.HandleImprove)
	r.Get("/api/improvements", apiServer.HandleListImprovements)
	r.Get("/api/accuracy", apiServer.HandleAccuracy)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("API server listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
