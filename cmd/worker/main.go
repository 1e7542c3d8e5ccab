package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	datafeed "github.com/fazecat/signalpulse/Internal/database"
	"github.com/fazecat/signalpulse/Internal/improve"
	"github.com/fazecat/signalpulse/Internal/marketdata"
	"github.com/fazecat/signalpulse/Internal/metrics"
	"github.com/fazecat/signalpulse/Internal/news"
	"github.com/fazecat/signalpulse/Internal/notify"
	"github.com/fazecat/signalpulse/Internal/strategy"
	"github.com/fazecat/signalpulse/Internal/utils/config"
	"github.com/fazecat/signalpulse/Internal/validator"
)

// Default schedules, overridable via env. Generation runs on weekday market
// close, validation once a day after the window ages in, news hourly and the
// improvement analysis weekly.
const (
	defaultGenerateSpec = "0 21 * * 1-5"
	defaultValidateSpec = "30 6 * * *"
	defaultNewsSpec     = "15 * * * *"
	defaultImproveSpec  = "0 7 * * 1"
)

func spec(envKey, fallback string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}

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

	engine := strategy.NewEngine(store, market, notifier, cfg, m)
	val := validator.New(store, market, cfg.Validation, m)
	improver := improve.New(store)
	ingestor := news.NewIngestor(store,
		news.NewAlpacaSource(time.Duration(cfg.MarketData.TimeoutSeconds)*time.Second), m)

	c := cron.New()

	mustAdd(c, spec("GENERATE_CRON", defaultGenerateSpec), "signal generation", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		results, err := engine.GenerateAll(ctx)
		if err != nil {
			log.Printf("Scheduled generation failed: %v", err)
			return
		}
		log.Printf("Scheduled generation produced %d results", len(results))
	})

	mustAdd(c, spec("VALIDATE_CRON", defaultValidateSpec), "validation", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		sum, err := val.Run(ctx, time.Now().UTC())
		if err != nil {
			log.Printf("Scheduled validation failed: %v", err)
			return
		}
		log.Printf("Scheduled validation: %d validated, %d correct (%.1f%%)",
			sum.Validated, sum.Correct, sum.Accuracy)
	})

	mustAdd(c, spec("NEWS_CRON", defaultNewsSpec), "news refresh", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		sum, err := ingestor.Refresh(ctx, time.Duration(cfg.News.WindowHours)*time.Hour)
		if err != nil {
			log.Printf("Scheduled news refresh failed: %v", err)
			return
		}
		log.Printf("Scheduled news refresh: %d fetched, %d stored", sum.Fetched, sum.Stored)
	})

	mustAdd(c, spec("IMPROVE_CRON", defaultImproveSpec), "improvement analysis", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		report, err := improver.Run(ctx)
		if err != nil {
			log.Printf("Scheduled improvement analysis skipped: %v", err)
			return
		}
		log.Printf("Improvement report %s stored (accuracy %.1f%%)", report.Version, report.Overall.Accuracy)
	})

	c.Start()
	defer c.Stop()
	log.Println("Worker started")

	// Metrics-only HTTP surface so the worker is scrapeable.
	go func() {
		port := os.Getenv("WORKER_METRICS_PORT")
		if port == "" {
			port = "9091"
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		log.Printf("Worker metrics on :%s", port)
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			log.Printf("Metrics server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Worker shutting down")
}

func mustAdd(c *cron.Cron, schedule, name string, job func()) {
	if _, err := c.AddFunc(schedule, job); err != nil {
		log.Fatalf("Invalid cron schedule %q for %s: %v", schedule, name, err)
	}
}
