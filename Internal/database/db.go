package datafeed

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

var DB *sql.DB

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func InitDatabase() error {
	config := DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"), // Required - no default
		DBName:   getEnvOrDefault("DB_NAME", "signalpulse"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err = initializeSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Println("Database connected successfully")
	return nil
}

// initializeSchema creates the tables if they don't exist.
func initializeSchema() error {
	schemaSQL := `
	CREATE EXTENSION IF NOT EXISTS pgcrypto;

	CREATE TABLE IF NOT EXISTS assets (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		symbol TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS technical_indicators (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		asset_id UUID NOT NULL REFERENCES assets(id),
		rsi REAL NOT NULL,
		macd REAL NOT NULL,
		ema_50 NUMERIC NOT NULL,
		ema_200 NUMERIC NOT NULL,
		bollinger_upper NUMERIC NOT NULL,
		bollinger_lower NUMERIC NOT NULL,
		atr REAL NOT NULL,
		volume BIGINT NOT NULL,
		obv_change REAL NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS trading_signals (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		asset_id UUID NOT NULL REFERENCES assets(id),
		signal TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		price NUMERIC NOT NULL,
		change_percent NUMERIC NOT NULL,
		validated BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		asset_id UUID NOT NULL REFERENCES assets(id),
		signal_type TEXT NOT NULL,
		message TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS influencers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT NOT NULL,
		handle TEXT NOT NULL UNIQUE,
		platform TEXT NOT NULL,
		followers BIGINT NOT NULL DEFAULT 0,
		influence_score REAL NOT NULL DEFAULT 50,
		accuracy_score REAL NOT NULL DEFAULT 0,
		total_predictions INTEGER NOT NULL DEFAULT 0,
		correct_predictions INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS social_posts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		influencer_id UUID NOT NULL REFERENCES influencers(id),
		asset_id UUID REFERENCES assets(id),
		content TEXT NOT NULL,
		sentiment_label TEXT NOT NULL,
		sentiment_score REAL NOT NULL,
		urgency_level TEXT NOT NULL,
		posted_at TIMESTAMPTZ NOT NULL,
		analyzed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS market_news (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		asset_id UUID REFERENCES assets(id),
		headline TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		sentiment_label TEXT NOT NULL,
		sentiment_score REAL NOT NULL,
		relevance_score REAL NOT NULL,
		nlp_analysis JSONB,
		category TEXT NOT NULL DEFAULT 'general',
		published_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS price_correlations (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		post_id UUID REFERENCES social_posts(id),
		asset_id UUID NOT NULL REFERENCES assets(id),
		price_before NUMERIC NOT NULL,
		price_after NUMERIC NOT NULL,
		price_change_percent REAL NOT NULL,
		prediction_correct BOOLEAN NOT NULL,
		signal_type TEXT NOT NULL,
		signal_confidence INTEGER NOT NULL,
		time_to_impact_hours INTEGER NOT NULL DEFAULT 120,
		measured_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS algorithm_improvements (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		version TEXT NOT NULL,
		accuracy_before REAL NOT NULL,
		accuracy_after REAL,
		metrics JSONB NOT NULL,
		recommendations TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_signals_asset_created ON trading_signals(asset_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_signals_validated ON trading_signals(validated, created_at);
	CREATE INDEX IF NOT EXISTS idx_social_posts_asset_posted ON social_posts(asset_id, posted_at);
	CREATE INDEX IF NOT EXISTS idx_news_asset_published ON market_news(asset_id, published_at);
	CREATE INDEX IF NOT EXISTS idx_correlations_asset_measured ON price_correlations(asset_id, measured_at);
	`

	_, err := DB.Exec(schemaSQL)
	return err
}

func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}
	return DB.Ping()
}
