// Package marketdata fetches quotes and daily candles from the Alpaca data
// API. Calls are retried with backoff and bounded by a per-call timeout;
// callers treat a failed fetch as missing data, not a fatal condition.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fazecat/signalpulse/Internal/types"
	"github.com/fazecat/signalpulse/Internal/utils"
)

const (
	stockDataURL  = "https://data.alpaca.markets/v2"
	cryptoDataURL = "https://data.alpaca.markets/v1beta3/crypto/us"
)

type Client struct {
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	retry      utils.RetryConfig
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		apiKey:     os.Getenv("ALPACA_API_KEY"),
		apiSecret:  os.Getenv("ALPACA_API_SECRET"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      utils.DefaultRetryConfig(),
	}
}

type barJSON struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type snapshotJSON struct {
	LatestTrade *struct {
		Price float64 `json:"p"`
	} `json:"latestTrade"`
	DailyBar     *barJSON `json:"dailyBar"`
	PrevDailyBar *barJSON `json:"prevDailyBar"`
}

// cryptoSymbol maps a plain symbol to Alpaca's pair format.
func cryptoSymbol(symbol string) string {
	if strings.Contains(symbol, "/") {
		return symbol
	}
	return symbol + "/USD"
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	return utils.RetryWithBackoff(func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("APCA-API-KEY-ID", c.apiKey)
		req.Header.Set("APCA-API-SECRET-KEY", c.apiSecret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("data API returned status %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	}, c.retry)
}

// GetQuote returns the latest price and day-over-day change for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string, assetType types.AssetType) (types.Quote, error) {
	var snap snapshotJSON

	if assetType == types.AssetCrypto {
		pair := cryptoSymbol(symbol)
		reqURL := fmt.Sprintf("%s/snapshots?symbols=%s", cryptoDataURL, url.QueryEscape(pair))

		var r struct {
			Snapshots map[string]snapshotJSON `json:"snapshots"`
		}
		if err := c.getJSON(ctx, reqURL, &r); err != nil {
			return types.Quote{}, fmt.Errorf("failed to fetch crypto snapshot for %s: %w", symbol, err)
		}
		var ok bool
		snap, ok = r.Snapshots[pair]
		if !ok {
			return types.Quote{}, fmt.Errorf("no snapshot returned for %s", symbol)
		}
	} else {
		reqURL := fmt.Sprintf("%s/stocks/%s/snapshot", stockDataURL, url.PathEscape(symbol))
		if err := c.getJSON(ctx, reqURL, &snap); err != nil {
			return types.Quote{}, fmt.Errorf("failed to fetch snapshot for %s: %w", symbol, err)
		}
	}

	if snap.LatestTrade == nil || snap.LatestTrade.Price == 0 {
		return types.Quote{}, fmt.Errorf("no current price available for %s", symbol)
	}

	quote := types.Quote{Price: snap.LatestTrade.Price}
	if snap.DailyBar != nil {
		quote.High = snap.DailyBar.High
		quote.Low = snap.DailyBar.Low
		quote.Open = snap.DailyBar.Open
	}
	if snap.PrevDailyBar != nil && snap.PrevDailyBar.Close != 0 {
		quote.PrevClose = snap.PrevDailyBar.Close
		quote.ChangePercent = (quote.Price - quote.PrevClose) / quote.PrevClose * 100
	}

	return quote, nil
}

// GetDailyCandles returns up to days daily candles ending now, oldest first.
func (c *Client) GetDailyCandles(ctx context.Context, symbol string, assetType types.AssetType, days int) ([]types.Candle, error) {
	start := time.Now().UTC().AddDate(0, 0, -days-2).Format(time.RFC3339)

	var bars []barJSON

	if assetType == types.AssetCrypto {
		pair := cryptoSymbol(symbol)
		reqURL := fmt.Sprintf("%s/bars?symbols=%s&timeframe=1Day&start=%s&limit=%d",
			cryptoDataURL, url.QueryEscape(pair), url.QueryEscape(start), days)

		var r struct {
			Bars map[string][]barJSON `json:"bars"`
		}
		if err := c.getJSON(ctx, reqURL, &r); err != nil {
			return nil, fmt.Errorf("failed to fetch crypto candles for %s: %w", symbol, err)
		}
		bars = r.Bars[pair]
	} else {
		reqURL := fmt.Sprintf("%s/stocks/%s/bars?timeframe=1Day&start=%s&limit=%d",
			stockDataURL, url.PathEscape(symbol), url.QueryEscape(start), days)

		var r struct {
			Bars []barJSON `json:"bars"`
		}
		if err := c.getJSON(ctx, reqURL, &r); err != nil {
			return nil, fmt.Errorf("failed to fetch candles for %s: %w", symbol, err)
		}
		bars = r.Bars
	}

	candles := make([]types.Candle, 0, len(bars))
	for _, b := range bars {
		candles = append(candles, types.Candle{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	return candles, nil
}
