package datafeed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fazecat/signalpulse/Internal/types"
)

func (s *Store) InsertIndicators(ctx context.Context, assetID string, ind types.IndicatorSet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO technical_indicators
			(asset_id, rsi, macd, ema_50, ema_200, bollinger_upper, bollinger_lower, atr, volume, obv_change)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		assetID, ind.RSI, ind.MACD,
		decimal.NewFromFloat(ind.EMA50).String(),
		decimal.NewFromFloat(ind.EMA200).String(),
		decimal.NewFromFloat(ind.BollingerUpper).String(),
		decimal.NewFromFloat(ind.BollingerLower).String(),
		ind.ATR, ind.Volume, ind.OBVChange)
	if err != nil {
		return fmt.Errorf("failed to insert indicators: %w", err)
	}
	return nil
}

func (s *Store) InsertSignal(ctx context.Context, assetID string, signalType types.SignalType, confidence int, price, changePercent float64) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO trading_signals (asset_id, signal, confidence, price, change_percent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		assetID, string(signalType), confidence,
		decimal.NewFromFloat(price).String(),
		decimal.NewFromFloat(changePercent).String()).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert signal: %w", err)
	}
	return id, nil
}

func (s *Store) InsertAlert(ctx context.Context, assetID string, signalType types.SignalType, message string, confidence int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (asset_id, signal_type, message, confidence)
		VALUES ($1, $2, $3, $4)`,
		assetID, string(signalType), message, confidence)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// LatestSignal is the read surface row for the dashboard: the most recent
// signal per asset with its indicator snapshot.
type LatestSignal struct {
	Symbol     string             `json:"symbol"`
	Name       string             `json:"name"`
	AssetType  types.AssetType    `json:"asset_type"`
	Signal     types.SignalType   `json:"signal"`
	Confidence int                `json:"confidence"`
	Price      float64            `json:"price"`
	Change     float64            `json:"change_percent"`
	Indicators types.IndicatorSet `json:"indicators"`
	CreatedAt  time.Time          `json:"created_at"`
}

func (s *Store) LatestSignals(ctx context.Context) ([]LatestSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.symbol, a.name, a.type,
		       sg.signal, sg.confidence, sg.price::float8, sg.change_percent::float8, sg.created_at,
		       ti.rsi, ti.macd, ti.ema_50::float8, ti.ema_200::float8,
		       ti.bollinger_upper::float8, ti.bollinger_lower::float8, ti.atr, ti.volume, ti.obv_change
		FROM assets a
		JOIN LATERAL (
			SELECT * FROM trading_signals WHERE asset_id = a.id ORDER BY created_at DESC LIMIT 1
		) sg ON TRUE
		JOIN LATERAL (
			SELECT * FROM technical_indicators WHERE asset_id = a.id ORDER BY created_at DESC LIMIT 1
		) ti ON TRUE
		WHERE a.active = TRUE
		ORDER BY a.symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest signals: %w", err)
	}
	defer rows.Close()

	out := []LatestSignal{}
	for rows.Next() {
		var ls LatestSignal
		if err := rows.Scan(
			&ls.Symbol, &ls.Name, &ls.AssetType,
			&ls.Signal, &ls.Confidence, &ls.Price, &ls.Change, &ls.CreatedAt,
			&ls.Indicators.RSI, &ls.Indicators.MACD, &ls.Indicators.EMA50, &ls.Indicators.EMA200,
			&ls.Indicators.BollingerUpper, &ls.Indicators.BollingerLower,
			&ls.Indicators.ATR, &ls.Indicators.Volume, &ls.Indicators.OBVChange,
		); err != nil {
			return nil, fmt.Errorf("failed to scan latest signal: %w", err)
		}
		out = append(out, ls)
	}

	return out, rows.Err()
}
