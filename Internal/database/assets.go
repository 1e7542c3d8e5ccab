package datafeed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fazecat/signalpulse/Internal/types"
)

func (s *Store) GetAssetBySymbol(ctx context.Context, symbol string) (*types.Asset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, symbol, name, type, active FROM assets WHERE symbol = $1`, symbol)

	var a types.Asset
	if err := row.Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.Active); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("asset %s not found", symbol)
		}
		return nil, fmt.Errorf("failed to fetch asset %s: %w", symbol, err)
	}

	return &a, nil
}

func (s *Store) ListActiveAssets(ctx context.Context) ([]types.Asset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbol, name, type, active FROM assets WHERE active = TRUE ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active assets: %w", err)
	}
	defer rows.Close()

	assets := []types.Asset{}
	for rows.Next() {
		var a types.Asset
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.Active); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}

	return assets, rows.Err()
}

// SetAssetActive flips the only mutable asset field.
func (s *Store) SetAssetActive(ctx context.Context, symbol string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE assets SET active = $2 WHERE symbol = $1`, symbol, active)
	if err != nil {
		return fmt.Errorf("failed to update asset %s: %w", symbol, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("asset %s not found", symbol)
	}
	return nil
}
