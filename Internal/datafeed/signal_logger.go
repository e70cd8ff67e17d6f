package datafeed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fazecat/avwapscout/Internal/types"
)

// LogSignals appends one run's emitted signals to the history table.
// A disabled database is not an error; the caller just keeps going.
func LogSignals(ctx context.Context, runAt time.Time, role types.AnchorRole, signals []types.Signal) error {
	if DB == nil {
		return nil
	}

	stmt, err := DB.PrepareContext(ctx, `
		INSERT INTO signal_history (run_at, symbol, signal_date, label, side, anchor_role, close_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare signal insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range signals {
		price := decimal.NewFromFloat(s.Price)
		_, err := stmt.ExecContext(ctx, runAt, s.Symbol, s.Date, s.Label, string(s.Side), string(role), price.String())
		if err != nil {
			return fmt.Errorf("failed to log signal %s/%s: %w", s.Symbol, s.Label, err)
		}
	}
	return nil
}

// RecentSignals returns the newest history rows for one symbol.
func RecentSignals(ctx context.Context, symbol string, limit int) ([]types.Signal, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT symbol, signal_date, label, side, close_price
		FROM signal_history
		WHERE symbol = $1
		ORDER BY run_at DESC, id DESC
		LIMIT $2`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signal history: %w", err)
	}
	defer rows.Close()

	var out []types.Signal
	for rows.Next() {
		var s types.Signal
		var side string
		var price decimal.Decimal
		if err := rows.Scan(&s.Symbol, &s.Date, &s.Label, &side, &price); err != nil {
			return nil, err
		}
		s.Side = types.Side(side)
		s.Price, _ = price.Float64()
		out = append(out, s)
	}
	return out, rows.Err()
}
