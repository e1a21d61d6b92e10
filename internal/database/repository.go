package database

import (
	"context"
	"fmt"

	"crypto-portfolio-bot/internal/bot"
	"crypto-portfolio-bot/internal/portfolio"
)

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// SaveHoldings replaces the persisted book with the given holdings. The
// holdings table is the source of truth on restart, so a full replace
// inside one transaction keeps it consistent with the in-memory book.
func (r *Repository) SaveHoldings(ctx context.Context, holdings []portfolio.Holding) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin holdings save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM holdings`); err != nil {
		return fmt.Errorf("clear holdings: %w", err)
	}

	query := `
		INSERT INTO holdings (symbol, bought_price, quantity, position_type, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	for _, h := range holdings {
		if _, err := tx.Exec(ctx, query, h.Symbol, h.BoughtPrice, h.Quantity, h.PositionType); err != nil {
			return fmt.Errorf("insert holding %s: %w", h.Symbol, err)
		}
	}

	return tx.Commit(ctx)
}

// LoadHoldings reads the persisted book, oldest entries first.
func (r *Repository) LoadHoldings(ctx context.Context) ([]portfolio.Holding, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT symbol, bought_price, quantity, position_type
		FROM holdings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	defer rows.Close()

	var holdings []portfolio.Holding
	for rows.Next() {
		var h portfolio.Holding
		if err := rows.Scan(&h.Symbol, &h.BoughtPrice, &h.Quantity, &h.PositionType); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// SaveTrade appends one simulated fill to the trade log.
func (r *Repository) SaveTrade(ctx context.Context, t bot.Trade) error {
	query := `
		INSERT INTO bot_trades (id, symbol, action, signal, price, quantity, fee, profit, balance_after, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Pool.Exec(ctx, query,
		t.ID, t.Symbol, t.Action, t.Signal, t.Price, t.Quantity, t.Fee, t.Profit, t.BalanceAfter, t.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("save trade: %w", err)
	}
	return nil
}

// RecentTrades returns up to limit fills for a symbol, newest first. An
// empty symbol returns fills across all symbols.
func (r *Repository) RecentTrades(ctx context.Context, symbol string, limit int) ([]bot.Trade, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, symbol, action, signal, price, quantity, fee, profit, balance_after, executed_at
		FROM bot_trades
		WHERE ($1 = '' OR LOWER(symbol) = LOWER($1))
		ORDER BY executed_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	defer rows.Close()

	var trades []bot.Trade
	for rows.Next() {
		var t bot.Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Action, &t.Signal, &t.Price, &t.Quantity,
			&t.Fee, &t.Profit, &t.BalanceAfter, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
