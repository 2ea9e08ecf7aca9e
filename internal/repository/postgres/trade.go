package postgres

import (
	"time"

	"tradebot/models"

	"github.com/jmoiron/sqlx"
)

type TradeRepository struct {
	conn *sqlx.DB
}

func NewTradeRepository(conn *sqlx.DB) TradeRepo {
	return &TradeRepository{
		conn: conn,
	}
}

// Store appends a closed trade. The table is insert-only; corrections are
// new rows, never updates.
func (r *TradeRepository) Store(m *models.Trade) error {
	if _, err := r.conn.NamedExec("INSERT INTO trades (symbol,side,size,entry_price,entry_time,exit_price,exit_time,pnl,strategy,reason) VALUES (:symbol,:side,:size,:entry_price,:entry_time,:exit_price,:exit_time,:pnl,:strategy,:reason)", m); err != nil {
		return err
	}

	return nil
}

func (r *TradeRepository) GetBySymbol(symbol string) ([]models.Trade, error) {
	var trades []models.Trade

	if err := r.conn.Select(&trades, "SELECT * FROM trades WHERE symbol = $1 ORDER BY created_at DESC", symbol); err != nil {
		return nil, err
	}

	return trades, nil
}

func (r *TradeRepository) GetByInterval(sTime, eTime time.Time) ([]models.Trade, error) {
	var trades []models.Trade

	if err := r.conn.Select(&trades, "SELECT * FROM trades WHERE created_at BETWEEN $1 AND $2 ORDER BY created_at", sTime, eTime); err != nil {
		return nil, err
	}

	return trades, nil
}
