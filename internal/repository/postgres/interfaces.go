package postgres

import (
	"time"

	"tradebot/models"
)

//go:generate mockery --case=snake --name=TradeRepo

type TradeRepo interface {
	Store(m *models.Trade) error
	GetBySymbol(symbol string) ([]models.Trade, error)
	GetByInterval(sTime, eTime time.Time) ([]models.Trade, error)
}
