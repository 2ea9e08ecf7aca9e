package models

import "time"

const (
	PositionLong  = "LONG"
	PositionShort = "SHORT"

	// StrategyReconciled tags positions adopted from the exchange during
	// reconciliation so they stay eligible for risk management.
	StrategyReconciled = "reconciled"
)

type Position struct {
	Symbol           string
	Side             string
	Size             float64
	EntryPrice       float64
	EntryTime        time.Time
	StopLoss         float64
	TakeProfit       float64
	LiquidationPrice float64
	Strategy         string
	Venue            string
}

// CloseSide returns the order side that flattens the position.
func (p *Position) CloseSide() string {
	if p.Side == PositionLong {
		return SideSell
	}

	return SideBuy
}
