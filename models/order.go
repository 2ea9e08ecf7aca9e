package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	TypeMarket = "MARKET"
	TypeLimit  = "LIMIT"
	TypeIOC    = "IOC"

	StatusPending         = "PENDING"
	StatusPartiallyFilled = "PARTIALLY_FILLED"
	StatusFilled          = "FILLED"
	StatusCancelled       = "CANCELLED"
	StatusRejected        = "REJECTED"
)

type Order struct {
	ID           string    `db:"id"`
	Symbol       string    `db:"symbol"`
	Side         string    `db:"side"`
	Type         string    `db:"type"`
	Quantity     float64   `db:"quantity"`
	FilledQty    float64   `db:"filled_qty"`
	Price        float64   `db:"price"`
	AvgFillPrice float64   `db:"avg_fill_price"`
	Strategy     string    `db:"strategy"`
	Status       string    `db:"status"`
	Venue        string    `db:"venue"`
	VenueOrderID string    `db:"venue_order_id"`
	ParentID     string    `db:"parent_id"`
	CreatedAt    time.Time `db:"created_at"`
	LastUpdate   time.Time `db:"last_update"`
}

// NewOrderID builds an order id from the submission time plus a random
// suffix, so ids sort by submission order but never collide.
func NewOrderID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.New().String()[:8])
}

func (o *Order) Terminal() bool {
	switch o.Status {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	}

	return false
}

func (o *Order) Remaining() float64 {
	return o.Quantity - o.FilledQty
}

// OppositeSide returns the side that closes a position held on side.
func OppositeSide(side string) string {
	if side == SideBuy {
		return SideSell
	}

	return SideBuy
}
