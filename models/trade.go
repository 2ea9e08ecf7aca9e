package models

import "time"

// Trade is the immutable record of a closed position. Rows are append-only;
// nothing in the system updates or deletes them.
type Trade struct {
	ID         int       `db:"id"`
	Symbol     string    `db:"symbol"`
	Side       string    `db:"side"`
	Size       float64   `db:"size"`
	EntryPrice float64   `db:"entry_price"`
	EntryTime  time.Time `db:"entry_time"`
	ExitPrice  float64   `db:"exit_price"`
	ExitTime   time.Time `db:"exit_time"`
	Pnl        float64   `db:"pnl"`
	Strategy   string    `db:"strategy"`
	Reason     string    `db:"reason"`
	CreatedAt  time.Time `db:"created_at"`
}
