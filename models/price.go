package models

import "time"

// PriceQuote is an ephemeral best bid/ask snapshot for one venue. It is
// never persisted; stale quotes are simply replaced.
type PriceQuote struct {
	Venue     string
	Symbol    string
	Bid       float64
	Ask       float64
	Last      float64
	Timestamp time.Time
}

func (q *PriceQuote) FresherThan(window time.Duration) bool {
	if q == nil {
		return false
	}

	return time.Since(q.Timestamp) < window
}
