package models

import "time"

// MarketMetadata is the cached per-symbol contract description for one
// venue: the venue-native id plus the precision needed to scale prices and
// round quantities.
type MarketMetadata struct {
	Symbol       string
	VenueID      string
	PriceScale   int64
	QtyPrecision int
	MinOrderSize float64
	MaxOrderSize float64
	ContractSize float64
}

// Candle is one historical OHLCV row.
type Candle struct {
	Symbol    string
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timeframe string
}
