package structs

import "go.mongodb.org/mongo-driver/bson/primitive"

type SymbolStatus string

const (
	Enabled  SymbolStatus = "ENABLED"
	Disabled SymbolStatus = "DISABLED"
)

func (s SymbolStatus) ToString() string {
	return string(s)
}

// Settings holds the per-symbol risk overrides; symbols without a
// document fall back to the process-wide defaults.
type Settings struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Symbol          string             `bson:"symbol"`
	StopLossPct     float64            `bson:"stop_loss_pct"`
	TakeProfitPct   float64            `bson:"take_profit_pct"`
	MaxDurationSec  int64              `bson:"max_duration_sec"`
	MaxPositionSize float64            `bson:"max_position_size"`
	Leverage        float64            `bson:"leverage"`
	Status          string             `bson:"status"`
}
