package usecasees

import "tradebot/models"

// Strategy tags are a closed set; an intent carrying an unregistered tag
// is refused before any order is built from it.
var strategyRegistry = map[string]struct{}{
	"scalper":                 {},
	"trend":                   {},
	"mean-reversion":          {},
	"funding-arb":             {},
	models.StrategyReconciled: {},
}

// KnownStrategy reports whether tag belongs to the registry.
func KnownStrategy(tag string) bool {
	_, ok := strategyRegistry[tag]
	return ok
}

// TradeIntent is what a strategy hands to the router: a desire to trade,
// with no venue attached yet. LimitPrice is optional; zero means trade at
// the best quoted price.
type TradeIntent struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"quantity"`
	LimitPrice float64 `json:"limitPrice,omitempty"`
	Strategy   string  `json:"strategy"`
}

func (i *TradeIntent) Validate() error {
	if !KnownStrategy(i.Strategy) {
		return ErrUnknownStrategy
	}

	if i.Side != models.SideBuy && i.Side != models.SideSell {
		return ErrInvalidRequest
	}

	if i.Quantity <= 0 || i.LimitPrice < 0 {
		return ErrInvalidRequest
	}

	return nil
}
