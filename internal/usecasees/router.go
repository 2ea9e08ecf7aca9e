package usecasees

import (
	"context"
	"time"

	"tradebot/internal/controllers"
	"tradebot/models"

	"github.com/ic2hrmk/promtail"
	"github.com/sirupsen/logrus"
)

const (
	// Spread between venues above this fraction is logged as a potential
	// arbitrage signal; routing itself does not act on it. Used when no
	// threshold is configured.
	defaultArbThreshold = 0.002

	quoteFreshWindow = 5 * time.Second
)

// SmartOrderRouter picks the venue with the best executable price for an
// intent and dispatches an IOC limit order at that price through the
// execution engine.
type SmartOrderRouter struct {
	gateways     []OrderGateway
	primaryVenue string

	engine *OrderExecutionEngine
	feed   *controllers.FeedController

	arbThreshold float64

	metrics *Metrics

	logRus   *logrus.Logger
	promTail promtail.Client
}

func NewSmartOrderRouter(
	gateways []OrderGateway,
	primaryVenue string,
	engine *OrderExecutionEngine,
	feed *controllers.FeedController,
	arbThreshold float64,
	metrics *Metrics,
	logRus *logrus.Logger,
	promTail promtail.Client,
) *SmartOrderRouter {
	if arbThreshold <= 0 {
		arbThreshold = defaultArbThreshold
	}

	return &SmartOrderRouter{
		gateways:     gateways,
		primaryVenue: primaryVenue,
		engine:       engine,
		feed:         feed,
		arbThreshold: arbThreshold,
		metrics:      metrics,
		logRus:       logRus,
		promTail:     promTail,
	}
}

type venueQuote struct {
	gateway OrderGateway
	quote   *models.PriceQuote
}

// Route resolves the best venue for intent and submits an IOC limit order
// there. It returns the submitted order's handle so the caller can await
// completion.
func (r *SmartOrderRouter) Route(ctx context.Context, intent *TradeIntent) (*OrderHandle, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	quotes := r.collectQuotes(ctx, intent.Symbol)
	if len(quotes) == 0 {
		r.metrics.Inc(MetricRouteMissed)
		return nil, ErrNoRoute
	}

	r.logSpread(intent.Symbol, quotes)

	best, price := r.pickBest(intent.Side, quotes)
	if best == nil {
		r.metrics.Inc(MetricRouteMissed)
		return nil, ErrNoRoute
	}

	// An explicit limit price caps the order; venue choice still follows
	// the quotes.
	if intent.LimitPrice > 0 {
		price = intent.LimitPrice
	}

	order := &models.Order{
		ID:       models.NewOrderID(),
		Symbol:   intent.Symbol,
		Side:     intent.Side,
		Type:     models.TypeIOC,
		Quantity: intent.Quantity,
		Price:    best.gateway.RoundPrice(ctx, intent.Symbol, price),
		Strategy: intent.Strategy,
		Venue:    best.gateway.Venue(),
	}

	handle, err := r.engine.Submit(order)
	if err != nil {
		return nil, err
	}

	r.metrics.Inc(MetricRouteDispatched)
	r.logRus.Infof("routed %s %s %.8f to %s at %.4f",
		order.Side, order.Symbol, order.Quantity, order.Venue, order.Price)

	return handle, nil
}

// collectQuotes gathers one quote per venue, preferring the external feed
// queue, then each venue's stream cache, then REST. A venue that cannot
// produce a usable quote is skipped, so routing degrades to the venues
// still answering.
func (r *SmartOrderRouter) collectQuotes(ctx context.Context, symbol string) []venueQuote {
	fed := map[string]models.PriceQuote{}
	if r.feed != nil {
		fed = r.feed.Drain()
	}

	out := make([]venueQuote, 0, len(r.gateways))

	for _, gw := range r.gateways {
		if q, ok := fed[gw.Venue()+"/"+symbol]; ok && q.FresherThan(quoteFreshWindow) {
			quote := q
			out = append(out, venueQuote{gateway: gw, quote: &quote})

			continue
		}

		quote, err := gw.Ticker(ctx, symbol)
		if err != nil {
			r.logRus.WithError(err).Warnf("no quote from %s for %s", gw.Venue(), symbol)
			continue
		}

		out = append(out, venueQuote{gateway: gw, quote: quote})
	}

	return out
}

// pickBest returns the venue with the lowest ask for buys or the highest
// bid for sells. Exact ties go to the primary venue. Venues quoting a
// missing or non-positive price on the relevant side are excluded.
func (r *SmartOrderRouter) pickBest(side string, quotes []venueQuote) (*venueQuote, float64) {
	var best *venueQuote
	var bestPrice float64

	for i := range quotes {
		vq := &quotes[i]

		price := vq.quote.Ask
		if side == models.SideSell {
			price = vq.quote.Bid
		}

		if price <= 0 {
			continue
		}

		switch {
		case best == nil:
			best, bestPrice = vq, price
		case side == models.SideBuy && price < bestPrice:
			best, bestPrice = vq, price
		case side == models.SideSell && price > bestPrice:
			best, bestPrice = vq, price
		case price == bestPrice && vq.gateway.Venue() == r.primaryVenue:
			best = vq
		}
	}

	return best, bestPrice
}

// logSpread flags a cross-venue spread wide enough to matter.
func (r *SmartOrderRouter) logSpread(symbol string, quotes []venueQuote) {
	if len(quotes) < 2 {
		return
	}

	var lowAsk, highBid float64
	var lowAskVenue, highBidVenue string

	for _, vq := range quotes {
		if vq.quote.Ask > 0 && (lowAsk == 0 || vq.quote.Ask < lowAsk) {
			lowAsk = vq.quote.Ask
			lowAskVenue = vq.gateway.Venue()
		}

		if vq.quote.Bid > highBid {
			highBid = vq.quote.Bid
			highBidVenue = vq.gateway.Venue()
		}
	}

	if lowAsk <= 0 || highBid <= 0 {
		return
	}

	if spread := (highBid - lowAsk) / lowAsk; spread > r.arbThreshold {
		r.logRus.Infof("cross-venue spread on %s: buy %s %.4f / sell %s %.4f (%.4f%%)",
			symbol, lowAskVenue, lowAsk, highBidVenue, highBid, spread*100)
		r.promTail.Infof("cross-venue spread on %s: %.4f%%", symbol, spread*100)
	}
}
