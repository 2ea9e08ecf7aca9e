package usecasees

import (
	"context"
	"math"
	"sync"

	"tradebot/models"

	"github.com/ic2hrmk/promtail"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	return logger
}

func testPromTail() promtail.Client {
	client, _ := promtail.NewJSONv1Client("localhost:3100", map[string]string{
		"instanceId": "test",
	})

	return client
}

// fakeGateway is a scriptable venue for engine, router and tracker tests.
type fakeGateway struct {
	mu sync.Mutex

	venue string

	quote    *models.PriceQuote
	quoteErr error

	placeFn func(params PlaceParams) (*Placement, error)
	placed  []PlaceParams

	cancelErr error
	cancelled []string

	balance    float64
	balanceErr error

	positions    []models.Position
	positionsErr error
}

func (f *fakeGateway) Venue() string {
	return f.venue
}

func (f *fakeGateway) Ticker(_ context.Context, symbol string) (*models.PriceQuote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}

	if f.quote == nil {
		return nil, ErrNoRoute
	}

	q := *f.quote
	q.Venue = f.venue
	q.Symbol = symbol

	return &q, nil
}

func (f *fakeGateway) RoundPrice(_ context.Context, _ string, price float64) float64 {
	return math.Round(price*100) / 100
}

func (f *fakeGateway) PlaceOrder(_ context.Context, params PlaceParams) (*Placement, error) {
	f.mu.Lock()
	f.placed = append(f.placed, params)
	f.mu.Unlock()

	if f.placeFn != nil {
		return f.placeFn(params)
	}

	return &Placement{
		VenueOrderID: "v-" + params.ClOrdID,
		Status:       "Filled",
		FilledQty:    params.Quantity,
		AvgPrice:     params.Price,
	}, nil
}

func (f *fakeGateway) CancelOrder(_ context.Context, _, venueOrderID string) error {
	f.mu.Lock()
	f.cancelled = append(f.cancelled, venueOrderID)
	f.mu.Unlock()

	return f.cancelErr
}

func (f *fakeGateway) FetchBalance(_ context.Context) (float64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeGateway) FetchPositions(_ context.Context) ([]models.Position, error) {
	if f.positionsErr != nil {
		return nil, f.positionsErr
	}

	return f.positions, nil
}

func (f *fakeGateway) placedOrders() []PlaceParams {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]PlaceParams, len(f.placed))
	copy(out, f.placed)

	return out
}

func (f *fakeGateway) cancelledOrders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.cancelled))
	copy(out, f.cancelled)

	return out
}
