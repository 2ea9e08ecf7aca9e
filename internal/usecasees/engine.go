package usecasees

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"tradebot/internal/controllers"
	"tradebot/models"

	"github.com/ic2hrmk/promtail"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// StatusTimeout is the caller-visible await outcome; the order itself
	// is never mutated by a caller timeout.
	StatusTimeout = "timeout"

	defaultAwaitTimeout  = 30 * time.Second
	defaultPendingLimit  = 30 * time.Second
	defaultStaleAfter    = 60 * time.Second
	defaultMonitorPeriod = 5 * time.Second

	queueCapacity = 1024
)

// ExecResult is the eventual outcome reported to the submitter.
type ExecResult struct {
	Status    string
	FilledQty float64
	AvgPrice  float64
	Reason    string
}

// OrderHandle lets the submitter await completion with its own timeout.
type OrderHandle struct {
	Order *models.Order
	done  chan ExecResult
}

// OrderGateway is the venue surface the engine and router need.
type OrderGateway interface {
	Venue() string
	Ticker(ctx context.Context, symbol string) (*models.PriceQuote, error)
	RoundPrice(ctx context.Context, symbol string, price float64) float64
	PlaceOrder(ctx context.Context, params PlaceParams) (*Placement, error)
	CancelOrder(ctx context.Context, symbol, venueOrderID string) error
	FetchBalance(ctx context.Context) (float64, error)
	FetchPositions(ctx context.Context) ([]models.Position, error)
}

type activeOrder struct {
	order *models.Order
	done  chan ExecResult

	stateMu  sync.Mutex
	inFlight bool
	settled  bool
}

// claim hands exclusive ownership of the order to one loop. It fails when
// the order already reached a terminal state or the other loop holds it,
// so a terminal transition can never be written twice.
func (a *activeOrder) claim() bool {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if a.settled || a.inFlight {
		return false
	}

	a.inFlight = true

	return true
}

// release returns a still-live order to shared supervision.
func (a *activeOrder) release() {
	a.stateMu.Lock()
	a.inFlight = false
	a.stateMu.Unlock()
}

// settle marks the order finalized; every later claim fails.
func (a *activeOrder) settle() {
	a.stateMu.Lock()
	a.settled = true
	a.inFlight = false
	a.stateMu.Unlock()
}

// OrderExecutionEngine owns the order state machine: a FIFO queue drained
// by a single worker, and an independent monitor for stuck and stale
// orders. The worker is the only writer of PENDING to PARTIALLY_FILLED /
// FILLED / REJECTED; the monitor is the only writer of PENDING to
// CANCELLED and of remainder resubmission. Each loop takes an order
// through its claim flag before touching it, so the two can never write
// terminal states concurrently. The engine mutex guards map membership
// only.
type OrderExecutionEngine struct {
	gateways map[string]OrderGateway

	queue chan *activeOrder

	mu     sync.Mutex
	active map[string]*activeOrder

	historyMu sync.Mutex
	history   []models.Order

	awaitTimeout  time.Duration
	pendingLimit  time.Duration
	staleAfter    time.Duration
	monitorPeriod time.Duration

	metrics       *Metrics
	tgmController controllers.TgmCtrl

	logRus   *logrus.Logger
	promTail promtail.Client
}

type EngineOption func(*OrderExecutionEngine)

func WithTimeouts(await, pending, stale, monitor time.Duration) EngineOption {
	return func(e *OrderExecutionEngine) {
		if await > 0 {
			e.awaitTimeout = await
		}
		if pending > 0 {
			e.pendingLimit = pending
		}
		if stale > 0 {
			e.staleAfter = stale
		}
		if monitor > 0 {
			e.monitorPeriod = monitor
		}
	}
}

func NewOrderExecutionEngine(
	gateways []OrderGateway,
	metrics *Metrics,
	tgmController controllers.TgmCtrl,
	logRus *logrus.Logger,
	promTail promtail.Client,
	opts ...EngineOption,
) *OrderExecutionEngine {
	byVenue := make(map[string]OrderGateway, len(gateways))
	for _, gw := range gateways {
		byVenue[gw.Venue()] = gw
	}

	e := &OrderExecutionEngine{
		gateways:      byVenue,
		queue:         make(chan *activeOrder, queueCapacity),
		active:        make(map[string]*activeOrder),
		awaitTimeout:  defaultAwaitTimeout,
		pendingLimit:  defaultPendingLimit,
		staleAfter:    defaultStaleAfter,
		monitorPeriod: defaultMonitorPeriod,
		metrics:       metrics,
		tgmController: tgmController,
		logRus:        logRus,
		promTail:      promTail,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start launches the worker and monitor loops; both exit when ctx is done.
func (e *OrderExecutionEngine) Start(ctx context.Context) {
	go e.worker(ctx)
	go e.monitor(ctx)
}

// Submit admits a fully-specified order to the FIFO. Duplicate ids are
// rejected before any venue traffic happens.
func (e *OrderExecutionEngine) Submit(order *models.Order) (*OrderHandle, error) {
	if order.ID == "" {
		order.ID = models.NewOrderID()
	}

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.LastUpdate = now
	order.Status = models.StatusPending

	entry := &activeOrder{
		order: order,
		done:  make(chan ExecResult, 1),
	}

	e.mu.Lock()
	if _, exists := e.active[order.ID]; exists {
		e.mu.Unlock()
		return nil, ErrDuplicateOrder
	}
	e.active[order.ID] = entry
	e.mu.Unlock()

	select {
	case e.queue <- entry:
	default:
		e.mu.Lock()
		delete(e.active, order.ID)
		e.mu.Unlock()

		return nil, fmt.Errorf("submission queue full: %s", order.ID)
	}

	return &OrderHandle{Order: order, done: entry.done}, nil
}

// Await blocks until the order completes or timeout elapses. A timeout
// yields StatusTimeout and leaves the order live under monitor supervision.
func (e *OrderExecutionEngine) Await(handle *OrderHandle, timeout time.Duration) ExecResult {
	if timeout <= 0 {
		timeout = e.awaitTimeout
	}

	select {
	case res := <-handle.done:
		return res
	case <-time.After(timeout):
		return ExecResult{Status: StatusTimeout, Reason: "completion wait elapsed"}
	}
}

func (e *OrderExecutionEngine) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case entry := <-e.queue:
			e.processGuarded(ctx, entry)
		}
	}
}

// processGuarded keeps one bad order from halting the engine.
func (e *OrderExecutionEngine) processGuarded(ctx context.Context, entry *activeOrder) {
	defer func() {
		if r := recover(); r != nil {
			e.logRus.Errorf("worker panic on order %s: %v\n%s", entry.order.ID, r, debug.Stack())
			e.promTail.Errorf("worker panic on order %s: %v", entry.order.ID, r)
		}
	}()

	e.process(ctx, entry)
}

func (e *OrderExecutionEngine) process(ctx context.Context, entry *activeOrder) {
	// The monitor may have cancelled the order while it sat in the queue.
	if !entry.claim() {
		return
	}
	defer entry.release()

	order := entry.order

	gw, ok := e.gateways[order.Venue]
	if !ok {
		order.Status = models.StatusRejected
		order.LastUpdate = time.Now()
		e.complete(entry, ExecResult{Status: "rejected", Reason: "unknown venue " + order.Venue})

		return
	}

	params := PlaceParams{
		Symbol:   order.Symbol,
		ClOrdID:  order.ID,
		Side:     order.Side,
		Type:     order.Type,
		Quantity: order.Remaining(),
		Price:    order.Price,
	}
	if order.Type == models.TypeIOC {
		params.TimeInForce = "IOC"
	}

	placement, err := gw.PlaceOrder(ctx, params)
	if err != nil {
		if IsInvalidRequest(err) {
			e.reject(entry, err)
			return
		}

		// Transient failure or venue silence: the order stays PENDING in
		// the active set; the monitor cancels it if it never resolves.
		e.logRus.WithError(err).Warnf("placement unresolved for %s, left to monitor", order.ID)
		e.promTail.Warnf("placement unresolved for %s: %v", order.ID, err)

		return
	}

	order.VenueOrderID = placement.VenueOrderID
	order.LastUpdate = time.Now()

	switch {
	case placement.FilledQty >= order.Quantity-1e-12:
		order.FilledQty = order.Quantity
		order.AvgFillPrice = placement.AvgPrice
		order.Status = models.StatusFilled
		e.complete(entry, ExecResult{
			Status:    "filled",
			FilledQty: order.FilledQty,
			AvgPrice:  order.AvgFillPrice,
		})

	case placement.FilledQty > 0:
		e.recordPartial(ctx, entry, placement)

	case placement.Status == "Canceled":
		// IOC that found no liquidity at the limit; handled like a venue
		// rejection including the single market fallback.
		e.reject(entry, errors.New("ioc expired unfilled"))

	default:
		// Resting on the venue book; monitor owns it from here.
	}
}

// recordPartial books the partial fill and spawns a child order for the
// remainder. The original order is never resized, preserving the fill
// chain audit trail.
func (e *OrderExecutionEngine) recordPartial(ctx context.Context, entry *activeOrder, placement *Placement) {
	order := entry.order

	// A plain limit leaves its remainder resting on the venue book; cancel
	// it there so the resubmitted remainder cannot double the exposure.
	if order.Type == models.TypeLimit && placement.VenueOrderID != "" {
		if gw, ok := e.gateways[order.Venue]; ok {
			if err := gw.CancelOrder(ctx, order.Symbol, placement.VenueOrderID); err != nil {
				e.logRus.WithError(err).Warnf("remainder cancel failed for %s", order.ID)
			}
		}
	}

	order.FilledQty = placement.FilledQty
	order.AvgFillPrice = placement.AvgPrice
	order.Status = models.StatusPartiallyFilled
	order.LastUpdate = time.Now()

	child := e.spawnRemainder(order, entry.done)

	e.metrics.Inc(MetricOrderPartialFill)
	e.logRus.Infof("partial fill %s: %.8f of %.8f, remainder %s",
		order.ID, order.FilledQty, order.Quantity, child.ID)

	e.finish(entry)
}

// spawnRemainder creates and enqueues a new order for the unfilled
// remainder, inheriting the strategy tag and the submitter's result
// channel so the caller observes the chain's final outcome.
func (e *OrderExecutionEngine) spawnRemainder(parent *models.Order, done chan ExecResult) *models.Order {
	child := &models.Order{
		ID:         models.NewOrderID(),
		Symbol:     parent.Symbol,
		Side:       parent.Side,
		Type:       parent.Type,
		Quantity:   parent.Remaining(),
		Price:      parent.Price,
		Strategy:   parent.Strategy,
		Venue:      parent.Venue,
		ParentID:   parent.ID,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
		LastUpdate: time.Now(),
	}

	childEntry := &activeOrder{order: child, done: done}

	e.mu.Lock()
	e.active[child.ID] = childEntry
	e.mu.Unlock()

	select {
	case e.queue <- childEntry:
	default:
		e.logRus.Errorf("queue full, remainder %s dropped from schedule", child.ID)
		e.mu.Lock()
		delete(e.active, child.ID)
		e.mu.Unlock()
	}

	return child
}

// reject finalizes a venue rejection; a non-market original gets exactly
// one market fallback so a bad limit price cannot loop forever.
func (e *OrderExecutionEngine) reject(entry *activeOrder, cause error) {
	order := entry.order

	order.Status = models.StatusRejected
	order.LastUpdate = time.Now()
	e.metrics.Inc(MetricOrderRejected)

	if order.Type == models.TypeMarket {
		e.complete(entry, ExecResult{Status: "rejected", Reason: cause.Error()})
		return
	}

	e.logRus.WithError(cause).Warnf("order %s rejected, falling back to market", order.ID)
	e.promTail.Warnf("order %s rejected, market fallback: %v", order.ID, cause)

	fallback := &models.Order{
		ID:         models.NewOrderID(),
		Symbol:     order.Symbol,
		Side:       order.Side,
		Type:       models.TypeMarket,
		Quantity:   order.Remaining(),
		Strategy:   order.Strategy,
		Venue:      order.Venue,
		ParentID:   order.ID,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
		LastUpdate: time.Now(),
	}

	fallbackEntry := &activeOrder{order: fallback, done: entry.done}

	e.mu.Lock()
	e.active[fallback.ID] = fallbackEntry
	e.mu.Unlock()

	select {
	case e.queue <- fallbackEntry:
		e.finish(entry)
	default:
		e.mu.Lock()
		delete(e.active, fallback.ID)
		e.mu.Unlock()
		e.complete(entry, ExecResult{Status: "rejected", Reason: cause.Error()})
	}
}

func (e *OrderExecutionEngine) monitor(ctx context.Context) {
	ticker := time.NewTicker(e.monitorPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepGuarded(ctx)
		}
	}
}

func (e *OrderExecutionEngine) sweepGuarded(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logRus.Errorf("monitor panic: %v\n%s", r, debug.Stack())
			e.promTail.Errorf("monitor panic: %v", r)
		}
	}()

	e.sweep(ctx)
}

func (e *OrderExecutionEngine) sweep(ctx context.Context) {
	now := time.Now()

	e.mu.Lock()
	snapshot := make([]*activeOrder, 0, len(e.active))
	for _, entry := range e.active {
		snapshot = append(snapshot, entry)
	}
	e.mu.Unlock()

	for _, entry := range snapshot {
		// An unclaimable order is either mid-placement on the worker or
		// already finalized; either way it is not the monitor's to touch.
		if !entry.claim() {
			continue
		}

		order := entry.order

		switch {
		case order.Status == models.StatusPending && now.Sub(order.CreatedAt) >= e.pendingLimit:
			e.cancelStuck(ctx, entry)

		case order.Status == models.StatusPartiallyFilled && now.Sub(order.LastUpdate) >= e.staleAfter:
			e.refreshStale(ctx, entry)

		default:
			entry.release()
		}
	}
}

// cancelStuck issues a venue cancel for an order that outlived the pending
// window and finalizes it as CANCELLED.
func (e *OrderExecutionEngine) cancelStuck(ctx context.Context, entry *activeOrder) {
	order := entry.order

	if gw, ok := e.gateways[order.Venue]; ok && order.VenueOrderID != "" {
		if err := gw.CancelOrder(ctx, order.Symbol, order.VenueOrderID); err != nil {
			e.logRus.WithError(err).Warnf("venue cancel failed for %s", order.ID)
		}
	}

	order.Status = models.StatusCancelled
	order.LastUpdate = time.Now()
	e.metrics.Inc(MetricOrderCancelled)

	e.complete(entry, ExecResult{
		Status:    "cancelled",
		FilledQty: order.FilledQty,
		AvgPrice:  order.AvgFillPrice,
		Reason:    "pending past timeout",
	})
}

// refreshStale protects against a resting remainder going stale in a
// moving market: cancel at the venue, then resubmit the remainder fresh.
func (e *OrderExecutionEngine) refreshStale(ctx context.Context, entry *activeOrder) {
	order := entry.order

	if gw, ok := e.gateways[order.Venue]; ok && order.VenueOrderID != "" {
		if err := gw.CancelOrder(ctx, order.Symbol, order.VenueOrderID); err != nil {
			e.logRus.WithError(err).Warnf("stale remainder cancel failed for %s", order.ID)
			entry.release()

			return
		}
	}

	child := e.spawnRemainder(order, entry.done)
	e.logRus.Infof("stale order %s refreshed as %s", order.ID, child.ID)

	e.finish(entry)
}

// finish retires an order from the active set without delivering a result;
// its fill chain continues in a child order.
func (e *OrderExecutionEngine) finish(entry *activeOrder) {
	entry.settle()

	e.mu.Lock()
	delete(e.active, entry.order.ID)
	e.mu.Unlock()

	e.appendHistory(entry.order)
}

// complete retires an order and delivers its terminal outcome.
func (e *OrderExecutionEngine) complete(entry *activeOrder, res ExecResult) {
	entry.settle()

	e.mu.Lock()
	delete(e.active, entry.order.ID)
	e.mu.Unlock()

	e.appendHistory(entry.order)

	select {
	case entry.done <- res:
	default:
	}

	order := entry.order

	if res.Status == "filled" {
		e.metrics.Inc(MetricOrderFilled)
	}

	e.logRus.Infof("order %s %s %s %.8f@%.4f -> %s (%s)",
		order.ID, order.Side, order.Symbol, order.Quantity, order.Price, res.Status, res.Reason)

	if err := e.tgmController.Send(fmt.Sprintf("[ Order %s ]\n%s %s\nqty:\t%.8f\nprice:\t%.4f\nreason:\t%s",
		res.Status, order.Side, order.Symbol, order.Quantity, order.Price, res.Reason)); err != nil {
		e.logRus.WithError(err).Debug("telegram notify failed")
	}
}

func (e *OrderExecutionEngine) appendHistory(order *models.Order) {
	e.historyMu.Lock()
	e.history = append(e.history, *order)
	e.historyMu.Unlock()
}

// ActiveOrders snapshots the live order set for the status API.
func (e *OrderExecutionEngine) ActiveOrders() []models.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.Order, 0, len(e.active))
	for _, entry := range e.active {
		out = append(out, *entry.order)
	}

	return out
}

// History returns the completed-order audit trail.
func (e *OrderExecutionEngine) History() []models.Order {
	e.historyMu.Lock()
	defer e.historyMu.Unlock()

	out := make([]models.Order, len(e.history))
	copy(out, e.history)

	return out
}
