package usecasees

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradebot/internal/controllers"
	mongoRepo "tradebot/internal/repository/mongo"
	pgRepo "tradebot/internal/repository/postgres"
	"tradebot/models"

	"github.com/ic2hrmk/promtail"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	ExitReasonLiquidation = "liquidation risk"
	ExitReasonStopLoss    = "stop_loss"
	ExitReasonTakeProfit  = "take_profit"
	ExitReasonDuration    = "max_duration"
	ExitReasonManual      = "manual"

	balanceSyncInterval = 300 * time.Second

	// Exits fire a hair before the venue's own liquidation engine would.
	liquidationBuffer = 0.005
)

// RiskConfig carries the process-wide defaults; per-symbol overrides come
// from the settings repository.
type RiskConfig struct {
	StopLossPct   float64
	TakeProfitPct float64
	MaxDuration   time.Duration
	Leverage      float64

	// MaxPositionSize of zero means unbounded.
	MaxPositionSize float64
}

func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		StopLossPct:   0.01,
		TakeProfitPct: 0.02,
		MaxDuration:   time.Hour,
		Leverage:      5,
	}
}

// PositionRiskTracker owns the open-position book: entries, exits, the
// protective-exit sweep, venue reconciliation and the balance baseline
// behind daily pnl.
type PositionRiskTracker struct {
	engine   *OrderExecutionEngine
	gateways []OrderGateway

	settingsRepo mongoRepo.SettingsRepo
	tradeRepo    pgRepo.TradeRepo

	cfg RiskConfig

	mu        sync.Mutex
	positions map[string]*models.Position

	balanceMu    sync.Mutex
	balance      float64
	baseline     float64
	baselineSet  bool
	lastSync     time.Time
	wins, losses int

	metrics       *Metrics
	tgmController controllers.TgmCtrl

	logRus   *logrus.Logger
	promTail promtail.Client
}

func NewPositionRiskTracker(
	engine *OrderExecutionEngine,
	gateways []OrderGateway,
	settingsRepo mongoRepo.SettingsRepo,
	tradeRepo pgRepo.TradeRepo,
	cfg RiskConfig,
	metrics *Metrics,
	tgmController controllers.TgmCtrl,
	logRus *logrus.Logger,
	promTail promtail.Client,
) *PositionRiskTracker {
	return &PositionRiskTracker{
		engine:        engine,
		gateways:      gateways,
		settingsRepo:  settingsRepo,
		tradeRepo:     tradeRepo,
		cfg:           cfg,
		positions:     make(map[string]*models.Position),
		metrics:       metrics,
		tgmController: tgmController,
		logRus:        logRus,
		promTail:      promTail,
	}
}

// riskFor resolves the thresholds for a symbol, falling back to the
// process defaults when no override document exists.
func (t *PositionRiskTracker) riskFor(symbol string) RiskConfig {
	cfg := t.cfg

	if t.settingsRepo == nil {
		return cfg
	}

	settings, err := t.settingsRepo.Load(symbol)
	if err != nil {
		t.logRus.WithError(err).Debugf("no risk override for %s", symbol)
		return cfg
	}

	if settings.StopLossPct > 0 {
		cfg.StopLossPct = settings.StopLossPct
	}

	if settings.TakeProfitPct > 0 {
		cfg.TakeProfitPct = settings.TakeProfitPct
	}

	if settings.MaxDurationSec > 0 {
		cfg.MaxDuration = time.Duration(settings.MaxDurationSec) * time.Second
	}

	if settings.Leverage > 0 {
		cfg.Leverage = settings.Leverage
	}

	if settings.MaxPositionSize > 0 {
		cfg.MaxPositionSize = settings.MaxPositionSize
	}

	return cfg
}

// RecordEntry books a freshly opened position and derives its protective
// levels. An existing position on the same symbol is replaced.
func (t *PositionRiskTracker) RecordEntry(pos *models.Position) error {
	if !KnownStrategy(pos.Strategy) {
		return ErrUnknownStrategy
	}

	cfg := t.riskFor(pos.Symbol)

	// Adopted positions already exist on the venue, so the size cap only
	// guards fresh entries.
	if cfg.MaxPositionSize > 0 && pos.Size > cfg.MaxPositionSize &&
		pos.Strategy != models.StrategyReconciled {
		return errors.Wrapf(ErrInvalidRequest,
			"size %.8f exceeds limit %.8f for %s", pos.Size, cfg.MaxPositionSize, pos.Symbol)
	}

	if pos.EntryTime.IsZero() {
		pos.EntryTime = time.Now()
	}

	if pos.Side == models.PositionLong {
		pos.StopLoss = pos.EntryPrice * (1 - cfg.StopLossPct)
		pos.TakeProfit = pos.EntryPrice * (1 + cfg.TakeProfitPct)
	} else {
		pos.StopLoss = pos.EntryPrice * (1 + cfg.StopLossPct)
		pos.TakeProfit = pos.EntryPrice * (1 - cfg.TakeProfitPct)
	}

	if pos.LiquidationPrice == 0 && cfg.Leverage > 0 {
		if pos.Side == models.PositionLong {
			pos.LiquidationPrice = pos.EntryPrice * (1 - 1/cfg.Leverage)
		} else {
			pos.LiquidationPrice = pos.EntryPrice * (1 + 1/cfg.Leverage)
		}
	}

	t.mu.Lock()
	t.positions[pos.Symbol] = pos
	t.mu.Unlock()

	t.logRus.Infof("position opened %s %s %.8f@%.4f sl=%.4f tp=%.4f liq=%.4f [%s]",
		pos.Side, pos.Symbol, pos.Size, pos.EntryPrice,
		pos.StopLoss, pos.TakeProfit, pos.LiquidationPrice, pos.Strategy)

	return nil
}

// RecordExit closes the tracked position at exitPrice, books the realized
// pnl and appends the trade to the durable log.
func (t *PositionRiskTracker) RecordExit(symbol string, exitPrice float64, reason string) (float64, error) {
	t.mu.Lock()
	pos, ok := t.positions[symbol]
	if !ok {
		t.mu.Unlock()
		return 0, fmt.Errorf("no open position for %s", symbol)
	}
	delete(t.positions, symbol)
	t.mu.Unlock()

	pnl := positionPnl(pos, exitPrice)

	t.balanceMu.Lock()
	if pnl >= 0 {
		t.wins++
	} else {
		t.losses++
	}
	t.balanceMu.Unlock()

	trade := &models.Trade{
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		Size:       pos.Size,
		EntryPrice: pos.EntryPrice,
		EntryTime:  pos.EntryTime,
		ExitPrice:  exitPrice,
		ExitTime:   time.Now(),
		Pnl:        pnl,
		Strategy:   pos.Strategy,
		Reason:     reason,
	}

	if t.tradeRepo != nil {
		if err := t.tradeRepo.Store(trade); err != nil {
			t.logRus.WithError(err).Error("trade log append failed")
			t.promTail.Errorf("trade log append failed: %v", err)
		}
	}

	t.logRus.Infof("position closed %s %s %.8f entry=%.4f exit=%.4f pnl=%.6f reason=%s",
		pos.Side, pos.Symbol, pos.Size, pos.EntryPrice, exitPrice, pnl, reason)

	if err := t.tgmController.Send(fmt.Sprintf("[ Position closed ]\n%s %s\npnl:\t%.6f\nreason:\t%s",
		pos.Side, pos.Symbol, pnl, reason)); err != nil {
		t.logRus.WithError(err).Debug("telegram notify failed")
	}

	return pnl, nil
}

// positionPnl is signed from the position's perspective: a long profits
// when price rises, a short when it falls.
func positionPnl(pos *models.Position, exitPrice float64) float64 {
	move := (exitPrice - pos.EntryPrice) / pos.EntryPrice
	if pos.Side == models.PositionShort {
		move = -move
	}

	return move * pos.Size
}

// exitReason returns the first protective level breached by price, in
// severity order, or "" when the position is healthy.
func (t *PositionRiskTracker) exitReason(pos *models.Position, price float64, now time.Time) string {
	long := pos.Side == models.PositionLong

	if pos.LiquidationPrice > 0 {
		if long && price <= pos.LiquidationPrice*(1+liquidationBuffer) {
			return ExitReasonLiquidation
		}

		if !long && price >= pos.LiquidationPrice*(1-liquidationBuffer) {
			return ExitReasonLiquidation
		}
	}

	if long && price <= pos.StopLoss {
		return ExitReasonStopLoss
	}

	if !long && price >= pos.StopLoss {
		return ExitReasonStopLoss
	}

	if long && price >= pos.TakeProfit {
		return ExitReasonTakeProfit
	}

	if !long && price <= pos.TakeProfit {
		return ExitReasonTakeProfit
	}

	if cfg := t.riskFor(pos.Symbol); cfg.MaxDuration > 0 && now.Sub(pos.EntryTime) > cfg.MaxDuration {
		return ExitReasonDuration
	}

	return ""
}

// ApplyTick checks one position against a fresh price and fires the
// protective exit when a level is breached.
func (t *PositionRiskTracker) ApplyTick(ctx context.Context, quote *models.PriceQuote) {
	if quote == nil || quote.Last <= 0 {
		return
	}

	t.mu.Lock()
	pos, ok := t.positions[quote.Symbol]
	t.mu.Unlock()

	if !ok {
		return
	}

	if reason := t.exitReason(pos, quote.Last, time.Now()); reason != "" {
		t.closePosition(ctx, pos, quote.Last, reason)
	}
}

// ManageRisk sweeps every open position against the freshest venue price.
func (t *PositionRiskTracker) ManageRisk(ctx context.Context) {
	t.mu.Lock()
	open := make([]*models.Position, 0, len(t.positions))
	for _, pos := range t.positions {
		open = append(open, pos)
	}
	t.mu.Unlock()

	now := time.Now()

	for _, pos := range open {
		gw := t.gatewayFor(pos.Venue)
		if gw == nil {
			continue
		}

		quote, err := gw.Ticker(ctx, pos.Symbol)
		if err != nil || quote.Last <= 0 {
			t.logRus.WithError(err).Warnf("risk sweep has no price for %s", pos.Symbol)
			continue
		}

		if reason := t.exitReason(pos, quote.Last, now); reason != "" {
			t.closePosition(ctx, pos, quote.Last, reason)
		}
	}
}

// closePosition flattens pos with a market order and books the exit at the
// fill price when one is reported, else at the trigger price.
func (t *PositionRiskTracker) closePosition(ctx context.Context, pos *models.Position, triggerPrice float64, reason string) {
	t.logRus.Warnf("protective exit %s on %s %s at %.4f", reason, pos.Side, pos.Symbol, triggerPrice)
	t.promTail.Warnf("protective exit %s on %s %s at %.4f", reason, pos.Side, pos.Symbol, triggerPrice)
	t.metrics.Inc(MetricRiskExit)

	exitPrice := triggerPrice

	order := &models.Order{
		ID:       models.NewOrderID(),
		Symbol:   pos.Symbol,
		Side:     pos.CloseSide(),
		Type:     models.TypeMarket,
		Quantity: pos.Size,
		Strategy: pos.Strategy,
		Venue:    pos.Venue,
	}

	handle, err := t.engine.Submit(order)
	if err != nil {
		t.logRus.WithError(err).Errorf("exit order submit failed for %s", pos.Symbol)
	} else {
		if res := t.engine.Await(handle, 0); res.Status == "filled" && res.AvgPrice > 0 {
			exitPrice = res.AvgPrice
		}
	}

	if _, err := t.RecordExit(pos.Symbol, exitPrice, reason); err != nil {
		t.logRus.WithError(err).Warnf("exit bookkeeping failed for %s", pos.Symbol)
	}
}

func (t *PositionRiskTracker) gatewayFor(venue string) OrderGateway {
	for _, gw := range t.gateways {
		if gw.Venue() == venue {
			return gw
		}
	}

	if len(t.gateways) > 0 {
		return t.gateways[0]
	}

	return nil
}

// Reconcile aligns the local book with the venues: exchange positions we
// do not track are adopted under the reconciled tag, tracked positions the
// exchange no longer reports are dropped with a warning.
func (t *PositionRiskTracker) Reconcile(ctx context.Context) error {
	seen := make(map[string]struct{})
	synced := make(map[string]struct{})

	for _, gw := range t.gateways {
		remote, err := gw.FetchPositions(ctx)
		if err != nil {
			t.logRus.WithError(err).Warnf("reconcile skipped %s", gw.Venue())
			continue
		}

		synced[gw.Venue()] = struct{}{}

		for i := range remote {
			pos := remote[i]
			seen[pos.Symbol] = struct{}{}

			t.mu.Lock()
			_, tracked := t.positions[pos.Symbol]
			t.mu.Unlock()

			if tracked {
				continue
			}

			pos.Strategy = models.StrategyReconciled
			if err := t.RecordEntry(&pos); err != nil {
				t.logRus.WithError(err).Errorf("reconcile adopt failed for %s", pos.Symbol)
				continue
			}

			t.metrics.Inc(MetricReconcileAdopted)
			t.logRus.Warnf("adopted venue position %s %s %.8f@%.4f",
				pos.Side, pos.Symbol, pos.Size, pos.EntryPrice)
		}
	}

	t.mu.Lock()
	for symbol, pos := range t.positions {
		// A failed fetch says nothing about the position; dropping it would
		// take it out of the protective sweep on a venue hiccup.
		if _, ok := synced[pos.Venue]; !ok {
			continue
		}

		if _, ok := seen[symbol]; !ok {
			delete(t.positions, symbol)
			t.logRus.Warnf("dropped position %s: exchange no longer reports it", symbol)
			t.promTail.Warnf("dropped position %s: exchange no longer reports it", symbol)
		}
	}
	t.mu.Unlock()

	return nil
}

// Sync refreshes the account balance at most once per interval. The first
// successful sync of the process pins the daily-pnl baseline.
func (t *PositionRiskTracker) Sync(ctx context.Context) error {
	t.balanceMu.Lock()
	if !t.lastSync.IsZero() && time.Since(t.lastSync) < balanceSyncInterval {
		t.balanceMu.Unlock()
		return nil
	}
	t.balanceMu.Unlock()

	gw := t.gatewayFor("")
	if gw == nil {
		return ErrVenueUnavailable
	}

	balance, err := gw.FetchBalance(ctx)
	if err != nil {
		return err
	}

	t.balanceMu.Lock()
	t.balance = balance
	t.lastSync = time.Now()
	if !t.baselineSet {
		t.baseline = balance
		t.baselineSet = true
	}
	t.balanceMu.Unlock()

	return nil
}

// DailyPnl is the fractional balance move since the process baseline.
func (t *PositionRiskTracker) DailyPnl() float64 {
	t.balanceMu.Lock()
	defer t.balanceMu.Unlock()

	if !t.baselineSet || t.baseline == 0 {
		return 0
	}

	return t.balance/t.baseline - 1
}

func (t *PositionRiskTracker) Balance() float64 {
	t.balanceMu.Lock()
	defer t.balanceMu.Unlock()

	return t.balance
}

// OpenPositions snapshots the tracked book for the status API.
func (t *PositionRiskTracker) OpenPositions() []models.Position {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.Position, 0, len(t.positions))
	for _, pos := range t.positions {
		out = append(out, *pos)
	}

	return out
}

// Report summarizes the cycle for the telegram channel.
func (t *PositionRiskTracker) Report() string {
	t.balanceMu.Lock()
	wins, losses := t.wins, t.losses
	balance := t.balance
	t.balanceMu.Unlock()

	total := wins + losses
	winRate := 0.0
	if total > 0 {
		winRate = float64(wins) / float64(total)
	}

	return fmt.Sprintf("[ Cycle report ]\ntrades:\t%d\nwin rate:\t%.2f%%\nbalance:\t%.2f\ndaily pnl:\t%.4f%%",
		total, winRate*100, balance, t.DailyPnl()*100)
}
