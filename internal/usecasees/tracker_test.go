package usecasees

import (
	"context"
	"testing"
	"time"

	ctrlMocks "tradebot/internal/controllers/mocks"
	mongoMocks "tradebot/internal/repository/mongo/mocks"
	pgMocks "tradebot/internal/repository/postgres/mocks"
	"tradebot/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type trackerMocks struct {
	gw           *fakeGateway
	tracker      *PositionRiskTracker
	engine       *OrderExecutionEngine
	tradeRepo    *pgMocks.TradeRepo
	settingsRepo *mongoMocks.SettingsRepo
}

func newTrackerMocks(t *testing.T) *trackerMocks {
	t.Helper()

	gw := &fakeGateway{venue: "phemex"}

	tgmCtrl := &ctrlMocks.TgmCtrl{}
	tgmCtrl.On("Send", mock.AnythingOfType("string")).Return(nil)

	tradeRepo := &pgMocks.TradeRepo{}
	tradeRepo.On("Store", mock.AnythingOfType("*models.Trade")).Return(nil)

	settingsRepo := &mongoMocks.SettingsRepo{}
	settingsRepo.On("Load", mock.AnythingOfType("string")).
		Return(nil, errors.New("no documents"))

	engine := NewOrderExecutionEngine(
		[]OrderGateway{gw},
		nil,
		tgmCtrl,
		testLogger(),
		testPromTail(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	engine.Start(ctx)

	tracker := NewPositionRiskTracker(
		engine,
		[]OrderGateway{gw},
		settingsRepo,
		tradeRepo,
		DefaultRiskConfig(),
		nil,
		tgmCtrl,
		testLogger(),
		testPromTail(),
	)

	return &trackerMocks{
		gw:           gw,
		tracker:      tracker,
		engine:       engine,
		tradeRepo:    tradeRepo,
		settingsRepo: settingsRepo,
	}
}

func Test_PositionRiskTracker(t *testing.T) {
	t.Run("entry derives protective levels", func(t *testing.T) {
		m := newTrackerMocks(t)

		pos := &models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionLong,
			Size:       1,
			EntryPrice: 20000,
			Strategy:   "scalper",
			Venue:      "phemex",
		}

		require.NoError(t, m.tracker.RecordEntry(pos))

		assert.Equal(t, 19800.0, pos.StopLoss)
		assert.Equal(t, 20400.0, pos.TakeProfit)
		assert.Equal(t, 16000.0, pos.LiquidationPrice)
	})

	t.Run("unknown strategy cannot open a position", func(t *testing.T) {
		m := newTrackerMocks(t)

		err := m.tracker.RecordEntry(&models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionLong,
			Size:       1,
			EntryPrice: 20000,
			Strategy:   "mystery",
		})

		assert.ErrorIs(t, err, ErrUnknownStrategy)
	})

	t.Run("size cap refuses an oversized entry", func(t *testing.T) {
		m := newTrackerMocks(t)
		m.tracker.cfg.MaxPositionSize = 2

		err := m.tracker.RecordEntry(&models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionLong,
			Size:       3,
			EntryPrice: 20000,
			Strategy:   "scalper",
			Venue:      "phemex",
		})
		assert.ErrorIs(t, err, ErrInvalidRequest)

		reconciled := &models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionLong,
			Size:       3,
			EntryPrice: 20000,
			Strategy:   models.StrategyReconciled,
			Venue:      "phemex",
		}
		require.NoError(t, m.tracker.RecordEntry(reconciled))
	})

	t.Run("stop loss closes a long below the level", func(t *testing.T) {
		m := newTrackerMocks(t)

		pos := &models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionLong,
			Size:       1,
			EntryPrice: 20000,
			Strategy:   "scalper",
			Venue:      "phemex",
		}
		require.NoError(t, m.tracker.RecordEntry(pos))

		m.tracker.ApplyTick(context.Background(), &models.PriceQuote{
			Venue:     "phemex",
			Symbol:    "BTCUSD",
			Last:      19750,
			Timestamp: time.Now(),
		})

		assert.Empty(t, m.tracker.OpenPositions())

		placed := m.gw.placedOrders()
		require.Len(t, placed, 1)
		assert.Equal(t, models.SideSell, placed[0].Side)
		assert.Equal(t, models.TypeMarket, placed[0].Type)
		assert.Equal(t, 1.0, placed[0].Quantity)

		m.tradeRepo.AssertCalled(t, "Store", mock.MatchedBy(func(trade *models.Trade) bool {
			return trade.Reason == ExitReasonStopLoss &&
				assert.ObjectsAreEqual(-0.0125, trade.Pnl)
		}))
	})

	t.Run("liquidation outranks the stop loss", func(t *testing.T) {
		m := newTrackerMocks(t)

		pos := &models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionLong,
			Size:       1,
			EntryPrice: 20000,
			Strategy:   "scalper",
			Venue:      "phemex",
		}
		require.NoError(t, m.tracker.RecordEntry(pos))

		// Below both the stop (19800) and the liquidation level (16000).
		m.tracker.ApplyTick(context.Background(), &models.PriceQuote{
			Venue:     "phemex",
			Symbol:    "BTCUSD",
			Last:      15900,
			Timestamp: time.Now(),
		})

		m.tradeRepo.AssertCalled(t, "Store", mock.MatchedBy(func(trade *models.Trade) bool {
			return trade.Reason == ExitReasonLiquidation
		}))
	})

	t.Run("take profit closes a long above the level", func(t *testing.T) {
		m := newTrackerMocks(t)

		pos := &models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionLong,
			Size:       2,
			EntryPrice: 20000,
			Strategy:   "trend",
			Venue:      "phemex",
		}
		require.NoError(t, m.tracker.RecordEntry(pos))

		m.tracker.ApplyTick(context.Background(), &models.PriceQuote{
			Venue:     "phemex",
			Symbol:    "BTCUSD",
			Last:      20500,
			Timestamp: time.Now(),
		})

		m.tradeRepo.AssertCalled(t, "Store", mock.MatchedBy(func(trade *models.Trade) bool {
			return trade.Reason == ExitReasonTakeProfit && trade.Pnl > 0
		}))
	})

	t.Run("short side levels are mirrored", func(t *testing.T) {
		m := newTrackerMocks(t)

		pos := &models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionShort,
			Size:       1,
			EntryPrice: 20000,
			Strategy:   "scalper",
			Venue:      "phemex",
		}
		require.NoError(t, m.tracker.RecordEntry(pos))

		assert.Equal(t, 20200.0, pos.StopLoss)
		assert.Equal(t, 19600.0, pos.TakeProfit)

		m.tracker.ApplyTick(context.Background(), &models.PriceQuote{
			Venue:     "phemex",
			Symbol:    "BTCUSD",
			Last:      20250,
			Timestamp: time.Now(),
		})

		placed := m.gw.placedOrders()
		require.Len(t, placed, 1)
		assert.Equal(t, models.SideBuy, placed[0].Side)

		m.tradeRepo.AssertCalled(t, "Store", mock.MatchedBy(func(trade *models.Trade) bool {
			return trade.Reason == ExitReasonStopLoss && trade.Pnl < 0
		}))
	})

	t.Run("max duration exits a stale position", func(t *testing.T) {
		m := newTrackerMocks(t)

		pos := &models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionLong,
			Size:       1,
			EntryPrice: 20000,
			EntryTime:  time.Now().Add(-2 * time.Hour),
			Strategy:   "scalper",
			Venue:      "phemex",
		}
		require.NoError(t, m.tracker.RecordEntry(pos))

		// Healthy price, only the clock has run out.
		m.gw.quote = &models.PriceQuote{Bid: 19990, Ask: 20010, Last: 20000, Timestamp: time.Now()}
		m.tracker.ManageRisk(context.Background())

		m.tradeRepo.AssertCalled(t, "Store", mock.MatchedBy(func(trade *models.Trade) bool {
			return trade.Reason == ExitReasonDuration
		}))
	})

	t.Run("reconcile adopts and drops", func(t *testing.T) {
		m := newTrackerMocks(t)

		tracked := &models.Position{
			Symbol:     "ETHUSD",
			Side:       models.PositionLong,
			Size:       1,
			EntryPrice: 1500,
			Strategy:   "scalper",
			Venue:      "phemex",
		}
		require.NoError(t, m.tracker.RecordEntry(tracked))

		// The venue reports one position we do not know about and no longer
		// reports the one we track.
		m.gw.positions = []models.Position{{
			Symbol:     "BTCUSD",
			Side:       models.PositionShort,
			Size:       0.5,
			EntryPrice: 21000,
			Venue:      "phemex",
		}}

		require.NoError(t, m.tracker.Reconcile(context.Background()))

		open := m.tracker.OpenPositions()
		require.Len(t, open, 1)
		assert.Equal(t, "BTCUSD", open[0].Symbol)
		assert.Equal(t, models.StrategyReconciled, open[0].Strategy)
		assert.Greater(t, open[0].StopLoss, open[0].EntryPrice)
	})

	t.Run("reconcile keeps the book on a failed fetch", func(t *testing.T) {
		m := newTrackerMocks(t)

		tracked := &models.Position{
			Symbol:     "BTCUSD",
			Side:       models.PositionLong,
			Size:       1,
			EntryPrice: 20000,
			Strategy:   "scalper",
			Venue:      "phemex",
		}
		require.NoError(t, m.tracker.RecordEntry(tracked))

		m.gw.positionsErr = ErrVenueUnavailable

		require.NoError(t, m.tracker.Reconcile(context.Background()))

		open := m.tracker.OpenPositions()
		require.Len(t, open, 1)
		assert.Equal(t, "BTCUSD", open[0].Symbol)

		// Once the venue answers again and truly omits the position, the
		// drop proceeds as usual.
		m.gw.positionsErr = nil
		m.gw.positions = nil

		require.NoError(t, m.tracker.Reconcile(context.Background()))
		assert.Empty(t, m.tracker.OpenPositions())
	})

	t.Run("first sync pins the daily pnl baseline", func(t *testing.T) {
		m := newTrackerMocks(t)

		m.gw.balance = 1000
		require.NoError(t, m.tracker.Sync(context.Background()))
		assert.Equal(t, 0.0, m.tracker.DailyPnl())

		// Balance moves; the next sync is due once the interval elapsed.
		m.gw.balance = 1012.5
		m.tracker.lastSync = time.Now().Add(-10 * time.Minute)
		require.NoError(t, m.tracker.Sync(context.Background()))

		assert.InDelta(t, 0.0125, m.tracker.DailyPnl(), 1e-9)
		assert.Equal(t, 1012.5, m.tracker.Balance())
	})

	t.Run("sync is rate limited", func(t *testing.T) {
		m := newTrackerMocks(t)

		m.gw.balance = 1000
		require.NoError(t, m.tracker.Sync(context.Background()))

		m.gw.balance = 2000
		require.NoError(t, m.tracker.Sync(context.Background()))

		assert.Equal(t, 1000.0, m.tracker.Balance())
	})
}
