package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mongoMocks "tradebot/internal/repository/mongo/mocks"
	"tradebot/internal/repository/mongo/structs"
	pgMocks "tradebot/internal/repository/postgres/mocks"
	"tradebot/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type handlerMocks struct {
	app          *fiber.App
	tradeRepo    *pgMocks.TradeRepo
	settingsRepo *mongoMocks.SettingsRepo
}

func newHandlerMocks(t *testing.T) *handlerMocks {
	t.Helper()

	m := &handlerMocks{
		app:          fiber.New(),
		tradeRepo:    &pgMocks.TradeRepo{},
		settingsRepo: &mongoMocks.SettingsRepo{},
	}

	h := NewHandler(m.app, nil, nil, nil, m.tradeRepo, m.settingsRepo, logrus.New())

	m.app.Get("/api/trades", h.Trades)
	m.app.Patch("/api/settings", h.Settings)

	return m
}

func Test_Handler(t *testing.T) {
	t.Run("trades filter by time window", func(t *testing.T) {
		m := newHandlerMocks(t)

		from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

		m.tradeRepo.On("GetByInterval", from, to).
			Return([]models.Trade{{Symbol: "BTCUSD"}}, nil)

		req := httptest.NewRequest(fiber.MethodGet,
			"/api/trades?from=2026-08-01T00:00:00Z&to=2026-08-02T00:00:00Z", nil)

		resp, err := m.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		m.tradeRepo.AssertCalled(t, "GetByInterval", from, to)
	})

	t.Run("trades window with a bad bound is refused", func(t *testing.T) {
		m := newHandlerMocks(t)

		req := httptest.NewRequest(fiber.MethodGet,
			"/api/trades?from=2026-08-01T00:00:00Z&to=yesterday", nil)

		resp, err := m.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		m.tradeRepo.AssertNotCalled(t, "GetByInterval", mock.Anything, mock.Anything)
	})

	t.Run("trades without a filter is refused", func(t *testing.T) {
		m := newHandlerMocks(t)

		req := httptest.NewRequest(fiber.MethodGet, "/api/trades", nil)

		resp, err := m.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("settings patch flips the symbol status", func(t *testing.T) {
		m := newHandlerMocks(t)

		id := primitive.NewObjectID()
		m.settingsRepo.On("Load", "BTCUSD").
			Return(&structs.Settings{ID: id, Symbol: "BTCUSD"}, nil)
		m.settingsRepo.On("UpdateStatus", id, structs.Disabled).Return(nil)

		req := httptest.NewRequest(fiber.MethodPatch, "/api/settings",
			strings.NewReader(`{"symbol":"BTCUSD","status":"DISABLED"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		m.settingsRepo.AssertCalled(t, "UpdateStatus", id, structs.Disabled)
	})

	t.Run("settings patch rejects an unknown status", func(t *testing.T) {
		m := newHandlerMocks(t)

		req := httptest.NewRequest(fiber.MethodPatch, "/api/settings",
			strings.NewReader(`{"symbol":"BTCUSD","status":"PAUSED"}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		m.settingsRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})
}
