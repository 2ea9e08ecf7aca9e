package http

import (
	mongoRepo "tradebot/internal/repository/mongo"
	"tradebot/internal/repository/postgres"
	"tradebot/internal/usecasees"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func RegisterHTTPEndpoints(
	f *fiber.App,
	orderRouter *usecasees.SmartOrderRouter,
	engine *usecasees.OrderExecutionEngine,
	tracker *usecasees.PositionRiskTracker,
	tradeRepo postgres.TradeRepo,
	settingsRepo mongoRepo.SettingsRepo,
	l *logrus.Logger,
) {
	m := NewMiddleware(f)
	m.useMetrics()

	h := NewHandler(f, orderRouter, engine, tracker, tradeRepo, settingsRepo, l)

	router := f.Group("api")
	router.Get("/healthcheck", h.HealthCheck)
	router.Get("/status", h.Status)
	router.Get("/orders", h.Orders)
	router.Get("/trades", h.Trades)
	router.Post("/intent", h.Intent)
	router.Patch("/settings", h.Settings)
}
