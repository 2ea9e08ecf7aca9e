package http

import (
	"time"

	mongoRepo "tradebot/internal/repository/mongo"
	"tradebot/internal/repository/mongo/structs"
	"tradebot/internal/repository/postgres"
	"tradebot/internal/usecasees"
	"tradebot/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	fiber        *fiber.App
	orderRouter  *usecasees.SmartOrderRouter
	engine       *usecasees.OrderExecutionEngine
	tracker      *usecasees.PositionRiskTracker
	tradeRepo    postgres.TradeRepo
	settingsRepo mongoRepo.SettingsRepo
	logger       *logrus.Logger
}

func NewHandler(
	f *fiber.App,
	orderRouter *usecasees.SmartOrderRouter,
	engine *usecasees.OrderExecutionEngine,
	tracker *usecasees.PositionRiskTracker,
	tradeRepo postgres.TradeRepo,
	settingsRepo mongoRepo.SettingsRepo,
	l *logrus.Logger,
) *Handler {
	return &Handler{
		fiber:        f,
		orderRouter:  orderRouter,
		engine:       engine,
		tracker:      tracker,
		tradeRepo:    tradeRepo,
		settingsRepo: settingsRepo,
		logger:       l,
	}
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	body := struct {
		Status bool `json:"status"`
	}{
		Status: true,
	}

	if err := c.JSON(body); err != nil {
		return err
	}

	return nil
}

func (h *Handler) Status(c *fiber.Ctx) error {
	body := struct {
		Balance      float64           `json:"balance"`
		DailyPnl     float64           `json:"dailyPnl"`
		Positions    []models.Position `json:"positions"`
		ActiveOrders []models.Order    `json:"activeOrders"`
	}{
		Balance:      h.tracker.Balance(),
		DailyPnl:     h.tracker.DailyPnl(),
		Positions:    h.tracker.OpenPositions(),
		ActiveOrders: h.engine.ActiveOrders(),
	}

	if err := c.JSON(body); err != nil {
		return err
	}

	return nil
}

func (h *Handler) Orders(c *fiber.Ctx) error {
	if err := c.JSON(h.engine.History()); err != nil {
		return err
	}

	return nil
}

// Trades serves the closed-trade history, filtered either by symbol or by
// a from/to time window (RFC3339).
func (h *Handler) Trades(c *fiber.Ctx) error {
	var trades []models.Trade
	var err error

	switch {
	case c.Query("from") != "" || c.Query("to") != "":
		var from, to time.Time

		if from, err = time.Parse(time.RFC3339, c.Query("from")); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from: "+err.Error())
		}

		if to, err = time.Parse(time.RFC3339, c.Query("to")); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to: "+err.Error())
		}

		trades, err = h.tradeRepo.GetByInterval(from, to)

	case c.Query("symbol") != "":
		trades, err = h.tradeRepo.GetBySymbol(c.Query("symbol"))

	default:
		return fiber.NewError(fiber.StatusBadRequest, "symbol or from/to is required")
	}

	if err != nil {
		h.logger.WithError(err).Error("trade query failed")
		return fiber.ErrInternalServerError
	}

	if err := c.JSON(trades); err != nil {
		return err
	}

	return nil
}

// Settings flips a symbol's risk tracking on or off.
func (h *Handler) Settings(c *fiber.Ctx) error {
	var req struct {
		Symbol string `json:"symbol"`
		Status string `json:"status"`
	}

	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	status := structs.SymbolStatus(req.Status)
	if status != structs.Enabled && status != structs.Disabled {
		return fiber.NewError(fiber.StatusBadRequest, "status must be ENABLED or DISABLED")
	}

	settings, err := h.settingsRepo.Load(req.Symbol)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "unknown symbol "+req.Symbol)
	}

	if err := h.settingsRepo.UpdateStatus(settings.ID, status); err != nil {
		h.logger.WithError(err).Error("settings update failed")
		return fiber.ErrInternalServerError
	}

	if err := c.JSON(struct {
		Symbol string `json:"symbol"`
		Status string `json:"status"`
	}{Symbol: req.Symbol, Status: status.ToString()}); err != nil {
		return err
	}

	return nil
}

// Intent accepts a trade intent from an external strategy, routes it to
// the best venue and waits for the execution outcome.
func (h *Handler) Intent(c *fiber.Ctx) error {
	var intent usecasees.TradeIntent

	if err := c.BodyParser(&intent); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	handle, err := h.orderRouter.Route(c.Context(), &intent)
	if err != nil {
		h.logger.WithError(err).Warnf("intent refused for %s", intent.Symbol)
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	res := h.engine.Await(handle, 0)

	body := struct {
		OrderID   string  `json:"orderId"`
		Venue     string  `json:"venue"`
		Status    string  `json:"status"`
		FilledQty float64 `json:"filledQty"`
		AvgPrice  float64 `json:"avgPrice"`
		Reason    string  `json:"reason,omitempty"`
	}{
		OrderID:   handle.Order.ID,
		Venue:     handle.Order.Venue,
		Status:    res.Status,
		FilledQty: res.FilledQty,
		AvgPrice:  res.AvgPrice,
		Reason:    res.Reason,
	}

	if err := c.JSON(body); err != nil {
		return err
	}

	return nil
}
