package main

import (
	"context"
	"flag"
	"strconv"

	httpAPI "tradebot/internal/api/http"
	"tradebot/internal/controllers"
	mongoRepo "tradebot/internal/repository/mongo"
	pgRepo "tradebot/internal/repository/postgres"
	"tradebot/internal/usecasees"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
)

var watchSymbols = []string{"BTCUSD", "ETHUSD"}

func main() {
	var app App
	var confFileName string

	flag.StringVar(&confFileName, "config", ".env", "")
	flag.Parse()

	app.Name = "tradebot"

	if err := app.loadConfig(confFileName); err != nil {
		panic(err)
	}

	app.initLogRus()

	if err := app.initPromTail(); err != nil {
		panic(err)
	}

	if err := app.initTgBot(); err != nil {
		panic(err)
	}

	if err := app.initDB(app.Config.DB); err != nil {
		panic(err)
	}

	if err := app.initMongo(); err != nil {
		panic(err)
	}

	app.initHTTPClient()
	app.initMetrics()

	chatId, err := strconv.ParseInt(app.Config.TelegramChatID, 10, 64)
	if err != nil {
		panic(err)
	}

	tradeRepo := pgRepo.NewTradeRepository(app.DB)
	settingsRepo := mongoRepo.NewSettingsRepository(app.Mongo)

	if err := settingsRepo.SetDefault(); err != nil {
		app.LogRus.WithError(err).Error("settings seed failed")
	}

	tgmController := controllers.NewTgmController(app.TGM, chatId)
	cryptoController := controllers.NewCryptoController(app.Config.PrimaryVenue.SecretKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := controllers.NewFeedController(0)

	primaryGw := app.buildGateway(app.Config.PrimaryVenue, cryptoController)
	gateways := []usecasees.OrderGateway{primaryGw}

	var secondaryGw *usecasees.ExchangeGateway
	if app.Config.SecondaryVenue != nil {
		secondaryCrypto := controllers.NewCryptoController(app.Config.SecondaryVenue.SecretKey)
		secondaryGw = app.buildGateway(app.Config.SecondaryVenue, secondaryCrypto)
		gateways = append(gateways, secondaryGw)
	}

	engine := usecasees.NewOrderExecutionEngine(
		gateways,
		app.Metrics,
		tgmController,
		app.LogRus,
		app.PromTail,
		usecasees.WithTimeouts(app.Config.OrderAwaitTimeout, 0, 0, 0),
	)
	engine.Start(ctx)

	router := usecasees.NewSmartOrderRouter(
		gateways,
		app.Config.PrimaryVenue.Name,
		engine,
		feed,
		app.Config.ArbThresholdPct,
		app.Metrics,
		app.LogRus,
		app.PromTail,
	)

	riskCfg := usecasees.RiskConfig{
		StopLossPct:     app.Config.Risk.StopLossPct,
		TakeProfitPct:   app.Config.Risk.TakeProfitPct,
		MaxDuration:     app.Config.Risk.MaxDuration,
		Leverage:        app.Config.Risk.Leverage,
		MaxPositionSize: app.Config.Risk.MaxPositionSize,
	}

	tracker := usecasees.NewPositionRiskTracker(
		engine,
		gateways,
		settingsRepo,
		tradeRepo,
		riskCfg,
		app.Metrics,
		tgmController,
		app.LogRus,
		app.PromTail,
	)

	app.streamVenue(ctx, app.Config.PrimaryVenue, primaryGw, feed, tracker)
	if secondaryGw != nil {
		app.streamVenue(ctx, app.Config.SecondaryVenue, secondaryGw, feed, tracker)
	}

	if err := tracker.Sync(ctx); err != nil {
		app.LogRus.WithError(err).Warn("initial balance sync failed")
	}

	if err := tracker.Reconcile(ctx); err != nil {
		app.LogRus.WithError(err).Warn("initial reconcile failed")
	}

	app.Cron = cron.New()

	if _, err := app.Cron.AddFunc("@every 15s", func() { tracker.ManageRisk(ctx) }); err != nil {
		panic(err)
	}

	if _, err := app.Cron.AddFunc("@every 1m", func() {
		if err := tracker.Reconcile(ctx); err != nil {
			app.LogRus.WithError(err).Warn("reconcile failed")
		}
	}); err != nil {
		panic(err)
	}

	if _, err := app.Cron.AddFunc("@every 5m", func() {
		if err := tracker.Sync(ctx); err != nil {
			app.LogRus.WithError(err).Warn("balance sync failed")
		}
	}); err != nil {
		panic(err)
	}

	if _, err := app.Cron.AddFunc("@daily", func() {
		if err := tgmController.Send(tracker.Report()); err != nil {
			app.LogRus.WithError(err).Warn("report send failed")
		}
	}); err != nil {
		panic(err)
	}

	app.Cron.Start()
	defer app.Cron.Stop()

	app.Fiber = fiber.New()
	httpAPI.RegisterHTTPEndpoints(app.Fiber, router, engine, tracker, tradeRepo, settingsRepo, app.LogRus)

	if err := app.Fiber.Listen(":" + app.Config.HTTPPort); err != nil {
		app.LogRus.WithError(err).Fatal("http server stopped")
	}
}

func (a *App) buildGateway(venue *Venue, crypto controllers.CryptoCtrl) *usecasees.ExchangeGateway {
	clientController := controllers.NewClientController(
		a.HTTPClient,
		venue.ApiKey,
		a.LogRus,
	)

	return usecasees.NewExchangeGateway(
		venue.Name,
		venue.URL,
		clientController,
		crypto,
		a.Config.VenueMaxInflight,
		float64(a.Config.VenueMaxRPS),
		usecasees.DefaultRetryPolicy(),
		a.LogRus,
	)
}

// streamVenue fans one venue's ticker stream into the router feed, the
// gateway quote cache and the risk tracker.
func (a *App) streamVenue(
	ctx context.Context,
	venue *Venue,
	gateway *usecasees.ExchangeGateway,
	feed *controllers.FeedController,
	tracker *usecasees.PositionRiskTracker,
) {
	if venue.WSUrl == "" {
		return
	}

	stream := controllers.NewStreamController(venue.WSUrl, venue.Name, a.LogRus)

	quotes, stop, err := stream.Subscribe(ctx, watchSymbols)
	if err != nil {
		a.LogRus.WithError(err).Warnf("stream unavailable for %s, REST only", venue.Name)
		return
	}

	go func() {
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case q, ok := <-quotes:
				if !ok {
					return
				}

				gateway.ApplyQuote(q)
				feed.Push(q)
				tracker.ApplyTick(ctx, &q)
			}
		}
	}()
}
