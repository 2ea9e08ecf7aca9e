package main

import (
	"net/http"

	"tradebot/internal/usecasees"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/ic2hrmk/promtail"
	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	Name       string
	Config     *Config
	LogRus     *logrus.Logger
	PromTail   promtail.Client
	HTTPClient *http.Client
	TGM        *tgbotapi.BotAPI
	DB         *sqlx.DB
	Mongo      *mongo.Client
	Fiber      *fiber.App
	Cron       *cron.Cron
	Metrics    *usecasees.Metrics
}
