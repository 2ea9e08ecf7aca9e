package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string
	HTTPPort string

	TelegramApiToken string
	TelegramChatID   string

	PrimaryVenue   *Venue
	SecondaryVenue *Venue

	Risk *Risk

	OrderAwaitTimeout time.Duration
	VenueMaxInflight  int64
	VenueMaxRPS       int
	ArbThresholdPct   float64

	LokiAddress string

	DB    *DB
	Mongo *Mongo
}

type Risk struct {
	StopLossPct     float64
	TakeProfitPct   float64
	MaxDuration     time.Duration
	Leverage        float64
	MaxPositionSize float64
}

type Venue struct {
	Name      string
	URL       string
	WSUrl     string
	ApiKey    string
	SecretKey string
}

type DB struct {
	Host     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type Mongo struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

var ErrEnvNotFound = errors.New("err env not found")

func (a *App) loadConfig(confFileName string) error {
	var cfg Config
	var db DB
	var mongo Mongo

	err := godotenv.Load(confFileName)
	if err != nil {
		return err
	}

	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	cfg.HTTPPort = os.Getenv("HTTP_PORT")
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}

	if cfg.TelegramApiToken, err = cfg.set("TELEGRAM_API_TOKEN"); err != nil {
		return err
	}

	if cfg.TelegramChatID, err = cfg.set("TELEGRAM_CHAT_ID"); err != nil {
		return err
	}

	primary, err := cfg.venue("PRIMARY")
	if err != nil {
		return err
	}
	cfg.PrimaryVenue = primary

	// A second venue is optional; routing degrades to one venue without it.
	if os.Getenv("SECONDARY_VENUE_NAME") != "" {
		secondary, err := cfg.venue("SECONDARY")
		if err != nil {
			return err
		}
		cfg.SecondaryVenue = secondary
	}

	cfg.LokiAddress = os.Getenv("LOKI_ADDRESS")
	if cfg.LokiAddress == "" {
		cfg.LokiAddress = "loki:3100"
	}

	risk, err := cfg.risk()
	if err != nil {
		return err
	}
	cfg.Risk = risk

	awaitSec, err := cfg.setFloat("ORDER_AWAIT_TIMEOUT_SEC", 30)
	if err != nil {
		return err
	}
	cfg.OrderAwaitTimeout = time.Duration(awaitSec * float64(time.Second))

	inflight, err := cfg.setInt("VENUE_MAX_INFLIGHT", 10)
	if err != nil {
		return err
	}
	cfg.VenueMaxInflight = int64(inflight)

	if cfg.VenueMaxRPS, err = cfg.setInt("VENUE_MAX_RPS", 10); err != nil {
		return err
	}

	if cfg.ArbThresholdPct, err = cfg.setFloat("ARB_THRESHOLD_PCT", 0.002); err != nil {
		return err
	}

	if db.Host, err = cfg.set("PG_HOST"); err != nil {
		return err
	}

	if db.User, err = cfg.set("PG_USER"); err != nil {
		return err
	}

	if db.Password, err = cfg.set("PG_PASSWORD"); err != nil {
		return err
	}

	if db.DBName, err = cfg.set("PG_DBNAME"); err != nil {
		return err
	}

	if db.SSLMode, err = cfg.set("PG_SSL_MODE"); err != nil {
		return err
	}

	cfg.DB = &db

	if mongo.Host, err = cfg.set("MONGO_HOST"); err != nil {
		return err
	}

	if mongo.Port, err = cfg.set("MONGO_PORT"); err != nil {
		return err
	}

	if mongo.User, err = cfg.set("MONGO_USER"); err != nil {
		return err
	}

	if mongo.Password, err = cfg.set("MONGO_PASSWORD"); err != nil {
		return err
	}

	if mongo.DBName, err = cfg.set("MONGO_DBNAME"); err != nil {
		return err
	}

	cfg.Mongo = &mongo

	a.Config = &cfg

	return nil
}

func (c *Config) venue(prefix string) (*Venue, error) {
	var v Venue
	var err error

	if v.Name, err = c.set(prefix + "_VENUE_NAME"); err != nil {
		return nil, err
	}

	if v.URL, err = c.set(prefix + "_VENUE_URL"); err != nil {
		return nil, err
	}

	if v.ApiKey, err = c.set(prefix + "_VENUE_API_KEY"); err != nil {
		return nil, err
	}

	if v.SecretKey, err = c.set(prefix + "_VENUE_SECRET_KEY"); err != nil {
		return nil, err
	}

	v.WSUrl = os.Getenv(prefix + "_VENUE_WS_URL")

	return &v, nil
}

func (d *DB) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.User,
		d.Password,
		d.DBName,
		d.SSLMode)
}

func (m *Mongo) DSN() string {
	return fmt.Sprintf("mongodb://%s:%s", m.Host, m.Port)
}

func (c *Config) risk() (*Risk, error) {
	var r Risk
	var err error

	if r.StopLossPct, err = c.setFloat("RISK_STOP_LOSS_PCT", 0.01); err != nil {
		return nil, err
	}

	if r.TakeProfitPct, err = c.setFloat("RISK_TAKE_PROFIT_PCT", 0.02); err != nil {
		return nil, err
	}

	durationSec, err := c.setInt("RISK_MAX_DURATION_SEC", 3600)
	if err != nil {
		return nil, err
	}
	r.MaxDuration = time.Duration(durationSec) * time.Second

	if r.Leverage, err = c.setFloat("RISK_LEVERAGE", 5); err != nil {
		return nil, err
	}

	// Zero means no process-wide size cap.
	if r.MaxPositionSize, err = c.setFloat("RISK_MAX_POSITION_SIZE", 0); err != nil {
		return nil, err
	}

	return &r, nil
}

func (c *Config) set(key string) (string, error) {
	if os.Getenv(key) == "" {
		return "", ErrEnvNotFound
	}

	return os.Getenv(key), nil
}

func (c *Config) setFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return value, nil
}

func (c *Config) setInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return value, nil
}
