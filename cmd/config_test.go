package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestEnv(t *testing.T) string {
	t.Helper()

	content := `LOG_LEVEL=debug
TELEGRAM_API_TOKEN=token
TELEGRAM_CHAT_ID=42
PRIMARY_VENUE_NAME=phemex
PRIMARY_VENUE_URL=https://api.phemex.test
PRIMARY_VENUE_API_KEY=key
PRIMARY_VENUE_SECRET_KEY=secret
PG_HOST=localhost
PG_USER=postgres
PG_PASSWORD=postgres
PG_DBNAME=tradebot
PG_SSL_MODE=disable
MONGO_HOST=localhost
MONGO_PORT=27017
MONGO_USER=root
MONGO_PASSWORD=root
MONGO_DBNAME=tradebot
`

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func Test_loadConfig(t *testing.T) {
	t.Run("unset tuning keys fall back to defaults", func(t *testing.T) {
		var app App

		require.NoError(t, app.loadConfig(writeTestEnv(t)))

		assert.Equal(t, "8080", app.Config.HTTPPort)
		assert.Nil(t, app.Config.SecondaryVenue)

		assert.Equal(t, 0.01, app.Config.Risk.StopLossPct)
		assert.Equal(t, 0.02, app.Config.Risk.TakeProfitPct)
		assert.Equal(t, time.Hour, app.Config.Risk.MaxDuration)
		assert.Equal(t, 5.0, app.Config.Risk.Leverage)
		assert.Equal(t, 0.0, app.Config.Risk.MaxPositionSize)

		assert.Equal(t, 30*time.Second, app.Config.OrderAwaitTimeout)
		assert.Equal(t, int64(10), app.Config.VenueMaxInflight)
		assert.Equal(t, 10, app.Config.VenueMaxRPS)
		assert.Equal(t, 0.002, app.Config.ArbThresholdPct)
	})

	t.Run("tuning keys override the defaults", func(t *testing.T) {
		t.Setenv("RISK_STOP_LOSS_PCT", "0.03")
		t.Setenv("RISK_TAKE_PROFIT_PCT", "0.06")
		t.Setenv("RISK_MAX_DURATION_SEC", "900")
		t.Setenv("RISK_LEVERAGE", "10")
		t.Setenv("RISK_MAX_POSITION_SIZE", "2.5")
		t.Setenv("ORDER_AWAIT_TIMEOUT_SEC", "12")
		t.Setenv("VENUE_MAX_INFLIGHT", "4")
		t.Setenv("VENUE_MAX_RPS", "25")
		t.Setenv("ARB_THRESHOLD_PCT", "0.01")

		var app App

		require.NoError(t, app.loadConfig(writeTestEnv(t)))

		assert.Equal(t, 0.03, app.Config.Risk.StopLossPct)
		assert.Equal(t, 0.06, app.Config.Risk.TakeProfitPct)
		assert.Equal(t, 15*time.Minute, app.Config.Risk.MaxDuration)
		assert.Equal(t, 10.0, app.Config.Risk.Leverage)
		assert.Equal(t, 2.5, app.Config.Risk.MaxPositionSize)
		assert.Equal(t, 12*time.Second, app.Config.OrderAwaitTimeout)
		assert.Equal(t, int64(4), app.Config.VenueMaxInflight)
		assert.Equal(t, 25, app.Config.VenueMaxRPS)
		assert.Equal(t, 0.01, app.Config.ArbThresholdPct)
	})

	t.Run("malformed numeric key is an error", func(t *testing.T) {
		t.Setenv("RISK_LEVERAGE", "lots")

		var app App

		err := app.loadConfig(writeTestEnv(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RISK_LEVERAGE")
	})
}
