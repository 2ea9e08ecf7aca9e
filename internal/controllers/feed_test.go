package controllers

import (
	"testing"
	"time"

	"tradebot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FeedController(t *testing.T) {
	t.Run("drain keeps the freshest quote per pair", func(t *testing.T) {
		feed := NewFeedController(16)

		stale := models.PriceQuote{
			Venue:     "phemex",
			Symbol:    "BTCUSD",
			Bid:       100.0,
			Ask:       100.2,
			Timestamp: time.Now().Add(-time.Second),
		}
		fresh := stale
		fresh.Bid = 100.1
		fresh.Timestamp = time.Now()

		feed.Push(stale)
		feed.Push(fresh)
		feed.Push(models.PriceQuote{
			Venue:     "deribit",
			Symbol:    "BTCUSD",
			Bid:       99.9,
			Ask:       100.3,
			Timestamp: time.Now(),
		})

		quotes := feed.Drain()

		require.Len(t, quotes, 2)
		assert.Equal(t, 100.1, quotes["phemex/BTCUSD"].Bid)
		assert.Equal(t, 99.9, quotes["deribit/BTCUSD"].Bid)
	})

	t.Run("drain on empty queue returns immediately", func(t *testing.T) {
		feed := NewFeedController(4)

		assert.Empty(t, feed.Drain())
	})

	t.Run("overflow drops the oldest entry", func(t *testing.T) {
		feed := NewFeedController(2)

		for i := 0; i < 3; i++ {
			feed.Push(models.PriceQuote{
				Venue:     "phemex",
				Symbol:    "BTCUSD",
				Bid:       100.0 + float64(i),
				Timestamp: time.Now(),
			})
		}

		quotes := feed.Drain()

		require.Len(t, quotes, 1)
		assert.Equal(t, 102.0, quotes["phemex/BTCUSD"].Bid)
	})
}
