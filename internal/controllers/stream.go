package controllers

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"tradebot/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// StreamController holds one long-lived websocket subscription per venue
// and turns ticker pushes into PriceQuote values. It only populates caches;
// reconnection on drop belongs to the feed collaborator, not this core.
type StreamController struct {
	wsURL  string
	venue  string
	dialer *websocket.Dialer
	logger *logrus.Logger
}

func NewStreamController(wsURL, venue string, logger *logrus.Logger) *StreamController {
	return &StreamController{
		wsURL:  wsURL,
		venue:  venue,
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

type tickerFrame struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bidEp"`
	Ask    float64 `json:"askEp"`
	Last   float64 `json:"lastEp"`
	Scale  float64 `json:"scale"`
	TsNano int64   `json:"timestamp"`
}

// Subscribe opens the ticker stream for symbols and pushes parsed quotes
// into the returned channel until ctx is done or the connection drops.
func (c *StreamController) Subscribe(ctx context.Context, symbols []string) (<-chan models.PriceQuote, func(), error) {
	conn, _, err := c.dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return nil, nil, err
	}

	sub := struct {
		Method string   `json:"method"`
		Params []string `json:"params"`
		ID     int      `json:"id"`
	}{Method: "tick.subscribe", Params: symbols, ID: 1}

	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	out := make(chan models.PriceQuote, 100)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		})
	}

	go func() {
		// Only the read loop closes out, so a late frame can never hit a
		// closed channel.
		defer close(out)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
					strings.Contains(err.Error(), "use of closed network connection") {
					return
				}

				c.logger.WithError(err).Warnf("%s ws read failed", c.venue)

				return
			}

			var frame tickerFrame
			if err := json.Unmarshal(msg, &frame); err != nil {
				c.logger.WithError(err).Debugf("%s ws frame skipped", c.venue)
				continue
			}

			if frame.Symbol == "" {
				continue
			}

			scale := frame.Scale
			if scale <= 0 {
				scale = 10000
			}

			quote := models.PriceQuote{
				Venue:     c.venue,
				Symbol:    frame.Symbol,
				Bid:       frame.Bid / scale,
				Ask:       frame.Ask / scale,
				Last:      frame.Last / scale,
				Timestamp: time.Unix(0, frame.TsNano),
			}

			if quote.Timestamp.IsZero() || frame.TsNano == 0 {
				quote.Timestamp = time.Now()
			}

			select {
			case out <- quote:
			default:
				// Ticker pushes are superseding; dropping one under
				// backpressure is safe.
			}
		}
	}()

	return out, stop, nil
}
