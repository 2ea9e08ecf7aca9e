package controllers

import (
	"tradebot/models"
)

// FeedController is the bounded hand-off queue for the external market-data
// collaborator. The feed process pushes (symbol,bid,ask) tuples; the router
// drains them without blocking and falls back to gateway discovery on a miss.
type FeedController struct {
	queue chan models.PriceQuote
}

func NewFeedController(capacity int) *FeedController {
	if capacity <= 0 {
		capacity = 256
	}

	return &FeedController{
		queue: make(chan models.PriceQuote, capacity),
	}
}

// Push offers a quote to the queue. A full queue drops the oldest entry
// first; a quote that cannot be placed at all is discarded.
func (c *FeedController) Push(q models.PriceQuote) {
	select {
	case c.queue <- q:
		return
	default:
	}

	select {
	case <-c.queue:
	default:
	}

	select {
	case c.queue <- q:
	default:
	}
}

// Drain empties the queue without blocking and returns the freshest quote
// per venue/symbol pair.
func (c *FeedController) Drain() map[string]models.PriceQuote {
	out := make(map[string]models.PriceQuote)

	for {
		select {
		case q := <-c.queue:
			key := q.Venue + "/" + q.Symbol
			if prev, ok := out[key]; !ok || q.Timestamp.After(prev.Timestamp) {
				out[key] = q
			}
		default:
			return out
		}
	}
}
