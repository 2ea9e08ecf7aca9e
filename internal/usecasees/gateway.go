package usecasees

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"sync"
	"time"

	"tradebot/internal/controllers"
	"tradebot/internal/usecasees/structs"
	"tradebot/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	productsUrlPath  = "/exchange/public/products"
	tickerUrlPath    = "/md/ticker/24hr"
	tickerAllUrlPath = "/md/ticker/24hr/all"
	orderBookUrlPath = "/md/orderbook"
	klineUrlPath     = "/exchange/public/md/v2/kline"
	orderUrlPath     = "/orders"
	accountUrlPath   = "/accounts/accountPositions"

	metadataTTL = time.Hour

	// Scale used when a symbol's price precision is unknown: two decimals.
	defaultPriceScale = 100

	// Streamed quotes older than this fall back to a REST pull.
	quoteStaleAfter = 5 * time.Second

	maxKlineRows = 500
)

// Placement is the normalized outcome of one order placement call.
type Placement struct {
	VenueOrderID string
	Status       string
	FilledQty    float64
	AvgPrice     float64
}

// PlaceParams is the domain-level placement request; prices here are plain
// decimals, scaling to the venue representation happens inside the gateway.
type PlaceParams struct {
	Symbol      string
	ClOrdID     string
	Side        string
	Type        string
	Quantity    float64
	Price       float64
	TimeInForce string
}

// ExchangeGateway is the resilient facade over one venue: signed REST plus
// a streamed quote cache, with per-venue concurrency and rate discipline.
type ExchangeGateway struct {
	venue string
	url   string

	clientController controllers.ClientCtrl
	cryptoController controllers.CryptoCtrl

	retry   RetryPolicy
	sem     *semaphore.Weighted
	limiter *rate.Limiter

	metaMu     sync.RWMutex
	metadata   map[string]models.MarketMetadata
	metaLoaded time.Time
	reloadMu   sync.Mutex

	quoteMu sync.RWMutex
	quotes  map[string]models.PriceQuote

	logger *logrus.Logger
}

func NewExchangeGateway(
	venue string,
	baseURL string,
	client controllers.ClientCtrl,
	crypto controllers.CryptoCtrl,
	maxInflight int64,
	requestsPerSec float64,
	retry RetryPolicy,
	logger *logrus.Logger,
) *ExchangeGateway {
	if maxInflight <= 0 {
		maxInflight = 10
	}

	if requestsPerSec <= 0 {
		requestsPerSec = 10
	}

	return &ExchangeGateway{
		venue:            venue,
		url:              baseURL,
		clientController: client,
		cryptoController: crypto,
		retry:            retry,
		sem:              semaphore.NewWeighted(maxInflight),
		limiter:          rate.NewLimiter(rate.Limit(requestsPerSec), int(maxInflight)),
		metadata:         make(map[string]models.MarketMetadata),
		quotes:           make(map[string]models.PriceQuote),
		logger:           logger,
	}
}

func (g *ExchangeGateway) Venue() string {
	return g.venue
}

// normalizeErr folds transport and venue errors into the shared taxonomy so
// callers above the gateway never see venue specifics.
func (g *ExchangeGateway) normalizeErr(err error) error {
	if err == nil {
		return nil
	}

	var httpErr *controllers.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return errors.Wrap(ErrRateLimited, httpErr.Error())
		case httpErr.StatusCode >= http.StatusInternalServerError:
			return errors.Wrap(ErrVenueUnavailable, httpErr.Error())
		default:
			return &VenueError{
				Venue: g.venue,
				Code:  httpErr.VenueCode,
				Msg:   httpErr.VenueMsg,
				Class: ErrInvalidRequest,
			}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Wrap(ErrTransientNetwork, err.Error())
	}

	return errors.Wrap(ErrTransientNetwork, err.Error())
}

// send runs one REST call under the venue semaphore, rate limiter and retry
// policy. signed requests get the expiry+signature query pair attached per
// attempt so retried calls never reuse an expired signature.
func (g *ExchangeGateway) send(ctx context.Context, method, urlPath string, q url.Values, body []byte, signed bool) ([]byte, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out []byte

	err := g.retry.Do(ctx, func() error {
		baseURL, err := url.Parse(g.url)
		if err != nil {
			return err
		}

		baseURL.Path = path.Join(baseURL.Path, urlPath)

		query := url.Values{}
		for key, vals := range q {
			for _, v := range vals {
				query.Add(key, v)
			}
		}

		if signed {
			expiry := time.Now().Add(time.Minute).Unix()
			sig := g.cryptoController.GetSignature(urlPath, query.Encode(), expiry)
			query.Set("expiry", strconv.FormatInt(expiry, 10))
			query.Set("signature", sig)
		}

		baseURL.RawQuery = query.Encode()

		resp, err := g.clientController.Send(method, baseURL, body, signed)
		if err != nil {
			return g.normalizeErr(err)
		}

		out = resp

		return nil
	})

	return out, err
}

// LoadMetadata populates the symbol metadata cache. The double-checked
// reload lock keeps concurrent TTL-expired callers from stampeding the
// venue; a failed reload keeps serving the previous cache.
func (g *ExchangeGateway) LoadMetadata(ctx context.Context, force bool) error {
	if !force && !g.metadataExpired() {
		return nil
	}

	g.reloadMu.Lock()
	defer g.reloadMu.Unlock()

	if !force && !g.metadataExpired() {
		return nil
	}

	resp, err := g.send(ctx, http.MethodGet, productsUrlPath, nil, nil, false)
	if err != nil {
		g.logger.WithError(err).Warnf("%s metadata reload failed, keeping stale cache", g.venue)
		return err
	}

	var products structs.Products
	if err := json.Unmarshal(resp, &products); err != nil {
		g.logger.WithError(err).Warnf("%s metadata decode failed, keeping stale cache", g.venue)
		return err
	}

	next := make(map[string]models.MarketMetadata, len(products.Data.Products))
	for _, p := range products.Data.Products {
		scale := p.PriceScale
		if scale <= 0 {
			scale = defaultPriceScale
		}

		contract := p.ContractSize
		if contract <= 0 {
			contract = 1.0
		}

		next[p.DisplaySym] = models.MarketMetadata{
			Symbol:       p.DisplaySym,
			VenueID:      p.Symbol,
			PriceScale:   scale,
			QtyPrecision: p.QtyPrecision,
			MinOrderSize: p.MinOrderQty,
			MaxOrderSize: p.MaxOrderQty,
			ContractSize: contract,
		}
	}

	g.metaMu.Lock()
	g.metadata = next
	g.metaLoaded = time.Now()
	g.metaMu.Unlock()

	g.logger.Infof("%s loaded %d markets", g.venue, len(next))

	return nil
}

func (g *ExchangeGateway) metadataExpired() bool {
	g.metaMu.RLock()
	defer g.metaMu.RUnlock()

	return len(g.metadata) == 0 || time.Since(g.metaLoaded) > metadataTTL
}

// Metadata returns the cached entry for symbol, forcing one reload on a
// miss before giving up.
func (g *ExchangeGateway) Metadata(ctx context.Context, symbol string) (models.MarketMetadata, bool) {
	if err := g.LoadMetadata(ctx, false); err != nil && len(g.snapshotMeta()) == 0 {
		return models.MarketMetadata{}, false
	}

	g.metaMu.RLock()
	meta, ok := g.metadata[symbol]
	g.metaMu.RUnlock()

	if ok {
		return meta, true
	}

	if err := g.LoadMetadata(ctx, true); err != nil {
		return models.MarketMetadata{}, false
	}

	g.metaMu.RLock()
	meta, ok = g.metadata[symbol]
	g.metaMu.RUnlock()

	return meta, ok
}

func (g *ExchangeGateway) snapshotMeta() map[string]models.MarketMetadata {
	g.metaMu.RLock()
	defer g.metaMu.RUnlock()

	return g.metadata
}

// PriceScale never fails: unknown symbols get the conservative two-decimal
// fallback rather than blocking an order.
func (g *ExchangeGateway) PriceScale(ctx context.Context, symbol string) int64 {
	if meta, ok := g.Metadata(ctx, symbol); ok && meta.PriceScale > 0 {
		return meta.PriceScale
	}

	return defaultPriceScale
}

func (g *ExchangeGateway) ContractSize(ctx context.Context, symbol string) float64 {
	if meta, ok := g.Metadata(ctx, symbol); ok && meta.ContractSize > 0 {
		return meta.ContractSize
	}

	return 1.0
}

// RoundPrice rounds price to the venue's precision for symbol.
func (g *ExchangeGateway) RoundPrice(ctx context.Context, symbol string, price float64) float64 {
	scale := float64(g.PriceScale(ctx, symbol))

	return math.Round(price*scale) / scale
}

// RoundQty rounds a quantity down to the venue's precision so an order is
// never placed above the intended size.
func (g *ExchangeGateway) RoundQty(ctx context.Context, symbol string, qty float64) float64 {
	precision := 0
	if meta, ok := g.Metadata(ctx, symbol); ok {
		precision = meta.QtyPrecision
	}

	factor := math.Pow10(precision)

	return math.Floor(qty*factor) / factor
}

// ApplyQuote stores a streamed quote; called by the stream pump only.
func (g *ExchangeGateway) ApplyQuote(q models.PriceQuote) {
	g.quoteMu.Lock()
	g.quotes[q.Symbol] = q
	g.quoteMu.Unlock()
}

func (g *ExchangeGateway) streamedQuote(symbol string) (models.PriceQuote, bool) {
	g.quoteMu.RLock()
	defer g.quoteMu.RUnlock()

	q, ok := g.quotes[symbol]

	return q, ok
}

// Ticker serves the streamed quote when fresh enough and falls back to an
// independently retried REST pull. A failed pull degrades this call only,
// never the venue.
func (g *ExchangeGateway) Ticker(ctx context.Context, symbol string) (*models.PriceQuote, error) {
	if q, ok := g.streamedQuote(symbol); ok && q.FresherThan(quoteStaleAfter) {
		return &q, nil
	}

	meta, _ := g.Metadata(ctx, symbol)
	venueID := meta.VenueID
	if venueID == "" {
		venueID = symbol
	}

	q := url.Values{}
	q.Set("symbol", venueID)

	resp, err := g.send(ctx, http.MethodGet, tickerUrlPath, q, nil, false)
	if err != nil {
		return nil, err
	}

	var out structs.Ticker
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, err
	}

	if out.Error != nil {
		return nil, &VenueError{Venue: g.venue, Code: out.Error.Code, Msg: out.Error.Msg, Class: ErrInvalidRequest}
	}

	scale := float64(g.PriceScale(ctx, symbol))

	quote := models.PriceQuote{
		Venue:     g.venue,
		Symbol:    symbol,
		Bid:       float64(out.Result.BidEp) / scale,
		Ask:       float64(out.Result.AskEp) / scale,
		Last:      float64(out.Result.LastEp) / scale,
		Timestamp: time.Now(),
	}

	return &quote, nil
}

// OrderBook pulls the top depth levels, descaled to decimal prices.
func (g *ExchangeGateway) OrderBook(ctx context.Context, symbol string, depth int) (bids, asks [][2]float64, err error) {
	meta, _ := g.Metadata(ctx, symbol)
	venueID := meta.VenueID
	if venueID == "" {
		venueID = symbol
	}

	q := url.Values{}
	q.Set("symbol", venueID)

	resp, err := g.send(ctx, http.MethodGet, orderBookUrlPath, q, nil, false)
	if err != nil {
		return nil, nil, err
	}

	var out structs.OrderBook
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, nil, err
	}

	if out.Error != nil {
		return nil, nil, &VenueError{Venue: g.venue, Code: out.Error.Code, Msg: out.Error.Msg, Class: ErrInvalidRequest}
	}

	scale := float64(g.PriceScale(ctx, symbol))

	convert := func(levels [][]int64, limit int) [][2]float64 {
		res := make([][2]float64, 0, limit)
		for i, lvl := range levels {
			if i >= limit || len(lvl) < 2 {
				break
			}
			res = append(res, [2]float64{float64(lvl[0]) / scale, float64(lvl[1])})
		}

		return res
	}

	return convert(out.Result.Book.Bids, depth), convert(out.Result.Book.Asks, depth), nil
}

// PlaceOrder translates the domain request into the venue's scaled wire
// format and normalizes the outcome.
func (g *ExchangeGateway) PlaceOrder(ctx context.Context, params PlaceParams) (*Placement, error) {
	meta, _ := g.Metadata(ctx, params.Symbol)
	venueID := meta.VenueID
	if venueID == "" {
		venueID = params.Symbol
	}

	scale := g.PriceScale(ctx, params.Symbol)

	req := structs.PlaceOrderRequest{
		Symbol:   venueID,
		ClOrdID:  params.ClOrdID,
		Side:     sideToVenue(params.Side),
		OrderQty: g.RoundQty(ctx, params.Symbol, params.Quantity),
	}

	switch params.Type {
	case models.TypeMarket:
		req.OrdType = "Market"
	default:
		req.OrdType = "Limit"
		req.PriceEp = int64(math.Round(params.Price * float64(scale)))
	}

	if params.Type == models.TypeIOC || params.TimeInForce == "IOC" {
		req.TimeInForce = "ImmediateOrCancel"
	}

	body, err := json.Marshal(&req)
	if err != nil {
		return nil, err
	}

	resp, err := g.send(ctx, http.MethodPost, orderUrlPath, nil, body, true)
	if err != nil {
		return nil, err
	}

	var out structs.OrderResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, err
	}

	if out.Code != 0 {
		return nil, &VenueError{Venue: g.venue, Code: out.Code, Msg: out.Msg, Class: ErrInvalidRequest}
	}

	placement := &Placement{
		VenueOrderID: out.Data.OrderID,
		Status:       out.Data.OrdStatus,
		FilledQty:    out.Data.CumQty,
		AvgPrice:     float64(out.Data.AvgPriceEp) / float64(scale),
	}

	return placement, nil
}

func (g *ExchangeGateway) CancelOrder(ctx context.Context, symbol, venueOrderID string) error {
	meta, _ := g.Metadata(ctx, symbol)
	venueID := meta.VenueID
	if venueID == "" {
		venueID = symbol
	}

	q := url.Values{}
	q.Set("symbol", venueID)
	q.Set("orderID", venueOrderID)

	resp, err := g.send(ctx, http.MethodDelete, orderUrlPath, q, nil, true)
	if err != nil {
		return err
	}

	var out structs.CancelResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return err
	}

	if out.Code != 0 {
		return &VenueError{Venue: g.venue, Code: out.Code, Msg: out.Msg, Class: ErrInvalidRequest}
	}

	return nil
}

// FetchBalance returns the account balance in the settlement currency.
func (g *ExchangeGateway) FetchBalance(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("currency", "USDT")

	resp, err := g.send(ctx, http.MethodGet, accountUrlPath, q, nil, true)
	if err != nil {
		return 0, err
	}

	var out structs.AccountPositions
	if err := json.Unmarshal(resp, &out); err != nil {
		return 0, err
	}

	if out.Code != 0 {
		return 0, &VenueError{Venue: g.venue, Code: out.Code, Msg: out.Msg, Class: ErrInvalidRequest}
	}

	scale := out.Data.Account.BalanceScale
	if scale <= 0 {
		scale = 1e8
	}

	return (out.Data.Account.AccountBalance - out.Data.Account.UsedBalance) / scale, nil
}

// FetchPositions returns the venue-side open positions, used as the source
// of truth during reconciliation.
func (g *ExchangeGateway) FetchPositions(ctx context.Context) ([]models.Position, error) {
	q := url.Values{}
	q.Set("currency", "USDT")

	resp, err := g.send(ctx, http.MethodGet, accountUrlPath, q, nil, true)
	if err != nil {
		return nil, err
	}

	var out structs.AccountPositions
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, err
	}

	if out.Code != 0 {
		return nil, &VenueError{Venue: g.venue, Code: out.Code, Msg: out.Msg, Class: ErrInvalidRequest}
	}

	positions := make([]models.Position, 0, len(out.Data.Positions))
	for _, p := range out.Data.Positions {
		if p.Size == 0 {
			continue
		}

		side := models.PositionLong
		if p.Side == "Sell" {
			side = models.PositionShort
		}

		scale := float64(g.PriceScale(ctx, p.Symbol))

		positions = append(positions, models.Position{
			Symbol:           p.Symbol,
			Side:             side,
			Size:             math.Abs(p.Size),
			EntryPrice:       float64(p.AvgEntryEp) / scale,
			LiquidationPrice: float64(p.LiquidationE) / scale,
			EntryTime:        time.Now(),
			Venue:            g.venue,
		})
	}

	return positions, nil
}

// TopSymbols lists the most liquid tradable symbols by 24h turnover.
// Failures degrade to an empty list so one bad pull never stalls a cycle.
func (g *ExchangeGateway) TopSymbols(ctx context.Context, count int, minVolume float64) []string {
	resp, err := g.send(ctx, http.MethodGet, tickerAllUrlPath, nil, nil, false)
	if err != nil {
		g.logger.WithError(err).Warnf("%s top symbols fetch failed", g.venue)
		return nil
	}

	var out structs.TickerList
	if err := json.Unmarshal(resp, &out); err != nil {
		g.logger.WithError(err).Warnf("%s top symbols decode failed", g.venue)
		return nil
	}

	type entry struct {
		symbol   string
		turnover float64
	}

	entries := make([]entry, 0, len(out.Result))
	for _, t := range out.Result {
		if t.Volume < minVolume {
			continue
		}
		entries = append(entries, entry{symbol: t.Symbol, turnover: t.Turnover})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].turnover > entries[j].turnover
	})

	if count > 0 && len(entries) > count {
		entries = entries[:count]
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.symbol)
	}

	return symbols
}

// Candles pulls historical OHLCV rows; the venue rejects limits above 500.
func (g *ExchangeGateway) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	meta, _ := g.Metadata(ctx, symbol)
	venueID := meta.VenueID
	if venueID == "" {
		venueID = symbol
	}

	if limit <= 0 || limit > maxKlineRows {
		limit = maxKlineRows
	}

	q := url.Values{}
	q.Set("symbol", venueID)
	q.Set("resolution", timeframe)
	q.Set("limit", strconv.Itoa(limit))

	resp, err := g.send(ctx, http.MethodGet, klineUrlPath, q, nil, false)
	if err != nil {
		return nil, err
	}

	var out structs.Kline
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, err
	}

	scale := float64(g.PriceScale(ctx, symbol))

	candles := make([]models.Candle, 0, len(out.Data.Rows))
	for _, row := range out.Data.Rows {
		if len(row) < 6 {
			continue
		}

		candles = append(candles, models.Candle{
			Symbol:    symbol,
			OpenTime:  time.Unix(int64(row[0]), 0),
			Open:      row[1] / scale,
			High:      row[2] / scale,
			Low:       row[3] / scale,
			Close:     row[4] / scale,
			Volume:    row[5],
			Timeframe: timeframe,
		})
	}

	return candles, nil
}

func sideToVenue(side string) string {
	if side == models.SideBuy {
		return "Buy"
	}

	return "Sell"
}
