package structs

// Products is the venue's public contract listing, the source of the
// metadata cache.
type Products struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Products []struct {
			Symbol       string  `json:"symbol"`
			DisplaySym   string  `json:"displaySymbol"`
			PriceScale   int64   `json:"priceScale"`
			QtyPrecision int     `json:"qtyPrecision"`
			MinOrderQty  float64 `json:"minOrderQty"`
			MaxOrderQty  float64 `json:"maxOrderQty"`
			ContractSize float64 `json:"contractSize"`
			Status       string  `json:"status"`
		} `json:"products"`
	} `json:"data"`
}

type Ticker struct {
	Error  *Err `json:"error"`
	Result struct {
		Symbol    string  `json:"symbol"`
		BidEp     int64   `json:"bidEp"`
		AskEp     int64   `json:"askEp"`
		LastEp    int64   `json:"lastEp"`
		Volume    float64 `json:"volume"`
		Turnover  float64 `json:"turnoverEv"`
		Timestamp int64   `json:"timestamp"`
	} `json:"result"`
}

type TickerList struct {
	Error  *Err `json:"error"`
	Result []struct {
		Symbol   string  `json:"symbol"`
		LastEp   int64   `json:"lastEp"`
		Volume   float64 `json:"volume"`
		Turnover float64 `json:"turnoverEv"`
	} `json:"result"`
}

type OrderBook struct {
	Error  *Err `json:"error"`
	Result struct {
		Book struct {
			Bids [][]int64 `json:"bids"`
			Asks [][]int64 `json:"asks"`
		} `json:"book"`
		Symbol    string `json:"symbol"`
		Timestamp int64  `json:"timestamp"`
	} `json:"result"`
}

type Kline struct {
	Code int `json:"code"`
	Data struct {
		Rows [][]float64 `json:"rows"`
	} `json:"data"`
}

type Err struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
