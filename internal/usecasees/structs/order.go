package structs

// PlaceOrderRequest is the private order placement body. Prices travel as
// scaled integers (priceEp); the scale comes from the metadata cache.
type PlaceOrderRequest struct {
	Symbol      string  `json:"symbol"`
	ClOrdID     string  `json:"clOrdID"`
	Side        string  `json:"side"`
	OrderQty    float64 `json:"orderQty"`
	PriceEp     int64   `json:"priceEp,omitempty"`
	OrdType     string  `json:"ordType"`
	TimeInForce string  `json:"timeInForce,omitempty"`
}

type OrderResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		OrderID     string  `json:"orderID"`
		ClOrdID     string  `json:"clOrdID"`
		Symbol      string  `json:"symbol"`
		Side        string  `json:"side"`
		OrderQty    float64 `json:"orderQty"`
		CumQty      float64 `json:"cumQty"`
		LeavesQty   float64 `json:"leavesQty"`
		PriceEp     int64   `json:"priceEp"`
		AvgPriceEp  int64   `json:"avgPriceEp"`
		OrdStatus   string  `json:"ordStatus"`
		TimeInForce string  `json:"timeInForce"`
	} `json:"data"`
}

type CancelResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		OrderID   string `json:"orderID"`
		OrdStatus string `json:"ordStatus"`
	} `json:"data"`
}
