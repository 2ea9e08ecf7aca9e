package structs

type AccountPositions struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Account struct {
			Currency       string  `json:"currency"`
			AccountBalance float64 `json:"accountBalanceEv"`
			UsedBalance    float64 `json:"totalUsedBalanceEv"`
			BalanceScale   float64 `json:"balanceScale"`
		} `json:"account"`
		Positions []struct {
			Symbol       string  `json:"symbol"`
			Side         string  `json:"side"`
			Size         float64 `json:"size"`
			AvgEntryEp   int64   `json:"avgEntryPriceEp"`
			LiquidationE int64   `json:"liquidationPriceEp"`
			Leverage     float64 `json:"leverage"`
		} `json:"positions"`
	} `json:"data"`
}
