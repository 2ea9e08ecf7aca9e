package main

import (
	"tradebot/internal/usecasees"
)

func (a *App) initMetrics() {
	a.Metrics = usecasees.NewMetrics()
}
