package main

import (
	"github.com/ic2hrmk/promtail"
)

func (a *App) initPromTail() error {
	identifiers := map[string]string{
		"instanceId": a.Name,
	}

	promTail, err := promtail.NewJSONv1Client(a.Config.LokiAddress, identifiers)
	if err != nil {
		return err
	}

	a.PromTail = promTail

	return nil
}
