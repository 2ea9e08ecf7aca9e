package mongo

import (
	"tradebot/internal/repository/mongo/structs"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate mockery --case=snake --name=SettingsRepo

type SettingsRepo interface {
	SetDefault() error
	Load(symbol string) (*structs.Settings, error)
	UpdateStatus(id primitive.ObjectID, status structs.SymbolStatus) error
}
