package mongo

import (
	"context"

	"tradebot/internal/repository/mongo/structs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type SettingsRepository struct {
	conn       *mongo.Client
	collection *mongo.Collection
}

func NewSettingsRepository(conn *mongo.Client) *SettingsRepository {
	collection := conn.Database("settings").Collection("symbols")

	return &SettingsRepository{conn: conn, collection: collection}
}

func (r *SettingsRepository) SetDefault() error {
	symbols := []structs.Settings{
		{
			Symbol:          "BTCUSD",
			StopLossPct:     0.01,
			TakeProfitPct:   0.02,
			MaxDurationSec:  3600,
			MaxPositionSize: 2,
			Status:          structs.Enabled.ToString(),
		},
		{
			Symbol:          "ETHUSD",
			StopLossPct:     0.015,
			TakeProfitPct:   0.03,
			MaxDurationSec:  3600,
			MaxPositionSize: 20,
			Status:          structs.Enabled.ToString(),
		},
		{
			Symbol:          "SOLUSD",
			StopLossPct:     0.02,
			TakeProfitPct:   0.04,
			MaxDurationSec:  1800,
			MaxPositionSize: 200,
			Status:          structs.Disabled.ToString(),
		},
	}

	for _, symbol := range symbols {
		check, err := r.Load(symbol.Symbol)
		if err != nil && err != mongo.ErrNoDocuments {
			return err
		}

		if primitive.ObjectID.IsZero(check.ID) {
			_, err := r.collection.InsertOne(context.TODO(), symbol)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *SettingsRepository) Load(symbol string) (*structs.Settings, error) {
	var result structs.Settings

	if err := r.collection.FindOne(context.TODO(), bson.D{{Key: "symbol", Value: symbol}}).Decode(&result); err != nil {
		return &result, err
	}

	return &result, nil
}

func (r *SettingsRepository) UpdateStatus(id primitive.ObjectID, status structs.SymbolStatus) error {
	_, err := r.collection.UpdateOne(
		context.TODO(),
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: status}}}},
	)
	if err != nil {
		return err
	}

	return nil
}
