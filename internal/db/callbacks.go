package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/markjakearzadon/confticket-gobackend/internal/models"
)

const CallbacksCollection = "payment_callbacks"

type CallbackRepository struct {
	collection *mongo.Collection
}

func NewCallbackRepository(database *mongo.Database) *CallbackRepository {
	return &CallbackRepository{collection: database.Collection(CallbacksCollection)}
}

func (r *CallbackRepository) Record(ctx context.Context, callback *models.PaymentCallback) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, callback); err != nil {
		return fmt.Errorf("failed to save payment callback %s: %w", callback.ID, err)
	}
	return nil
}
