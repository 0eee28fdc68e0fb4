package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/confticket-gobackend/internal/models"
)

const IdentitiesCollection = "telegram_users"

type IdentityRepository struct {
	collection *mongo.Collection
}

func NewIdentityRepository(database *mongo.Database) *IdentityRepository {
	return &IdentityRepository{collection: database.Collection(IdentitiesCollection)}
}

// Put stores chatID under phone, replacing any previous chat.
func (r *IdentityRepository) Put(ctx context.Context, phone, chatID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": phone},
		bson.M{"$set": bson.M{"chat_id": chatID, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save telegram user %s: %w", phone, err)
	}
	return nil
}

func (r *IdentityRepository) Get(ctx context.Context, phone string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user models.TelegramUser
	if err := r.collection.FindOne(ctx, bson.M{"_id": phone}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", fmt.Errorf("telegram user %s: %w", phone, ErrNotFound)
		}
		return "", fmt.Errorf("failed to fetch telegram user %s: %w", phone, err)
	}
	return user.ChatID, nil
}
