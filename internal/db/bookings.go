package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/markjakearzadon/confticket-gobackend/internal/models"
)

const BookingsCollection = "bookings"

type BookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(database *mongo.Database) *BookingRepository {
	return &BookingRepository{collection: database.Collection(BookingsCollection)}
}

func (r *BookingRepository) Get(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

// Transition applies update to the booking in a single conditional write. The
// write only matches when the stored payment status is not one of excluded;
// a missing payment status never matches an excluded value. It reports
// whether a document matched.
func (r *BookingRepository) Transition(ctx context.Context, id string, excluded []models.PaymentStatus, update models.BookingUpdate) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": id}
	if len(excluded) > 0 {
		filter["payment_status"] = bson.M{"$nin": excluded}
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": updateFields(update)})
	if err != nil {
		return false, fmt.Errorf("failed to update booking %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func updateFields(update models.BookingUpdate) bson.M {
	fields := bson.M{"updated_at": time.Now().UTC()}
	if update.Status != "" {
		fields["status"] = update.Status
	}
	if update.PaymentStatus != "" {
		fields["payment_status"] = update.PaymentStatus
	}
	if update.GatewayOrderID != "" {
		fields["gateway_order_id"] = update.GatewayOrderID
	}
	if update.GatewayTransactionID != "" {
		fields["gateway_transaction_id"] = update.GatewayTransactionID
	}
	if update.AmountPaid != nil {
		fields["amount_paid"] = *update.AmountPaid
	}
	return fields
}
