package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/markjakearzadon/confticket-gobackend/internal/db"
	"github.com/markjakearzadon/confticket-gobackend/internal/models"
)

type BookingStore interface {
	Get(ctx context.Context, id string) (*models.Booking, error)
	Transition(ctx context.Context, id string, excluded []models.PaymentStatus, update models.BookingUpdate) (bool, error)
}

// Transition describes what ApplyPaymentResult did to a booking.
type Transition string

const (
	TransitionApplied        Transition = "applied"
	TransitionSkipped        Transition = "skipped"
	TransitionUnknownBooking Transition = "unknown_booking"
)

type PaymentResult struct {
	BookingID     string
	Success       bool
	TransactionID string
	Amount        float64
}

// BookingService owns the booking payment state. Every mutation is a single
// guarded write so duplicate webhooks and manual approvals cannot interleave
// into a lost update.
type BookingService struct {
	store BookingStore
	log   *zap.Logger
}

func NewBookingService(store BookingStore, log *zap.Logger) *BookingService {
	return &BookingService{store: store, log: log}
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.Get(ctx, id)
}

// MarkInitiated records an opened payment session. Paid and failed bookings
// are left untouched: the booking id is the gateway's merchant order id, which
// Paymob refuses to register twice, so a failed booking cannot be retried
// under the same id.
func (s *BookingService) MarkInitiated(ctx context.Context, id, gatewayOrderID string) error {
	excluded := []models.PaymentStatus{models.PaymentPaid, models.PaymentFailed}
	ok, err := s.store.Transition(ctx, id, excluded, models.BookingUpdate{
		PaymentStatus:  models.PaymentInitiated,
		GatewayOrderID: gatewayOrderID,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("booking %s not initiated: missing, paid or failed: %w", id, db.ErrNotFound)
	}
	return nil
}

// ApplyPaymentResult moves a booking to PAID/APPROVED or FAILED. Redelivery of
// a result that was already applied, and a failure arriving after a success,
// are skipped. An unknown booking is reported, not returned as an error.
func (s *BookingService) ApplyPaymentResult(ctx context.Context, result PaymentResult) (Transition, error) {
	var (
		excluded []models.PaymentStatus
		update   models.BookingUpdate
	)
	if result.Success {
		amount := result.Amount
		excluded = []models.PaymentStatus{models.PaymentPaid}
		update = models.BookingUpdate{
			Status:               models.BookingApproved,
			PaymentStatus:        models.PaymentPaid,
			GatewayTransactionID: result.TransactionID,
			AmountPaid:           &amount,
		}
	} else {
		excluded = []models.PaymentStatus{models.PaymentPaid, models.PaymentFailed}
		update = models.BookingUpdate{PaymentStatus: models.PaymentFailed}
	}

	ok, err := s.store.Transition(ctx, result.BookingID, excluded, update)
	if err != nil {
		s.log.Error("Failed to apply payment result",
			zap.String("booking_id", result.BookingID),
			zap.Bool("success", result.Success),
			zap.Error(err),
		)
		return "", err
	}
	if ok {
		s.log.Info("Payment result applied",
			zap.String("booking_id", result.BookingID),
			zap.Bool("success", result.Success),
			zap.String("transaction_id", result.TransactionID),
		)
		return TransitionApplied, nil
	}

	booking, err := s.store.Get(ctx, result.BookingID)
	if err != nil {
		if db.IsNotFound(err) {
			s.log.Warn("Payment result for unknown booking",
				zap.String("booking_id", result.BookingID),
				zap.String("transaction_id", result.TransactionID),
			)
			return TransitionUnknownBooking, nil
		}
		return "", err
	}

	s.log.Info("Payment result skipped",
		zap.String("booking_id", result.BookingID),
		zap.Bool("success", result.Success),
		zap.String("payment_status", string(booking.CurrentPaymentStatus())),
	)
	return TransitionSkipped, nil
}
