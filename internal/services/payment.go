package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markjakearzadon/confticket-gobackend/internal/models"
)

// TransitionIgnored is reported for callbacks that carry no transaction.
const TransitionIgnored Transition = "ignored"

type PaymentGateway interface {
	CreatePaymentSession(ctx context.Context, req PaymentSessionRequest) (*PaymentSession, error)
}

type TicketSender interface {
	SendTicket(ctx context.Context, t Ticket) (TicketResult, error)
}

type CallbackRecorder interface {
	Record(ctx context.Context, callback *models.PaymentCallback) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// PaymentService ties the gateway, webhook verification and booking state
// together. tickets, callbacks and events are optional.
type PaymentService struct {
	gateway   PaymentGateway
	bookings  *BookingService
	verifier  *WebhookVerifier
	tickets   TicketSender
	callbacks CallbackRecorder
	events    EventPublisher
	log       *zap.Logger
}

func NewPaymentService(
	gateway PaymentGateway,
	bookings *BookingService,
	verifier *WebhookVerifier,
	tickets TicketSender,
	callbacks CallbackRecorder,
	events EventPublisher,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		gateway:   gateway,
		bookings:  bookings,
		verifier:  verifier,
		tickets:   tickets,
		callbacks: callbacks,
		events:    events,
		log:       log,
	}
}

// Initiate opens a hosted payment session and returns its URL. The booking is
// marked INITIATED afterwards; a failure there is logged and does not fail the
// call.
func (s *PaymentService) Initiate(ctx context.Context, req PaymentSessionRequest) (string, error) {
	session, err := s.gateway.CreatePaymentSession(ctx, req)
	if err != nil {
		s.log.Error("Failed to create payment session", zap.String("booking_id", req.BookingID), zap.Error(err))
		return "", err
	}

	if err := s.bookings.MarkInitiated(ctx, req.BookingID, session.OrderID); err != nil {
		s.log.Warn("Payment session opened but booking not marked initiated",
			zap.String("booking_id", req.BookingID),
			zap.String("order_id", session.OrderID),
			zap.Error(err),
		)
	}

	return session.URL, nil
}

// HandleCallback verifies a gateway callback and applies it to the booking it
// references. It returns ErrInvalidSignature for forged payloads and a storage
// error when the booking could not be updated; everything else is a result.
func (s *PaymentService) HandleCallback(ctx context.Context, callback *models.PaymobCallback, signature string) (Transition, error) {
	record := &models.PaymentCallback{
		ID:              uuid.NewString(),
		Type:            callback.Type,
		TransactionID:   strconv.FormatInt(callback.Obj.ID, 10),
		MerchantOrderID: callback.Obj.Order.MerchantOrderID,
		Success:         callback.Obj.Success,
		ReceivedAt:      time.Now().UTC(),
	}

	txn, err := s.verifier.Verify(callback, signature)
	if err != nil {
		s.log.Warn("Rejected payment callback",
			zap.String("merchant_order_id", record.MerchantOrderID),
			zap.String("transaction_id", record.TransactionID),
			zap.Error(err),
		)
		record.Outcome = "rejected"
		s.record(ctx, record)
		return "", err
	}
	if txn == nil {
		s.log.Info("Ignoring payment callback", zap.String("type", callback.Type))
		record.Outcome = string(TransitionIgnored)
		s.record(ctx, record)
		return TransitionIgnored, nil
	}
	record.SignatureValid = true

	transition, err := s.bookings.ApplyPaymentResult(ctx, PaymentResult{
		BookingID:     txn.MerchantOrderID,
		Success:       txn.Success,
		TransactionID: txn.TransactionID,
		Amount:        txn.Amount,
	})
	if err != nil {
		record.Outcome = "error"
		s.record(ctx, record)
		return "", err
	}
	record.Outcome = string(transition)
	s.record(ctx, record)

	if transition == TransitionApplied {
		s.publish(ctx, txn)
		if txn.Success {
			s.sendTicket(ctx, txn.MerchantOrderID)
		}
	}
	return transition, nil
}

func (s *PaymentService) record(ctx context.Context, record *models.PaymentCallback) {
	if s.callbacks == nil {
		return
	}
	if err := s.callbacks.Record(ctx, record); err != nil {
		s.log.Warn("Failed to record payment callback", zap.String("callback_id", record.ID), zap.Error(err))
	}
}

func (s *PaymentService) publish(ctx context.Context, txn *VerifiedTransaction) {
	if s.events == nil {
		return
	}
	evt := models.BookingEvent{
		ID:            uuid.NewString(),
		Type:          models.EventBookingPaymentFailed,
		BookingID:     txn.MerchantOrderID,
		TransactionID: txn.TransactionID,
		Amount:        txn.Amount,
		At:            time.Now().UTC(),
	}
	if txn.Success {
		evt.Type = models.EventBookingPaid
	}
	if err := s.events.Publish(ctx, evt.BookingID, evt); err != nil {
		s.log.Warn("Failed to publish booking event",
			zap.String("booking_id", evt.BookingID),
			zap.String("type", string(evt.Type)),
			zap.Error(err),
		)
	}
}

// sendTicket notifies the payer of a freshly paid booking. Failures are only
// logged; the operator can resend through the admin endpoint.
func (s *PaymentService) sendTicket(ctx context.Context, bookingID string) {
	if s.tickets == nil {
		return
	}
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		s.log.Warn("Paid booking not loaded for ticket", zap.String("booking_id", bookingID), zap.Error(err))
		return
	}
	if booking.PayerPhone == "" {
		s.log.Info("Paid booking has no phone, ticket not sent", zap.String("booking_id", bookingID))
		return
	}

	res, err := s.tickets.SendTicket(ctx, Ticket{
		BookingID:  booking.ID,
		PayerPhone: booking.PayerPhone,
		PayerName:  booking.PayerName,
		EventTitle: booking.EventTitle,
		EventDate:  booking.EventDate,
	})
	if err != nil {
		s.log.Warn("Ticket not sent after payment", zap.String("booking_id", bookingID), zap.Error(err))
		return
	}
	s.log.Info("Ticket dispatched after payment", zap.String("booking_id", bookingID), zap.String("outcome", string(res.Outcome)))
}
