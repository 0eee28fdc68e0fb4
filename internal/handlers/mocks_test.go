package handlers

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/markjakearzadon/confticket-gobackend/internal/db"
	"github.com/markjakearzadon/confticket-gobackend/internal/health"
	"github.com/markjakearzadon/confticket-gobackend/internal/models"
	"github.com/markjakearzadon/confticket-gobackend/internal/services"
)

type paymentServiceMock struct{ mock.Mock }

func (m *paymentServiceMock) Initiate(ctx context.Context, req services.PaymentSessionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *paymentServiceMock) HandleCallback(ctx context.Context, callback *models.PaymobCallback, signature string) (services.Transition, error) {
	args := m.Called(ctx, callback, signature)
	tr, _ := args.Get(0).(services.Transition)
	return tr, args.Error(1)
}

type ticketSenderMock struct{ mock.Mock }

func (m *ticketSenderMock) SendTicket(ctx context.Context, t services.Ticket) (services.TicketResult, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(services.TicketResult), args.Error(1)
}

type healthCheckerMock struct{ mock.Mock }

func (m *healthCheckerMock) Check(ctx context.Context) health.Result {
	args := m.Called(ctx)
	return args.Get(0).(health.Result)
}

// bookingStore is an in-memory services.BookingStore with the same guarded
// update as the Mongo repository.
type bookingStore struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func (s *bookingStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &b, nil
}

func (s *bookingStore) Transition(ctx context.Context, id string, excluded []models.PaymentStatus, update models.BookingUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return false, nil
	}
	for _, ex := range excluded {
		if b.PaymentStatus == ex {
			return false, nil
		}
	}
	if update.Status != "" {
		b.Status = update.Status
	}
	if update.PaymentStatus != "" {
		b.PaymentStatus = update.PaymentStatus
	}
	if update.GatewayOrderID != "" {
		b.GatewayOrderID = update.GatewayOrderID
	}
	if update.GatewayTransactionID != "" {
		b.GatewayTransactionID = update.GatewayTransactionID
	}
	if update.AmountPaid != nil {
		b.AmountPaid = *update.AmountPaid
	}
	s.bookings[id] = b
	return true, nil
}

type messengerFunc func() error

func (f messengerFunc) SendPhoto(ctx context.Context, recipient string, image []byte, caption string) error {
	return f()
}

type emptyIdentities struct{}

func (emptyIdentities) Lookup(ctx context.Context, phone string) (string, bool, error) {
	return "", false, nil
}
