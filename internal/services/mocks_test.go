package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/markjakearzadon/confticket-gobackend/internal/db"
	"github.com/markjakearzadon/confticket-gobackend/internal/models"
)

// memBookingStore mirrors the conditional update of db.BookingRepository.
type memBookingStore struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	err      error
}

func newMemBookingStore(bookings ...models.Booking) *memBookingStore {
	s := &memBookingStore{bookings: map[string]models.Booking{}}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *memBookingStore) Get(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, db.ErrNotFound)
	}
	return &b, nil
}

func (s *memBookingStore) Transition(ctx context.Context, id string, excluded []models.PaymentStatus, update models.BookingUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
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

func (s *memBookingStore) booking(id string) models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

type memIdentityStore struct {
	mu  sync.Mutex
	ids map[string]string
	err error
}

func newMemIdentityStore() *memIdentityStore {
	return &memIdentityStore{ids: map[string]string{}}
}

func (s *memIdentityStore) Put(ctx context.Context, phone, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.ids[phone] = chatID
	return nil
}

func (s *memIdentityStore) Get(ctx context.Context, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	id, ok := s.ids[phone]
	if !ok {
		return "", db.ErrNotFound
	}
	return id, nil
}

type gatewayMock struct{ mock.Mock }

func (m *gatewayMock) CreatePaymentSession(ctx context.Context, req PaymentSessionRequest) (*PaymentSession, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*PaymentSession)
	return s, args.Error(1)
}

type ticketSenderMock struct{ mock.Mock }

func (m *ticketSenderMock) SendTicket(ctx context.Context, t Ticket) (TicketResult, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(TicketResult), args.Error(1)
}

type recorderMock struct{ mock.Mock }

func (m *recorderMock) Record(ctx context.Context, callback *models.PaymentCallback) error {
	args := m.Called(ctx, callback)
	return args.Error(0)
}

type publisherMock struct{ mock.Mock }

func (m *publisherMock) Publish(ctx context.Context, key string, value any) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

type messengerMock struct{ mock.Mock }

func (m *messengerMock) SendPhoto(ctx context.Context, recipient string, image []byte, caption string) error {
	args := m.Called(ctx, recipient, image, caption)
	return args.Error(0)
}

type qrMock struct{ mock.Mock }

func (m *qrMock) Encode(content string) ([]byte, error) {
	args := m.Called(content)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

type identityLookupMock struct{ mock.Mock }

func (m *identityLookupMock) Lookup(ctx context.Context, phone string) (string, bool, error) {
	args := m.Called(ctx, phone)
	return args.String(0), args.Bool(1), args.Error(2)
}
