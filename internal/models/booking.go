package models

import (
	"time"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "PENDING"
	BookingApproved BookingStatus = "APPROVED"
)

// PaymentStatus moves NONE -> INITIATED -> PAID | FAILED. A booking created
// without the field reads as NONE.
type PaymentStatus string

const (
	PaymentNone      PaymentStatus = "NONE"
	PaymentInitiated PaymentStatus = "INITIATED"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Booking is created by the registration frontend; this service only advances
// its payment fields.
type Booking struct {
	ID                   string        `bson:"_id" json:"id"`
	Amount               float64       `bson:"amount" json:"amount"`
	PayerPhone           string        `bson:"payer_phone" json:"payer_phone"`
	PayerName            string        `bson:"payer_name" json:"payer_name"`
	EventTitle           string        `bson:"event_title" json:"event_title"`
	EventDate            string        `bson:"event_date" json:"event_date"`
	Status               BookingStatus `bson:"status" json:"status"`
	PaymentStatus        PaymentStatus `bson:"payment_status,omitempty" json:"payment_status"`
	GatewayOrderID       string        `bson:"gateway_order_id,omitempty" json:"gateway_order_id,omitempty"`
	GatewayTransactionID string        `bson:"gateway_transaction_id,omitempty" json:"gateway_transaction_id,omitempty"`
	AmountPaid           float64       `bson:"amount_paid,omitempty" json:"amount_paid,omitempty"`
	UpdatedAt            time.Time     `bson:"updated_at,omitempty" json:"updated_at"`
}

// CurrentPaymentStatus treats a missing payment status as NONE.
func (b *Booking) CurrentPaymentStatus() PaymentStatus {
	if b.PaymentStatus == "" {
		return PaymentNone
	}
	return b.PaymentStatus
}

// BookingUpdate lists the fields a payment transition sets. Empty strings and
// a nil AmountPaid are left untouched.
type BookingUpdate struct {
	Status               BookingStatus
	PaymentStatus        PaymentStatus
	GatewayOrderID       string
	GatewayTransactionID string
	AmountPaid           *float64
}

type BookingEventType string

const (
	EventBookingPaid          BookingEventType = "booking.paid"
	EventBookingPaymentFailed BookingEventType = "booking.payment_failed"
)

// BookingEvent is published after a payment result changes a booking.
type BookingEvent struct {
	ID            string           `json:"id"`
	Type          BookingEventType `json:"type"`
	BookingID     string           `json:"booking_id"`
	TransactionID string           `json:"transaction_id"`
	Amount        float64          `json:"amount"`
	At            time.Time        `json:"at"`
}
