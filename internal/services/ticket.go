package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrRecipientBlocked is returned by a Messenger when the user blocked the bot.
	ErrRecipientBlocked = errors.New("recipient blocked the bot")
	ErrUnavailable      = errors.New("ticket collaborator unavailable")
	ErrDispatch         = errors.New("ticket dispatch failed")
)

type Messenger interface {
	SendPhoto(ctx context.Context, recipient string, image []byte, caption string) error
}

type QREncoder interface {
	Encode(content string) ([]byte, error)
}

type IdentityLookup interface {
	Lookup(ctx context.Context, phone string) (string, bool, error)
}

type TicketOutcome string

const (
	OutcomeDelivered         TicketOutcome = "delivered"
	OutcomeUserNotRegistered TicketOutcome = "user_not_found"
	OutcomeRecipientBlocked  TicketOutcome = "bot_blocked"
)

type Ticket struct {
	BookingID  string
	PayerPhone string
	PayerName  string
	EventTitle string
	EventDate  string
}

type TicketResult struct {
	Outcome  TicketOutcome
	Identity string
}

// TicketDispatcher delivers a QR ticket to the messaging identity registered
// for the payer's phone.
type TicketDispatcher struct {
	identities IdentityLookup
	qr         QREncoder
	messenger  Messenger
	log        *zap.Logger
}

func NewTicketDispatcher(identities IdentityLookup, qr QREncoder, messenger Messenger, log *zap.Logger) *TicketDispatcher {
	return &TicketDispatcher{identities: identities, qr: qr, messenger: messenger, log: log}
}

// SendTicket never retries. An unregistered or blocking recipient is a normal
// result; errors wrap ErrUnavailable or ErrDispatch.
func (d *TicketDispatcher) SendTicket(ctx context.Context, t Ticket) (TicketResult, error) {
	if d.identities == nil {
		return TicketResult{}, fmt.Errorf("%w: identity registry not configured", ErrUnavailable)
	}
	if d.messenger == nil {
		return TicketResult{}, fmt.Errorf("%w: messenger not configured", ErrUnavailable)
	}

	identity, ok, err := d.identities.Lookup(ctx, t.PayerPhone)
	if err != nil {
		d.log.Error("Failed to look up identity", zap.String("booking_id", t.BookingID), zap.Error(err))
		return TicketResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		d.log.Info("Ticket recipient not registered",
			zap.String("booking_id", t.BookingID),
			zap.String("phone", maskPhone(NormalizePhone(t.PayerPhone))),
		)
		return TicketResult{Outcome: OutcomeUserNotRegistered}, nil
	}

	image, err := d.qr.Encode(t.BookingID)
	if err != nil {
		d.log.Error("Failed to render ticket QR", zap.String("booking_id", t.BookingID), zap.Error(err))
		return TicketResult{}, fmt.Errorf("%w: qr: %v", ErrDispatch, err)
	}

	if err := d.messenger.SendPhoto(ctx, identity, image, TicketCaption(t)); err != nil {
		if errors.Is(err, ErrRecipientBlocked) {
			d.log.Warn("Ticket recipient blocked the bot",
				zap.String("booking_id", t.BookingID),
				zap.String("identity", identity),
			)
			return TicketResult{Outcome: OutcomeRecipientBlocked, Identity: identity}, nil
		}
		d.log.Error("Failed to send ticket",
			zap.String("booking_id", t.BookingID),
			zap.String("identity", identity),
			zap.Error(err),
		)
		return TicketResult{}, fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	d.log.Info("Ticket delivered", zap.String("booking_id", t.BookingID), zap.String("identity", identity))
	return TicketResult{Outcome: OutcomeDelivered, Identity: identity}, nil
}

// TicketCaption renders the HTML caption sent with the QR image.
func TicketCaption(t Ticket) string {
	lines := []string{
		"🎫 <b>Conference entry ticket</b>",
		"👤 <b>" + html.EscapeString(t.PayerName) + "</b>",
		"📅 " + html.EscapeString(t.EventTitle),
		"📍 " + html.EscapeString(t.EventDate),
		"#️⃣ Booking: <code>" + html.EscapeString(t.BookingID) + "</code>",
	}
	return strings.Join(lines, "\n")
}
