package handlers

import (
	"context"

	"github.com/markjakearzadon/confticket-gobackend/internal/health"
	"github.com/markjakearzadon/confticket-gobackend/internal/models"
	"github.com/markjakearzadon/confticket-gobackend/internal/services"
)

type PaymentService interface {
	Initiate(ctx context.Context, req services.PaymentSessionRequest) (string, error)
	HandleCallback(ctx context.Context, callback *models.PaymobCallback, signature string) (services.Transition, error)
}

type TicketSender interface {
	SendTicket(ctx context.Context, t services.Ticket) (services.TicketResult, error)
}

type HealthChecker interface {
	Check(ctx context.Context) health.Result
}
