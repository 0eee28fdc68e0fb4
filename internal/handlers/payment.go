package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/markjakearzadon/confticket-gobackend/internal/models"
	"github.com/markjakearzadon/confticket-gobackend/internal/services"
)

type PaymentHandler struct {
	service PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

type initiateRequest struct {
	BookingID    string  `json:"bookingId"`
	Amount       float64 `json:"amount"`
	PayerDetails struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"payerDetails"`
	Method string `json:"method"`
}

type initiateResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "invalid request body")
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	if req.BookingID == "" {
		writeError(w, h.log, http.StatusBadRequest, "bookingId is required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, h.log, http.StatusBadRequest, "amount must be positive")
		return
	}
	method := services.PaymentMethod(strings.ToUpper(req.Method))
	switch method {
	case "":
		method = services.MethodCard
	case services.MethodCard, services.MethodWallet:
	default:
		writeError(w, h.log, http.StatusBadRequest, "method must be CARD or WALLET")
		return
	}

	url, err := h.service.Initiate(r.Context(), services.PaymentSessionRequest{
		BookingID:  req.BookingID,
		Amount:     req.Amount,
		PayerName:  req.PayerDetails.Name,
		PayerPhone: req.PayerDetails.Phone,
		Method:     method,
	})
	if err != nil {
		// Gateway details stay in the logs.
		msg := "payment initiation failed"
		if errors.Is(err, services.ErrGatewayNotConfigured) {
			msg = "payment gateway not configured"
		}
		writeError(w, h.log, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, h.log, http.StatusOK, initiateResponse{Success: true, URL: url})
}

// Webhook consumes Paymob transaction callbacks. Paymob retries anything but
// a 2xx, so only storage faults answer 500.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var callback models.PaymobCallback
	if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
		// A non-2xx only makes Paymob redeliver the same bytes.
		h.log.Warn("Undecodable webhook payload", zap.Error(err))
		writeJSON(w, h.log, http.StatusOK, map[string]any{"received": false})
		return
	}

	transition, err := h.service.HandleCallback(r.Context(), &callback, r.URL.Query().Get("hmac"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			writeError(w, h.log, http.StatusForbidden, "invalid signature")
			return
		}
		h.log.Error("Webhook processing failed", zap.Error(err))
		writeError(w, h.log, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]any{"received": true, "result": transition})
}
