package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/markjakearzadon/confticket-gobackend/internal/services"
)

const adminTokenHeader = "x-admin-token"

type TicketHandler struct {
	tickets    TicketSender
	adminToken string
	log        *zap.Logger
}

func NewTicketHandler(tickets TicketSender, adminToken string, log *zap.Logger) *TicketHandler {
	return &TicketHandler{tickets: tickets, adminToken: adminToken, log: log}
}

type sendTicketRequest struct {
	Phone           string `json:"phone"`
	UserName        string `json:"userName"`
	EventTitle      string `json:"eventTitle"`
	ConferenceTitle string `json:"conferenceTitle"`
	Date            string `json:"date"`
	BookingID       string `json:"bookingId"`
}

type sendTicketResponse struct {
	Success  bool   `json:"success"`
	Identity string `json:"identity,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *TicketHandler) authorized(r *http.Request) bool {
	token := r.Header.Get(adminTokenHeader)
	if h.adminToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) == 1
}

// Send delivers a ticket on operator request. Unregistered and blocking
// recipients are reported with success=false and a reason, not an error
// status.
func (h *TicketHandler) Send(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.log.Warn("Rejected ticket request", zap.String("remote_addr", r.RemoteAddr))
		writeError(w, h.log, http.StatusForbidden, "unauthorized")
		return
	}

	var req sendTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.log, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		writeError(w, h.log, http.StatusBadRequest, "phone missing")
		return
	}
	req.BookingID = strings.TrimSpace(req.BookingID)
	if req.BookingID == "" {
		writeError(w, h.log, http.StatusBadRequest, "bookingId missing")
		return
	}
	title := req.EventTitle
	if title == "" {
		title = req.ConferenceTitle
	}

	res, err := h.tickets.SendTicket(r.Context(), services.Ticket{
		BookingID:  req.BookingID,
		PayerPhone: req.Phone,
		PayerName:  req.UserName,
		EventTitle: title,
		EventDate:  req.Date,
	})
	if err != nil {
		if errors.Is(err, services.ErrUnavailable) {
			writeError(w, h.log, http.StatusServiceUnavailable, "ticket delivery unavailable")
			return
		}
		writeError(w, h.log, http.StatusInternalServerError, err.Error())
		return
	}

	switch res.Outcome {
	case services.OutcomeDelivered:
		writeJSON(w, h.log, http.StatusOK, sendTicketResponse{Success: true, Identity: res.Identity})
	case services.OutcomeUserNotRegistered:
		writeJSON(w, h.log, http.StatusOK, sendTicketResponse{Reason: string(res.Outcome), Error: "user needs to start the bot"})
	case services.OutcomeRecipientBlocked:
		writeJSON(w, h.log, http.StatusOK, sendTicketResponse{Reason: string(res.Outcome), Error: "user blocked the bot"})
	default:
		writeError(w, h.log, http.StatusInternalServerError, "unknown ticket outcome")
	}
}
