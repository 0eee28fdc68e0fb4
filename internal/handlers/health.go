package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type HealthHandler struct {
	checker HealthChecker
	log     *zap.Logger
}

func NewHealthHandler(checker HealthChecker, log *zap.Logger) *HealthHandler {
	return &HealthHandler{checker: checker, log: log}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   time.Time         `json:"time"`
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	res := h.checker.Check(r.Context())
	status, code := "ok", http.StatusOK
	if !res.OK {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, h.log, code, healthResponse{Status: status, Checks: res.Checks, Time: res.At})
}

// Root answers load balancer probes.
func Root(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
