package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasks/api/transport"
	"github.com/fastygo/tasks/internal/infrastructure/monitor"
	"github.com/fastygo/tasks/internal/services"
	"github.com/fastygo/tasks/pkg/httpcontext"
)

// StatusSource reports the latest store probe results.
type StatusSource interface {
	GetStatus() monitor.Status
}

// FailureSource reports store write failures seen by the task repository.
type FailureSource interface {
	Snapshot() map[string]services.WriteFailure
}

type HealthHandler struct {
	baseHandler
	monitor  StatusSource
	failures FailureSource
}

func NewHealthHandler(mon StatusSource, failures FailureSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		failures:    failures,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp":  time.Now().UTC(),
		"last_check": status.LastCheck,
		"services":   status.Components,
	}
	if h.failures != nil {
		payload["write_failures"] = h.failures.Snapshot()
	}

	if status.Online() {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "remote task store unreachable", payload))
}
