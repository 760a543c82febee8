package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rfqpulse/internal/services"
)

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the handler under the given router.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Check)
}

// Check answers the probe. Degraded status still answers 200 so load
// balancers keep routing while the database hiccup is investigated; the
// body carries the detail.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Check(r.Context()))
}
