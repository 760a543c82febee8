package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rfqpulse/internal/analytics"
	"rfqpulse/internal/services"
)

// AnalysisHandler serves the analytics endpoints.
type AnalysisHandler struct {
	service *services.AnalysisService
	logger  *slog.Logger
}

// NewAnalysisHandler creates the analysis handler.
func NewAnalysisHandler(service *services.AnalysisService, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the handler under the given router.
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Route("/rfqs/{id}/analysis", func(r chi.Router) {
		r.Get("/awards", h.Awards)
		r.Get("/variance", h.Variance)
		r.Get("/subsets", h.Subsets)
		r.Get("/estimates", h.Estimates)
	})
	r.Route("/analysis", func(r chi.Router) {
		r.Get("/trends", h.Trends)
		r.Get("/patterns", h.Patterns)
	})
}

// Awards returns the award scenario comparison for one solicitation.
func (h *AnalysisHandler) Awards(w http.ResponseWriter, r *http.Request) {
	scenario, err := h.service.Awards(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, scenario)
}

// Variance returns per-item price dispersion for one solicitation.
func (h *AnalysisHandler) Variance(w http.ResponseWriter, r *http.Request) {
	variance, err := h.service.Variance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, variance)
}

// Subsets returns the optimal bidder subset per coalition size.
func (h *AnalysisHandler) Subsets(w http.ResponseWriter, r *http.Request) {
	subsets, err := h.service.Subsets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, subsets)
}

// Estimates returns historical price estimates for a solicitation's items.
func (h *AnalysisHandler) Estimates(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Estimates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, report)
}

// Trends returns the price history across all concrete solicitations,
// optionally filtered by item_type and q (substring of the description).
func (h *AnalysisHandler) Trends(w http.ResponseWriter, r *http.Request) {
	filter := analytics.TrendFilter{
		ItemType:        r.URL.Query().Get("item_type"),
		DescriptionLike: r.URL.Query().Get("q"),
	}
	trends, err := h.service.Trends(r.Context(), filter)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, trends)
}

// Patterns returns per-bidder behaviour aggregated by item type.
func (h *AnalysisHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := h.service.Patterns(r.Context())
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, patterns)
}
