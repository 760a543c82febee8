package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rfqpulse/internal/errors"
	"rfqpulse/internal/exporter"
	"rfqpulse/internal/services"
)

// RFQHandler serves the ingestion and catalog endpoints.
type RFQHandler struct {
	service     *services.RFQService
	logger      *slog.Logger
	maxUploadMB int64
}

// NewRFQHandler creates the RFQ handler.
func NewRFQHandler(service *services.RFQService, maxUploadMB int64, logger *slog.Logger) *RFQHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RFQHandler{service: service, logger: logger, maxUploadMB: maxUploadMB}
}

// RegisterRoutes mounts the handler under the given router.
func (h *RFQHandler) RegisterRoutes(r chi.Router) {
	r.Route("/rfqs", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/upload", h.Upload)
		r.Post("/import", h.Import)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/export.csv", h.ExportCSV)
		r.Delete("/{id}", h.Delete)
	})
	r.Get("/bidders", h.Bidders)
}

// UploadResponse couples the spooled path with its parse preview so a single
// round trip shows the user what the import would load.
type UploadResponse struct {
	Path    string            `json:"path"`
	Preview *services.Preview `json:"preview"`
}

// Upload accepts a multipart workbook, spools it and returns a parse
// preview. Nothing is persisted until /rfqs/import confirms.
func (h *RFQHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadMB << 20); err != nil {
		renderError(w, r, h.logger, errors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		renderError(w, r, h.logger, errors.MissingParameterError("file"))
		return
	}
	defer file.Close()

	path, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	preview, err := h.service.Preview(r.Context(), path, r.FormValue("sheet"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, UploadResponse{Path: path, Preview: preview})
}

// Import confirms a previewed upload and loads it into the store.
func (h *RFQHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req services.ImportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, h.logger, errors.InvalidRequestWithError(err))
		return
	}

	sol, err := h.service.Import(r.Context(), req)
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sol)
}

// List returns every loaded solicitation, newest first.
func (h *RFQHandler) List(w http.ResponseWriter, r *http.Request) {
	sols, err := h.service.List(r.Context())
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, sols)
}

// Get returns one solicitation with its items and bids.
func (h *RFQHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, detail)
}

// ExportCSV streams one solicitation as a bid-matrix CSV download.
func (h *RFQHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", detail.Solicitation.ID+"_bids.csv"))

	cw := exporter.NewCSVWriter()
	if err := cw.WriteBidMatrix(w, detail.Solicitation, detail.Items, detail.Bids); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("rfq_id", detail.Solicitation.ID),
			slog.String("error", err.Error()))
	}
}

// Delete removes a solicitation and everything under it.
func (h *RFQHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.NoContent(w, r)
}

// Bidders returns every bidder name seen across loaded solicitations.
func (h *RFQHandler) Bidders(w http.ResponseWriter, r *http.Request) {
	bidders, err := h.service.Bidders(r.Context())
	if err != nil {
		renderError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, bidders)
}
