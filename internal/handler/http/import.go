package http

import (
	"log/slog"
	"net/http"

	"github.com/reviewdesk/reviewdesk/internal/service"
	"github.com/reviewdesk/reviewdesk/pkg/httputil"
	"github.com/reviewdesk/reviewdesk/pkg/validator"
)

// maxUploadBytes bounds review file uploads.
const maxUploadBytes = 10 << 20

// ImportHandler handles HTTP requests for review intake endpoints.
type ImportHandler struct {
	service *service.ImportService
	logger  *slog.Logger
}

// NewImportHandler creates a new import HTTP handler.
func NewImportHandler(svc *service.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		service: svc,
		logger:  logger,
	}
}

// MarketplaceImportRequest is the JSON request body for an API-driven import.
type MarketplaceImportRequest struct {
	Marketplace string `json:"marketplace" validate:"required"`
	ProductID   string `json:"product_id" validate:"required"`
}

// ImportFile handles POST /api/v1/imports/file
func (h *ImportHandler) ImportFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid multipart form: " + err.Error()},
		})
		return
	}

	marketplace := r.FormValue("marketplace")

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "file field is required"},
		})
		return
	}
	defer file.Close()

	summary, err := h.service.ImportFile(r.Context(), file, header.Filename, marketplace)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// ImportMarketplace handles POST /api/v1/imports/marketplace
func (h *ImportHandler) ImportMarketplace(w http.ResponseWriter, r *http.Request) {
	var req MarketplaceImportRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	summary, err := h.service.ImportMarketplace(r.Context(), req.Marketplace, req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// Template handles GET /api/v1/imports/template
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="review_import_template.csv"`)
	_, _ = w.Write([]byte(h.service.Template()))
}
