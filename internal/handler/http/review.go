package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reviewdesk/reviewdesk/internal/repository"
	"github.com/reviewdesk/reviewdesk/internal/service"
	"github.com/reviewdesk/reviewdesk/pkg/httputil"
	"github.com/reviewdesk/reviewdesk/pkg/validator"
)

// ReviewHandler handles HTTP requests for review query and workflow endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// UpdateStatusRequest is the JSON request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListReviews handles GET /api/v1/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	reviews, total, err := h.service.ListReviews(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(reviews, total, filter.Page, filter.PerPage))
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// UpdateStatus handles PATCH /api/v1/reviews/{id}/status
func (h *ReviewHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.UpdateStatus(r.Context(), id.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// SuggestReply handles POST /api/v1/reviews/{id}/suggest-reply
func (h *ReviewHandler) SuggestReply(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.SuggestReply(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// ExportReviews handles GET /api/v1/reviews/export
func (h *ReviewHandler) ExportReviews(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="reviews_export.csv"`)

	if err := h.service.ExportCSV(r.Context(), filter, w); err != nil {
		// The header line may already be on the wire; log instead of rewriting
		// the status.
		h.logger.ErrorContext(r.Context(), "review export failed",
			slog.String("error", err.Error()),
		)
	}
}

// filterFromQuery maps list/export query parameters onto a repository filter.
// Unknown values pass through; the service validates enum membership.
func filterFromQuery(r *http.Request) repository.ReviewFilter {
	q := r.URL.Query()

	filter := repository.ReviewFilter{Page: 1, PerPage: 20}

	strParam := func(name string) *string {
		if v := q.Get(name); v != "" {
			return &v
		}
		return nil
	}

	filter.Marketplace = strParam("marketplace")
	filter.Status = strParam("status")
	filter.Sentiment = strParam("sentiment")
	filter.Severity = strParam("severity")
	filter.Category = strParam("category")
	filter.ProductID = strParam("product_id")
	filter.Search = strParam("search")

	if v := q.Get("rating"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Rating = &n
		}
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = &t
		}
	}
	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if v := q.Get("per_page"); v != "" {
		if pp, err := strconv.Atoi(v); err == nil && pp > 0 && pp <= 100 {
			filter.PerPage = pp
		}
	}

	return filter
}
