package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reviewdesk/reviewdesk/internal/service"
	"github.com/reviewdesk/reviewdesk/pkg/health"
	"github.com/reviewdesk/reviewdesk/pkg/middleware"
)

// NewRouter creates a chi router with all service routes registered.
func NewRouter(
	importService *service.ImportService,
	reviewService *service.ReviewService,
	productService *service.ProductService,
	healthHandler *health.Handler,
	corsCfg middleware.CORSConfig,
	serviceName string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Operational endpoints
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	// Intake endpoints. The file upload is multipart, so it stays outside the
	// JSON content-type guard.
	importHandler := NewImportHandler(importService, logger)

	r.Route("/api/v1/imports", func(r chi.Router) {
		r.Post("/file", importHandler.ImportFile)
		r.With(ContentTypeJSON).Post("/marketplace", importHandler.ImportMarketplace)
		// The template is static, so clients may cache it for a day.
		r.With(middleware.CacheControl(86400)).Get("/template", importHandler.Template)
	})

	// Tracked-product catalog
	productHandler := NewProductHandler(productService, logger)

	r.Get("/api/v1/products", productHandler.ListProducts)

	// Review query and workflow endpoints
	reviewHandler := NewReviewHandler(reviewService, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Get("/", reviewHandler.ListReviews)
		r.Get("/export", reviewHandler.ExportReviews)
		r.Get("/{id}", reviewHandler.GetReview)

		r.With(ContentTypeJSON).Patch("/{id}/status", reviewHandler.UpdateStatus)
		r.Post("/{id}/suggest-reply", reviewHandler.SuggestReply)
	})

	return r
}
