package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	"github.com/reviewdesk/reviewdesk/internal/importer"
	apperrors "github.com/reviewdesk/reviewdesk/pkg/errors"
)

// batchRunner runs parsed records through the import pipeline.
type batchRunner interface {
	Run(ctx context.Context, parsed *importer.ParseResult, marketplace string) (*importer.Summary, error)
}

// reviewFetcher pulls provider reviews for one product from the extraction API.
type reviewFetcher interface {
	FetchReviews(ctx context.Context, marketplace, productID string) (*importer.ParseResult, string, error)
}

// importPublisher announces completed import batches.
type importPublisher interface {
	PublishReviewImported(ctx context.Context, batchID, marketplace string, summary *importer.Summary) error
}

// ImportService implements the business logic for review intake.
type ImportService struct {
	pipeline    batchRunner
	marketplace reviewFetcher
	producer    importPublisher
	logger      *slog.Logger
}

// NewImportService creates a new import service.
func NewImportService(pipeline batchRunner, marketplace reviewFetcher, producer importPublisher, logger *slog.Logger) *ImportService {
	return &ImportService{
		pipeline:    pipeline,
		marketplace: marketplace,
		producer:    producer,
		logger:      logger,
	}
}

// ImportFile ingests an uploaded CSV or JSON review file for one marketplace.
// The format is picked from the filename extension, defaulting to CSV.
func (s *ImportService) ImportFile(ctx context.Context, file io.Reader, filename, marketplace string) (*importer.Summary, error) {
	if marketplace == "" {
		return nil, apperrors.InvalidInput("marketplace is required")
	}
	if !domain.IsImportableMarketplace(marketplace) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("marketplace must be one of: %s", strings.Join(domain.ImportableMarketplaces(), ", ")))
	}

	var (
		parsed *importer.ParseResult
		err    error
	)
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		parsed, err = importer.ParseJSON(file)
	} else {
		parsed, err = importer.ParseCSV(file)
	}
	if err != nil {
		return nil, apperrors.InvalidInput("unparseable file: " + err.Error())
	}

	return s.runBatch(ctx, parsed, marketplace)
}

// ImportMarketplace fetches a product's reviews from the extraction API and
// runs them through the same pipeline as file uploads.
func (s *ImportService) ImportMarketplace(ctx context.Context, marketplace, productID string) (*importer.Summary, error) {
	if !domain.IsImportableMarketplace(marketplace) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("marketplace must be one of: %s", strings.Join(domain.ImportableMarketplaces(), ", ")))
	}
	if strings.TrimSpace(productID) == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}

	parsed, productTitle, err := s.marketplace.FetchReviews(ctx, marketplace, productID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "marketplace reviews fetched",
		slog.String("marketplace", marketplace),
		slog.String("product_id", productID),
		slog.String("product_title", productTitle),
		slog.Int("records", len(parsed.Records)),
	)

	return s.runBatch(ctx, parsed, marketplace)
}

// Template returns the CSV template served for download.
func (s *ImportService) Template() string {
	return importer.TemplateCSV
}

func (s *ImportService) runBatch(ctx context.Context, parsed *importer.ParseResult, marketplace string) (*importer.Summary, error) {
	summary, err := s.pipeline.Run(ctx, parsed, marketplace)
	if err != nil {
		return summary, fmt.Errorf("import batch: %w", err)
	}

	batchID := uuid.New().String()
	if err := s.producer.PublishReviewImported(ctx, batchID, marketplace, summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.imported event",
			slog.String("batch_id", batchID),
			slog.String("error", err.Error()),
		)
		// Do not fail the import if event publishing fails.
	}

	return summary, nil
}
