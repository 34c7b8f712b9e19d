package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reviewdesk/reviewdesk/internal/importer"
	pkgkafka "github.com/reviewdesk/reviewdesk/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewImported      = "reviewdesk.review.imported"
	TopicReviewStatusChanged = "reviewdesk.review.status_changed"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from this service.
const SourceReviewService = "reviewdesk"

// ReviewImportedData is the payload for a review.imported event, summarizing
// one completed import batch.
type ReviewImportedData struct {
	Marketplace string `json:"marketplace"`
	Imported    int    `json:"imported"`
	Skipped     int    `json:"skipped"`
	Rejected    int    `json:"rejected"`
}

// ReviewStatusChangedData is the payload for a review.status_changed event.
type ReviewStatusChangedData struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewImported publishes a review.imported event for one batch. The
// batch id keys the message so replays stay ordered per import.
func (p *Producer) PublishReviewImported(ctx context.Context, batchID, marketplace string, summary *importer.Summary) error {
	data := ReviewImportedData{
		Marketplace: marketplace,
		Imported:    summary.Imported,
		Skipped:     summary.Skipped,
		Rejected:    summary.Rejected,
	}

	event, err := pkgkafka.NewEvent(TopicReviewImported, batchID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.imported event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewImported, event); err != nil {
		return fmt.Errorf("publish review.imported event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.imported event",
		slog.String("batch_id", batchID),
		slog.String("marketplace", marketplace),
		slog.Int("imported", summary.Imported),
	)

	return nil
}

// PublishReviewStatusChanged publishes a review.status_changed event.
func (p *Producer) PublishReviewStatusChanged(ctx context.Context, id, status string) error {
	data := ReviewStatusChangedData{ID: id, Status: status}

	event, err := pkgkafka.NewEvent(TopicReviewStatusChanged, id, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewStatusChanged, event); err != nil {
		return fmt.Errorf("publish review.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.status_changed event",
		slog.String("review_id", id),
		slog.String("status", status),
	)

	return nil
}
