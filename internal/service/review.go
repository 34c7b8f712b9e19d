package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	"github.com/reviewdesk/reviewdesk/internal/repository"
	apperrors "github.com/reviewdesk/reviewdesk/pkg/errors"
)

// replySuggester generates a fresh reply for an existing review.
type replySuggester interface {
	SuggestReply(ctx context.Context, review *domain.Review) (string, error)
}

// statusPublisher announces workflow status changes.
type statusPublisher interface {
	PublishReviewStatusChanged(ctx context.Context, id, status string) error
}

// ReviewService implements the business logic for review queries and the
// workflow state machine.
type ReviewService struct {
	repo      repository.ReviewRepository
	suggester replySuggester
	producer  statusPublisher
	logger    *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(repo repository.ReviewRepository, suggester replySuggester, producer statusPublisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:      repo,
		suggester: suggester,
		producer:  producer,
		logger:    logger,
	}
}

// ListReviews returns reviews matching the filter plus the total count.
// Enum-valued filters are checked up front so typos fail fast instead of
// silently matching nothing.
func (s *ReviewService) ListReviews(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	if filter.Marketplace != nil && !domain.IsValidMarketplace(*filter.Marketplace) {
		return nil, 0, apperrors.InvalidInput("unknown marketplace: " + *filter.Marketplace)
	}
	if filter.Status != nil && !domain.IsValidStatus(*filter.Status) {
		return nil, 0, apperrors.InvalidInput("unknown status: " + *filter.Status)
	}
	if filter.Sentiment != nil && !domain.IsValidSentiment(*filter.Sentiment) {
		return nil, 0, apperrors.InvalidInput("unknown sentiment: " + *filter.Sentiment)
	}
	if filter.Severity != nil && !domain.IsValidSeverity(*filter.Severity) {
		return nil, 0, apperrors.InvalidInput("unknown severity: " + *filter.Severity)
	}

	reviews, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

// GetReview returns a single review by id.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return review, nil
}

// UpdateStatus moves a review to the given workflow status. Any status can
// move to any other; only membership in the closed set is enforced. The store
// is untouched when the target status is invalid.
func (s *ReviewService) UpdateStatus(ctx context.Context, id, status string) (*domain.Review, error) {
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("status must be one of: %s", strings.Join(domain.ValidStatuses(), ", ")))
	}

	review, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishReviewStatusChanged(ctx, id, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.status_changed event",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review status updated",
		slog.String("review_id", id),
		slog.String("status", status),
	)

	return review, nil
}

// SuggestReply re-invokes the classifier for a fresh suggested reply and
// persists it. Unlike import-time classification there is no silent fallback;
// the caller asked explicitly, so unavailability surfaces as an error.
func (s *ReviewService) SuggestReply(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reply, err := s.suggester.SuggestReply(ctx, review)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSuggestedReply(ctx, id, reply); err != nil {
		return nil, err
	}

	review.AISuggestedReply = &reply
	return review, nil
}
