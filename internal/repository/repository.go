package repository

import (
	"context"
	"time"

	"github.com/reviewdesk/reviewdesk/internal/domain"
)

// ReviewFilter defines filter criteria for listing reviews. Nil fields are
// ignored; set fields combine with AND.
type ReviewFilter struct {
	Marketplace *string
	Status      *string
	Sentiment   *string
	Severity    *string
	Category    *string
	ProductID   *string
	Rating      *int
	From        *time.Time
	To          *time.Time
	Search      *string
	Page        int
	PerPage     int
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the given filter, newest first by the
	// review's original creation time, along with the total count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// UpdateStatus changes the workflow status of a review and returns the
	// updated row.
	UpdateStatus(ctx context.Context, id, status string) (*domain.Review, error)

	// UpdateSuggestedReply stores a freshly generated reply for a review.
	UpdateSuggestedReply(ctx context.Context, id, reply string) error

	// ExistsByExternalID reports whether a review with the given stable
	// marketplace identity is already stored.
	ExistsByExternalID(ctx context.Context, marketplace, externalID string) (bool, error)

	// ExistsByFallbackKey reports whether a review matching the heuristic
	// identity tuple is already stored.
	ExistsByFallbackKey(ctx context.Context, marketplace, customerName, title string, createdAt time.Time) (bool, error)
}

// ProductRepository defines the interface for product tracking operations.
type ProductRepository interface {
	// RecordImport upserts the product identified by (platform, productID),
	// adding n to its review count, refreshing its last import time, and
	// recording the display name when one is known.
	RecordImport(ctx context.Context, platform, productID, name string, n int, at time.Time) error

	// List returns all tracked products ordered by most recently imported.
	List(ctx context.Context) ([]domain.Product, error)
}
