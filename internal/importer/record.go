package importer

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	apperrors "github.com/reviewdesk/reviewdesk/pkg/errors"
)

// Record is the provider-agnostic intermediate shape every intake path (CSV
// upload, JSON upload, marketplace API, mailbox) reduces to before
// normalization. Optional fields are pointers so "absent" stays distinct from
// zero values.
type Record struct {
	ExternalID    *string
	Title         string
	Content       string
	CustomerName  string
	CustomerEmail *string
	Rating        *int
	CreatedAt     *time.Time

	ProductID   *string
	ProductName *string
	ASIN        *string
	Verified    *bool
}

// Normalize maps an intermediate record onto the canonical Review for the
// given marketplace. Title, content, and customer name must be non-empty after
// trimming; a violation rejects the record (the batch continues). A missing
// source timestamp defaults to the import time, never to zero.
func Normalize(rec Record, marketplace string, importedAt time.Time) (*domain.Review, error) {
	title := strings.TrimSpace(rec.Title)
	content := strings.TrimSpace(rec.Content)
	customer := strings.TrimSpace(rec.CustomerName)

	if title == "" {
		return nil, apperrors.InvalidInput("review title is required")
	}
	if content == "" {
		return nil, apperrors.InvalidInput("review content is required")
	}
	if customer == "" {
		return nil, apperrors.InvalidInput("customer name is required")
	}
	if !domain.IsValidMarketplace(marketplace) {
		return nil, apperrors.InvalidInput("unknown marketplace: " + marketplace)
	}

	createdAt := importedAt
	if rec.CreatedAt != nil {
		createdAt = *rec.CreatedAt
	}

	rating := rec.Rating
	if rating != nil && (*rating < 1 || *rating > 5) {
		// Out-of-scale ratings become unknown rather than rejecting the row.
		rating = nil
	}

	var email *string
	if rec.CustomerEmail != nil {
		if e := strings.TrimSpace(*rec.CustomerEmail); e != "" {
			email = &e
		}
	}

	var externalID *string
	if rec.ExternalID != nil {
		if id := strings.TrimSpace(*rec.ExternalID); id != "" {
			externalID = &id
		}
	}

	return &domain.Review{
		ID:               uuid.New().String(),
		ExternalReviewID: externalID,
		Marketplace:      marketplace,
		ProductID:        rec.ProductID,
		ASIN:             rec.ASIN,
		Verified:         rec.Verified,
		Title:            title,
		Content:          content,
		CustomerName:     customer,
		CustomerEmail:    email,
		Rating:           rating,
		Sentiment:        domain.DefaultSentiment,
		Severity:         domain.DefaultSeverity,
		Category:         domain.DefaultCategory,
		Status:           domain.StatusOpen,
		CreatedAt:        createdAt.UTC(),
		ImportedAt:       importedAt.UTC(),
	}, nil
}
