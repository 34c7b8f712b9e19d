package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/reviewdesk/reviewdesk/internal/domain"
)

// StoreProbe is the subset of the review store the dedup filter needs to
// detect collisions with previously persisted reviews.
type StoreProbe interface {
	ExistsByExternalID(ctx context.Context, marketplace, externalID string) (bool, error)
	ExistsByFallbackKey(ctx context.Context, marketplace, customerName, title string, createdAt time.Time) (bool, error)
}

// Deduper decides whether a normalized review duplicates an already-stored
// review or another row accepted earlier in the same batch. Duplicates are
// skipped silently and tallied, never errors.
//
// The primary identity is (marketplace, external_review_id). When the source
// supplies no stable id the fallback is the exact (marketplace, customer,
// title, created_at) tuple — a heuristic with no uniqueness guarantee; two
// genuinely distinct reviews matching on all four fields are merged by policy.
type Deduper struct {
	store StoreProbe
	seen  map[string]struct{}
}

// NewDeduper creates a dedup filter scoped to one import batch.
func NewDeduper(store StoreProbe) *Deduper {
	return &Deduper{
		store: store,
		seen:  make(map[string]struct{}),
	}
}

// IsDuplicate reports whether the review collides with the store or with a
// row already accepted in this batch. A non-duplicate is recorded so later
// rows in the batch dedup against it.
func (d *Deduper) IsDuplicate(ctx context.Context, review *domain.Review) (bool, error) {
	key := review.DedupKey()
	if _, ok := d.seen[key]; ok {
		return true, nil
	}

	var exists bool
	var err error
	if review.ExternalReviewID != nil && *review.ExternalReviewID != "" {
		exists, err = d.store.ExistsByExternalID(ctx, review.Marketplace, *review.ExternalReviewID)
	} else {
		exists, err = d.store.ExistsByFallbackKey(ctx, review.Marketplace, review.CustomerName, review.Title, review.CreatedAt)
	}
	if err != nil {
		return false, fmt.Errorf("dedup probe: %w", err)
	}
	if exists {
		return true, nil
	}

	d.seen[key] = struct{}{}
	return false, nil
}
