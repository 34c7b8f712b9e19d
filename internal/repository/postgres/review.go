package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	"github.com/reviewdesk/reviewdesk/internal/repository"
	"github.com/reviewdesk/reviewdesk/pkg/database"
	apperrors "github.com/reviewdesk/reviewdesk/pkg/errors"
)

const reviewColumns = `id, external_review_id, marketplace, product_id, asin, verified,
	       title, content, customer_name, customer_email, rating,
	       sentiment, severity, category, status,
	       ai_suggested_reply, ai_analysis_details, created_at, imported_at`

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review into the database.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.ExternalReviewID,
		review.Marketplace,
		review.ProductID,
		review.ASIN,
		review.Verified,
		review.Title,
		review.Content,
		review.CustomerName,
		review.CustomerEmail,
		review.Rating,
		review.Sentiment,
		review.Severity,
		review.Category,
		review.Status,
		review.AISuggestedReply,
		review.AIAnalysisDetails,
		review.CreatedAt,
		review.ImportedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a single review by its identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE id = $1`

	var rv domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(&rv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return &rv, nil
}

// List returns reviews matching the filter, newest first by created_at, along
// with the total matching count.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	where, args := buildReviewWhere(filter)

	query := fmt.Sprintf(`
		SELECT `+reviewColumns+`,
		       count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var rv domain.Review
		targets := append(scanTargets(&rv), &totalCount)
		if err := rows.Scan(targets...); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// UpdateStatus changes a review's workflow status and returns the updated row.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.Review, error) {
	query := `
		UPDATE reviews
		SET status = $2
		WHERE id = $1
		RETURNING ` + reviewColumns

	var rv domain.Review
	err := r.pool.QueryRow(ctx, query, id, status).Scan(scanTargets(&rv)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("update review status: %w", err)
	}

	return &rv, nil
}

// UpdateSuggestedReply stores a freshly generated reply for a review.
func (r *ReviewRepository) UpdateSuggestedReply(ctx context.Context, id, reply string) error {
	query := `
		UPDATE reviews
		SET ai_suggested_reply = $2
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, reply)
	if err != nil {
		return fmt.Errorf("update suggested reply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// ExistsByExternalID reports whether the stable marketplace identity is
// already stored.
func (r *ReviewRepository) ExistsByExternalID(ctx context.Context, marketplace, externalID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reviews
			WHERE marketplace = $1 AND external_review_id = $2
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, marketplace, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check external id: %w", err)
	}

	return exists, nil
}

// ExistsByFallbackKey reports whether the heuristic identity tuple is already
// stored.
func (r *ReviewRepository) ExistsByFallbackKey(ctx context.Context, marketplace, customerName, title string, createdAt time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reviews
			WHERE marketplace = $1 AND customer_name = $2 AND title = $3 AND created_at = $4
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, marketplace, customerName, title, createdAt).Scan(&exists); err != nil {
		return false, fmt.Errorf("check fallback key: %w", err)
	}

	return exists, nil
}

// scanTargets returns scan destinations in reviewColumns order.
func scanTargets(rv *domain.Review) []any {
	return []any{
		&rv.ID,
		&rv.ExternalReviewID,
		&rv.Marketplace,
		&rv.ProductID,
		&rv.ASIN,
		&rv.Verified,
		&rv.Title,
		&rv.Content,
		&rv.CustomerName,
		&rv.CustomerEmail,
		&rv.Rating,
		&rv.Sentiment,
		&rv.Severity,
		&rv.Category,
		&rv.Status,
		&rv.AISuggestedReply,
		&rv.AIAnalysisDetails,
		&rv.CreatedAt,
		&rv.ImportedAt,
	}
}

// buildReviewWhere assembles the WHERE clause for List from the set filter
// fields. Search matches title, content, and customer name case-insensitively.
func buildReviewWhere(filter repository.ReviewFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Marketplace != nil {
		add("marketplace = $%d", *filter.Marketplace)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Sentiment != nil {
		add("sentiment = $%d", *filter.Sentiment)
	}
	if filter.Severity != nil {
		add("severity = $%d", *filter.Severity)
	}
	if filter.Category != nil {
		add("category = $%d", *filter.Category)
	}
	if filter.ProductID != nil {
		add("product_id = $%d", *filter.ProductID)
	}
	if filter.Rating != nil {
		add("rating = $%d", *filter.Rating)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= $%d", *filter.To)
	}
	if filter.Search != nil {
		args = append(args, "%"+*filter.Search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d OR customer_name ILIKE $%d OR category ILIKE $%d)", n, n, n, n))
	}

	if len(clauses) == 0 {
		return "", args
	}

	where := "WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}

	return where, args
}
