package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	"github.com/reviewdesk/reviewdesk/internal/repository"
	"github.com/reviewdesk/reviewdesk/pkg/database"
	apperrors "github.com/reviewdesk/reviewdesk/pkg/errors"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var reviewCols = []string{
	"id", "external_review_id", "marketplace", "product_id", "asin", "verified",
	"title", "content", "customer_name", "customer_email", "rating",
	"sentiment", "severity", "category", "status",
	"ai_suggested_reply", "ai_analysis_details", "created_at", "imported_at",
}

var reviewColsWithCount = append(append([]string{}, reviewCols...), "total_count")

func sampleReview() domain.Review {
	return domain.Review{
		ID:               "rev-1",
		ExternalReviewID: strPtr("EXT-1"),
		Marketplace:      domain.MarketplaceAmazon,
		ProductID:        strPtr("B00EXAMPLE"),
		ASIN:             strPtr("B00EXAMPLE"),
		Verified:         boolPtr(true),
		Title:            "Great quality",
		Content:          "Works as described",
		CustomerName:     "Jane Doe",
		CustomerEmail:    strPtr("jane@example.com"),
		Rating:           intPtr(5),
		Sentiment:        domain.SentimentPositive,
		Severity:         domain.SeverityLow,
		Category:         "product_quality",
		Status:           domain.StatusOpen,
		CreatedAt:        now.Add(-24 * time.Hour),
		ImportedAt:       now,
	}
}

func reviewRow(rv domain.Review) []any {
	return []any{
		rv.ID, rv.ExternalReviewID, rv.Marketplace, rv.ProductID, rv.ASIN, rv.Verified,
		rv.Title, rv.Content, rv.CustomerName, rv.CustomerEmail, rv.Rating,
		rv.Sentiment, rv.Severity, rv.Category, rv.Status,
		rv.AISuggestedReply, rv.AIAnalysisDetails, rv.CreatedAt, rv.ImportedAt,
	}
}

func TestReviewCreate_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)
	rv := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			rv.ID, rv.ExternalReviewID, rv.Marketplace, rv.ProductID, rv.ASIN, rv.Verified,
			rv.Title, rv.Content, rv.CustomerName, rv.CustomerEmail, rv.Rating,
			rv.Sentiment, rv.Severity, rv.Category, rv.Status,
			rv.AISuggestedReply, rv.AIAnalysisDetails, rv.CreatedAt, rv.ImportedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &rv)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCreate_DBError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)
	rv := sampleReview()

	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(
			rv.ID, rv.ExternalReviewID, rv.Marketplace, rv.ProductID, rv.ASIN, rv.Verified,
			rv.Title, rv.Content, rv.CustomerName, rv.CustomerEmail, rv.Rating,
			rv.Sentiment, rv.Severity, rv.Category, rv.Status,
			rv.AISuggestedReply, rv.AIAnalysisDetails, rv.CreatedAt, rv.ImportedAt,
		).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), &rv)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert review")
}

func TestReviewGetByID_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)
	rv := sampleReview()

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs(rv.ID).
		WillReturnRows(pgxmock.NewRows(reviewCols).AddRow(reviewRow(rv)...))

	got, err := repo.GetByID(context.Background(), rv.ID)

	require.NoError(t, err)
	assert.Equal(t, rv.ID, got.ID)
	assert.Equal(t, rv.Title, got.Title)
	assert.Equal(t, rv.Status, got.Status)
}

func TestReviewGetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing-id")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReviewList_NoFilter(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)
	rv := sampleReview()

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(reviewColsWithCount).
			AddRow(append(reviewRow(rv), 1)...))

	reviews, total, err := repo.List(context.Background(), repository.ReviewFilter{})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, reviews, 1)
	assert.Equal(t, rv.ID, reviews[0].ID)
}

func TestReviewList_WithFilters(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)
	rv := sampleReview()

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs(domain.MarketplaceAmazon, domain.StatusOpen, "%battery%", 10, 10).
		WillReturnRows(pgxmock.NewRows(reviewColsWithCount).
			AddRow(append(reviewRow(rv), 42)...))

	filter := repository.ReviewFilter{
		Marketplace: strPtr(domain.MarketplaceAmazon),
		Status:      strPtr(domain.StatusOpen),
		Search:      strPtr("battery"),
		Page:        2,
		PerPage:     10,
	}

	reviews, total, err := repo.List(context.Background(), filter)

	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.Len(t, reviews, 1)
}

func TestReviewList_EmptyResult(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM reviews").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(reviewColsWithCount))

	reviews, total, err := repo.List(context.Background(), repository.ReviewFilter{})

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}

func TestReviewUpdateStatus_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)
	rv := sampleReview()
	rv.Status = domain.StatusResolved

	mock.ExpectQuery("UPDATE reviews").
		WithArgs(rv.ID, domain.StatusResolved).
		WillReturnRows(pgxmock.NewRows(reviewCols).AddRow(reviewRow(rv)...))

	got, err := repo.UpdateStatus(context.Background(), rv.ID, domain.StatusResolved)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, got.Status)
}

func TestReviewUpdateStatus_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("UPDATE reviews").
		WithArgs("missing-id", domain.StatusResolved).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), "missing-id", domain.StatusResolved)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReviewUpdateSuggestedReply_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectExec("UPDATE reviews").
		WithArgs("missing-id", "Thanks for the feedback").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateSuggestedReply(context.Background(), "missing-id", "Thanks for the feedback")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReviewExistsByExternalID(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(domain.MarketplaceAmazon, "EXT-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByExternalID(context.Background(), domain.MarketplaceAmazon, "EXT-1")

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReviewExistsByFallbackKey(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReviewRepository(mock)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(domain.MarketplaceWebsite, "Jane Doe", "Great quality", now).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsByFallbackKey(context.Background(), domain.MarketplaceWebsite, "Jane Doe", "Great quality", now)

	require.NoError(t, err)
	assert.False(t, exists)
}
