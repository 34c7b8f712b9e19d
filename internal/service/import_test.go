package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	"github.com/reviewdesk/reviewdesk/internal/importer"
	apperrors "github.com/reviewdesk/reviewdesk/pkg/errors"
)

// --- Mock Batch Runner ---

type mockBatchRunner struct {
	mock.Mock
}

func (m *mockBatchRunner) Run(ctx context.Context, parsed *importer.ParseResult, marketplace string) (*importer.Summary, error) {
	args := m.Called(ctx, parsed, marketplace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importer.Summary), args.Error(1)
}

// --- Mock Review Fetcher ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchReviews(ctx context.Context, marketplace, productID string) (*importer.ParseResult, string, error) {
	args := m.Called(ctx, marketplace, productID)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*importer.ParseResult), args.String(1), args.Error(2)
}

// --- Mock Import Publisher ---

type mockImportPublisher struct {
	mock.Mock
}

func (m *mockImportPublisher) PublishReviewImported(ctx context.Context, batchID, marketplace string, summary *importer.Summary) error {
	args := m.Called(ctx, batchID, marketplace, summary)
	return args.Error(0)
}

func newTestImportService(runner *mockBatchRunner, fetcher *mockFetcher, producer *mockImportPublisher) *ImportService {
	return NewImportService(runner, fetcher, producer, newTestLogger())
}

const validCSV = "Title,Content,Customer Name\nGreat,Body,Jane\n"

// --- Tests ---

func TestImportFile_CSV(t *testing.T) {
	runner := new(mockBatchRunner)
	producer := new(mockImportPublisher)
	svc := newTestImportService(runner, nil, producer)
	ctx := context.Background()

	summary := &importer.Summary{Imported: 1}
	runner.On("Run", ctx, mock.AnythingOfType("*importer.ParseResult"), domain.MarketplaceAmazon).Return(summary, nil)
	producer.On("PublishReviewImported", ctx, mock.AnythingOfType("string"), domain.MarketplaceAmazon, summary).Return(nil)

	got, err := svc.ImportFile(ctx, strings.NewReader(validCSV), "reviews.csv", domain.MarketplaceAmazon)

	require.NoError(t, err)
	assert.Equal(t, 1, got.Imported)
	runner.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestImportFile_JSONByExtension(t *testing.T) {
	runner := new(mockBatchRunner)
	producer := new(mockImportPublisher)
	svc := newTestImportService(runner, nil, producer)
	ctx := context.Background()

	var captured *importer.ParseResult
	runner.On("Run", ctx, mock.AnythingOfType("*importer.ParseResult"), domain.MarketplaceShopify).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*importer.ParseResult)
		}).
		Return(&importer.Summary{Imported: 1}, nil)
	producer.On("PublishReviewImported", ctx, mock.Anything, domain.MarketplaceShopify, mock.Anything).Return(nil)

	payload := `[{"title":"Nice","content":"Body","customer_name":"Jane"}]`
	_, err := svc.ImportFile(ctx, strings.NewReader(payload), "reviews.json", domain.MarketplaceShopify)

	require.NoError(t, err)
	require.NotNil(t, captured)
	require.Len(t, captured.Records, 1)
	assert.Equal(t, "Nice", captured.Records[0].Title)
}

func TestImportFile_MissingMarketplace(t *testing.T) {
	svc := newTestImportService(new(mockBatchRunner), nil, new(mockImportPublisher))

	_, err := svc.ImportFile(context.Background(), strings.NewReader(validCSV), "reviews.csv", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestImportFile_MailboxNotImportable(t *testing.T) {
	svc := newTestImportService(new(mockBatchRunner), nil, new(mockImportPublisher))

	_, err := svc.ImportFile(context.Background(), strings.NewReader(validCSV), "reviews.csv", domain.MarketplaceMailbox)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestImportFile_UnparseableFile(t *testing.T) {
	runner := new(mockBatchRunner)
	svc := newTestImportService(runner, nil, new(mockImportPublisher))

	_, err := svc.ImportFile(context.Background(), strings.NewReader("no header at all"), "reviews.csv", domain.MarketplaceAmazon)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestImportFile_PublishFailureDoesNotFailImport(t *testing.T) {
	runner := new(mockBatchRunner)
	producer := new(mockImportPublisher)
	svc := newTestImportService(runner, nil, producer)
	ctx := context.Background()

	summary := &importer.Summary{Imported: 1}
	runner.On("Run", ctx, mock.Anything, domain.MarketplaceAmazon).Return(summary, nil)
	producer.On("PublishReviewImported", ctx, mock.Anything, domain.MarketplaceAmazon, summary).
		Return(errors.New("kafka unreachable"))

	got, err := svc.ImportFile(ctx, strings.NewReader(validCSV), "reviews.csv", domain.MarketplaceAmazon)

	require.NoError(t, err)
	assert.Equal(t, 1, got.Imported)
}

func TestImportMarketplace_Success(t *testing.T) {
	runner := new(mockBatchRunner)
	fetcher := new(mockFetcher)
	producer := new(mockImportPublisher)
	svc := newTestImportService(runner, fetcher, producer)
	ctx := context.Background()

	parsed := &importer.ParseResult{Records: []importer.Record{{Title: "t", Content: "c", CustomerName: "n"}}}
	summary := &importer.Summary{Imported: 1}
	fetcher.On("FetchReviews", ctx, domain.MarketplaceAmazon, "B00EXAMPLE").Return(parsed, "Wireless Earbuds", nil)
	runner.On("Run", ctx, parsed, domain.MarketplaceAmazon).Return(summary, nil)
	producer.On("PublishReviewImported", ctx, mock.Anything, domain.MarketplaceAmazon, summary).Return(nil)

	got, err := svc.ImportMarketplace(ctx, domain.MarketplaceAmazon, "B00EXAMPLE")

	require.NoError(t, err)
	assert.Equal(t, 1, got.Imported)
	fetcher.AssertExpectations(t)
}

func TestImportMarketplace_MissingProductID(t *testing.T) {
	svc := newTestImportService(new(mockBatchRunner), new(mockFetcher), new(mockImportPublisher))

	_, err := svc.ImportMarketplace(context.Background(), domain.MarketplaceAmazon, "  ")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestImportMarketplace_FetcherUnavailable(t *testing.T) {
	runner := new(mockBatchRunner)
	fetcher := new(mockFetcher)
	svc := newTestImportService(runner, fetcher, new(mockImportPublisher))
	ctx := context.Background()

	fetcher.On("FetchReviews", ctx, domain.MarketplaceAmazon, "B00EXAMPLE").
		Return(nil, "", apperrors.Unavailable("marketplace api"))

	_, err := svc.ImportMarketplace(ctx, domain.MarketplaceAmazon, "B00EXAMPLE")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestTemplate_MatchesUploadColumns(t *testing.T) {
	svc := newTestImportService(new(mockBatchRunner), nil, new(mockImportPublisher))

	tpl := svc.Template()

	assert.True(t, strings.HasPrefix(tpl, "Title,Content,Customer Name"))
}
