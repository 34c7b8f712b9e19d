package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/domain"
)

type mockKV struct {
	mock.Mock
}

func (m *mockKV) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

type mockInner struct {
	mock.Mock
}

func (m *mockInner) Classify(ctx context.Context, review *domain.Review) (domain.Classification, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(domain.Classification), args.Error(1)
}

func positiveClassification() domain.Classification {
	return domain.Classification{
		Sentiment: domain.SentimentPositive,
		Severity:  domain.SeverityLow,
		Category:  "product_quality",
	}
}

func TestCachedClassify_Hit(t *testing.T) {
	kv := new(mockKV)
	inner := new(mockInner)
	c := NewCachedClassifier(inner, kv, time.Hour, newTestLogger())
	ctx := context.Background()

	cached, _ := json.Marshal(positiveClassification())
	kv.On("Get", ctx, mock.AnythingOfType("string")).
		Return(redis.NewStringResult(string(cached), nil))

	cls, err := c.Classify(ctx, sampleReview())

	require.NoError(t, err)
	assert.Equal(t, domain.SentimentPositive, cls.Sentiment)
	inner.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything)
}

func TestCachedClassify_MissDelegatesAndStores(t *testing.T) {
	kv := new(mockKV)
	inner := new(mockInner)
	c := NewCachedClassifier(inner, kv, time.Hour, newTestLogger())
	ctx := context.Background()
	review := sampleReview()

	kv.On("Get", ctx, mock.AnythingOfType("string")).
		Return(redis.NewStringResult("", redis.Nil))
	inner.On("Classify", ctx, review).Return(positiveClassification(), nil)
	kv.On("Set", ctx, mock.AnythingOfType("string"), mock.Anything, time.Hour).
		Return(redis.NewStatusResult("OK", nil))

	cls, err := c.Classify(ctx, review)

	require.NoError(t, err)
	assert.Equal(t, domain.SentimentPositive, cls.Sentiment)
	kv.AssertExpectations(t)
	inner.AssertExpectations(t)
}

func TestCachedClassify_RedisDownFallsThrough(t *testing.T) {
	kv := new(mockKV)
	inner := new(mockInner)
	c := NewCachedClassifier(inner, kv, time.Hour, newTestLogger())
	ctx := context.Background()
	review := sampleReview()

	kv.On("Get", ctx, mock.AnythingOfType("string")).
		Return(redis.NewStringResult("", errors.New("connection refused")))
	inner.On("Classify", ctx, review).Return(positiveClassification(), nil)
	kv.On("Set", ctx, mock.AnythingOfType("string"), mock.Anything, time.Hour).
		Return(redis.NewStatusResult("", errors.New("connection refused")))

	cls, err := c.Classify(ctx, review)

	require.NoError(t, err)
	assert.Equal(t, domain.SentimentPositive, cls.Sentiment)
}

func TestCachedClassify_CorruptEntryOverwritten(t *testing.T) {
	kv := new(mockKV)
	inner := new(mockInner)
	c := NewCachedClassifier(inner, kv, time.Hour, newTestLogger())
	ctx := context.Background()
	review := sampleReview()

	kv.On("Get", ctx, mock.AnythingOfType("string")).
		Return(redis.NewStringResult("not json{", nil))
	inner.On("Classify", ctx, review).Return(positiveClassification(), nil)
	kv.On("Set", ctx, mock.AnythingOfType("string"), mock.Anything, time.Hour).
		Return(redis.NewStatusResult("OK", nil))

	cls, err := c.Classify(ctx, review)

	require.NoError(t, err)
	assert.Equal(t, domain.SentimentPositive, cls.Sentiment)
	inner.AssertExpectations(t)
}

func TestCachedClassify_InnerErrorNotCached(t *testing.T) {
	kv := new(mockKV)
	inner := new(mockInner)
	c := NewCachedClassifier(inner, kv, time.Hour, newTestLogger())
	ctx := context.Background()
	review := sampleReview()

	kv.On("Get", ctx, mock.AnythingOfType("string")).
		Return(redis.NewStringResult("", redis.Nil))
	inner.On("Classify", ctx, review).Return(domain.Classification{}, errors.New("upstream down"))

	_, err := c.Classify(ctx, review)

	require.Error(t, err)
	kv.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCacheKey_DistinctPerMarketplace(t *testing.T) {
	a := sampleReview()
	b := sampleReview()
	b.Marketplace = domain.MarketplaceShopify

	assert.NotEqual(t, cacheKey(a), cacheKey(b))
}
