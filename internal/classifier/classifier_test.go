package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	apperrors "github.com/reviewdesk/reviewdesk/pkg/errors"
	"github.com/reviewdesk/reviewdesk/pkg/httpclient"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.Timeout = 5 * time.Second
	return httpclient.New(cfg)
}

func chatReply(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}
}

func sampleReview() *domain.Review {
	rating := 1
	return &domain.Review{
		ID:          "rev-1",
		Marketplace: domain.MarketplaceAmazon,
		Title:       "Broken on arrival",
		Content:     "The screen was cracked when I opened the box.",
		Rating:      &rating,
	}
}

func TestClassify_Success(t *testing.T) {
	srv := httptest.NewServer(chatReply(t,
		`{"sentiment":"negative","severity":"high","category":"shipping","suggested_reply":"We are sorry about the damage.","analysis":"Product arrived damaged."}`))
	defer srv.Close()

	c := NewHTTPClassifier(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "gpt-4o-mini"}, testClient(), newTestLogger())

	cls, err := c.Classify(context.Background(), sampleReview())

	require.NoError(t, err)
	assert.Equal(t, domain.SentimentNegative, cls.Sentiment)
	assert.Equal(t, domain.SeverityHigh, cls.Severity)
	assert.Equal(t, "shipping", cls.Category)
	require.NotNil(t, cls.SuggestedReply)
	assert.Equal(t, "We are sorry about the damage.", *cls.SuggestedReply)
}

func TestClassify_CodeFencedJSON(t *testing.T) {
	srv := httptest.NewServer(chatReply(t,
		"```json\n{\"sentiment\":\"positive\",\"severity\":\"low\",\"category\":\"general\"}\n```"))
	defer srv.Close()

	c := NewHTTPClassifier(Config{BaseURL: srv.URL, APIKey: "test-key"}, testClient(), newTestLogger())

	cls, err := c.Classify(context.Background(), sampleReview())

	require.NoError(t, err)
	assert.Equal(t, domain.SentimentPositive, cls.Sentiment)
	assert.Nil(t, cls.SuggestedReply)
}

func TestClassify_MissingAPIKey(t *testing.T) {
	c := NewHTTPClassifier(Config{BaseURL: "http://localhost:1", APIKey: ""}, testClient(), newTestLogger())

	_, err := c.Classify(context.Background(), sampleReview())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

func TestClassify_NonJSONAnswer(t *testing.T) {
	srv := httptest.NewServer(chatReply(t, "I cannot help with that."))
	defer srv.Close()

	c := NewHTTPClassifier(Config{BaseURL: srv.URL, APIKey: "test-key"}, testClient(), newTestLogger())

	_, err := c.Classify(context.Background(), sampleReview())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse classification response")
}

func TestClassify_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(Config{BaseURL: srv.URL, APIKey: "test-key"}, testClient(), newTestLogger())

	_, err := c.Classify(context.Background(), sampleReview())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClassify_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(Config{BaseURL: srv.URL, APIKey: "test-key"}, testClient(), newTestLogger())

	_, err := c.Classify(context.Background(), sampleReview())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestSuggestReply_Success(t *testing.T) {
	srv := httptest.NewServer(chatReply(t, "  Thank you for letting us know; a replacement is on its way.  "))
	defer srv.Close()

	c := NewHTTPClassifier(Config{BaseURL: srv.URL, APIKey: "test-key"}, testClient(), newTestLogger())

	reply, err := c.SuggestReply(context.Background(), sampleReview())

	require.NoError(t, err)
	assert.Equal(t, "Thank you for letting us know; a replacement is on its way.", reply)
}

func TestSuggestReply_MissingAPIKey(t *testing.T) {
	c := NewHTTPClassifier(Config{BaseURL: "http://localhost:1"}, testClient(), newTestLogger())

	_, err := c.SuggestReply(context.Background(), sampleReview())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}
