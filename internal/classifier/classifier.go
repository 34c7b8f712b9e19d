package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	apperrors "github.com/reviewdesk/reviewdesk/pkg/errors"
)

// Config holds AI completion API settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// httpDoer is satisfied by both the plain retrying client and its
// circuit-breaker wrapper.
type httpDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPClassifier classifies reviews through an external chat-completions API.
// The model is instructed to answer with strict JSON only.
type HTTPClassifier struct {
	cfg    Config
	client httpDoer
	logger *slog.Logger
}

// NewHTTPClassifier creates a classifier backed by the completion API.
func NewHTTPClassifier(cfg Config, client httpDoer, logger *slog.Logger) *HTTPClassifier {
	return &HTTPClassifier{cfg: cfg, client: client, logger: logger}
}

const classifySystemPrompt = `You are a customer review analyst for an e-commerce business.
Analyze the review and respond with ONLY a JSON object, no prose, in this exact shape:
{"sentiment":"positive|negative|neutral","severity":"low|medium|high|critical","category":"<short label like shipping, product_quality, billing, support>","suggested_reply":"<a brief courteous reply to the customer>","analysis":"<one sentence of reasoning>"}`

const replySystemPrompt = `You are a customer support agent for an e-commerce business.
Write a brief, courteous, specific reply to the customer review below. Respond with ONLY the reply text, no preamble.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type classifyResult struct {
	Sentiment      string `json:"sentiment"`
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	SuggestedReply string `json:"suggested_reply"`
	Analysis       string `json:"analysis"`
}

// Classify asks the completion API for sentiment, severity, category, and a
// suggested reply. Callers treat any error as recoverable and substitute
// defaults.
func (c *HTTPClassifier) Classify(ctx context.Context, review *domain.Review) (domain.Classification, error) {
	if c.cfg.APIKey == "" {
		return domain.Classification{}, apperrors.Unavailable("ai classifier")
	}

	prompt := fmt.Sprintf("Marketplace: %s\nTitle: %s\nReview:\n%s", review.Marketplace, review.Title, review.Content)
	if review.Rating != nil {
		prompt += fmt.Sprintf("\nRating: %d/5", *review.Rating)
	}

	content, err := c.complete(ctx, classifySystemPrompt, prompt)
	if err != nil {
		return domain.Classification{}, err
	}

	var result classifyResult
	if err := json.Unmarshal([]byte(extractJSON(content)), &result); err != nil {
		return domain.Classification{}, fmt.Errorf("parse classification response: %w", err)
	}

	cls := domain.Classification{
		Sentiment: result.Sentiment,
		Severity:  result.Severity,
		Category:  result.Category,
	}
	if reply := strings.TrimSpace(result.SuggestedReply); reply != "" {
		cls.SuggestedReply = &reply
	}
	if analysis := strings.TrimSpace(result.Analysis); analysis != "" {
		cls.Analysis = &analysis
	}

	return cls, nil
}

// SuggestReply generates a fresh reply for an already-stored review. Unlike
// Classify there is no fallback; the caller surfaces the error.
func (c *HTTPClassifier) SuggestReply(ctx context.Context, review *domain.Review) (string, error) {
	if c.cfg.APIKey == "" {
		return "", apperrors.Unavailable("ai classifier")
	}

	prompt := fmt.Sprintf("Title: %s\nReview:\n%s", review.Title, review.Content)
	content, err := c.complete(ctx, replySystemPrompt, prompt)
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(content)
	if reply == "" {
		return "", fmt.Errorf("completion api returned empty reply")
	}

	return reply, nil
}

func (c *HTTPClassifier) complete(ctx context.Context, system, user string) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call completion api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion api status %d: %s", resp.StatusCode, string(snippet))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion api returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// extractJSON trims anything around the outermost JSON object. Models
// occasionally wrap their answer in code fences despite instructions.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
