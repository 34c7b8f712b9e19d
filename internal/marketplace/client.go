package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reviewdesk/reviewdesk/internal/importer"
	apperrors "github.com/reviewdesk/reviewdesk/pkg/errors"
)

// Config holds data-extraction API settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type httpDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client fetches provider-shaped review payloads from the external
// data-extraction API and maps them onto the intake record shape. It does no
// classification and no dedup; that happens in the import pipeline.
type Client struct {
	cfg    Config
	client httpDoer
	logger *slog.Logger
}

// NewClient creates a marketplace data-extraction client.
func NewClient(cfg Config, client httpDoer, logger *slog.Logger) *Client {
	return &Client{cfg: cfg, client: client, logger: logger}
}

// providerReview is the wire shape the extraction API returns per review.
// Field names follow the provider, not our canonical model.
type providerReview struct {
	ReviewID     string  `json:"review_id"`
	Title        string  `json:"title"`
	Body         string  `json:"body"`
	ReviewerName string  `json:"reviewer_name"`
	ReviewDate   string  `json:"review_date"`
	Rating       *int    `json:"rating"`
	Verified     *bool   `json:"verified"`
	ASIN         *string `json:"asin"`
}

type providerResponse struct {
	Product struct {
		ProductID string `json:"product_id"`
		Title     string `json:"title"`
	} `json:"product"`
	Reviews []providerReview `json:"reviews"`
}

// providerDateLayouts cover the formats observed from the extraction API.
var providerDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"January 2, 2006",
}

// FetchReviews pulls all available reviews for one product on one marketplace
// and returns them as intake records plus the provider's product title. A
// missing API key fails only this operation, never the whole service.
func (c *Client) FetchReviews(ctx context.Context, marketplace, productID string) (*importer.ParseResult, string, error) {
	if c.cfg.APIKey == "" {
		return nil, "", apperrors.Unavailable("marketplace api")
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/v1/%s/products/%s/reviews",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(marketplace),
		url.PathEscape(productID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("call marketplace api: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", apperrors.NotFound("product", productID)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, "", apperrors.Unavailable("marketplace api")
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("marketplace api status %d: %s", resp.StatusCode, string(snippet))
	}

	var payload providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("decode marketplace payload: %w", err)
	}

	result := &importer.ParseResult{}
	productTitle := strings.TrimSpace(payload.Product.Title)
	for _, pr := range payload.Reviews {
		rec, ok := mapReview(pr, productID, productTitle)
		if !ok {
			result.Malformed++
			continue
		}
		result.Records = append(result.Records, rec)
	}

	c.logger.InfoContext(ctx, "marketplace fetch complete",
		slog.String("marketplace", marketplace),
		slog.String("product_id", productID),
		slog.Int("reviews", len(result.Records)),
		slog.Int("malformed", result.Malformed),
	)

	return result, payload.Product.Title, nil
}

// mapReview converts one provider review into an intake record, validating
// the required fields at the boundary.
func mapReview(pr providerReview, productID, productName string) (importer.Record, bool) {
	title := strings.TrimSpace(pr.Title)
	body := strings.TrimSpace(pr.Body)
	reviewer := strings.TrimSpace(pr.ReviewerName)
	if title == "" || body == "" || reviewer == "" {
		return importer.Record{}, false
	}

	rec := importer.Record{
		Title:        title,
		Content:      body,
		CustomerName: reviewer,
		Rating:       pr.Rating,
		Verified:     pr.Verified,
		ASIN:         pr.ASIN,
		ProductID:    &productID,
	}

	if productName != "" {
		rec.ProductName = &productName
	}

	if id := strings.TrimSpace(pr.ReviewID); id != "" {
		rec.ExternalID = &id
	}

	if date := strings.TrimSpace(pr.ReviewDate); date != "" {
		for _, layout := range providerDateLayouts {
			if t, err := time.Parse(layout, date); err == nil {
				rec.CreatedAt = &t
				break
			}
		}
	}

	return rec, true
}
