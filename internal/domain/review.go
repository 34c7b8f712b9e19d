package domain

import (
	"time"
)

// Marketplace identifies the originating sales channel of a review.
const (
	MarketplaceAmazon  = "amazon"
	MarketplaceShopify = "shopify"
	MarketplaceWalmart = "walmart"
	MarketplaceWebsite = "website"
	MarketplaceMailbox = "mailbox"
)

// Workflow status constants. A review moves freely between these three states;
// the graph is unrestricted, only membership is enforced.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// Sentiment constants produced by the classifier.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Severity constants produced by the classifier.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Classification defaults applied when the AI classifier is unavailable or
// returns garbage. A review is never dropped for a classification failure.
const (
	DefaultSentiment = SentimentNeutral
	DefaultSeverity  = SeverityMedium
	DefaultCategory  = "general"
)

// Review is the canonical unit of customer feedback after normalization.
type Review struct {
	ID               string  `json:"id"`
	ExternalReviewID *string `json:"external_review_id,omitempty"`

	Marketplace string  `json:"marketplace"`
	ProductID   *string `json:"product_id,omitempty"`
	ASIN        *string `json:"asin,omitempty"`
	Verified    *bool   `json:"verified,omitempty"`

	Title         string  `json:"title"`
	Content       string  `json:"content"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	Rating        *int    `json:"rating,omitempty"`

	Sentiment string `json:"sentiment"`
	Severity  string `json:"severity"`
	Category  string `json:"category"`
	Status    string `json:"status"`

	AISuggestedReply  *string `json:"ai_suggested_reply,omitempty"`
	AIAnalysisDetails *string `json:"ai_analysis_details,omitempty"`

	// CreatedAt is the review's original creation time as reported by the
	// source. ImportedAt is when this system ingested it. Newest-first
	// ordering uses CreatedAt.
	CreatedAt  time.Time `json:"created_at"`
	ImportedAt time.Time `json:"imported_at"`
}

// Classification is the result of an AI classification pass over one review.
type Classification struct {
	Sentiment      string  `json:"sentiment"`
	Severity       string  `json:"severity"`
	Category       string  `json:"category"`
	SuggestedReply *string `json:"suggested_reply,omitempty"`
	Analysis       *string `json:"analysis,omitempty"`
}

// DefaultClassification returns the safe fallback used when the classifier
// fails for an individual review.
func DefaultClassification() Classification {
	return Classification{
		Sentiment: DefaultSentiment,
		Severity:  DefaultSeverity,
		Category:  DefaultCategory,
	}
}

// ValidMarketplaces returns the closed set of marketplace values.
func ValidMarketplaces() []string {
	return []string{MarketplaceAmazon, MarketplaceShopify, MarketplaceWalmart, MarketplaceWebsite, MarketplaceMailbox}
}

// ImportableMarketplaces returns the marketplaces accepted by the file import
// endpoint. Mailbox reviews arrive only through the email intake, never via
// file upload.
func ImportableMarketplaces() []string {
	return []string{MarketplaceAmazon, MarketplaceShopify, MarketplaceWalmart, MarketplaceWebsite}
}

// ValidStatuses returns the closed set of workflow statuses.
func ValidStatuses() []string {
	return []string{StatusOpen, StatusInProgress, StatusResolved}
}

// ValidSentiments returns the closed set of sentiment values.
func ValidSentiments() []string {
	return []string{SentimentPositive, SentimentNegative, SentimentNeutral}
}

// ValidSeverities returns the closed set of severity values.
func ValidSeverities() []string {
	return []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// IsValidMarketplace checks membership in the marketplace set.
func IsValidMarketplace(v string) bool { return contains(ValidMarketplaces(), v) }

// IsImportableMarketplace checks membership in the file-importable set.
func IsImportableMarketplace(v string) bool { return contains(ImportableMarketplaces(), v) }

// IsValidStatus checks membership in the workflow status set.
func IsValidStatus(v string) bool { return contains(ValidStatuses(), v) }

// IsValidSentiment checks membership in the sentiment set.
func IsValidSentiment(v string) bool { return contains(ValidSentiments(), v) }

// IsValidSeverity checks membership in the severity set.
func IsValidSeverity(v string) bool { return contains(ValidSeverities(), v) }

// Sanitize clamps the classification to the closed enumerations, substituting
// defaults for out-of-set values so every stored review stays filterable.
func (c Classification) Sanitize() Classification {
	if !IsValidSentiment(c.Sentiment) {
		c.Sentiment = DefaultSentiment
	}
	if !IsValidSeverity(c.Severity) {
		c.Severity = DefaultSeverity
	}
	if c.Category == "" {
		c.Category = DefaultCategory
	}
	return c
}

// DedupKey returns the identity used for duplicate detection: the stable
// (marketplace, external id) pair when the source supplies an external id,
// otherwise the heuristic (marketplace, customer, title, created_at) tuple.
func (r *Review) DedupKey() string {
	if r.ExternalReviewID != nil && *r.ExternalReviewID != "" {
		return "ext|" + r.Marketplace + "|" + *r.ExternalReviewID
	}
	return "fb|" + r.Marketplace + "|" + r.CustomerName + "|" + r.Title + "|" + r.CreatedAt.UTC().Format(time.RFC3339)
}
