package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidMarketplace(t *testing.T) {
	assert.True(t, IsValidMarketplace(MarketplaceAmazon))
	assert.True(t, IsValidMarketplace(MarketplaceMailbox))
	assert.False(t, IsValidMarketplace("ebay"))
	assert.False(t, IsValidMarketplace(""))
}

func TestIsImportableMarketplace(t *testing.T) {
	assert.True(t, IsImportableMarketplace(MarketplaceShopify))
	assert.False(t, IsImportableMarketplace(MarketplaceMailbox), "mailbox reviews never arrive via file upload")
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range ValidStatuses() {
		assert.True(t, IsValidStatus(s))
	}
	assert.False(t, IsValidStatus("closed"))
}

func TestClassificationSanitize(t *testing.T) {
	t.Run("valid values pass through", func(t *testing.T) {
		c := Classification{Sentiment: SentimentNegative, Severity: SeverityCritical, Category: "shipping"}
		assert.Equal(t, c, c.Sanitize())
	})

	t.Run("out of set values replaced by defaults", func(t *testing.T) {
		c := Classification{Sentiment: "furious", Severity: "catastrophic", Category: ""}
		got := c.Sanitize()
		assert.Equal(t, DefaultSentiment, got.Sentiment)
		assert.Equal(t, DefaultSeverity, got.Severity)
		assert.Equal(t, DefaultCategory, got.Category)
	})

	t.Run("reply and analysis untouched", func(t *testing.T) {
		reply := "Thanks for the feedback."
		c := Classification{Sentiment: "bogus", SuggestedReply: &reply}
		got := c.Sanitize()
		assert.Equal(t, &reply, got.SuggestedReply)
	})
}

func TestDefaultClassification(t *testing.T) {
	c := DefaultClassification()
	assert.Equal(t, SentimentNeutral, c.Sentiment)
	assert.Equal(t, SeverityMedium, c.Severity)
	assert.Equal(t, "general", c.Category)
	assert.Nil(t, c.SuggestedReply)
}

func TestReviewDedupKey(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	t.Run("external id identity", func(t *testing.T) {
		extID := "R12345"
		r := &Review{Marketplace: MarketplaceAmazon, ExternalReviewID: &extID, CustomerName: "Ana", Title: "Great", CreatedAt: createdAt}
		assert.Equal(t, "ext|amazon|R12345", r.DedupKey())
	})

	t.Run("empty external id falls back", func(t *testing.T) {
		empty := ""
		r := &Review{Marketplace: MarketplaceWebsite, ExternalReviewID: &empty, CustomerName: "Ana", Title: "Great", CreatedAt: createdAt}
		assert.Equal(t, "fb|website|Ana|Great|2026-03-14T09:30:00Z", r.DedupKey())
	})

	t.Run("same external id on different marketplaces differs", func(t *testing.T) {
		extID := "R12345"
		a := &Review{Marketplace: MarketplaceAmazon, ExternalReviewID: &extID}
		b := &Review{Marketplace: MarketplaceWalmart, ExternalReviewID: &extID}
		assert.NotEqual(t, a.DedupKey(), b.DedupKey())
	})
}
