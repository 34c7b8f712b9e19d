package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reviewdesk/reviewdesk/internal/domain"
)

var (
	reviewsImportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_imported_total",
			Help: "Reviews stored by the import pipeline",
		},
		[]string{"marketplace"},
	)

	reviewsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_skipped_total",
			Help: "Duplicate reviews skipped by the import pipeline",
		},
		[]string{"marketplace"},
	)

	reviewsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_rejected_total",
			Help: "Reviews rejected for failing validation or structural parsing",
		},
		[]string{"marketplace"},
	)
)

// ReviewStore is the persistence surface the pipeline writes reviews through.
type ReviewStore interface {
	StoreProbe
	Create(ctx context.Context, review *domain.Review) error
}

// ProductStore tracks products referenced by imported reviews.
type ProductStore interface {
	// RecordImport upserts the (platform, productID) product, incrementing its
	// review count by n and refreshing last_imported. An empty name leaves any
	// previously stored display name untouched.
	RecordImport(ctx context.Context, platform, productID, name string, n int, at time.Time) error
}

// Classifier produces sentiment/severity/category and an optional suggested
// reply for one review. Implementations must treat their own failures as
// recoverable: the pipeline substitutes defaults and stores the review anyway.
type Classifier interface {
	Classify(ctx context.Context, review *domain.Review) (domain.Classification, error)
}

// Summary reports the outcome of one import batch. For every batch,
// Imported + Skipped + Rejected equals the number of input rows.
type Summary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
}

// Pipeline runs parse output through normalize, dedup, classify, and store.
// Each batch is request-scoped; writes are individually atomic and a mid-batch
// store failure halts processing, reporting counts gathered so far.
type Pipeline struct {
	reviews    ReviewStore
	products   ProductStore
	classifier Classifier
	logger     *slog.Logger
}

// NewPipeline creates an import pipeline.
func NewPipeline(reviews ReviewStore, products ProductStore, classifier Classifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		reviews:    reviews,
		products:   products,
		classifier: classifier,
		logger:     logger,
	}
}

// Run imports the given records for one marketplace. The malformed count from
// the parser is folded into the rejected tally so the caller sees one
// conservation equation over its input rows.
func (p *Pipeline) Run(ctx context.Context, parsed *ParseResult, marketplace string) (*Summary, error) {
	importedAt := time.Now().UTC()
	summary := &Summary{Rejected: parsed.Malformed}
	deduper := NewDeduper(p.reviews)
	productCounts := make(map[string]int)
	productNames := make(map[string]string)

	for _, rec := range parsed.Records {
		review, err := Normalize(rec, marketplace, importedAt)
		if err != nil {
			summary.Rejected++
			p.logger.DebugContext(ctx, "record rejected",
				slog.String("marketplace", marketplace),
				slog.String("reason", err.Error()),
			)
			continue
		}

		dup, err := deduper.IsDuplicate(ctx, review)
		if err != nil {
			return summary, fmt.Errorf("check duplicate: %w", err)
		}
		if dup {
			summary.Skipped++
			p.logger.DebugContext(ctx, "duplicate review skipped",
				slog.String("marketplace", marketplace),
				slog.String("dedup_key", review.DedupKey()),
			)
			continue
		}

		p.classify(ctx, review)

		if err := p.reviews.Create(ctx, review); err != nil {
			// Halt the batch; everything stored so far stays stored.
			return summary, fmt.Errorf("store review: %w", err)
		}
		summary.Imported++

		if review.ProductID != nil && *review.ProductID != "" {
			productCounts[*review.ProductID]++
			if rec.ProductName != nil && *rec.ProductName != "" {
				productNames[*review.ProductID] = *rec.ProductName
			}
		}
	}

	for productID, n := range productCounts {
		if err := p.products.RecordImport(ctx, marketplace, productID, productNames[productID], n, importedAt); err != nil {
			// Product tracking is bookkeeping; a failure must not undo stored reviews.
			p.logger.WarnContext(ctx, "product tracking update failed",
				slog.String("marketplace", marketplace),
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
	}

	reviewsImportedTotal.WithLabelValues(marketplace).Add(float64(summary.Imported))
	reviewsSkippedTotal.WithLabelValues(marketplace).Add(float64(summary.Skipped))
	reviewsRejectedTotal.WithLabelValues(marketplace).Add(float64(summary.Rejected))

	p.logger.InfoContext(ctx, "import batch complete",
		slog.String("marketplace", marketplace),
		slog.Int("imported", summary.Imported),
		slog.Int("skipped", summary.Skipped),
		slog.Int("rejected", summary.Rejected),
	)

	return summary, nil
}

// classify fills the AI-derived fields, falling back to safe defaults on any
// classifier failure. A classification failure never drops the review.
func (p *Pipeline) classify(ctx context.Context, review *domain.Review) {
	result, err := p.classifier.Classify(ctx, review)
	if err != nil {
		p.logger.WarnContext(ctx, "classification failed, using defaults",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		result = domain.DefaultClassification()
	}
	result = result.Sanitize()

	review.Sentiment = result.Sentiment
	review.Severity = result.Severity
	review.Category = result.Category
	review.AISuggestedReply = result.SuggestedReply
	review.AIAnalysisDetails = result.Analysis
}
