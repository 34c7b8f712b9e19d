package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reviewdesk/reviewdesk/internal/domain"
	"github.com/reviewdesk/reviewdesk/internal/importer"
)

// kvStore is the slice of the Redis API the cache uses.
type kvStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedClassifier memoizes classification results in Redis, keyed by a hash
// of the review content. Re-importing a near-identical corpus then skips the
// paid API call. The cache is best-effort: errors on either side are logged
// and the inner classifier is consulted.
type CachedClassifier struct {
	inner  importer.Classifier
	store  kvStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedClassifier wraps a classifier with a Redis result cache.
func NewCachedClassifier(inner importer.Classifier, store kvStore, ttl time.Duration, logger *slog.Logger) *CachedClassifier {
	return &CachedClassifier{inner: inner, store: store, ttl: ttl, logger: logger}
}

// Classify serves from cache when possible, otherwise delegates and stores the
// result. An inner classification error is never cached.
func (c *CachedClassifier) Classify(ctx context.Context, review *domain.Review) (domain.Classification, error) {
	key := cacheKey(review)

	cached, err := c.store.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cls domain.Classification
		if jsonErr := json.Unmarshal([]byte(cached), &cls); jsonErr == nil {
			return cls, nil
		}
		// Corrupt entry; fall through and overwrite.
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "classification cache read failed",
			slog.String("error", err.Error()),
		)
	}

	cls, err := c.inner.Classify(ctx, review)
	if err != nil {
		return domain.Classification{}, err
	}

	if payload, jsonErr := json.Marshal(cls); jsonErr == nil {
		if setErr := c.store.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.logger.WarnContext(ctx, "classification cache write failed",
				slog.String("error", setErr.Error()),
			)
		}
	}

	return cls, nil
}

// cacheKey hashes the marketplace and content so identical review text on
// different channels is still classified in its own context.
func cacheKey(review *domain.Review) string {
	sum := sha256.Sum256([]byte(review.Marketplace + "\x00" + review.Content))
	return "reviewdesk:classification:" + hex.EncodeToString(sum[:])
}
