package vectorindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spigell/talentscore/internal/ai"
	"github.com/spigell/talentscore/internal/logger"
	"go.uber.org/zap"
)

const (
	cacheKeyPrefix  = "talentscore:embedding:"
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// Cache is the subset of redis.Cmdable used by CachedEmbedder.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedEmbedder memoizes embeddings in Redis keyed by model and text. Cache
// failures are logged and never fail the embedding call.
type CachedEmbedder struct {
	next   ai.Embedder
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

var _ ai.Embedder = (*CachedEmbedder)(nil)

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewCachedEmbedder wraps next. A non-positive ttl selects DefaultCacheTTL.
func NewCachedEmbedder(next ai.Embedder, cache Cache, ttl time.Duration, log *zap.Logger) *CachedEmbedder {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedEmbedder{next: next, cache: cache, ttl: ttl, logger: logger.OrNop(log)}
}

func (c *CachedEmbedder) EmbeddingModel() string { return c.next.EmbeddingModel() }

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := CacheKey(c.next.EmbeddingModel(), text)

	cached, err := c.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var vector []float32
		if jsonErr := json.Unmarshal(cached, &vector); jsonErr == nil && len(vector) > 0 {
			return vector, nil
		}
		c.logger.Warn("discarding unreadable cached embedding", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("embedding cache read failed", zap.String("key", key), zap.Error(err))
	}

	vector, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(vector)
	if err == nil {
		err = c.cache.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}

	return vector, nil
}

// CacheKey derives the Redis key of an embedding.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
