package news

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCacheTTL = 24 * time.Hour

// Searcher is the search contract shared by the client and the cache.
type Searcher interface {
	Search(ctx context.Context, query string, windowYears int) ([]string, error)
}

// RedisClient is the subset of go-redis used by the cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedSearcher serves repeated queries from Redis so that re-analysing a
// company does not hit the rate-limited search service again. Cache
// failures fall through to the wrapped searcher.
type CachedSearcher struct {
	next   Searcher
	rdb    RedisClient
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewCachedSearcher wraps next with a Redis cache. A zero ttl selects 24h.
func NewCachedSearcher(next Searcher, rdb RedisClient, ttl time.Duration, logger *zap.Logger) *CachedSearcher {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedSearcher{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: "companyrisk:news:",
		logger: logger.Named("news_cache"),
	}
}

func (c *CachedSearcher) Search(ctx context.Context, query string, windowYears int) ([]string, error) {
	key := c.key(query, windowYears)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var headlines []string
		if err := json.Unmarshal(raw, &headlines); err == nil {
			return headlines, nil
		}
		c.logger.Warn("Discarding malformed cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("News cache read failed", zap.Error(err))
	}

	headlines, err := c.next.Search(ctx, query, windowYears)
	if err != nil {
		return nil, err
	}

	value, err := json.Marshal(headlines)
	if err == nil {
		err = c.rdb.Set(ctx, key, value, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("News cache write failed", zap.Error(err))
	}
	return headlines, nil
}

func (c *CachedSearcher) key(query string, windowYears int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", windowYears, query)))
	return c.prefix + hex.EncodeToString(sum[:])
}
