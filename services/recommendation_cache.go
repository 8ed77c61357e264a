package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"coco-admissions-platform/internal/logger"
	"coco-admissions-platform/models"
)

// RecommendationCache keeps recent query results in Redis so repeated
// searches with the same filters skip the vector scan. Entries are
// invalidated implicitly by the short TTL; a full re-ingest does not need
// to reach into the cache.
type RecommendationCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRecommendationCache(rdb *redis.Client, ttl time.Duration) *RecommendationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RecommendationCache{rdb: rdb, ttl: ttl}
}

func (c *RecommendationCache) Get(ctx context.Context, collection string, userID int, filters Filters) ([]models.RecommendationResult, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	payload, err := c.rdb.Get(ctx, c.key(collection, userID, filters)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Recommendation cache read failed", "error", err)
		}
		return nil, false
	}
	var results []models.RecommendationResult
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (c *RecommendationCache) Set(ctx context.Context, collection string, userID int, filters Filters, results []models.RecommendationResult) {
	if c == nil || c.rdb == nil {
		return
	}
	payload, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(collection, userID, filters), payload, c.ttl).Err(); err != nil {
		logger.Warn("Recommendation cache write failed", "error", err)
	}
}

// key hashes the filter set in sorted-key order so logically equal filter
// maps always produce the same cache key.
func (c *RecommendationCache) key(collection string, userID int, filters Filters) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		switch v := filters[k].(type) {
		case []string:
			fmt.Fprintf(&b, "%s=[%s];", k, strings.Join(v, ","))
		default:
			fmt.Fprintf(&b, "%s=%v;", k, v)
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("rec:%s:%d:%x", collection, userID, sum[:12])
}
