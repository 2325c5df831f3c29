package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/authhub/internal/config"
)

const keyCatalogClient = "catalog:client:%s"

// CatalogLimiter throttles the public product catalog endpoint per client.
// Disabled (allowing everything) when no redis address is configured.
type CatalogLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewCatalogLimiter(cfg config.Config) *CatalogLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &CatalogLimiter{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &CatalogLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.CatalogRateLimitRate,
		burst:   cfg.CatalogRateLimitBurst,
	}
}

func (l *CatalogLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow reports whether the client identified by key may proceed. The
// limiter fails open: a redis error allows the request.
func (l *CatalogLimiter) Allow(ctx context.Context, clientKey string) (bool, time.Duration) {
	if !l.Enabled() {
		return true, 0
	}
	result, err := l.bucket.Allow(ctx, fmt.Sprintf(keyCatalogClient, strings.TrimSpace(clientKey)), l.rate, l.burst)
	if err != nil {
		return true, 0
	}
	return result.Allowed, result.RetryAfter
}
