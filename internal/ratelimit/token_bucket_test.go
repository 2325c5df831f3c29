package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/authhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 4*time.Second, bucketTTL(25, 50))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestCastToInt(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, int64(2), castToInt(2))
	assert.Equal(t, int64(3), castToInt(3.7))
	assert.Equal(t, int64(0), castToInt("1"))
}

func TestCastToFloat(t *testing.T) {
	assert.Equal(t, 1.5, castToFloat(1.5))
	assert.Equal(t, 2.0, castToFloat(int64(2)))
	assert.Equal(t, 3.25, castToFloat("3.25"))
	assert.Equal(t, 0.0, castToFloat("nope"))
	assert.Equal(t, 0.0, castToFloat(nil))
}

func TestTokenBucketValidation(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 10, 10)
	require.Error(t, err)
}

func TestCatalogLimiterDisabledWithoutRedis(t *testing.T) {
	limiter := NewCatalogLimiter(config.Config{})
	assert.False(t, limiter.Enabled())

	allowed, retryAfter := limiter.Allow(context.Background(), "203.0.113.7")
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}
