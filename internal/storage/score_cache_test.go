package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

func newTestScoreCache(t *testing.T) (*ScoreCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache := NewScoreCache(NewRedisCacheFromClient(client), 5*time.Minute, time.Minute)
	return cache, mr
}

func TestScoreCacheCreditScore(t *testing.T) {
	cache, _ := newTestScoreCache(t)
	ctx := context.Background()

	// Miss before any write.
	_, found, err := cache.GetCreditScore(ctx, testWallet)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.SetCreditScore(ctx, testWallet, 80.6))

	score, found, err := cache.GetCreditScore(ctx, testWallet)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 80.6, score)
}

func TestScoreCacheCreditScoreExpiry(t *testing.T) {
	cache, mr := newTestScoreCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetCreditScore(ctx, testWallet, 80.6))

	mr.FastForward(6 * time.Minute)

	_, found, err := cache.GetCreditScore(ctx, testWallet)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestScoreCacheTokenPrice(t *testing.T) {
	cache, mr := newTestScoreCache(t)
	ctx := context.Background()

	_, found, err := cache.GetTokenPrice(ctx, "SOL")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.SetTokenPrice(ctx, "SOL", 152.34))

	price, found, err := cache.GetTokenPrice(ctx, "SOL")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 152.34, price)

	// Prices expire on their own shorter TTL.
	mr.FastForward(2 * time.Minute)
	_, found, err = cache.GetTokenPrice(ctx, "SOL")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestScoreCacheInvalidValue(t *testing.T) {
	cache, mr := newTestScoreCache(t)

	require.NoError(t, mr.Set("credit_score:"+testWallet, "not-a-number"))

	_, _, err := cache.GetCreditScore(context.Background(), testWallet)
	assert.Error(t, err)
}
