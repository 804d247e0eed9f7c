package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ScoreCache caches computed credit scores and token prices in Redis. Both
// are recomputed/refetched on miss; the cache only shaves repeat work inside
// a short window.
type ScoreCache struct {
	cache    *RedisCache
	scoreTTL time.Duration
	priceTTL time.Duration
}

// NewScoreCache creates a score cache with the given TTLs.
func NewScoreCache(cache *RedisCache, scoreTTL, priceTTL time.Duration) *ScoreCache {
	return &ScoreCache{cache: cache, scoreTTL: scoreTTL, priceTTL: priceTTL}
}

func scoreKey(wallet string) string {
	return fmt.Sprintf("credit_score:%s", wallet)
}

func priceKey(token string) string {
	return fmt.Sprintf("token_price:%s", token)
}

// SetCreditScore caches a computed credit score for a wallet.
func (c *ScoreCache) SetCreditScore(ctx context.Context, wallet string, score float64) error {
	return c.cache.Client().Set(ctx, scoreKey(wallet), strconv.FormatFloat(score, 'f', -1, 64), c.scoreTTL).Err()
}

// GetCreditScore returns a cached credit score, or found=false on miss.
func (c *ScoreCache) GetCreditScore(ctx context.Context, wallet string) (score float64, found bool, err error) {
	val, err := c.cache.Client().Get(ctx, scoreKey(wallet)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get cached score: %w", err)
	}

	score, err = strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid cached score %q: %w", val, err)
	}
	return score, true, nil
}

// SetTokenPrice caches a token price in USD.
func (c *ScoreCache) SetTokenPrice(ctx context.Context, token string, price float64) error {
	return c.cache.Client().Set(ctx, priceKey(token), strconv.FormatFloat(price, 'f', -1, 64), c.priceTTL).Err()
}

// GetTokenPrice returns a cached token price, or found=false on miss.
func (c *ScoreCache) GetTokenPrice(ctx context.Context, token string) (price float64, found bool, err error) {
	val, err := c.cache.Client().Get(ctx, priceKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get cached price: %w", err)
	}

	price, err = strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid cached price %q: %w", val, err)
	}
	return price, true, nil
}
