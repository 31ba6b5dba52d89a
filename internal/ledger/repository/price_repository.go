package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-portfolio-ledger/pkg/common"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// PriceRepository looks up the latest market price of a ticker.
type PriceRepository interface {
	GetLatestPrice(ctx context.Context, ticker string) (decimal.Decimal, bool, error)
}

// NewRedisPriceRepository reads prices from the last_price:<TICKER> hashes kept
// by the market-data ingestor, caching hits in memory for cacheTTL.
func NewRedisPriceRepository(redisClient *redis.Client, cacheTTL time.Duration) PriceRepository {
	return &redisPriceRepository{
		redisClient:   redisClient,
		inmemoryCache: cache.New(cacheTTL, 2*cacheTTL),
	}
}

type redisPriceRepository struct {
	redisClient   *redis.Client
	inmemoryCache *cache.Cache
}

// GetLatestPrice returns the price and true when one is known for ticker.
func (r *redisPriceRepository) GetLatestPrice(ctx context.Context, ticker string) (decimal.Decimal, bool, error) {
	if cached, ok := r.inmemoryCache.Get(ticker); ok {
		return cached.(decimal.Decimal), true, nil
	}

	key := fmt.Sprintf(common.RedisKeyLastPrice, ticker)
	raw, err := r.redisClient.HGet(ctx, key, "price").Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to read last price of %s: %w", ticker, err)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid last price %q for %s: %w", raw, ticker, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, false, nil
	}

	r.inmemoryCache.SetDefault(ticker, price)
	return price, true, nil
}
