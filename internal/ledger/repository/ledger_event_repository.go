package repository

import (
	"context"
	"encoding/json"

	"golang-portfolio-ledger/internal/entity"
	"golang-portfolio-ledger/pkg/common"

	"github.com/redis/go-redis/v9"
)

// LedgerEventRepository publishes committed ledger entries to downstream consumers.
type LedgerEventRepository interface {
	PublishEntryAppended(ctx context.Context, entry *entity.LedgerEntry) error
}

// NewRedisLedgerEventRepository publishes to the ledger Redis stream, trimmed to maxLen.
func NewRedisLedgerEventRepository(redisClient *redis.Client, maxLen int64) LedgerEventRepository {
	return &redisLedgerEventRepository{redisClient: redisClient, maxLen: maxLen}
}

type redisLedgerEventRepository struct {
	redisClient *redis.Client
	maxLen      int64
}

// PublishEntryAppended adds the entry as JSON to the stream.
func (r *redisLedgerEventRepository) PublishEntryAppended(ctx context.Context, entry *entity.LedgerEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamLedgerEntryAppended,
		MaxLen: r.maxLen,
		Approx: r.maxLen > 0,
		Values: map[string]interface{}{
			"portfolio_id": entry.PortfolioID,
			"sequence":     entry.Sequence,
			"payload":      payload,
		},
	}).Err()
}

// NewNopLedgerEventRepository returns a publisher that drops every event.
func NewNopLedgerEventRepository() LedgerEventRepository {
	return nopLedgerEventRepository{}
}

type nopLedgerEventRepository struct{}

func (nopLedgerEventRepository) PublishEntryAppended(context.Context, *entity.LedgerEntry) error {
	return nil
}
