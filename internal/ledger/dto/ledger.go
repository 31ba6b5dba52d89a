package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryResponse is one ledger entry in API responses.
type LedgerEntryResponse struct {
	Sequence      int64           `json:"sequence"`
	Action        string          `json:"action"`
	Ticker        string          `json:"ticker"`
	Quantity      int64           `json:"quantity"`
	PriceAtAction decimal.Decimal `json:"price_at_action" swaggertype:"number"`
	Timestamp     time.Time       `json:"timestamp"`
	PreviousHash  string          `json:"previous_hash"`
	CurrentHash   string          `json:"current_hash"`
}

// LedgerPageResponse is one page of the ledger in sequence order.
type LedgerPageResponse struct {
	Entries      []LedgerEntryResponse `json:"entries"`
	NextAfter    int64                 `json:"next_after"`
	HasMore      bool                  `json:"has_more"`
	TotalEntries int64                 `json:"total_entries"`
}
