package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddHoldingRequest is the DTO for buying into a position.
type AddHoldingRequest struct {
	Ticker   string          `json:"ticker"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price" swaggertype:"number"`
}

// RemoveHoldingRequest is the DTO for selling out of a position.
type RemoveHoldingRequest struct {
	Quantity int64 `json:"quantity"`
}

// PositionResponse is the stored state of a position after a mutation.
// Quantity is zero and Closed is true once the position was removed completely.
type PositionResponse struct {
	Ticker      string          `json:"ticker"`
	Quantity    int64           `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost" swaggertype:"number"`
	Closed      bool            `json:"closed"`
}

// MutationResponse pairs the new position state with the ledger entry recorded for it.
type MutationResponse struct {
	Position    PositionResponse    `json:"position"`
	LedgerEntry LedgerEntryResponse `json:"ledger_entry"`
}

// HoldingResponse is a position valued at the latest known price.
type HoldingResponse struct {
	Ticker            string          `json:"ticker"`
	Shares            int64           `json:"shares"`
	AverageCost       decimal.Decimal `json:"avg_cost" swaggertype:"number"`
	CurrentPrice      decimal.Decimal `json:"current_price" swaggertype:"number"`
	PriceAvailable    bool            `json:"price_available"`
	Value             decimal.Decimal `json:"value" swaggertype:"number"`
	Invested          decimal.Decimal `json:"invested" swaggertype:"number"`
	Allocation        decimal.Decimal `json:"allocation" swaggertype:"number"`
	ProfitLoss        decimal.Decimal `json:"profit_loss" swaggertype:"number"`
	ProfitLossPercent decimal.Decimal `json:"profit_loss_percent" swaggertype:"number"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// SummaryResponse aggregates every holding of the portfolio.
type SummaryResponse struct {
	PortfolioID      string          `json:"portfolio_id"`
	Holdings         int             `json:"holdings"`
	TotalValue       decimal.Decimal `json:"total_value" swaggertype:"number"`
	TotalInvested    decimal.Decimal `json:"total_invested" swaggertype:"number"`
	TotalGain        decimal.Decimal `json:"total_gain" swaggertype:"number"`
	TotalGainPercent decimal.Decimal `json:"total_gain_percent" swaggertype:"number"`
	TopHolding       string          `json:"top_holding"`
	LedgerEntries    int64           `json:"ledger_entries"`
}
