package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the current holding of one ticker inside a portfolio.
type Position struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PortfolioID string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_positions_portfolio_ticker" json:"portfolio_id"`
	Ticker      string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_positions_portfolio_ticker" json:"ticker"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	AverageCost decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"average_cost"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Position) TableName() string {
	return "positions"
}
