package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerAction is the kind of mutation recorded by a ledger entry.
type LedgerAction string

const (
	LedgerActionAdd    LedgerAction = "ADD"
	LedgerActionRemove LedgerAction = "REMOVE"
)

// Valid reports whether a is one of the known actions.
func (a LedgerAction) Valid() bool {
	return a == LedgerActionAdd || a == LedgerActionRemove
}

// ParseLedgerAction converts a stored label into a LedgerAction.
func ParseLedgerAction(s string) (LedgerAction, error) {
	a := LedgerAction(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown ledger action %q", s)
	}
	return a, nil
}

// LedgerEntry is one immutable, hash-chained record of a portfolio mutation.
// Sequence starts at 1 for every portfolio and increases by one per entry.
type LedgerEntry struct {
	ID            uint64          `gorm:"primaryKey" json:"id"`
	PortfolioID   string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_ledger_portfolio_sequence;uniqueIndex:idx_ledger_portfolio_previous_hash" json:"portfolio_id"`
	Sequence      int64           `gorm:"not null;uniqueIndex:idx_ledger_portfolio_sequence" json:"sequence"`
	Action        LedgerAction    `gorm:"type:varchar(10);not null" json:"action"`
	Ticker        string          `gorm:"type:varchar(10);not null" json:"ticker"`
	Quantity      int64           `gorm:"not null" json:"quantity"`
	PriceAtAction decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"price_at_action"`
	Timestamp     time.Time       `gorm:"not null" json:"timestamp"`
	PreviousHash  string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_ledger_portfolio_previous_hash" json:"previous_hash"`
	CurrentHash   string          `gorm:"type:varchar(64);not null" json:"current_hash"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
