package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// IntegrityStatus is the outcome of a ledger verification.
type IntegrityStatus string

const (
	IntegrityStatusOK     IntegrityStatus = "OK"
	IntegrityStatusFailed IntegrityStatus = "FAILED"
)

// IntegrityCheck records one verification run of a portfolio ledger.
type IntegrityCheck struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	PortfolioID      string          `gorm:"type:varchar(36);not null;index" json:"portfolio_id"`
	Status           IntegrityStatus `gorm:"type:varchar(10);not null" json:"status"`
	EntriesChecked   int64           `gorm:"not null" json:"entries_checked"`
	FirstBadSequence sql.NullInt64   `json:"first_bad_sequence" swaggertype:"integer"`
	Details          datatypes.JSON  `json:"details" swaggertype:"object"`
	VerifiedAt       time.Time       `gorm:"not null;index" json:"verified_at"`
}

func (IntegrityCheck) TableName() string {
	return "integrity_checks"
}
