package entity

import "time"

// Portfolio is the aggregate root that owns positions and the ledger.
type Portfolio struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}
