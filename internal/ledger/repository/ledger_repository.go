package repository

import (
	"context"
	"errors"

	"golang-portfolio-ledger/internal/entity"

	"gorm.io/gorm"
)

// LedgerRepository defines the interface for ledger entry data operations.
// Entries are only ever created; there is no update or delete.
type LedgerRepository interface {
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	FindLast(ctx context.Context, portfolioID string) (*entity.LedgerEntry, error)
	FindAfter(ctx context.Context, portfolioID string, afterSequence int64, limit int) ([]entity.LedgerEntry, error)
	Count(ctx context.Context, portfolioID string) (int64, error)
}

// NewLedgerRepository creates a new GORM-based ledger repository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

type ledgerRepository struct {
	db *gorm.DB
}

// Create appends an entry.
func (r *ledgerRepository) Create(ctx context.Context, entry *entity.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindLast retrieves the entry with the highest sequence. It returns nil, nil
// for an empty ledger.
func (r *ledgerRepository) FindLast(ctx context.Context, portfolioID string) (*entity.LedgerEntry, error) {
	var entry entity.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("sequence DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindAfter retrieves up to limit entries with a sequence greater than
// afterSequence, in ascending sequence order.
func (r *ledgerRepository) FindAfter(ctx context.Context, portfolioID string, afterSequence int64, limit int) ([]entity.LedgerEntry, error) {
	var entries []entity.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("portfolio_id = ? AND sequence > ?", portfolioID, afterSequence).
		Order("sequence ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries of the portfolio.
func (r *ledgerRepository) Count(ctx context.Context, portfolioID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.LedgerEntry{}).
		Where("portfolio_id = ?", portfolioID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
