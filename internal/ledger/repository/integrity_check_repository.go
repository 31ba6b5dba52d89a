package repository

import (
	"context"

	"golang-portfolio-ledger/internal/entity"

	"gorm.io/gorm"
)

// IntegrityCheckRepository defines the interface for verification history operations.
type IntegrityCheckRepository interface {
	Create(ctx context.Context, check *entity.IntegrityCheck) error
	FindRecent(ctx context.Context, portfolioID string, limit int) ([]entity.IntegrityCheck, error)
}

// NewIntegrityCheckRepository creates a new GORM-based integrity check repository.
func NewIntegrityCheckRepository(db *gorm.DB) IntegrityCheckRepository {
	return &integrityCheckRepository{db: db}
}

type integrityCheckRepository struct {
	db *gorm.DB
}

// Create records a verification run.
func (r *integrityCheckRepository) Create(ctx context.Context, check *entity.IntegrityCheck) error {
	return r.db.WithContext(ctx).Create(check).Error
}

// FindRecent retrieves the latest runs, newest first.
func (r *integrityCheckRepository) FindRecent(ctx context.Context, portfolioID string, limit int) ([]entity.IntegrityCheck, error) {
	var checks []entity.IntegrityCheck
	if err := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("verified_at DESC, id DESC").
		Limit(limit).
		Find(&checks).Error; err != nil {
		return nil, err
	}
	return checks, nil
}
