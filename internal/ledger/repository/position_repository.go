package repository

import (
	"context"
	"errors"

	"golang-portfolio-ledger/internal/entity"

	"gorm.io/gorm"
)

// PositionRepository defines the interface for position data operations.
type PositionRepository interface {
	FindByTicker(ctx context.Context, portfolioID, ticker string) (*entity.Position, error)
	FindAll(ctx context.Context, portfolioID string) ([]entity.Position, error)
	Upsert(ctx context.Context, position *entity.Position) error
	Delete(ctx context.Context, portfolioID, ticker string) error
}

// NewPositionRepository creates a new GORM-based position repository.
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

type positionRepository struct {
	db *gorm.DB
}

// FindByTicker retrieves one position. It returns nil, nil when the ticker is not held.
func (r *positionRepository) FindByTicker(ctx context.Context, portfolioID, ticker string) (*entity.Position, error) {
	var position entity.Position
	err := r.db.WithContext(ctx).
		Where("portfolio_id = ? AND ticker = ?", portfolioID, ticker).
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// FindAll retrieves every position of the portfolio ordered by ticker.
func (r *positionRepository) FindAll(ctx context.Context, portfolioID string) ([]entity.Position, error) {
	var positions []entity.Position
	if err := r.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("ticker ASC").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

// Upsert creates the position when it has no id yet and replaces it otherwise.
func (r *positionRepository) Upsert(ctx context.Context, position *entity.Position) error {
	if position.ID == 0 {
		return r.db.WithContext(ctx).Create(position).Error
	}
	return r.db.WithContext(ctx).Save(position).Error
}

// Delete removes the position of ticker from the portfolio.
func (r *positionRepository) Delete(ctx context.Context, portfolioID, ticker string) error {
	return r.db.WithContext(ctx).
		Where("portfolio_id = ? AND ticker = ?", portfolioID, ticker).
		Delete(&entity.Position{}).Error
}
