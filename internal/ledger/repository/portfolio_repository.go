package repository

import (
	"context"
	"errors"

	"golang-portfolio-ledger/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PortfolioRepository defines the interface for portfolio data operations.
type PortfolioRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Portfolio, error)
	FindByName(ctx context.Context, name string) (*entity.Portfolio, error)
	CreateIfNotExists(ctx context.Context, portfolio *entity.Portfolio) error
	LockByID(ctx context.Context, id string) (*entity.Portfolio, error)
}

// NewPortfolioRepository creates a new GORM-based portfolio repository.
func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

type portfolioRepository struct {
	db *gorm.DB
}

// FindByID retrieves a portfolio by id. It returns nil, nil when none exists.
func (r *portfolioRepository) FindByID(ctx context.Context, id string) (*entity.Portfolio, error) {
	var portfolio entity.Portfolio
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&portfolio).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &portfolio, nil
}

// FindByName retrieves a portfolio by its unique name. It returns nil, nil when none exists.
func (r *portfolioRepository) FindByName(ctx context.Context, name string) (*entity.Portfolio, error) {
	var portfolio entity.Portfolio
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&portfolio).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &portfolio, nil
}

// CreateIfNotExists inserts the portfolio unless one with the same name exists.
func (r *portfolioRepository) CreateIfNotExists(ctx context.Context, portfolio *entity.Portfolio) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(portfolio).Error
}

// LockByID reads the portfolio row with a row-level write lock held until the
// surrounding transaction ends. It returns nil, nil when none exists.
func (r *portfolioRepository) LockByID(ctx context.Context, id string) (*entity.Portfolio, error) {
	var portfolio entity.Portfolio
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&portfolio).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &portfolio, nil
}
