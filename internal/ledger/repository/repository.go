package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle. Inside
// Transaction every repository returned by the transactional Store runs on the
// same database transaction.
type Store interface {
	Portfolios() PortfolioRepository
	Positions() PositionRepository
	Ledger() LedgerRepository
	IntegrityChecks() IntegrityCheckRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// NewStore creates a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

type store struct {
	db *gorm.DB
}

func (s *store) Portfolios() PortfolioRepository {
	return NewPortfolioRepository(s.db)
}

func (s *store) Positions() PositionRepository {
	return NewPositionRepository(s.db)
}

func (s *store) Ledger() LedgerRepository {
	return NewLedgerRepository(s.db)
}

func (s *store) IntegrityChecks() IntegrityCheckRepository {
	return NewIntegrityCheckRepository(s.db)
}

// Transaction runs fn in a database transaction. Returning an error from fn
// rolls back every write made through tx.
func (s *store) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}
