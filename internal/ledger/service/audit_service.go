package service

import (
	"context"
	"fmt"

	"golang-portfolio-ledger/internal/entity"
	"golang-portfolio-ledger/internal/ledger/dto"
	"golang-portfolio-ledger/internal/ledger/repository"
	"golang-portfolio-ledger/pkg/hashchain"
	"golang-portfolio-ledger/pkg/logger"
	"golang-portfolio-ledger/pkg/utils"

	"github.com/shopspring/decimal"
)

// walkBatchSize is the page size used when replaying a chain.
const walkBatchSize = 500

// AuditService appends to and replays the hash-chained ledger.
type AuditService interface {
	// Append chains a new entry after the portfolio's last entry. It must run
	// inside the caller's transaction while the portfolio is locked.
	Append(ctx context.Context, tx repository.Store, portfolioID string, action entity.LedgerAction, ticker string, quantity int64, price decimal.Decimal) (*entity.LedgerEntry, error)
	// Walk calls fn for every entry of the portfolio in ascending sequence order,
	// stopping early when fn returns an error.
	Walk(ctx context.Context, portfolioID string, fn func(entry *entity.LedgerEntry) error) error
	// ListEntries returns up to limit entries after the given sequence.
	ListEntries(ctx context.Context, portfolioID string, afterSequence int64, limit int) ([]entity.LedgerEntry, error)
	// CountEntries returns the chain length.
	CountEntries(ctx context.Context, portfolioID string) (int64, error)
	// GetPage returns one page of entries together with the cursor for the next page.
	GetPage(ctx context.Context, portfolioID string, afterSequence int64, limit int) (*dto.LedgerPageResponse, error)
}

// NewAuditService creates a new audit service.
func NewAuditService(store repository.Store, logger *logger.Logger) AuditService {
	return &auditService{
		store:  store,
		logger: logger,
	}
}

type auditService struct {
	store  repository.Store
	logger *logger.Logger
}

// Append computes previous and current hash and persists the entry.
func (s *auditService) Append(ctx context.Context, tx repository.Store, portfolioID string, action entity.LedgerAction, ticker string, quantity int64, price decimal.Decimal) (*entity.LedgerEntry, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, action)
	}

	last, err := tx.Ledger().FindLast(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to read last ledger entry: %w", err)
	}

	previousHash := hashchain.Genesis
	sequence := int64(1)
	if last != nil {
		previousHash = last.CurrentHash
		sequence = last.Sequence + 1
	}

	link := hashchain.Link{
		PortfolioID: portfolioID,
		Action:      string(action),
		Ticker:      ticker,
		Quantity:    quantity,
		Price:       price,
	}
	currentHash, err := link.Hash(previousHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	entry := &entity.LedgerEntry{
		PortfolioID:   portfolioID,
		Sequence:      sequence,
		Action:        action,
		Ticker:        ticker,
		Quantity:      quantity,
		PriceAtAction: price,
		Timestamp:     utils.TimeNowUTC(),
		PreviousHash:  previousHash,
		CurrentHash:   currentHash,
	}
	if err := tx.Ledger().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	s.logger.DebugContext(ctx, "Ledger entry appended",
		logger.StringField("portfolio_id", portfolioID),
		logger.Int64Field("sequence", sequence),
		logger.StringField("action", string(action)),
		logger.StringField("ticker", ticker),
	)
	return entry, nil
}

// Walk pages through the chain with keyset pagination, so it holds no cursor
// between pages and can be restarted at any time.
func (s *auditService) Walk(ctx context.Context, portfolioID string, fn func(entry *entity.LedgerEntry) error) error {
	after := int64(0)
	for {
		entries, err := s.store.Ledger().FindAfter(ctx, portfolioID, after, walkBatchSize)
		if err != nil {
			return fmt.Errorf("failed to read ledger: %w", err)
		}
		for i := range entries {
			if err := fn(&entries[i]); err != nil {
				return err
			}
			after = entries[i].Sequence
		}
		if len(entries) < walkBatchSize {
			return nil
		}
	}
}

// ListEntries returns one page of the ledger.
func (s *auditService) ListEntries(ctx context.Context, portfolioID string, afterSequence int64, limit int) ([]entity.LedgerEntry, error) {
	if afterSequence < 0 || limit <= 0 {
		return nil, fmt.Errorf("%w: after must be >= 0 and limit > 0", ErrInvalidArgument)
	}
	return s.store.Ledger().FindAfter(ctx, portfolioID, afterSequence, limit)
}

// CountEntries returns the number of entries in the chain.
func (s *auditService) CountEntries(ctx context.Context, portfolioID string) (int64, error) {
	return s.store.Ledger().Count(ctx, portfolioID)
}

// GetPage returns entries after afterSequence. NextAfter is the sequence to pass
// for the following page.
func (s *auditService) GetPage(ctx context.Context, portfolioID string, afterSequence int64, limit int) (*dto.LedgerPageResponse, error) {
	entries, err := s.ListEntries(ctx, portfolioID, afterSequence, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.CountEntries(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	page := &dto.LedgerPageResponse{
		Entries:      make([]dto.LedgerEntryResponse, 0, len(entries)),
		NextAfter:    afterSequence,
		TotalEntries: total,
	}
	for i := range entries {
		page.Entries = append(page.Entries, mapToLedgerEntryResponse(&entries[i]))
		page.NextAfter = entries[i].Sequence
	}
	page.HasMore = page.NextAfter < total
	return page, nil
}
