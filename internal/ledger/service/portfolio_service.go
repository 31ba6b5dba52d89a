package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"golang-portfolio-ledger/internal/entity"
	"golang-portfolio-ledger/internal/ledger/dto"
	"golang-portfolio-ledger/internal/ledger/repository"
	"golang-portfolio-ledger/pkg/hashchain"
	"golang-portfolio-ledger/pkg/logger"
	"golang-portfolio-ledger/pkg/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const maxTickerLength = 10

var hundred = decimal.NewFromInt(100)

// PortfolioService applies holding mutations and serves valuation views.
// Every mutation writes the position and its ledger entry in one transaction.
type PortfolioService interface {
	Bootstrap(ctx context.Context, name string) (*entity.Portfolio, error)
	AddHolding(ctx context.Context, portfolioID, ticker string, quantity int64, price decimal.Decimal) (*dto.MutationResponse, error)
	RemoveHolding(ctx context.Context, portfolioID, ticker string, quantity int64) (*dto.MutationResponse, error)
	GetPosition(ctx context.Context, portfolioID, ticker string) (*entity.Position, error)
	GetHoldings(ctx context.Context, portfolioID string) ([]dto.HoldingResponse, error)
	GetHolding(ctx context.Context, portfolioID, ticker string) (*dto.HoldingResponse, error)
	GetSummary(ctx context.Context, portfolioID string) (*dto.SummaryResponse, error)
}

// NewPortfolioService creates a new portfolio service.
func NewPortfolioService(
	store repository.Store,
	auditService AuditService,
	priceRepo repository.PriceRepository,
	eventRepo repository.LedgerEventRepository,
	logger *logger.Logger,
) PortfolioService {
	return &portfolioService{
		store:        store,
		auditService: auditService,
		priceRepo:    priceRepo,
		eventRepo:    eventRepo,
		logger:       logger,
		locks:        newPortfolioLocks(),
	}
}

type portfolioService struct {
	store        repository.Store
	auditService AuditService
	priceRepo    repository.PriceRepository
	eventRepo    repository.LedgerEventRepository
	logger       *logger.Logger

	bootstrapMu sync.Mutex
	locks       *portfolioLocks
}

// Bootstrap returns the portfolio with the given name, creating it on first use.
// Concurrent callers, in this process or another, always end up with the same row.
func (s *portfolioService) Bootstrap(ctx context.Context, name string) (*entity.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: portfolio name is required", ErrInvalidArgument)
	}

	s.bootstrapMu.Lock()
	defer s.bootstrapMu.Unlock()

	portfolio, err := s.store.Portfolios().FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find portfolio: %w", err)
	}
	if portfolio != nil {
		return portfolio, nil
	}

	if err := s.store.Portfolios().CreateIfNotExists(ctx, &entity.Portfolio{ID: uuid.NewString(), Name: name}); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	portfolio, err = s.store.Portfolios().FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find portfolio: %w", err)
	}
	if portfolio == nil {
		return nil, fmt.Errorf("portfolio %q missing after create", name)
	}

	s.logger.Info("Portfolio ready", logger.StringField("portfolio_id", portfolio.ID), logger.StringField("name", name))
	return portfolio, nil
}

// AddHolding buys quantity units of ticker at price and blends the average cost.
func (s *portfolioService) AddHolding(ctx context.Context, portfolioID, ticker string, quantity int64, price decimal.Decimal) (*dto.MutationResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "PortfolioService.AddHolding",
		attribute.String("portfolio_id", portfolioID),
		attribute.String("ticker", ticker),
		attribute.Int64("quantity", quantity),
	)
	defer span.End()

	ticker, err := normalizeTicker(ticker)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	price = price.Round(hashchain.PriceScale)
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidArgument)
	}

	var position *entity.Position
	entry, err := s.mutate(ctx, portfolioID, func(tx repository.Store) (*entity.LedgerEntry, error) {
		current, err := tx.Positions().FindByTicker(ctx, portfolioID, ticker)
		if err != nil {
			return nil, fmt.Errorf("failed to read position: %w", err)
		}

		if current == nil {
			current = &entity.Position{
				PortfolioID: portfolioID,
				Ticker:      ticker,
				Quantity:    quantity,
				AverageCost: price,
			}
		} else {
			if current.Quantity > math.MaxInt64-quantity {
				return nil, fmt.Errorf("%w: quantity overflow", ErrInvalidArgument)
			}
			current.AverageCost = weightedAverageCost(current.AverageCost, current.Quantity, price, quantity)
			current.Quantity += quantity
		}

		if err := tx.Positions().Upsert(ctx, current); err != nil {
			return nil, fmt.Errorf("failed to save position: %w", err)
		}
		position = current

		return s.auditService.Append(ctx, tx, portfolioID, entity.LedgerActionAdd, ticker, quantity, price)
	})
	if err != nil {
		tracing.RecordError(span, err)
		s.logMutationFailure(ctx, "add", portfolioID, ticker, quantity, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Holding added",
		logger.StringField("portfolio_id", portfolioID),
		logger.StringField("ticker", ticker),
		logger.Int64Field("quantity", quantity),
		logger.StringField("price", price.String()),
		logger.Int64Field("sequence", entry.Sequence),
	)
	return &dto.MutationResponse{
		Position:    mapToPositionResponse(position),
		LedgerEntry: mapToLedgerEntryResponse(entry),
	}, nil
}

// RemoveHolding sells quantity units of ticker. The average cost is unchanged;
// the position is deleted once nothing is left.
func (s *portfolioService) RemoveHolding(ctx context.Context, portfolioID, ticker string, quantity int64) (*dto.MutationResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "PortfolioService.RemoveHolding",
		attribute.String("portfolio_id", portfolioID),
		attribute.String("ticker", ticker),
		attribute.Int64("quantity", quantity),
	)
	defer span.End()

	ticker, err := normalizeTicker(ticker)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}

	var position *entity.Position
	entry, err := s.mutate(ctx, portfolioID, func(tx repository.Store) (*entity.LedgerEntry, error) {
		current, err := tx.Positions().FindByTicker(ctx, portfolioID, ticker)
		if err != nil {
			return nil, fmt.Errorf("failed to read position: %w", err)
		}
		if current == nil {
			return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, ticker)
		}
		if quantity > current.Quantity {
			return nil, fmt.Errorf("%w: holding %d %s, requested %d", ErrInsufficientQuantity, current.Quantity, ticker, quantity)
		}

		costBefore := current.AverageCost
		current.Quantity -= quantity
		if current.Quantity == 0 {
			if err := tx.Positions().Delete(ctx, portfolioID, ticker); err != nil {
				return nil, fmt.Errorf("failed to delete position: %w", err)
			}
		} else if err := tx.Positions().Upsert(ctx, current); err != nil {
			return nil, fmt.Errorf("failed to save position: %w", err)
		}
		position = current

		return s.auditService.Append(ctx, tx, portfolioID, entity.LedgerActionRemove, ticker, quantity, costBefore)
	})
	if err != nil {
		tracing.RecordError(span, err)
		s.logMutationFailure(ctx, "remove", portfolioID, ticker, quantity, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Holding removed",
		logger.StringField("portfolio_id", portfolioID),
		logger.StringField("ticker", ticker),
		logger.Int64Field("quantity", quantity),
		logger.Int64Field("remaining", position.Quantity),
		logger.Int64Field("sequence", entry.Sequence),
	)
	return &dto.MutationResponse{
		Position:    mapToPositionResponse(position),
		LedgerEntry: mapToLedgerEntryResponse(entry),
	}, nil
}

// mutate runs fn as the portfolio's critical section: the in-process lock and
// the portfolio row lock are both held from reading the position until the
// ledger entry is committed. The committed entry is published before the lock
// is released so the event stream follows ledger order.
func (s *portfolioService) mutate(ctx context.Context, portfolioID string, fn func(tx repository.Store) (*entity.LedgerEntry, error)) (*entity.LedgerEntry, error) {
	unlock := s.locks.Lock(portfolioID)
	defer unlock()

	var entry *entity.LedgerEntry
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		portfolio, err := tx.Portfolios().LockByID(ctx, portfolioID)
		if err != nil {
			return fmt.Errorf("failed to lock portfolio: %w", err)
		}
		if portfolio == nil {
			return fmt.Errorf("%w: %s", ErrPortfolioNotFound, portfolioID)
		}

		entry, err = fn(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.eventRepo.PublishEntryAppended(ctx, entry); err != nil {
		s.logger.Error("Failed to publish ledger entry",
			logger.ErrorField(err),
			logger.StringField("portfolio_id", portfolioID),
			logger.Int64Field("sequence", entry.Sequence),
		)
	}
	return entry, nil
}

func (s *portfolioService) logMutationFailure(ctx context.Context, op, portfolioID, ticker string, quantity int64, err error) {
	if isRejection(err) {
		s.logger.Warn("Holding mutation rejected",
			logger.StringField("op", op),
			logger.StringField("portfolio_id", portfolioID),
			logger.StringField("ticker", ticker),
			logger.Int64Field("quantity", quantity),
			logger.ErrorField(err),
		)
		return
	}
	s.logger.ErrorContext(ctx, "Holding mutation failed",
		logger.StringField("op", op),
		logger.StringField("portfolio_id", portfolioID),
		logger.StringField("ticker", ticker),
		logger.Int64Field("quantity", quantity),
		logger.ErrorField(err),
	)
}

// GetPosition returns the position of ticker, or nil when it is not held.
func (s *portfolioService) GetPosition(ctx context.Context, portfolioID, ticker string) (*entity.Position, error) {
	ticker, err := normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	return s.store.Positions().FindByTicker(ctx, portfolioID, ticker)
}

// GetHoldings values every position at its latest price. A position without a
// known price is valued at its average cost.
func (s *portfolioService) GetHoldings(ctx context.Context, portfolioID string) ([]dto.HoldingResponse, error) {
	if err := s.ensurePortfolio(ctx, portfolioID); err != nil {
		return nil, err
	}

	positions, err := s.store.Positions().FindAll(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	holdings := make([]dto.HoldingResponse, 0, len(positions))
	total := decimal.Zero
	for i := range positions {
		h := s.valuePosition(ctx, &positions[i])
		total = total.Add(h.Value)
		holdings = append(holdings, h)
	}

	for i := range holdings {
		if total.IsPositive() {
			holdings[i].Allocation = holdings[i].Value.Div(total).Mul(hundred).Round(2)
		}
	}
	return holdings, nil
}

// GetHolding values a single position.
func (s *portfolioService) GetHolding(ctx context.Context, portfolioID, ticker string) (*dto.HoldingResponse, error) {
	holdings, err := s.GetHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	ticker, err = normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	for i := range holdings {
		if holdings[i].Ticker == ticker {
			return &holdings[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, ticker)
}

// GetSummary totals every holding of the portfolio.
func (s *portfolioService) GetSummary(ctx context.Context, portfolioID string) (*dto.SummaryResponse, error) {
	holdings, err := s.GetHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	entries, err := s.auditService.CountEntries(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	summary := &dto.SummaryResponse{
		PortfolioID:      portfolioID,
		Holdings:         len(holdings),
		TotalValue:       decimal.Zero,
		TotalInvested:    decimal.Zero,
		TotalGain:        decimal.Zero,
		TotalGainPercent: decimal.Zero,
		TopHolding:       "N/A",
		LedgerEntries:    entries,
	}

	top := decimal.Zero
	for _, h := range holdings {
		summary.TotalValue = summary.TotalValue.Add(h.Value)
		summary.TotalInvested = summary.TotalInvested.Add(h.Invested)
		if h.Value.GreaterThan(top) {
			top = h.Value
			summary.TopHolding = h.Ticker
		}
	}
	summary.TotalGain = summary.TotalValue.Sub(summary.TotalInvested)
	if summary.TotalInvested.IsPositive() {
		summary.TotalGainPercent = summary.TotalGain.Div(summary.TotalInvested).Mul(hundred).Round(2)
	}
	return summary, nil
}

func (s *portfolioService) ensurePortfolio(ctx context.Context, portfolioID string) error {
	portfolio, err := s.store.Portfolios().FindByID(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to find portfolio: %w", err)
	}
	if portfolio == nil {
		return fmt.Errorf("%w: %s", ErrPortfolioNotFound, portfolioID)
	}
	return nil
}

func (s *portfolioService) valuePosition(ctx context.Context, position *entity.Position) dto.HoldingResponse {
	price, ok, err := s.priceRepo.GetLatestPrice(ctx, position.Ticker)
	if err != nil {
		s.logger.Warn("Failed to get latest price, using average cost",
			logger.StringField("ticker", position.Ticker), logger.ErrorField(err))
	}
	if err != nil || !ok {
		price = position.AverageCost
	}

	qty := decimal.NewFromInt(position.Quantity)
	value := qty.Mul(price)
	invested := qty.Mul(position.AverageCost)
	profitLoss := value.Sub(invested)
	profitLossPercent := decimal.Zero
	if invested.IsPositive() {
		profitLossPercent = profitLoss.Div(invested).Mul(hundred).Round(2)
	}

	return dto.HoldingResponse{
		Ticker:            position.Ticker,
		Shares:            position.Quantity,
		AverageCost:       position.AverageCost,
		CurrentPrice:      price,
		PriceAvailable:    err == nil && ok,
		Value:             value,
		Invested:          invested,
		Allocation:        decimal.Zero,
		ProfitLoss:        profitLoss,
		ProfitLossPercent: profitLossPercent,
		UpdatedAt:         position.UpdatedAt,
	}
}

// weightedAverageCost blends an existing position with a new purchase.
func weightedAverageCost(oldCost decimal.Decimal, oldQty int64, price decimal.Decimal, qty int64) decimal.Decimal {
	if oldQty == 0 {
		return price
	}
	oldTotal := oldCost.Mul(decimal.NewFromInt(oldQty))
	newTotal := price.Mul(decimal.NewFromInt(qty))
	return oldTotal.Add(newTotal).DivRound(decimal.NewFromInt(oldQty+qty), hashchain.PriceScale)
}

func normalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", fmt.Errorf("%w: ticker is required", ErrInvalidArgument)
	}
	if len(t) > maxTickerLength {
		return "", fmt.Errorf("%w: ticker longer than %d characters", ErrInvalidArgument, maxTickerLength)
	}
	return t, nil
}

func isRejection(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrPositionNotFound) ||
		errors.Is(err, ErrInsufficientQuantity) ||
		errors.Is(err, ErrPortfolioNotFound)
}

func mapToPositionResponse(p *entity.Position) dto.PositionResponse {
	return dto.PositionResponse{
		Ticker:      p.Ticker,
		Quantity:    p.Quantity,
		AverageCost: p.AverageCost,
		Closed:      p.Quantity == 0,
	}
}

func mapToLedgerEntryResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		Sequence:      e.Sequence,
		Action:        string(e.Action),
		Ticker:        e.Ticker,
		Quantity:      e.Quantity,
		PriceAtAction: e.PriceAtAction,
		Timestamp:     e.Timestamp,
		PreviousHash:  e.PreviousHash,
		CurrentHash:   e.CurrentHash,
	}
}
