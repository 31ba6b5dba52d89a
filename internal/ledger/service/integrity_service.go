package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"golang-portfolio-ledger/internal/entity"
	"golang-portfolio-ledger/internal/ledger/dto"
	"golang-portfolio-ledger/internal/ledger/repository"
	"golang-portfolio-ledger/pkg/hashchain"
	"golang-portfolio-ledger/pkg/logger"
	"golang-portfolio-ledger/pkg/tracing"
	"golang-portfolio-ledger/pkg/utils"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
)

// VerificationResult is the outcome of replaying a ledger. A broken chain is
// reported here with Valid false, never as an error.
type VerificationResult struct {
	Valid            bool
	EntriesChecked   int64
	FirstBadSequence *int64
	Reason           string
	ExpectedHash     string
	StoredHash       string
}

// IntegrityService verifies ledger chains and keeps a history of the runs.
type IntegrityService interface {
	Verify(ctx context.Context, portfolioID string) (*VerificationResult, error)
	CheckIntegrity(ctx context.Context, portfolioID string) (*dto.IntegrityResponse, error)
	ListChecks(ctx context.Context, portfolioID string, limit int) ([]dto.IntegrityResponse, error)
}

// NewIntegrityService creates a new integrity service.
func NewIntegrityService(store repository.Store, auditService AuditService, logger *logger.Logger) IntegrityService {
	return &integrityService{
		store:        store,
		auditService: auditService,
		logger:       logger,
	}
}

type integrityService struct {
	store        repository.Store
	auditService AuditService
	logger       *logger.Logger
}

// errChainBroken stops the walk at the first bad entry.
var errChainBroken = errors.New("chain broken")

// Verify replays the chain from GENESIS. For every entry the stored previous
// hash must equal the running hash and the stored current hash must equal the
// recomputed one.
func (s *integrityService) Verify(ctx context.Context, portfolioID string) (*VerificationResult, error) {
	ctx, span := tracing.StartSpan(ctx, "IntegrityService.Verify", attribute.String("portfolio_id", portfolioID))
	defer span.End()

	portfolio, err := s.store.Portfolios().FindByID(ctx, portfolioID)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to find portfolio: %w", err)
	}
	if portfolio == nil {
		return nil, fmt.Errorf("%w: %s", ErrPortfolioNotFound, portfolioID)
	}

	result := &VerificationResult{Valid: true}
	expectedPrevious := hashchain.Genesis

	fail := func(entry *entity.LedgerEntry, reason, expected, stored string) error {
		result.Valid = false
		result.FirstBadSequence = utils.ToPointer(entry.Sequence)
		result.Reason = reason
		result.ExpectedHash = expected
		result.StoredHash = stored
		return errChainBroken
	}

	err = s.auditService.Walk(ctx, portfolio.ID, func(entry *entity.LedgerEntry) error {
		result.EntriesChecked++

		if entry.Sequence != result.EntriesChecked {
			return fail(entry, fmt.Sprintf("sequence gap: expected %d", result.EntriesChecked), "", "")
		}
		if _, err := entity.ParseLedgerAction(string(entry.Action)); err != nil {
			return fail(entry, err.Error(), "", "")
		}
		if entry.PreviousHash != expectedPrevious {
			return fail(entry, "previous hash does not link to prior entry", expectedPrevious, entry.PreviousHash)
		}

		link := hashchain.Link{
			PortfolioID: portfolio.ID,
			Action:      string(entry.Action),
			Ticker:      entry.Ticker,
			Quantity:    entry.Quantity,
			Price:       entry.PriceAtAction,
		}
		recomputed, err := link.Hash(expectedPrevious)
		if err != nil {
			return err
		}
		if recomputed != entry.CurrentHash {
			return fail(entry, "current hash does not match entry contents", recomputed, entry.CurrentHash)
		}

		expectedPrevious = entry.CurrentHash
		return nil
	})
	if err != nil && !errors.Is(err, errChainBroken) {
		tracing.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("valid", result.Valid),
		attribute.Int64("entries_checked", result.EntriesChecked),
	)
	if !result.Valid {
		s.logger.Warn("Ledger chain corrupted",
			logger.StringField("portfolio_id", portfolioID),
			logger.Int64Field("sequence", *result.FirstBadSequence),
			logger.StringField("reason", result.Reason),
		)
	}
	return result, nil
}

// CheckIntegrity verifies the chain and records the run.
func (s *integrityService) CheckIntegrity(ctx context.Context, portfolioID string) (*dto.IntegrityResponse, error) {
	result, err := s.Verify(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	check := &entity.IntegrityCheck{
		PortfolioID:    portfolioID,
		Status:         entity.IntegrityStatusOK,
		EntriesChecked: result.EntriesChecked,
		VerifiedAt:     utils.TimeNowUTC(),
	}
	if !result.Valid {
		check.Status = entity.IntegrityStatusFailed
		check.FirstBadSequence = sql.NullInt64{Int64: *result.FirstBadSequence, Valid: true}
		details, err := json.Marshal(map[string]string{
			"reason":        result.Reason,
			"expected_hash": result.ExpectedHash,
			"stored_hash":   result.StoredHash,
		})
		if err != nil {
			return nil, err
		}
		check.Details = datatypes.JSON(details)
	}

	if err := s.store.IntegrityChecks().Create(ctx, check); err != nil {
		s.logger.Error("Failed to record integrity check", logger.ErrorField(err), logger.StringField("portfolio_id", portfolioID))
		return nil, fmt.Errorf("failed to record integrity check: %w", err)
	}

	s.logger.Info("Integrity check completed",
		logger.StringField("portfolio_id", portfolioID),
		logger.StringField("status", string(check.Status)),
		logger.Int64Field("entries_checked", check.EntriesChecked),
	)
	return mapToIntegrityResponse(check, result.Reason), nil
}

// ListChecks returns the most recent verification runs, newest first.
func (s *integrityService) ListChecks(ctx context.Context, portfolioID string, limit int) ([]dto.IntegrityResponse, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidArgument)
	}
	checks, err := s.store.IntegrityChecks().FindRecent(ctx, portfolioID, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.IntegrityResponse, 0, len(checks))
	for i := range checks {
		var details struct {
			Reason string `json:"reason"`
		}
		if len(checks[i].Details) > 0 {
			_ = json.Unmarshal(checks[i].Details, &details)
		}
		responses = append(responses, *mapToIntegrityResponse(&checks[i], details.Reason))
	}
	return responses, nil
}

func mapToIntegrityResponse(check *entity.IntegrityCheck, reason string) *dto.IntegrityResponse {
	resp := &dto.IntegrityResponse{
		Status:         string(check.Status),
		VerifiedAt:     check.VerifiedAt,
		EntriesChecked: check.EntriesChecked,
		Reason:         reason,
	}
	if check.FirstBadSequence.Valid {
		resp.FirstBadSequence = utils.ToPointer(check.FirstBadSequence.Int64)
	}
	return resp
}
