package service

import (
	"context"
	"fmt"
	"time"

	"golang-portfolio-ledger/internal/entity"
	"golang-portfolio-ledger/pkg/logger"
	"golang-portfolio-ledger/pkg/telegram"

	"github.com/robfig/cron/v3"
)

const integrityRunTimeout = 5 * time.Minute

// IntegrityMonitor periodically verifies a portfolio ledger and alerts on failure.
type IntegrityMonitor interface {
	Start(ctx context.Context) error
	Stop()
	RunOnce(ctx context.Context)
}

// NewIntegrityMonitor creates a monitor for the given cron schedule
// (standard five fields or descriptors such as "@every 1h").
func NewIntegrityMonitor(integrityService IntegrityService, notifier telegram.Notifier, logger *logger.Logger, portfolioID, schedule string) IntegrityMonitor {
	return &integrityMonitor{
		integrityService: integrityService,
		notifier:         notifier,
		logger:           logger,
		portfolioID:      portfolioID,
		schedule:         schedule,
		cronParser:       cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

type integrityMonitor struct {
	integrityService IntegrityService
	notifier         telegram.Notifier
	logger           *logger.Logger
	portfolioID      string
	schedule         string
	cronParser       cron.Parser
	cron             *cron.Cron
}

// Start registers the job and starts the scheduler. The monitor stops when ctx is done.
func (m *integrityMonitor) Start(ctx context.Context) error {
	sched, err := m.cronParser.Parse(m.schedule)
	if err != nil {
		return fmt.Errorf("invalid integrity schedule %q: %w", m.schedule, err)
	}

	m.cron = cron.New(cron.WithParser(m.cronParser))
	m.cron.Schedule(sched, cron.FuncJob(func() { m.RunOnce(ctx) }))
	m.cron.Start()

	m.logger.Info("Integrity monitor started",
		logger.StringField("schedule", m.schedule),
		logger.StringField("portfolio_id", m.portfolioID),
		logger.Field("next_run", sched.Next(time.Now())),
	)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()
	return nil
}

// Stop halts the scheduler and waits for a running check to finish.
func (m *integrityMonitor) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	m.logger.Info("Integrity monitor stopped")
}

// RunOnce performs a single check and sends an alert when the chain is broken.
func (m *integrityMonitor) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, integrityRunTimeout)
	defer cancel()

	result, err := m.integrityService.CheckIntegrity(ctx, m.portfolioID)
	if err != nil {
		m.logger.Error("Scheduled integrity check failed", logger.ErrorField(err), logger.StringField("portfolio_id", m.portfolioID))
		return
	}
	if result.Status == string(entity.IntegrityStatusOK) {
		return
	}

	msg := telegram.FormatIntegrityAlert(telegram.IntegrityAlert{
		PortfolioID:      m.portfolioID,
		EntriesChecked:   result.EntriesChecked,
		FirstBadSequence: result.FirstBadSequence,
		Reason:           result.Reason,
		VerifiedAt:       result.VerifiedAt,
	})
	if err := m.notifier.SendMessage(msg); err != nil {
		m.logger.Error("Failed to send integrity alert", logger.ErrorField(err), logger.StringField("portfolio_id", m.portfolioID))
	}
}
