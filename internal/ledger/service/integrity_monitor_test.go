package service_test

import (
	"context"
	"testing"

	"golang-portfolio-ledger/internal/ledger/service"
	"golang-portfolio-ledger/internal/ledger/testutils"
	"golang-portfolio-ledger/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrityMonitor_RunOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.seed(t)

	notifier := &testutils.MockNotifier{}
	monitor := service.NewIntegrityMonitor(f.integrity, notifier, logger.NewNop(), f.portfolioID, "@every 1h")

	monitor.RunOnce(ctx)
	assert.Empty(t, notifier.Sent())

	f.corrupt(t, 4, "ticker", "TSLA")
	monitor.RunOnce(ctx)

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], f.portfolioID)
	assert.Contains(t, sent[0], "#4")

	history, err := f.integrity.ListChecks(ctx, f.portfolioID, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestIntegrityMonitor_UnknownPortfolioDoesNotAlert(t *testing.T) {
	f := setup(t)

	notifier := &testutils.MockNotifier{}
	monitor := service.NewIntegrityMonitor(f.integrity, notifier, logger.NewNop(), "missing", "@every 1h")

	monitor.RunOnce(context.Background())
	assert.Empty(t, notifier.Sent())
}

func TestIntegrityMonitor_Start(t *testing.T) {
	f := setup(t)
	notifier := &testutils.MockNotifier{}

	bad := service.NewIntegrityMonitor(f.integrity, notifier, logger.NewNop(), f.portfolioID, "every now and then")
	assert.Error(t, bad.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := service.NewIntegrityMonitor(f.integrity, notifier, logger.NewNop(), f.portfolioID, "@every 1h")
	require.NoError(t, monitor.Start(ctx))
	monitor.Stop()
}
