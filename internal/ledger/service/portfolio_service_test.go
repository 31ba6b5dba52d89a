package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang-portfolio-ledger/internal/entity"
	"golang-portfolio-ledger/internal/ledger/repository"
	"golang-portfolio-ledger/internal/ledger/service"
	"golang-portfolio-ledger/internal/ledger/testutils"
	"golang-portfolio-ledger/pkg/hashchain"
	"golang-portfolio-ledger/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	store       repository.Store
	prices      *testutils.MockPriceRepository
	events      *testutils.MockLedgerEventRepository
	audit       service.AuditService
	portfolios  service.PortfolioService
	integrity   service.IntegrityService
	portfolioID string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutils.NewSQLiteDB(t)
	store := repository.NewStore(db)
	log := logger.NewNop()

	f := &fixture{
		db:     db,
		store:  store,
		prices: testutils.NewMockPriceRepository(),
		events: &testutils.MockLedgerEventRepository{},
	}
	f.audit = service.NewAuditService(store, log)
	f.portfolios = service.NewPortfolioService(store, f.audit, f.prices, f.events, log)
	f.integrity = service.NewIntegrityService(store, f.audit, log)

	p, err := f.portfolios.Bootstrap(context.Background(), "default")
	require.NoError(t, err)
	f.portfolioID = p.ID
	return f
}

func (f *fixture) chain(t *testing.T) []entity.LedgerEntry {
	t.Helper()
	var entries []entity.LedgerEntry
	err := f.audit.Walk(context.Background(), f.portfolioID, func(e *entity.LedgerEntry) error {
		entries = append(entries, *e)
		return nil
	})
	require.NoError(t, err)
	return entries
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBootstrap_Idempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.portfolios.Bootstrap(ctx, "default")
			if assert.NoError(t, err) {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, f.portfolioID, id)
	}

	var count int64
	require.NoError(t, f.db.Model(&entity.Portfolio{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err := f.portfolios.Bootstrap(ctx, "  ")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}

func TestAddHolding_WeightedAverageCost(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.portfolios.AddHolding(ctx, f.portfolioID, "aapl", 10, dec("100"))
	require.NoError(t, err)
	resp, err := f.portfolios.AddHolding(ctx, f.portfolioID, "AAPL", 10, dec("200"))
	require.NoError(t, err)

	assert.EqualValues(t, 20, resp.Position.Quantity)
	assert.True(t, resp.Position.AverageCost.Equal(dec("150")), "got %s", resp.Position.AverageCost)

	pos, err := f.portfolios.GetPosition(ctx, f.portfolioID, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.EqualValues(t, 20, pos.Quantity)
	assert.True(t, pos.AverageCost.Equal(dec("150")))

	// The ledger records the delta and the incoming price, not the blended cost.
	entries := f.chain(t)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.LedgerActionAdd, entries[1].Action)
	assert.EqualValues(t, 10, entries[1].Quantity)
	assert.True(t, entries[1].PriceAtAction.Equal(dec("200")))
}

func TestAddHolding_UnevenBlend(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.portfolios.AddHolding(ctx, f.portfolioID, "MSFT", 3, dec("100"))
	require.NoError(t, err)
	resp, err := f.portfolios.AddHolding(ctx, f.portfolioID, "MSFT", 6, dec("200"))
	require.NoError(t, err)

	assert.True(t, resp.Position.AverageCost.Equal(dec("166.66666667")), "got %s", resp.Position.AverageCost)
}

func TestAddHolding_InvalidArguments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		ticker string
		qty    int64
		price  decimal.Decimal
	}{
		{"zero quantity", "AAPL", 0, dec("1")},
		{"negative quantity", "AAPL", -1, dec("1")},
		{"zero price", "AAPL", 1, decimal.Zero},
		{"negative price", "AAPL", 1, dec("-5")},
		{"price rounds to zero", "AAPL", 1, dec("0.000000001")},
		{"empty ticker", "  ", 1, dec("1")},
		{"long ticker", "ABCDEFGHIJK", 1, dec("1")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.portfolios.AddHolding(ctx, f.portfolioID, tc.ticker, tc.qty, tc.price)
			assert.ErrorIs(t, err, service.ErrInvalidArgument)
		})
	}

	assert.Empty(t, f.chain(t))
	assert.Empty(t, f.events.Published())
}

func TestAddHolding_UnknownPortfolio(t *testing.T) {
	f := setup(t)

	_, err := f.portfolios.AddHolding(context.Background(), "missing", "AAPL", 1, dec("1"))
	assert.ErrorIs(t, err, service.ErrPortfolioNotFound)
}

func TestRemoveHolding_ToZeroDeletesPosition(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.portfolios.AddHolding(ctx, f.portfolioID, "TSLA", 5, dec("250"))
	require.NoError(t, err)

	resp, err := f.portfolios.RemoveHolding(ctx, f.portfolioID, "TSLA", 5)
	require.NoError(t, err)
	assert.True(t, resp.Position.Closed)
	assert.EqualValues(t, 0, resp.Position.Quantity)

	pos, err := f.portfolios.GetPosition(ctx, f.portfolioID, "TSLA")
	require.NoError(t, err)
	assert.Nil(t, pos)

	entries := f.chain(t)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.LedgerActionRemove, entries[1].Action)
	assert.EqualValues(t, 5, entries[1].Quantity)
	assert.True(t, entries[1].PriceAtAction.Equal(dec("250")))
}

func TestRemoveHolding_PartialKeepsAverageCost(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.portfolios.AddHolding(ctx, f.portfolioID, "NVDA", 10, dec("100"))
	require.NoError(t, err)
	_, err = f.portfolios.AddHolding(ctx, f.portfolioID, "NVDA", 10, dec("200"))
	require.NoError(t, err)

	resp, err := f.portfolios.RemoveHolding(ctx, f.portfolioID, "nvda", 4)
	require.NoError(t, err)
	assert.EqualValues(t, 16, resp.Position.Quantity)
	assert.True(t, resp.Position.AverageCost.Equal(dec("150")))
	assert.True(t, resp.LedgerEntry.PriceAtAction.Equal(dec("150")))

	pos, err := f.portfolios.GetPosition(ctx, f.portfolioID, "NVDA")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.EqualValues(t, 16, pos.Quantity)
}

func TestRemoveHolding_InsufficientQuantityChangesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.portfolios.AddHolding(ctx, f.portfolioID, "AMZN", 3, dec("120"))
	require.NoError(t, err)

	_, err = f.portfolios.RemoveHolding(ctx, f.portfolioID, "AMZN", 4)
	assert.ErrorIs(t, err, service.ErrInsufficientQuantity)

	pos, err := f.portfolios.GetPosition(ctx, f.portfolioID, "AMZN")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.EqualValues(t, 3, pos.Quantity)
	assert.Len(t, f.chain(t), 1)
	assert.Len(t, f.events.Published(), 1)
}

func TestRemoveHolding_Errors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.portfolios.RemoveHolding(ctx, f.portfolioID, "GOOG", 1)
	assert.ErrorIs(t, err, service.ErrPositionNotFound)

	_, err = f.portfolios.RemoveHolding(ctx, f.portfolioID, "GOOG", 0)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	assert.Empty(t, f.chain(t))
}

func TestLedger_ChainLinks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.portfolios.AddHolding(ctx, f.portfolioID, "AAPL", 10, dec("100"))
	require.NoError(t, err)
	_, err = f.portfolios.AddHolding(ctx, f.portfolioID, "MSFT", 5, dec("300"))
	require.NoError(t, err)
	_, err = f.portfolios.RemoveHolding(ctx, f.portfolioID, "AAPL", 3)
	require.NoError(t, err)

	entries := f.chain(t)
	require.Len(t, entries, 3)
	assert.Equal(t, hashchain.Genesis, entries[0].PreviousHash)
	for i, e := range entries {
		assert.EqualValues(t, i+1, e.Sequence)
		if i > 0 {
			assert.Equal(t, entries[i-1].CurrentHash, e.PreviousHash)
		}
		want, err := hashchain.Link{
			PortfolioID: f.portfolioID,
			Action:      string(e.Action),
			Ticker:      e.Ticker,
			Quantity:    e.Quantity,
			Price:       e.PriceAtAction,
		}.Hash(e.PreviousHash)
		require.NoError(t, err)
		assert.Equal(t, want, e.CurrentHash)
	}

	published := f.events.Published()
	require.Len(t, published, 3)
	for i := range published {
		assert.Equal(t, entries[i].CurrentHash, published[i].CurrentHash)
	}
}

func TestMutation_PublishFailureKeepsCommit(t *testing.T) {
	f := setup(t)
	f.events.Err = errors.New("redis down")

	_, err := f.portfolios.AddHolding(context.Background(), f.portfolioID, "AAPL", 1, dec("10"))
	require.NoError(t, err)
	assert.Len(t, f.chain(t), 1)
}

func TestAddHolding_ConcurrentAppendsNeverFork(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	const workers = 20

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticker := "AAPL"
			if i%2 == 1 {
				ticker = "MSFT"
			}
			_, err := f.portfolios.AddHolding(ctx, f.portfolioID, ticker, 1, decimal.NewFromInt(int64(100+i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries := f.chain(t)
	require.Len(t, entries, workers)

	previous := make(map[string]bool)
	for _, e := range entries {
		assert.False(t, previous[e.PreviousHash], "previous hash %s used twice", e.PreviousHash)
		previous[e.PreviousHash] = true
	}

	result, err := f.integrity.Verify(ctx, f.portfolioID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.EqualValues(t, workers, result.EntriesChecked)

	aapl, err := f.portfolios.GetPosition(ctx, f.portfolioID, "AAPL")
	require.NoError(t, err)
	msft, err := f.portfolios.GetPosition(ctx, f.portfolioID, "MSFT")
	require.NoError(t, err)
	assert.EqualValues(t, workers, aapl.Quantity+msft.Quantity)
}

func TestGetHoldingsAndSummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.portfolios.AddHolding(ctx, f.portfolioID, "AAPL", 10, dec("100"))
	require.NoError(t, err)
	_, err = f.portfolios.AddHolding(ctx, f.portfolioID, "MSFT", 10, dec("50"))
	require.NoError(t, err)
	f.prices.Set("AAPL", dec("150"))

	holdings, err := f.portfolios.GetHoldings(ctx, f.portfolioID)
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	aapl := holdings[0]
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.True(t, aapl.PriceAvailable)
	assert.True(t, aapl.Value.Equal(dec("1500")))
	assert.True(t, aapl.ProfitLoss.Equal(dec("500")))
	assert.True(t, aapl.ProfitLossPercent.Equal(dec("50")))
	assert.True(t, aapl.Allocation.Equal(dec("75")))

	msft := holdings[1]
	assert.False(t, msft.PriceAvailable)
	assert.True(t, msft.CurrentPrice.Equal(dec("50")), "falls back to average cost")
	assert.True(t, msft.Allocation.Equal(dec("25")))

	summary, err := f.portfolios.GetSummary(ctx, f.portfolioID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Holdings)
	assert.True(t, summary.TotalValue.Equal(dec("2000")))
	assert.True(t, summary.TotalInvested.Equal(dec("1500")))
	assert.True(t, summary.TotalGain.Equal(dec("500")))
	assert.True(t, summary.TotalGainPercent.Equal(dec("33.33")))
	assert.Equal(t, "AAPL", summary.TopHolding)
	assert.EqualValues(t, 2, summary.LedgerEntries)

	_, err = f.portfolios.GetHolding(ctx, f.portfolioID, "GOOG")
	assert.ErrorIs(t, err, service.ErrPositionNotFound)
	h, err := f.portfolios.GetHolding(ctx, f.portfolioID, "msft")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", h.Ticker)
}

func TestGetHoldings_PriceErrorFallsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.portfolios.AddHolding(ctx, f.portfolioID, "AAPL", 2, dec("10"))
	require.NoError(t, err)
	f.prices.Err = errors.New("timeout")

	holdings, err := f.portfolios.GetHoldings(ctx, f.portfolioID)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.False(t, holdings[0].PriceAvailable)
	assert.True(t, holdings[0].Value.Equal(dec("20")))
}

func TestGetSummary_Empty(t *testing.T) {
	f := setup(t)

	summary, err := f.portfolios.GetSummary(context.Background(), f.portfolioID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Holdings)
	assert.True(t, summary.TotalValue.IsZero())
	assert.Equal(t, "N/A", summary.TopHolding)

	_, err = f.portfolios.GetSummary(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrPortfolioNotFound)
}
