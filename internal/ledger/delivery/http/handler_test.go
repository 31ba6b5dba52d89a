package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang-portfolio-ledger/internal/ledger/dto"
	"golang-portfolio-ledger/internal/ledger/repository"
	"golang-portfolio-ledger/internal/ledger/service"
	"golang-portfolio-ledger/internal/ledger/testutils"
	"golang-portfolio-ledger/pkg/logger"
	"golang-portfolio-ledger/pkg/ratelimit"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e      *echo.Echo
	prices *testutils.MockPriceRepository
}

func newTestServer(t *testing.T, mutationsPerMinute int) *testServer {
	t.Helper()
	log := logger.NewNop()
	store := repository.NewStore(testutils.NewSQLiteDB(t))
	prices := testutils.NewMockPriceRepository()

	audit := service.NewAuditService(store, log)
	portfolios := service.NewPortfolioService(store, audit, prices, repository.NewNopLedgerEventRepository(), log)
	integrity := service.NewIntegrityService(store, audit, log)

	p, err := portfolios.Bootstrap(context.Background(), "default")
	require.NoError(t, err)

	e := echo.New()
	g := e.Group("/api/v1/portfolio")
	NewHoldingHandler(portfolios, p.ID, ratelimit.NewRequestLimiter(mutationsPerMinute).Middleware(), log).RegisterRoutes(g)
	NewIntegrityHandler(integrity, p.ID, log).RegisterRoutes(g)
	NewLedgerHandler(audit, p.ID, 2, log).RegisterRoutes(g)

	return &testServer{e: e, prices: prices}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHoldingHandler_AddAndRemove(t *testing.T) {
	s := newTestServer(t, 0)

	rec := s.do(t, http.MethodPost, "/api/v1/portfolio/holdings", `{"ticker":"aapl","quantity":10,"price":"100"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[dto.MutationResponse](t, rec)
	assert.Equal(t, "AAPL", added.Position.Ticker)
	assert.EqualValues(t, 1, added.LedgerEntry.Sequence)
	assert.Equal(t, "GENESIS", added.LedgerEntry.PreviousHash)

	rec = s.do(t, http.MethodPost, "/api/v1/portfolio/holdings", `{"ticker":"AAPL","quantity":10,"price":200}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added = decode[dto.MutationResponse](t, rec)
	assert.True(t, added.Position.AverageCost.Equal(decimal.NewFromInt(150)))

	rec = s.do(t, http.MethodDelete, "/api/v1/portfolio/holdings/AAPL", `{"quantity":25}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/portfolio/holdings/AAPL", `{"quantity":20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	removed := decode[dto.MutationResponse](t, rec)
	assert.True(t, removed.Position.Closed)

	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/holdings/AAPL", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHoldingHandler_Errors(t *testing.T) {
	s := newTestServer(t, 0)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed body", http.MethodPost, "/api/v1/portfolio/holdings", `{"ticker":`, http.StatusBadRequest},
		{"zero quantity", http.MethodPost, "/api/v1/portfolio/holdings", `{"ticker":"AAPL","quantity":0,"price":1}`, http.StatusBadRequest},
		{"negative price", http.MethodPost, "/api/v1/portfolio/holdings", `{"ticker":"AAPL","quantity":1,"price":-1}`, http.StatusBadRequest},
		{"remove unknown", http.MethodDelete, "/api/v1/portfolio/holdings/GOOG", `{"quantity":1}`, http.StatusNotFound},
		{"remove nothing", http.MethodDelete, "/api/v1/portfolio/holdings/GOOG", `{"quantity":0}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestHoldingHandler_Valuation(t *testing.T) {
	s := newTestServer(t, 0)
	s.prices.Set("MSFT", decimal.NewFromInt(400))

	rec := s.do(t, http.MethodPost, "/api/v1/portfolio/holdings", `{"ticker":"MSFT","quantity":2,"price":300}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/holdings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	holdings := decode[[]dto.HoldingResponse](t, rec)
	require.Len(t, holdings, 1)
	assert.True(t, holdings[0].Value.Equal(decimal.NewFromInt(800)))

	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[dto.SummaryResponse](t, rec)
	assert.Equal(t, "MSFT", summary.TopHolding)
	assert.True(t, summary.TotalGain.Equal(decimal.NewFromInt(200)))
	assert.EqualValues(t, 1, summary.LedgerEntries)
}

func TestHoldingHandler_MutationsAreRateLimited(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/api/v1/portfolio/holdings", `{"ticker":"AAPL","quantity":1,"price":1}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := s.do(t, http.MethodPost, "/api/v1/portfolio/holdings", `{"ticker":"AAPL","quantity":1,"price":1}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/holdings", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIntegrityHandler(t *testing.T) {
	s := newTestServer(t, 0)

	rec := s.do(t, http.MethodPost, "/api/v1/portfolio/holdings", `{"ticker":"AAPL","quantity":1,"price":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/integrity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[dto.IntegrityResponse](t, rec)
	assert.Equal(t, "OK", result.Status)
	assert.EqualValues(t, 1, result.EntriesChecked)
	assert.NotContains(t, rec.Body.String(), "first_bad_sequence")

	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/integrity/history?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]dto.IntegrityResponse](t, rec)
	assert.Len(t, history, 1)

	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/integrity/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLedgerHandler_Paging(t *testing.T) {
	s := newTestServer(t, 0)

	for _, body := range []string{
		`{"ticker":"AAPL","quantity":1,"price":1}`,
		`{"ticker":"MSFT","quantity":1,"price":2}`,
		`{"ticker":"NVDA","quantity":1,"price":3}`,
	} {
		rec := s.do(t, http.MethodPost, "/api/v1/portfolio/holdings", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/portfolio/ledger", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[dto.LedgerPageResponse](t, rec)
	require.Len(t, page.Entries, 2)
	assert.True(t, page.HasMore)
	assert.EqualValues(t, 3, page.TotalEntries)

	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/ledger?after=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[dto.LedgerPageResponse](t, rec)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "NVDA", page.Entries[0].Ticker)
	assert.False(t, page.HasMore)

	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/ledger?after=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/portfolio/ledger?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
