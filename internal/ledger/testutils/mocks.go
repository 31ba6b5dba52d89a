package testutils

import (
	"context"
	"sync"

	"golang-portfolio-ledger/internal/entity"

	"github.com/shopspring/decimal"
)

// MockPriceRepository serves prices from a map.
type MockPriceRepository struct {
	mu     sync.Mutex
	Prices map[string]decimal.Decimal
	Err    error
}

// NewMockPriceRepository creates an empty price source.
func NewMockPriceRepository() *MockPriceRepository {
	return &MockPriceRepository{Prices: make(map[string]decimal.Decimal)}
}

// Set records the latest price of ticker.
func (m *MockPriceRepository) Set(ticker string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prices[ticker] = price
}

func (m *MockPriceRepository) GetLatestPrice(_ context.Context, ticker string) (decimal.Decimal, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return decimal.Zero, false, m.Err
	}
	p, ok := m.Prices[ticker]
	return p, ok, nil
}

// MockLedgerEventRepository records published entries.
type MockLedgerEventRepository struct {
	mu      sync.Mutex
	Entries []entity.LedgerEntry
	Err     error
}

func (m *MockLedgerEventRepository) PublishEntryAppended(_ context.Context, entry *entity.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Entries = append(m.Entries, *entry)
	return nil
}

// Published returns a copy of the recorded entries.
func (m *MockLedgerEventRepository) Published() []entity.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.LedgerEntry(nil), m.Entries...)
}

// MockNotifier records sent messages.
type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
}

func (m *MockNotifier) SendMessage(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, text)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockNotifier) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Messages...)
}
