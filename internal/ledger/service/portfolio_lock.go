package service

import "sync"

// portfolioLocks hands out one mutex per portfolio id.
type portfolioLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPortfolioLocks() *portfolioLocks {
	return &portfolioLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the portfolio's mutex is held and returns its release function.
func (p *portfolioLocks) Lock(portfolioID string) func() {
	p.mu.Lock()
	l, ok := p.locks[portfolioID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[portfolioID] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
