package common

const (
	RedisStreamLedgerEntryAppended = "portfolio.ledger.appended"

	RedisKeyLastPrice = "last_price:%s"

	DefaultPortfolioName = "default"
)
