package service

import "errors"

var (
	// ErrInvalidArgument reports a non-positive quantity or price, or a missing field.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPositionNotFound reports a removal against a ticker that is not held.
	ErrPositionNotFound = errors.New("position not found")
	// ErrInsufficientQuantity reports a removal larger than the held quantity.
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	// ErrPortfolioNotFound reports an operation against a portfolio that does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")
)
