// Package hashchain computes the digests that link ledger entries together.
//
// Every entry hash covers the entry's own fields plus the hash of the entry
// before it, so editing any recorded entry breaks every hash after it.
package hashchain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Genesis is the previous hash of the first entry of every chain.
const Genesis = "GENESIS"

// PriceScale is the number of decimal places prices are rendered with when hashed.
const PriceScale = 8

const separator = "|"

// ErrNilInput is returned when Digest is called without input.
var ErrNilInput = errors.New("hashchain: nil input")

// Digest returns the lowercase hex SHA-256 of input. A nil slice is rejected;
// an empty non-nil slice is hashed like any other value.
func Digest(input []byte) (string, error) {
	if input == nil {
		return "", ErrNilInput
	}
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:]), nil
}

// Link holds the ledger fields covered by an entry hash.
type Link struct {
	PortfolioID string
	Action      string
	Ticker      string
	Quantity    int64
	Price       decimal.Decimal
}

// Canonical renders the link and previousHash in their fixed hashing order:
// portfolioId|action|ticker|quantity|price|previousHash.
func (l Link) Canonical(previousHash string) []byte {
	var b strings.Builder
	b.WriteString(l.PortfolioID)
	b.WriteString(separator)
	b.WriteString(l.Action)
	b.WriteString(separator)
	b.WriteString(l.Ticker)
	b.WriteString(separator)
	b.WriteString(strconv.FormatInt(l.Quantity, 10))
	b.WriteString(separator)
	b.WriteString(l.Price.StringFixed(PriceScale))
	b.WriteString(separator)
	b.WriteString(previousHash)
	return []byte(b.String())
}

// Hash digests the canonical form of the link chained to previousHash.
func (l Link) Hash(previousHash string) (string, error) {
	return Digest(l.Canonical(previousHash))
}
