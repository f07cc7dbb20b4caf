// Package types defines the core data structures shared by the pricegraph
// engine: token and user identifiers, order elements, and market views.
package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenID identifies a fungible asset listed on the exchange.
type TokenID uint16

// FeeToken is the token the exchange collects fees in. Token prices are
// quoted in terms of this token.
const FeeToken TokenID = 0

// UserID identifies a trading account by its 20-byte address.
type UserID = common.Address

// BatchID identifies one auction round. All orders are matched and settled
// once per batch.
type BatchID uint32

// TokenPair is a directed token pair from the perspective of an order: the
// order buys Buy and sells Sell.
type TokenPair struct {
	Buy  TokenID `json:"buy"`
	Sell TokenID `json:"sell"`
}

// Inverse returns the pair with buy and sell sides swapped.
func (p TokenPair) Inverse() TokenPair {
	return TokenPair{Buy: p.Sell, Sell: p.Buy}
}

func (p TokenPair) String() string {
	return fmt.Sprintf("%d/%d", p.Buy, p.Sell)
}

// Market pairs two tokens in the conventional price direction: prices are
// quoted in Quote per Base.
type Market struct {
	Base  TokenID `json:"base"`
	Quote TokenID `json:"quote"`
}

// Ask is the pair of orders selling the base token for the quote token.
func (m Market) Ask() TokenPair {
	return TokenPair{Buy: m.Quote, Sell: m.Base}
}

// Bid is the pair of orders buying the base token with the quote token.
func (m Market) Bid() TokenPair {
	return TokenPair{Buy: m.Base, Sell: m.Quote}
}

func (m Market) String() string {
	return fmt.Sprintf("%d-%d", m.Base, m.Quote)
}

// Validity is the inclusive batch range an order may trade in.
type Validity struct {
	From BatchID `json:"from"`
	To   BatchID `json:"to"`
}

// Contains reports whether the order is valid in the given batch.
func (v Validity) Contains(batch BatchID) bool {
	return v.From <= batch && batch <= v.To
}

// PriceFraction is an order's limit price as an exact unsigned 128-bit
// fraction: Numerator is the buy amount demanded for selling Denominator.
type PriceFraction struct {
	Numerator   *big.Int `json:"numerator"`
	Denominator *big.Int `json:"denominator"`
}

// IsDegenerate reports whether either side of the fraction is zero or
// missing. Degenerate prices carry no exchange rate and are dropped during
// orderbook construction.
func (p PriceFraction) IsDegenerate() bool {
	return p.Numerator == nil || p.Denominator == nil ||
		p.Numerator.Sign() == 0 || p.Denominator.Sign() == 0
}

// Value returns the limit price as a float, buy amount per sell amount.
func (p PriceFraction) Value() float64 {
	if p.IsDegenerate() {
		return 0
	}
	num, _ := new(big.Float).SetInt(p.Numerator).Float64()
	den, _ := new(big.Float).SetInt(p.Denominator).Float64()
	return num / den
}

// Element is one order record from a batch snapshot. Elements are
// constructed once per batch from the binary encoding and never mutated.
//
// Well-formed input satisfies Remaining <= Price.Denominator; the engine
// treats violations as a caller contract, not a decode error.
type Element struct {
	User      UserID        `json:"user"`
	Balance   *big.Int      `json:"balance"` // sell token balance, unsigned 256-bit
	Pair      TokenPair     `json:"pair"`
	Valid     Validity      `json:"valid"`
	Price     PriceFraction `json:"price"`
	Remaining *big.Int      `json:"remaining"` // remaining sell amount, unsigned 128-bit
}

// RemainingSellAmount returns the remaining sell amount as a float.
func (e Element) RemainingSellAmount() float64 {
	if e.Remaining == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(e.Remaining).Float64()
	return f
}

// BalanceAmount returns the user's sell token balance as a float.
func (e Element) BalanceAmount() float64 {
	if e.Balance == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(e.Balance).Float64()
	return f
}
