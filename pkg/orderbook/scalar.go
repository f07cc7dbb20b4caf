package orderbook

import (
	"fmt"
	"math"

	"github.com/dexmesh/pricegraph/pkg/types"
)

// LimitPrice is an order's limit exchange rate: the number of buy tokens
// demanded per sell token offered, before fees. Always strictly positive
// and finite.
type LimitPrice float64

// ExchangeRate is a fee-adjusted rate, either of a single order or the
// product along a transitive path. Always strictly positive and finite.
type ExchangeRate float64

func limitPriceFromFraction(f types.PriceFraction) LimitPrice {
	return LimitPrice(checkScalar("limit price", f.Value()))
}

// ExchangeRate applies the protocol fee once to the limit price.
func (p LimitPrice) ExchangeRate(feeFactor float64) ExchangeRate {
	return ExchangeRate(checkScalar("exchange rate", float64(p)*feeFactor))
}

// Weight is the edge weight used by the shortest-path engine. Rates below
// one map to negative weights, so a profitable ring trade is exactly a
// negative cycle.
func (r ExchangeRate) Weight() float64 {
	return math.Log(float64(r))
}

func (r ExchangeRate) mul(other ExchangeRate) ExchangeRate {
	return ExchangeRate(checkScalar("exchange rate", float64(r)*float64(other)))
}

func checkScalar(what string, v float64) float64 {
	if !(v > 0) || math.IsInf(v, 1) {
		panic(fmt.Sprintf("orderbook: %s %v is not strictly positive and finite", what, v))
	}
	return v
}
