package orderbook

import "github.com/dexmesh/pricegraph/pkg/types"

// Flow is the limiting volume along a transitive path at its compound rate.
type Flow struct {
	Pair types.TokenPair
	// Rate is the product of the fee-adjusted exchange rates along the
	// path.
	Rate ExchangeRate
	// Capacity is the maximum tradeable volume, expressed in Pair.Buy.
	Capacity float64
}

// IsDust reports whether either side of the flow trades below the minimum
// amount worth executing.
func (f Flow) IsDust(minAmount, feeFactor float64) bool {
	return f.Capacity/feeFactor < minAmount || f.Capacity/float64(f.Rate) < minAmount
}

// AsTransitiveOrder projects the flow onto the synthetic order a taker
// would see: the fee is paid once on the buy side, the compound rate on the
// sell side.
func (f Flow) AsTransitiveOrder(feeFactor float64) TransitiveOrder {
	return TransitiveOrder{
		Pair: f.Pair,
		Buy:  f.Capacity / feeFactor,
		Sell: f.Capacity / float64(f.Rate),
	}
}

// TransitiveOrder is a synthetic order summarizing a chain of real orders
// as a single buy/sell amount pair.
type TransitiveOrder struct {
	Pair types.TokenPair
	Buy  float64
	Sell float64
}

// LimitPrice is the synthetic order's effective rate, buy per sell.
func (t TransitiveOrder) LimitPrice() float64 {
	return t.Buy / t.Sell
}
