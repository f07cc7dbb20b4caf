package pricegraph

import (
	"github.com/dexmesh/pricegraph/pkg/orderbook"
	"github.com/dexmesh/pricegraph/pkg/types"
)

// EstimateLimitPrice returns the effective price, in buy token per sell
// token and including fees, obtainable for selling sellAmount into the
// pair's liquidity. When the book cannot absorb the full amount the price
// of the deepest available liquidity is returned; false means no liquidity
// exists at all.
func (pg *Pricegraph) EstimateLimitPrice(pair types.TokenPair, sellAmount float64) (float64, bool) {
	it := pg.clonedReduced().SignificantTransitiveOrders(pair.Inverse(), pg.hops)

	price, absorbed, any := 0.0, 0.0, false
	for {
		flow, ok := it.Next()
		if !ok {
			break
		}
		counter := flow.AsTransitiveOrder(pg.params.FeeFactor)
		any = true
		price = 1 / counter.LimitPrice()
		absorbed += counter.Buy
		if absorbed >= sellAmount {
			break
		}
	}
	if !any {
		return 0, false
	}
	return price, true
}

// OrderForLimitPrice returns the largest aggregate order for the pair
// fillable at an effective price at least as good as limitPrice, or false
// when even the best liquidity is worse.
func (pg *Pricegraph) OrderForLimitPrice(pair types.TokenPair, limitPrice float64) (orderbook.TransitiveOrder, bool) {
	it := pg.clonedReduced().SignificantTransitiveOrders(pair.Inverse(), pg.hops)

	total := orderbook.TransitiveOrder{Pair: pair}
	any := false
	for {
		flow, ok := it.Next()
		if !ok {
			break
		}
		counter := flow.AsTransitiveOrder(pg.params.FeeFactor)
		if 1/counter.LimitPrice() < limitPrice {
			break
		}
		// The counterparty's sell side is what this order buys.
		total.Buy += counter.Sell
		total.Sell += counter.Buy
		any = true
	}
	if !any {
		return orderbook.TransitiveOrder{}, false
	}
	return total, true
}

// TokenPriceSpread estimates the token's price range in terms of the fee
// token. Ring trades through both tokens each imply a price at the moment
// they are filled; the remaining arbitrage-free book contributes the price
// of its best transitive order in each direction. The fee token itself is
// (1, 1) by definition.
func (pg *Pricegraph) TokenPriceSpread(token types.TokenID) (min, max float64, ok bool) {
	if token == types.FeeToken {
		return 1, 1, true
	}
	if !pg.raw.HasToken(token) || !pg.raw.HasToken(types.FeeToken) {
		return 0, 0, false
	}

	var prices []float64
	reduced := pg.raw.Clone().Reduce(func(ring orderbook.RingTrade) {
		if bid, ask, ok := ringImpliedPrices(ring, token, pg.params.FeeFactor); ok {
			prices = append(prices, bid, ask)
		}
	})

	if p, ok := bestFlowRate(reduced, types.TokenPair{Buy: token, Sell: types.FeeToken}, pg.hops); ok {
		// Buying the token with fee tokens at compound rate r costs
		// FeeFactor/r fee tokens each.
		prices = append(prices, pg.params.FeeFactor/p)
	}
	if p, ok := bestFlowRate(reduced, types.TokenPair{Buy: types.FeeToken, Sell: token}, pg.hops); ok {
		// Selling the token for fee tokens yields r/FeeFactor each.
		prices = append(prices, p/pg.params.FeeFactor)
	}

	if len(prices) == 0 {
		return 0, 0, false
	}
	min, max = prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max, true
}

// bestFlowRate returns the compound rate of the pair's best significant
// transitive order. The book is cloned since iteration consumes it.
func bestFlowRate(reduced *orderbook.ReducedOrderbook, pair types.TokenPair, hops int) (float64, bool) {
	clone := &orderbook.ReducedOrderbook{Orderbook: reduced.Clone()}
	flow, ok := clone.SignificantTransitiveOrders(pair, hops).Next()
	if !ok {
		return 0, false
	}
	return float64(flow.Rate), true
}

// ringImpliedPrices splits a ring passing through both the token and the
// fee token into its two sub-chains and converts each into a price of the
// token in fee tokens.
func ringImpliedPrices(ring orderbook.RingTrade, token types.TokenID, feeFactor float64) (bid, ask float64, ok bool) {
	posToken, posFee := -1, -1
	for i, t := range ring.Path[:len(ring.Path)-1] {
		switch t {
		case token:
			posToken = i
		case types.FeeToken:
			posFee = i
		}
	}
	if posToken < 0 || posFee < 0 {
		return 0, 0, false
	}
	feeToToken := ringRate(ring.Rates, posFee, posToken)
	tokenToFee := ringRate(ring.Rates, posToken, posFee)
	return feeFactor / feeToToken, tokenToFee / feeFactor, true
}

// ringRate is the compound rate of the ring's hops from one position to
// another, walking in edge direction and wrapping around.
func ringRate(rates []orderbook.ExchangeRate, from, to int) float64 {
	rate := 1.0
	for i := from; i != to; i = (i + 1) % len(rates) {
		rate *= float64(rates[i])
	}
	return rate
}

// PricePoint is one level of a depth curve: a price in quote tokens per
// base token and the cumulative base volume available at that price or
// better.
type PricePoint struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// TransitiveOrderbook is the market depth visible in a batch: ask levels
// ascending and bid levels descending, each carrying the cumulative base
// volume available at its price or better.
type TransitiveOrderbook struct {
	Market types.Market `json:"market"`
	Asks   []PricePoint `json:"asks"`
	Bids   []PricePoint `json:"bids"`
}

// TransitiveOrderbook drains the significant transitive orders on both
// sides of the market into a depth curve. hops bounds the path length per
// level (zero or negative falls back to the construction-time bound);
// spread, when above one, cuts each side off at spread times its best
// price.
func (pg *Pricegraph) TransitiveOrderbook(market types.Market, hops int, spread float64) *TransitiveOrderbook {
	if hops <= 0 {
		hops = pg.hops
	}
	tob := &TransitiveOrderbook{Market: market}

	asks := pg.clonedReduced().SignificantTransitiveOrders(market.Ask(), hops)
	askVolume := 0.0
	for {
		flow, ok := asks.Next()
		if !ok {
			break
		}
		order := flow.AsTransitiveOrder(pg.params.FeeFactor)
		price := order.Buy / order.Sell
		if spread > 1 && len(tob.Asks) > 0 && price > tob.Asks[0].Price*spread {
			break
		}
		askVolume += order.Sell
		tob.Asks = append(tob.Asks, PricePoint{Price: price, Volume: askVolume})
	}

	bids := pg.clonedReduced().SignificantTransitiveOrders(market.Bid(), hops)
	bidVolume := 0.0
	for {
		flow, ok := bids.Next()
		if !ok {
			break
		}
		order := flow.AsTransitiveOrder(pg.params.FeeFactor)
		price := order.Sell / order.Buy
		if spread > 1 && len(tob.Bids) > 0 && price < tob.Bids[0].Price/spread {
			break
		}
		bidVolume += order.Buy
		tob.Bids = append(tob.Bids, PricePoint{Price: price, Volume: bidVolume})
	}
	return tob
}
