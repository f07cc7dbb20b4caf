package orderbook

import (
	"fmt"

	"github.com/dexmesh/pricegraph/pkg/bellmanford"
	"github.com/dexmesh/pricegraph/pkg/types"
)

// TransitiveOrders iterates the transitive orders for a pair from best rate
// to worst. Each step finds the cheapest path from the pair's sell token to
// its buy token, yields its flow, and fills it, so the next step sees the
// book with that liquidity consumed. The iteration is finite, the sequence
// of rates is non-decreasing, and the iterator is not restartable.
type TransitiveOrders struct {
	book *Orderbook
	pair types.TokenPair
	hops int
	next Flow
	ok   bool
}

// TransitiveOrders starts an iteration over the pair's transitive orders,
// bounded to at most hops edges per path (hops <= 0 means unbounded). The
// receiver's underlying orderbook is consumed by the iteration; clone first
// if it is needed afterwards.
//
// Panics if a profitable ring trade is reachable from the pair's sell
// token: querying an unreduced book is a caller error.
func (r *ReducedOrderbook) TransitiveOrders(pair types.TokenPair, hops int) *TransitiveOrders {
	it := &TransitiveOrders{book: r.Orderbook, pair: pair, hops: hops}
	it.advance()
	return it
}

// Next returns the current best flow and advances, or false once the pair's
// liquidity is exhausted.
func (it *TransitiveOrders) Next() (Flow, bool) {
	if !it.ok {
		return Flow{}, false
	}
	flow := it.next
	it.advance()
	return flow, true
}

func (it *TransitiveOrders) advance() {
	it.ok = false
	if !it.book.IsTokenPairValid(it.pair) {
		return
	}

	source := it.book.tokenIdx[it.pair.Sell]
	paths := bellmanford.SearchWithin(it.book, source, it.hops)
	if _, cyclic := paths.MarkCycle(); cyclic {
		panic(fmt.Sprintf("orderbook: transitive order query for %v over a book with profitable ring trades", it.pair))
	}

	path, ok := paths.PathTo(it.book.tokenIdx[it.pair.Buy])
	if !ok {
		return
	}
	flow, ok := it.book.flowForPath(path)
	if !ok {
		return
	}
	it.book.fillPathFlow(path, flow)
	it.next, it.ok = flow, true
}

// SignificantTransitiveOrders is TransitiveOrders with dust flows skipped:
// flows whose buy or sell side falls below the minimum amount are filled
// but not yielded.
type SignificantTransitiveOrders struct {
	inner *TransitiveOrders
}

func (r *ReducedOrderbook) SignificantTransitiveOrders(pair types.TokenPair, hops int) *SignificantTransitiveOrders {
	return &SignificantTransitiveOrders{inner: r.TransitiveOrders(pair, hops)}
}

func (it *SignificantTransitiveOrders) Next() (Flow, bool) {
	params := it.inner.book.params
	for {
		flow, ok := it.inner.Next()
		if !ok {
			return Flow{}, false
		}
		if !flow.IsDust(params.MinAmount, params.FeeFactor) {
			return flow, true
		}
	}
}
