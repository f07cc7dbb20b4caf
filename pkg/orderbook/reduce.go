package orderbook

import (
	"github.com/dexmesh/pricegraph/pkg/bellmanford"
	"github.com/dexmesh/pricegraph/pkg/types"
)

// RingTrade is one filled arbitrage cycle, reported during reduction. Path
// lists the tokens along the ring with the first token repeated at the end;
// Rates carries the fee-adjusted rate of each hop.
type RingTrade struct {
	Path  []types.TokenID
	Rates []ExchangeRate
	Flow  Flow
}

// ReducedOrderbook is an orderbook with no remaining profitable ring
// trades. Transitive order queries are only defined on reduced books.
type ReducedOrderbook struct {
	*Orderbook
}

// Reduce fills profitable ring trades until none remain, mutating the
// receiver. Every fill exhausts at least one order or balance, so the
// process terminates. observe, if non-nil, is called once per filled ring.
func (o *Orderbook) Reduce(observe func(RingTrade)) *ReducedOrderbook {
	bellmanford.Subgraphs(o.NodeCount(), func(root int) bellmanford.Paths {
		return o.reduceComponent(root, observe)
	}, func(root int, paths bellmanford.Paths) bool {
		return true
	})
	return &ReducedOrderbook{o}
}

// reduceComponent drains the cycles reachable from root one at a time,
// re-running the search after each fill since a fill can reroute shortest
// paths anywhere in the component. Returns the final, cycle-free search.
func (o *Orderbook) reduceComponent(root int, observe func(RingTrade)) bellmanford.Paths {
	for {
		paths := bellmanford.Search(o, root)
		marked, ok := paths.MarkCycle()
		if !ok {
			return paths
		}
		cycle, ok := paths.FindCycle(marked)
		if !ok {
			panic("orderbook: marked node yielded no cycle")
		}
		flow, ok := o.flowForPath(cycle)
		if !ok {
			panic("orderbook: detected cycle has no flow")
		}
		rates := o.fillPathFlow(cycle, flow)
		if observe != nil {
			tokens := make([]types.TokenID, len(cycle))
			for i, node := range cycle {
				tokens[i] = o.tokens[node]
			}
			observe(RingTrade{Path: tokens, Rates: rates, Flow: flow})
		}
	}
}
