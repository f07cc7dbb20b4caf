// Package orderbook models a batch's open orders and user balances as a
// weighted token graph and implements the operations the price API is built
// from: arbitrage detection, ring-trade reduction, and transitive order
// iteration.
//
// The orderbook is single-threaded by construction. It has no locks and no
// interior mutability; callers that need parallel or repeated queries work
// on clones.
package orderbook

import (
	"fmt"
	"iter"
	"math"
	"sort"

	"github.com/dexmesh/pricegraph/pkg/bellmanford"
	"github.com/dexmesh/pricegraph/pkg/types"
)

// Params are the policy constants of the engine.
type Params struct {
	// FeeFactor is the multiplicative protocol fee applied once per hop.
	FeeFactor float64
	// MinAmount is the volume below which an order or flow is dust.
	MinAmount float64
}

// DefaultParams matches the protocol's on-chain settings: a 0.1% fee and a
// 10,000 atom minimum trade.
func DefaultParams() Params {
	return Params{
		FeeFactor: 1.0 / 0.999,
		MinAmount: 10_000,
	}
}

// Orderbook holds the open orders of one batch, indexed by token pair, and
// the sell token balances of their owners. Tokens double as graph nodes
// through a dense index.
type Orderbook struct {
	params   Params
	tokens   []types.TokenID
	tokenIdx map[types.TokenID]int
	// pairs is kept sorted so edge iteration order is deterministic.
	pairs  []types.TokenPair
	orders map[types.TokenPair][]Order
	users  map[types.UserID]*user
}

// FromElements builds the orderbook for a batch. Every referenced token
// becomes a graph node; elements outside their validity window, with a
// degenerate price fraction, with equal buy and sell tokens, or with no
// residual capacity contribute no order.
func FromElements(elements iter.Seq[types.Element], batch types.BatchID, params Params) *Orderbook {
	o := &Orderbook{
		params: params,
		orders: make(map[types.TokenPair][]Order),
		users:  make(map[types.UserID]*user),
	}

	seen := make(map[types.TokenID]bool)
	for el := range elements {
		for _, t := range []types.TokenID{el.Pair.Buy, el.Pair.Sell} {
			if !seen[t] {
				seen[t] = true
				o.tokens = append(o.tokens, t)
			}
		}
		if !el.Valid.Contains(batch) || el.Price.IsDegenerate() || el.Pair.Buy == el.Pair.Sell {
			continue
		}
		remaining := el.RemainingSellAmount()
		balance := el.BalanceAmount()
		if math.Min(remaining, balance) <= 0 {
			continue
		}

		u, ok := o.users[el.User]
		if !ok {
			u = newUser()
			o.users[el.User] = u
		}
		u.setBalance(el.Pair.Sell, balance)

		o.orders[el.Pair] = append(o.orders[el.Pair], Order{
			User:      el.User,
			Price:     limitPriceFromFraction(el.Price),
			Remaining: remaining,
		})
	}

	o.index()
	return o
}

// index derives the dense token index and the deterministic pair order, and
// sorts each pair's queue best price first.
func (o *Orderbook) index() {
	o.pairs = o.pairs[:0]
	for pair, queue := range o.orders {
		o.pairs = append(o.pairs, pair)
		sort.SliceStable(queue, func(i, j int) bool {
			return queue[i].Price < queue[j].Price
		})
	}

	sort.Slice(o.tokens, func(i, j int) bool { return o.tokens[i] < o.tokens[j] })
	sort.Slice(o.pairs, func(i, j int) bool {
		if o.pairs[i].Sell != o.pairs[j].Sell {
			return o.pairs[i].Sell < o.pairs[j].Sell
		}
		return o.pairs[i].Buy < o.pairs[j].Buy
	})

	o.tokenIdx = make(map[types.TokenID]int, len(o.tokens))
	for i, t := range o.tokens {
		o.tokenIdx[t] = i
	}
}

// Clone returns an independent deep copy.
func (o *Orderbook) Clone() *Orderbook {
	c := &Orderbook{
		params:   o.params,
		tokens:   append([]types.TokenID(nil), o.tokens...),
		tokenIdx: make(map[types.TokenID]int, len(o.tokenIdx)),
		pairs:    append([]types.TokenPair(nil), o.pairs...),
		orders:   make(map[types.TokenPair][]Order, len(o.orders)),
		users:    make(map[types.UserID]*user, len(o.users)),
	}
	for t, i := range o.tokenIdx {
		c.tokenIdx[t] = i
	}
	for pair, queue := range o.orders {
		c.orders[pair] = append([]Order(nil), queue...)
	}
	for id, u := range o.users {
		c.users[id] = u.clone()
	}
	return c
}

// Params returns the policy constants the orderbook was built with.
func (o *Orderbook) Params() Params { return o.params }

// Tokens returns the tokens referenced by any element, ascending.
func (o *Orderbook) Tokens() []types.TokenID {
	return append([]types.TokenID(nil), o.tokens...)
}

// HasToken reports whether the token is a node of the graph.
func (o *Orderbook) HasToken(token types.TokenID) bool {
	_, ok := o.tokenIdx[token]
	return ok
}

// IsTokenPairValid reports whether both tokens of the pair are nodes of the
// graph. A pair of one token against itself is valid but carries no
// transitive orders.
func (o *Orderbook) IsTokenPairValid(pair types.TokenPair) bool {
	return o.HasToken(pair.Buy) && o.HasToken(pair.Sell)
}

// OrderCount returns the number of live orders, for reporting.
func (o *Orderbook) OrderCount() int {
	n := 0
	for _, queue := range o.orders {
		n += len(queue)
	}
	return n
}

// UserCount returns the number of users with at least one order.
func (o *Orderbook) UserCount() int { return len(o.users) }

// NodeCount implements bellmanford.Graph.
func (o *Orderbook) NodeCount() int { return len(o.tokens) }

// ForEachEdge implements bellmanford.Graph. Each token pair projects to one
// directed edge from its sell token to its buy token, weighted by the log
// rate of its best live order. Dust orders encountered at the front of a
// queue are pruned as a side effect.
func (o *Orderbook) ForEachEdge(fn func(from, to int, weight float64)) {
	for _, pair := range o.pairs {
		order, ok := o.bestOrder(pair)
		if !ok {
			continue
		}
		rate := order.Price.ExchangeRate(o.params.FeeFactor)
		fn(o.tokenIdx[pair.Sell], o.tokenIdx[pair.Buy], rate.Weight())
	}
}

// orderCapacity is the volume the order can actually trade: its remaining
// sell amount capped by its owner's sell token balance.
func (o *Orderbook) orderCapacity(order *Order, sellToken types.TokenID) float64 {
	u, ok := o.users[order.User]
	if !ok {
		return 0
	}
	return math.Min(order.Remaining, u.balance(sellToken))
}

// bestOrder returns the cheapest live order on the pair, popping exhausted
// and dust orders off the front of the queue.
func (o *Orderbook) bestOrder(pair types.TokenPair) (*Order, bool) {
	queue := o.orders[pair]
	for len(queue) > 0 {
		order := &queue[0]
		if o.orderCapacity(order, pair.Sell) > o.params.MinAmount {
			o.orders[pair] = queue
			return order, true
		}
		queue = queue[1:]
	}
	delete(o.orders, pair)
	return nil, false
}

// flowForPath computes the limiting flow along a node path, using the best
// order on every hop. Capacity is accumulated in the terminal (buy) token:
// walking the path backwards, a hop's capacity counts at the rate it still
// compounds through.
func (o *Orderbook) flowForPath(path []int) (Flow, bool) {
	if len(path) < 2 {
		return Flow{}, false
	}
	rate := ExchangeRate(1)
	capacity := math.Inf(1)
	for i := len(path) - 1; i > 0; i-- {
		pair := types.TokenPair{Buy: o.tokens[path[i]], Sell: o.tokens[path[i-1]]}
		order, ok := o.bestOrder(pair)
		if !ok {
			return Flow{}, false
		}
		rate = rate.mul(order.Price.ExchangeRate(o.params.FeeFactor))
		capacity = math.Min(capacity, o.orderCapacity(order, pair.Sell)*float64(rate))
	}
	return Flow{
		Pair:     types.TokenPair{Buy: o.tokens[path[len(path)-1]], Sell: o.tokens[path[0]]},
		Rate:     rate,
		Capacity: capacity,
	}, true
}

// fillPathFlow executes the flow against every hop of the path: each hop's
// best order and its owner's sell balance are reduced by the hop's share of
// the flow, and the owner is credited the bought amount at the order's
// limit price. The fee margin between limit price and exchange rate is the
// surplus the protocol withholds.
func (o *Orderbook) fillPathFlow(path []int, flow Flow) []ExchangeRate {
	suffix := make([]float64, len(path))
	suffix[len(path)-1] = 1
	rates := make([]ExchangeRate, len(path)-1)
	for i := len(path) - 1; i > 0; i-- {
		pair := types.TokenPair{Buy: o.tokens[path[i]], Sell: o.tokens[path[i-1]]}
		order, ok := o.bestOrder(pair)
		if !ok {
			panic(fmt.Sprintf("orderbook: no live order on hop %v while filling flow", pair))
		}
		rates[i-1] = order.Price.ExchangeRate(o.params.FeeFactor)
		suffix[i-1] = suffix[i] * float64(rates[i-1])
	}

	isCycle := path[0] == path[len(path)-1]
	for i := 0; i < len(path)-1; i++ {
		pair := types.TokenPair{Buy: o.tokens[path[i+1]], Sell: o.tokens[path[i]]}
		order, ok := o.bestOrder(pair)
		if !ok {
			panic(fmt.Sprintf("orderbook: no live order on hop %v while filling flow", pair))
		}
		fill := flow.Capacity / suffix[i]
		// Every transferred amount is shaved once by the fee. Internal hops
		// credit exactly the limit price; the hop closing a ring also
		// receives the ring's surplus, keeping token volumes conserved.
		credit := fill * float64(order.Price)
		if isCycle && i == len(path)-2 {
			credit = flow.Capacity / suffix[0] / o.params.FeeFactor
		}
		u := o.users[order.User]
		u.deduct(pair.Sell, fill)
		u.credit(pair.Buy, credit)
		order.fill(fill)
	}
	return rates
}

// IsOverlapping reports whether any component of the token graph contains a
// negative cycle, i.e. a set of orders executable as a profitable ring
// trade.
func (o *Orderbook) IsOverlapping() bool {
	overlapping := false
	bellmanford.Subgraphs(o.NodeCount(), func(root int) bellmanford.Paths {
		return bellmanford.Search(o, root)
	}, func(root int, paths bellmanford.Paths) bool {
		if _, ok := paths.MarkCycle(); ok {
			overlapping = true
			return false
		}
		return true
	})
	return overlapping
}
