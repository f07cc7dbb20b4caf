package orderbook

import (
	"math"
	"math/big"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dexmesh/pricegraph/pkg/types"
)

// testParams uses a unit fee factor so expected volumes stay exact, and a
// minimal dust threshold so small test amounts survive.
var testParams = Params{FeeFactor: 1, MinAmount: 1}

func testElement(user byte, buy, sell types.TokenID, num, den, remaining, balance int64) types.Element {
	var uid types.UserID
	uid[19] = user
	return types.Element{
		User:    uid,
		Balance: big.NewInt(balance),
		Pair:    types.TokenPair{Buy: buy, Sell: sell},
		Valid:   types.Validity{From: 0, To: math.MaxUint32},
		Price: types.PriceFraction{
			Numerator:   big.NewInt(num),
			Denominator: big.NewInt(den),
		},
		Remaining: big.NewInt(remaining),
	}
}

func bookOf(t *testing.T, batch types.BatchID, elements ...types.Element) *Orderbook {
	t.Helper()
	return FromElements(slices.Values(elements), batch, testParams)
}

// ringBook builds three orders where the 1 -> 2 -> 1 ring is profitable:
// the compound rate 0.5 * 1.25 = 0.625 is below one.
func ringBook(t *testing.T) *Orderbook {
	return bookOf(t, 1,
		testElement(0xC, 1, 0, 10, 1, 100_000, 100_000),
		testElement(0xA, 2, 1, 1, 2, 1_000_000, 1_000_000),
		testElement(0xB, 1, 2, 5, 4, 400_000, 400_000),
	)
}

func TestFromElements_Empty(t *testing.T) {
	book := bookOf(t, 1)
	require.Zero(t, book.NodeCount())
	require.Empty(t, book.Tokens())
	require.Zero(t, book.OrderCount())
	require.False(t, book.IsOverlapping())
}

func TestFromElements_AllZeroInput(t *testing.T) {
	book := FromElements(slices.Values(make([]types.Element, 3)), 0, testParams)
	require.Zero(t, book.OrderCount())
	require.Equal(t, []types.TokenID{0}, book.Tokens())
	require.False(t, book.IsOverlapping())
}

func TestFromElements_DropsUnusableElements(t *testing.T) {
	degenerate := testElement(1, 1, 0, 0, 1, 100, 100)
	expired := testElement(2, 1, 0, 1, 1, 100, 100)
	expired.Valid = types.Validity{From: 5, To: 9}
	selfTrade := testElement(3, 1, 1, 1, 1, 100, 100)
	noRemaining := testElement(4, 1, 0, 1, 1, 0, 100)
	noBalance := testElement(5, 1, 0, 1, 1, 100, 0)
	live := testElement(6, 2, 0, 1, 1, 100, 100)

	book := bookOf(t, 1, degenerate, expired, selfTrade, noRemaining, noBalance, live)
	require.Equal(t, 1, book.OrderCount())
	// Dropped elements still register their tokens as nodes.
	require.Equal(t, []types.TokenID{0, 1, 2}, book.Tokens())
	require.True(t, book.HasToken(1))
	require.True(t, book.IsTokenPairValid(types.TokenPair{Buy: 2, Sell: 0}))
	require.True(t, book.IsTokenPairValid(types.TokenPair{Buy: 1, Sell: 1}))
	require.False(t, book.IsTokenPairValid(types.TokenPair{Buy: 7, Sell: 0}))
}

func TestOrderbook_IsOverlapping(t *testing.T) {
	require.True(t, ringBook(t).IsOverlapping())

	chain := bookOf(t, 1,
		testElement(1, 1, 0, 2, 1, 100_000, 100_000),
		testElement(2, 2, 1, 2, 1, 100_000, 100_000),
	)
	require.False(t, chain.IsOverlapping())
}

func TestReduce_FillsRingAndReports(t *testing.T) {
	book := ringBook(t)

	var rings []RingTrade
	reduced := book.Reduce(func(ring RingTrade) { rings = append(rings, ring) })
	require.False(t, reduced.IsOverlapping())

	require.Len(t, rings, 1)
	ring := rings[0]
	require.Len(t, ring.Path, 3)
	require.Equal(t, ring.Path[0], ring.Path[2])
	require.ElementsMatch(t, []types.TokenID{1, 2}, ring.Path[:2])
	require.InDelta(t, 0.625, float64(ring.Flow.Rate), 1e-12)
	require.Len(t, ring.Rates, 2)
	require.InDelta(t, 0.625, float64(ring.Rates[0])*float64(ring.Rates[1]), 1e-12)
}

func TestReduce_ConservesTokenVolumes(t *testing.T) {
	book := ringBook(t)

	totals := func() map[types.TokenID]float64 {
		sums := make(map[types.TokenID]float64)
		for _, u := range book.users {
			for token, amount := range u.balances {
				sums[token] += amount
			}
		}
		return sums
	}
	before := totals()

	book.Reduce(nil)

	// With a unit fee factor a ring fill moves volume between users without
	// creating or destroying any.
	after := totals()
	for token, sum := range before {
		require.InDelta(t, sum, after[token], 1e-6, "token %d", token)
	}
}

func TestReducedOrderbook_TransitiveOrders(t *testing.T) {
	reduced := ringBook(t).Reduce(nil)

	// The ring fill exhausts the 2 -> 1 order entirely.
	it := reduced.Clone().wrapReduced().TransitiveOrders(types.TokenPair{Buy: 1, Sell: 2}, 0)
	_, ok := it.Next()
	require.False(t, ok)

	// The surviving 1 -> 2 order has 500,000 left, capped equally by its
	// owner's remaining balance.
	it = reduced.Clone().wrapReduced().TransitiveOrders(types.TokenPair{Buy: 2, Sell: 1}, 0)
	flow, ok := it.Next()
	require.True(t, ok)
	require.InDelta(t, 0.5, float64(flow.Rate), 1e-12)
	require.InDelta(t, 250_000, flow.Capacity, 1e-6)

	order := flow.AsTransitiveOrder(testParams.FeeFactor)
	require.InDelta(t, 250_000, order.Buy, 1e-6)
	require.InDelta(t, 500_000, order.Sell, 1e-6)
	require.InDelta(t, 0.5, order.LimitPrice(), 1e-12)

	_, ok = it.Next()
	require.False(t, ok)
}

func TestReducedOrderbook_TransitiveOrdersMultiHop(t *testing.T) {
	reduced := ringBook(t).Reduce(nil)

	// 0 -> 1 -> 2 composes the rates 10 and 0.5.
	it := reduced.Clone().wrapReduced().TransitiveOrders(types.TokenPair{Buy: 2, Sell: 0}, 0)
	flow, ok := it.Next()
	require.True(t, ok)
	require.InDelta(t, 5.0, float64(flow.Rate), 1e-12)
	require.InDelta(t, 250_000, flow.Capacity, 1e-6)

	order := flow.AsTransitiveOrder(testParams.FeeFactor)
	require.InDelta(t, 50_000, order.Sell, 1e-6)
}

func TestTransitiveOrders_HopBound(t *testing.T) {
	reduced := bookOf(t, 1,
		testElement(1, 1, 0, 2, 1, 100_000, 100_000),
		testElement(2, 2, 1, 2, 1, 100_000, 100_000),
	).Reduce(nil)

	pair := types.TokenPair{Buy: 2, Sell: 0}
	_, ok := reduced.Clone().wrapReduced().TransitiveOrders(pair, 1).Next()
	require.False(t, ok, "a two hop path must be invisible within one hop")

	_, ok = reduced.Clone().wrapReduced().TransitiveOrders(pair, 2).Next()
	require.True(t, ok)
}

func TestTransitiveOrders_SharedBalance(t *testing.T) {
	// Two orders of the same user on the same sell token compete for one
	// balance of 150,000.
	reduced := bookOf(t, 1,
		testElement(7, 1, 0, 1, 1, 100_000, 150_000),
		testElement(7, 1, 0, 1, 1, 100_000, 150_000),
	).Reduce(nil)

	it := reduced.TransitiveOrders(types.TokenPair{Buy: 1, Sell: 0}, 0)
	first, ok := it.Next()
	require.True(t, ok)
	require.InDelta(t, 100_000, first.Capacity, 1e-6)

	second, ok := it.Next()
	require.True(t, ok)
	require.InDelta(t, 50_000, second.Capacity, 1e-6)

	_, ok = it.Next()
	require.False(t, ok)
}

func TestTransitiveOrders_SameTokenPair(t *testing.T) {
	reduced := bookOf(t, 1, testElement(1, 1, 0, 1, 1, 100_000, 100_000)).Reduce(nil)

	pair := types.TokenPair{Buy: 0, Sell: 0}
	require.True(t, reduced.IsTokenPairValid(pair))
	_, ok := reduced.TransitiveOrders(pair, 0).Next()
	require.False(t, ok, "a token trades against itself through no path")
}

func TestTransitiveOrders_PanicsOnUnreducedBook(t *testing.T) {
	book := ringBook(t)
	require.Panics(t, func() {
		book.wrapReduced().TransitiveOrders(types.TokenPair{Buy: 2, Sell: 1}, 0)
	})
}

func TestSignificantTransitiveOrders_SkipsDust(t *testing.T) {
	book := bookOf(t, 1,
		testElement(1, 1, 0, 1, 1, 5, 5),
		testElement(2, 1, 0, 2, 1, 100_000, 100_000),
	)
	book.params.MinAmount = 0 // admit the tiny order
	reduced := book.Reduce(nil)
	reduced.params.MinAmount = 1_000 // but filter its flow as dust

	it := reduced.SignificantTransitiveOrders(types.TokenPair{Buy: 1, Sell: 0}, 0)
	flow, ok := it.Next()
	require.True(t, ok)
	require.InDelta(t, 100_000, flow.Capacity/float64(flow.Rate), 1e-6)

	_, ok = it.Next()
	require.False(t, ok)
}

func TestClone_Independent(t *testing.T) {
	book := ringBook(t)
	clone := book.Clone()

	book.Reduce(nil)
	require.False(t, book.IsOverlapping())
	require.True(t, clone.IsOverlapping(), "reducing the original must not touch the clone")
}

func TestReduce_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		book := drawOrderbook(t)
		book.Reduce(nil)
		if book.IsOverlapping() {
			t.Fatalf("orderbook still overlapping after reduction")
		}
	})
}

func TestTransitiveOrders_MonotonicRatesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reduced := drawOrderbook(t).Reduce(nil)
		pair := types.TokenPair{
			Buy:  types.TokenID(rapid.Uint16Range(0, 4).Draw(t, "buy")),
			Sell: types.TokenID(rapid.Uint16Range(0, 4).Draw(t, "sell")),
		}

		it := reduced.TransitiveOrders(pair, 0)
		prev := 0.0
		for {
			flow, ok := it.Next()
			if !ok {
				break
			}
			if float64(flow.Rate) < prev {
				t.Fatalf("rate %v follows better rate %v", flow.Rate, prev)
			}
			prev = float64(flow.Rate)
		}
	})
}

func drawOrderbook(t *rapid.T) *Orderbook {
	n := rapid.IntRange(0, 12).Draw(t, "orders")
	elements := make([]types.Element, n)
	for i := range elements {
		buy := rapid.Int64Range(0, 4).Draw(t, "buy")
		sell := rapid.Int64Range(0, 4).Draw(t, "sell")
		elements[i] = testElement(
			byte(rapid.IntRange(1, 4).Draw(t, "user")),
			types.TokenID(buy), types.TokenID(sell),
			rapid.Int64Range(1, 1_000_000).Draw(t, "num"),
			rapid.Int64Range(1, 1_000_000).Draw(t, "den"),
			rapid.Int64Range(10_000, 1_000_000_000).Draw(t, "remaining"),
			rapid.Int64Range(10_000, 1_000_000_000).Draw(t, "balance"),
		)
	}
	return FromElements(slices.Values(elements), 1, testParams)
}

// wrapReduced asserts in tests that a book is treated as reduced without
// re-running the reduction.
func (o *Orderbook) wrapReduced() *ReducedOrderbook {
	return &ReducedOrderbook{o}
}
