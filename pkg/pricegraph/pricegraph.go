// Package pricegraph exposes the read-oriented price API over a batch's
// orderbook: price estimation, order sizing, token price spreads, and
// market depth. Queries never mutate the externally visible graph; each one
// works on an internal disposable clone.
package pricegraph

import (
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	"github.com/dexmesh/pricegraph/pkg/encoding"
	"github.com/dexmesh/pricegraph/pkg/orderbook"
	"github.com/dexmesh/pricegraph/pkg/types"
)

// Option configures a Pricegraph at construction.
type Option func(*Pricegraph)

// WithParams overrides the default policy parameters.
func WithParams(params orderbook.Params) Option {
	return func(pg *Pricegraph) { pg.params = params }
}

// WithHops bounds every path search to at most hops edges. Zero or negative
// means unbounded.
func WithHops(hops int) Option {
	return func(pg *Pricegraph) { pg.hops = hops }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(pg *Pricegraph) { pg.log = log }
}

// Pricegraph answers price queries for one batch. It keeps the raw
// orderbook as built from the snapshot and an arbitrage-free reduction of
// it; queries choose whichever state they need and clone it.
type Pricegraph struct {
	batch   types.BatchID
	params  orderbook.Params
	hops    int
	log     zerolog.Logger
	raw     *orderbook.Orderbook
	reduced *orderbook.ReducedOrderbook
}

// New builds the pricegraph for a batch from decoded elements.
func New(batch types.BatchID, elements iter.Seq[types.Element], opts ...Option) *Pricegraph {
	pg := &Pricegraph{
		batch:  batch,
		params: orderbook.DefaultParams(),
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(pg)
	}

	pg.raw = orderbook.FromElements(elements, batch, pg.params)

	rings := 0
	pg.reduced = pg.raw.Clone().Reduce(func(orderbook.RingTrade) { rings++ })

	pg.log.Debug().
		Uint32("batch", uint32(batch)).
		Int("tokens", len(pg.raw.Tokens())).
		Int("orders", pg.raw.OrderCount()).
		Int("users", pg.raw.UserCount()).
		Int("ring_trades", rings).
		Msg("pricegraph built")
	return pg
}

// FromBytes builds the pricegraph from an encoded snapshot.
func FromBytes(batch types.BatchID, data []byte, opts ...Option) (*Pricegraph, error) {
	elements, _, err := encoding.DecodeElements(data)
	if err != nil {
		return nil, fmt.Errorf("decoding batch %d snapshot: %w", batch, err)
	}
	return New(batch, elements, opts...), nil
}

// Batch returns the batch the pricegraph was built for.
func (pg *Pricegraph) Batch() types.BatchID { return pg.batch }

// Tokens returns the tokens known to the batch, ascending.
func (pg *Pricegraph) Tokens() []types.TokenID { return pg.raw.Tokens() }

// clonedReduced returns a disposable copy of the reduced orderbook.
func (pg *Pricegraph) clonedReduced() *orderbook.ReducedOrderbook {
	return &orderbook.ReducedOrderbook{Orderbook: pg.reduced.Clone()}
}
