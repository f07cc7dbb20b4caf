package orderbook

import "github.com/dexmesh/pricegraph/pkg/types"

// Order is one element's live trading state. Remaining shrinks as ring
// trades and transitive orders fill it; the effective capacity is further
// capped by the owner's sell token balance, which is shared across all of
// the owner's orders on that token.
type Order struct {
	User      types.UserID
	Price     LimitPrice
	Remaining float64
}

// fill reduces the remaining sell amount by amount. Residues within float
// rounding error of zero collapse to zero so that a fill sized exactly to
// the order's capacity reliably exhausts it.
func (o *Order) fill(amount float64) {
	if o.Remaining-amount <= amount*roundingEps {
		o.Remaining = 0
		return
	}
	o.Remaining -= amount
}

// roundingEps is the relative tolerance under which a post-fill residue is
// considered float noise rather than live volume.
const roundingEps = 1e-9
