package orderbook

import "github.com/dexmesh/pricegraph/pkg/types"

// user tracks the sell token balances backing a user's orders. Balances are
// shared: filling one order drains the budget of every other order the user
// has on the same sell token.
type user struct {
	balances map[types.TokenID]float64
}

func newUser() *user {
	return &user{balances: make(map[types.TokenID]float64)}
}

func (u *user) balance(token types.TokenID) float64 {
	return u.balances[token]
}

func (u *user) setBalance(token types.TokenID, amount float64) {
	u.balances[token] = amount
}

// deduct subtracts amount from the token balance, deleting the entry when
// the residue is float noise so drained balances never linger.
func (u *user) deduct(token types.TokenID, amount float64) {
	if u.balances[token]-amount <= amount*roundingEps {
		delete(u.balances, token)
		return
	}
	u.balances[token] -= amount
}

func (u *user) credit(token types.TokenID, amount float64) {
	u.balances[token] += amount
}

func (u *user) clone() *user {
	c := newUser()
	for token, amount := range u.balances {
		c.balances[token] = amount
	}
	return c
}
