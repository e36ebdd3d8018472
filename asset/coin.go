// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import "math/big"

// Coin an amount of a single native denom, attached to a call as funds.
type Coin struct {
	Denom  string   `json:"denom"`
	Amount *big.Int `json:"amount"`
}

// NewCoin creates a coin.
func NewCoin(denom string, amount *big.Int) Coin {
	return Coin{Denom: denom, Amount: amount}
}

// Coins the set of native funds attached to a call.
type Coins []Coin

// AmountOf returns the attached amount of the given denom, zero when absent.
func (cs Coins) AmountOf(denom string) *big.Int {
	for _, c := range cs {
		if c.Denom == denom {
			return new(big.Int).Set(c.Amount)
		}
	}
	return new(big.Int)
}

// Has returns whether any amount of the given denom is attached.
func (cs Coins) Has(denom string) bool {
	for _, c := range cs {
		if c.Denom == denom {
			return true
		}
	}
	return false
}

// Deduct returns a copy of the coin set with amount of the given denom
// removed. The caller must ensure the denom holds at least amount.
func (cs Coins) Deduct(denom string, amount *big.Int) Coins {
	out := make(Coins, 0, len(cs))
	for _, c := range cs {
		if c.Denom == denom {
			rest := new(big.Int).Sub(c.Amount, amount)
			out = append(out, Coin{Denom: c.Denom, Amount: rest})
		} else {
			out = append(out, Coin{Denom: c.Denom, Amount: new(big.Int).Set(c.Amount)})
		}
	}
	return out
}
