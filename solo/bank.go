// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
)

// bank tracks native coin and token balances of the solo chain.
// Not safe for concurrent use; the host serializes access.
type bank struct {
	native map[string]map[auto.Address]*big.Int
	tokens map[auto.Address]map[auto.Address]*big.Int
}

func newBank() *bank {
	return &bank{
		native: make(map[string]map[auto.Address]*big.Int),
		tokens: make(map[auto.Address]map[auto.Address]*big.Int),
	}
}

func ledgerBalance(ledger map[auto.Address]*big.Int, addr auto.Address) *big.Int {
	if v, ok := ledger[addr]; ok {
		return v
	}
	return new(big.Int)
}

func ledgerMove(ledger map[auto.Address]*big.Int, from, to auto.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative amount")
	}
	balance := ledgerBalance(ledger, from)
	if balance.Cmp(amount) < 0 {
		return errors.Errorf("insufficient balance of %v", from)
	}
	ledger[from] = new(big.Int).Sub(balance, amount)
	ledger[to] = new(big.Int).Add(ledgerBalance(ledger, to), amount)
	return nil
}

// clone copies the bank so a settlement can run tentatively and be
// discarded on failure. Balances are replaced, never mutated in place,
// so copying the ledger maps is enough.
func (b *bank) clone() *bank {
	c := newBank()
	for denom, ledger := range b.native {
		copied := make(map[auto.Address]*big.Int, len(ledger))
		for addr, v := range ledger {
			copied[addr] = v
		}
		c.native[denom] = copied
	}
	for token, ledger := range b.tokens {
		copied := make(map[auto.Address]*big.Int, len(ledger))
		for addr, v := range ledger {
			copied[addr] = v
		}
		c.tokens[token] = copied
	}
	return c
}

func (b *bank) nativeLedger(denom string) map[auto.Address]*big.Int {
	ledger, ok := b.native[denom]
	if !ok {
		ledger = make(map[auto.Address]*big.Int)
		b.native[denom] = ledger
	}
	return ledger
}

func (b *bank) tokenLedger(token auto.Address) map[auto.Address]*big.Int {
	ledger, ok := b.tokens[token]
	if !ok {
		ledger = make(map[auto.Address]*big.Int)
		b.tokens[token] = ledger
	}
	return ledger
}

func (b *bank) mint(addr auto.Address, c asset.Coin) {
	ledger := b.nativeLedger(c.Denom)
	ledger[addr] = new(big.Int).Add(ledgerBalance(ledger, addr), c.Amount)
}

func (b *bank) mintToken(token, addr auto.Address, amount *big.Int) {
	ledger := b.tokenLedger(token)
	ledger[addr] = new(big.Int).Add(ledgerBalance(ledger, addr), amount)
}

func (b *bank) balanceOf(addr auto.Address, denom string) *big.Int {
	return new(big.Int).Set(ledgerBalance(b.nativeLedger(denom), addr))
}

func (b *bank) tokenBalanceOf(token, addr auto.Address) *big.Int {
	return new(big.Int).Set(ledgerBalance(b.tokenLedger(token), addr))
}

func (b *bank) send(from, to auto.Address, c asset.Coin) error {
	return ledgerMove(b.nativeLedger(c.Denom), from, to, c.Amount)
}

func (b *bank) sendToken(token, from, to auto.Address, amount *big.Int) error {
	return ledgerMove(b.tokenLedger(token), from, to, amount)
}
