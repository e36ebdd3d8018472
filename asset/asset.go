// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package asset models the two kinds of transferable value the registry deals
// with: native coins identified by denom, and token-contract balances
// identified by the contract address.
package asset

import (
	"math/big"

	"github.com/autonomy-network/autonomy-registry/auto"
)

// Info identifies an asset. Exactly one of Denom/Contract is set:
// a native coin denom, or the address of a token contract.
type Info struct {
	Denom    string        `json:"denom,omitempty"`
	Contract *auto.Address `json:"contract,omitempty" rlp:"nil"`
}

// NativeInfo creates the info of a native coin.
func NativeInfo(denom string) Info {
	return Info{Denom: denom}
}

// TokenInfo creates the info of a token-contract asset.
func TokenInfo(contract auto.Address) Info {
	addr := contract
	return Info{Contract: &addr}
}

// IsNative returns whether the asset is a native coin.
func (i Info) IsNative() bool {
	return i.Contract == nil
}

// Equal compares two asset infos.
func (i Info) Equal(other Info) bool {
	if i.IsNative() != other.IsNative() {
		return false
	}
	if i.IsNative() {
		return i.Denom == other.Denom
	}
	return *i.Contract == *other.Contract
}

// String implements the stringer interface.
func (i Info) String() string {
	if i.IsNative() {
		return i.Denom
	}
	return i.Contract.String()
}

// Asset an amount of a native coin or token.
type Asset struct {
	Info   Info     `json:"info"`
	Amount *big.Int `json:"amount"`
}

// Native creates an asset of a native coin.
func Native(denom string, amount *big.Int) *Asset {
	return &Asset{Info: NativeInfo(denom), Amount: amount}
}

// Token creates an asset of a token-contract balance.
func Token(contract auto.Address, amount *big.Int) *Asset {
	return &Asset{Info: TokenInfo(contract), Amount: amount}
}
