// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package asset

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autonomy-network/autonomy-registry/auto"
)

func TestInfo(t *testing.T) {
	contract := auto.BytesToAddress([]byte("token"))
	other := auto.BytesToAddress([]byte("other"))

	native := NativeInfo("uauto")
	token := TokenInfo(contract)

	assert.True(t, native.IsNative())
	assert.False(t, token.IsNative())

	assert.True(t, native.Equal(NativeInfo("uauto")))
	assert.False(t, native.Equal(NativeInfo("utest")))
	assert.True(t, token.Equal(TokenInfo(contract)))
	assert.False(t, token.Equal(TokenInfo(other)))
	assert.False(t, native.Equal(token))

	assert.Equal(t, "uauto", native.String())
	assert.Equal(t, contract.String(), token.String())
}

func TestTokenInfoCopiesAddress(t *testing.T) {
	contract := auto.BytesToAddress([]byte("token"))
	info := TokenInfo(contract)

	contract[0] = 0xff
	assert.True(t, info.Equal(TokenInfo(auto.BytesToAddress([]byte("token")))))
}

func TestAssetConstructors(t *testing.T) {
	contract := auto.BytesToAddress([]byte("token"))

	a := Native("uauto", big.NewInt(100))
	assert.True(t, a.Info.IsNative())
	assert.Equal(t, big.NewInt(100), a.Amount)

	b := Token(contract, big.NewInt(200))
	assert.False(t, b.Info.IsNative())
	assert.Equal(t, contract, *b.Info.Contract)
	assert.Equal(t, big.NewInt(200), b.Amount)
}

func TestCoins(t *testing.T) {
	cs := Coins{
		NewCoin("uauto", big.NewInt(1000)),
		NewCoin("utest", big.NewInt(50)),
	}

	assert.True(t, cs.Has("uauto"))
	assert.True(t, cs.Has("utest"))
	assert.False(t, cs.Has("uother"))

	assert.Equal(t, big.NewInt(1000), cs.AmountOf("uauto"))
	assert.Equal(t, big.NewInt(0), cs.AmountOf("uother"))

	// AmountOf returns a copy.
	cs.AmountOf("uauto").SetInt64(7)
	assert.Equal(t, big.NewInt(1000), cs.AmountOf("uauto"))
}

func TestCoinsDeduct(t *testing.T) {
	cs := Coins{
		NewCoin("uauto", big.NewInt(1000)),
		NewCoin("utest", big.NewInt(50)),
	}

	rest := cs.Deduct("uauto", big.NewInt(300))
	assert.Equal(t, big.NewInt(700), rest.AmountOf("uauto"))
	assert.Equal(t, big.NewInt(50), rest.AmountOf("utest"))

	// the original set is untouched
	assert.Equal(t, big.NewInt(1000), cs.AmountOf("uauto"))
}
