// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/state"
)

var (
	_ state.StorageEncoder = (*State)(nil)
	_ state.StorageDecoder = (*State)(nil)
	_ state.StorageEncoder = (*Request)(nil)
	_ state.StorageDecoder = (*Request)(nil)
)

// State the registry/stake singleton.
type State struct {
	// id of the request presently mid-execution, auto.NoRequestID when none
	ExecutingRequestID uint64
	// id assigned to the next created request, never reused
	NextRequestID uint64
	// count of currently pending requests
	TotalRequests uint64
	// sum of all per-address recurring fee pools
	TotalRecurringFee *big.Int
	// sum of all per-address staked balances
	TotalStaked *big.Int
	// the stake roll: one slot per staked unit, an address with
	// n units appears n times
	Stakes []auto.Address
	// height of the most recent epoch boundary an executor was drawn for
	LastEpoch uint64
	// elected executor of the epoch, zero means anyone may execute
	Executor auto.Address
}

// newState returns the state of a freshly instantiated registry.
func newState() *State {
	return &State{
		ExecutingRequestID: auto.NoRequestID,
		TotalRecurringFee:  new(big.Int),
		TotalStaked:        new(big.Int),
	}
}

// Encode implements state.StorageEncoder.
func (s *State) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(s)
}

// Decode implements state.StorageDecoder.
func (s *State) Decode(data []byte) error {
	if len(data) == 0 {
		*s = State{}
		return nil
	}
	return rlp.DecodeBytes(data, s)
}

// Request a deferred execution request.
type Request struct {
	// the user who registered the request, owns cancel rights
	User auto.Address
	// destination of the deferred call
	Target auto.Address
	// opaque payload forwarded verbatim to the target
	Msg []byte
	// asset escrowed in advance, forwarded on execution
	InputAsset *asset.Asset `rlp:"nil"`
	// recurring requests survive execution and pay out of the
	// owner's recurring fee pool
	IsRecurring bool
	// host timestamp at creation, in seconds
	CreatedAt uint64
}

// Encode implements state.StorageEncoder.
func (r *Request) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(r)
}

// Decode implements state.StorageDecoder.
func (r *Request) Decode(data []byte) error {
	if len(data) == 0 {
		*r = Request{}
		return nil
	}
	return rlp.DecodeBytes(data, r)
}

// amount a stored big.Int value, zero when absent.
type amount struct {
	v *big.Int
}

func (a *amount) Encode() ([]byte, error) {
	if a.v.Sign() == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(a.v)
}

func (a *amount) Decode(data []byte) error {
	a.v = new(big.Int)
	if len(data) == 0 {
		return nil
	}
	return rlp.DecodeBytes(data, a.v)
}
