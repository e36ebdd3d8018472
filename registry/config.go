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
	_ state.StorageEncoder = (*Config)(nil)
	_ state.StorageDecoder = (*Config)(nil)
)

// Config protocol configuration.
// StakeToken and StakeAmount are structural and immutable after instantiation.
type Config struct {
	// amount of the request execution fee
	FeeAmount *big.Int
	// native denom of the request execution fee
	FeeDenom string
	// the asset staked by executors
	StakeToken asset.Info
	// amount of a single stake unit
	StakeAmount *big.Int
	// blocks in a single executor rotation epoch
	EpochLength uint64
}

// Encode implements state.StorageEncoder.
func (c *Config) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(c)
}

// Decode implements state.StorageDecoder.
func (c *Config) Decode(data []byte) error {
	if len(data) == 0 {
		*c = Config{}
		return nil
	}
	return rlp.DecodeBytes(data, c)
}

// Params the full parameter set required to instantiate the registry.
// Instantiation fails unless every field is present.
type Params struct {
	Admin       *auto.Address
	FeeAmount   *big.Int
	FeeDenom    string
	StakeToken  *asset.Info
	StakeAmount *big.Int
	EpochLength uint64
}

func (p *Params) complete() bool {
	return p.Admin != nil &&
		p.FeeAmount != nil &&
		p.FeeDenom != "" &&
		p.StakeToken != nil &&
		p.StakeAmount != nil &&
		p.EpochLength > 0
}

// ConfigPatch an admin-supplied partial config update.
// Nil fields are left untouched. Supplying Admin proposes a pending admin,
// claimable by the candidate. StakeToken and StakeAmount are rejected.
type ConfigPatch struct {
	Admin       *auto.Address
	FeeAmount   *big.Int
	FeeDenom    *string
	StakeToken  *asset.Info
	StakeAmount *big.Int
	EpochLength *uint64
}
