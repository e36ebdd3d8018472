// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/registry"
)

// bigAmount accepts yaml amounts as plain numbers or strings.
type bigAmount struct {
	*big.Int
}

func (a *bigAmount) UnmarshalYAML(node *yaml.Node) error {
	v, ok := new(big.Int).SetString(node.Value, 10)
	if !ok {
		return errors.Errorf("invalid amount %q", node.Value)
	}
	a.Int = v
	return nil
}

type genesisAsset struct {
	Denom    string `yaml:"denom"`
	Contract string `yaml:"contract"`
}

func (g *genesisAsset) info() (asset.Info, error) {
	if g.Contract != "" {
		addr, err := auto.ParseAddress(g.Contract)
		if err != nil {
			return asset.Info{}, err
		}
		return asset.TokenInfo(addr), nil
	}
	if g.Denom == "" {
		return asset.Info{}, errors.New("asset needs a denom or a contract")
	}
	return asset.NativeInfo(g.Denom), nil
}

type genesisBalance struct {
	Denom  string    `yaml:"denom"`
	Amount bigAmount `yaml:"amount"`
}

type genesisToken struct {
	Contract string    `yaml:"contract"`
	Amount   bigAmount `yaml:"amount"`
}

type genesisAccount struct {
	Address  string           `yaml:"address"`
	Balances []genesisBalance `yaml:"balances"`
	Tokens   []genesisToken   `yaml:"tokens"`
}

// Genesis bootstraps the solo chain: registry parameters plus the
// initial account balances.
type Genesis struct {
	Name     string `yaml:"name"`
	Registry struct {
		Address     string       `yaml:"address"`
		Admin       string       `yaml:"admin"`
		FeeAmount   bigAmount    `yaml:"feeAmount"`
		FeeDenom    string       `yaml:"feeDenom"`
		StakeToken  genesisAsset `yaml:"stakeToken"`
		StakeAmount bigAmount    `yaml:"stakeAmount"`
		EpochLength uint64       `yaml:"epochLength"`
	} `yaml:"registry"`
	Accounts []genesisAccount `yaml:"accounts"`
}

// loadGenesis reads a genesis config from a yaml file.
func loadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessage(err, "read genesis")
	}
	var gene Genesis
	if err := yaml.Unmarshal(raw, &gene); err != nil {
		return nil, errors.WithMessage(err, "parse genesis")
	}
	return &gene, nil
}

const devGenesisYAML = `
name: devnet
registry:
  address: "0x00000000000000000000004175746f6e6f6d7901"
  admin: "0xf077b491b355e64048ce21e3a6fc4751eeea77fa"
  feeAmount: 10000
  feeDenom: utest
  stakeToken:
    denom: uauto
  stakeAmount: 1000
  epochLength: 100
accounts:
  - address: "0xf077b491b355e64048ce21e3a6fc4751eeea77fa"
    balances:
      - denom: utest
        amount: 1000000000
      - denom: uauto
        amount: 1000000000
  - address: "0x435933c8064b4ae76be665428e0307ef2ccfbd68"
    balances:
      - denom: utest
        amount: 1000000000
      - denom: uauto
        amount: 1000000000
`

// devGenesis returns the built-in devnet genesis with funded accounts.
func devGenesis() *Genesis {
	var gene Genesis
	if err := yaml.Unmarshal([]byte(devGenesisYAML), &gene); err != nil {
		panic(err)
	}
	return &gene
}

func (g *Genesis) registryAddress() (auto.Address, error) {
	return auto.ParseAddress(g.Registry.Address)
}

// params converts the genesis registry section to instantiation params.
func (g *Genesis) params() (*registry.Params, error) {
	admin, err := auto.ParseAddress(g.Registry.Admin)
	if err != nil {
		return nil, errors.WithMessage(err, "admin")
	}
	stakeToken, err := g.Registry.StakeToken.info()
	if err != nil {
		return nil, errors.WithMessage(err, "stake token")
	}
	return &registry.Params{
		Admin:       &admin,
		FeeAmount:   g.Registry.FeeAmount.Int,
		FeeDenom:    g.Registry.FeeDenom,
		StakeToken:  &stakeToken,
		StakeAmount: g.Registry.StakeAmount.Int,
		EpochLength: g.Registry.EpochLength,
	}, nil
}
