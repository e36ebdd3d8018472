// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registryapi

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/registry"
)

// Coin a native coin attachment.
type Coin struct {
	Denom  string   `json:"denom"`
	Amount *big.Int `json:"amount"`
}

func convertFunds(coins []Coin) (asset.Coins, error) {
	var funds asset.Coins
	for _, c := range coins {
		if c.Denom == "" || c.Amount == nil || c.Amount.Sign() < 0 {
			return nil, errors.New("invalid coin")
		}
		funds = append(funds, asset.NewCoin(c.Denom, c.Amount))
	}
	return funds, nil
}

// Asset a native coin or token amount.
type Asset struct {
	Denom    string        `json:"denom,omitempty"`
	Contract *auto.Address `json:"contract,omitempty"`
	Amount   *big.Int      `json:"amount"`
}

func convertAssetIn(a *Asset) (*asset.Asset, error) {
	if a == nil {
		return nil, nil
	}
	if a.Amount == nil || a.Amount.Sign() < 0 {
		return nil, errors.New("invalid asset amount")
	}
	if a.Contract != nil {
		if a.Denom != "" {
			return nil, errors.New("asset is either native or token")
		}
		return asset.Token(*a.Contract, a.Amount), nil
	}
	if a.Denom == "" {
		return nil, errors.New("asset needs a denom or a contract")
	}
	return asset.Native(a.Denom, a.Amount), nil
}

func convertAssetOut(a *asset.Asset) *Asset {
	if a == nil {
		return nil
	}
	return &Asset{
		Denom:    a.Info.Denom,
		Contract: a.Info.Contract,
		Amount:   a.Amount,
	}
}

// Config the protocol configuration.
type Config struct {
	FeeAmount   *big.Int `json:"feeAmount"`
	FeeDenom    string   `json:"feeDenom"`
	StakeToken  Asset    `json:"stakeToken"`
	StakeAmount *big.Int `json:"stakeAmount"`
	EpochLength uint64   `json:"epochLength"`
}

func convertConfig(cfg *registry.Config) *Config {
	return &Config{
		FeeAmount: cfg.FeeAmount,
		FeeDenom:  cfg.FeeDenom,
		StakeToken: Asset{
			Denom:    cfg.StakeToken.Denom,
			Contract: cfg.StakeToken.Contract,
		},
		StakeAmount: cfg.StakeAmount,
		EpochLength: cfg.EpochLength,
	}
}

// State the registry bookkeeping state.
type State struct {
	ExecutingRequestID uint64         `json:"executingRequestId"`
	NextRequestID      uint64         `json:"nextRequestId"`
	TotalRequests      uint64         `json:"totalRequests"`
	TotalRecurringFee  *big.Int       `json:"totalRecurringFee"`
	TotalStaked        *big.Int       `json:"totalStaked"`
	Stakes             []auto.Address `json:"stakes"`
	LastEpoch          uint64         `json:"lastEpoch"`
	Executor           string         `json:"executor"`
}

func convertState(st *registry.State) *State {
	executor := ""
	if !st.Executor.IsZero() {
		executor = st.Executor.String()
	}
	return &State{
		ExecutingRequestID: st.ExecutingRequestID,
		NextRequestID:      st.NextRequestID,
		TotalRequests:      st.TotalRequests,
		TotalRecurringFee:  st.TotalRecurringFee,
		TotalStaked:        st.TotalStaked,
		Stakes:             st.Stakes,
		LastEpoch:          st.LastEpoch,
		Executor:           executor,
	}
}

// Request a stored request.
type Request struct {
	ID          uint64       `json:"id"`
	User        auto.Address `json:"user"`
	Target      auto.Address `json:"target"`
	Msg         []byte       `json:"msg,omitempty"`
	InputAsset  *Asset       `json:"inputAsset,omitempty"`
	IsRecurring bool         `json:"isRecurring"`
	CreatedAt   uint64       `json:"createdAt"`
}

func convertRequest(info *registry.RequestInfo) *Request {
	return &Request{
		ID:          info.ID,
		User:        info.Request.User,
		Target:      info.Request.Target,
		Msg:         info.Request.Msg,
		InputAsset:  convertAssetOut(info.Request.InputAsset),
		IsRecurring: info.Request.IsRecurring,
		CreatedAt:   info.Request.CreatedAt,
	}
}

// EpochInfo the rotation status of an epoch.
type EpochInfo struct {
	CurrentEpoch uint64 `json:"currentEpoch"`
	LastEpoch    uint64 `json:"lastEpoch"`
	Executor     string `json:"executor"`
}

// CreateRequest the body of a request creation call.
type CreateRequest struct {
	Sender      auto.Address `json:"sender"`
	Funds       []Coin       `json:"funds,omitempty"`
	Target      auto.Address `json:"target"`
	Msg         []byte       `json:"msg,omitempty"`
	InputAsset  *Asset       `json:"inputAsset,omitempty"`
	IsRecurring bool         `json:"isRecurring,omitempty"`
}

// SenderOnly the body of calls that carry nothing but the caller.
type SenderOnly struct {
	Sender auto.Address `json:"sender"`
}

// Stake the body of a native stake call.
type Stake struct {
	Sender    auto.Address `json:"sender"`
	Funds     []Coin       `json:"funds,omitempty"`
	NumStakes uint64       `json:"numStakes"`
}

// TokenStake the body of a token-transfer stake call.
type TokenStake struct {
	Token  auto.Address `json:"token"`
	Sender auto.Address `json:"sender"`
	Amount *big.Int     `json:"amount"`
	Data   []byte       `json:"data,omitempty"`
}

// Unstake the body of an unstake call.
type Unstake struct {
	Sender  auto.Address `json:"sender"`
	Indexes []int        `json:"indexes"`
}

// RecurringFee the body of recurring fee pool calls.
type RecurringFee struct {
	Sender         auto.Address `json:"sender"`
	Funds          []Coin       `json:"funds,omitempty"`
	RecurringCount uint64       `json:"recurringCount"`
}

// ConfigUpdate the body of an admin config update.
type ConfigUpdate struct {
	Sender      auto.Address  `json:"sender"`
	Admin       *auto.Address `json:"admin,omitempty"`
	FeeAmount   *big.Int      `json:"feeAmount,omitempty"`
	FeeDenom    *string       `json:"feeDenom,omitempty"`
	StakeToken  *Asset        `json:"stakeToken,omitempty"`
	StakeAmount *big.Int      `json:"stakeAmount,omitempty"`
	EpochLength *uint64       `json:"epochLength,omitempty"`
}

// Blacklist the body of admin blacklist calls.
type Blacklist struct {
	Sender  auto.Address   `json:"sender"`
	Targets []auto.Address `json:"targets"`
}
