// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/xenv"
)

// receiveMsg is the hook payload a token contract forwards on transfer.
type receiveMsg struct {
	Stake *struct {
		NumStakes uint64 `json:"num_stakes"`
	} `json:"stake"`
}

// Stake adds numStakes roll slots for the caller, funded by attached
// native coins. The attached amount must be exactly stake price times
// numStakes, and the configured stake token must be native.
func (r *Registry) Stake(env *xenv.Environment, numStakes uint64) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		if !cfg.StakeToken.IsNative() {
			return nil, ErrInvalidStakeToken
		}
		required := new(big.Int).Mul(cfg.StakeAmount, new(big.Int).SetUint64(numStakes))
		if env.Funds().AmountOf(cfg.StakeToken.Denom).Cmp(required) != 0 {
			return nil, ErrInvalidStakeInfo
		}
		return r.addStakes(cfg, env.Sender(), numStakes, required, env.BlockNumber())
	})
}

// ReceiveToken is the token transfer hook: the stake token contract calls
// it after moving amount from the user to the registry, forwarding the
// user's JSON payload. Only the configured stake token is accepted.
func (r *Registry) ReceiveToken(env *xenv.Environment, from auto.Address, tokenAmount *big.Int, data []byte) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		if cfg.StakeToken.IsNative() || env.Sender() != *cfg.StakeToken.Contract {
			return nil, ErrInvalidStakeToken
		}
		if len(data) == 0 {
			return nil, ErrDataShouldBeGiven
		}
		var msg receiveMsg
		if err := json.Unmarshal(data, &msg); err != nil || msg.Stake == nil {
			return nil, ErrDataShouldBeGiven
		}
		required := new(big.Int).Mul(cfg.StakeAmount, new(big.Int).SetUint64(msg.Stake.NumStakes))
		if tokenAmount.Cmp(required) != 0 {
			return nil, ErrInvalidStakeInfo
		}
		return r.addStakes(cfg, from, msg.Stake.NumStakes, required, env.BlockNumber())
	})
}

func (r *Registry) addStakes(cfg *Config, user auto.Address, numStakes uint64, total *big.Int, height uint64) (*xenv.Output, error) {
	st, err := r.getState()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < numStakes; i++ {
		st.Stakes = append(st.Stakes, user)
	}
	balance, err := r.stakeBalance(user)
	if err != nil {
		return nil, err
	}
	if err := r.setStakeBalance(user, new(big.Int).Add(balance, total)); err != nil {
		return nil, err
	}
	st.TotalStaked = new(big.Int).Add(st.TotalStaked, total)
	r.rotateExecutor(st, cfg, height)
	if err := r.saveState(st); err != nil {
		return nil, err
	}

	out := &xenv.Output{}
	out.AddEvent(xenv.Event{
		Action: "stake",
		Attrs: []xenv.Attr{
			xenv.NewAttr("user", user.String()),
			xenv.NewAttr("num_stakes", strconv.FormatUint(numStakes, 10)),
		},
	})
	return out, nil
}

// Unstake releases the caller's roll slots at the given indexes and
// refunds the stake. Each index is validated and removed in turn with a
// swap-remove, so later indexes address the roll as already mutated by
// the earlier removals.
func (r *Registry) Unstake(env *xenv.Environment, indexes []int) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		st, err := r.getState()
		if err != nil {
			return nil, err
		}
		sender := env.Sender()
		for _, idx := range indexes {
			if idx < 0 || idx >= len(st.Stakes) {
				return nil, ErrIdxOutOfBound
			}
			if st.Stakes[idx] != sender {
				return nil, ErrIdxNotYou
			}
			last := len(st.Stakes) - 1
			st.Stakes[idx] = st.Stakes[last]
			st.Stakes = st.Stakes[:last]
		}

		total := new(big.Int).Mul(cfg.StakeAmount, big.NewInt(int64(len(indexes))))
		balance, err := r.stakeBalance(sender)
		if err != nil {
			return nil, err
		}
		remaining, err := subChecked(balance, total)
		if err != nil {
			return nil, err
		}
		if err := r.setStakeBalance(sender, remaining); err != nil {
			return nil, err
		}
		st.TotalStaked, err = subChecked(st.TotalStaked, total)
		if err != nil {
			return nil, err
		}
		r.rotateExecutor(st, cfg, env.BlockNumber())
		if err := r.saveState(st); err != nil {
			return nil, err
		}

		out := &xenv.Output{}
		if total.Sign() > 0 {
			if cfg.StakeToken.IsNative() {
				out.AddInstruction(&xenv.NativeSend{
					To:     sender,
					Amount: asset.Coin{Denom: cfg.StakeToken.Denom, Amount: total},
				})
			} else {
				out.AddInstruction(&xenv.TokenTransfer{
					Token:  *cfg.StakeToken.Contract,
					To:     sender,
					Amount: total,
				})
			}
		}
		out.AddEvent(xenv.Event{
			Action: "unstake",
			Attrs: []xenv.Attr{
				xenv.NewAttr("user", sender.String()),
				xenv.NewAttr("count", strconv.Itoa(len(indexes))),
			},
		})
		return out, nil
	})
}
