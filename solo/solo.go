// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solo hosts the registry on a single-node development chain. It
// keeps a toy bank of native coins and tokens, settles the instructions
// handlers emit, and delivers execution replies in the same call.
package solo

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/pkg/errors"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/metrics"
	"github.com/autonomy-network/autonomy-registry/registry"
	"github.com/autonomy-network/autonomy-registry/xenv"
)

var logger = log15.New("pkg", "solo")

var (
	metricCallCount   = metrics.LazyLoadCounterVec("solo_call_count", []string{"action"})
	metricBlockHeight = metrics.LazyLoadGauge("solo_block_height")
)

// Receipt summarizes a committed call.
type Receipt struct {
	Height uint64       `json:"height"`
	Events []xenv.Event `json:"events"`
}

// Host drives the registry on the solo chain. All calls are serialized,
// mirroring single-threaded on-chain execution.
type Host struct {
	reg *registry.Registry

	mu     sync.Mutex
	bank   *bank
	height uint64
}

// NewHost creates a host around an instantiated registry, starting at
// block height 0.
func NewHost(reg *registry.Registry) *Host {
	return &Host{
		reg:  reg,
		bank: newBank(),
	}
}

// Registry exposes the hosted registry for queries.
func (h *Host) Registry() *registry.Registry {
	return h.reg
}

// Height returns the current block height.
func (h *Host) Height() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.height
}

// AdvanceBlocks moves the chain forward by n blocks.
func (h *Host) AdvanceBlocks(n uint64) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.height += n
	metricBlockHeight().Set(int64(h.height))
	return h.height
}

// Run advances the block height at the chain's block interval until the
// context is cancelled.
func (h *Host) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(auto.BlockInterval) * time.Second)
	defer ticker.Stop()

	logger.Info("solo chain started", "interval", auto.BlockInterval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("solo chain stopped")
			return
		case <-ticker.C:
			height := h.AdvanceBlocks(1)
			logger.Debug("new block", "height", height)
		}
	}
}

// Mint credits native coins to an account, the solo faucet.
func (h *Host) Mint(addr auto.Address, coins ...asset.Coin) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range coins {
		h.bank.mint(addr, c)
	}
}

// MintToken credits token units to an account.
func (h *Host) MintToken(token, addr auto.Address, amount *big.Int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bank.mintToken(token, addr, amount)
}

// BalanceOf returns an account's native coin balance.
func (h *Host) BalanceOf(addr auto.Address, denom string) *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bank.balanceOf(addr, denom)
}

// TokenBalanceOf returns an account's token balance.
func (h *Host) TokenBalanceOf(token, addr auto.Address) *big.Int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bank.tokenBalanceOf(token, addr)
}

// submit executes a handler as a chain transaction: attached funds move
// into registry custody, then the emitted instructions settle. State
// writes and fund movements commit together or not at all; the bank is
// settled on a clone that only replaces the live ledger on success.
func (h *Host) submit(action string, sender auto.Address, funds asset.Coins, fn func(*xenv.Environment) (*xenv.Output, error)) (*Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range funds {
		if h.bank.balanceOf(sender, c.Denom).Cmp(c.Amount) < 0 {
			return nil, errors.Errorf("insufficient funds: %s%s", c.Amount, c.Denom)
		}
	}

	env := xenv.New(
		&xenv.BlockContext{Number: h.height, Time: h.height * auto.BlockInterval},
		&xenv.Message{Sender: sender, Funds: funds},
	)
	working := h.bank.clone()
	receipt := &Receipt{Height: h.height}
	_, err := h.reg.Transact(
		func() (*xenv.Output, error) {
			return fn(env)
		},
		func(out *xenv.Output) error {
			for _, c := range funds {
				if err := working.send(sender, h.reg.Address(), c); err != nil {
					return err
				}
			}
			receipt.Events = out.Events
			return h.settle(working, out.Instructions, receipt)
		},
	)
	if err != nil {
		logger.Debug("call rejected", "action", action, "sender", sender, "err", err)
		return nil, err
	}
	h.bank = working

	metricCallCount().AddWithLabel(1, map[string]string{"action": action})
	logger.Info("call committed", "action", action, "sender", sender, "height", h.height)
	return receipt, nil
}

func (h *Host) settle(bank *bank, instructions []xenv.Instruction, receipt *Receipt) error {
	for _, inst := range instructions {
		switch inst := inst.(type) {
		case *xenv.NativeSend:
			if err := bank.send(h.reg.Address(), inst.To, inst.Amount); err != nil {
				return errors.WithMessage(err, "settle native send")
			}
		case *xenv.TokenTransfer:
			if err := bank.sendToken(inst.Token, h.reg.Address(), inst.To, inst.Amount); err != nil {
				return errors.WithMessage(err, "settle token transfer")
			}
		case *xenv.TokenTransferFrom:
			if err := bank.sendToken(inst.Token, inst.From, inst.To, inst.Amount); err != nil {
				return errors.WithMessage(err, "settle token pull")
			}
		case *xenv.Call:
			// the solo chain has no target contracts; the call is assumed
			// to succeed, so a success reply is delivered right away
			logger.Debug("call dispatched", "to", inst.To, "payload", len(inst.Payload))
			if inst.ReplyOn == xenv.ReplySuccess {
				out, err := h.reg.HandleReply(inst.ReplyID)
				if err != nil {
					return errors.WithMessage(err, "deliver reply")
				}
				receipt.Events = append(receipt.Events, out.Events...)
			}
		default:
			return errors.Errorf("unknown instruction %T", inst)
		}
	}
	return nil
}

// CreateRequest submits a create call.
func (h *Host) CreateRequest(sender auto.Address, funds asset.Coins, info *registry.CreateRequestInfo) (*Receipt, error) {
	return h.submit("create_request", sender, funds, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.CreateRequest(env, info)
	})
}

// CancelRequest submits a cancel call.
func (h *Host) CancelRequest(sender auto.Address, id uint64) (*Receipt, error) {
	return h.submit("cancel_request", sender, nil, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.CancelRequest(env, id)
	})
}

// ExecuteRequest submits an execute call.
func (h *Host) ExecuteRequest(sender auto.Address, id uint64) (*Receipt, error) {
	return h.submit("execute_request", sender, nil, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.ExecuteRequest(env, id)
	})
}

// UpdateExecutor submits an executor rotation call.
func (h *Host) UpdateExecutor(sender auto.Address) (*Receipt, error) {
	return h.submit("update_executor", sender, nil, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.UpdateExecutor(env)
	})
}

// Stake submits a native stake call.
func (h *Host) Stake(sender auto.Address, funds asset.Coins, numStakes uint64) (*Receipt, error) {
	return h.submit("stake", sender, funds, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.Stake(env, numStakes)
	})
}

// SendToken simulates a token contract transfer carrying a hook payload:
// the tokens move from the sender into registry custody and the registry's
// receive hook runs as if called by the token contract.
func (h *Host) SendToken(token, from auto.Address, amount *big.Int, data []byte) (*Receipt, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	working := h.bank.clone()
	if err := working.sendToken(token, from, h.reg.Address(), amount); err != nil {
		return nil, err
	}
	env := xenv.New(
		&xenv.BlockContext{Number: h.height, Time: h.height * auto.BlockInterval},
		&xenv.Message{Sender: token},
	)
	receipt := &Receipt{Height: h.height}
	_, err := h.reg.Transact(
		func() (*xenv.Output, error) {
			return h.reg.ReceiveToken(env, from, amount, data)
		},
		func(out *xenv.Output) error {
			receipt.Events = out.Events
			return h.settle(working, out.Instructions, receipt)
		},
	)
	if err != nil {
		// the hook rejected the transfer; the tentative ledger is
		// dropped, so the tokens never left the sender
		return nil, err
	}
	h.bank = working
	metricCallCount().AddWithLabel(1, map[string]string{"action": "receive_token"})
	return receipt, nil
}

// Unstake submits an unstake call.
func (h *Host) Unstake(sender auto.Address, indexes []int) (*Receipt, error) {
	return h.submit("unstake", sender, nil, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.Unstake(env, indexes)
	})
}

// DepositRecurringFee submits a recurring fee deposit.
func (h *Host) DepositRecurringFee(sender auto.Address, funds asset.Coins, recurringCount uint64) (*Receipt, error) {
	return h.submit("deposit_recurring_fee", sender, funds, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.DepositRecurringFee(env, recurringCount)
	})
}

// WithdrawRecurringFee submits a recurring fee withdrawal.
func (h *Host) WithdrawRecurringFee(sender auto.Address, recurringCount uint64) (*Receipt, error) {
	return h.submit("withdraw_recurring_fee", sender, nil, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.WithdrawRecurringFee(env, recurringCount)
	})
}

// UpdateConfig submits an admin config update.
func (h *Host) UpdateConfig(sender auto.Address, patch *registry.ConfigPatch) (*Receipt, error) {
	return h.submit("update_config", sender, nil, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.UpdateConfig(env, patch)
	})
}

// ClaimAdmin submits an admin claim.
func (h *Host) ClaimAdmin(sender auto.Address) (*Receipt, error) {
	return h.submit("claim_admin", sender, nil, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.ClaimAdmin(env)
	})
}

// AddToBlacklist submits an admin blacklist addition.
func (h *Host) AddToBlacklist(sender auto.Address, targets []auto.Address) (*Receipt, error) {
	return h.submit("add_to_blacklist", sender, nil, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.AddToBlacklist(env, targets)
	})
}

// RemoveFromBlacklist submits an admin blacklist removal.
func (h *Host) RemoveFromBlacklist(sender auto.Address, targets []auto.Address) (*Receipt, error) {
	return h.submit("remove_from_blacklist", sender, nil, func(env *xenv.Environment) (*xenv.Output, error) {
		return h.reg.RemoveFromBlacklist(env, targets)
	})
}
