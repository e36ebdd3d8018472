// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xenv carries the execution environment a host hands to registry
// handlers, and the instructions the handlers emit back for the host to
// settle.
package xenv

import (
	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
)

// BlockContext block context.
type BlockContext struct {
	Number uint64 // block height
	Time   uint64 // block timestamp, in seconds
}

// Message context of the incoming call.
type Message struct {
	Sender auto.Address
	Funds  asset.Coins // native funds attached to the call
}

// Environment the env a registry handler executes in.
type Environment struct {
	blockCtx *BlockContext
	msg      *Message
}

// New creates a new env.
func New(blockCtx *BlockContext, msg *Message) *Environment {
	return &Environment{blockCtx: blockCtx, msg: msg}
}

// Sender returns the caller address.
func (env *Environment) Sender() auto.Address { return env.msg.Sender }

// Funds returns the native funds attached to the call.
func (env *Environment) Funds() asset.Coins { return env.msg.Funds }

// BlockNumber returns the current block height.
func (env *Environment) BlockNumber() uint64 { return env.blockCtx.Number }

// BlockTime returns the current block timestamp in seconds.
func (env *Environment) BlockTime() uint64 { return env.blockCtx.Time }
