// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"math/big"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
)

// ReplyExecution is the reply channel id that tags the deferred target call.
// Only a reply on this channel may clear the in-flight execution marker.
const ReplyExecution uint64 = 1

// ReplyOn controls whether the host delivers a completion reply for
// an emitted call.
type ReplyOn uint8

// Reply modes.
const (
	ReplyNever ReplyOn = iota
	ReplySuccess
)

// Instruction is an outgoing operation emitted by a handler, to be settled
// by the host after the handler's state writes are accepted.
type Instruction interface {
	isInstruction()
}

// NativeSend moves native coins from the registry's custody to an address.
type NativeSend struct {
	To     auto.Address
	Amount asset.Coin
}

// TokenTransfer moves token balance held by the registry to an address.
type TokenTransfer struct {
	Token  auto.Address
	To     auto.Address
	Amount *big.Int
}

// TokenTransferFrom pulls token balance from an owner into an address,
// using an allowance granted to the registry.
type TokenTransferFrom struct {
	Token  auto.Address
	From   auto.Address
	To     auto.Address
	Amount *big.Int
}

// Call invokes another program with a payload. When ReplyOn is ReplySuccess
// the host delivers a reply tagged ReplyID after the call completes.
type Call struct {
	To      auto.Address
	Payload []byte
	Funds   asset.Coins
	ReplyID uint64
	ReplyOn ReplyOn
}

func (NativeSend) isInstruction()        {}
func (TokenTransfer) isInstruction()     {}
func (TokenTransferFrom) isInstruction() {}
func (Call) isInstruction()              {}

// Attr one key/value pair of an event's attribute trail.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event records a handled action and its attribute trail.
type Event struct {
	Action string `json:"action"`
	Attrs  []Attr `json:"attrs,omitempty"`
}

// Output collects what a handler produced besides its state writes.
type Output struct {
	Events       []Event
	Instructions []Instruction
}

// AddEvent appends an event preserving emission order.
func (o *Output) AddEvent(ev Event) {
	o.Events = append(o.Events, ev)
}

// AddInstruction appends instructions preserving emission order.
func (o *Output) AddInstruction(ins ...Instruction) {
	o.Instructions = append(o.Instructions, ins...)
}

// NewAttr creates an attribute.
func NewAttr(key, value string) Attr {
	return Attr{Key: key, Value: value}
}
