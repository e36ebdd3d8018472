// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry implements the task-automation registry: the request
// lifecycle, stake-weighted executor rotation, and escrow/fee accounting
// state machine.
//
// Handlers are transactional: each one takes a state checkpoint at entry,
// reverts on the first violated precondition and commits on success, so a
// failed call leaves no partial writes behind.
package registry

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/kv"
	"github.com/autonomy-network/autonomy-registry/state"
	"github.com/autonomy-network/autonomy-registry/xenv"
)

// storage keys and buckets
var (
	configKey       = []byte("config")
	stateKey        = []byte("state")
	adminKey        = []byte("admin")
	pendingAdminKey = []byte("new-admin")

	stakeBalanceBucket = kv.Bucket("stake-balance/")
	recurringBucket    = kv.Bucket("recurring/")
	blacklistBucket    = kv.Bucket("blacklist/")
	requestBucket      = kv.Bucket("request/")
)

// Registry the registry state machine over a journaled state.
type Registry struct {
	addr auto.Address // the registry's own custody address
	st   *state.State

	deferCommit bool // set while a Transact is in flight
}

// New creates a registry instance bound to the given state.
// addr is the registry's own address, the escrow destination of
// token transfer-from pulls.
func New(addr auto.Address, st *state.State) *Registry {
	return &Registry{addr: addr, st: st}
}

// Address returns the registry's custody address.
func (r *Registry) Address() auto.Address {
	return r.addr
}

// Initialized reports whether the registry has been instantiated.
func (r *Registry) Initialized() (bool, error) {
	raw, err := r.st.Get(configKey)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// Instantiate writes the initial config, state and admin.
// It fails with ErrIncompleteParams unless every parameter is present.
func (r *Registry) Instantiate(params *Params) error {
	_, err := r.run(func() (*xenv.Output, error) {
		if !params.complete() {
			return nil, ErrIncompleteParams
		}
		cfg := &Config{
			FeeAmount:   params.FeeAmount,
			FeeDenom:    params.FeeDenom,
			StakeToken:  *params.StakeToken,
			StakeAmount: params.StakeAmount,
			EpochLength: params.EpochLength,
		}
		if err := r.st.EncodeStorage(configKey, cfg); err != nil {
			return nil, err
		}
		if err := r.saveState(newState()); err != nil {
			return nil, err
		}
		r.setAddress(adminKey, *params.Admin)
		return &xenv.Output{}, nil
	})
	return err
}

// run wraps a handler to be all-or-nothing: revert the journal on error,
// commit to the store on success. Inside a Transact the commit is left
// to the transaction.
func (r *Registry) run(fn func() (*xenv.Output, error)) (*xenv.Output, error) {
	checkpoint := r.st.NewCheckpoint()
	out, err := fn()
	if err != nil {
		r.st.RevertTo(checkpoint)
		return nil, err
	}
	if r.deferCommit {
		return out, nil
	}
	if err := r.st.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// Transact runs op followed by finalize as one storage transaction.
// The host settles fund movements in finalize, so a settlement failure
// reverts the state writes of op along with any replies delivered
// during finalize. Nothing commits until both phases succeed.
func (r *Registry) Transact(op func() (*xenv.Output, error), finalize func(*xenv.Output) error) (*xenv.Output, error) {
	checkpoint := r.st.NewCheckpoint()
	r.deferCommit = true
	defer func() { r.deferCommit = false }()

	out, err := op()
	if err != nil {
		r.st.RevertTo(checkpoint)
		return nil, err
	}
	if err := finalize(out); err != nil {
		r.st.RevertTo(checkpoint)
		return nil, err
	}
	if err := r.st.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Registry) getConfig() (*Config, error) {
	raw, err := r.st.Get(configKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("registry not instantiated")
	}
	var cfg Config
	if err := cfg.Decode(raw); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *Registry) saveConfig(cfg *Config) error {
	return r.st.EncodeStorage(configKey, cfg)
}

func (r *Registry) getState() (*State, error) {
	raw, err := r.st.Get(stateKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("registry not instantiated")
	}
	var st State
	if err := st.Decode(raw); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *Registry) saveState(st *State) error {
	return r.st.EncodeStorage(stateKey, st)
}

func requestKey(id uint64) []byte {
	var b8 [8]byte
	binary.BigEndian.PutUint64(b8[:], id)
	return requestBucket.ProvisionKey(b8[:])
}

// requestID recovers the id from a bucket-relative request key.
func requestID(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

func (r *Registry) getRequest(id uint64) (*Request, bool, error) {
	raw, err := r.st.Get(requestKey(id))
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	var req Request
	if err := req.Decode(raw); err != nil {
		return nil, false, err
	}
	return &req, true, nil
}

func (r *Registry) saveRequest(id uint64, req *Request) error {
	return r.st.EncodeStorage(requestKey(id), req)
}

func (r *Registry) removeRequest(id uint64) {
	r.st.Set(requestKey(id), nil)
}

func (r *Registry) getAmount(bkt kv.Bucket, addr auto.Address) (*big.Int, error) {
	var a amount
	if err := r.st.DecodeStorage(bkt.ProvisionKey(addr.Bytes()), &a); err != nil {
		return nil, err
	}
	return a.v, nil
}

func (r *Registry) setAmount(bkt kv.Bucket, addr auto.Address, v *big.Int) error {
	return r.st.EncodeStorage(bkt.ProvisionKey(addr.Bytes()), &amount{v})
}

func (r *Registry) stakeBalance(addr auto.Address) (*big.Int, error) {
	return r.getAmount(stakeBalanceBucket, addr)
}

func (r *Registry) setStakeBalance(addr auto.Address, v *big.Int) error {
	return r.setAmount(stakeBalanceBucket, addr, v)
}

func (r *Registry) recurringBalance(addr auto.Address) (*big.Int, error) {
	return r.getAmount(recurringBucket, addr)
}

func (r *Registry) setRecurringBalance(addr auto.Address, v *big.Int) error {
	return r.setAmount(recurringBucket, addr, v)
}

func (r *Registry) isBlacklisted(addr auto.Address) (bool, error) {
	raw, err := r.st.Get(blacklistBucket.ProvisionKey(addr.Bytes()))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (r *Registry) setBlacklisted(addr auto.Address, listed bool) {
	key := blacklistBucket.ProvisionKey(addr.Bytes())
	if listed {
		r.st.Set(key, []byte{1})
	} else {
		r.st.Set(key, nil)
	}
}

// getAddress reads a stored address, zero when absent.
func (r *Registry) getAddress(key []byte) (auto.Address, error) {
	raw, err := r.st.Get(key)
	if err != nil {
		return auto.Address{}, err
	}
	return auto.BytesToAddress(raw), nil
}

// setAddress stores an address; the zero address clears the slot.
func (r *Registry) setAddress(key []byte, addr auto.Address) {
	if addr.IsZero() {
		r.st.Set(key, nil)
	} else {
		r.st.Set(key, addr.Bytes())
	}
}

// requireAdmin fails with ErrUnauthorized unless sender is the current admin.
func (r *Registry) requireAdmin(sender auto.Address) error {
	admin, err := r.getAddress(adminKey)
	if err != nil {
		return err
	}
	if admin.IsZero() || admin != sender {
		return errors.WithMessage(ErrUnauthorized, "caller is not admin")
	}
	return nil
}

// subChecked returns a-b, failing with ErrOverflow on a negative result.
func subChecked(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, ErrOverflow
	}
	return new(big.Int).Sub(a, b), nil
}

// executorString renders an executor address for events and queries,
// empty when the slot is open.
func executorString(addr auto.Address) string {
	if addr.IsZero() {
		return ""
	}
	return addr.String()
}
