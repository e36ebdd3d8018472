// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math"
	"math/big"

	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/kv"
)

// RequestInfo a request together with its id, as served by queries.
// A missing id yields a zero-valued info rather than an error.
type RequestInfo struct {
	ID      uint64
	Request Request
}

// EpochInfo the rotation status at a given block height.
type EpochInfo struct {
	CurrentEpoch uint64
	LastEpoch    uint64
	Executor     auto.Address
}

// GetConfig returns the current protocol configuration.
func (r *Registry) GetConfig() (*Config, error) {
	return r.getConfig()
}

// GetState returns the current registry state.
func (r *Registry) GetState() (*State, error) {
	return r.getState()
}

// GetEpochInfo reports the epoch the given height falls into alongside
// the rotation the registry has actually performed.
func (r *Registry) GetEpochInfo(height uint64) (*EpochInfo, error) {
	cfg, err := r.getConfig()
	if err != nil {
		return nil, err
	}
	st, err := r.getState()
	if err != nil {
		return nil, err
	}
	return &EpochInfo{
		CurrentEpoch: epochOf(height, cfg.EpochLength),
		LastEpoch:    st.LastEpoch,
		Executor:     st.Executor,
	}, nil
}

// GetRequest returns the request with the given id, zero-valued when it
// does not exist.
func (r *Registry) GetRequest(id uint64) (*RequestInfo, error) {
	req, found, err := r.getRequest(id)
	if err != nil {
		return nil, err
	}
	info := &RequestInfo{ID: id}
	if found {
		info.Request = *req
	}
	return info, nil
}

// GetRequests pages through stored requests in id order. start is an
// exclusive cursor; nil starts from the lowest (ascending) or highest
// (descending) id. limit defaults to DefaultPageLimit and is capped at
// MaxPageLimit.
func (r *Registry) GetRequests(start *uint64, limit *uint32, ascending bool) ([]*RequestInfo, error) {
	n := uint32(auto.DefaultPageLimit)
	if limit != nil {
		n = *limit
	}
	if n > auto.MaxPageLimit {
		n = auto.MaxPageLimit
	}

	rng := requestBucket.MakeRange(kv.Range{})
	if start != nil {
		if ascending {
			if *start == math.MaxUint64 {
				return nil, nil
			}
			rng.From = requestKey(*start + 1)
		} else {
			rng.To = requestKey(*start)
		}
	}

	it := r.st.NewIterator(rng)
	defer it.Release()

	var infos []*RequestInfo
	advance := it.First
	if !ascending {
		advance = it.Last
	}
	for ok := advance(); ok && uint32(len(infos)) < n; {
		var req Request
		if err := req.Decode(it.Value()); err != nil {
			return nil, err
		}
		infos = append(infos, &RequestInfo{
			ID:      requestID(it.Key()[len(requestBucket):]),
			Request: req,
		})
		if ascending {
			ok = it.Next()
		} else {
			ok = it.Prev()
		}
	}
	return infos, it.Error()
}

// GetStakeAmount returns the total amount the user has staked.
func (r *Registry) GetStakeAmount(user auto.Address) (*big.Int, error) {
	return r.stakeBalance(user)
}

// GetRecurringFee returns the user's recurring fee pool balance.
func (r *Registry) GetRecurringFee(user auto.Address) (*big.Int, error) {
	return r.recurringBalance(user)
}

// GetStakes returns the roll slots in [start, start+limit).
// A zero limit returns everything from start.
func (r *Registry) GetStakes(start, limit uint64) ([]auto.Address, error) {
	st, err := r.getState()
	if err != nil {
		return nil, err
	}
	size := uint64(len(st.Stakes))
	if start >= size {
		return nil, nil
	}
	end := size
	// size-start never underflows here, and comparing against it avoids
	// wrapping start+limit around uint64.
	if limit > 0 && limit < size-start {
		end = start + limit
	}
	return st.Stakes[start:end], nil
}

// GetBlacklist returns every blacklisted target.
func (r *Registry) GetBlacklist() ([]auto.Address, error) {
	it := r.st.NewIterator(blacklistBucket.MakeRange(kv.Range{}))
	defer it.Release()

	var listed []auto.Address
	for ok := it.First(); ok; ok = it.Next() {
		listed = append(listed, auto.BytesToAddress(it.Key()[len(blacklistBucket):]))
	}
	return listed, it.Error()
}

// GetAdmin returns the current admin, zero when unset.
func (r *Registry) GetAdmin() (auto.Address, error) {
	return r.getAddress(adminKey)
}

// GetPendingAdmin returns the proposed admin awaiting claim, zero when none.
func (r *Registry) GetPendingAdmin() (auto.Address, error) {
	return r.getAddress(pendingAdminKey)
}
