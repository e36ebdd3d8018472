// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"encoding/binary"
	"strconv"

	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/xenv"
)

// epochOf maps a block height onto its epoch start height.
func epochOf(height, epochLength uint64) uint64 {
	return height - height%epochLength
}

// drawIndex deterministically picks a roll slot, seeded by the height of
// the block that triggered the rotation. Every node derives the same slot
// from the height alone, so the drawn executor is publicly predictable.
func drawIndex(height uint64, rollSize int) int {
	var b8 [8]byte
	binary.BigEndian.PutUint64(b8[:], height)
	hash := auto.Blake2b(b8[:])
	return int(binary.BigEndian.Uint64(hash[:8]) % uint64(rollSize))
}

// rotateExecutor advances the epoch marker and redraws the executor when
// the current block has crossed into a new epoch. A no-op within the
// same epoch. An empty roll still advances the marker and leaves the
// executor slot open, so requests stay executable by anyone.
func (r *Registry) rotateExecutor(st *State, cfg *Config, height uint64) bool {
	epoch := epochOf(height, cfg.EpochLength)
	if epoch == st.LastEpoch {
		return false
	}
	st.LastEpoch = epoch
	if len(st.Stakes) == 0 {
		st.Executor = auto.Address{}
		return true
	}
	st.Executor = st.Stakes[drawIndex(height, len(st.Stakes))]
	return true
}

// UpdateExecutor explicitly rotates the executor for the current epoch.
// Anyone may call it; it is idempotent within an epoch.
func (r *Registry) UpdateExecutor(env *xenv.Environment) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		st, err := r.getState()
		if err != nil {
			return nil, err
		}
		r.rotateExecutor(st, cfg, env.BlockNumber())
		if err := r.saveState(st); err != nil {
			return nil, err
		}
		out := &xenv.Output{}
		out.AddEvent(xenv.Event{
			Action: "update_executor",
			Attrs: []xenv.Attr{
				xenv.NewAttr("epoch", strconv.FormatUint(st.LastEpoch, 10)),
				xenv.NewAttr("executor", executorString(st.Executor)),
			},
		})
		return out, nil
	})
}
