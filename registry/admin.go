// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"github.com/pkg/errors"

	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/xenv"
)

// UpdateConfig applies an admin-supplied partial config update. The stake
// token and stake amount are structural and may never change; proposing a
// new admin only records the candidate, who must claim the role.
func (r *Registry) UpdateConfig(env *xenv.Environment, patch *ConfigPatch) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		if err := r.requireAdmin(env.Sender()); err != nil {
			return nil, err
		}
		if patch.StakeToken != nil || patch.StakeAmount != nil {
			return nil, ErrUpdateConfig
		}
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		if patch.FeeAmount != nil {
			cfg.FeeAmount = patch.FeeAmount
		}
		if patch.FeeDenom != nil {
			cfg.FeeDenom = *patch.FeeDenom
		}
		if patch.EpochLength != nil {
			if *patch.EpochLength == 0 {
				return nil, ErrUpdateConfig
			}
			cfg.EpochLength = *patch.EpochLength
		}
		if err := r.saveConfig(cfg); err != nil {
			return nil, err
		}
		if patch.Admin != nil {
			r.setAddress(pendingAdminKey, *patch.Admin)
		}

		out := &xenv.Output{}
		out.AddEvent(xenv.Event{
			Action: "update_config",
		})
		return out, nil
	})
}

// ClaimAdmin promotes the pending admin candidate to admin. Only the
// candidate itself may claim.
func (r *Registry) ClaimAdmin(env *xenv.Environment) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		pending, err := r.getAddress(pendingAdminKey)
		if err != nil {
			return nil, err
		}
		sender := env.Sender()
		if pending.IsZero() || pending != sender {
			return nil, errors.WithMessage(ErrUnauthorized, "caller is not the pending admin")
		}
		r.setAddress(adminKey, sender)
		r.setAddress(pendingAdminKey, auto.Address{})

		out := &xenv.Output{}
		out.AddEvent(xenv.Event{
			Action: "claim_admin",
			Attrs: []xenv.Attr{
				xenv.NewAttr("new admin", sender.String()),
			},
		})
		return out, nil
	})
}

// AddToBlacklist marks targets as unusable by new requests.
// Existing requests against a listed target are unaffected.
func (r *Registry) AddToBlacklist(env *xenv.Environment, targets []auto.Address) (*xenv.Output, error) {
	return r.setBlacklist(env, targets, true, "add_to_blacklist")
}

// RemoveFromBlacklist clears targets from the blacklist.
func (r *Registry) RemoveFromBlacklist(env *xenv.Environment, targets []auto.Address) (*xenv.Output, error) {
	return r.setBlacklist(env, targets, false, "remove_from_blacklist")
}

func (r *Registry) setBlacklist(env *xenv.Environment, targets []auto.Address, listed bool, action string) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		if err := r.requireAdmin(env.Sender()); err != nil {
			return nil, err
		}
		for _, target := range targets {
			r.setBlacklisted(target, listed)
		}
		out := &xenv.Output{}
		out.AddEvent(xenv.Event{
			Action: action,
		})
		return out, nil
	})
}
