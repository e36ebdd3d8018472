// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math/big"
	"strconv"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/xenv"
)

// DepositRecurringFee tops up the caller's recurring fee pool by a whole
// number of execution fees. The attached funds must match exactly.
func (r *Registry) DepositRecurringFee(env *xenv.Environment, recurringCount uint64) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		if recurringCount == 0 {
			return nil, ErrInvalidRecurringCount
		}
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		amount := new(big.Int).Mul(cfg.FeeAmount, new(big.Int).SetUint64(recurringCount))
		if env.Funds().AmountOf(cfg.FeeDenom).Cmp(amount) != 0 {
			return nil, ErrInvalidRecurringCount
		}

		sender := env.Sender()
		balance, err := r.recurringBalance(sender)
		if err != nil {
			return nil, err
		}
		if err := r.setRecurringBalance(sender, new(big.Int).Add(balance, amount)); err != nil {
			return nil, err
		}
		st, err := r.getState()
		if err != nil {
			return nil, err
		}
		st.TotalRecurringFee = new(big.Int).Add(st.TotalRecurringFee, amount)
		if err := r.saveState(st); err != nil {
			return nil, err
		}

		out := &xenv.Output{}
		out.AddEvent(xenv.Event{
			Action: "deposit_recurring_fee",
			Attrs: []xenv.Attr{
				xenv.NewAttr("recurring_count", strconv.FormatUint(recurringCount, 10)),
				xenv.NewAttr("amount", amount.String()),
			},
		})
		return out, nil
	})
}

// WithdrawRecurringFee pays back a whole number of execution fees from
// the caller's recurring fee pool. A pool smaller than the requested
// count rejects the whole withdrawal.
func (r *Registry) WithdrawRecurringFee(env *xenv.Environment, recurringCount uint64) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		if recurringCount == 0 {
			return nil, ErrInvalidRecurringCount
		}
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		amount := new(big.Int).Mul(cfg.FeeAmount, new(big.Int).SetUint64(recurringCount))

		sender := env.Sender()
		balance, err := r.recurringBalance(sender)
		if err != nil {
			return nil, err
		}
		if balance.Cmp(amount) < 0 {
			return nil, ErrInvalidRecurringCount
		}
		if err := r.setRecurringBalance(sender, new(big.Int).Sub(balance, amount)); err != nil {
			return nil, err
		}
		st, err := r.getState()
		if err != nil {
			return nil, err
		}
		st.TotalRecurringFee, err = subChecked(st.TotalRecurringFee, amount)
		if err != nil {
			return nil, err
		}
		if err := r.saveState(st); err != nil {
			return nil, err
		}

		out := &xenv.Output{}
		if amount.Sign() > 0 {
			out.AddInstruction(&xenv.NativeSend{
				To:     sender,
				Amount: asset.Coin{Denom: cfg.FeeDenom, Amount: amount},
			})
		}
		out.AddEvent(xenv.Event{
			Action: "withdraw_recurring_fee",
			Attrs: []xenv.Attr{
				xenv.NewAttr("recurring_count", strconv.FormatUint(recurringCount, 10)),
				xenv.NewAttr("amount", amount.String()),
			},
		})
		return out, nil
	})
}
