// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/xenv"
)

// CreateRequestInfo carries the caller-supplied fields of a new request.
type CreateRequestInfo struct {
	Target      auto.Address
	Msg         []byte
	InputAsset  *asset.Asset
	IsRecurring bool
}

// CreateRequest registers a request, escrows its input asset and, for
// one-shot requests, collects the execution fee from the attached funds.
// Recurring requests pay per execution out of the user's deposited fee
// pool instead and may not carry an input asset.
func (r *Registry) CreateRequest(env *xenv.Environment, info *CreateRequestInfo) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		st, err := r.getState()
		if err != nil {
			return nil, err
		}

		listed, err := r.isBlacklisted(info.Target)
		if err != nil {
			return nil, err
		}
		if listed {
			return nil, ErrTargetBlacklisted
		}

		sender := env.Sender()
		funds := env.Funds()
		out := &xenv.Output{}

		if info.IsRecurring {
			if info.InputAsset != nil {
				return nil, ErrNoInputAssetForRecurring
			}
		} else {
			paid := funds.AmountOf(cfg.FeeDenom)
			if paid.Sign() == 0 {
				return nil, ErrNoFeePaid
			}
			if paid.Cmp(cfg.FeeAmount) < 0 {
				return nil, ErrInsufficientFee
			}
		}

		if input := info.InputAsset; input != nil {
			if input.Info.IsNative() {
				required := new(big.Int).Set(input.Amount)
				if input.Info.Denom == cfg.FeeDenom {
					required.Add(required, cfg.FeeAmount)
				}
				if funds.AmountOf(input.Info.Denom).Cmp(required) < 0 {
					return nil, ErrInvalidInputAssets
				}
			} else if input.Amount.Sign() > 0 {
				// pull the token escrow from the user up front
				out.AddInstruction(&xenv.TokenTransferFrom{
					Token:  *input.Info.Contract,
					From:   sender,
					To:     r.addr,
					Amount: input.Amount,
				})
			}
		}

		id := st.NextRequestID
		req := &Request{
			User:        sender,
			Target:      info.Target,
			Msg:         info.Msg,
			InputAsset:  info.InputAsset,
			IsRecurring: info.IsRecurring,
			CreatedAt:   env.BlockNumber(),
		}
		if err := r.saveRequest(id, req); err != nil {
			return nil, err
		}
		st.NextRequestID++
		st.TotalRequests++
		r.rotateExecutor(st, cfg, env.BlockNumber())
		if err := r.saveState(st); err != nil {
			return nil, err
		}

		out.AddEvent(xenv.Event{
			Action: "create_request",
			Attrs: []xenv.Attr{
				xenv.NewAttr("id", strconv.FormatUint(id, 10)),
				xenv.NewAttr("user", sender.String()),
				xenv.NewAttr("target", info.Target.String()),
				xenv.NewAttr("recurring", strconv.FormatBool(info.IsRecurring)),
			},
		})
		return out, nil
	})
}

// CancelRequest removes a request owned by the caller and refunds its
// escrow: the input asset, plus the create fee for one-shot requests.
func (r *Registry) CancelRequest(env *xenv.Environment, id uint64) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		st, err := r.getState()
		if err != nil {
			return nil, err
		}
		req, found, err := r.getRequest(id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrNotFound
		}
		if req.User != env.Sender() {
			return nil, errors.WithMessage(ErrUnauthorized, "caller does not own request")
		}

		out := &xenv.Output{}
		if input := req.InputAsset; input != nil && input.Amount.Sign() > 0 {
			if input.Info.IsNative() {
				out.AddInstruction(&xenv.NativeSend{
					To:     req.User,
					Amount: asset.Coin{Denom: input.Info.Denom, Amount: input.Amount},
				})
			} else {
				out.AddInstruction(&xenv.TokenTransfer{
					Token:  *input.Info.Contract,
					To:     req.User,
					Amount: input.Amount,
				})
			}
		}
		if !req.IsRecurring {
			out.AddInstruction(&xenv.NativeSend{
				To:     req.User,
				Amount: asset.Coin{Denom: cfg.FeeDenom, Amount: cfg.FeeAmount},
			})
		}

		r.removeRequest(id)
		st.TotalRequests--
		if err := r.saveState(st); err != nil {
			return nil, err
		}

		out.AddEvent(xenv.Event{
			Action: "cancel_request",
			Attrs: []xenv.Attr{
				xenv.NewAttr("id", strconv.FormatUint(id, 10)),
			},
		})
		return out, nil
	})
}

// ExecuteRequest runs a request on behalf of the epoch's executor. The
// executor slot must already be rotated to the current epoch; execution
// never rotates it itself. While the downstream call is in flight the
// request id is parked in the state and only HandleReply releases it.
func (r *Registry) ExecuteRequest(env *xenv.Environment, id uint64) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		cfg, err := r.getConfig()
		if err != nil {
			return nil, err
		}
		st, err := r.getState()
		if err != nil {
			return nil, err
		}
		req, found, err := r.getRequest(id)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrNotFound
		}

		if epochOf(env.BlockNumber(), cfg.EpochLength) != st.LastEpoch {
			return nil, ErrExecutorNotUpdated
		}
		sender := env.Sender()
		if !st.Executor.IsZero() && sender != st.Executor {
			return nil, ErrInvalidExecutor
		}

		if req.IsRecurring {
			balance, err := r.recurringBalance(req.User)
			if err != nil {
				return nil, err
			}
			if balance.Cmp(cfg.FeeAmount) < 0 {
				return nil, ErrInsufficientRecurringFee
			}
			if err := r.setRecurringBalance(req.User, new(big.Int).Sub(balance, cfg.FeeAmount)); err != nil {
				return nil, err
			}
			st.TotalRecurringFee = new(big.Int).Sub(st.TotalRecurringFee, cfg.FeeAmount)
		}

		st.ExecutingRequestID = id

		out := &xenv.Output{}
		if input := req.InputAsset; input != nil && input.Amount.Sign() > 0 {
			if input.Info.IsNative() {
				out.AddInstruction(&xenv.NativeSend{
					To:     req.Target,
					Amount: asset.Coin{Denom: input.Info.Denom, Amount: input.Amount},
				})
			} else {
				out.AddInstruction(&xenv.TokenTransfer{
					Token:  *input.Info.Contract,
					To:     req.Target,
					Amount: input.Amount,
				})
			}
		}
		out.AddInstruction(&xenv.Call{
			To:      req.Target,
			Payload: req.Msg,
			ReplyID: xenv.ReplyExecution,
			ReplyOn: xenv.ReplySuccess,
		})
		out.AddInstruction(&xenv.NativeSend{
			To:     sender,
			Amount: asset.Coin{Denom: cfg.FeeDenom, Amount: cfg.FeeAmount},
		})

		if !req.IsRecurring {
			r.removeRequest(id)
			st.TotalRequests--
		}
		if err := r.saveState(st); err != nil {
			return nil, err
		}

		out.AddEvent(xenv.Event{
			Action: "execute_request",
			Attrs: []xenv.Attr{
				xenv.NewAttr("id", strconv.FormatUint(id, 10)),
				xenv.NewAttr("executor", sender.String()),
			},
		})
		return out, nil
	})
}

// HandleReply finalizes an in-flight execution once the downstream call
// has succeeded. Any reply id other than the execution reply, or a reply
// with no execution in flight, is rejected.
func (r *Registry) HandleReply(replyID uint64) (*xenv.Output, error) {
	return r.run(func() (*xenv.Output, error) {
		if replyID != xenv.ReplyExecution {
			return nil, errors.WithMessage(ErrUnauthorized, "unexpected reply id")
		}
		st, err := r.getState()
		if err != nil {
			return nil, err
		}
		// a stray reply is rejected rather than silently resetting the
		// marker; the host only delivers replies it was asked for, so a
		// reply without a matching execution means a misbehaving caller
		if st.ExecutingRequestID == auto.NoRequestID {
			return nil, errors.WithMessage(ErrUnauthorized, "no execution in flight")
		}
		id := st.ExecutingRequestID
		st.ExecutingRequestID = auto.NoRequestID
		if err := r.saveState(st); err != nil {
			return nil, err
		}

		out := &xenv.Output{}
		out.AddEvent(xenv.Event{
			Action: "finalize_execute",
			Attrs: []xenv.Attr{
				xenv.NewAttr("id", strconv.FormatUint(id, 10)),
			},
		})
		return out, nil
	})
}
