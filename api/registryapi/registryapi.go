// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registryapi exposes the registry over HTTP. Queries read the
// committed state, mutations are submitted to the hosting solo chain.
package registryapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/autonomy-network/autonomy-registry/api/utils"
	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/registry"
	"github.com/autonomy-network/autonomy-registry/solo"
)

// RegistryAPI serves registry queries and calls.
type RegistryAPI struct {
	host *solo.Host
}

// New creates the api around a solo host.
func New(host *solo.Host) *RegistryAPI {
	return &RegistryAPI{host}
}

var rejections = []error{
	registry.ErrIncompleteParams,
	registry.ErrNoFeePaid,
	registry.ErrInsufficientFee,
	registry.ErrInvalidInputAssets,
	registry.ErrNoInputAssetForRecurring,
	registry.ErrInvalidStakeInfo,
	registry.ErrInvalidStakeToken,
	registry.ErrDataShouldBeGiven,
	registry.ErrIdxOutOfBound,
	registry.ErrIdxNotYou,
	registry.ErrInvalidRecurringCount,
	registry.ErrInsufficientRecurringFee,
	registry.ErrTargetBlacklisted,
	registry.ErrExecutorNotUpdated,
	registry.ErrInvalidExecutor,
	registry.ErrUpdateConfig,
	registry.ErrOverflow,
}

// convertCallError maps domain rejections onto http statuses, leaving
// everything else to respond 500.
func convertCallError(err error) error {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return utils.NotFound(err)
	case errors.Is(err, registry.ErrUnauthorized):
		return utils.Forbidden(err)
	}
	for _, rejection := range rejections {
		if errors.Is(err, rejection) {
			return utils.BadRequest(err)
		}
	}
	return err
}

func (a *RegistryAPI) handleGetConfig(w http.ResponseWriter, _ *http.Request) error {
	cfg, err := a.host.Registry().GetConfig()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertConfig(cfg))
}

func (a *RegistryAPI) handleGetState(w http.ResponseWriter, _ *http.Request) error {
	st, err := a.host.Registry().GetState()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertState(st))
}

func (a *RegistryAPI) handleGetEpoch(w http.ResponseWriter, req *http.Request) error {
	height := a.host.Height()
	if raw := req.URL.Query().Get("height"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "height"))
		}
		height = parsed
	}
	info, err := a.host.Registry().GetEpochInfo(height)
	if err != nil {
		return err
	}
	executor := ""
	if !info.Executor.IsZero() {
		executor = info.Executor.String()
	}
	return utils.WriteJSON(w, &EpochInfo{
		CurrentEpoch: info.CurrentEpoch,
		LastEpoch:    info.LastEpoch,
		Executor:     executor,
	})
}

func (a *RegistryAPI) handleGetRequest(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	info, err := a.host.Registry().GetRequest(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertRequest(info))
}

func (a *RegistryAPI) handleGetRequests(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	var start *uint64
	if raw := query.Get("start"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "start"))
		}
		start = &parsed
	}
	var limit *uint32
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "limit"))
		}
		l := uint32(parsed)
		limit = &l
	}
	descending := query.Get("desc") == "true"

	infos, err := a.host.Registry().GetRequests(start, limit, !descending)
	if err != nil {
		return err
	}
	out := make([]*Request, 0, len(infos))
	for _, info := range infos {
		out = append(out, convertRequest(info))
	}
	return utils.WriteJSON(w, out)
}

func (a *RegistryAPI) handleGetStakes(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	var start, limit uint64
	var err error
	if raw := query.Get("start"); raw != "" {
		if start, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "start"))
		}
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err = strconv.ParseUint(raw, 10, 64); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "limit"))
		}
	}
	stakes, err := a.host.Registry().GetStakes(start, limit)
	if err != nil {
		return err
	}
	if stakes == nil {
		stakes = []auto.Address{}
	}
	return utils.WriteJSON(w, stakes)
}

func (a *RegistryAPI) handleGetStakeBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := pathAddress(req)
	if err != nil {
		return err
	}
	balance, err := a.host.Registry().GetStakeAmount(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"address": addr, "amount": balance})
}

func (a *RegistryAPI) handleGetRecurringFee(w http.ResponseWriter, req *http.Request) error {
	addr, err := pathAddress(req)
	if err != nil {
		return err
	}
	balance, err := a.host.Registry().GetRecurringFee(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"address": addr, "amount": balance})
}

func (a *RegistryAPI) handleGetBlacklist(w http.ResponseWriter, _ *http.Request) error {
	listed, err := a.host.Registry().GetBlacklist()
	if err != nil {
		return err
	}
	if listed == nil {
		listed = []auto.Address{}
	}
	return utils.WriteJSON(w, listed)
}

func (a *RegistryAPI) handleGetAdmin(w http.ResponseWriter, _ *http.Request) error {
	admin, err := a.host.Registry().GetAdmin()
	if err != nil {
		return err
	}
	pending, err := a.host.Registry().GetPendingAdmin()
	if err != nil {
		return err
	}
	resp := utils.M{"admin": admin.String()}
	if pending.IsZero() {
		resp["pendingAdmin"] = ""
	} else {
		resp["pendingAdmin"] = pending.String()
	}
	return utils.WriteJSON(w, resp)
}

func (a *RegistryAPI) handleCreateRequest(w http.ResponseWriter, req *http.Request) error {
	var body CreateRequest
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	funds, err := convertFunds(body.Funds)
	if err != nil {
		return utils.BadRequest(err)
	}
	input, err := convertAssetIn(body.InputAsset)
	if err != nil {
		return utils.BadRequest(err)
	}
	receipt, err := a.host.CreateRequest(body.Sender, funds, &registry.CreateRequestInfo{
		Target:      body.Target,
		Msg:         body.Msg,
		InputAsset:  input,
		IsRecurring: body.IsRecurring,
	})
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleCancelRequest(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	var body SenderOnly
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	receipt, err := a.host.CancelRequest(body.Sender, id)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleExecuteRequest(w http.ResponseWriter, req *http.Request) error {
	id, err := pathID(req)
	if err != nil {
		return err
	}
	var body SenderOnly
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	receipt, err := a.host.ExecuteRequest(body.Sender, id)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleUpdateExecutor(w http.ResponseWriter, req *http.Request) error {
	var body SenderOnly
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	receipt, err := a.host.UpdateExecutor(body.Sender)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleStake(w http.ResponseWriter, req *http.Request) error {
	var body Stake
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	funds, err := convertFunds(body.Funds)
	if err != nil {
		return utils.BadRequest(err)
	}
	receipt, err := a.host.Stake(body.Sender, funds, body.NumStakes)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleTokenStake(w http.ResponseWriter, req *http.Request) error {
	var body TokenStake
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Amount == nil || body.Amount.Sign() < 0 {
		return utils.BadRequest(errors.New("invalid amount"))
	}
	receipt, err := a.host.SendToken(body.Token, body.Sender, body.Amount, body.Data)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleUnstake(w http.ResponseWriter, req *http.Request) error {
	var body Unstake
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	receipt, err := a.host.Unstake(body.Sender, body.Indexes)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleDepositRecurringFee(w http.ResponseWriter, req *http.Request) error {
	var body RecurringFee
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	funds, err := convertFunds(body.Funds)
	if err != nil {
		return utils.BadRequest(err)
	}
	receipt, err := a.host.DepositRecurringFee(body.Sender, funds, body.RecurringCount)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleWithdrawRecurringFee(w http.ResponseWriter, req *http.Request) error {
	var body RecurringFee
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	receipt, err := a.host.WithdrawRecurringFee(body.Sender, body.RecurringCount)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleUpdateConfig(w http.ResponseWriter, req *http.Request) error {
	var body ConfigUpdate
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	patch := &registry.ConfigPatch{
		Admin:       body.Admin,
		FeeAmount:   body.FeeAmount,
		FeeDenom:    body.FeeDenom,
		StakeAmount: body.StakeAmount,
		EpochLength: body.EpochLength,
	}
	if body.StakeToken != nil {
		var info asset.Info
		if body.StakeToken.Contract != nil {
			info = asset.TokenInfo(*body.StakeToken.Contract)
		} else {
			info = asset.NativeInfo(body.StakeToken.Denom)
		}
		patch.StakeToken = &info
	}
	receipt, err := a.host.UpdateConfig(body.Sender, patch)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleClaimAdmin(w http.ResponseWriter, req *http.Request) error {
	var body SenderOnly
	if err := utils.ParseJSON(req.Body, &body); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	receipt, err := a.host.ClaimAdmin(body.Sender)
	if err != nil {
		return convertCallError(err)
	}
	return utils.WriteJSON(w, receipt)
}

func (a *RegistryAPI) handleBlacklist(add bool) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		var body Blacklist
		if err := utils.ParseJSON(req.Body, &body); err != nil {
			return utils.BadRequest(errors.WithMessage(err, "body"))
		}
		var receipt *solo.Receipt
		var err error
		if add {
			receipt, err = a.host.AddToBlacklist(body.Sender, body.Targets)
		} else {
			receipt, err = a.host.RemoveFromBlacklist(body.Sender, body.Targets)
		}
		if err != nil {
			return convertCallError(err)
		}
		return utils.WriteJSON(w, receipt)
	}
}

func pathID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	return id, nil
}

func pathAddress(req *http.Request) (auto.Address, error) {
	addr, err := auto.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return auto.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return addr, nil
}

// Mount attaches the api to a router under the path prefix.
func (a *RegistryAPI) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/config").
		Methods(http.MethodGet).
		Name("registry_get_config").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetConfig))
	sub.Path("/config").
		Methods(http.MethodPost).
		Name("registry_update_config").
		HandlerFunc(utils.WrapHandlerFunc(a.handleUpdateConfig))
	sub.Path("/state").
		Methods(http.MethodGet).
		Name("registry_get_state").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetState))
	sub.Path("/epoch").
		Methods(http.MethodGet).
		Name("registry_get_epoch").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetEpoch))
	sub.Path("/executor").
		Methods(http.MethodPost).
		Name("registry_update_executor").
		HandlerFunc(utils.WrapHandlerFunc(a.handleUpdateExecutor))
	sub.Path("/requests").
		Methods(http.MethodGet).
		Name("registry_get_requests").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetRequests))
	sub.Path("/requests").
		Methods(http.MethodPost).
		Name("registry_create_request").
		HandlerFunc(utils.WrapHandlerFunc(a.handleCreateRequest))
	sub.Path("/requests/{id}").
		Methods(http.MethodGet).
		Name("registry_get_request").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetRequest))
	sub.Path("/requests/{id}/cancel").
		Methods(http.MethodPost).
		Name("registry_cancel_request").
		HandlerFunc(utils.WrapHandlerFunc(a.handleCancelRequest))
	sub.Path("/requests/{id}/execute").
		Methods(http.MethodPost).
		Name("registry_execute_request").
		HandlerFunc(utils.WrapHandlerFunc(a.handleExecuteRequest))
	sub.Path("/stakes").
		Methods(http.MethodGet).
		Name("registry_get_stakes").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetStakes))
	sub.Path("/stakes").
		Methods(http.MethodPost).
		Name("registry_stake").
		HandlerFunc(utils.WrapHandlerFunc(a.handleStake))
	sub.Path("/stakes/receive").
		Methods(http.MethodPost).
		Name("registry_token_stake").
		HandlerFunc(utils.WrapHandlerFunc(a.handleTokenStake))
	sub.Path("/stakes/unstake").
		Methods(http.MethodPost).
		Name("registry_unstake").
		HandlerFunc(utils.WrapHandlerFunc(a.handleUnstake))
	sub.Path("/stakes/{address}").
		Methods(http.MethodGet).
		Name("registry_get_stake_balance").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetStakeBalance))
	sub.Path("/recurring/deposit").
		Methods(http.MethodPost).
		Name("registry_deposit_recurring_fee").
		HandlerFunc(utils.WrapHandlerFunc(a.handleDepositRecurringFee))
	sub.Path("/recurring/withdraw").
		Methods(http.MethodPost).
		Name("registry_withdraw_recurring_fee").
		HandlerFunc(utils.WrapHandlerFunc(a.handleWithdrawRecurringFee))
	sub.Path("/recurring/{address}").
		Methods(http.MethodGet).
		Name("registry_get_recurring_fee").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetRecurringFee))
	sub.Path("/blacklist").
		Methods(http.MethodGet).
		Name("registry_get_blacklist").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetBlacklist))
	sub.Path("/blacklist/add").
		Methods(http.MethodPost).
		Name("registry_add_to_blacklist").
		HandlerFunc(utils.WrapHandlerFunc(a.handleBlacklist(true)))
	sub.Path("/blacklist/remove").
		Methods(http.MethodPost).
		Name("registry_remove_from_blacklist").
		HandlerFunc(utils.WrapHandlerFunc(a.handleBlacklist(false)))
	sub.Path("/admin").
		Methods(http.MethodGet).
		Name("registry_get_admin").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAdmin))
	sub.Path("/admin/claim").
		Methods(http.MethodPost).
		Name("registry_claim_admin").
		HandlerFunc(utils.WrapHandlerFunc(a.handleClaimAdmin))
}
