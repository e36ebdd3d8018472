// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/lvldb"
	"github.com/autonomy-network/autonomy-registry/state"
	"github.com/autonomy-network/autonomy-registry/xenv"
)

var (
	registryAddr = auto.MustParseAddress("0x00000000000000000000004175746f6e6f6d7901")
	adminAddr    = auto.MustParseAddress("0x1000000000000000000000000000000000000001")
	userAddr     = auto.MustParseAddress("0x2000000000000000000000000000000000000001")
	otherAddr    = auto.MustParseAddress("0x2000000000000000000000000000000000000002")
	targetAddr   = auto.MustParseAddress("0x3000000000000000000000000000000000000001")
	tokenAddr    = auto.MustParseAddress("0x4000000000000000000000000000000000000001")
)

const (
	testFeeDenom   = "utest"
	testStakeDenom = "uauto"
	testEpochLen   = 100
)

var (
	testFee   = big.NewInt(10000)
	testStake = big.NewInt(1000)
)

func testParams() *Params {
	stakeToken := asset.NativeInfo(testStakeDenom)
	return &Params{
		Admin:       &adminAddr,
		FeeAmount:   testFee,
		FeeDenom:    testFeeDenom,
		StakeToken:  &stakeToken,
		StakeAmount: testStake,
		EpochLength: testEpochLen,
	}
}

func newTestRegistry(t *testing.T, params *Params) *Registry {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := New(registryAddr, state.New(db))
	require.NoError(t, reg.Instantiate(params))
	return reg
}

func env(sender auto.Address, height uint64, funds ...asset.Coin) *xenv.Environment {
	return xenv.New(
		&xenv.BlockContext{Number: height, Time: height * auto.BlockInterval},
		&xenv.Message{Sender: sender, Funds: funds},
	)
}

func coin(denom string, amount int64) asset.Coin {
	return asset.NewCoin(denom, big.NewInt(amount))
}

func feeCoin() asset.Coin {
	return asset.NewCoin(testFeeDenom, testFee)
}

// stakeSlots buys n roll slots for user at the given height.
func stakeSlots(t *testing.T, reg *Registry, user auto.Address, n uint64, height uint64) {
	total := new(big.Int).Mul(testStake, new(big.Int).SetUint64(n))
	_, err := reg.Stake(env(user, height, asset.NewCoin(testStakeDenom, total)), n)
	require.NoError(t, err)
}

func findEvent(out *xenv.Output, action string) *xenv.Event {
	for i := range out.Events {
		if out.Events[i].Action == action {
			return &out.Events[i]
		}
	}
	return nil
}

func TestInstantiate(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	reg := New(registryAddr, state.New(db))

	incomplete := testParams()
	incomplete.FeeDenom = ""
	assert.ErrorIs(t, reg.Instantiate(incomplete), ErrIncompleteParams)

	ok, err := reg.Initialized()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, reg.Instantiate(testParams()))
	ok, err = reg.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)

	cfg, err := reg.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, testFee, cfg.FeeAmount)
	assert.Equal(t, testFeeDenom, cfg.FeeDenom)
	assert.True(t, cfg.StakeToken.IsNative())
	assert.Equal(t, testStakeDenom, cfg.StakeToken.Denom)
	assert.Equal(t, testStake, cfg.StakeAmount)
	assert.Equal(t, uint64(testEpochLen), cfg.EpochLength)

	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, auto.NoRequestID, st.ExecutingRequestID)
	assert.Equal(t, uint64(0), st.NextRequestID)
	assert.Equal(t, uint64(0), st.TotalRequests)
	assert.Zero(t, st.TotalStaked.Sign())
	assert.Zero(t, st.TotalRecurringFee.Sign())
	assert.Empty(t, st.Stakes)
	assert.True(t, st.Executor.IsZero())

	admin, err := reg.GetAdmin()
	require.NoError(t, err)
	assert.Equal(t, adminAddr, admin)
}

func TestCreateRequestFee(t *testing.T) {
	reg := newTestRegistry(t, testParams())
	info := &CreateRequestInfo{Target: targetAddr, Msg: []byte(`{"do":{}}`)}

	_, err := reg.CreateRequest(env(userAddr, 1), info)
	assert.ErrorIs(t, err, ErrNoFeePaid)

	_, err = reg.CreateRequest(env(userAddr, 1, coin(testFeeDenom, 9999)), info)
	assert.ErrorIs(t, err, ErrInsufficientFee)

	// a failed create leaves nothing behind
	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), st.NextRequestID)

	out, err := reg.CreateRequest(env(userAddr, 1, feeCoin()), info)
	require.NoError(t, err)
	ev := findEvent(out, "create_request")
	require.NotNil(t, ev)
	assert.Equal(t, "0", ev.Attrs[0].Value)

	st, err = reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.NextRequestID)
	assert.Equal(t, uint64(1), st.TotalRequests)

	got, err := reg.GetRequest(0)
	require.NoError(t, err)
	assert.Equal(t, userAddr, got.Request.User)
	assert.Equal(t, targetAddr, got.Request.Target)
	assert.Equal(t, []byte(`{"do":{}}`), got.Request.Msg)
	assert.False(t, got.Request.IsRecurring)
	assert.Equal(t, uint64(1), got.Request.CreatedAt)
}

func TestCreateRequestBlacklist(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	_, err := reg.AddToBlacklist(env(userAddr, 1), []auto.Address{targetAddr})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = reg.AddToBlacklist(env(adminAddr, 1), []auto.Address{targetAddr})
	require.NoError(t, err)

	listed, err := reg.GetBlacklist()
	require.NoError(t, err)
	assert.Equal(t, []auto.Address{targetAddr}, listed)

	info := &CreateRequestInfo{Target: targetAddr}
	_, err = reg.CreateRequest(env(userAddr, 1, feeCoin()), info)
	assert.ErrorIs(t, err, ErrTargetBlacklisted)

	_, err = reg.RemoveFromBlacklist(env(adminAddr, 1), []auto.Address{targetAddr})
	require.NoError(t, err)

	listed, err = reg.GetBlacklist()
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = reg.CreateRequest(env(userAddr, 1, feeCoin()), info)
	assert.NoError(t, err)
}

func TestCreateRequestInputAsset(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	// native input in the fee denom must be attached on top of the fee
	info := &CreateRequestInfo{
		Target:     targetAddr,
		InputAsset: asset.Native(testFeeDenom, big.NewInt(500)),
	}
	_, err := reg.CreateRequest(env(userAddr, 1, feeCoin()), info)
	assert.ErrorIs(t, err, ErrInvalidInputAssets)

	_, err = reg.CreateRequest(env(userAddr, 1, coin(testFeeDenom, 10500)), info)
	require.NoError(t, err)

	// token input is pulled from the user into custody
	info = &CreateRequestInfo{
		Target:     targetAddr,
		InputAsset: asset.Token(tokenAddr, big.NewInt(700)),
	}
	out, err := reg.CreateRequest(env(userAddr, 1, feeCoin()), info)
	require.NoError(t, err)
	require.Len(t, out.Instructions, 1)
	pull, ok := out.Instructions[0].(*xenv.TokenTransferFrom)
	require.True(t, ok)
	assert.Equal(t, tokenAddr, pull.Token)
	assert.Equal(t, userAddr, pull.From)
	assert.Equal(t, registryAddr, pull.To)
	assert.Equal(t, big.NewInt(700), pull.Amount)
}

func TestCreateRecurringRequest(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	_, err := reg.CreateRequest(env(userAddr, 1), &CreateRequestInfo{
		Target:      targetAddr,
		IsRecurring: true,
		InputAsset:  asset.Native(testFeeDenom, big.NewInt(1)),
	})
	assert.ErrorIs(t, err, ErrNoInputAssetForRecurring)

	// no create fee for recurring requests
	out, err := reg.CreateRequest(env(userAddr, 1), &CreateRequestInfo{
		Target:      targetAddr,
		IsRecurring: true,
	})
	require.NoError(t, err)
	assert.Empty(t, out.Instructions)

	got, err := reg.GetRequest(0)
	require.NoError(t, err)
	assert.True(t, got.Request.IsRecurring)
}

func TestCancelRequest(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	_, err := reg.CancelRequest(env(userAddr, 1), 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reg.CreateRequest(env(userAddr, 1, coin(testFeeDenom, 10500)), &CreateRequestInfo{
		Target:     targetAddr,
		InputAsset: asset.Native(testFeeDenom, big.NewInt(500)),
	})
	require.NoError(t, err)

	_, err = reg.CancelRequest(env(otherAddr, 2), 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	out, err := reg.CancelRequest(env(userAddr, 2), 0)
	require.NoError(t, err)
	require.Len(t, out.Instructions, 2)
	refund := out.Instructions[0].(*xenv.NativeSend)
	assert.Equal(t, userAddr, refund.To)
	assert.Equal(t, big.NewInt(500), refund.Amount.Amount)
	fee := out.Instructions[1].(*xenv.NativeSend)
	assert.Equal(t, userAddr, fee.To)
	assert.Equal(t, testFee, fee.Amount.Amount)

	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), st.TotalRequests)
	// ids are never reused
	assert.Equal(t, uint64(1), st.NextRequestID)

	got, err := reg.GetRequest(0)
	require.NoError(t, err)
	assert.True(t, got.Request.User.IsZero())
}

func TestCancelRecurringSkipsFeeRefund(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	_, err := reg.CreateRequest(env(userAddr, 1), &CreateRequestInfo{Target: targetAddr, IsRecurring: true})
	require.NoError(t, err)

	out, err := reg.CancelRequest(env(userAddr, 2), 0)
	require.NoError(t, err)
	assert.Empty(t, out.Instructions)
}

func TestExecuteRequest(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	// height 100 opens a fresh epoch, staking rotates into it
	stakeSlots(t, reg, otherAddr, 1, 100)
	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), st.LastEpoch)
	assert.Equal(t, otherAddr, st.Executor)

	_, err = reg.CreateRequest(env(userAddr, 110, coin(testFeeDenom, 10500)), &CreateRequestInfo{
		Target:     targetAddr,
		Msg:        []byte(`{"do":{}}`),
		InputAsset: asset.Native(testFeeDenom, big.NewInt(500)),
	})
	require.NoError(t, err)

	_, err = reg.ExecuteRequest(env(userAddr, 110), 99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reg.ExecuteRequest(env(userAddr, 110), 0)
	assert.ErrorIs(t, err, ErrInvalidExecutor)

	out, err := reg.ExecuteRequest(env(otherAddr, 110), 0)
	require.NoError(t, err)
	require.Len(t, out.Instructions, 3)

	input := out.Instructions[0].(*xenv.NativeSend)
	assert.Equal(t, targetAddr, input.To)
	assert.Equal(t, big.NewInt(500), input.Amount.Amount)

	call := out.Instructions[1].(*xenv.Call)
	assert.Equal(t, targetAddr, call.To)
	assert.Equal(t, []byte(`{"do":{}}`), call.Payload)
	assert.Equal(t, xenv.ReplyExecution, call.ReplyID)
	assert.Equal(t, xenv.ReplySuccess, call.ReplyOn)

	reward := out.Instructions[2].(*xenv.NativeSend)
	assert.Equal(t, otherAddr, reward.To)
	assert.Equal(t, testFee, reward.Amount.Amount)

	// one-shot requests leave the store right away, finalization pending
	st, err = reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), st.ExecutingRequestID)
	assert.Equal(t, uint64(0), st.TotalRequests)

	_, err = reg.HandleReply(7)
	assert.ErrorIs(t, err, ErrUnauthorized)

	out, err = reg.HandleReply(xenv.ReplyExecution)
	require.NoError(t, err)
	assert.NotNil(t, findEvent(out, "finalize_execute"))

	st, err = reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, auto.NoRequestID, st.ExecutingRequestID)

	_, err = reg.HandleReply(xenv.ReplyExecution)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestExecuteRequiresRotation(t *testing.T) {
	reg := newTestRegistry(t, testParams())
	stakeSlots(t, reg, otherAddr, 1, 100)

	_, err := reg.CreateRequest(env(userAddr, 110, feeCoin()), &CreateRequestInfo{Target: targetAddr})
	require.NoError(t, err)

	// the next epoch starts at 200; execution never rotates by itself
	_, err = reg.ExecuteRequest(env(otherAddr, 200), 0)
	assert.ErrorIs(t, err, ErrExecutorNotUpdated)

	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), st.LastEpoch)

	_, err = reg.UpdateExecutor(env(otherAddr, 200))
	require.NoError(t, err)

	_, err = reg.ExecuteRequest(env(otherAddr, 200), 0)
	assert.NoError(t, err)
}

func TestExecuteOpenExecutorSlot(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	// nobody staked: the slot stays open and anyone may execute
	_, err := reg.CreateRequest(env(userAddr, 10, feeCoin()), &CreateRequestInfo{Target: targetAddr})
	require.NoError(t, err)

	_, err = reg.ExecuteRequest(env(otherAddr, 10), 0)
	assert.NoError(t, err)
}

func TestExecuteRecurring(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	_, err := reg.CreateRequest(env(userAddr, 10), &CreateRequestInfo{Target: targetAddr, IsRecurring: true})
	require.NoError(t, err)

	_, err = reg.ExecuteRequest(env(otherAddr, 10), 0)
	assert.ErrorIs(t, err, ErrInsufficientRecurringFee)

	_, err = reg.DepositRecurringFee(env(userAddr, 10, coin(testFeeDenom, 20000)), 2)
	require.NoError(t, err)

	_, err = reg.ExecuteRequest(env(otherAddr, 10), 0)
	require.NoError(t, err)
	_, err = reg.HandleReply(xenv.ReplyExecution)
	require.NoError(t, err)

	// the request survives and the pool is down one fee
	got, err := reg.GetRequest(0)
	require.NoError(t, err)
	assert.True(t, got.Request.IsRecurring)

	pool, err := reg.GetRecurringFee(userAddr)
	require.NoError(t, err)
	assert.Equal(t, testFee, pool)

	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, testFee, st.TotalRecurringFee)
	assert.Equal(t, uint64(1), st.TotalRequests)

	_, err = reg.ExecuteRequest(env(otherAddr, 11), 0)
	require.NoError(t, err)
	_, err = reg.HandleReply(xenv.ReplyExecution)
	require.NoError(t, err)

	_, err = reg.ExecuteRequest(env(otherAddr, 12), 0)
	assert.ErrorIs(t, err, ErrInsufficientRecurringFee)
}

func TestStake(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	_, err := reg.Stake(env(userAddr, 1, coin(testStakeDenom, 1500)), 2)
	assert.ErrorIs(t, err, ErrInvalidStakeInfo)

	out, err := reg.Stake(env(userAddr, 1, coin(testStakeDenom, 2000)), 2)
	require.NoError(t, err)
	ev := findEvent(out, "stake")
	require.NotNil(t, ev)
	assert.Equal(t, "2", ev.Attrs[1].Value)

	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, []auto.Address{userAddr, userAddr}, st.Stakes)
	assert.Equal(t, big.NewInt(2000), st.TotalStaked)

	staked, err := reg.GetStakeAmount(userAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000), staked)
}

func TestUnstake(t *testing.T) {
	reg := newTestRegistry(t, testParams())
	stakeSlots(t, reg, userAddr, 2, 1)
	stakeSlots(t, reg, otherAddr, 1, 1)
	// roll: [user, user, other]

	_, err := reg.Unstake(env(userAddr, 2), []int{3})
	assert.ErrorIs(t, err, ErrIdxOutOfBound)

	_, err = reg.Unstake(env(userAddr, 2), []int{2})
	assert.ErrorIs(t, err, ErrIdxNotYou)

	// swap-remove moves the last slot into the hole: after removing
	// index 0 the roll is [other, user], so index 0 no longer belongs
	// to the caller
	_, err = reg.Unstake(env(userAddr, 2), []int{0, 0})
	assert.ErrorIs(t, err, ErrIdxNotYou)

	// the failed call left the roll untouched
	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, []auto.Address{userAddr, userAddr, otherAddr}, st.Stakes)

	out, err := reg.Unstake(env(userAddr, 2), []int{0, 1})
	require.NoError(t, err)
	require.Len(t, out.Instructions, 1)
	refund := out.Instructions[0].(*xenv.NativeSend)
	assert.Equal(t, userAddr, refund.To)
	assert.Equal(t, testStakeDenom, refund.Amount.Denom)
	assert.Equal(t, big.NewInt(2000), refund.Amount.Amount)

	st, err = reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, []auto.Address{otherAddr}, st.Stakes)
	assert.Equal(t, big.NewInt(1000), st.TotalStaked)

	staked, err := reg.GetStakeAmount(userAddr)
	require.NoError(t, err)
	assert.Zero(t, staked.Sign())
}

func TestRotation(t *testing.T) {
	reg := newTestRegistry(t, testParams())
	stakeSlots(t, reg, userAddr, 1, 150)

	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), st.LastEpoch)
	assert.Equal(t, userAddr, st.Executor)

	// idempotent within an epoch
	_, err = reg.UpdateExecutor(env(otherAddr, 199))
	require.NoError(t, err)
	st, err = reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), st.LastEpoch)
	assert.Equal(t, userAddr, st.Executor)

	// the draw is a pure function of the height
	for _, size := range []int{1, 2, 7} {
		assert.Equal(t, drawIndex(300, size), drawIndex(300, size))
		assert.Less(t, drawIndex(300, size), size)
	}

	// an empty roll still advances the epoch and opens the slot
	_, err = reg.Unstake(env(userAddr, 230), []int{0})
	require.NoError(t, err)
	st, err = reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(200), st.LastEpoch)
	assert.True(t, st.Executor.IsZero())
}

func TestRotationSeededByHeight(t *testing.T) {
	reg := newTestRegistry(t, testParams())
	// no rotation fires during the first epoch, so the roll settles untouched
	stakeSlots(t, reg, userAddr, 1, 1)
	stakeSlots(t, reg, otherAddr, 1, 2)

	// a mid-epoch rotation draws with the triggering height, not the epoch start
	_, err := reg.UpdateExecutor(env(otherAddr, 250))
	require.NoError(t, err)

	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(200), st.LastEpoch)
	assert.Equal(t, st.Stakes[drawIndex(250, len(st.Stakes))], st.Executor)
	assert.Equal(t, userAddr, st.Executor)
}

func TestReceiveTokenStake(t *testing.T) {
	params := testParams()
	stakeToken := asset.TokenInfo(tokenAddr)
	params.StakeToken = &stakeToken
	reg := newTestRegistry(t, params)

	// native staking is closed when the stake token is a contract
	_, err := reg.Stake(env(userAddr, 1, coin(testStakeDenom, 1000)), 1)
	assert.ErrorIs(t, err, ErrInvalidStakeToken)

	hook := []byte(`{"stake":{"num_stakes":2}}`)

	_, err = reg.ReceiveToken(env(otherAddr, 1), userAddr, big.NewInt(2000), hook)
	assert.ErrorIs(t, err, ErrInvalidStakeToken)

	_, err = reg.ReceiveToken(env(tokenAddr, 1), userAddr, big.NewInt(2000), nil)
	assert.ErrorIs(t, err, ErrDataShouldBeGiven)

	_, err = reg.ReceiveToken(env(tokenAddr, 1), userAddr, big.NewInt(2000), []byte(`{"unknown":{}}`))
	assert.ErrorIs(t, err, ErrDataShouldBeGiven)

	_, err = reg.ReceiveToken(env(tokenAddr, 1), userAddr, big.NewInt(1999), hook)
	assert.ErrorIs(t, err, ErrInvalidStakeInfo)

	_, err = reg.ReceiveToken(env(tokenAddr, 1), userAddr, big.NewInt(2000), hook)
	require.NoError(t, err)

	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, []auto.Address{userAddr, userAddr}, st.Stakes)

	// unstaking pays back in the stake token
	out, err := reg.Unstake(env(userAddr, 2), []int{1})
	require.NoError(t, err)
	require.Len(t, out.Instructions, 1)
	refund := out.Instructions[0].(*xenv.TokenTransfer)
	assert.Equal(t, tokenAddr, refund.Token)
	assert.Equal(t, userAddr, refund.To)
	assert.Equal(t, big.NewInt(1000), refund.Amount)
}

func TestRecurringFeePool(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	// a zero count is rejected even though zero funds would match it
	_, err := reg.DepositRecurringFee(env(userAddr, 1), 0)
	assert.ErrorIs(t, err, ErrInvalidRecurringCount)

	_, err = reg.WithdrawRecurringFee(env(userAddr, 1), 0)
	assert.ErrorIs(t, err, ErrInvalidRecurringCount)

	_, err = reg.DepositRecurringFee(env(userAddr, 1, coin(testFeeDenom, 25000)), 3)
	assert.ErrorIs(t, err, ErrInvalidRecurringCount)

	_, err = reg.DepositRecurringFee(env(userAddr, 1, coin(testFeeDenom, 30000)), 3)
	require.NoError(t, err)

	pool, err := reg.GetRecurringFee(userAddr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30000), pool)

	out, err := reg.WithdrawRecurringFee(env(userAddr, 2), 2)
	require.NoError(t, err)
	require.Len(t, out.Instructions, 1)
	payout := out.Instructions[0].(*xenv.NativeSend)
	assert.Equal(t, userAddr, payout.To)
	assert.Equal(t, big.NewInt(20000), payout.Amount.Amount)

	_, err = reg.WithdrawRecurringFee(env(userAddr, 2), 2)
	assert.ErrorIs(t, err, ErrInvalidRecurringCount)

	st, err := reg.GetState()
	require.NoError(t, err)
	assert.Equal(t, testFee, st.TotalRecurringFee)
}

func TestUpdateConfig(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	newFee := big.NewInt(20000)
	_, err := reg.UpdateConfig(env(userAddr, 1), &ConfigPatch{FeeAmount: newFee})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = reg.UpdateConfig(env(adminAddr, 1), &ConfigPatch{StakeAmount: big.NewInt(1)})
	assert.ErrorIs(t, err, ErrUpdateConfig)

	stakeToken := asset.TokenInfo(tokenAddr)
	_, err = reg.UpdateConfig(env(adminAddr, 1), &ConfigPatch{StakeToken: &stakeToken})
	assert.ErrorIs(t, err, ErrUpdateConfig)

	newDenom := "ufee"
	newEpoch := uint64(50)
	_, err = reg.UpdateConfig(env(adminAddr, 1), &ConfigPatch{
		FeeAmount:   newFee,
		FeeDenom:    &newDenom,
		EpochLength: &newEpoch,
	})
	require.NoError(t, err)

	cfg, err := reg.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, newFee, cfg.FeeAmount)
	assert.Equal(t, newDenom, cfg.FeeDenom)
	assert.Equal(t, newEpoch, cfg.EpochLength)
	assert.Equal(t, testStake, cfg.StakeAmount)
}

func TestAdminHandover(t *testing.T) {
	reg := newTestRegistry(t, testParams())

	_, err := reg.ClaimAdmin(env(otherAddr, 1))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = reg.UpdateConfig(env(adminAddr, 1), &ConfigPatch{Admin: &otherAddr})
	require.NoError(t, err)

	pending, err := reg.GetPendingAdmin()
	require.NoError(t, err)
	assert.Equal(t, otherAddr, pending)

	// still the old admin until the candidate claims
	admin, err := reg.GetAdmin()
	require.NoError(t, err)
	assert.Equal(t, adminAddr, admin)

	_, err = reg.ClaimAdmin(env(userAddr, 2))
	assert.ErrorIs(t, err, ErrUnauthorized)

	out, err := reg.ClaimAdmin(env(otherAddr, 2))
	require.NoError(t, err)
	ev := findEvent(out, "claim_admin")
	require.NotNil(t, ev)
	assert.Equal(t, "new admin", ev.Attrs[0].Key)

	admin, err = reg.GetAdmin()
	require.NoError(t, err)
	assert.Equal(t, otherAddr, admin)

	pending, err = reg.GetPendingAdmin()
	require.NoError(t, err)
	assert.True(t, pending.IsZero())

	_, err = reg.AddToBlacklist(env(adminAddr, 3), []auto.Address{targetAddr})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = reg.AddToBlacklist(env(otherAddr, 3), []auto.Address{targetAddr})
	assert.NoError(t, err)
}

func TestGetRequestsPagination(t *testing.T) {
	reg := newTestRegistry(t, testParams())
	for i := 0; i < 15; i++ {
		_, err := reg.CreateRequest(env(userAddr, uint64(i+1), feeCoin()), &CreateRequestInfo{Target: targetAddr})
		require.NoError(t, err)
	}

	ids := func(infos []*RequestInfo) []uint64 {
		var out []uint64
		for _, info := range infos {
			out = append(out, info.ID)
		}
		return out
	}

	infos, err := reg.GetRequests(nil, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ids(infos))

	cursor := uint64(9)
	infos, err = reg.GetRequests(&cursor, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 11, 12, 13, 14}, ids(infos))

	infos, err = reg.GetRequests(nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []uint64{14, 13, 12, 11, 10, 9, 8, 7, 6, 5}, ids(infos))

	cursor = 5
	infos, err = reg.GetRequests(&cursor, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 3, 2, 1, 0}, ids(infos))

	limit := uint32(3)
	infos, err = reg.GetRequests(nil, &limit, true)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, ids(infos))

	limit = 100
	infos, err = reg.GetRequests(nil, &limit, true)
	require.NoError(t, err)
	assert.Len(t, infos, 15)
}

func TestGetStakes(t *testing.T) {
	reg := newTestRegistry(t, testParams())
	stakeSlots(t, reg, userAddr, 3, 1)
	stakeSlots(t, reg, otherAddr, 2, 1)

	all, err := reg.GetStakes(0, 0)
	require.NoError(t, err)
	assert.Equal(t, []auto.Address{userAddr, userAddr, userAddr, otherAddr, otherAddr}, all)

	mid, err := reg.GetStakes(2, 2)
	require.NoError(t, err)
	assert.Equal(t, []auto.Address{userAddr, otherAddr}, mid)

	tail, err := reg.GetStakes(4, 10)
	require.NoError(t, err)
	assert.Equal(t, []auto.Address{otherAddr}, tail)

	none, err := reg.GetStakes(5, 1)
	require.NoError(t, err)
	assert.Empty(t, none)

	// a limit near the uint64 ceiling must not wrap past start
	huge, err := reg.GetStakes(2, math.MaxUint64-1)
	require.NoError(t, err)
	assert.Equal(t, []auto.Address{userAddr, otherAddr, otherAddr}, huge)
}

func TestEpochInfo(t *testing.T) {
	reg := newTestRegistry(t, testParams())
	stakeSlots(t, reg, userAddr, 1, 120)

	info, err := reg.GetEpochInfo(250)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), info.CurrentEpoch)
	assert.Equal(t, uint64(100), info.LastEpoch)
	assert.Equal(t, userAddr, info.Executor)
}

func TestStakeConservation(t *testing.T) {
	reg := newTestRegistry(t, testParams())
	stakeSlots(t, reg, userAddr, 3, 1)
	stakeSlots(t, reg, otherAddr, 2, 1)
	_, err := reg.Unstake(env(userAddr, 2), []int{1})
	require.NoError(t, err)

	st, err := reg.GetState()
	require.NoError(t, err)

	total := new(big.Int)
	for _, user := range []auto.Address{userAddr, otherAddr} {
		staked, err := reg.GetStakeAmount(user)
		require.NoError(t, err)
		total.Add(total, staked)
	}
	assert.Equal(t, st.TotalStaked, total)
	assert.Equal(t,
		new(big.Int).Mul(testStake, big.NewInt(int64(len(st.Stakes)))),
		st.TotalStaked)
}
