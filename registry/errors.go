// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import "errors"

// Errors surfaced by registry handlers. Every handler is fail-fast: the first
// violated precondition aborts the call and no state change survives.
var (
	// ErrUnauthorized the caller lacks the required role (owner/admin/reply channel).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound unknown request id.
	ErrNotFound = errors.New("request not found")
	// ErrIncompleteParams a required instantiate parameter is absent.
	ErrIncompleteParams = errors.New("instantiate params unavailable")
	// ErrNoFeePaid the execution fee asset is absent from the attached funds.
	ErrNoFeePaid = errors.New("no fee paid")
	// ErrInsufficientFee the execution fee is underpaid.
	ErrInsufficientFee = errors.New("insufficient fee")
	// ErrInvalidInputAssets the escrowed amount does not match the attached funds.
	ErrInvalidInputAssets = errors.New("invalid input assets")
	// ErrNoInputAssetForRecurring recurring requests cannot escrow input assets.
	ErrNoInputAssetForRecurring = errors.New("recurring requests can't have input assets")
	// ErrInvalidStakeInfo the staked amount does not match unit price times count.
	ErrInvalidStakeInfo = errors.New("invalid stake info")
	// ErrInvalidStakeToken the stake arrived through the wrong asset kind.
	ErrInvalidStakeToken = errors.New("stake token invalid")
	// ErrDataShouldBeGiven a token-receive hook carried no decodable payload.
	ErrDataShouldBeGiven = errors.New("data should be given")
	// ErrIdxOutOfBound an unstake index is outside the stake roll.
	ErrIdxOutOfBound = errors.New("idx is out of bound")
	// ErrIdxNotYou an unstake index names a slot staked by someone else.
	ErrIdxNotYou = errors.New("idx not yours")
	// ErrInvalidRecurringCount zero recurring count, or payment/balance mismatch.
	ErrInvalidRecurringCount = errors.New("invalid recurring count")
	// ErrInsufficientRecurringFee the user's recurring pool cannot cover the fee.
	ErrInsufficientRecurringFee = errors.New("insufficient recurring fee")
	// ErrTargetBlacklisted the call target is blacklisted.
	ErrTargetBlacklisted = errors.New("target blacklisted")
	// ErrExecutorNotUpdated the executor rotation has not run for the current epoch.
	ErrExecutorNotUpdated = errors.New("executor not updated")
	// ErrInvalidExecutor the caller is not the elected executor of the epoch.
	ErrInvalidExecutor = errors.New("invalid executor")
	// ErrUpdateConfig the stake token or stake amount cannot be updated.
	ErrUpdateConfig = errors.New("stake token or stake amount can't be updated")
	// ErrOverflow amount arithmetic under/overflowed.
	ErrOverflow = errors.New("amount overflow")
)
