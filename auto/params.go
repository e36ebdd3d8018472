// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package auto

import "math"

// Constants of the registry protocol.
const (
	// NoRequestID marks that no request execution is in flight.
	NoRequestID uint64 = math.MaxUint64

	// DefaultPageLimit default count of requests returned by a paginated query.
	DefaultPageLimit = 10
	// MaxPageLimit hard cap of requests returned by a paginated query.
	MaxPageLimit = 30

	// BlockInterval time interval between two consecutive blocks in the solo host.
	BlockInterval uint64 = 5 // in seconds
)
