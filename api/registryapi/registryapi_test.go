// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registryapi

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonomy-network/autonomy-registry/asset"
	"github.com/autonomy-network/autonomy-registry/auto"
	"github.com/autonomy-network/autonomy-registry/lvldb"
	"github.com/autonomy-network/autonomy-registry/registry"
	"github.com/autonomy-network/autonomy-registry/solo"
	"github.com/autonomy-network/autonomy-registry/state"
)

var (
	registryAddr = auto.MustParseAddress("0x00000000000000000000004175746f6e6f6d7901")
	adminAddr    = auto.MustParseAddress("0x1000000000000000000000000000000000000001")
	userAddr     = auto.MustParseAddress("0x2000000000000000000000000000000000000001")
	targetAddr   = auto.MustParseAddress("0x3000000000000000000000000000000000000001")
)

var fee = big.NewInt(10000)

func newTestServer(t *testing.T) (*httptest.Server, *solo.Host) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := registry.New(registryAddr, state.New(db))
	stakeToken := asset.NativeInfo("uauto")
	require.NoError(t, reg.Instantiate(&registry.Params{
		Admin:       &adminAddr,
		FeeAmount:   fee,
		FeeDenom:    "utest",
		StakeToken:  &stakeToken,
		StakeAmount: big.NewInt(1000),
		EpochLength: 100,
	}))

	host := solo.NewHost(reg)
	host.Mint(userAddr, asset.NewCoin("utest", big.NewInt(100000)))
	host.Mint(userAddr, asset.NewCoin("uauto", big.NewInt(10000)))

	router := mux.NewRouter()
	New(host).Mount(router, "/registry")
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, host
}

func httpGet(t *testing.T, url string, out any) int {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, out))
	}
	return resp.StatusCode
}

func httpPost(t *testing.T, url string, payload any, out any) int {
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, out))
	}
	return resp.StatusCode
}

func TestGetConfig(t *testing.T) {
	server, _ := newTestServer(t)

	var cfg Config
	code := httpGet(t, server.URL+"/registry/config", &cfg)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, fee, cfg.FeeAmount)
	assert.Equal(t, "utest", cfg.FeeDenom)
	assert.Equal(t, uint64(100), cfg.EpochLength)
}

func TestRequestLifecycle(t *testing.T) {
	server, _ := newTestServer(t)

	var receipt solo.Receipt
	code := httpPost(t, server.URL+"/registry/requests", &CreateRequest{
		Sender: userAddr,
		Funds:  []Coin{{Denom: "utest", Amount: fee}},
		Target: targetAddr,
		Msg:    []byte(`{"ping":{}}`),
	}, &receipt)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, receipt.Events)
	assert.Equal(t, "create_request", receipt.Events[0].Action)

	var req Request
	code = httpGet(t, server.URL+"/registry/requests/0", &req)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, userAddr, req.User)
	assert.Equal(t, targetAddr, req.Target)

	var reqs []*Request
	code = httpGet(t, server.URL+"/registry/requests?desc=true", &reqs)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, reqs, 1)
	assert.Equal(t, uint64(0), reqs[0].ID)

	code = httpPost(t, server.URL+"/registry/requests/0/execute", &SenderOnly{Sender: userAddr}, &receipt)
	require.Equal(t, http.StatusOK, code)

	var st State
	code = httpGet(t, server.URL+"/registry/state", &st)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(0), st.TotalRequests)
	assert.Equal(t, uint64(1), st.NextRequestID)
}

func TestCallRejections(t *testing.T) {
	server, _ := newTestServer(t)

	// no fee attached
	code := httpPost(t, server.URL+"/registry/requests", &CreateRequest{
		Sender: userAddr,
		Target: targetAddr,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// unknown request
	code = httpPost(t, server.URL+"/registry/requests/9/cancel", &SenderOnly{Sender: userAddr}, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// non-admin blacklist call
	code = httpPost(t, server.URL+"/registry/blacklist/add", &Blacklist{
		Sender:  userAddr,
		Targets: []auto.Address{targetAddr},
	}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// malformed id
	code = httpGet(t, server.URL+"/registry/requests/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStakeEndpoints(t *testing.T) {
	server, host := newTestServer(t)
	host.AdvanceBlocks(100)

	var receipt solo.Receipt
	code := httpPost(t, server.URL+"/registry/stakes", &Stake{
		Sender:    userAddr,
		Funds:     []Coin{{Denom: "uauto", Amount: big.NewInt(2000)}},
		NumStakes: 2,
	}, &receipt)
	require.Equal(t, http.StatusOK, code)

	var stakes []auto.Address
	code = httpGet(t, server.URL+"/registry/stakes", &stakes)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []auto.Address{userAddr, userAddr}, stakes)

	var balance struct {
		Amount *big.Int `json:"amount"`
	}
	code = httpGet(t, server.URL+"/registry/stakes/"+userAddr.String(), &balance)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, big.NewInt(2000), balance.Amount)

	var epoch EpochInfo
	code = httpGet(t, server.URL+"/registry/epoch", &epoch)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(100), epoch.CurrentEpoch)
	assert.Equal(t, userAddr.String(), epoch.Executor)

	code = httpPost(t, server.URL+"/registry/stakes/unstake", &Unstake{
		Sender:  userAddr,
		Indexes: []int{5},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAdminEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	var admin struct {
		Admin        string `json:"admin"`
		PendingAdmin string `json:"pendingAdmin"`
	}
	code := httpGet(t, server.URL+"/registry/admin", &admin)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, adminAddr.String(), admin.Admin)
	assert.Equal(t, "", admin.PendingAdmin)

	code = httpPost(t, server.URL+"/registry/config", &ConfigUpdate{
		Sender: adminAddr,
		Admin:  &userAddr,
	}, nil)
	require.Equal(t, http.StatusOK, code)

	code = httpPost(t, server.URL+"/registry/admin/claim", &SenderOnly{Sender: userAddr}, nil)
	require.Equal(t, http.StatusOK, code)

	code = httpGet(t, server.URL+"/registry/admin", &admin)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, userAddr.String(), admin.Admin)

	// structural config fields are immutable
	code = httpPost(t, server.URL+"/registry/config", &ConfigUpdate{
		Sender:      userAddr,
		StakeAmount: big.NewInt(5),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRecurringEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	code := httpPost(t, server.URL+"/registry/recurring/deposit", &RecurringFee{
		Sender:         userAddr,
		Funds:          []Coin{{Denom: "utest", Amount: big.NewInt(20000)}},
		RecurringCount: 2,
	}, nil)
	require.Equal(t, http.StatusOK, code)

	var balance struct {
		Amount *big.Int `json:"amount"`
	}
	code = httpGet(t, server.URL+"/registry/recurring/"+userAddr.String(), &balance)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, big.NewInt(20000), balance.Amount)

	code = httpPost(t, server.URL+"/registry/recurring/withdraw", &RecurringFee{
		Sender:         userAddr,
		RecurringCount: 3,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
