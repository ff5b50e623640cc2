package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/driftwallet/drift/api"
	"github.com/driftwallet/drift/config"
	"github.com/driftwallet/drift/service"
	"github.com/driftwallet/drift/wallet"
	"github.com/stretchr/testify/require"
)

// stubExplorer serves canned history and balance so handler tests can drive
// the engine into specific error kinds.
type stubExplorer struct {
	history   *api.AddressHistory
	dashboard *api.AddressDashboard
	fee       int64
	down      bool
}

func (s *stubExplorer) AddressHistory(ctx context.Context, address string) (*api.AddressHistory, error) {
	if s.down {
		return nil, errors.New("explorer unavailable")
	}
	return s.history, nil
}

func (s *stubExplorer) AddressDashboard(ctx context.Context, address string) (*api.AddressDashboard, error) {
	if s.down {
		return nil, errors.New("explorer unavailable")
	}
	return s.dashboard, nil
}

func (s *stubExplorer) TransactionDashboard(ctx context.Context, hash string) (*api.TransactionDashboard, error) {
	if s.down {
		return nil, errors.New("explorer unavailable")
	}
	return &api.TransactionDashboard{Hash: hash}, nil
}

func (s *stubExplorer) PushTransaction(ctx context.Context, rawHex string) (string, error) {
	return "stubhash", nil
}

func (s *stubExplorer) RecommendedFee(ctx context.Context) (int64, error) {
	return s.fee, nil
}

func testServer(explorer service.BitcoinExplorer) *Server {
	bitcoin := service.NewBitcoinEngine(explorer, config.Bitcoin{})
	ethereum := service.NewEthereumEngine(nil, time.Second, time.Millisecond)
	return New(0, bitcoin, ethereum)
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	s.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestHealth(t *testing.T) {
	s := testServer(&stubExplorer{})

	res := doRequest(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestCreateWallet(t *testing.T) {
	s := testServer(&stubExplorer{})

	res := doRequest(t, s, http.MethodPost, "/api/v1/wallets", nil)
	require.Equal(t, http.StatusCreated, res.Code)

	var w wallet.Wallet
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &w))
	require.NotEmpty(t, w.Mnemonic)
	require.NotEmpty(t, w.Bitcoin.Address)
	require.NotEmpty(t, w.Ethereum.Address)
}

func TestCreateWalletFromMnemonic(t *testing.T) {
	s := testServer(&stubExplorer{})
	mnemonic := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	res := doRequest(t, s, http.MethodPost, "/api/v1/wallets", createWalletRequest{Mnemonic: mnemonic})
	require.Equal(t, http.StatusCreated, res.Code)

	var w wallet.Wallet
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &w))
	require.Equal(t, mnemonic, w.Mnemonic)
}

func TestCreateWalletBadMnemonic(t *testing.T) {
	s := testServer(&stubExplorer{})

	res := doRequest(t, s, http.MethodPost, "/api/v1/wallets", createWalletRequest{Mnemonic: "not a mnemonic"})
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestBitcoinSendValidation(t *testing.T) {
	s := testServer(&stubExplorer{})

	cases := []struct {
		name string
		body bitcoinSendRequest
	}{
		{"missing amount", bitcoinSendRequest{PrivateKey: "aa", To: "bc1q"}},
		{"negative amount", bitcoinSendRequest{PrivateKey: "aa", To: "bc1q", Amount: "-1"}},
		{"missing key", bitcoinSendRequest{To: "bc1q", Amount: "0.1"}},
		{"missing destination", bitcoinSendRequest{PrivateKey: "aa", Amount: "0.1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := doRequest(t, s, http.MethodPost, "/api/v1/bitcoin/send", tc.body)
			require.Equal(t, http.StatusBadRequest, res.Code)
		})
	}
}

func TestBitcoinSendNoHistoryMapsTo404(t *testing.T) {
	s := testServer(&stubExplorer{
		history:   &api.AddressHistory{},
		dashboard: &api.AddressDashboard{Balance: 1_000_000},
		fee:       2,
	})

	res := doRequest(t, s, http.MethodPost, "/api/v1/bitcoin/send", bitcoinSendRequest{
		PrivateKey: "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		To:         "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		Amount:     "0.003",
	})
	require.Equal(t, http.StatusNotFound, res.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "no_prior_transactions", body.Kind)
}

func TestBitcoinBalanceInvalidAddressMapsTo400(t *testing.T) {
	s := testServer(&stubExplorer{})

	res := doRequest(t, s, http.MethodGet, "/api/v1/bitcoin/balance/garbage", nil)
	require.Equal(t, http.StatusBadRequest, res.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "invalid_address", body.Kind)
}

func TestBitcoinBalanceExplorerDownMapsTo502(t *testing.T) {
	s := testServer(&stubExplorer{down: true})

	res := doRequest(t, s, http.MethodGet, "/api/v1/bitcoin/balance/bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", nil)
	require.Equal(t, http.StatusBadGateway, res.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "external_unavailable", body.Kind)
}

func TestBitcoinBalanceOK(t *testing.T) {
	s := testServer(&stubExplorer{dashboard: &api.AddressDashboard{Balance: 150_000_000}})

	res := doRequest(t, s, http.MethodGet, "/api/v1/bitcoin/balance/bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", nil)
	require.Equal(t, http.StatusOK, res.Code)

	var body service.BalanceInfo
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "1.5", body.Balance)
}

func TestEVMSendUnknownChainMapsTo500(t *testing.T) {
	s := testServer(&stubExplorer{})

	res := doRequest(t, s, http.MethodPost, "/api/v1/evm/unknown/send", evmSendRequest{
		PrivateKey: "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		To:         "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Amount:     "0.1",
	})
	require.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestEVMSendTokenRequiresContract(t *testing.T) {
	s := testServer(&stubExplorer{})

	res := doRequest(t, s, http.MethodPost, "/api/v1/evm/ethereum/send", evmSendRequest{
		PrivateKey: "aa",
		To:         "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Amount:     "1",
		Asset:      "token",
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestEVMSendBadAsset(t *testing.T) {
	s := testServer(&stubExplorer{})

	res := doRequest(t, s, http.MethodPost, "/api/v1/evm/ethereum/send", evmSendRequest{
		PrivateKey: "aa",
		To:         "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Amount:     "1",
		Asset:      "nft",
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	s := testServer(&stubExplorer{})

	res := doRequest(t, s, http.MethodGet, "/api/v1/nope", nil)
	require.Equal(t, http.StatusNotFound, res.Code)
}
