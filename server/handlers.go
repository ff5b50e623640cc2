package server

import (
	"encoding/json"
	"net/http"

	"github.com/driftwallet/drift/service"
	"github.com/driftwallet/drift/wallet"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type createWalletRequest struct {
	// Mnemonic imports an existing wallet instead of generating one.
	Mnemonic string `json:"mnemonic"`
}

type bitcoinSendRequest struct {
	PrivateKey string `json:"privateKey"`
	To         string `json:"to"`
	Amount     string `json:"amount"`
	FeePerByte int64  `json:"feePerByte"`
}

type evmSendRequest struct {
	PrivateKey string `json:"privateKey"`
	To         string `json:"to"`
	Amount     string `json:"amount"`
	Asset      string `json:"asset"`
	Contract   string `json:"contract"`
	GasLimit   uint64 `json:"gasLimit"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "invalid request body")
			return
		}
	}

	var (
		created *wallet.Wallet
		err     error
	)
	if req.Mnemonic != "" {
		created, err = wallet.FromMnemonic(req.Mnemonic)
	} else {
		created, err = wallet.Create()
	}
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleBitcoinSend(w http.ResponseWriter, r *http.Request) {
	var req bitcoinSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeBadRequest(w, "amount must be a positive decimal")
		return
	}
	if req.PrivateKey == "" || req.To == "" {
		writeBadRequest(w, "privateKey and to are required")
		return
	}

	outcome, err := s.bitcoin.Send(r.Context(), req.PrivateKey, req.To, amount, req.FeePerByte)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleBitcoinBalance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	balance, err := s.bitcoin.Balance(r.Context(), address)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleBitcoinTransaction(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]

	info, err := s.bitcoin.Transaction(r.Context(), hash)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleBitcoinTransactions(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	infos, err := s.bitcoin.Transactions(r.Context(), address)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleEVMSend(w http.ResponseWriter, r *http.Request) {
	chain := mux.Vars(r)["chain"]

	var req evmSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeBadRequest(w, "amount must be a positive decimal")
		return
	}
	if req.PrivateKey == "" || req.To == "" {
		writeBadRequest(w, "privateKey and to are required")
		return
	}

	asset, err := service.ParseAssetKind(req.Asset)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if asset == service.AssetToken && req.Contract == "" {
		writeBadRequest(w, "contract is required for token transfers")
		return
	}

	outcome, err := s.ethereum.Send(r.Context(), service.TransferIntent{
		Chain:            chain,
		PrivateKey:       req.PrivateKey,
		Destination:      req.To,
		Amount:           amount,
		Asset:            asset,
		ContractAddress:  req.Contract,
		GasLimitOverride: req.GasLimit,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleEVMBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	query := r.URL.Query()

	asset, err := service.ParseAssetKind(query.Get("asset"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	balance, err := s.ethereum.Balance(r.Context(), vars["chain"], vars["address"], asset, query.Get("contract"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (s *Server) handleEVMFees(w http.ResponseWriter, r *http.Request) {
	chain := mux.Vars(r)["chain"]
	query := r.URL.Query()

	amount, err := decimal.NewFromString(query.Get("amount"))
	if err != nil {
		amount = decimal.Zero
	}

	asset, err := service.ParseAssetKind(query.Get("asset"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	quote, err := s.ethereum.EstimateGasFees(r.Context(), chain,
		query.Get("from"), query.Get("to"), amount, asset, query.Get("contract"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message, Kind: "bad_request"})
}

// writeEngineError maps engine error kinds to HTTP statuses. Only the
// normalized message leaves the service.
func writeEngineError(w http.ResponseWriter, err error) {
	kind := service.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case service.KindInvalidAddress, service.KindInvalidContractAddress:
		status = http.StatusBadRequest
	case service.KindInsufficientBalance:
		status = http.StatusPaymentRequired
	case service.KindNoPriorTransactions, service.KindNoMatchingOutput:
		status = http.StatusNotFound
	case service.KindFeeLookupFailed, service.KindExternalUnavailable, service.KindProviderRejected:
		status = http.StatusBadGateway
	case service.KindReceiptTimeout:
		status = http.StatusGatewayTimeout
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: string(kind)})
}
