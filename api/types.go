package api

// AddressHistory is the full transaction history of a UTXO address as
// reported by the history explorer, most recent transaction first.
type AddressHistory struct {
	Address string      `json:"address"`
	Txs     []HistoryTx `json:"txs"`
}

// HistoryTx is a single transaction in an address's history.
type HistoryTx struct {
	Hash    string          `json:"hash"`
	Outputs []HistoryOutput `json:"outputs"`
}

// HistoryOutput is one output of a history transaction. Addresses holds the
// recipients able to spend it; Value is in satoshis.
type HistoryOutput struct {
	Addresses []string `json:"addresses"`
	Value     int64    `json:"value"`
}

// AddressDashboard summarizes an address: confirmed balance, unconfirmed
// delta (both satoshis) and the hashes of its transactions, newest first.
type AddressDashboard struct {
	Balance            int64
	UnconfirmedBalance int64
	Transactions       []string
}

// TransactionDashboard is a single transaction as reported by the dashboard
// explorer. Fee and output values are in satoshis; BlockID is -1 while the
// transaction sits in the mempool.
type TransactionDashboard struct {
	Hash    string
	Fee     int64
	Time    string
	BlockID int64
	Inputs  []TxParty
	Outputs []TxParty
}

// TxParty is one side of a dashboard transaction.
type TxParty struct {
	Recipient string `json:"recipient"`
	Value     int64  `json:"value"`
}

// RPCResponse is the JSON-RPC 2.0 response envelope used by EVM nodes.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Result  interface{} `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Receipt is the subset of an EVM transaction receipt the service reports.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	GasUsed         string `json:"gasUsed"`
	Status          string `json:"status"`
}
