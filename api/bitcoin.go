package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/driftwallet/drift/config"
)

// BitcoinClient talks to the UTXO explorer APIs: a full-history endpoint for
// prior-output resolution, a dashboard endpoint for balances and transaction
// details, a push endpoint for broadcasting, and a fee feed.
type BitcoinClient struct {
	http           *httpClient
	explorerURL    string
	historyURL     string
	feeURL         string
	apiKey         string
	defaultFeeRate int64
}

// PushError is a broadcast rejection reported by the explorer. Message holds
// the provider's error text verbatim.
type PushError struct {
	Message string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push rejected: %s", e.Message)
}

// NewBitcoinClient creates an explorer client from the bitcoin configuration.
func NewBitcoinClient(cfg config.Bitcoin) *BitcoinClient {
	return &BitcoinClient{
		http:           newHTTPClient(),
		explorerURL:    strings.TrimSuffix(cfg.ExplorerURL, "/"),
		historyURL:     strings.TrimSuffix(cfg.HistoryURL, "/"),
		feeURL:         strings.TrimSuffix(cfg.FeeURL, "/"),
		apiKey:         cfg.APIKey,
		defaultFeeRate: cfg.DefaultFeeRate,
	}
}

// AddressHistory fetches the full transaction history of an address, most
// recent transaction first.
func (c *BitcoinClient) AddressHistory(ctx context.Context, address string) (*AddressHistory, error) {
	url := fmt.Sprintf("%s/addrs/%s/full", c.historyURL, address)

	var history AddressHistory
	if err := c.http.getJSON(ctx, url, &history); err != nil {
		return nil, fmt.Errorf("failed to fetch address history: %w", err)
	}
	return &history, nil
}

// AddressDashboard fetches the balance and transaction hash list of an
// address.
func (c *BitcoinClient) AddressDashboard(ctx context.Context, address string) (*AddressDashboard, error) {
	url := fmt.Sprintf("%s/dashboards/address/%s?key=%s", c.explorerURL, address, c.apiKey)

	// The dashboard response is keyed by the queried address.
	var result struct {
		Data map[string]struct {
			Address struct {
				Balance            int64 `json:"balance"`
				UnconfirmedBalance int64 `json:"unconfirmed_balance"`
			} `json:"address"`
			Transactions []string `json:"transactions"`
		} `json:"data"`
	}

	if err := c.http.getJSON(ctx, url, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch address dashboard: %w", err)
	}

	entry, ok := result.Data[address]
	if !ok {
		return nil, fmt.Errorf("address %s not found in dashboard response", address)
	}

	return &AddressDashboard{
		Balance:            entry.Address.Balance,
		UnconfirmedBalance: entry.Address.UnconfirmedBalance,
		Transactions:       entry.Transactions,
	}, nil
}

// TransactionDashboard fetches a single transaction's details.
func (c *BitcoinClient) TransactionDashboard(ctx context.Context, hash string) (*TransactionDashboard, error) {
	url := fmt.Sprintf("%s/dashboards/transaction/%s?key=%s", c.explorerURL, hash, c.apiKey)

	var result struct {
		Data map[string]struct {
			Transaction struct {
				Hash    string `json:"hash"`
				Fee     int64  `json:"fee"`
				Time    string `json:"time"`
				BlockID int64  `json:"block_id"`
			} `json:"transaction"`
			Inputs  []TxParty `json:"inputs"`
			Outputs []TxParty `json:"outputs"`
		} `json:"data"`
	}

	if err := c.http.getJSON(ctx, url, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch transaction dashboard: %w", err)
	}

	entry, ok := result.Data[hash]
	if !ok {
		return nil, fmt.Errorf("transaction %s not found in dashboard response", hash)
	}

	return &TransactionDashboard{
		Hash:    entry.Transaction.Hash,
		Fee:     entry.Transaction.Fee,
		Time:    entry.Transaction.Time,
		BlockID: entry.Transaction.BlockID,
		Inputs:  entry.Inputs,
		Outputs: entry.Outputs,
	}, nil
}

// PushTransaction broadcasts a serialized transaction and returns its hash.
// Provider rejections come back as *PushError carrying the provider text.
func (c *BitcoinClient) PushTransaction(ctx context.Context, rawHex string) (string, error) {
	url := fmt.Sprintf("%s/push/transaction?key=%s", c.explorerURL, c.apiKey)

	body, status, err := c.http.postJSON(ctx, url, map[string]string{"data": rawHex})
	if err != nil {
		return "", fmt.Errorf("failed to push transaction: %w", err)
	}

	if status != http.StatusOK {
		return "", &PushError{Message: pushErrorText(body)}
	}

	var result struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse push response: %w", err)
	}
	if result.Hash == "" {
		return "", &PushError{Message: pushErrorText(body)}
	}

	return result.Hash, nil
}

// pushErrorText extracts the provider's error message from a push rejection
// body, falling back to the raw body text.
func pushErrorText(body []byte) string {
	var rejection struct {
		Context struct {
			Error string `json:"error"`
		} `json:"context"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &rejection); err == nil {
		if rejection.Context.Error != "" {
			return rejection.Context.Error
		}
		if rejection.Error != "" {
			return rejection.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// RecommendedFee returns the hour-confirmation fee rate in sat/byte. A zero
// or missing rate falls back to the configured default.
func (c *BitcoinClient) RecommendedFee(ctx context.Context) (int64, error) {
	url := fmt.Sprintf("%s/fees/recommended", c.feeURL)

	var result struct {
		HourFee int64 `json:"hourFee"`
	}
	if err := c.http.getJSON(ctx, url, &result); err != nil {
		return 0, fmt.Errorf("failed to fetch recommended fee: %w", err)
	}

	if result.HourFee <= 0 {
		return c.defaultFeeRate, nil
	}
	return result.HourFee, nil
}
