package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// EthereumClient talks to an EVM node over JSON-RPC.
type EthereumClient struct {
	http     *httpClient
	endpoint string
}

// NewEthereumClient creates a JSON-RPC client for the given node endpoint.
func NewEthereumClient(endpoint string) *EthereumClient {
	return &EthereumClient{
		http:     newHTTPClient(),
		endpoint: endpoint,
	}
}

// call performs a JSON-RPC request and returns the decoded result.
func (c *EthereumClient) call(ctx context.Context, method string, params interface{}) (interface{}, error) {
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}

	body, status, err := c.http.postJSON(ctx, c.endpoint, payload)
	if err != nil {
		return nil, err
	}
	if status != 200 {
		return nil, fmt.Errorf("request failed with status %d: %s", status, string(body))
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("RPC error: %s", rpcResp.Error.Message)
	}

	return rpcResp.Result, nil
}

// callHex performs a JSON-RPC request whose result is a hex string.
func (c *EthereumClient) callHex(ctx context.Context, method string, params interface{}) (string, error) {
	result, err := c.call(ctx, method, params)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", fmt.Errorf("no result in response")
	}

	hexStr, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected result format for %s", method)
	}
	return hexStr, nil
}

// Balance fetches the native coin balance of an address in wei.
func (c *EthereumClient) Balance(ctx context.Context, address string) (*big.Int, error) {
	hexStr, err := c.callHex(ctx, "eth_getBalance", []string{address, "latest"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance: %w", err)
	}
	return parseHexBigInt(hexStr)
}

// Nonce fetches the transaction count of an address.
func (c *EthereumClient) Nonce(ctx context.Context, address string) (uint64, error) {
	hexStr, err := c.callHex(ctx, "eth_getTransactionCount", []string{address, "latest"})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch nonce: %w", err)
	}
	return parseHexUint(hexStr)
}

// GasPrice fetches the current gas price in wei.
func (c *EthereumClient) GasPrice(ctx context.Context) (*big.Int, error) {
	hexStr, err := c.callHex(ctx, "eth_gasPrice", []interface{}{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}
	return parseHexBigInt(hexStr)
}

// CallContract performs a read-only contract call and returns the raw hex
// result.
func (c *EthereumClient) CallContract(ctx context.Context, to string, data []byte) (string, error) {
	callObject := map[string]interface{}{
		"to":   to,
		"data": "0x" + fmt.Sprintf("%x", data),
	}

	hexStr, err := c.callHex(ctx, "eth_call", []interface{}{callObject, "latest"})
	if err != nil {
		return "", fmt.Errorf("contract call failed: %w", err)
	}
	return hexStr, nil
}

// EstimateGas dry-runs a transaction and returns the gas estimate.
func (c *EthereumClient) EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error) {
	txObject := map[string]interface{}{
		"from": from,
		"to":   to,
	}
	if value != nil && value.Sign() > 0 {
		txObject["value"] = "0x" + value.Text(16)
	}
	if len(data) > 0 {
		txObject["data"] = "0x" + fmt.Sprintf("%x", data)
	}

	hexStr, err := c.callHex(ctx, "eth_estimateGas", []interface{}{txObject})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return parseHexUint(hexStr)
}

// SendRawTransaction broadcasts a signed transaction and returns its hash.
func (c *EthereumClient) SendRawTransaction(ctx context.Context, rawHex string) (string, error) {
	hash, err := c.callHex(ctx, "eth_sendRawTransaction", []string{rawHex})
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return hash, nil
}

// TransactionReceipt fetches the receipt of a transaction. A nil receipt with
// a nil error means the transaction is still pending.
func (c *EthereumClient) TransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", []string{hash})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt: %w", err)
	}
	if result == nil {
		return nil, nil
	}

	// Round-trip through JSON to map the loosely typed result.
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode receipt: %w", err)
	}

	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return nil, fmt.Errorf("failed to parse receipt: %w", err)
	}
	return &receipt, nil
}

// parseHexUint converts a 0x-prefixed hex string to uint64.
func parseHexUint(hexStr string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(hexStr, "0x"), 16, 64)
}

// parseHexBigInt converts a 0x-prefixed hex string to big.Int.
func parseHexBigInt(hexStr string) (*big.Int, error) {
	value := new(big.Int)
	if _, ok := value.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return nil, fmt.Errorf("invalid hex value: %s", hexStr)
	}
	return value, nil
}
