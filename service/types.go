package service

import (
	"fmt"

	"github.com/driftwallet/drift/api"
	"github.com/shopspring/decimal"
)

// AssetKind selects between a chain's native coin and a contract token.
type AssetKind string

const (
	AssetCoin  AssetKind = "coin"
	AssetToken AssetKind = "token"
)

// ParseAssetKind parses an asset kind, defaulting empty input to coin.
func ParseAssetKind(s string) (AssetKind, error) {
	switch AssetKind(s) {
	case AssetCoin, "":
		return AssetCoin, nil
	case AssetToken:
		return AssetToken, nil
	default:
		return "", fmt.Errorf("unknown asset kind: %s", s)
	}
}

// TransferIntent is the normalized request shape the account-model engine
// consumes. Amounts are human decimal units.
type TransferIntent struct {
	Chain            string
	PrivateKey       string
	Destination      string
	Amount           decimal.Decimal
	Asset            AssetKind
	ContractAddress  string
	GasLimitOverride uint64
}

// TransactionOutcome is the chain-agnostic result of a send. A soft provider
// rejection yields Success=false with Message set and no error.
type TransactionOutcome struct {
	Success   bool         `json:"success"`
	ID        string       `json:"id,omitempty"`
	From      string       `json:"from,omitempty"`
	To        string       `json:"to,omitempty"`
	Value     string       `json:"value,omitempty"`
	Fee       string       `json:"fee,omitempty"`
	Timestamp int64        `json:"timestamp,omitempty"`
	Message   string       `json:"message,omitempty"`
	Receipt   *api.Receipt `json:"receipt,omitempty"`
}

// FeeQuote is a fee estimate: the per-unit rate actually used and the total
// derived from the transaction's size or gas, in display units.
type FeeQuote struct {
	PerUnitRate   string `json:"perUnitRate"`
	ComputedTotal string `json:"computedTotal"`
}

// BalanceInfo is a balance in human units.
type BalanceInfo struct {
	Address string `json:"address"`
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
}

// TransactionInfo is a normalized view of a confirmed or pending transaction.
type TransactionInfo struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	Fee       string `json:"fee"`
	Time      string `json:"time,omitempty"`
	Confirmed bool   `json:"confirmed"`
}
