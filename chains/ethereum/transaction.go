package ethereum

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

const (
	// WeiExponent is the number of decimal places in one ether.
	WeiExponent = 18

	// TransferGasLimit is the fixed gas cost of a native value transfer,
	// used when no override is supplied.
	TransferGasLimit = 21000
)

// erc20ABI covers the fragment of the ERC20 interface the service needs.
var erc20ABI = mustParseABI(`[
	{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI definition: %v", err))
	}
	return parsed
}

// ParseAddress parses and validates an EVM address.
func ParseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid address: %s", address)
	}
	return common.HexToAddress(address), nil
}

// ValidateAddress validates an EVM address.
func ValidateAddress(address string) error {
	_, err := ParseAddress(address)
	return err
}

// ParsePrivateKey parses a 32-byte hex-encoded private key.
func ParsePrivateKey(keyHex string) (*ecdsa.PrivateKey, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return privateKey, nil
}

// DeriveAddress derives the address of a private key.
func DeriveAddress(privateKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

// NewTransaction creates an unsigned legacy transaction.
func NewTransaction(nonce uint64, to common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *types.Transaction {
	return types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
}

// SignTransaction signs a transaction with EIP-155 replay protection and
// returns the raw broadcast-ready hex.
func SignTransaction(tx *types.Transaction, privateKey *ecdsa.PrivateKey, chainID int64) (string, error) {
	signer := types.NewEIP155Signer(big.NewInt(chainID))
	signedTx, err := types.SignTx(tx, signer, privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction: %w", err)
	}
	return "0x" + hex.EncodeToString(raw), nil
}

// TransferCallData encodes an ERC20 transfer(to, value) call.
func TransferCallData(to common.Address, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer call: %w", err)
	}
	return data, nil
}

// BalanceOfCallData encodes an ERC20 balanceOf(owner) call.
func BalanceOfCallData(owner common.Address) ([]byte, error) {
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to encode balanceOf call: %w", err)
	}
	return data, nil
}

// DecimalsCallData encodes an ERC20 decimals() call.
func DecimalsCallData() ([]byte, error) {
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return nil, fmt.Errorf("failed to encode decimals call: %w", err)
	}
	return data, nil
}

// UnpackDecimals decodes the hex result of a decimals() call.
func UnpackDecimals(result string) (uint8, error) {
	raw, err := decodeHexResult(result)
	if err != nil {
		return 0, err
	}

	values, err := erc20ABI.Unpack("decimals", raw)
	if err != nil {
		return 0, fmt.Errorf("failed to decode decimals result: %w", err)
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result type")
	}
	return decimals, nil
}

// UnpackBalance decodes the hex result of a balanceOf() call.
func UnpackBalance(result string) (*big.Int, error) {
	raw, err := decodeHexResult(result)
	if err != nil {
		return nil, err
	}

	values, err := erc20ABI.Unpack("balanceOf", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode balance result: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balance result type")
	}
	return balance, nil
}

func decodeHexResult(result string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(result, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid call result encoding: %w", err)
	}
	return raw, nil
}

// PadGasEstimate pads a dry-run gas estimate by half to absorb state drift
// between estimation and inclusion.
func PadGasEstimate(estimate uint64) uint64 {
	return estimate + estimate/2
}

// WeiToEther converts wei to an ether decimal amount.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -WeiExponent)
}

// EtherToWei converts an ether decimal amount to wei. Amounts with more than
// eighteen decimal places are rejected rather than silently truncated.
func EtherToWei(ether decimal.Decimal) (*big.Int, error) {
	return scaleToAtomic(ether, WeiExponent)
}

// TokenToAtomic scales a human token amount by the token's decimals. The
// result is an exact integer with no exponent notation.
func TokenToAtomic(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	return scaleToAtomic(amount, int32(decimals))
}

// AtomicToToken divides a raw token balance by the token's decimals.
func AtomicToToken(atomic *big.Int, decimals uint8) decimal.Decimal {
	if atomic == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(atomic, -int32(decimals))
}

func scaleToAtomic(amount decimal.Decimal, exponent int32) (*big.Int, error) {
	shifted := amount.Shift(exponent)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount.String(), exponent)
	}
	return shifted.BigInt(), nil
}
