package service

import (
	"context"
	"math/big"
	"time"

	"github.com/driftwallet/drift/api"
	"github.com/driftwallet/drift/chains/ethereum"
	"github.com/driftwallet/drift/config"
	"github.com/driftwallet/drift/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EthereumRPC is the node surface the account-model engine depends on.
type EthereumRPC interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
	Nonce(ctx context.Context, address string) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, to string, data []byte) (string, error)
	EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error)
	SendRawTransaction(ctx context.Context, rawHex string) (string, error)
	TransactionReceipt(ctx context.Context, hash string) (*api.Receipt, error)
}

// evmChain binds a configured chain's parameters to its RPC client.
type evmChain struct {
	chainID int64
	rpc     EthereumRPC
}

// EthereumEngine builds, signs, and broadcasts account-model transactions on
// the configured EVM chains.
type EthereumEngine struct {
	chains          map[string]evmChain
	receiptTimeout  time.Duration
	receiptInterval time.Duration
	logger          zerolog.Logger
}

// NewEthereumEngine creates the account-model engine with one RPC client per
// configured chain.
func NewEthereumEngine(chains map[string]config.EVMChain, receiptTimeout, receiptInterval time.Duration) *EthereumEngine {
	engine := &EthereumEngine{
		chains:          make(map[string]evmChain, len(chains)),
		receiptTimeout:  receiptTimeout,
		receiptInterval: receiptInterval,
		logger:          log.WithComponent("ethereum"),
	}
	for name, chain := range chains {
		engine.chains[name] = evmChain{
			chainID: chain.ChainID,
			rpc:     api.NewEthereumClient(chain.Endpoint),
		}
	}
	return engine
}

// Chains lists the configured chain names.
func (e *EthereumEngine) Chains() []string {
	names := make([]string, 0, len(e.chains))
	for name := range e.chains {
		names = append(names, name)
	}
	return names
}

func (e *EthereumEngine) chain(name string) (evmChain, error) {
	chain, ok := e.chains[name]
	if !ok {
		return evmChain{}, newError(KindInternal, "unknown chain: "+name)
	}
	return chain, nil
}

// Send signs and broadcasts the transfer described by intent, then waits for
// the receipt within the configured bound.
func (e *EthereumEngine) Send(ctx context.Context, intent TransferIntent) (*TransactionOutcome, error) {
	chain, err := e.chain(intent.Chain)
	if err != nil {
		return nil, err
	}

	privateKey, err := ethereum.ParsePrivateKey(intent.PrivateKey)
	if err != nil {
		return nil, wrapError(KindInvalidAddress, "invalid private key", err)
	}
	from := ethereum.DeriveAddress(privateKey)

	destination, err := ethereum.ParseAddress(intent.Destination)
	if err != nil {
		return nil, wrapError(KindInvalidAddress, "invalid destination address", err)
	}

	var tx *types.Transaction
	switch intent.Asset {
	case AssetToken:
		tx, err = e.buildTokenTransfer(ctx, chain, from, destination, intent)
	default:
		tx, err = e.buildCoinTransfer(ctx, chain, from, destination, intent)
	}
	if err != nil {
		return nil, err
	}

	rawHex, err := ethereum.SignTransaction(tx, privateKey, chain.chainID)
	if err != nil {
		return nil, wrapError(KindInternal, "failed to sign transaction", err)
	}

	hash, err := chain.rpc.SendRawTransaction(ctx, rawHex)
	if err != nil {
		return nil, wrapError(KindProviderRejected, "node rejected transaction", err)
	}

	e.logger.Info().
		Str("chain", intent.Chain).
		Str("hash", hash).
		Str("asset", string(intent.Asset)).
		Msg("transaction broadcast")

	receipt, err := e.waitForReceipt(ctx, chain, hash)
	if err != nil {
		return nil, err
	}

	return &TransactionOutcome{
		Success:   true,
		ID:        hash,
		From:      from.Hex(),
		To:        intent.Destination,
		Value:     intent.Amount.String(),
		Timestamp: time.Now().Unix(),
		Receipt:   receipt,
	}, nil
}

// buildCoinTransfer builds an unsigned native value transfer.
func (e *EthereumEngine) buildCoinTransfer(ctx context.Context, chain evmChain, from, to common.Address, intent TransferIntent) (*types.Transaction, error) {
	value, err := ethereum.EtherToWei(intent.Amount)
	if err != nil {
		return nil, wrapError(KindInternal, "invalid amount", err)
	}

	nonce, err := chain.rpc.Nonce(ctx, from.Hex())
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch nonce", err)
	}

	gasLimit := intent.GasLimitOverride
	if gasLimit == 0 {
		gasLimit = ethereum.TransferGasLimit
	}

	gasPrice, err := chain.rpc.GasPrice(ctx)
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch gas price", err)
	}

	return ethereum.NewTransaction(nonce, to, value, gasLimit, gasPrice, nil), nil
}

// buildTokenTransfer builds an unsigned ERC20 transfer call. The token's
// decimals come from a read-only contract call; when no gas override is
// given the limit is a padded dry-run estimate.
func (e *EthereumEngine) buildTokenTransfer(ctx context.Context, chain evmChain, from, to common.Address, intent TransferIntent) (*types.Transaction, error) {
	contract, err := ethereum.ParseAddress(intent.ContractAddress)
	if err != nil {
		return nil, wrapError(KindInvalidContractAddress, "invalid contract address", err)
	}

	decimals, err := e.tokenDecimals(ctx, chain, contract)
	if err != nil {
		return nil, err
	}

	atomic, err := ethereum.TokenToAtomic(intent.Amount, decimals)
	if err != nil {
		return nil, wrapError(KindInternal, "invalid amount", err)
	}

	callData, err := ethereum.TransferCallData(to, atomic)
	if err != nil {
		return nil, wrapError(KindInternal, "failed to encode transfer", err)
	}

	gasLimit := intent.GasLimitOverride
	if gasLimit == 0 {
		estimate, err := chain.rpc.EstimateGas(ctx, from.Hex(), contract.Hex(), nil, callData)
		if err != nil {
			return nil, wrapError(KindExternalUnavailable, "failed to estimate gas", err)
		}
		gasLimit = ethereum.PadGasEstimate(estimate)
	}

	nonce, err := chain.rpc.Nonce(ctx, from.Hex())
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch nonce", err)
	}

	gasPrice, err := chain.rpc.GasPrice(ctx)
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch gas price", err)
	}

	return ethereum.NewTransaction(nonce, contract, big.NewInt(0), gasLimit, gasPrice, callData), nil
}

func (e *EthereumEngine) tokenDecimals(ctx context.Context, chain evmChain, contract common.Address) (uint8, error) {
	callData, err := ethereum.DecimalsCallData()
	if err != nil {
		return 0, wrapError(KindInternal, "failed to encode decimals call", err)
	}

	result, err := chain.rpc.CallContract(ctx, contract.Hex(), callData)
	if err != nil {
		return 0, wrapError(KindExternalUnavailable, "failed to read token decimals", err)
	}

	decimals, err := ethereum.UnpackDecimals(result)
	if err != nil {
		return 0, wrapError(KindInternal, "failed to decode token decimals", err)
	}
	return decimals, nil
}

// waitForReceipt polls for the transaction receipt until the configured
// timeout expires.
func (e *EthereumEngine) waitForReceipt(ctx context.Context, chain evmChain, hash string) (*api.Receipt, error) {
	deadline := time.Now().Add(e.receiptTimeout)
	ticker := time.NewTicker(e.receiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := chain.rpc.TransactionReceipt(ctx, hash)
		if err != nil {
			return nil, wrapError(KindInternal, "receipt lookup failed", err)
		}
		if receipt != nil {
			return receipt, nil
		}

		if time.Now().After(deadline) {
			return nil, newError(KindReceiptTimeout, "transaction "+hash+" not confirmed before timeout")
		}

		select {
		case <-ctx.Done():
			return nil, wrapError(KindReceiptTimeout, "receipt wait cancelled", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Balance returns the coin or token balance of an address in human units.
func (e *EthereumEngine) Balance(ctx context.Context, chainName, address string, asset AssetKind, contractAddress string) (*BalanceInfo, error) {
	chain, err := e.chain(chainName)
	if err != nil {
		return nil, err
	}

	addr, err := ethereum.ParseAddress(address)
	if err != nil {
		return nil, wrapError(KindInvalidAddress, "invalid address", err)
	}

	if asset == AssetToken {
		return e.tokenBalance(ctx, chain, addr, contractAddress)
	}

	balance, err := chain.rpc.Balance(ctx, addr.Hex())
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch balance", err)
	}

	return &BalanceInfo{
		Address: address,
		Asset:   string(AssetCoin),
		Balance: ethereum.WeiToEther(balance).String(),
	}, nil
}

func (e *EthereumEngine) tokenBalance(ctx context.Context, chain evmChain, owner common.Address, contractAddress string) (*BalanceInfo, error) {
	contract, err := ethereum.ParseAddress(contractAddress)
	if err != nil {
		return nil, wrapError(KindInvalidContractAddress, "invalid contract address", err)
	}

	decimals, err := e.tokenDecimals(ctx, chain, contract)
	if err != nil {
		return nil, err
	}

	callData, err := ethereum.BalanceOfCallData(owner)
	if err != nil {
		return nil, wrapError(KindInternal, "failed to encode balanceOf call", err)
	}

	result, err := chain.rpc.CallContract(ctx, contract.Hex(), callData)
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to read token balance", err)
	}

	raw, err := ethereum.UnpackBalance(result)
	if err != nil {
		return nil, wrapError(KindInternal, "failed to decode token balance", err)
	}

	return &BalanceInfo{
		Address: owner.Hex(),
		Asset:   string(AssetToken),
		Balance: ethereum.AtomicToToken(raw, decimals).String(),
	}, nil
}

// EstimateGasFees quotes the fee for a transfer in the chain's native
// display unit: gas limit times current gas price.
func (e *EthereumEngine) EstimateGasFees(ctx context.Context, chainName, from, to string, amount decimal.Decimal, asset AssetKind, contractAddress string) (*FeeQuote, error) {
	chain, err := e.chain(chainName)
	if err != nil {
		return nil, err
	}

	gasPrice, err := chain.rpc.GasPrice(ctx)
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch gas price", err)
	}

	var gasLimit uint64
	if asset == AssetToken {
		gasLimit, err = e.estimateTokenGas(ctx, chain, from, to, amount, contractAddress)
		if err != nil {
			return nil, err
		}
	} else {
		gasLimit = ethereum.TransferGasLimit
	}

	total := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	return &FeeQuote{
		PerUnitRate:   gasPrice.String(),
		ComputedTotal: ethereum.WeiToEther(total).String(),
	}, nil
}

func (e *EthereumEngine) estimateTokenGas(ctx context.Context, chain evmChain, from, to string, amount decimal.Decimal, contractAddress string) (uint64, error) {
	fromAddr, err := ethereum.ParseAddress(from)
	if err != nil {
		return 0, wrapError(KindInvalidAddress, "invalid source address", err)
	}
	toAddr, err := ethereum.ParseAddress(to)
	if err != nil {
		return 0, wrapError(KindInvalidAddress, "invalid destination address", err)
	}
	contract, err := ethereum.ParseAddress(contractAddress)
	if err != nil {
		return 0, wrapError(KindInvalidContractAddress, "invalid contract address", err)
	}

	decimals, err := e.tokenDecimals(ctx, chain, contract)
	if err != nil {
		return 0, err
	}

	atomic, err := ethereum.TokenToAtomic(amount, decimals)
	if err != nil {
		return 0, wrapError(KindInternal, "invalid amount", err)
	}

	callData, err := ethereum.TransferCallData(toAddr, atomic)
	if err != nil {
		return 0, wrapError(KindInternal, "failed to encode transfer", err)
	}

	estimate, err := chain.rpc.EstimateGas(ctx, fromAddr.Hex(), contract.Hex(), nil, callData)
	if err != nil {
		return 0, wrapError(KindExternalUnavailable, "failed to estimate gas", err)
	}
	return ethereum.PadGasEstimate(estimate), nil
}
