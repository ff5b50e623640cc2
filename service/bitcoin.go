package service

import (
	"context"
	"errors"
	"time"

	"github.com/driftwallet/drift/api"
	"github.com/driftwallet/drift/chains/bitcoin"
	"github.com/driftwallet/drift/config"
	"github.com/driftwallet/drift/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// mempoolConflictError is the provider text for a rejected transaction
	// that competes with an unconfirmed spend of the same prior output.
	mempoolConflictError = "Invalid transaction. Error: txn-mempool-conflict"

	// mempoolConflictMessage is the user-facing softening of that rejection:
	// the user can simply retry once the pending transaction confirms.
	mempoolConflictMessage = "You have an incomplete transaction. Wait until the previous transaction is completed"
)

// BitcoinExplorer is the explorer surface the UTXO engine depends on.
type BitcoinExplorer interface {
	AddressHistory(ctx context.Context, address string) (*api.AddressHistory, error)
	AddressDashboard(ctx context.Context, address string) (*api.AddressDashboard, error)
	TransactionDashboard(ctx context.Context, hash string) (*api.TransactionDashboard, error)
	PushTransaction(ctx context.Context, rawHex string) (string, error)
	RecommendedFee(ctx context.Context) (int64, error)
}

// BitcoinEngine builds, funds, and broadcasts UTXO transactions.
type BitcoinEngine struct {
	explorer         BitcoinExplorer
	spendUnconfirmed bool
	logger           zerolog.Logger
}

// NewBitcoinEngine creates the UTXO engine.
func NewBitcoinEngine(explorer BitcoinExplorer, cfg config.Bitcoin) *BitcoinEngine {
	return &BitcoinEngine{
		explorer:         explorer,
		spendUnconfirmed: cfg.SpendUnconfirmed,
		logger:           log.WithComponent("bitcoin"),
	}
}

// Send transfers amount BTC from the key's address to destination. The fee
// is netted from the destination output after the signed size is measured;
// feeRateOverride (sat/byte) skips the fee feed when positive.
func (e *BitcoinEngine) Send(ctx context.Context, privateKeyHex, destination string, amount decimal.Decimal, feeRateOverride int64) (*TransactionOutcome, error) {
	privateKey, err := bitcoin.ParsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, wrapError(KindInvalidAddress, "invalid private key", err)
	}

	sourceAddress, err := bitcoin.DeriveAddress(privateKey)
	if err != nil {
		return nil, wrapError(KindInternal, "failed to derive source address", err)
	}
	source := sourceAddress.String()

	destAddress, err := bitcoin.ParseAddress(destination)
	if err != nil {
		return nil, wrapError(KindInvalidAddress, "invalid destination address", err)
	}

	amountSat, err := bitcoin.BTCToSatoshis(amount)
	if err != nil || amountSat <= 0 {
		return nil, wrapError(KindInternal, "invalid amount", err)
	}

	feeRate := feeRateOverride
	if feeRate <= 0 {
		feeRate, err = e.explorer.RecommendedFee(ctx)
		if err != nil {
			return nil, wrapError(KindFeeLookupFailed, "fee estimator unreachable", err)
		}
	}

	prior, err := e.resolvePriorOutput(ctx, source)
	if err != nil {
		return nil, err
	}

	tx := bitcoin.NewTransaction()
	if err := tx.AddInput(prior); err != nil {
		return nil, wrapError(KindInternal, "failed to add input", err)
	}
	if err := tx.AddOutput(amountSat, destAddress); err != nil {
		return nil, wrapError(KindInternal, "failed to add output", err)
	}

	priors := []*bitcoin.PriorOutput{prior}

	// Sign once with the full amount to measure the real wire size.
	if err := tx.Sign(priors, privateKey, sourceAddress); err != nil {
		return nil, wrapError(KindInternal, "failed to sign transaction", err)
	}

	size, err := tx.SerializedSize()
	if err != nil {
		return nil, wrapError(KindInternal, "failed to measure transaction", err)
	}
	feeSat := feeRate * int64(size)

	if feeSat >= amountSat {
		return nil, newError(KindInsufficientBalance, "amount does not cover the network fee")
	}

	// Net the fee from the destination output and re-sign: witness
	// signatures commit to output values.
	if err := tx.SetOutputValue(0, amountSat-feeSat); err != nil {
		return nil, wrapError(KindInternal, "failed to settle fee", err)
	}
	if err := tx.Sign(priors, privateKey, sourceAddress); err != nil {
		return nil, wrapError(KindInternal, "failed to re-sign transaction", err)
	}

	fee := bitcoin.SatoshisToBTC(feeSat)
	if err := e.checkAffordability(ctx, source, amount, fee); err != nil {
		return nil, err
	}

	rawHex, err := tx.Serialize()
	if err != nil {
		return nil, wrapError(KindInternal, "failed to serialize transaction", err)
	}

	e.logger.Debug().
		Str("from", source).
		Str("to", destination).
		Int64("fee_rate", feeRate).
		Int("size", size).
		Msg("broadcasting transaction")

	hash, err := e.explorer.PushTransaction(ctx, rawHex)
	if err != nil {
		var pushErr *api.PushError
		if errors.As(err, &pushErr) {
			message := pushErr.Message
			if message == mempoolConflictError {
				message = mempoolConflictMessage
			}
			return &TransactionOutcome{Success: false, Message: message}, nil
		}
		return nil, wrapError(KindExternalUnavailable, "broadcast failed", err)
	}

	e.logger.Info().Str("hash", hash).Msg("transaction broadcast")

	return &TransactionOutcome{
		Success:   true,
		ID:        hash,
		From:      source,
		To:        destination,
		Value:     amount.String(),
		Fee:       fee.String(),
		Timestamp: time.Now().Unix(),
	}, nil
}

// resolvePriorOutput selects the spendable output: the most recent history
// transaction's output owned by the source address.
func (e *BitcoinEngine) resolvePriorOutput(ctx context.Context, source string) (*bitcoin.PriorOutput, error) {
	history, err := e.explorer.AddressHistory(ctx, source)
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch address history", err)
	}
	if len(history.Txs) == 0 {
		return nil, newError(KindNoPriorTransactions, "address has no transaction history")
	}

	recent := history.Txs[0]
	for vout, output := range recent.Outputs {
		for _, addr := range output.Addresses {
			if addr == source {
				return &bitcoin.PriorOutput{
					TxID:  recent.Hash,
					Vout:  uint32(vout),
					Value: output.Value,
				}, nil
			}
		}
	}

	return nil, newError(KindNoMatchingOutput, "no output in the latest transaction belongs to the source address")
}

// checkAffordability verifies the address balance covers amount plus fee
// before anything reaches the network.
func (e *BitcoinEngine) checkAffordability(ctx context.Context, source string, amount, fee decimal.Decimal) error {
	dashboard, err := e.explorer.AddressDashboard(ctx, source)
	if err != nil {
		return wrapError(KindExternalUnavailable, "failed to fetch address balance", err)
	}

	available := dashboard.Balance
	if e.spendUnconfirmed {
		available += dashboard.UnconfirmedBalance
	}

	total := amount.Add(fee)
	if bitcoin.SatoshisToBTC(available).LessThan(total) {
		return newError(KindInsufficientBalance, "balance does not cover amount plus fee")
	}
	return nil
}

// Balance returns the confirmed balance of an address in BTC.
func (e *BitcoinEngine) Balance(ctx context.Context, address string) (*BalanceInfo, error) {
	if err := bitcoin.ValidateAddress(address); err != nil {
		return nil, wrapError(KindInvalidAddress, "invalid address", err)
	}

	dashboard, err := e.explorer.AddressDashboard(ctx, address)
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch address balance", err)
	}

	return &BalanceInfo{
		Address: address,
		Asset:   string(AssetCoin),
		Balance: bitcoin.SatoshisToBTC(dashboard.Balance).String(),
	}, nil
}

// Transaction returns a normalized view of a single transaction: its first
// input and output and whether it has been included in a block.
func (e *BitcoinEngine) Transaction(ctx context.Context, hash string) (*TransactionInfo, error) {
	dashboard, err := e.explorer.TransactionDashboard(ctx, hash)
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch transaction", err)
	}

	info := &TransactionInfo{
		Hash:      dashboard.Hash,
		Fee:       bitcoin.SatoshisToBTC(dashboard.Fee).String(),
		Time:      dashboard.Time,
		Confirmed: dashboard.BlockID > 0,
	}
	if len(dashboard.Inputs) > 0 {
		info.From = dashboard.Inputs[0].Recipient
	}
	if len(dashboard.Outputs) > 0 {
		info.To = dashboard.Outputs[0].Recipient
		info.Value = bitcoin.SatoshisToBTC(dashboard.Outputs[0].Value).String()
	}
	return info, nil
}

// Transactions returns the address's transactions, resolved sequentially in
// the explorer's order.
func (e *BitcoinEngine) Transactions(ctx context.Context, address string) ([]*TransactionInfo, error) {
	if err := bitcoin.ValidateAddress(address); err != nil {
		return nil, wrapError(KindInvalidAddress, "invalid address", err)
	}

	dashboard, err := e.explorer.AddressDashboard(ctx, address)
	if err != nil {
		return nil, wrapError(KindExternalUnavailable, "failed to fetch address transactions", err)
	}

	transactions := make([]*TransactionInfo, 0, len(dashboard.Transactions))
	for _, hash := range dashboard.Transactions {
		info, err := e.Transaction(ctx, hash)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, info)
	}
	return transactions, nil
}
