package bitcoin

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
)

// SatoshiExponent is the number of decimal places in one bitcoin.
const SatoshiExponent = 8

// PriorOutput is a spendable prior output consumed as a transaction input.
type PriorOutput struct {
	TxID  string
	Vout  uint32
	Value int64
}

// Transaction represents a Bitcoin transaction under construction.
type Transaction struct {
	Version  int32
	Inputs   []*wire.TxIn
	Outputs  []*wire.TxOut
	LockTime uint32
}

// NewTransaction creates an empty SegWit-version transaction.
func NewTransaction() *Transaction {
	return &Transaction{
		Version:  2,
		Inputs:   make([]*wire.TxIn, 0),
		Outputs:  make([]*wire.TxOut, 0),
		LockTime: 0,
	}
}

// AddInput adds the prior output as a transaction input. The witness is set
// during signing.
func (tx *Transaction) AddInput(prior *PriorOutput) error {
	prevHash, err := chainhash.NewHashFromStr(prior.TxID)
	if err != nil {
		return fmt.Errorf("invalid previous transaction hash: %w", err)
	}
	input := wire.NewTxIn(wire.NewOutPoint(prevHash, prior.Vout), nil, nil)
	tx.Inputs = append(tx.Inputs, input)
	return nil
}

// AddOutput adds an output paying value satoshis to address.
func (tx *Transaction) AddOutput(value int64, address btcutil.Address) error {
	script, err := txscript.PayToAddrScript(address)
	if err != nil {
		return fmt.Errorf("failed to create output script: %w", err)
	}
	tx.Outputs = append(tx.Outputs, wire.NewTxOut(value, script))
	return nil
}

// SetOutputValue overwrites the value of the output at index. Used to net the
// fee from the destination output after the transaction size is known.
func (tx *Transaction) SetOutputValue(index int, value int64) error {
	if index < 0 || index >= len(tx.Outputs) {
		return fmt.Errorf("output index %d out of range", index)
	}
	tx.Outputs[index].Value = value
	return nil
}

// Sign signs every input with the given key. Signatures commit to the output
// values, so Sign must be called again after SetOutputValue.
func (tx *Transaction) Sign(priors []*PriorOutput, privateKey *btcec.PrivateKey, address btcutil.Address) error {
	wireTx := tx.toWireTx()
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	hashes := txscript.NewTxSigHashes(wireTx, fetcher)

	for i, input := range tx.Inputs {
		if i >= len(priors) {
			return fmt.Errorf("insufficient prior outputs for signing")
		}

		script, err := txscript.PayToAddrScript(address)
		if err != nil {
			return fmt.Errorf("failed to create script: %w", err)
		}

		sighash, err := txscript.CalcWitnessSigHash(script, hashes, txscript.SigHashAll, wireTx, i, priors[i].Value)
		if err != nil {
			return fmt.Errorf("failed to calculate sighash: %w", err)
		}

		sig, err := ecdsa.SignASN1(nil, privateKey.ToECDSA(), sighash)
		if err != nil {
			return fmt.Errorf("failed to sign input %d: %w", i, err)
		}

		input.Witness = wire.TxWitness{
			append(sig, byte(txscript.SigHashAll)),
			privateKey.PubKey().SerializeCompressed(),
		}
	}
	return nil
}

// Serialize serializes the transaction to wire-format hex.
func (tx *Transaction) Serialize() (string, error) {
	raw, err := tx.serializeBytes()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", raw), nil
}

// SerializedSize returns the wire-format byte size of the transaction.
func (tx *Transaction) SerializedSize() (int, error) {
	raw, err := tx.serializeBytes()
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

func (tx *Transaction) serializeBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.toWireTx().Serialize(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return buf.Bytes(), nil
}

// toWireTx converts to wire.MsgTx.
func (tx *Transaction) toWireTx() *wire.MsgTx {
	wireTx := wire.NewMsgTx(tx.Version)
	for _, input := range tx.Inputs {
		wireTx.AddTxIn(input)
	}
	for _, output := range tx.Outputs {
		wireTx.AddTxOut(output)
	}
	wireTx.LockTime = tx.LockTime
	return wireTx
}

// ParseAddress parses a Bitcoin address.
func ParseAddress(address string) (btcutil.Address, error) {
	return btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
}

// ValidateAddress validates a Bitcoin address.
func ValidateAddress(address string) error {
	_, err := ParseAddress(address)
	return err
}

// ParsePrivateKey parses a 32-byte hex-encoded private key.
func ParsePrivateKey(keyHex string) (*btcec.PrivateKey, error) {
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key encoding: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(raw))
	}
	privateKey, _ := btcec.PrivKeyFromBytes(raw)
	return privateKey, nil
}

// DeriveAddress derives the P2WPKH address of a private key.
func DeriveAddress(privateKey *btcec.PrivateKey) (btcutil.Address, error) {
	pubKeyHash := btcutil.Hash160(privateKey.PubKey().SerializeCompressed())
	return btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, &chaincfg.MainNetParams)
}

// SatoshisToBTC converts satoshis to a BTC decimal amount.
func SatoshisToBTC(satoshis int64) decimal.Decimal {
	return decimal.New(satoshis, -SatoshiExponent)
}

// BTCToSatoshis converts a BTC decimal amount to satoshis. Amounts with more
// than eight decimal places are rejected rather than silently truncated.
func BTCToSatoshis(btc decimal.Decimal) (int64, error) {
	shifted := btc.Shift(SatoshiExponent)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-satoshi precision", btc.String())
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %s exceeds satoshi range", btc.String())
	}
	return shifted.IntPart(), nil
}
