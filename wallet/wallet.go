// Package wallet creates deterministic multi-chain wallets. Nothing is
// persisted; callers receive the mnemonic and derived keys and own them from
// there.
package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/driftwallet/drift/chains/bitcoin"
	"github.com/driftwallet/drift/chains/ethereum"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

const (
	// BIP-44 derivation paths.
	BtcDerivationPath = "m/44'/0'/0'/0/0"
	EthDerivationPath = "m/44'/60'/0'/0/0"
)

// Account is a derived chain account.
type Account struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

// Wallet holds a mnemonic and the accounts derived from it.
type Wallet struct {
	Mnemonic string  `json:"mnemonic"`
	Bitcoin  Account `json:"bitcoin"`
	Ethereum Account `json:"ethereum"`
}

// Create generates a new 12-word wallet.
func Create() (*Wallet, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	return FromMnemonic(mnemonic)
}

// FromMnemonic derives a wallet from an existing mnemonic.
func FromMnemonic(mnemonic string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")

	master, err := masterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	btcAccount, err := deriveBitcoinAccount(master)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bitcoin account: %w", err)
	}

	ethAccount, err := deriveEthereumAccount(master)
	if err != nil {
		return nil, fmt.Errorf("failed to derive ethereum account: %w", err)
	}

	return &Wallet{
		Mnemonic: mnemonic,
		Bitcoin:  *btcAccount,
		Ethereum: *ethAccount,
	}, nil
}

func deriveBitcoinAccount(master *hdKey) (*Account, error) {
	key, err := master.derivePath(BtcDerivationPath)
	if err != nil {
		return nil, err
	}

	privateKey, _ := btcec.PrivKeyFromBytes(key.privateKey)
	address, err := bitcoin.DeriveAddress(privateKey)
	if err != nil {
		return nil, err
	}

	return &Account{
		Address:    address.String(),
		PrivateKey: hex.EncodeToString(key.privateKey),
	}, nil
}

func deriveEthereumAccount(master *hdKey) (*Account, error) {
	key, err := master.derivePath(EthDerivationPath)
	if err != nil {
		return nil, err
	}

	privateKey, err := ethcrypto.ToECDSA(key.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to ECDSA key: %w", err)
	}

	return &Account{
		Address:    ethereum.DeriveAddress(privateKey).Hex(),
		PrivateKey: hex.EncodeToString(key.privateKey),
	}, nil
}
