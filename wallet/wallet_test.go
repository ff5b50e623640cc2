package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestFromMnemonicDeterministic(t *testing.T) {
	first, err := FromMnemonic(testMnemonic)
	require.NoError(t, err)
	second, err := FromMnemonic(testMnemonic)
	require.NoError(t, err)

	require.Equal(t, first.Bitcoin, second.Bitcoin)
	require.Equal(t, first.Ethereum, second.Ethereum)
	require.Equal(t, testMnemonic, first.Mnemonic)
}

func TestFromMnemonicKnownEthereumAddress(t *testing.T) {
	w, err := FromMnemonic(testMnemonic)
	require.NoError(t, err)

	// Established reference derivation for this mnemonic at m/44'/60'/0'/0/0.
	require.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", w.Ethereum.Address)
}

func TestFromMnemonicAccountShape(t *testing.T) {
	w, err := FromMnemonic(testMnemonic)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(w.Bitcoin.Address, "bc1"))
	require.Len(t, w.Bitcoin.PrivateKey, 64)
	require.True(t, strings.HasPrefix(w.Ethereum.Address, "0x"))
	require.Len(t, w.Ethereum.Address, 42)
	require.Len(t, w.Ethereum.PrivateKey, 64)
	require.NotEqual(t, w.Bitcoin.PrivateKey, w.Ethereum.PrivateKey)
}

func TestFromMnemonicInvalid(t *testing.T) {
	_, err := FromMnemonic("definitely not a valid mnemonic phrase")
	require.Error(t, err)

	_, err = FromMnemonic("")
	require.Error(t, err)
}

func TestCreate(t *testing.T) {
	w, err := Create()
	require.NoError(t, err)

	require.True(t, bip39.IsMnemonicValid(w.Mnemonic))
	require.Len(t, strings.Fields(w.Mnemonic), 12)
	require.NotEmpty(t, w.Bitcoin.Address)
	require.NotEmpty(t, w.Ethereum.Address)

	// Fresh entropy every time.
	other, err := Create()
	require.NoError(t, err)
	require.NotEqual(t, w.Mnemonic, other.Mnemonic)
}

func TestDerivePathRejectsGarbage(t *testing.T) {
	seed := bip39.NewSeed(testMnemonic, "")
	master, err := masterKey(seed)
	require.NoError(t, err)

	_, err = master.derivePath("44'/0'/0'/0/0")
	require.Error(t, err)

	_, err = master.derivePath("m/44'/x/0")
	require.Error(t, err)
}
