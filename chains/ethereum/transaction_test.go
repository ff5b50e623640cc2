package ethereum

import (
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testKeyHex  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestWeiConversionRoundTrip(t *testing.T) {
	for _, wei := range []string{"1", "1000000000", "1000000000000000000", "123456789012345678901"} {
		value, ok := new(big.Int).SetString(wei, 10)
		require.True(t, ok)

		ether := WeiToEther(value)
		back, err := EtherToWei(ether)
		require.NoError(t, err)
		require.Equal(t, value.String(), back.String())
	}
}

func TestEtherToWeiRejectsSubWei(t *testing.T) {
	amount, err := decimal.NewFromString("0.0000000000000000001")
	require.NoError(t, err)

	_, err = EtherToWei(amount)
	require.Error(t, err)
}

func TestTokenToAtomicExactNotation(t *testing.T) {
	amount, err := decimal.NewFromString("1.5")
	require.NoError(t, err)

	atomic, err := TokenToAtomic(amount, 6)
	require.NoError(t, err)
	require.Equal(t, "1500000", atomic.String())
}

func TestTokenToAtomicLargeAmount(t *testing.T) {
	amount, err := decimal.NewFromString("123456789.123456789123456789")
	require.NoError(t, err)

	atomic, err := TokenToAtomic(amount, 18)
	require.NoError(t, err)
	require.Equal(t, "123456789123456789123456789", atomic.String())
	require.NotContains(t, atomic.String(), "e")
}

func TestAtomicToTokenRoundTrip(t *testing.T) {
	raw, ok := new(big.Int).SetString("1500000", 10)
	require.True(t, ok)

	human := AtomicToToken(raw, 6)
	require.Equal(t, "1.5", human.String())

	back, err := TokenToAtomic(human, 6)
	require.NoError(t, err)
	require.Equal(t, raw.String(), back.String())
}

func TestPadGasEstimate(t *testing.T) {
	require.Equal(t, uint64(60000), PadGasEstimate(40000))
	require.Equal(t, uint64(31501), PadGasEstimate(21001))
	require.Equal(t, uint64(0), PadGasEstimate(0))
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress(testAddress)
	require.NoError(t, err)
	require.Equal(t, testAddress, addr.Hex())

	_, err = ParseAddress("0x123")
	require.Error(t, err)
	_, err = ParseAddress("")
	require.Error(t, err)
}

func TestTransferCallDataLayout(t *testing.T) {
	to, err := ParseAddress(testAddress)
	require.NoError(t, err)

	data, err := TransferCallData(to, big.NewInt(1_500_000))
	require.NoError(t, err)

	// 4-byte selector + 32-byte address + 32-byte amount.
	require.Len(t, data, 68)
	require.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
	require.Equal(t, "1500000", new(big.Int).SetBytes(data[36:68]).String())
}

func TestUnpackDecimals(t *testing.T) {
	result := "0x" + strings.Repeat("0", 62) + "06"
	decimals, err := UnpackDecimals(result)
	require.NoError(t, err)
	require.Equal(t, uint8(6), decimals)
}

func TestUnpackBalance(t *testing.T) {
	result := "0x" + strings.Repeat("0", 58) + "16e360" // 1500000
	balance, err := UnpackBalance(result)
	require.NoError(t, err)
	require.Equal(t, "1500000", balance.String())
}

func TestSignTransaction(t *testing.T) {
	privateKey, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)

	to, err := ParseAddress(testAddress)
	require.NoError(t, err)

	tx := NewTransaction(0, to, big.NewInt(1), 21000, big.NewInt(1_000_000_000), nil)
	rawHex, err := SignTransaction(tx, privateKey, 1)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rawHex, "0x"))
	require.Greater(t, len(rawHex), 100)
}

func TestDeriveAddressDeterministic(t *testing.T) {
	privateKey, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)

	first := DeriveAddress(privateKey)
	second := DeriveAddress(privateKey)
	require.Equal(t, first, second)
	require.NoError(t, ValidateAddress(first.Hex()))
}
