package bitcoin

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestSatoshiConversionRoundTrip(t *testing.T) {
	for _, satoshis := range []int64{1, 546, 100_000_000, 2_100_000_000_000_000} {
		btc := SatoshisToBTC(satoshis)
		back, err := BTCToSatoshis(btc)
		require.NoError(t, err)
		require.Equal(t, satoshis, back)
	}
}

func TestBTCToSatoshis(t *testing.T) {
	amount, err := decimal.NewFromString("0.00000546")
	require.NoError(t, err)

	satoshis, err := BTCToSatoshis(amount)
	require.NoError(t, err)
	require.Equal(t, int64(546), satoshis)
}

func TestBTCToSatoshisRejectsSubSatoshi(t *testing.T) {
	amount, err := decimal.NewFromString("0.000000001")
	require.NoError(t, err)

	_, err = BTCToSatoshis(amount)
	require.Error(t, err)
}

func TestSatoshisToBTCExponent(t *testing.T) {
	require.Equal(t, "1.5", SatoshisToBTC(150_000_000).String())
	require.Equal(t, "0.00000001", SatoshisToBTC(1).String())
}

func TestParsePrivateKey(t *testing.T) {
	key, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)
	require.NotNil(t, key)

	_, err = ParsePrivateKey("abcd")
	require.Error(t, err)

	_, err = ParsePrivateKey("zz")
	require.Error(t, err)
}

func TestDeriveAddressDeterministic(t *testing.T) {
	key, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)

	first, err := DeriveAddress(key)
	require.NoError(t, err)
	second, err := DeriveAddress(key)
	require.NoError(t, err)

	require.Equal(t, first.String(), second.String())
	require.True(t, strings.HasPrefix(first.String(), "bc1"))
	require.NoError(t, ValidateAddress(first.String()))
}

func TestValidateAddressRejectsGarbage(t *testing.T) {
	require.Error(t, ValidateAddress("not-an-address"))
	require.Error(t, ValidateAddress(""))
}

func TestBuildSignSettle(t *testing.T) {
	key, err := ParsePrivateKey(testKeyHex)
	require.NoError(t, err)
	address, err := DeriveAddress(key)
	require.NoError(t, err)

	prior := &PriorOutput{
		TxID:  strings.Repeat("ab", 32),
		Vout:  0,
		Value: 200_000,
	}

	tx := NewTransaction()
	require.NoError(t, tx.AddInput(prior))
	require.NoError(t, tx.AddOutput(100_000, address))

	priors := []*PriorOutput{prior}
	require.NoError(t, tx.Sign(priors, key, address))

	size, err := tx.SerializedSize()
	require.NoError(t, err)
	require.Greater(t, size, 100)

	// Settle a fee by netting it from the destination output, then re-sign.
	fee := int64(10 * size)
	require.NoError(t, tx.SetOutputValue(0, 100_000-fee))
	require.NoError(t, tx.Sign(priors, key, address))

	require.Equal(t, 100_000-fee, tx.Outputs[0].Value)

	rawHex, err := tx.Serialize()
	require.NoError(t, err)
	require.NotEmpty(t, rawHex)
}

func TestSetOutputValueOutOfRange(t *testing.T) {
	tx := NewTransaction()
	require.Error(t, tx.SetOutputValue(0, 1))
}
