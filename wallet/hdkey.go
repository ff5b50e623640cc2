package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const hardenedOffset = 0x80000000

// secp256k1 curve order.
var curveOrder, _ = new(big.Int).SetString(
	"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// hdKey is a hierarchical deterministic key node.
type hdKey struct {
	privateKey []byte
	publicKey  []byte
	chainCode  []byte
	depth      uint8
}

// masterKey creates the BIP32 master key from a seed.
func masterKey(seed []byte) (*hdKey, error) {
	hash := hmacSHA512([]byte("Bitcoin seed"), seed)

	privateKey := hash[:32]
	chainCode := hash[32:]

	if !validPrivateKey(privateKey) {
		return nil, fmt.Errorf("seed produced an invalid master key")
	}

	return &hdKey{
		privateKey: privateKey,
		publicKey:  compressedPublicKey(privateKey),
		chainCode:  chainCode,
	}, nil
}

// derivePath derives the child key at a path like "m/44'/0'/0'/0/0".
func (k *hdKey) derivePath(path string) (*hdKey, error) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("invalid derivation path: %s", path)
	}

	key := k
	for _, part := range parts[1:] {
		index, err := parsePathIndex(part)
		if err != nil {
			return nil, fmt.Errorf("invalid derivation path %s: %w", path, err)
		}

		key, err = key.child(index)
		if err != nil {
			return nil, err
		}
	}
	return key, nil
}

// child derives one child key.
func (k *hdKey) child(index uint32) (*hdKey, error) {
	var data []byte
	if index >= hardenedOffset {
		data = append([]byte{0x00}, k.privateKey...)
	} else {
		data = append([]byte{}, k.publicKey...)
	}

	indexBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(indexBytes, index)
	data = append(data, indexBytes...)

	hash := hmacSHA512(k.chainCode, data)
	il := hash[:32]
	ir := hash[32:]

	parentInt := new(big.Int).SetBytes(k.privateKey)
	childInt := new(big.Int).Add(parentInt, new(big.Int).SetBytes(il))
	childInt.Mod(childInt, curveOrder)

	if childInt.Sign() == 0 {
		return nil, fmt.Errorf("derived an invalid child key")
	}

	childKey := childInt.FillBytes(make([]byte, 32))

	return &hdKey{
		privateKey: childKey,
		publicKey:  compressedPublicKey(childKey),
		chainCode:  ir,
		depth:      k.depth + 1,
	}, nil
}

// compressedPublicKey derives the compressed public key of a private key.
func compressedPublicKey(privateKey []byte) []byte {
	x, y := crypto.S256().ScalarBaseMult(privateKey)
	prefix := byte(0x02)
	if y.Bit(0) == 1 {
		prefix = 0x03
	}
	return append([]byte{prefix}, x.FillBytes(make([]byte, 32))...)
}

// fingerprint identifies a key node by its hashed public key.
func (k *hdKey) fingerprint() uint32 {
	hash := btcutil.Hash160(k.publicKey)
	return binary.BigEndian.Uint32(hash[:4])
}

func validPrivateKey(privateKey []byte) bool {
	if len(privateKey) != 32 {
		return false
	}
	keyInt := new(big.Int).SetBytes(privateKey)
	return keyInt.Sign() != 0 && keyInt.Cmp(curveOrder) < 0
}

func parsePathIndex(part string) (uint32, error) {
	hardened := strings.HasSuffix(part, "'")
	part = strings.TrimSuffix(part, "'")

	var index uint32
	if _, err := fmt.Sscanf(part, "%d", &index); err != nil {
		return 0, err
	}
	if hardened {
		index += hardenedOffset
	}
	return index, nil
}

func hmacSHA512(key, data []byte) []byte {
	h := hmac.New(sha512.New, key)
	h.Write(data)
	return h.Sum(nil)
}
