package common

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Key is an ed25519 public key with a cached base58 string representation.
// All externally addressable identities (sellers, buyers, mints, token
// accounts, derived authorities) are modelled as keys.
type Key struct {
	bytesValue  []byte
	stringValue string
}

func NewKeyFromBytes(value []byte) (*Key, error) {
	k := &Key{
		bytesValue:  value,
		stringValue: base58.Encode(value),
	}

	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func NewKeyFromString(value string) (*Key, error) {
	bytesValue, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding string as base58")
	}

	k := &Key{
		bytesValue:  bytesValue,
		stringValue: value,
	}

	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

// NewRandomKey generates a new random public key. Useful as an account
// identity in tests and local setups.
func NewRandomKey() (*Key, error) {
	publicKey, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error generating key")
	}

	return NewKeyFromBytes(publicKey)
}

func (k *Key) ToBytes() []byte {
	return k.bytesValue
}

func (k *Key) ToPublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(k.bytesValue)
}

func (k *Key) ToBase58() string {
	return k.stringValue
}

func (k *Key) Validate() error {
	if k == nil {
		return errors.New("key is nil")
	}

	if len(k.bytesValue) != ed25519.PublicKeySize {
		return errors.New("key must be an ed25519 public key")
	}

	if base58.Encode(k.bytesValue) != k.stringValue {
		return errors.New("bytes and string representation don't match")
	}

	return nil
}
