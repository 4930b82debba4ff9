package common

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_RoundTrip(t *testing.T) {
	key, err := NewRandomKey()
	require.NoError(t, err)

	fromBytes, err := NewKeyFromBytes(key.ToBytes())
	require.NoError(t, err)
	assert.Equal(t, key.ToBase58(), fromBytes.ToBase58())

	fromString, err := NewKeyFromString(key.ToBase58())
	require.NoError(t, err)
	assert.Equal(t, key.ToBytes(), fromString.ToBytes())

	assert.Len(t, key.ToPublicKey(), ed25519.PublicKeySize)
}

func TestKey_Invalid(t *testing.T) {
	_, err := NewKeyFromBytes(make([]byte, 16))
	assert.Error(t, err)

	_, err = NewKeyFromString("not-base58-0OIl")
	assert.Error(t, err)
}
