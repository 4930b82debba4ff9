package program

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListing_RoundTrip(t *testing.T) {
	expected := Listing{
		Seller:         testKey(t, 1),
		BaseMint:       testKey(t, 2),
		QuoteMint:      testKey(t, 3),
		VaultAuthority: testKey(t, 4),

		PricePerToken: 1_000_000,
		Quantity:      100_000_000,
		Filled:        40_000_000,
		ListingID:     42,

		Flags:        FlagAllowPartial,
		VaultBump:    254,
		Status:       ListingStatusActive,
		BaseDecimals: 6,

		FeePaymentMethod: FeePaymentMethodX402,
		FeeAmountPaid:    1_000_000_000_000,
		X402PayloadHash:  sha256.Sum256([]byte("proof")),
	}

	marshalled := expected.Marshal()
	require.Len(t, marshalled, ListingAccountSize)

	var actual Listing
	require.True(t, actual.Unmarshal(marshalled))
	assert.Equal(t, expected, actual)

	assert.False(t, actual.Unmarshal(marshalled[:ListingAccountSize-1]))
	assert.False(t, actual.Unmarshal(append(marshalled, 0)))
}

func TestListing_FixedOffsets(t *testing.T) {
	l := Listing{
		Seller:         testKey(t, 5),
		BaseMint:       testKey(t, 6),
		QuoteMint:      testKey(t, 7),
		VaultAuthority: testKey(t, 8),

		PricePerToken: 1,
		Quantity:      2,
		Filled:        3,
		ListingID:     4,

		Flags:        1,
		VaultBump:    255,
		Status:       ListingStatusCompleted,
		BaseDecimals: 9,

		FeePaymentMethod: FeePaymentMethodNative,
		FeeAmountPaid:    5,
	}

	b := l.Marshal()

	assert.EqualValues(t, l.Seller, b[0:32])
	assert.EqualValues(t, l.BaseMint, b[32:64])
	assert.EqualValues(t, l.QuoteMint, b[64:96])
	assert.EqualValues(t, l.VaultAuthority, b[96:128])
	assert.EqualValues(t, 1, binary.LittleEndian.Uint64(b[128:]))
	assert.EqualValues(t, 2, binary.LittleEndian.Uint64(b[136:]))
	assert.EqualValues(t, 3, binary.LittleEndian.Uint64(b[144:]))
	assert.EqualValues(t, 4, binary.LittleEndian.Uint64(b[152:]))
	assert.EqualValues(t, 1, b[160])
	assert.EqualValues(t, 255, b[161])
	assert.EqualValues(t, ListingStatusCompleted, b[162])
	assert.EqualValues(t, 9, b[163])
	assert.EqualValues(t, FeePaymentMethodNative, b[164])
	assert.EqualValues(t, 5, binary.LittleEndian.Uint64(b[165:]))
	assert.EqualValues(t, make([]byte, 32), b[173:205])
}

func TestListing_Helpers(t *testing.T) {
	l := Listing{Quantity: 100, Filled: 40}
	assert.EqualValues(t, 60, l.Remaining())
	assert.False(t, l.AllowPartial())

	l.Flags = FlagAllowPartial
	assert.True(t, l.AllowPartial())

	l.Filled = 100
	assert.EqualValues(t, 0, l.Remaining())
}

func TestVaultAuthority_Derivation(t *testing.T) {
	seller := testKey(t, 9)

	authority, bump, err := GetVaultAuthority(seller, 1)
	require.NoError(t, err)

	again, againBump, err := GetVaultAuthority(seller, 1)
	require.NoError(t, err)
	assert.Equal(t, authority, again)
	assert.Equal(t, bump, againBump)

	other, _, err := GetVaultAuthority(seller, 2)
	require.NoError(t, err)
	assert.NotEqual(t, authority, other)

	assert.True(t, VerifyVaultAuthority(seller, authority, 1, bump))
	assert.False(t, VerifyVaultAuthority(seller, authority, 2, bump))
	assert.False(t, VerifyVaultAuthority(seller, other, 1, bump))
}

func testKey(t *testing.T, seed byte) ed25519.PublicKey {
	b := make([]byte, ed25519.PublicKeySize)
	for i := range b {
		b[i] = seed
	}
	return b
}
