package tests

import (
	"context"
	"crypto/sha256"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/otc-server/pkg/otc/data/listing"
	"github.com/code-payments/otc-server/pkg/otc/program"
)

func RunTests(t *testing.T, s listing.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s listing.Store){
		testRoundTrip,
		testUniqueness,
		testUpdate,
		testGetAllBySeller,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s listing.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()

		record := newTestRecord(1)
		cloned := record.Clone()

		_, err := s.GetByAddress(ctx, record.Address)
		assert.Equal(t, listing.ErrListingNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		require.NoError(t, s.Put(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))

		actual, err := s.GetByAddress(ctx, cloned.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testUniqueness(t *testing.T, s listing.Store) {
	t.Run("testUniqueness", func(t *testing.T) {
		ctx := context.Background()

		record := newTestRecord(2)
		require.NoError(t, s.Put(ctx, record))

		// Same address
		duplicate := newTestRecord(2)
		assert.Equal(t, listing.ErrListingAlreadyExists, s.Put(ctx, duplicate))

		// Different address, same (seller, listing_id)
		duplicate = newTestRecord(2)
		duplicate.Address = "address-other"
		assert.Equal(t, listing.ErrListingAlreadyExists, s.Put(ctx, duplicate))

		// Same seller, new listing_id is fine
		other := newTestRecord(2)
		other.Address = "address-other"
		other.ListingID = 999
		assert.NoError(t, s.Put(ctx, other))
	})
}

func testUpdate(t *testing.T, s listing.Store) {
	t.Run("testUpdate", func(t *testing.T) {
		ctx := context.Background()

		record := newTestRecord(3)

		assert.Equal(t, listing.ErrListingNotFound, s.Update(ctx, record))

		require.NoError(t, s.Put(ctx, record))

		record.Filled = record.Quantity / 2
		record.Status = program.ListingStatusActive
		cloned := record.Clone()

		require.NoError(t, s.Update(ctx, record))

		actual, err := s.GetByAddress(ctx, cloned.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
	})
}

func testGetAllBySeller(t *testing.T, s listing.Store) {
	t.Run("testGetAllBySeller", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllBySeller(ctx, "unknown-seller")
		assert.Equal(t, listing.ErrListingNotFound, err)

		var expected []*listing.Record
		for i := 0; i < 3; i++ {
			record := newTestRecord(4)
			record.Address = fmt.Sprintf("seller4-listing%d", i)
			record.ListingID = uint64(i)
			require.NoError(t, s.Put(ctx, record))
			expected = append(expected, record)
		}

		actual, err := s.GetAllBySeller(ctx, expected[0].Seller)
		require.NoError(t, err)
		require.Len(t, actual, len(expected))
		for i := range expected {
			assertEquivalentRecords(t, expected[i], actual[i])
		}
	})
}

func newTestRecord(seed uint64) *listing.Record {
	hash := sha256.Sum256([]byte(fmt.Sprintf("proof%d", seed)))

	return &listing.Record{
		Address: fmt.Sprintf("address%d", seed),

		Seller:         fmt.Sprintf("seller%d", seed),
		BaseMint:       fmt.Sprintf("base-mint%d", seed),
		QuoteMint:      fmt.Sprintf("quote-mint%d", seed),
		VaultAuthority: fmt.Sprintf("vault-authority%d", seed),

		PricePerToken: seed * 1_000,
		Quantity:      seed * 1_000_000,
		Filled:        0,
		ListingID:     seed,

		Flags:        program.FlagAllowPartial,
		VaultBump:    255,
		Status:       program.ListingStatusAwaitingDeposit,
		BaseDecimals: 6,

		FeePaymentMethod: program.FeePaymentMethodX402,
		FeeAmountPaid:    seed * 10,
		X402PayloadHash:  hash[:],
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *listing.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Seller, obj2.Seller)
	assert.Equal(t, obj1.BaseMint, obj2.BaseMint)
	assert.Equal(t, obj1.QuoteMint, obj2.QuoteMint)
	assert.Equal(t, obj1.VaultAuthority, obj2.VaultAuthority)
	assert.Equal(t, obj1.PricePerToken, obj2.PricePerToken)
	assert.Equal(t, obj1.Quantity, obj2.Quantity)
	assert.Equal(t, obj1.Filled, obj2.Filled)
	assert.Equal(t, obj1.ListingID, obj2.ListingID)
	assert.Equal(t, obj1.Flags, obj2.Flags)
	assert.Equal(t, obj1.VaultBump, obj2.VaultBump)
	assert.Equal(t, obj1.Status, obj2.Status)
	assert.Equal(t, obj1.BaseDecimals, obj2.BaseDecimals)
	assert.Equal(t, obj1.FeePaymentMethod, obj2.FeePaymentMethod)
	assert.Equal(t, obj1.FeeAmountPaid, obj2.FeeAmountPaid)
	assert.Equal(t, obj1.X402PayloadHash, obj2.X402PayloadHash)
}
