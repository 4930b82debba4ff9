package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/otc-server/pkg/otc/data/tokenaccount"
)

func RunTests(t *testing.T, s tokenaccount.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s tokenaccount.Store){
		testRoundTrip,
		testTransfer,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s tokenaccount.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()

		record := newTestRecord(1, 12345)
		cloned := record.Clone()

		_, err := s.Get(ctx, record.Address)
		assert.Equal(t, tokenaccount.ErrTokenAccountNotFound, err)

		require.NoError(t, s.Put(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))

		actual, err := s.Get(ctx, cloned.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		assert.Equal(t, tokenaccount.ErrTokenAccountAlreadyExists, s.Put(ctx, newTestRecord(1, 0)))
	})
}

func testTransfer(t *testing.T, s tokenaccount.Store) {
	t.Run("testTransfer", func(t *testing.T) {
		ctx := context.Background()

		source := newTestRecord(2, 100)
		destination := newTestRecord(3, 0)
		require.NoError(t, s.Put(ctx, source))
		require.NoError(t, s.Put(ctx, destination))

		assert.Equal(t, tokenaccount.ErrTokenAccountNotFound, s.Transfer(ctx, "missing", destination.Address, 1))
		assert.Equal(t, tokenaccount.ErrTokenAccountNotFound, s.Transfer(ctx, source.Address, "missing", 1))

		// Insufficient balance leaves both sides untouched
		assert.Equal(t, tokenaccount.ErrInsufficientBalance, s.Transfer(ctx, source.Address, destination.Address, 101))
		assertBalance(t, s, source.Address, 100)
		assertBalance(t, s, destination.Address, 0)

		require.NoError(t, s.Transfer(ctx, source.Address, destination.Address, 40))
		assertBalance(t, s, source.Address, 60)
		assertBalance(t, s, destination.Address, 40)

		require.NoError(t, s.Transfer(ctx, source.Address, destination.Address, 60))
		assertBalance(t, s, source.Address, 0)
		assertBalance(t, s, destination.Address, 100)

		assert.Equal(t, tokenaccount.ErrInsufficientBalance, s.Transfer(ctx, source.Address, destination.Address, 1))
	})
}

func newTestRecord(seed uint64, amount uint64) *tokenaccount.Record {
	return &tokenaccount.Record{
		Address: fmt.Sprintf("token-account%d", seed),
		Mint:    fmt.Sprintf("mint%d", seed),
		Owner:   fmt.Sprintf("owner%d", seed),
		Amount:  amount,
	}
}

func assertBalance(t *testing.T, s tokenaccount.Store, address string, expected uint64) {
	actual, err := s.Get(context.Background(), address)
	require.NoError(t, err)
	assert.EqualValues(t, expected, actual.Amount)
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *tokenaccount.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Amount, obj2.Amount)
}
