package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/otc-server/pkg/otc/data/mint"
)

func RunTests(t *testing.T, s mint.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s mint.Store){
		testRoundTrip,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s mint.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()

		record := &mint.Record{
			Address:  "mint",
			Decimals: 6,
		}
		cloned := record.Clone()

		_, err := s.Get(ctx, record.Address)
		assert.Equal(t, mint.ErrMintNotFound, err)

		require.NoError(t, s.Put(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))

		actual, err := s.Get(ctx, cloned.Address)
		require.NoError(t, err)
		assert.Equal(t, cloned.Address, actual.Address)
		assert.Equal(t, cloned.Decimals, actual.Decimals)

		assert.Equal(t, mint.ErrMintAlreadyExists, s.Put(ctx, &mint.Record{Address: "mint", Decimals: 9}))
	})
}
