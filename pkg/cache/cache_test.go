package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InsertAndRetrieve(t *testing.T) {
	c := NewCache(10)

	require.NoError(t, c.Insert("mint-usdc", "usdc-metadata", 1))

	value, ok := c.Retrieve("mint-usdc")
	require.True(t, ok)
	assert.Equal(t, "usdc-metadata", value)

	_, ok = c.Retrieve("mint-unknown")
	assert.False(t, ok)
}

func TestCache_WeightAccounting(t *testing.T) {
	c := NewCache(3)

	require.NoError(t, c.Insert("mint-usdc", "usdc-metadata", 1))
	require.NoError(t, c.Insert("mint-kin", "kin-metadata", 1))
	require.NoError(t, c.Insert("mint-core", "core-metadata", 1))

	assert.Equal(t, 3, c.GetWeight())
	assert.Equal(t, 3, c.GetBudget())

	// A fourth insert forces an eviction back under budget
	require.NoError(t, c.Insert("mint-other", "other-metadata", 1))
	assert.Equal(t, 3, c.GetWeight())
}

func TestCache_DuplicateKeyRejected(t *testing.T) {
	c := NewCache(2)

	require.NoError(t, c.Insert("mint-usdc", "usdc-metadata", 1))
	assert.Error(t, c.Insert("mint-usdc", "usdc-metadata", 1))
}

func TestCache_EvictsLeastRecentlyInserted(t *testing.T) {
	c := NewCache(2)

	require.NoError(t, c.Insert("mint-evicted", "stale-metadata", 1))
	require.NoError(t, c.Insert("mint-usdc", "usdc-metadata", 1))
	require.NoError(t, c.Insert("mint-kin", "kin-metadata", 1))

	_, ok := c.Retrieve("mint-evicted")
	assert.False(t, ok)

	_, ok = c.Retrieve("mint-usdc")
	assert.True(t, ok)
	_, ok = c.Retrieve("mint-kin")
	assert.True(t, ok)
}

func TestCache_RetrievePromotesEntry(t *testing.T) {
	c := NewCache(2)

	require.NoError(t, c.Insert("mint-usdc", "usdc-metadata", 1))
	require.NoError(t, c.Insert("mint-kin", "kin-metadata", 1))

	// Touching usdc makes kin the coldest entry
	_, ok := c.Retrieve("mint-usdc")
	require.True(t, ok)

	require.NoError(t, c.Insert("mint-core", "core-metadata", 1))

	_, ok = c.Retrieve("mint-kin")
	assert.False(t, ok)
	_, ok = c.Retrieve("mint-usdc")
	assert.True(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := NewCache(1)

	require.NoError(t, c.Insert("mint-usdc", "usdc-metadata", 1))
	c.Clear()

	_, ok := c.Retrieve("mint-usdc")
	assert.False(t, ok)
	assert.Equal(t, 0, c.GetWeight())
}
