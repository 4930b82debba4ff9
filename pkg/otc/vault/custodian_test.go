package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/otc-server/pkg/otc/common"
	"github.com/code-payments/otc-server/pkg/otc/data"
	"github.com/code-payments/otc-server/pkg/otc/data/listing"
	"github.com/code-payments/otc-server/pkg/otc/data/tokenaccount"
	"github.com/code-payments/otc-server/pkg/otc/program"
)

func TestDeriveAuthority_Deterministic(t *testing.T) {
	seller := newRandomKey(t)

	authority1, bump1, err := DeriveAuthority(seller, 42)
	require.NoError(t, err)

	authority2, bump2, err := DeriveAuthority(seller, 42)
	require.NoError(t, err)

	assert.Equal(t, authority1.ToBase58(), authority2.ToBase58())
	assert.Equal(t, bump1, bump2)

	otherAuthority, _, err := DeriveAuthority(seller, 43)
	require.NoError(t, err)
	assert.NotEqual(t, authority1.ToBase58(), otherAuthority.ToBase58())
}

func TestCustodian_DepositAndRelease(t *testing.T) {
	ctx := context.Background()
	provider := data.NewTestDatabaseProvider()
	custodian := NewCustodian(provider)

	record, sellerTokenAccount := setupListing(t, ctx, provider, 100)

	require.NoError(t, custodian.Deposit(ctx, record, sellerTokenAccount, 100))

	vaultAccount, err := custodian.GetVaultAccount(record)
	require.NoError(t, err)

	actual, err := provider.GetTokenAccount(ctx, vaultAccount.ToBase58())
	require.NoError(t, err)
	assert.EqualValues(t, 100, actual.Amount)
	assert.Equal(t, record.VaultAuthority, actual.Owner)
	assert.Equal(t, record.BaseMint, actual.Mint)

	actual, err = provider.GetTokenAccount(ctx, sellerTokenAccount)
	require.NoError(t, err)
	assert.EqualValues(t, 0, actual.Amount)

	require.NoError(t, custodian.Release(ctx, record, sellerTokenAccount, 40))

	actual, err = provider.GetTokenAccount(ctx, vaultAccount.ToBase58())
	require.NoError(t, err)
	assert.EqualValues(t, 60, actual.Amount)

	actual, err = provider.GetTokenAccount(ctx, sellerTokenAccount)
	require.NoError(t, err)
	assert.EqualValues(t, 40, actual.Amount)
}

func TestCustodian_DepositInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	provider := data.NewTestDatabaseProvider()
	custodian := NewCustodian(provider)

	record, sellerTokenAccount := setupListing(t, ctx, provider, 10)

	err := custodian.Deposit(ctx, record, sellerTokenAccount, 100)
	assert.Equal(t, tokenaccount.ErrInsufficientBalance, err)
}

func TestCustodian_RejectsForgedAuthority(t *testing.T) {
	ctx := context.Background()
	provider := data.NewTestDatabaseProvider()
	custodian := NewCustodian(provider)

	record, sellerTokenAccount := setupListing(t, ctx, provider, 100)

	// A caller-supplied authority must fail re-derivation
	record.VaultAuthority = newRandomKey(t).ToBase58()

	err := custodian.Deposit(ctx, record, sellerTokenAccount, 100)
	assert.Equal(t, ErrInvalidVaultAuthority, err)

	err = custodian.Release(ctx, record, sellerTokenAccount, 100)
	assert.Equal(t, ErrInvalidVaultAuthority, err)
}

func setupListing(t *testing.T, ctx context.Context, provider data.DatabaseData, sellerBalance uint64) (*listing.Record, string) {
	seller := newRandomKey(t)
	baseMint := newRandomKey(t)
	quoteMint := newRandomKey(t)

	authority, bump, err := DeriveAuthority(seller, 1)
	require.NoError(t, err)

	record := &listing.Record{
		Address: newRandomKey(t).ToBase58(),

		Seller:         seller.ToBase58(),
		BaseMint:       baseMint.ToBase58(),
		QuoteMint:      quoteMint.ToBase58(),
		VaultAuthority: authority.ToBase58(),

		PricePerToken: 1,
		Quantity:      sellerBalance,
		ListingID:     1,

		VaultBump: bump,
		Status:    program.ListingStatusAwaitingDeposit,
	}

	sellerTokenAccount := newRandomKey(t).ToBase58()
	require.NoError(t, provider.CreateTokenAccount(ctx, &tokenaccount.Record{
		Address: sellerTokenAccount,
		Mint:    baseMint.ToBase58(),
		Owner:   seller.ToBase58(),
		Amount:  sellerBalance,
	}))

	return record, sellerTokenAccount
}

func newRandomKey(t *testing.T) *common.Key {
	key, err := common.NewRandomKey()
	require.NoError(t, err)
	return key
}
