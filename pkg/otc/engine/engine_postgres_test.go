package engine

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/otc-server/pkg/otc/data"
	"github.com/code-payments/otc-server/pkg/otc/program"

	postgrestest "github.com/code-payments/otc-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

// Used for testing ONLY, the tables and migrations are external to this repository
const testTableCreate = `
	CREATE TABLE otc__core_listing(
		id SERIAL NOT NULL PRIMARY KEY,

		address TEXT NOT NULL,

		seller TEXT NOT NULL,
		base_mint TEXT NOT NULL,
		quote_mint TEXT NOT NULL,
		vault_authority TEXT NOT NULL,

		price_per_token BIGINT NOT NULL CHECK (price_per_token > 0),
		quantity BIGINT NOT NULL CHECK (quantity > 0),
		filled BIGINT NOT NULL CHECK (filled >= 0 AND filled <= quantity),
		listing_id BIGINT NOT NULL,

		flags INTEGER NOT NULL,
		vault_bump INTEGER NOT NULL,
		status INTEGER NOT NULL CHECK (status >= 0 AND status <= 3),
		base_decimals INTEGER NOT NULL,

		fee_payment_method INTEGER NOT NULL CHECK (fee_payment_method >= 0 AND fee_payment_method <= 1),
		fee_amount_paid BIGINT NOT NULL,
		x402_payload_hash BYTEA,

		created_at TIMESTAMP WITH TIME ZONE NOT NULL,

		CONSTRAINT otc__core_listing__uniq__address UNIQUE (address),
		CONSTRAINT otc__core_listing__uniq__seller__and__listing_id UNIQUE (seller, listing_id)
	);

	CREATE TABLE otc__core_tokenaccount(
		id SERIAL NOT NULL PRIMARY KEY,

		address TEXT NOT NULL,
		mint TEXT NOT NULL,
		owner TEXT NOT NULL,

		amount BIGINT NOT NULL CHECK (amount >= 0),

		created_at TIMESTAMP WITH TIME ZONE NOT NULL,

		CONSTRAINT otc__core_tokenaccount__uniq__address UNIQUE (address)
	);

	CREATE TABLE otc__core_mint(
		id SERIAL NOT NULL PRIMARY KEY,

		address TEXT NOT NULL,
		decimals INTEGER NOT NULL CHECK (decimals >= 0 AND decimals <= 255),

		created_at TIMESTAMP WITH TIME ZONE NOT NULL,

		CONSTRAINT otc__core_mint__uniq__address UNIQUE (address)
	);
`

func setupPostgres(t *testing.T) *testEnv {
	testPool, err := dockertest.NewPool("")
	require.NoError(t, err)

	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool)
	require.NoError(t, err)
	t.Cleanup(cleanUpFunc)

	_, err = db.Exec(testTableCreate)
	require.NoError(t, err)

	return setupWithProvider(t, data.NewDatabaseProviderFromDB(db))
}

func TestEngine_PostgresProvider_ListingLifecycle(t *testing.T) {
	env := setupPostgres(t)

	record := env.initializeListing(t, true)
	assert.EqualValues(t, 1_000_000_000_000, record.FeeAmountPaid)
	assert.Equal(t, program.ListingStatusAwaitingDeposit, record.Status)

	require.NoError(t, env.engine.DepositTokens(env.ctx, env.seller, record.Address, env.sellerBase))

	record, err := env.data.GetListingByAddress(env.ctx, record.Address)
	require.NoError(t, err)
	assert.Equal(t, program.ListingStatusActive, record.Status)
	assert.EqualValues(t, 100_000_000, env.vaultBalance(t, record))
	assert.EqualValues(t, 0, env.balance(t, env.sellerBase))

	require.NoError(t, env.engine.Purchase(env.ctx, record.Address, &PurchaseArgs{
		Buyer:            env.buyer,
		QuoteSource:      env.buyerQuote,
		BaseDestination:  env.buyerBase,
		QuoteDestination: env.sellerQuote,
		RequestedAmount:  40_000_000,
	}))

	record, err = env.data.GetListingByAddress(env.ctx, record.Address)
	require.NoError(t, err)
	assert.EqualValues(t, 40_000_000, record.Filled)
	assert.Equal(t, program.ListingStatusActive, record.Status)
	assert.EqualValues(t, 60_000_000, env.vaultBalance(t, record))
	assert.EqualValues(t, 40_000_000, env.balance(t, env.buyerBase))
	assert.EqualValues(t, 40_000_000*1_000_000, env.balance(t, env.sellerQuote))

	require.NoError(t, env.engine.CancelListing(env.ctx, env.seller, record.Address, env.sellerBase))

	record, err = env.data.GetListingByAddress(env.ctx, record.Address)
	require.NoError(t, err)
	assert.Equal(t, program.ListingStatusCancelled, record.Status)
	assert.EqualValues(t, 40_000_000, record.Filled)
	assert.EqualValues(t, 0, env.vaultBalance(t, record))
	assert.EqualValues(t, 60_000_000, env.balance(t, env.sellerBase))
}

func TestEngine_PostgresProvider_SwapLegsRollBackTogether(t *testing.T) {
	env := setupPostgres(t)

	record := env.initializeListing(t, true)
	require.NoError(t, env.engine.DepositTokens(env.ctx, env.seller, record.Address, env.sellerBase))

	buyerQuoteBefore := env.balance(t, env.buyerQuote)

	// Apply both swap legs inside one scoped tx, then fail it. Neither leg
	// may remain applied.
	injected := errors.New("injected failure after transfers")
	err := env.data.ExecuteInTx(env.ctx, sql.LevelSerializable, func(ctx context.Context) error {
		if err := env.data.TransferTokens(ctx, env.buyerQuote, env.sellerQuote, 1_000_000); err != nil {
			return err
		}
		if err := env.engine.custodian.Release(ctx, record, env.buyerBase, 1_000_000); err != nil {
			return err
		}
		return injected
	})
	assert.Equal(t, injected, err)

	assert.Equal(t, buyerQuoteBefore, env.balance(t, env.buyerQuote))
	assert.EqualValues(t, 0, env.balance(t, env.sellerQuote))
	assert.EqualValues(t, 0, env.balance(t, env.buyerBase))
	assert.EqualValues(t, 100_000_000, env.vaultBalance(t, record))
}

func TestEngine_PostgresProvider_FailedPurchaseLeavesNoState(t *testing.T) {
	env := setupPostgres(t)

	record := env.initializeListing(t, true)
	require.NoError(t, env.engine.DepositTokens(env.ctx, env.seller, record.Address, env.sellerBase))

	poorBuyerQuote := env.createTokenAccount(t, env.quoteMint, env.buyer, 1)
	err := env.engine.Purchase(env.ctx, record.Address, &PurchaseArgs{
		Buyer:            env.buyer,
		QuoteSource:      poorBuyerQuote,
		BaseDestination:  env.buyerBase,
		QuoteDestination: env.sellerQuote,
		RequestedAmount:  40_000_000,
	})
	assert.Equal(t, ErrInsufficientBalance, err)

	record, err = env.data.GetListingByAddress(env.ctx, record.Address)
	require.NoError(t, err)
	assert.EqualValues(t, 0, record.Filled)
	assert.Equal(t, program.ListingStatusActive, record.Status)
	assert.EqualValues(t, 100_000_000, env.vaultBalance(t, record))
	assert.EqualValues(t, 0, env.balance(t, env.buyerBase))
	assert.EqualValues(t, 0, env.balance(t, env.sellerQuote))
}
