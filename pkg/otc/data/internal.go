package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/otc-server/pkg/cache"
	pg "github.com/code-payments/otc-server/pkg/database/postgres"

	"github.com/code-payments/otc-server/pkg/otc/data/listing"
	"github.com/code-payments/otc-server/pkg/otc/data/mint"
	"github.com/code-payments/otc-server/pkg/otc/data/tokenaccount"

	listing_memory_client "github.com/code-payments/otc-server/pkg/otc/data/listing/memory"
	mint_memory_client "github.com/code-payments/otc-server/pkg/otc/data/mint/memory"
	tokenaccount_memory_client "github.com/code-payments/otc-server/pkg/otc/data/tokenaccount/memory"

	listing_postgres_client "github.com/code-payments/otc-server/pkg/otc/data/listing/postgres"
	mint_postgres_client "github.com/code-payments/otc-server/pkg/otc/data/mint/postgres"
	tokenaccount_postgres_client "github.com/code-payments/otc-server/pkg/otc/data/tokenaccount/postgres"
)

// Mint records are immutable once created, so lookups are cached aggressively.
const (
	maxMintCacheBudget     = 100000
	singleMintRecordWeight = 1
)

type DatabaseData interface {
	// Listings
	// --------------------------------------------------------------------------------
	CreateListing(ctx context.Context, record *listing.Record) error
	UpdateListing(ctx context.Context, record *listing.Record) error
	GetListingByAddress(ctx context.Context, address string) (*listing.Record, error)
	GetAllListingsBySeller(ctx context.Context, seller string) ([]*listing.Record, error)
	GetListingCount(ctx context.Context) (uint64, error)

	// Token Accounts
	// --------------------------------------------------------------------------------
	CreateTokenAccount(ctx context.Context, record *tokenaccount.Record) error
	GetTokenAccount(ctx context.Context, address string) (*tokenaccount.Record, error)
	TransferTokens(ctx context.Context, source, destination string, amount uint64) error

	// Mints
	// --------------------------------------------------------------------------------
	CreateMint(ctx context.Context, record *mint.Record) error
	GetMint(ctx context.Context, address string) (*mint.Record, error)

	// ExecuteInTx executes fn with a single DB transaction that is scoped to the
	// call. This enables more complex transactions that can span multiple stores.
	// When the provider is not backed by a DB, fn is executed directly and each
	// individual store operation applies on its own.
	ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error
}

type DatabaseProvider struct {
	listings      listing.Store
	tokenAccounts tokenaccount.Store
	mints         mint.Store

	mintCache cache.Cache

	db *sqlx.DB
}

func NewDatabaseProvider(dbConfig *pg.Config) (DatabaseData, error) {
	db, err := pg.NewWithUsernameAndPassword(
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Host,
		fmt.Sprint(dbConfig.Port),
		dbConfig.DbName,
	)
	if err != nil {
		return nil, err
	}

	if dbConfig.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(dbConfig.MaxOpenConnections)
	}
	if dbConfig.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(dbConfig.MaxIdleConnections)
	}
	db.SetConnMaxIdleTime(time.Hour)
	db.SetConnMaxLifetime(time.Hour)

	return NewDatabaseProviderFromDB(db), nil
}

// NewDatabaseProviderFromDB returns a postgres backed provider over an
// existing connection pool. Tests running against a container DB use this
// directly.
func NewDatabaseProviderFromDB(db *sql.DB) DatabaseData {
	return &DatabaseProvider{
		listings:      listing_postgres_client.New(db),
		tokenAccounts: tokenaccount_postgres_client.New(db),
		mints:         mint_postgres_client.New(db),

		mintCache: cache.NewCache(maxMintCacheBudget),

		db: sqlx.NewDb(db, "pgx"),
	}
}

func NewTestDatabaseProvider() DatabaseData {
	return &DatabaseProvider{
		listings:      listing_memory_client.New(),
		tokenAccounts: tokenaccount_memory_client.New(),
		mints:         mint_memory_client.New(),

		mintCache: cache.NewCache(maxMintCacheBudget),
	}
}

func (dp *DatabaseProvider) ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error {
	if dp.db == nil {
		return fn(ctx)
	}

	return pg.ExecuteTxWithinCtx(ctx, dp.db, isolation, fn)
}

// Listings
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateListing(ctx context.Context, record *listing.Record) error {
	return dp.listings.Put(ctx, record)
}
func (dp *DatabaseProvider) UpdateListing(ctx context.Context, record *listing.Record) error {
	return dp.listings.Update(ctx, record)
}
func (dp *DatabaseProvider) GetListingByAddress(ctx context.Context, address string) (*listing.Record, error) {
	return dp.listings.GetByAddress(ctx, address)
}
func (dp *DatabaseProvider) GetAllListingsBySeller(ctx context.Context, seller string) ([]*listing.Record, error) {
	return dp.listings.GetAllBySeller(ctx, seller)
}
func (dp *DatabaseProvider) GetListingCount(ctx context.Context) (uint64, error) {
	return dp.listings.Count(ctx)
}

// Token Accounts
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateTokenAccount(ctx context.Context, record *tokenaccount.Record) error {
	return dp.tokenAccounts.Put(ctx, record)
}
func (dp *DatabaseProvider) GetTokenAccount(ctx context.Context, address string) (*tokenaccount.Record, error) {
	return dp.tokenAccounts.Get(ctx, address)
}
func (dp *DatabaseProvider) TransferTokens(ctx context.Context, source, destination string, amount uint64) error {
	return dp.tokenAccounts.Transfer(ctx, source, destination, amount)
}

// Mints
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateMint(ctx context.Context, record *mint.Record) error {
	return dp.mints.Put(ctx, record)
}
func (dp *DatabaseProvider) GetMint(ctx context.Context, address string) (*mint.Record, error) {
	if cached, ok := dp.mintCache.Retrieve(address); ok {
		cachedRecord := cached.(mint.Record)
		record := cachedRecord.Clone()
		return &record, nil
	}

	record, err := dp.mints.Get(ctx, address)
	if err != nil {
		return nil, err
	}

	dp.mintCache.Insert(address, record.Clone(), singleMintRecordWeight)
	return record, nil
}
