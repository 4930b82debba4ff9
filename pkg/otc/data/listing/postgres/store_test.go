package postgres

import (
	"database/sql"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/otc-server/pkg/otc/data/listing"
	"github.com/code-payments/otc-server/pkg/otc/data/listing/tests"

	postgrestest "github.com/code-payments/otc-server/pkg/database/postgres/test"

	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	// Used for testing ONLY, the table and migrations are external to this repository
	tableCreate = `
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
	`

	// Used for testing ONLY, the table and migrations are external to this repository
	tableDestroy = `
		DROP TABLE otc__core_listing;
	`
)

var (
	testStore listing.Store
	teardown  func()
)

func TestMain(m *testing.M) {
	log := logrus.StandardLogger()

	testPool, err := dockertest.NewPool("")
	if err != nil {
		log.WithError(err).Error("Error creating docker pool")
		os.Exit(1)
	}

	db, cleanUpFunc, err := postgrestest.StartPostgresDB(testPool)
	if err != nil {
		log.WithError(err).Error("Error starting postgres image")
		os.Exit(1)
	}
	defer db.Close()

	if err := createTestTables(db); err != nil {
		logrus.StandardLogger().WithError(err).Error("Error creating test tables")
		cleanUpFunc()
		os.Exit(1)
	}

	testStore = New(db)
	teardown = func() {
		if pc := recover(); pc != nil {
			cleanUpFunc()
			panic(pc)
		}

		if err := resetTestTables(db); err != nil {
			logrus.StandardLogger().WithError(err).Error("Error resetting test tables")
			cleanUpFunc()
			os.Exit(1)
		}
	}

	code := m.Run()
	cleanUpFunc()
	os.Exit(code)
}

func TestListingPostgresStore(t *testing.T) {
	tests.RunTests(t, testStore, teardown)
}

func createTestTables(db *sql.DB) error {
	_, err := db.Exec(tableCreate)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not create test tables")
		return err
	}
	return nil
}

func resetTestTables(db *sql.DB) error {
	_, err := db.Exec(tableDestroy)
	if err != nil {
		logrus.StandardLogger().WithError(err).Error("could not drop test tables")
		return err
	}

	return createTestTables(db)
}
