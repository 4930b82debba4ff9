package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pg "github.com/code-payments/otc-server/pkg/database/postgres"
	"github.com/code-payments/otc-server/pkg/otc/data/listing"
	"github.com/code-payments/otc-server/pkg/otc/program"
)

const (
	tableName = "otc__core_listing"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`

	Seller         string `db:"seller"`
	BaseMint       string `db:"base_mint"`
	QuoteMint      string `db:"quote_mint"`
	VaultAuthority string `db:"vault_authority"`

	PricePerToken uint64 `db:"price_per_token"`
	Quantity      uint64 `db:"quantity"`
	Filled        uint64 `db:"filled"`
	ListingID     uint64 `db:"listing_id"`

	Flags        int `db:"flags"`
	VaultBump    int `db:"vault_bump"`
	Status       int `db:"status"`
	BaseDecimals int `db:"base_decimals"`

	FeePaymentMethod int    `db:"fee_payment_method"`
	FeeAmountPaid    uint64 `db:"fee_amount_paid"`
	X402PayloadHash  []byte `db:"x402_payload_hash"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *listing.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address: obj.Address,

		Seller:         obj.Seller,
		BaseMint:       obj.BaseMint,
		QuoteMint:      obj.QuoteMint,
		VaultAuthority: obj.VaultAuthority,

		PricePerToken: obj.PricePerToken,
		Quantity:      obj.Quantity,
		Filled:        obj.Filled,
		ListingID:     obj.ListingID,

		Flags:        int(obj.Flags),
		VaultBump:    int(obj.VaultBump),
		Status:       int(obj.Status),
		BaseDecimals: int(obj.BaseDecimals),

		FeePaymentMethod: int(obj.FeePaymentMethod),
		FeeAmountPaid:    obj.FeeAmountPaid,
		X402PayloadHash:  obj.X402PayloadHash,

		CreatedAt: obj.CreatedAt,
	}, nil
}

func fromModel(obj *model) *listing.Record {
	return &listing.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,

		Seller:         obj.Seller,
		BaseMint:       obj.BaseMint,
		QuoteMint:      obj.QuoteMint,
		VaultAuthority: obj.VaultAuthority,

		PricePerToken: obj.PricePerToken,
		Quantity:      obj.Quantity,
		Filled:        obj.Filled,
		ListingID:     obj.ListingID,

		Flags:        uint8(obj.Flags),
		VaultBump:    uint8(obj.VaultBump),
		Status:       program.ListingStatus(obj.Status),
		BaseDecimals: uint8(obj.BaseDecimals),

		FeePaymentMethod: program.FeePaymentMethod(obj.FeePaymentMethod),
		FeeAmountPaid:    obj.FeeAmountPaid,
		X402PayloadHash:  obj.X402PayloadHash,

		CreatedAt: obj.CreatedAt,
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pg.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, seller, base_mint, quote_mint, vault_authority, price_per_token, quantity, filled, listing_id, flags, vault_bump, status, base_decimals, fee_payment_method, fee_amount_paid, x402_payload_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING id, address, seller, base_mint, quote_mint, vault_authority, price_per_token, quantity, filled, listing_id, flags, vault_bump, status, base_decimals, fee_payment_method, fee_amount_paid, x402_payload_hash, created_at`

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Seller,
			m.BaseMint,
			m.QuoteMint,
			m.VaultAuthority,
			m.PricePerToken,
			m.Quantity,
			m.Filled,
			m.ListingID,
			m.Flags,
			m.VaultBump,
			m.Status,
			m.BaseDecimals,
			m.FeePaymentMethod,
			m.FeeAmountPaid,
			m.X402PayloadHash,
			m.CreatedAt,
		).StructScan(m)

		return pg.CheckUniqueViolation(err, listing.ErrListingAlreadyExists)
	})
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	return pg.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET filled = $2, status = $3
			WHERE address = $1
			RETURNING id, address, seller, base_mint, quote_mint, vault_authority, price_per_token, quantity, filled, listing_id, flags, vault_bump, status, base_decimals, fee_payment_method, fee_amount_paid, x402_payload_hash, created_at`

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Filled,
			m.Status,
		).StructScan(m)

		return pg.CheckNoRows(err, listing.ErrListingNotFound)
	})
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model

	query := `SELECT id, address, seller, base_mint, quote_mint, vault_authority, price_per_token, quantity, filled, listing_id, flags, vault_bump, status, base_decimals, fee_payment_method, fee_amount_paid, x402_payload_hash, created_at
		FROM ` + tableName + `
		WHERE address = $1`

	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pg.CheckNoRows(err, listing.ErrListingNotFound)
	}
	return &res, nil
}

func dbGetAllBySeller(ctx context.Context, db *sqlx.DB, seller string) ([]*model, error) {
	var res []*model

	query := `SELECT id, address, seller, base_mint, quote_mint, vault_authority, price_per_token, quantity, filled, listing_id, flags, vault_bump, status, base_decimals, fee_payment_method, fee_amount_paid, x402_payload_hash, created_at
		FROM ` + tableName + `
		WHERE seller = $1
		ORDER BY id ASC`

	err := db.SelectContext(ctx, &res, query, seller)
	if err != nil {
		return nil, pg.CheckNoRows(err, listing.ErrListingNotFound)
	}

	if len(res) == 0 {
		return nil, listing.ErrListingNotFound
	}
	return res, nil
}

func dbCount(ctx context.Context, db *sqlx.DB) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName

	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return 0, err
	}
	return res, nil
}
