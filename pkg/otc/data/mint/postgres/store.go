package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pg "github.com/code-payments/otc-server/pkg/database/postgres"
	"github.com/code-payments/otc-server/pkg/otc/data/mint"
)

const (
	tableName = "otc__core_mint"
)

type store struct {
	db *sqlx.DB
}

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address  string `db:"address"`
	Decimals int    `db:"decimals"`

	CreatedAt time.Time `db:"created_at"`
}

// New returns a new postgres backed mint.Store
func New(db *sql.DB) mint.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements mint.Store.Put
func (s *store) Put(ctx context.Context, record *mint.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	m := &model{
		Address:   record.Address,
		Decimals:  int(record.Decimals),
		CreatedAt: record.CreatedAt,
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	query := `INSERT INTO ` + tableName + `
		(address, decimals, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, address, decimals, created_at`

	err := s.db.QueryRowxContext(
		ctx,
		query,
		m.Address,
		m.Decimals,
		m.CreatedAt,
	).StructScan(m)
	if err != nil {
		return pg.CheckUniqueViolation(err, mint.ErrMintAlreadyExists)
	}

	record.Id = uint64(m.Id.Int64)
	record.CreatedAt = m.CreatedAt

	return nil
}

// Get implements mint.Store.Get
func (s *store) Get(ctx context.Context, address string) (*mint.Record, error) {
	var res model

	query := `SELECT id, address, decimals, created_at FROM ` + tableName + `
		WHERE address = $1`

	err := s.db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pg.CheckNoRows(err, mint.ErrMintNotFound)
	}

	return &mint.Record{
		Id: uint64(res.Id.Int64),

		Address:  res.Address,
		Decimals: uint8(res.Decimals),

		CreatedAt: res.CreatedAt,
	}, nil
}
