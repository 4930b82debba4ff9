package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/otc-server/pkg/otc/data/tokenaccount"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres backed tokenaccount.Store
func New(db *sql.DB) tokenaccount.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements tokenaccount.Store.Put
func (s *store) Put(ctx context.Context, record *tokenaccount.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbPut(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)

	return nil
}

// Get implements tokenaccount.Store.Get
func (s *store) Get(ctx context.Context, address string) (*tokenaccount.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// Transfer implements tokenaccount.Store.Transfer
func (s *store) Transfer(ctx context.Context, source, destination string, amount uint64) error {
	return dbTransfer(ctx, s.db, source, destination, amount)
}
