package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/otc-server/pkg/otc/data/listing"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres backed listing.Store
func New(db *sql.DB) listing.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements listing.Store.Put
func (s *store) Put(ctx context.Context, record *listing.Record) error {
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

// Update implements listing.Store.Update
func (s *store) Update(ctx context.Context, record *listing.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbUpdate(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)

	return nil
}

// GetByAddress implements listing.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*listing.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllBySeller implements listing.Store.GetAllBySeller
func (s *store) GetAllBySeller(ctx context.Context, seller string) ([]*listing.Record, error) {
	models, err := dbGetAllBySeller(ctx, s.db, seller)
	if err != nil {
		return nil, err
	}

	res := make([]*listing.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// Count implements listing.Store.Count
func (s *store) Count(ctx context.Context) (uint64, error) {
	return dbCount(ctx, s.db)
}
