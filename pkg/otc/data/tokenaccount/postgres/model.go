package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pg "github.com/code-payments/otc-server/pkg/database/postgres"
	"github.com/code-payments/otc-server/pkg/otc/data/tokenaccount"
)

const (
	tableName = "otc__core_tokenaccount"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Mint    string `db:"mint"`
	Owner   string `db:"owner"`

	Amount uint64 `db:"amount"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *tokenaccount.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address: obj.Address,
		Mint:    obj.Mint,
		Owner:   obj.Owner,

		Amount: obj.Amount,

		CreatedAt: obj.CreatedAt,
	}, nil
}

func fromModel(obj *model) *tokenaccount.Record {
	return &tokenaccount.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Mint:    obj.Mint,
		Owner:   obj.Owner,

		Amount: obj.Amount,

		CreatedAt: obj.CreatedAt,
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pg.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, mint, owner, amount, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, address, mint, owner, amount, created_at`

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Mint,
			m.Owner,
			m.Amount,
			m.CreatedAt,
		).StructScan(m)

		return pg.CheckUniqueViolation(err, tokenaccount.ErrTokenAccountAlreadyExists)
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model

	query := `SELECT id, address, mint, owner, amount, created_at FROM ` + tableName + `
		WHERE address = $1`

	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pg.CheckNoRows(err, tokenaccount.ErrTokenAccountNotFound)
	}
	return &res, nil
}

func dbTransfer(ctx context.Context, db *sqlx.DB, source, destination string, amount uint64) error {
	return pg.ExecuteInTx(ctx, db, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		var exists bool

		// The conditional debit is what guards against a negative balance, so
		// distinguish a missing account from an underfunded one up front.
		err := tx.GetContext(ctx, &exists, `SELECT true FROM `+tableName+` WHERE address = $1`, source)
		if err != nil {
			return pg.CheckNoRows(err, tokenaccount.ErrTokenAccountNotFound)
		}

		debit := `UPDATE ` + tableName + `
			SET amount = amount - $2
			WHERE address = $1 AND amount >= $2`

		res, err := tx.ExecContext(ctx, debit, source, amount)
		if err != nil {
			return err
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return tokenaccount.ErrInsufficientBalance
		}

		credit := `UPDATE ` + tableName + `
			SET amount = amount + $2
			WHERE address = $1`

		res, err = tx.ExecContext(ctx, credit, destination, amount)
		if err != nil {
			return err
		}

		rowsAffected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return tokenaccount.ErrTokenAccountNotFound
		}

		return nil
	})
}
